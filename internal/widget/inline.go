package widget

import (
	"html"
	"regexp"
	"strings"
)

var (
	scriptClose = regexp.MustCompile(`(?i)</(script)`)
	styleClose  = regexp.MustCompile(`(?i)</(style)`)
)

// EscapeScript neutralizes closing script tags inside inlined JavaScript.
func EscapeScript(js string) string {
	return scriptClose.ReplaceAllString(js, `<\/$1`)
}

// EscapeStyle neutralizes closing style tags inside inlined CSS.
func EscapeStyle(css string) string {
	return styleClose.ReplaceAllString(css, `<\/$1`)
}

// Inline builds a self-contained document embedding script and style.
func Inline(spec Spec, script, style string) string {
	title := spec.Title
	if title == "" {
		title = spec.Name
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	sb.WriteString("<meta charset=\"utf-8\">\n")
	sb.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n")
	sb.WriteString("<title>" + html.EscapeString(title) + "</title>\n")
	sb.WriteString("<style>\n" + EscapeStyle(style) + "\n</style>\n")
	sb.WriteString("</head>\n<body>\n")
	sb.WriteString("<div id=\"" + html.EscapeString(spec.Name) + "-root\"></div>\n")
	sb.WriteString("<script type=\"module\">\n" + EscapeScript(script) + "\n</script>\n")
	sb.WriteString("</body>\n</html>\n")
	return sb.String()
}
