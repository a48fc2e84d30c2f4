// Package widget resolves the self-contained HTML documents served as
// interactive result views.
//
// Each widget name is resolved at most once per Resolver. Resolution prefers
// a prebuilt document, then inlines the newest built script and stylesheet.
// A widget that cannot be resolved is Unavailable: callers get a nil
// Descriptor and fall back to text output, while Document still serves a
// fallback page so the widget URI never dangles.
package widget

import (
	"fmt"
	"html"
)

// MIMEType is the content type hosts expect for widget templates.
const MIMEType = "text/html+skybridge"

// State is the resolution state of a widget name.
type State int

const (
	Unresolved State = iota
	Resolved
	Unavailable
)

func (s State) String() string {
	switch s {
	case Resolved:
		return "resolved"
	case Unavailable:
		return "unavailable"
	default:
		return "unresolved"
	}
}

// Source records how a resolved document was produced.
type Source string

const (
	SourcePrebuilt Source = "prebuilt"
	SourceInlined  Source = "inlined"
)

// Spec describes a widget before resolution.
type Spec struct {
	Name     string
	Title    string
	Invoking string
	Invoked  string
}

// Descriptor is a resolved widget.
type Descriptor struct {
	Spec
	URI    string
	HTML   string
	Source Source
}

// URI returns the template URI for a widget name.
func URI(name string) string {
	return "ui://widget/" + name + ".html"
}

// Meta returns the tool metadata that binds a tool to this widget.
func (d *Descriptor) Meta() map[string]any {
	return map[string]any{
		"openai/outputTemplate":          d.URI,
		"openai/toolInvocation/invoking": d.Invoking,
		"openai/toolInvocation/invoked":  d.Invoked,
		"openai/widgetAccessible":        true,
		"openai/resultCanProduceWidget":  true,
	}
}

func placeholder(spec Spec) string {
	title := spec.Title
	if title == "" {
		title = spec.Name
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>%s</title></head>
<body><p>This view is unavailable. Results are included as text.</p></body>
</html>
`, html.EscapeString(title))
}
