// Package format renders query results for the two kinds of consumers: plain
// text for hosts without widget support, and a structured payload a widget
// renders. Both go through Record so they agree on what an article looks like.
package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/stroppy-io/corpus-mcp/internal/article"
)

// DisplayDate is the human date layout used in text output.
const DisplayDate = "January 2, 2006"

// NoResults is the text rendering of an empty result set.
const NoResults = "No articles found."

// ArticleRecord is the widget-facing view of one article.
type ArticleRecord struct {
	Slug         string `json:"slug"`
	Title        string `json:"title"`
	Author       string `json:"author"`
	Date         string `json:"date"`
	DisplayDate  string `json:"displayDate"`
	Summary      string `json:"summary,omitempty"`
	URL          string `json:"url"`
	HeroImage    string `json:"heroImage,omitempty"`
	HeroImageAlt string `json:"heroImageAlt,omitempty"`
}

// Payload is the structured content attached to widget-backed tool results.
type Payload struct {
	Heading     string          `json:"heading"`
	Articles    []ArticleRecord `json:"articles"`
	Total       int             `json:"total"`
	Summary     string          `json:"summary"`
	GeneratedAt string          `json:"generatedAt"`
}

// Record maps an article to its shared presentation form.
func Record(a article.Article) ArticleRecord {
	return ArticleRecord{
		Slug:         a.Slug,
		Title:        a.Title,
		Author:       a.Author,
		Date:         a.Published.UTC().Format(time.RFC3339),
		DisplayDate:  a.Published.UTC().Format(DisplayDate),
		Summary:      a.Summary,
		URL:          a.URL,
		HeroImage:    a.HeroImage,
		HeroImageAlt: a.HeroImageAlt,
	}
}

// NewPayload builds the structured content for a result set.
func NewPayload(heading, summary string, articles []article.Article, now time.Time) Payload {
	records := make([]ArticleRecord, len(articles))
	for i, a := range articles {
		records[i] = Record(a)
	}
	return Payload{
		Heading:     heading,
		Articles:    records,
		Total:       len(records),
		Summary:     summary,
		GeneratedAt: now.UTC().Format(time.RFC3339),
	}
}

// List renders a numbered plain-text list under heading.
func List(heading string, articles []article.Article) string {
	if len(articles) == 0 {
		return NoResults
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n\n", heading)
	for i, a := range articles {
		r := Record(a)
		fmt.Fprintf(&sb, "%d. %s\n", i+1, r.Title)
		fmt.Fprintf(&sb, "   Date: %s\n", r.DisplayDate)
		fmt.Fprintf(&sb, "   Author: %s\n", r.Author)
		fmt.Fprintf(&sb, "   Link: %s\n", r.URL)
		if i < len(articles)-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// Preview renders one article as a rich text block.
func Preview(a article.Article) string {
	r := Record(a)

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n", r.Title)
	sb.WriteString(strings.Repeat("=", len([]rune(r.Title))) + "\n\n")
	fmt.Fprintf(&sb, "Author: %s\n", r.Author)
	fmt.Fprintf(&sb, "Published: %s\n", r.DisplayDate)
	fmt.Fprintf(&sb, "Link: %s\n", r.URL)
	if r.HeroImage != "" {
		fmt.Fprintf(&sb, "Image: %s (%s)\n", r.HeroImage, r.HeroImageAlt)
	}
	if r.Summary != "" {
		fmt.Fprintf(&sb, "\n%s\n", r.Summary)
	}
	return sb.String()
}

// Count phrases n with the right noun form, e.g. "1 article", "3 articles".
func Count(n int) string {
	if n == 1 {
		return "1 article"
	}
	return fmt.Sprintf("%d articles", n)
}
