// Package article holds the corpus data model: raw records as they arrive from
// a source, and the normalized Article every other package works with.
package article

import (
	"encoding/json"
	"time"
)

// RawRecord is an article exactly as a corpus source delivered it. Nothing
// about it is trusted until Normalize accepts it.
type RawRecord struct {
	Slug         string          `json:"slug"`
	Title        string          `json:"title"`
	Date         string          `json:"date"`
	PublishedAt  string          `json:"publishedAt"`
	Summary      string          `json:"summary"`
	Excerpt      string          `json:"excerpt"`
	AuthorName   string          `json:"authorName"`
	Author       json.RawMessage `json:"author"`
	Link         string          `json:"link"`
	HeroImage    string          `json:"heroImage"`
	HeroImageAlt string          `json:"heroImageAlt"`
	Media        []MediaAsset    `json:"media"`
}

// MediaAsset is one entry of a record's nested media list.
type MediaAsset struct {
	URL  string `json:"url"`
	Alt  string `json:"alt"`
	Type string `json:"type"`
}

// Article is a validated, normalized corpus entry. Values are immutable after
// Normalize returns them.
type Article struct {
	Slug         string    `json:"slug" validate:"required,slug"`
	Title        string    `json:"title" validate:"required"`
	Published    time.Time `json:"published"`
	Summary      string    `json:"summary,omitempty"`
	Author       string    `json:"author"`
	URL          string    `json:"url"`
	HeroImage    string    `json:"heroImage,omitempty"`
	HeroImageAlt string    `json:"heroImageAlt,omitempty"`
}

// HasHero reports whether the article carries a hero image.
func (a Article) HasHero() bool {
	return a.HeroImage != ""
}
