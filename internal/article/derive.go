package article

import (
	"encoding/json"
	"strings"
)

// DefaultAuthor is used when a record names no author at all.
const DefaultAuthor = "Staff"

// AuthorName derives the display author: the explicit name field, then the
// author value (a plain string or an object with a name), then DefaultAuthor.
func AuthorName(r RawRecord) string {
	if name := strings.TrimSpace(r.AuthorName); name != "" {
		return name
	}
	if name := strings.TrimSpace(authorField(r.Author)); name != "" {
		return name
	}
	return DefaultAuthor
}

func authorField(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Name
	}
	return ""
}

// CanonicalURL derives the article link: the explicit link field, otherwise
// the slug appended to siteURL.
func CanonicalURL(r RawRecord, siteURL string) string {
	if link := strings.TrimSpace(r.Link); link != "" {
		return link
	}
	if siteURL == "" {
		return "/" + r.Slug
	}
	return strings.TrimRight(siteURL, "/") + "/" + r.Slug
}

// HeroMedia derives the hero image URL and alt text. Explicit hero fields win,
// then the first image-typed media asset, then the first media asset with a
// URL. Alt text falls back to the title whenever an image was found.
func HeroMedia(r RawRecord) (url, alt string) {
	url = strings.TrimSpace(r.HeroImage)
	alt = strings.TrimSpace(r.HeroImageAlt)

	if url == "" {
		if m, ok := pickMedia(r.Media); ok {
			url = m.URL
			if alt == "" {
				alt = strings.TrimSpace(m.Alt)
			}
		}
	}
	if url == "" {
		return "", ""
	}
	if alt == "" {
		alt = strings.TrimSpace(r.Title)
	}
	return url, alt
}

func pickMedia(media []MediaAsset) (MediaAsset, bool) {
	for _, m := range media {
		if m.URL != "" && (m.Type == "" || strings.HasPrefix(strings.ToLower(m.Type), "image")) {
			return m, true
		}
	}
	for _, m := range media {
		if m.URL != "" {
			return m, true
		}
	}
	return MediaAsset{}, false
}
