package article

import (
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

// ErrInvalidRecord marks a raw record that cannot become an Article.
var ErrInvalidRecord = errors.New("invalid article record")

var (
	slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	spaceRun    = regexp.MustCompile(`\s+`)
)

const dateOnlyLayout = "2006-01-02"

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	dateOnlyLayout,
}

// ParseDate accepts the date formats seen in corpus exports. Values without a
// zone are read as UTC. dateOnly reports whether s carried no time of day.
func ParseDate(s string) (t time.Time, dateOnly bool, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, layout == dateOnlyLayout, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("unrecognized date %q (want YYYY-MM-DD or RFC 3339)", s)
}

// Normalizer converts raw records into articles. It is safe for concurrent use.
type Normalizer struct {
	siteURL  string
	validate *validator.Validate
	strip    *bluemonday.Policy
}

// NewNormalizer returns a Normalizer deriving canonical URLs under siteURL.
func NewNormalizer(siteURL string) *Normalizer {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
	return &Normalizer{
		siteURL:  siteURL,
		validate: v,
		strip:    bluemonday.StrictPolicy(),
	}
}

// Normalize is the single conversion from RawRecord to Article. Any error
// wraps ErrInvalidRecord and means the record must be left out of the corpus.
func (n *Normalizer) Normalize(r RawRecord) (Article, error) {
	slug := strings.TrimSpace(r.Slug)

	date := r.Date
	if strings.TrimSpace(date) == "" {
		date = r.PublishedAt
	}
	published, _, err := ParseDate(date)
	if err != nil {
		return Article{}, fmt.Errorf("%w: %q: publication date: %v", ErrInvalidRecord, slug, err)
	}

	summary := r.Summary
	if strings.TrimSpace(summary) == "" {
		summary = r.Excerpt
	}

	r.Slug = slug
	hero, heroAlt := HeroMedia(r)
	a := Article{
		Slug:         slug,
		Title:        strings.TrimSpace(r.Title),
		Published:    published,
		Summary:      n.plain(summary),
		Author:       AuthorName(r),
		URL:          CanonicalURL(r, n.siteURL),
		HeroImage:    hero,
		HeroImageAlt: heroAlt,
	}

	if err := n.validate.Struct(a); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return Article{}, fmt.Errorf("%w: %q: field %s failed %q", ErrInvalidRecord, slug, verrs[0].Field(), verrs[0].Tag())
		}
		return Article{}, fmt.Errorf("%w: %q: %v", ErrInvalidRecord, slug, err)
	}
	return a, nil
}

// plain strips markup from s and collapses whitespace.
func (n *Normalizer) plain(s string) string {
	s = html.UnescapeString(n.strip.Sanitize(s))
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}
