package corpus

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/stroppy-io/corpus-mcp/internal/article"
)

// ValidationError reports a malformed query argument.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// Search matches term case-insensitively against title, summary and author.
// Results keep load order.
func (ix *Index) Search(term string, limit int) []article.Article {
	needle := strings.ToLower(strings.TrimSpace(term))
	return ix.collect(limit, func(a article.Article) bool {
		return contains(a.Title, needle) || contains(a.Summary, needle) || contains(a.Author, needle)
	})
}

// SearchByTitle is Search restricted to the title field.
func (ix *Index) SearchByTitle(term string, limit int) []article.Article {
	needle := strings.ToLower(strings.TrimSpace(term))
	return ix.collect(limit, func(a article.Article) bool {
		return contains(a.Title, needle)
	})
}

// FilterByDateRange returns articles published within [start, end], newest
// first. Either bound may be empty. A date-only end bound covers that whole
// day.
func (ix *Index) FilterByDateRange(start, end string, limit int) ([]article.Article, error) {
	from, to, err := parseRange(start, end)
	if err != nil {
		return nil, err
	}
	matches := ix.filter(func(a article.Article) bool {
		if !from.IsZero() && a.Published.Before(from) {
			return false
		}
		if !to.IsZero() && a.Published.After(to) {
			return false
		}
		return true
	})
	return newestFirst(matches, limit), nil
}

// FilterByAuthor matches name case-insensitively against the author, newest
// first.
func (ix *Index) FilterByAuthor(name string, limit int) []article.Article {
	needle := strings.ToLower(strings.TrimSpace(name))
	return newestFirst(ix.filter(func(a article.Article) bool {
		return contains(a.Author, needle)
	}), limit)
}

// Recent returns the newest articles in the corpus.
func (ix *Index) Recent(limit int) []article.Article {
	return newestFirst(ix.All(), limit)
}

func (ix *Index) collect(limit int, match func(article.Article) bool) []article.Article {
	limit = ClampLimit(limit)
	out := make([]article.Article, 0, min(limit, len(ix.articles)))
	for _, a := range ix.articles {
		if len(out) == limit {
			break
		}
		if match(a) {
			out = append(out, a)
		}
	}
	return out
}

func (ix *Index) filter(match func(article.Article) bool) []article.Article {
	var out []article.Article
	for _, a := range ix.articles {
		if match(a) {
			out = append(out, a)
		}
	}
	return out
}

// newestFirst sorts before truncating so the limit applies to the globally
// newest matches. Equal dates keep load order.
func newestFirst(matches []article.Article, limit int) []article.Article {
	slices.SortStableFunc(matches, func(a, b article.Article) int {
		return b.Published.Compare(a.Published)
	})
	limit = ClampLimit(limit)
	if len(matches) > limit {
		matches = matches[:limit]
	}
	if matches == nil {
		matches = []article.Article{}
	}
	return matches
}

func parseRange(start, end string) (from, to time.Time, err error) {
	if strings.TrimSpace(start) != "" {
		from, _, err = article.ParseDate(start)
		if err != nil {
			return time.Time{}, time.Time{}, &ValidationError{Field: "start_date", Value: start, Reason: err.Error()}
		}
	}
	if strings.TrimSpace(end) != "" {
		var dateOnly bool
		to, dateOnly, err = article.ParseDate(end)
		if err != nil {
			return time.Time{}, time.Time{}, &ValidationError{Field: "end_date", Value: end, Reason: err.Error()}
		}
		if dateOnly {
			to = to.Add(24*time.Hour - time.Nanosecond)
		}
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, &ValidationError{Field: "start_date", Value: start, Reason: "start date is after end date"}
	}
	return from, to, nil
}

func contains(field, lowerNeedle string) bool {
	return strings.Contains(strings.ToLower(field), lowerNeedle)
}
