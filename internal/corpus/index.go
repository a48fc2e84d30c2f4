// Package corpus holds the in-memory article index and the sources it is
// built from. An Index is immutable once built and may be shared by any
// number of goroutines without locking.
package corpus

import (
	"time"

	"github.com/stroppy-io/corpus-mcp/internal/article"
)

const (
	// DefaultLimit is used when a caller gives no usable limit.
	DefaultLimit = 10
	// MaxLimit is the hard ceiling for every result set.
	MaxLimit = 100
)

// ClampLimit maps any requested limit into [1, MaxLimit]. Non-positive values
// fall back to DefaultLimit; values above the ceiling are clamped.
func ClampLimit(n int) int {
	switch {
	case n <= 0:
		return DefaultLimit
	case n > MaxLimit:
		return MaxLimit
	default:
		return n
	}
}

// Index is the validated corpus in load order plus a slug lookup.
type Index struct {
	articles []article.Article
	bySlug   map[string]int
}

// NewIndex builds an index over articles, keeping their order. When two
// articles share a slug the later one wins the lookup.
func NewIndex(articles []article.Article) *Index {
	ix := &Index{
		articles: make([]article.Article, len(articles)),
		bySlug:   make(map[string]int, len(articles)),
	}
	copy(ix.articles, articles)
	for i, a := range ix.articles {
		ix.bySlug[a.Slug] = i
	}
	return ix
}

// Len returns the number of indexed articles.
func (ix *Index) Len() int {
	return len(ix.articles)
}

// All returns a copy of the corpus in load order.
func (ix *Index) All() []article.Article {
	out := make([]article.Article, len(ix.articles))
	copy(out, ix.articles)
	return out
}

// Lookup finds an article by exact slug.
func (ix *Index) Lookup(slug string) (article.Article, bool) {
	i, ok := ix.bySlug[slug]
	if !ok {
		return article.Article{}, false
	}
	return ix.articles[i], true
}

// Stats summarizes the corpus.
type Stats struct {
	Articles int
	Authors  int
	Oldest   time.Time
	Newest   time.Time
}

// Stats computes corpus-wide figures.
func (ix *Index) Stats() Stats {
	s := Stats{Articles: len(ix.articles)}
	authors := make(map[string]struct{})
	for i, a := range ix.articles {
		authors[a.Author] = struct{}{}
		if i == 0 || a.Published.Before(s.Oldest) {
			s.Oldest = a.Published
		}
		if i == 0 || a.Published.After(s.Newest) {
			s.Newest = a.Published
		}
	}
	s.Authors = len(authors)
	return s
}
