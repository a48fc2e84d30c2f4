package corpus

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/stroppy-io/corpus-mcp/internal/article"
)

// ErrEmptyCorpus is returned when no record survives validation.
var ErrEmptyCorpus = errors.New("corpus has no valid articles")

// Source delivers raw corpus records.
type Source interface {
	Load(ctx context.Context) ([]article.RawRecord, error)
	String() string
}

// FileSource reads a JSON file holding either an array of records or an
// object with an "articles" array.
type FileSource struct {
	Path string
}

func (s FileSource) String() string {
	return "file:" + s.Path
}

// Load reads and decodes the file.
func (s FileSource) Load(_ context.Context) ([]article.RawRecord, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("reading corpus file: %w", err)
	}
	data = bytes.TrimSpace(data)

	var records []article.RawRecord
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("parsing corpus file %s: %w", s.Path, err)
		}
		return records, nil
	}

	var doc struct {
		Articles []article.RawRecord `json:"articles"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing corpus file %s: %w", s.Path, err)
	}
	if doc.Articles == nil {
		return nil, fmt.Errorf("parsing corpus file %s: no \"articles\" array", s.Path)
	}
	return doc.Articles, nil
}

// Build loads src, normalizes every record and indexes the survivors.
// Records that fail normalization are logged and skipped; a source error or
// an empty result is fatal.
func Build(ctx context.Context, src Source, siteURL string, log *zap.Logger) (*Index, error) {
	records, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}

	n := article.NewNormalizer(siteURL)
	articles := make([]article.Article, 0, len(records))
	for i, rec := range records {
		a, err := n.Normalize(rec)
		if err != nil {
			log.Warn("Skipping corpus record", zap.Int("position", i), zap.Error(err))
			continue
		}
		articles = append(articles, a)
	}
	if len(articles) == 0 {
		return nil, fmt.Errorf("%s: %w", src, ErrEmptyCorpus)
	}

	ix := NewIndex(articles)
	log.Info("Corpus loaded",
		zap.Stringer("source", src),
		zap.Int("records", len(records)),
		zap.Int("articles", ix.Len()),
		zap.Int("skipped", len(records)-len(articles)))
	return ix, nil
}
