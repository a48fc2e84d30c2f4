package corpus

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stroppy-io/corpus-mcp/internal/article"
)

// Querier is the part of a pgx pool or connection the Postgres source needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const articlesQuery = `SELECT slug, title, published_at,
	COALESCE(summary, ''), COALESCE(author_name, ''), COALESCE(link, ''),
	COALESCE(hero_image, ''), COALESCE(hero_image_alt, '')
FROM articles
WHERE published_at IS NOT NULL
ORDER BY position, published_at`

// PostgresSource reads the corpus from an articles table:
//
//	slug text, title text, published_at timestamptz, summary text,
//	author_name text, link text, hero_image text, hero_image_alt text,
//	position integer
//
// position is the curated corpus order, the equivalent of array order in a
// JSON file. Row order is the load order of the resulting index.
type PostgresSource struct {
	DB Querier
}

func (s PostgresSource) String() string {
	return "postgres:articles"
}

// Load runs the corpus query and maps each row to a raw record.
func (s PostgresSource) Load(ctx context.Context) ([]article.RawRecord, error) {
	rows, err := s.DB.Query(ctx, articlesQuery)
	if err != nil {
		return nil, fmt.Errorf("querying articles: %w", err)
	}
	defer rows.Close()

	var records []article.RawRecord
	for rows.Next() {
		var (
			rec       article.RawRecord
			published time.Time
		)
		if err := rows.Scan(&rec.Slug, &rec.Title, &published, &rec.Summary,
			&rec.AuthorName, &rec.Link, &rec.HeroImage, &rec.HeroImageAlt); err != nil {
			return nil, fmt.Errorf("scanning article row: %w", err)
		}
		rec.Date = published.UTC().Format(time.RFC3339Nano)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading article rows: %w", err)
	}
	return records, nil
}

// OpenPostgres connects a pool to dsn and verifies it with a ping.
func OpenPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to corpus database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to corpus database: %w", err)
	}
	return pool, nil
}
