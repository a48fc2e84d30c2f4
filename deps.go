package main

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/stroppy-io/corpus-mcp/internal/config"
	"github.com/stroppy-io/corpus-mcp/internal/corpus"
	"github.com/stroppy-io/corpus-mcp/internal/registry"
	"github.com/stroppy-io/corpus-mcp/internal/widget"
)

// buildDeps loads the corpus and resolves every widget. Both run
// concurrently; only the corpus can fail.
func buildDeps(ctx context.Context, cfg *config.Config, log *zap.Logger) (registry.Deps, error) {
	start := time.Now()
	specs := registry.Widgets()
	names := make([]string, len(specs))
	for i, spec := range specs {
		names[i] = spec.Name
	}
	widgets := widget.NewResolver(cfg.AssetsDir, log, names...)

	var index *corpus.Index
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		index, err = loadCorpus(gctx, cfg, log)
		return err
	})
	for _, spec := range specs {
		g.Go(func() error {
			widgets.Resolve(spec)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return registry.Deps{}, err
	}

	log.Info("Corpus ready",
		zap.Int("articles", index.Len()),
		zap.Duration("elapsed", time.Since(start)))
	return registry.Deps{
		Index:        index,
		Widgets:      widgets,
		Log:          log,
		MaxResources: cfg.MaxResources,
	}, nil
}

func loadCorpus(ctx context.Context, cfg *config.Config, log *zap.Logger) (*corpus.Index, error) {
	if cfg.CorpusDSN == "" {
		return corpus.Build(ctx, corpus.FileSource{Path: cfg.CorpusPath}, cfg.SiteURL, log)
	}

	pool, err := corpus.OpenPostgres(ctx, cfg.CorpusDSN)
	if err != nil {
		return nil, err
	}
	// the index is held in memory, the pool is only needed for the load
	defer pool.Close()
	return corpus.Build(ctx, corpus.PostgresSource{DB: pool}, cfg.SiteURL, log)
}
