package transport

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/stroppy-io/corpus-mcp/internal/metrics"
	"github.com/stroppy-io/corpus-mcp/internal/registry"
)

// BuildFunc constructs the shared dependencies every session is bound to.
type BuildFunc func(ctx context.Context) (registry.Deps, error)

// Bootstrap runs a BuildFunc at most once. Concurrent first callers wait on
// the same run, and a failure is kept: every later call gets the same error.
type Bootstrap struct {
	build BuildFunc
	log   *zap.Logger

	once sync.Once
	deps registry.Deps
	err  error
}

// NewBootstrap wraps build in a ready-once guard.
func NewBootstrap(build BuildFunc, log *zap.Logger) *Bootstrap {
	return &Bootstrap{build: build, log: log}
}

// Ready returns the built dependencies, building them on first use.
// Cancellation of ctx does not abort a build other callers may be waiting on.
func (b *Bootstrap) Ready(ctx context.Context) (registry.Deps, error) {
	b.once.Do(func() {
		b.deps, b.err = b.build(context.WithoutCancel(ctx))
		if b.err != nil {
			metrics.BootstrapFailures.Inc()
			b.log.Error("Bootstrap failed, refusing to serve sessions", zap.Error(b.err))
			return
		}
		b.log.Info("Bootstrap complete", zap.Int("articles", b.deps.Index.Len()))
	})
	return b.deps, b.err
}
