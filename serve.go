package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/stroppy-io/corpus-mcp/internal/registry"
	"github.com/stroppy-io/corpus-mcp/internal/transport"
)

const shutdownTimeout = 10 * time.Second

// runServe serves streamable HTTP until interrupted.
func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ids, err := transport.NewSessionIDs(cfg.TerminatedSessions)
	if err != nil {
		return err
	}
	boot := transport.NewBootstrap(func(ctx context.Context) (registry.Deps, error) {
		return buildDeps(ctx, cfg, log)
	}, log)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !cfg.LazyInit {
		if _, err := boot.Ready(ctx); err != nil {
			return fmt.Errorf("startup: %w", err)
		}
	}

	srv := transport.New(transport.Options{
		Path: cfg.MCPPath,
		Policy: transport.OriginPolicy{
			Production: cfg.Production(),
			Allowed:    cfg.Origins(),
		},
		SessionIDs: ids,
		Bootstrap:  boot,
		Log:        log,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(cfg.Addr())
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Server stopped with error", zap.Error(err))
		return err
	}
	log.Info("Server exited")
	return nil
}
