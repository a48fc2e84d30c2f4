package main

import (
	"fmt"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stroppy-io/corpus-mcp/internal/registry"
)

// runStdio serves one session on stdin/stdout. The corpus is loaded before
// the first message is read.
func runStdio(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	deps, err := buildDeps(cmd.Context(), cfg, log)
	if err != nil {
		return fmt.Errorf("startup: %w", err)
	}

	log.Info("Serving on stdio")
	if err := server.ServeStdio(registry.NewServer(deps)); err != nil {
		log.Error("Server error", zap.Error(err))
		return err
	}
	return nil
}
