package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stroppy-io/corpus-mcp/internal/config"
	"github.com/stroppy-io/corpus-mcp/internal/logger"
	"github.com/stroppy-io/corpus-mcp/internal/registry"
)

var cfgFile string

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "corpus-mcp",
		Short:   "MCP server over an article corpus",
		Long:    "corpus-mcp exposes an article corpus to MCP hosts: search, date and author filters, recent articles and previews, rendered as text or as interactive widgets.",
		Version: registry.Version,
		// serve is the default
		RunE:         runServe,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "optional YAML config file (default ./corpus-mcp.yaml)")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Serve MCP sessions over streamable HTTP",
			RunE:  runServe,
		},
		&cobra.Command{
			Use:   "stdio",
			Short: "Serve a single MCP session over stdin/stdout",
			RunE:  runStdio,
		},
	)
	return root
}

// setup loads configuration, builds the logger and resolves data paths.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.LogLevel, !cfg.Production())
	if err != nil {
		return nil, nil, err
	}
	strategy, err := cfg.ResolvePaths(os.Getenv)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving deployment paths: %w", err)
	}
	log.Info("Configuration loaded",
		zap.String("environment", cfg.Environment),
		zap.String("deployment", string(strategy)),
		zap.String("corpus", corpusLocation(cfg)),
		zap.String("assets", cfg.AssetsDir),
	)
	return cfg, log, nil
}

func corpusLocation(cfg *config.Config) string {
	if cfg.CorpusDSN != "" {
		return "postgres"
	}
	return cfg.CorpusPath
}
