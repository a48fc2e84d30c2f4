// Package registry declares the MCP tools and resources over an article
// index and binds them to a server instance.
//
// NewServer is cheap and is called once per session: the index and widget
// resolver it closes over are built once and shared read-only.
package registry

import (
	"context"
	_ "embed"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/stroppy-io/corpus-mcp/internal/corpus"
	"github.com/stroppy-io/corpus-mcp/internal/metrics"
	"github.com/stroppy-io/corpus-mcp/internal/widget"
)

const (
	Name    = "corpus-mcp"
	Version = "0.1.0"
)

//go:embed instructions.md
var instructions string

// Widget specs for the two result views.
var (
	ListWidget = widget.Spec{
		Name:     "article-list",
		Title:    "Articles",
		Invoking: "Finding articles",
		Invoked:  "Found articles",
	}
	PreviewWidget = widget.Spec{
		Name:     "article-preview",
		Title:    "Article preview",
		Invoking: "Opening article",
		Invoked:  "Opened article",
	}
)

// Widgets lists every widget the registry serves.
func Widgets() []widget.Spec {
	return []widget.Spec{ListWidget, PreviewWidget}
}

// Deps are the shared collaborators every server instance is bound to.
type Deps struct {
	Index   *corpus.Index
	Widgets *widget.Resolver
	Log     *zap.Logger
	// MaxResources is the page size of list responses. Zero leaves them
	// unpaged.
	MaxResources int
	// Now stamps structured payloads. Defaults to time.Now.
	Now func() time.Time
}

// NewServer returns a server exposing the corpus tools and resources.
func NewServer(deps Deps) *server.MCPServer {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	opts := []server.ServerOption{
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions(instructions),
		server.WithRecovery(),
		server.WithToolHandlerMiddleware(toolMetrics(deps.Log)),
	}
	if deps.MaxResources > 0 {
		opts = append(opts, server.WithPaginationLimit(deps.MaxResources))
	}
	s := server.NewMCPServer(Name, Version, opts...)

	h := &handlers{
		deps:    deps,
		list:    deps.Widgets.Resolve(ListWidget),
		preview: deps.Widgets.Resolve(PreviewWidget),
	}
	h.addTools(s)
	h.addResources(s)
	return s
}

// toolMetrics counts every tool call by outcome.
func toolMetrics(log *zap.Logger) server.ToolHandlerMiddleware {
	return func(next server.ToolHandlerFunc) server.ToolHandlerFunc {
		return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			start := time.Now()
			result, err := next(ctx, request)

			outcome := "ok"
			switch {
			case err != nil:
				outcome = "error"
			case result != nil && result.IsError:
				outcome = "invalid"
			}
			metrics.RecordToolCall(request.Params.Name, outcome)
			log.Debug("Tool call",
				zap.String("tool", request.Params.Name),
				zap.String("outcome", outcome),
				zap.Duration("elapsed", time.Since(start)))
			return result, err
		}
	}
}
