package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/stroppy-io/corpus-mcp/internal/format"
	"github.com/stroppy-io/corpus-mcp/internal/widget"
)

const (
	articleURIPrefix = "article://article/"
	overviewURI      = "article://overview"
)

// ArticleURI returns the resource URI for an article slug.
func ArticleURI(slug string) string {
	return articleURIPrefix + slug
}

func (h *handlers) addResources(s *server.MCPServer) {
	for _, spec := range Widgets() {
		s.AddResource(
			mcp.NewResource(
				widget.URI(spec.Name),
				spec.Title,
				mcp.WithResourceDescription(spec.Title+" view"),
				mcp.WithMIMEType(widget.MIMEType),
			),
			h.widgetHandler(spec),
		)
	}

	// Unknown slugs match no handler and surface as RESOURCE_NOT_FOUND.
	// Names are slugs so list cursors stay unambiguous.
	for _, a := range h.deps.Index.All() {
		rec := format.Record(a)
		s.AddResource(
			mcp.NewResource(
				ArticleURI(a.Slug),
				a.Slug,
				mcp.WithResourceDescription(fmt.Sprintf("%s. By %s, %s", a.Title, rec.Author, rec.DisplayDate)),
				mcp.WithMIMEType("text/plain"),
			),
			h.handleReadArticle,
		)
	}

	s.AddResource(
		mcp.NewResource(
			overviewURI,
			"Corpus overview",
			mcp.WithResourceDescription("Size, authors and date span of the article corpus"),
			mcp.WithMIMEType("text/plain"),
		),
		h.handleReadOverview,
	)
}

func (h *handlers) widgetHandler(spec widget.Spec) server.ResourceHandlerFunc {
	return func(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      request.Params.URI,
				MIMEType: widget.MIMEType,
				Text:     h.deps.Widgets.Document(spec),
			},
		}, nil
	}
}

// handleReadArticle returns one article as text.
func (h *handlers) handleReadArticle(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := request.Params.URI
	a, ok := h.deps.Index.Lookup(strings.TrimPrefix(uri, articleURIPrefix))
	if !ok {
		// only reachable if the index changed under a registered resource
		return nil, fmt.Errorf("%w: %s", mcp.ErrResourceNotFound, uri)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     format.Preview(a),
		},
	}, nil
}

// handleReadOverview summarizes the corpus.
func (h *handlers) handleReadOverview(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	st := h.deps.Index.Stats()

	var sb strings.Builder
	fmt.Fprintf(&sb, "Corpus: %s by %d author(s)\n", format.Count(st.Articles), st.Authors)
	if st.Articles > 0 {
		fmt.Fprintf(&sb, "Oldest: %s\n", st.Oldest.UTC().Format(format.DisplayDate))
		fmt.Fprintf(&sb, "Newest: %s\n", st.Newest.UTC().Format(format.DisplayDate))
	}
	sb.WriteString("\nWidgets:\n")
	for _, spec := range Widgets() {
		fmt.Fprintf(&sb, "  %-16s %s (%s)\n", spec.Name, widget.URI(spec.Name), h.deps.Widgets.State(spec.Name))
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      overviewURI,
			MIMEType: "text/plain",
			Text:     sb.String(),
		},
	}, nil
}
