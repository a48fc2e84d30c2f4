package registry

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/stroppy-io/corpus-mcp/internal/article"
	"github.com/stroppy-io/corpus-mcp/internal/corpus"
	"github.com/stroppy-io/corpus-mcp/internal/format"
	"github.com/stroppy-io/corpus-mcp/internal/widget"
)

type handlers struct {
	deps    Deps
	list    *widget.Descriptor
	preview *widget.Descriptor
}

func (h *handlers) addTools(s *server.MCPServer) {
	s.AddTool(
		h.tool(h.list,
			mcp.NewTool("search_articles",
				mcp.WithDescription("Search articles by text. Matches titles, summaries and author names, case-insensitively. Results keep corpus order."),
				mcp.WithTitleAnnotation("Search articles"),
				mcp.WithString("query",
					mcp.Required(),
					mcp.Description("Text to look for"),
				),
				limitOption(),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithOpenWorldHintAnnotation(false),
			)),
		h.handleSearch,
	)

	s.AddTool(
		h.tool(h.list,
			mcp.NewTool("get_articles_by_date",
				mcp.WithDescription("List articles published within an inclusive date range, newest first. Either bound may be omitted. A date-only end bound covers that whole day."),
				mcp.WithTitleAnnotation("Articles by date"),
				mcp.WithString("start_date",
					mcp.Description("Earliest publication date, YYYY-MM-DD or RFC 3339"),
				),
				mcp.WithString("end_date",
					mcp.Description("Latest publication date, YYYY-MM-DD or RFC 3339"),
				),
				limitOption(),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithOpenWorldHintAnnotation(false),
			)),
		h.handleByDate,
	)

	s.AddTool(
		h.tool(h.list,
			mcp.NewTool("get_articles_by_author",
				mcp.WithDescription("List articles whose author name contains the given text, newest first."),
				mcp.WithTitleAnnotation("Articles by author"),
				mcp.WithString("author",
					mcp.Required(),
					mcp.Description("Author name or part of it"),
				),
				limitOption(),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithOpenWorldHintAnnotation(false),
			)),
		h.handleByAuthor,
	)

	s.AddTool(
		h.tool(h.list,
			mcp.NewTool("get_recent_articles",
				mcp.WithDescription("List the most recently published articles."),
				mcp.WithTitleAnnotation("Recent articles"),
				limitOption(),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithOpenWorldHintAnnotation(false),
			)),
		h.handleRecent,
	)

	s.AddTool(
		h.tool(h.preview,
			mcp.NewTool("preview_article",
				mcp.WithDescription("Show one article in detail. Pass the slug from a previous result, or a title to look it up."),
				mcp.WithTitleAnnotation("Preview article"),
				mcp.WithString("slug",
					mcp.Description("Exact article slug, e.g. 'getting-started-with-go'"),
				),
				mcp.WithString("title",
					mcp.Description("Title or part of it, used when the slug is unknown"),
				),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithOpenWorldHintAnnotation(false),
			)),
		h.handlePreview,
	)
}

// tool binds t to a resolved widget, if there is one.
func (h *handlers) tool(d *widget.Descriptor, t mcp.Tool) mcp.Tool {
	if d != nil {
		t.Meta = mcp.NewMetaFromMap(d.Meta())
	}
	return t
}

func limitOption() mcp.ToolOption {
	return mcp.WithNumber("limit",
		mcp.Description(fmt.Sprintf("Maximum number of results (default %d, at most %d)", corpus.DefaultLimit, corpus.MaxLimit)),
		mcp.Min(1),
		mcp.Max(corpus.MaxLimit),
	)
}

// handleSearch runs a free-text search.
func (h *handlers) handleSearch(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit, err := limitArg(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	found := h.deps.Index.Search(query, limit)
	return h.listResult(
		fmt.Sprintf("Articles matching %q", query),
		fmt.Sprintf("Found %s matching %q.", format.Count(len(found)), query),
		found,
	), nil
}

// handleByDate filters by publication date.
func (h *handlers) handleByDate(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := request.GetString("start_date", "")
	end := request.GetString("end_date", "")
	limit, err := limitArg(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	found, err := h.deps.Index.FilterByDateRange(start, end, limit)
	if err != nil {
		var verr *corpus.ValidationError
		if errors.As(err, &verr) {
			return mcp.NewToolResultError(verr.Error()), nil
		}
		return nil, err
	}
	return h.listResult(
		"Articles "+rangeLabel(start, end),
		fmt.Sprintf("Found %s published %s.", format.Count(len(found)), rangeLabel(start, end)),
		found,
	), nil
}

// handleByAuthor filters by author name.
func (h *handlers) handleByAuthor(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	author, err := request.RequireString("author")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit, err := limitArg(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	found := h.deps.Index.FilterByAuthor(author, limit)
	return h.listResult(
		fmt.Sprintf("Articles by %s", author),
		fmt.Sprintf("Found %s by authors matching %q.", format.Count(len(found)), author),
		found,
	), nil
}

// handleRecent lists the newest articles.
func (h *handlers) handleRecent(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit, err := limitArg(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	found := h.deps.Index.Recent(limit)
	return h.listResult(
		"Recent articles",
		fmt.Sprintf("Showing the %s most recently published.", format.Count(len(found))),
		found,
	), nil
}

// handlePreview shows a single article by slug or title.
func (h *handlers) handlePreview(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug := request.GetString("slug", "")
	title := request.GetString("title", "")
	if slug == "" && title == "" {
		return mcp.NewToolResultError("either slug or title is required"), nil
	}

	a, ok := h.find(slug, title)
	if !ok {
		key := slug
		if key == "" {
			key = title
		}
		return mcp.NewToolResultText(fmt.Sprintf(
			"No article found for %q. Use search_articles to find the article and pass its slug.", key)), nil
	}

	if h.preview == nil {
		return mcp.NewToolResultText(format.Preview(a)), nil
	}
	payload := format.NewPayload(a.Title, fmt.Sprintf("Preview of %q by %s.", a.Title, a.Author),
		[]article.Article{a}, h.deps.Now())
	return mcp.NewToolResultStructured(payload, fmt.Sprintf("Showing %q.", a.Title)), nil
}

func (h *handlers) find(slug, title string) (article.Article, bool) {
	if slug != "" {
		if a, ok := h.deps.Index.Lookup(slug); ok {
			return a, true
		}
	}
	if title != "" {
		if found := h.deps.Index.SearchByTitle(title, 1); len(found) > 0 {
			return found[0], true
		}
	}
	return article.Article{}, false
}

// listResult renders a result set either for the list widget or as text,
// never both.
func (h *handlers) listResult(heading, summary string, found []article.Article) *mcp.CallToolResult {
	if h.list == nil {
		return mcp.NewToolResultText(format.List(heading, found))
	}
	ack := summary
	if len(found) == 0 {
		ack = format.NoResults
	}
	return mcp.NewToolResultStructured(format.NewPayload(heading, summary, found, h.deps.Now()), ack)
}

// limitArg reads the optional limit argument and clamps it.
func limitArg(request mcp.CallToolRequest) (int, error) {
	raw, ok := request.GetArguments()["limit"]
	if !ok || raw == nil {
		return corpus.DefaultLimit, nil
	}
	var n float64
	switch v := raw.(type) {
	case float64:
		n = v
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	default:
		return 0, fmt.Errorf("limit must be a number, got %T", raw)
	}
	if n != math.Trunc(n) {
		return 0, fmt.Errorf("limit must be a whole number, got %v", n)
	}
	if n > corpus.MaxLimit {
		n = corpus.MaxLimit
	}
	return corpus.ClampLimit(int(n)), nil
}

func rangeLabel(start, end string) string {
	switch {
	case start != "" && end != "":
		return fmt.Sprintf("from %s to %s", start, end)
	case start != "":
		return "since " + start
	case end != "":
		return "until " + end
	default:
		return "on any date"
	}
}
