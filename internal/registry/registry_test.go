package registry

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stroppy-io/corpus-mcp/internal/article"
	"github.com/stroppy-io/corpus-mcp/internal/corpus"
	"github.com/stroppy-io/corpus-mcp/internal/format"
	"github.com/stroppy-io/corpus-mcp/internal/widget"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func sampleIndex() *corpus.Index {
	return corpus.NewIndex([]article.Article{
		{
			Slug:      "getting-started-with-go",
			Title:     "Getting Started with Go",
			Published: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			Summary:   "A first tour of the language and its tooling.",
			Author:    "Ada Lovelace",
			URL:       "https://example.com/articles/getting-started-with-go",
			HeroImage: "https://example.com/img/gopher.png",
		},
		{
			Slug:      "concurrency-patterns",
			Title:     "Concurrency Patterns",
			Published: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
			Summary:   "Channels, worker pools and pipelines.",
			Author:    "Grace Hopper",
			URL:       "https://example.com/articles/concurrency-patterns",
		},
		{
			Slug:      "testing-in-practice",
			Title:     "Testing in Practice",
			Published: time.Date(2023, 11, 20, 0, 0, 0, 0, time.UTC),
			Summary:   "Table tests, fixtures and mocks.",
			Author:    "Ada Lovelace",
			URL:       "https://example.com/articles/testing-in-practice",
		},
	})
}

// resolvedWidgets returns a resolver whose widgets all have prebuilt documents.
func resolvedWidgets(t *testing.T) *widget.Resolver {
	t.Helper()
	dir := t.TempDir()
	for _, spec := range Widgets() {
		body := "<html><body><div id=\"" + spec.Name + "-root\"></div></body></html>"
		require.NoError(t, os.WriteFile(filepath.Join(dir, spec.Name+".html"), []byte(body), 0o644))
	}
	return widget.NewResolver(dir, zap.NewNop())
}

func missingWidgets(t *testing.T) *widget.Resolver {
	return widget.NewResolver(filepath.Join(t.TempDir(), "absent"), zap.NewNop())
}

func newClient(t *testing.T, widgets *widget.Resolver, maxResources int) *client.Client {
	t.Helper()
	srv := NewServer(Deps{
		Index:        sampleIndex(),
		Widgets:      widgets,
		Log:          zap.NewNop(),
		MaxResources: maxResources,
		Now:          func() time.Time { return fixedNow },
	})
	c, err := client.NewInProcessClient(srv)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	ctx := context.Background()
	require.NoError(t, c.Start(ctx))
	_, err = c.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			ClientInfo:      mcp.Implementation{Name: "registry-test", Version: "0.0.0"},
		},
	})
	require.NoError(t, err)
	return c
}

func call(t *testing.T, c *client.Client, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	res, err := c.CallTool(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	require.NoError(t, err)
	return res
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	tc, ok := mcp.AsTextContent(res.Content[0])
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return tc.Text
}

func payload(t *testing.T, res *mcp.CallToolResult) format.Payload {
	t.Helper()
	require.NotNil(t, res.StructuredContent)
	raw, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	var p format.Payload
	require.NoError(t, json.Unmarshal(raw, &p))
	return p
}

func slugsOf(p format.Payload) []string {
	out := make([]string, len(p.Articles))
	for i, r := range p.Articles {
		out[i] = r.Slug
	}
	return out
}

func TestToolsCarryWidgetMeta(t *testing.T) {
	c := newClient(t, resolvedWidgets(t), 50)
	res, err := c.ListTools(context.Background(), mcp.ListToolsRequest{})
	require.NoError(t, err)

	byName := make(map[string]mcp.Tool)
	for _, tool := range res.Tools {
		byName[tool.Name] = tool
	}
	require.Len(t, byName, 5)

	search := byName["search_articles"]
	require.NotNil(t, search.Meta)
	assert.Equal(t, "ui://widget/article-list.html", search.Meta.AdditionalFields["openai/outputTemplate"])
	assert.Equal(t, "Finding articles", search.Meta.AdditionalFields["openai/toolInvocation/invoking"])
	require.NotNil(t, search.Annotations.ReadOnlyHint)
	assert.True(t, *search.Annotations.ReadOnlyHint)
	assert.Contains(t, search.InputSchema.Required, "query")

	preview := byName["preview_article"]
	require.NotNil(t, preview.Meta)
	assert.Equal(t, "ui://widget/article-preview.html", preview.Meta.AdditionalFields["openai/outputTemplate"])
}

func TestToolsWithoutWidgetHaveNoMeta(t *testing.T) {
	c := newClient(t, missingWidgets(t), 50)
	res, err := c.ListTools(context.Background(), mcp.ListToolsRequest{})
	require.NoError(t, err)
	for _, tool := range res.Tools {
		if tool.Meta != nil {
			assert.NotContains(t, tool.Meta.AdditionalFields, "openai/outputTemplate", tool.Name)
		}
	}
}

func TestSearchStructuredWhenWidgetResolved(t *testing.T) {
	c := newClient(t, resolvedWidgets(t), 50)
	res := call(t, c, "search_articles", map[string]any{"query": "concurrency"})
	require.False(t, res.IsError)

	ack := text(t, res)
	assert.Equal(t, `Found 1 article matching "concurrency".`, ack)
	assert.NotContains(t, ack, "https://", "acknowledgment must not repeat the list")

	p := payload(t, res)
	assert.Equal(t, []string{"concurrency-patterns"}, slugsOf(p))
	assert.Equal(t, 1, p.Total)
	assert.Equal(t, "2024-06-01T12:00:00Z", p.GeneratedAt)
	assert.Equal(t, "Grace Hopper", p.Articles[0].Author)
	assert.Equal(t, "March 2, 2024", p.Articles[0].DisplayDate)
}

func TestSearchTextWhenWidgetUnavailable(t *testing.T) {
	c := newClient(t, missingWidgets(t), 50)
	res := call(t, c, "search_articles", map[string]any{"query": "ada"})
	require.False(t, res.IsError)
	assert.Nil(t, res.StructuredContent)

	body := text(t, res)
	assert.Contains(t, body, "1. Getting Started with Go")
	assert.Contains(t, body, "2. Testing in Practice")
	assert.Contains(t, body, "Link: https://example.com/articles/testing-in-practice")
}

func TestEmptyResult(t *testing.T) {
	c := newClient(t, missingWidgets(t), 50)
	res := call(t, c, "search_articles", map[string]any{"query": "quantum"})
	require.False(t, res.IsError)
	assert.Equal(t, format.NoResults, text(t, res))

	c = newClient(t, resolvedWidgets(t), 50)
	res = call(t, c, "search_articles", map[string]any{"query": "quantum"})
	require.False(t, res.IsError)
	assert.Equal(t, format.NoResults, text(t, res))
	p := payload(t, res)
	assert.Zero(t, p.Total)
	assert.NotNil(t, p.Articles)
}

func TestByDate(t *testing.T) {
	c := newClient(t, resolvedWidgets(t), 50)
	res := call(t, c, "get_articles_by_date", map[string]any{
		"start_date": "2024-01-01",
		"end_date":   "2024-03-02",
	})
	require.False(t, res.IsError)
	assert.Equal(t, []string{"concurrency-patterns", "getting-started-with-go"}, slugsOf(payload(t, res)))
}

func TestByDateInvalidIsToolError(t *testing.T) {
	c := newClient(t, resolvedWidgets(t), 50)

	res := call(t, c, "get_articles_by_date", map[string]any{"start_date": "yesterday"})
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "start_date")

	res = call(t, c, "get_articles_by_date", map[string]any{
		"start_date": "2024-05-01",
		"end_date":   "2024-01-01",
	})
	assert.True(t, res.IsError)
}

func TestByAuthorNewestFirst(t *testing.T) {
	c := newClient(t, resolvedWidgets(t), 50)
	res := call(t, c, "get_articles_by_author", map[string]any{"author": "lovelace"})
	require.False(t, res.IsError)
	assert.Equal(t, []string{"getting-started-with-go", "testing-in-practice"}, slugsOf(payload(t, res)))
}

func TestRecentHonorsLimit(t *testing.T) {
	c := newClient(t, resolvedWidgets(t), 50)
	res := call(t, c, "get_recent_articles", map[string]any{"limit": 2})
	require.False(t, res.IsError)
	assert.Equal(t, []string{"concurrency-patterns", "getting-started-with-go"}, slugsOf(payload(t, res)))

	res = call(t, c, "get_recent_articles", map[string]any{"limit": 0})
	assert.Len(t, payload(t, res).Articles, 3)
}

func TestMalformedArgumentsAreToolErrors(t *testing.T) {
	c := newClient(t, resolvedWidgets(t), 50)
	for name, args := range map[string]map[string]any{
		"search_articles":        {},
		"get_articles_by_author": {"author": 42},
		"get_recent_articles":    {"limit": "ten"},
		"preview_article":        {},
	} {
		t.Run(name, func(t *testing.T) {
			res := call(t, c, name, args)
			assert.True(t, res.IsError)
		})
	}

	res := call(t, c, "get_recent_articles", map[string]any{"limit": 2.5})
	assert.True(t, res.IsError)
}

func TestPreview(t *testing.T) {
	c := newClient(t, resolvedWidgets(t), 50)

	res := call(t, c, "preview_article", map[string]any{"slug": "testing-in-practice"})
	require.False(t, res.IsError)
	assert.Equal(t, `Showing "Testing in Practice".`, text(t, res))
	assert.Equal(t, []string{"testing-in-practice"}, slugsOf(payload(t, res)))

	res = call(t, c, "preview_article", map[string]any{"title": "concurrency"})
	require.False(t, res.IsError)
	assert.Equal(t, []string{"concurrency-patterns"}, slugsOf(payload(t, res)))
}

func TestPreviewTextWhenWidgetUnavailable(t *testing.T) {
	c := newClient(t, missingWidgets(t), 50)
	res := call(t, c, "preview_article", map[string]any{"slug": "getting-started-with-go"})
	require.False(t, res.IsError)
	assert.Nil(t, res.StructuredContent)

	body := text(t, res)
	assert.Contains(t, body, "Getting Started with Go")
	assert.Contains(t, body, "Published: January 15, 2024")
	assert.Contains(t, body, "A first tour of the language")
}

func TestPreviewNotFoundSuggestsSearch(t *testing.T) {
	c := newClient(t, resolvedWidgets(t), 50)
	res := call(t, c, "preview_article", map[string]any{"slug": "no-such-article"})
	require.False(t, res.IsError)
	assert.Nil(t, res.StructuredContent)
	assert.Contains(t, text(t, res), "search_articles")
}

func readResource(t *testing.T, c *client.Client, uri string) (*mcp.TextResourceContents, error) {
	t.Helper()
	res, err := c.ReadResource(context.Background(), mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{URI: uri},
	})
	if err != nil {
		return nil, err
	}
	require.Len(t, res.Contents, 1)
	tc, ok := mcp.AsTextResourceContents(res.Contents[0])
	require.True(t, ok)
	return tc, nil
}

func TestReadArticleResource(t *testing.T) {
	c := newClient(t, resolvedWidgets(t), 1)

	first, err := readResource(t, c, ArticleURI("getting-started-with-go"))
	require.NoError(t, err)
	assert.Contains(t, first.Text, "Ada Lovelace")

	// Readable even when it would not fit on the first list page.
	last, err := readResource(t, c, ArticleURI("testing-in-practice"))
	require.NoError(t, err)
	assert.Contains(t, last.Text, "Testing in Practice")
}

func TestReadUnknownArticleIsNotFound(t *testing.T) {
	c := newClient(t, resolvedWidgets(t), 50)

	_, err := readResource(t, c, ArticleURI("no-such-article"))
	require.Error(t, err)
	assert.ErrorIs(t, err, mcp.ErrResourceNotFound)

	_, err = readResource(t, c, ArticleURI(""))
	assert.ErrorIs(t, err, mcp.ErrResourceNotFound)
}

func TestListResourcesPagesByMax(t *testing.T) {
	c := newClient(t, resolvedWidgets(t), 2)
	ctx := context.Background()

	res, err := c.ListResources(ctx, mcp.ListResourcesRequest{})
	require.NoError(t, err)
	assert.Len(t, res.Resources, 2)
	assert.NotEmpty(t, res.NextCursor)

	var uris []string
	for {
		for _, r := range res.Resources {
			uris = append(uris, r.URI)
		}
		if res.NextCursor == "" {
			break
		}
		var req mcp.ListResourcesRequest
		req.Params.Cursor = res.NextCursor
		res, err = c.ListResources(ctx, req)
		require.NoError(t, err)
	}
	assert.ElementsMatch(t, []string{
		"ui://widget/article-list.html",
		"ui://widget/article-preview.html",
		"article://article/getting-started-with-go",
		"article://article/concurrency-patterns",
		"article://article/testing-in-practice",
		"article://overview",
	}, uris)
}

func TestListResourcesUnpaged(t *testing.T) {
	c := newClient(t, resolvedWidgets(t), 0)
	res, err := c.ListResources(context.Background(), mcp.ListResourcesRequest{})
	require.NoError(t, err)
	assert.Len(t, res.Resources, 6)
	assert.Empty(t, res.NextCursor)
}

func TestReadWidgetResource(t *testing.T) {
	c := newClient(t, resolvedWidgets(t), 50)
	doc, err := readResource(t, c, widget.URI("article-list"))
	require.NoError(t, err)
	assert.Equal(t, widget.MIMEType, doc.MIMEType)
	assert.Contains(t, doc.Text, `id="article-list-root"`)
}

func TestReadWidgetResourcePlaceholder(t *testing.T) {
	c := newClient(t, missingWidgets(t), 50)
	doc, err := readResource(t, c, widget.URI("article-preview"))
	require.NoError(t, err)
	assert.Equal(t, widget.MIMEType, doc.MIMEType)
	assert.Contains(t, doc.Text, "unavailable")
}

func TestOverview(t *testing.T) {
	c := newClient(t, resolvedWidgets(t), 50)
	doc, err := readResource(t, c, "article://overview")
	require.NoError(t, err)
	assert.Contains(t, doc.Text, "Corpus: 3 articles by 2 author(s)")
	assert.Contains(t, doc.Text, "Oldest: November 20, 2023")
	assert.Contains(t, doc.Text, "Newest: March 2, 2024")
	assert.Contains(t, doc.Text, "article-list")
}
