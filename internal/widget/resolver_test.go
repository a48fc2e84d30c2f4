package widget

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var listSpec = Spec{
	Name:     "article-list",
	Title:    "Articles",
	Invoking: "Finding articles",
	Invoked:  "Found articles",
}

func writeAssets(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func TestResolvePrebuiltWins(t *testing.T) {
	dir := writeAssets(t, map[string]string{
		"article-list.html":          "<html><body>prebuilt</body></html>",
		"article-list-abc12345.js":   "console.log('hashed')",
		"article-list-abc12345.css":  "body{}",
		"article-preview-zz9999.css": "p{}",
	})
	r := NewResolver(dir, zap.NewNop())

	d := r.Resolve(listSpec)
	require.NotNil(t, d)
	assert.Equal(t, SourcePrebuilt, d.Source)
	assert.Equal(t, "<html><body>prebuilt</body></html>", d.HTML)
	assert.Equal(t, "ui://widget/article-list.html", d.URI)
	assert.Equal(t, Resolved, r.State("article-list"))
}

func TestResolveInlinesLastHash(t *testing.T) {
	dir := writeAssets(t, map[string]string{
		"article-list-aaaaaa11.js":  "window.build = 'old';",
		"article-list-ffffff22.js":  "window.build = 'new'; const s = '</script><b>';",
		"article-list.js":           "window.build = 'plain';",
		"article-list-bbbbbb33.css": ".card{color:red} /* </style> */",
		"article-preview.js":        "other widget",
	})
	r := NewResolver(dir, zap.NewNop())

	d := r.Resolve(listSpec)
	require.NotNil(t, d)
	assert.Equal(t, SourceInlined, d.Source)
	assert.Contains(t, d.HTML, "window.build = 'new'")
	assert.NotContains(t, d.HTML, "'old'")
	assert.NotContains(t, d.HTML, "'plain'")
	assert.NotContains(t, d.HTML, "other widget")

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(d.HTML))
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Find("script").Length(), "escaped close tag must not split the script")
	assert.Equal(t, 1, doc.Find("style").Length())
	assert.Zero(t, doc.Find("script[src]").Length())
	assert.Zero(t, doc.Find("link[rel=stylesheet]").Length())
	assert.Equal(t, 1, doc.Find("#article-list-root").Length())
	assert.Contains(t, doc.Find("script").Text(), `<\/script><b>`)
}

func TestResolveUnhashedFallback(t *testing.T) {
	dir := writeAssets(t, map[string]string{
		"article-list.js":  "plain()",
		"article-list.css": "body{}",
	})
	d := NewResolver(dir, zap.NewNop()).Resolve(listSpec)
	require.NotNil(t, d)
	assert.Contains(t, d.HTML, "plain()")
}

func TestResolveMissingAssetDirIsUnavailable(t *testing.T) {
	r := NewResolver(filepath.Join(t.TempDir(), "does-not-exist"), zap.NewNop())
	assert.Nil(t, r.Resolve(listSpec))
	assert.Equal(t, Unavailable, r.State("article-list"))

	doc := r.Document(listSpec)
	assert.Contains(t, doc, "unavailable")
	assert.Contains(t, doc, "<title>Articles</title>")
}

func TestResolveEmptyDirIsUnavailable(t *testing.T) {
	r := NewResolver("", zap.NewNop())
	assert.Nil(t, r.Resolve(listSpec))
	assert.Equal(t, Unavailable, r.State("article-list"))
}

func TestResolveNeedsBothAssets(t *testing.T) {
	dir := writeAssets(t, map[string]string{
		"article-list-abc12345.js": "only a script",
		FallbackDocument:           "<html><body>generic fallback</body></html>",
	})
	r := NewResolver(dir, zap.NewNop())
	assert.Nil(t, r.Resolve(listSpec))
	assert.Equal(t, "<html><body>generic fallback</body></html>", r.Document(listSpec))
}

func TestResolveAttemptedOnce(t *testing.T) {
	dir := t.TempDir()
	r := NewResolver(dir, zap.NewNop())
	require.Nil(t, r.Resolve(listSpec))

	// Assets appearing later are not picked up: there is no automatic retry.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "article-list.html"), []byte("late"), 0o644))
	assert.Nil(t, r.Resolve(listSpec))
	assert.Equal(t, Unavailable, r.State("article-list"))
}

func TestResolveConcurrent(t *testing.T) {
	dir := writeAssets(t, map[string]string{"article-list.html": "<html></html>"})
	r := NewResolver(dir, zap.NewNop())

	var wg sync.WaitGroup
	results := make([]*Descriptor, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = r.Resolve(listSpec)
		}(i)
	}
	wg.Wait()
	for _, d := range results {
		assert.Same(t, results[0], d)
	}
}

func TestStateUnresolved(t *testing.T) {
	assert.Equal(t, Unresolved, NewResolver("", zap.NewNop()).State("never-asked"))
}

func TestPickAsset(t *testing.T) {
	files := []string{"list-0000aa.js", "list-zzzzzz.js", "list-a1.js", "list.js", "listing-ffffff.js", "list-999999.css"}
	assert.Equal(t, "list-zzzzzz.js", pickAsset(files, "list", ".js", nil))
	assert.Equal(t, "list-999999.css", pickAsset(files, "list", ".css", nil))
	assert.Equal(t, "list-abc.js", pickAsset([]string{"list.js", "list-abc.js"}, "list", ".js", nil))
	assert.Equal(t, "list.js", pickAsset([]string{"list.js", "list-.js"}, "list", ".js", nil))
	assert.Empty(t, pickAsset([]string{"other.js"}, "list", ".js", nil))
}

func TestPickAssetSkipsLongerWidgetNames(t *testing.T) {
	known := []string{"list", "list-view"}
	files := []string{"list-a1.js", "list-view-ffff.js", "list-view.js"}
	assert.Equal(t, "list-a1.js", pickAsset(files, "list", ".js", known))
	assert.Equal(t, "list-view-ffff.js", pickAsset(files, "list-view", ".js", known))
	assert.Empty(t, pickAsset([]string{"list-view-ffff.js", "list-view.js"}, "list", ".js", known))

	// Without the sibling name the longer widget's file looks like a hash.
	assert.Equal(t, "list-view-ffff.js", pickAsset(files, "list", ".js", nil))
}

func TestResolveShortHash(t *testing.T) {
	dir := writeAssets(t, map[string]string{
		"article-list-a1b2.js":  "window.short = true;",
		"article-list-a1b2.css": "body{}",
	})
	r := NewResolver(dir, zap.NewNop())

	d := r.Resolve(listSpec)
	require.NotNil(t, d)
	assert.Equal(t, SourceInlined, d.Source)
	assert.Contains(t, d.HTML, "window.short = true;")
	assert.Equal(t, Resolved, r.State("article-list"))
}

func TestExternalRefs(t *testing.T) {
	refs := externalRefs([]byte(`<html><head><link rel="stylesheet" href="/a.css"><script src="/a.js"></script></head><body><script>inline()</script></body></html>`))
	assert.ElementsMatch(t, []string{"/a.css", "/a.js"}, refs)
	assert.Empty(t, externalRefs([]byte(`<html><body><script>x()</script></body></html>`)))
}

func TestEscape(t *testing.T) {
	assert.Equal(t, `a<\/script>b<\/SCRIPT>`, EscapeScript(`a</script>b</SCRIPT>`))
	assert.Equal(t, `x<\/style>`, EscapeStyle(`x</style>`))
}

func TestDescriptorMeta(t *testing.T) {
	d := &Descriptor{Spec: listSpec, URI: URI(listSpec.Name)}
	m := d.Meta()
	assert.Equal(t, "ui://widget/article-list.html", m["openai/outputTemplate"])
	assert.Equal(t, "Finding articles", m["openai/toolInvocation/invoking"])
	assert.Equal(t, "Found articles", m["openai/toolInvocation/invoked"])
}
