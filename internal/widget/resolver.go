package widget

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/stroppy-io/corpus-mcp/internal/metrics"
)

// FallbackDocument is the file served for any unavailable widget when it
// exists in the asset directory.
const FallbackDocument = "fallback.html"

var errNoAssetDir = errors.New("no asset directory configured")

// Resolver finds and memoizes widget documents under one asset directory.
type Resolver struct {
	dir   string
	log   *zap.Logger
	known []string

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	mu       sync.Mutex
	state    State
	desc     *Descriptor
	fallback string
}

// NewResolver returns a Resolver reading built assets from dir. known lists
// the widget names sharing dir; "{a}-{b}-{hash}.js" then belongs to widget
// "{a}-{b}" and never to "{a}".
func NewResolver(dir string, log *zap.Logger, known ...string) *Resolver {
	return &Resolver{
		dir:     dir,
		log:     log,
		known:   known,
		entries: make(map[string]*entry),
	}
}

func (r *Resolver) entry(name string) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[name]
	if !ok {
		e = &entry{}
		r.entries[name] = e
	}
	return e
}

// Resolve returns the descriptor for spec.Name, or nil if the widget is
// unavailable. Only the first call for a name does any work; later calls
// return the memoized outcome whatever spec they pass.
func (r *Resolver) Resolve(spec Spec) *Descriptor {
	e := r.entry(spec.Name)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Unresolved {
		desc, err := r.resolve(spec)
		if err != nil {
			e.state = Unavailable
			e.fallback = r.fallback(spec)
			r.log.Warn("Widget unavailable, falling back to text responses",
				zap.String("widget", spec.Name), zap.String("dir", r.dir), zap.Error(err))
		} else {
			e.state = Resolved
			e.desc = desc
			r.log.Info("Widget resolved",
				zap.String("widget", spec.Name), zap.String("source", string(desc.Source)))
		}
		metrics.RecordWidget(spec.Name, e.state.String())
	}
	return e.desc
}

// State reports where name is in its resolution lifecycle.
func (r *Resolver) State(name string) State {
	r.mu.Lock()
	e, ok := r.entries[name]
	r.mu.Unlock()
	if !ok {
		return Unresolved
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Document returns the HTML served at the widget's URI: the resolved
// document, or the fallback document, or a minimal placeholder.
func (r *Resolver) Document(spec Spec) string {
	if d := r.Resolve(spec); d != nil {
		return d.HTML
	}
	e := r.entry(spec.Name)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fallback
}

func (r *Resolver) resolve(spec Spec) (*Descriptor, error) {
	if r.dir == "" {
		return nil, errNoAssetDir
	}
	info, err := os.Stat(r.dir)
	if err != nil {
		return nil, fmt.Errorf("asset directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("asset directory %s is not a directory", r.dir)
	}

	desc := &Descriptor{Spec: spec, URI: URI(spec.Name)}

	prebuilt, err := os.ReadFile(filepath.Join(r.dir, spec.Name+".html"))
	switch {
	case err == nil:
		if refs := externalRefs(prebuilt); len(refs) > 0 {
			r.log.Warn("Prebuilt widget references external assets and may be stale",
				zap.String("widget", spec.Name), zap.Strings("refs", refs))
		}
		desc.HTML = string(prebuilt)
		desc.Source = SourcePrebuilt
		return desc, nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("reading prebuilt document: %w", err)
	}

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("listing asset directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, de := range entries {
		if !de.IsDir() {
			names = append(names, de.Name())
		}
	}

	scriptName := pickAsset(names, spec.Name, ".js", r.known)
	styleName := pickAsset(names, spec.Name, ".css", r.known)
	if scriptName == "" || styleName == "" {
		return nil, fmt.Errorf("built assets missing for %s (script %q, style %q)", spec.Name, scriptName, styleName)
	}

	script, err := os.ReadFile(filepath.Join(r.dir, scriptName))
	if err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}
	style, err := os.ReadFile(filepath.Join(r.dir, styleName))
	if err != nil {
		return nil, fmt.Errorf("reading stylesheet: %w", err)
	}

	desc.HTML = Inline(spec, string(script), string(style))
	desc.Source = SourceInlined
	return desc, nil
}

func (r *Resolver) fallback(spec Spec) string {
	if r.dir != "" {
		if data, err := os.ReadFile(filepath.Join(r.dir, FallbackDocument)); err == nil {
			return string(data)
		}
	}
	return placeholder(spec)
}

// pickAsset chooses among files named "{name}-{hash}{ext}" the one with the
// lexicographically last hash, or "{name}{ext}" when no hashed variant
// exists. Files of a known widget whose name extends name are skipped. Hash
// order is not build order; a directory holding several builds may yield an
// older one.
func pickAsset(files []string, name, ext string, known []string) string {
	hashed := regexp.MustCompile("^" + regexp.QuoteMeta(name) + `-([A-Za-z0-9_-]+)` + regexp.QuoteMeta(ext) + "$")

	var best, bestHash string
	for _, f := range files {
		m := hashed.FindStringSubmatch(f)
		if m == nil || ownedByOther(f, name, ext, known) {
			continue
		}
		if best == "" || m[1] > bestHash {
			best, bestHash = f, m[1]
		}
	}
	if best != "" {
		return best
	}
	for _, f := range files {
		if f == name+ext {
			return f
		}
	}
	return ""
}

func ownedByOther(file, name, ext string, known []string) bool {
	for _, other := range known {
		if !strings.HasPrefix(other, name+"-") {
			continue
		}
		if file == other+ext || strings.HasPrefix(file, other+"-") {
			return true
		}
	}
	return false
}

// externalRefs lists script and stylesheet references a document loads from
// elsewhere.
func externalRefs(doc []byte) []string {
	d, err := goquery.NewDocumentFromReader(bytes.NewReader(doc))
	if err != nil {
		return nil
	}
	var refs []string
	d.Find("script[src]").Each(func(_ int, s *goquery.Selection) {
		refs = append(refs, s.AttrOr("src", ""))
	})
	d.Find(`link[rel="stylesheet"][href]`).Each(func(_ int, s *goquery.Selection) {
		refs = append(refs, s.AttrOr("href", ""))
	})
	return refs
}
