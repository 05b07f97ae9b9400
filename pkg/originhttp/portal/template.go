package portal

import (
	"bytes"
	"html/template"
	"os"
	"path/filepath"
	"sync"

	"github.com/andybalholm/brotli"
)

// TemplateEngine renders page templates out of preset.page_dir and keeps
// the most recent rendered bytes of each page, brotli-compressed, in a
// cache of at most preset.page_limit entries (CachedSize reports an
// entry's compressed size). Render never reads the cache back: every call
// executes the template. The cache has nothing to do with HTTP response
// compression, which stays out of scope; handlers always receive the
// uncompressed rendered bytes.
type TemplateEngine struct {
	dir   string
	limit int

	mu    sync.RWMutex
	tmpls map[string]*template.Template
	cache map[string][]byte // brotli-compressed rendered output, keyed by page name
}

// NewTemplateEngine loads every *.html file under dir. limit bounds the
// number of distinct rendered-output cache entries retained at once.
func NewTemplateEngine(dir string, limit int) (*TemplateEngine, error) {
	e := &TemplateEngine{
		dir:   dir,
		limit: limit,
		tmpls: make(map[string]*template.Template),
		cache: make(map[string][]byte),
	}
	if dir == "" {
		return e, nil
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*.html"))
	if err != nil {
		return nil, newFatalError("portal: page_dir glob failed: " + err.Error())
	}
	for _, path := range matches {
		name := filepath.Base(path)
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, newFatalError("portal: failed reading page " + path + ": " + err.Error())
		}
		tmpl, err := template.New(name).Parse(string(content))
		if err != nil {
			return nil, newFatalError("portal: failed parsing page " + path + ": " + err.Error())
		}
		e.tmpls[name] = tmpl
	}
	return e, nil
}

// Render executes the named template against data and returns the
// rendered bytes, then stores a compressed copy under name in the cache.
// The cache is not consulted: every call executes the template.
func (e *TemplateEngine) Render(name string, data any) ([]byte, error) {
	e.mu.RLock()
	tmpl, ok := e.tmpls[name]
	e.mu.RUnlock()
	if !ok {
		return nil, newFatalError("portal: unknown page " + name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	out := buf.Bytes()

	e.storeCache(name, out)
	return out, nil
}

func (e *TemplateEngine) storeCache(name string, rendered []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.cache) >= e.limit && e.limit > 0 {
		for k := range e.cache {
			delete(e.cache, k)
			break
		}
	}

	var compressed bytes.Buffer
	w := brotli.NewWriter(&compressed)
	_, _ = w.Write(rendered)
	_ = w.Close()
	e.cache[name] = compressed.Bytes()
}

// CachedSize returns the compressed byte length currently cached for
// name, or -1 if nothing is cached.
func (e *TemplateEngine) CachedSize(name string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.cache[name]
	if !ok {
		return -1
	}
	return len(v)
}
