package dataset

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/KaramelBytes/tabdash/internal/table"
)

// Source names where a table comes from. Exactly one of Demo, Path or Data
// is expected; Name is the upload's file name and selects the loader.
type Source struct {
	Demo string
	Path string
	Name string
	Data []byte
	// Options apply to Path and Data sources.
	Options Options
}

// String describes the source for messages.
func (s Source) String() string {
	switch {
	case s.Path != "":
		return s.Path
	case s.Data != nil:
		return baseName(s.Name)
	case s.Demo != "":
		return "demo:" + s.Demo
	}
	return "(none)"
}

// DefaultCacheEntries bounds the parsed tables a Resolver keeps.
const DefaultCacheEntries = 32

// Resolver loads tables and memoizes parsed uploads by content hash. Once
// MaxEntries tables are cached the oldest is dropped.
type Resolver struct {
	// Default is the demo used when no source is given or loading fails.
	Default string
	// MaxEntries caps the cache; zero or less means DefaultCacheEntries.
	MaxEntries int

	mu    sync.RWMutex
	cache map[string]*table.Table
	order []string
}

// NewResolver creates a resolver falling back to the named demo dataset.
func NewResolver(defaultDemo string) *Resolver {
	if defaultDemo == "" {
		defaultDemo = DemoMarks
	}
	return &Resolver{Default: defaultDemo, cache: map[string]*table.Table{}}
}

// Resolve returns a table owned by the caller. Read and parse failures of a
// file or upload are returned as *DataLoadError.
func (r *Resolver) Resolve(ctx context.Context, src Source) (*table.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch {
	case src.Path != "":
		data, err := os.ReadFile(src.Path)
		if err != nil {
			return nil, &DataLoadError{Source: src.String(), Err: fmt.Errorf("read file: %w", err)}
		}
		return r.parse(data, src.Path, src)
	case src.Data != nil:
		return r.parse(src.Data, src.Name, src)
	case src.Demo != "":
		return Demo(src.Demo)
	default:
		return Demo(r.Default)
	}
}

// ResolveOrDefault behaves like Resolve but falls back to the default demo
// when the source cannot be read. The load failure is returned alongside the
// demo table so callers can surface it as a warning.
func (r *Resolver) ResolveOrDefault(ctx context.Context, src Source) (*table.Table, error) {
	t, err := r.Resolve(ctx, src)
	if err == nil {
		return t, nil
	}
	var dle *DataLoadError
	if !errors.As(err, &dle) {
		return nil, err
	}
	demo, derr := Demo(r.Default)
	if derr != nil {
		return nil, fmt.Errorf("%v; fallback: %w", err, derr)
	}
	return demo, err
}

func (r *Resolver) parse(data []byte, name string, src Source) (*table.Table, error) {
	key := cacheKey(data, name, src.Options)
	r.mu.RLock()
	cached, ok := r.cache[key]
	r.mu.RUnlock()
	if ok {
		return cached.Clone(), nil
	}
	t, err := LoadWith(bytes.NewReader(data), name, src.Options)
	if err != nil {
		return nil, &DataLoadError{Source: src.String(), Err: err}
	}
	r.mu.Lock()
	if r.cache == nil {
		r.cache = map[string]*table.Table{}
	}
	if _, dup := r.cache[key]; !dup {
		limit := r.MaxEntries
		if limit <= 0 {
			limit = DefaultCacheEntries
		}
		for len(r.order) >= limit {
			delete(r.cache, r.order[0])
			r.order = r.order[1:]
		}
		r.order = append(r.order, key)
	}
	r.cache[key] = t
	r.mu.Unlock()
	return t.Clone(), nil
}

// Cached reports how many parsed files are memoized.
func (r *Resolver) Cached() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cache)
}

func cacheKey(data []byte, name string, opt Options) string {
	h := sha256.New()
	h.Write(data)
	h.Write([]byte{0})
	h.Write([]byte(baseName(name)))
	fmt.Fprintf(h, "\x00%+v", opt)
	return hex.EncodeToString(h.Sum(nil))
}
