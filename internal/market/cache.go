package market

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/KaramelBytes/tabdash/internal/table"
)

// DefaultCacheSize bounds the number of price tables a Cache keeps.
const DefaultCacheSize = 64

// Fetcher returns daily prices for a symbol over [start, endExclusive).
type Fetcher interface {
	FetchDaily(ctx context.Context, symbol string, start, endExclusive time.Time) (*table.Table, error)
}

// Cache memoizes successful fetches by symbol and range. Failed fetches are
// not remembered, so the next request retries upstream. Cached tables are
// never mutated; callers receive clones. When full, the oldest entry is
// evicted.
type Cache struct {
	src Fetcher
	max int

	mu      sync.RWMutex
	entries map[string]*table.Table
	order   []string
}

// NewCache wraps src. A size of zero or less uses DefaultCacheSize.
func NewCache(src Fetcher, size int) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &Cache{src: src, max: size, entries: map[string]*table.Table{}}
}

func (c *Cache) FetchDaily(ctx context.Context, symbol string, start, endExclusive time.Time) (*table.Table, error) {
	key := fmt.Sprintf("%s|%d|%d", symbol, start.Unix(), endExclusive.Unix())
	c.mu.RLock()
	t, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return t.Clone(), nil
	}
	t, err := c.src.FetchDaily(ctx, symbol, start, endExclusive)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	if _, dup := c.entries[key]; !dup {
		if len(c.order) >= c.max {
			delete(c.entries, c.order[0])
			c.order = c.order[1:]
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = t
	c.mu.Unlock()
	return t.Clone(), nil
}

// Len reports how many price tables are cached.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
