package predict

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dkwon/alphadesk/internal/training"
)

// Cache holds trained pipelines per ticker with a TTL. Concurrent
// requests for the same uncached ticker coalesce through singleflight,
// so at most one training run is ever in flight per key.
type Cache struct {
	ttl time.Duration

	mu      sync.RWMutex
	entries map[string]cacheEntry
	group   singleflight.Group

	now func() time.Time
}

type cacheEntry struct {
	pipeline *training.Pipeline
	expires  time.Time
}

// NewCache creates a cache with the given time-to-live per entry
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// Get returns the cached pipeline if present and fresh
func (c *Cache) Get(ticker string) (*training.Pipeline, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[ticker]
	if !ok || c.now().After(entry.expires) {
		return nil, false
	}
	return entry.pipeline, true
}

// Put stores a pipeline, restarting its TTL
func (c *Cache) Put(ticker string, p *training.Pipeline) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[ticker] = cacheEntry{pipeline: p, expires: c.now().Add(c.ttl)}
}

// Invalidate drops the entry for a ticker
func (c *Cache) Invalidate(ticker string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, ticker)
}

// GetOrBuild returns the cached pipeline or builds one. Builds for the
// same ticker coalesce: concurrent callers share a single invocation
// and its result.
func (c *Cache) GetOrBuild(ticker string, build func() (*training.Pipeline, error)) (*training.Pipeline, error) {
	if p, ok := c.Get(ticker); ok {
		return p, nil
	}

	v, err, _ := c.group.Do(ticker, func() (interface{}, error) {
		// Re-check: a concurrent flight may have just filled the entry
		if p, ok := c.Get(ticker); ok {
			return p, nil
		}
		p, err := build()
		if err != nil {
			return nil, err
		}
		c.Put(ticker, p)
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*training.Pipeline), nil
}
