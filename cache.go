package erpclient

import (
	"strings"
	"sync"
	"time"
)

// QueryCache stores results of read operations keyed by request identity.
// Mutation paths call Invalidate so dependent reads refetch; this is a
// cooperative eventual-consistency model, not a transaction.
type QueryCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
	Remove(key string)
	// Invalidate removes every entry whose key starts with prefix.
	Invalidate(prefix string)
	Clear()
}

type memoryCacheEntry struct {
	value    any
	storedAt time.Time
}

// MemoryCache is an in-process QueryCache. Entries older than maxAge are
// treated as misses; a maxAge of zero disables staleness.
type MemoryCache struct {
	mu      sync.RWMutex
	maxAge  time.Duration
	entries map[string]memoryCacheEntry
	now     func() time.Time
}

var _ QueryCache = (*MemoryCache)(nil)

func NewMemoryCache(maxAge time.Duration) *MemoryCache {
	return &MemoryCache{
		maxAge:  maxAge,
		entries: make(map[string]memoryCacheEntry),
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.maxAge > 0 && c.now().Sub(entry.storedAt) > c.maxAge {
		return nil, false
	}
	return entry.value, true
}

func (c *MemoryCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryCacheEntry{value: value, storedAt: c.now()}
}

func (c *MemoryCache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *MemoryCache) Invalidate(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
}

func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]memoryCacheEntry)
}
