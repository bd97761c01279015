package bookclient

import (
	"sync"
	"time"
)

const (
	// staleAfter is how long a cached response is served without a
	// refetch.
	staleAfter = 5 * time.Minute
	// retainFor is how long an entry survives at all before eviction.
	retainFor = 10 * time.Minute
)

type entry struct {
	value    any
	storedAt time.Time
	stale    bool
}

// Cache is the client-side projection of collaborator state, keyed by
// (resource, parameters). It is disposable: every entry can be rebuilt
// by refetching. Bindings are its only writers.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// WithClock swaps the time source, used by tests to age entries.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
	return c
}

// Get returns the cached value for key along with whether it is still
// fresh. Entries past the retention window are evicted on the way out.
func (c *Cache) Get(key string) (value any, fresh bool, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false, false
	}

	age := c.now().Sub(e.storedAt)
	if age > retainFor {
		delete(c.entries, key)
		return nil, false, false
	}

	return e.value, !e.stale && age <= staleAfter, true
}

// Set stores a fresh value for key.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, storedAt: c.now()}
}

// Invalidate marks every entry under the resource prefix stale, forcing
// the next read to refetch. Values stay readable until eviction.
func (c *Cache) Invalidate(resource string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := resource + "?"
	for key, e := range c.entries {
		if key == resource || len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			e.stale = true
			c.entries[key] = e
		}
	}
}

// Remove drops the entry for key entirely.
func (c *Cache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Len reports the live entry count.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
