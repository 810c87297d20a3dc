package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	resp      *Response
	expiresAt time.Time
}

// MemoryCache is a map-backed cache for a single process
type MemoryCache struct {
	mu         sync.RWMutex
	entries    map[string]memoryEntry
	maxEntries int
	now        func() time.Time
}

// NewMemoryCache creates a cache holding at most maxEntries (0 means unbounded)
func NewMemoryCache(maxEntries int) *MemoryCache {
	return &MemoryCache{
		entries:    make(map[string]memoryEntry),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// WithClock replaces the time source, used by tests
func (c *MemoryCache) WithClock(now func() time.Time) *MemoryCache {
	c.now = now
	return c
}

func (c *MemoryCache) Get(_ context.Context, key string) (*Response, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || !c.now().Before(e.expiresAt) {
		return nil, false, nil
	}
	return e.resp, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, resp *Response, ttl time.Duration) error {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		c.evictLocked(now)
	}
	c.entries[key] = memoryEntry{resp: resp, expiresAt: now.Add(ttl)}
	return nil
}

// evictLocked drops expired entries, or the entry closest to expiry if none are
func (c *MemoryCache) evictLocked(now time.Time) {
	var (
		victim   string
		earliest time.Time
	)
	removed := 0
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
			removed++
			continue
		}
		if victim == "" || e.expiresAt.Before(earliest) {
			victim, earliest = k, e.expiresAt
		}
	}
	if removed == 0 && victim != "" {
		delete(c.entries, victim)
	}
}

func (c *MemoryCache) Sweep(_ context.Context) (int, error) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored entries, expired or not
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *MemoryCache) Close() error { return nil }
