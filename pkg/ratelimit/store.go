package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Entry is the per-client counter state
type Entry struct {
	Count       int       `json:"count"`
	WindowStart time.Time `json:"window_start"`
}

// Store persists counters. Update must apply fn atomically with respect
// to other updates of the same key; ttl is a hint for stores that expire keys.
type Store interface {
	Update(ctx context.Context, key string, fn func(e Entry, ok bool) Entry, ttl time.Duration) (Entry, error)
	// Sweep deletes entries whose window started strictly before cutoff
	Sweep(ctx context.Context, cutoff time.Time) (int, error)
	Close() error
}

// MemoryStore keeps counters in process memory. State is lost on restart.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Entry
}

// NewMemoryStore creates an empty in-memory counter store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func (m *MemoryStore) Update(_ context.Context, key string, fn func(Entry, bool) Entry, _ time.Duration) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	e = fn(e, ok)
	m.entries[key] = e
	return e, nil
}

func (m *MemoryStore) Sweep(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, e := range m.entries {
		if e.WindowStart.Before(cutoff) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of tracked clients
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *MemoryStore) Close() error { return nil }
