package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestFixedWindowRejectsFiftyFirst(t *testing.T) {
	clock := newFakeClock()
	fw := NewFixedWindow(NewMemoryStore(), 50, time.Minute).WithClock(clock.Now)
	ctx := context.Background()

	for i := 1; i <= 50; i++ {
		d, err := fw.Allow(ctx, "198.51.100.7")
		require.NoError(t, err)
		require.True(t, d.Allowed, "request %d", i)
		assert.Equal(t, i, d.Count)
		assert.Equal(t, 50-i, d.Remaining)
		clock.Advance(time.Second / 2)
	}

	d, err := fw.Allow(ctx, "198.51.100.7")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 51, d.Count)
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, 35*time.Second, d.RetryAfter)
}

func TestFixedWindowResetsAfterWindow(t *testing.T) {
	clock := newFakeClock()
	fw := NewFixedWindow(NewMemoryStore(), 2, time.Minute).WithClock(clock.Now)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := fw.Allow(ctx, "a")
		require.NoError(t, err)
	}

	clock.Advance(time.Minute + time.Second)

	d, err := fw.Allow(ctx, "a")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Count)
}

func TestFixedWindowBoundaryBelongsToOldWindow(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore()
	fw := NewFixedWindow(store, 1, time.Minute).WithClock(clock.Now)
	ctx := context.Background()

	d, err := fw.Allow(ctx, "a")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	clock.Advance(time.Minute)

	d, err = fw.Allow(ctx, "a")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 2, d.Count)
	assert.Positive(t, d.RetryAfter)

	// a sweep at the boundary must not drop the live window either
	removed, err := fw.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
	assert.Equal(t, 1, store.Len())

	clock.Advance(time.Nanosecond)

	d, err = fw.Allow(ctx, "a")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Count)
}

func TestFixedWindowKeysAreIndependent(t *testing.T) {
	fw := NewFixedWindow(NewMemoryStore(), 1, time.Minute)
	ctx := context.Background()

	d, _ := fw.Allow(ctx, "a")
	assert.True(t, d.Allowed)
	d, _ = fw.Allow(ctx, "a")
	assert.False(t, d.Allowed)
	d, _ = fw.Allow(ctx, "b")
	assert.True(t, d.Allowed)
}

func TestFixedWindowConcurrent(t *testing.T) {
	fw := NewFixedWindow(NewMemoryStore(), 50, time.Minute)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := fw.Allow(ctx, "shared")
			if err == nil && d.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, allowed)
}

func TestMemoryStoreSweep(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore()
	fw := NewFixedWindow(store, 5, time.Minute).WithClock(clock.Now)
	ctx := context.Background()

	_, _ = fw.Allow(ctx, "old")
	clock.Advance(45 * time.Second)
	_, _ = fw.Allow(ctx, "fresh")
	clock.Advance(20 * time.Second)

	removed, err := fw.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, store.Len())
}

func TestBadgerStorePersistsCounters(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := OpenBadgerStore(dir)
	require.NoError(t, err)
	fw := NewFixedWindow(store, 2, time.Minute)

	for i := 0; i < 2; i++ {
		d, err := fw.Allow(ctx, "203.0.113.1")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	}
	require.NoError(t, fw.Close())

	reopened, err := OpenBadgerStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	d, err := NewFixedWindow(reopened, 2, time.Minute).Allow(ctx, "203.0.113.1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 3, d.Count)
}

func TestBadgerStoreSweep(t *testing.T) {
	clock := newFakeClock()
	store, err := OpenBadgerStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	fw := NewFixedWindow(store, 5, time.Minute).WithClock(clock.Now)
	_, err = fw.Allow(ctx, "a")
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	_, err = fw.Allow(ctx, "b")
	require.NoError(t, err)

	removed, err := fw.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestUpstreamPacer(t *testing.T) {
	var nilPacer *UpstreamPacer
	assert.NoError(t, nilPacer.Wait(context.Background()))
	assert.Nil(t, NewUpstreamPacer(0, 5))

	p := NewUpstreamPacer(60, 1)
	require.NotNil(t, p)
	require.NoError(t, p.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, p.Wait(ctx))
}
