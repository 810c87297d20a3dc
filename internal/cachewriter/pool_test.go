package cachewriter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igproxy/pkg/cache"
	"igproxy/pkg/logger"
)

// blockingCache holds every Set until release is closed
type blockingCache struct {
	*cache.MemoryCache
	release chan struct{}
}

func (b *blockingCache) Set(ctx context.Context, key string, resp *cache.Response, ttl time.Duration) error {
	<-b.release
	return b.MemoryCache.Set(ctx, key, resp, ttl)
}

type failingCache struct {
	*cache.MemoryCache
}

func (failingCache) Set(context.Context, string, *cache.Response, time.Duration) error {
	return errors.New("disk full")
}

func response(body string) *cache.Response {
	return &cache.Response{Body: []byte(body), ContentType: "application/json"}
}

func TestPoolWritesAsynchronously(t *testing.T) {
	store := cache.NewMemoryCache(0)
	pool := New(2, store, logger.NewNopLogger())
	pool.Start()
	defer pool.Stop()

	require.NoError(t, pool.Submit(Job{Key: "post?shortcode=A", Response: response(`{"a":1}`), TTL: time.Hour}))

	assert.Eventually(t, func() bool {
		_, ok, _ := store.Get(context.Background(), "post?shortcode=A")
		return ok
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(1), pool.Stats().Written)
}

func TestPoolStopDrainsQueue(t *testing.T) {
	store := cache.NewMemoryCache(0)
	pool := New(1, store, logger.NewNopLogger())
	pool.Start()

	for _, key := range []string{"a", "b", "c", "d"} {
		require.NoError(t, pool.Submit(Job{Key: key, Response: response("{}"), TTL: time.Minute}))
	}
	pool.Stop()

	assert.Equal(t, 4, store.Len())
	assert.ErrorIs(t, pool.Submit(Job{Key: "late"}), ErrStopped)

	// second Stop is a no-op
	pool.Stop()
}

func TestPoolDropsWhenFull(t *testing.T) {
	store := &blockingCache{MemoryCache: cache.NewMemoryCache(0), release: make(chan struct{})}
	pool := New(1, store, logger.NewNopLogger())
	pool.Start()

	full := false
	for i := 0; i < 1000 && !full; i++ {
		err := pool.Submit(Job{Key: "k", Response: response("{}"), TTL: time.Minute})
		full = errors.Is(err, ErrQueueFull)
	}

	assert.True(t, full)
	assert.Equal(t, int64(1), pool.Stats().Dropped)

	close(store.release)
	pool.Stop()
}

func TestPoolCountsFailures(t *testing.T) {
	log := logger.NewTestLogger()
	pool := New(1, failingCache{cache.NewMemoryCache(0)}, log)
	pool.Start()

	require.NoError(t, pool.Submit(Job{Key: "x", Response: response("{}"), TTL: time.Minute}))
	pool.Stop()

	assert.Equal(t, int64(1), pool.Stats().Failed)
	assert.True(t, log.HasError())
}
