// Package cache stores complete JSON responses keyed by endpoint and
// normalized identifier. Entries expire after their TTL; there is no other
// invalidation.
package cache

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// Response is a cached HTTP response body with its content headers
type Response struct {
	Body         []byte    `json:"body"`
	ContentType  string    `json:"content_type"`
	CacheControl string    `json:"cache_control"`
	StoredAt     time.Time `json:"stored_at"`
}

// Cache is implemented by every backend
type Cache interface {
	// Get returns the response stored under key, if present and unexpired
	Get(ctx context.Context, key string) (*Response, bool, error)
	Set(ctx context.Context, key string, resp *Response, ttl time.Duration) error
	// Sweep drops expired entries and returns how many were removed
	Sweep(ctx context.Context) (int, error)
	Close() error
}

// Key builds the deterministic cache key for an endpoint request,
// for example "post?shortcode=ABC123"
func Key(endpoint, field, value string) string {
	return endpoint + "?" + url.Values{field: {value}}.Encode()
}

// CacheControl renders the Cache-Control header for a TTL
func CacheControl(ttl time.Duration) string {
	return fmt.Sprintf("public, max-age=%d", int(ttl/time.Second))
}
