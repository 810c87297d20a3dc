// Package ratelimit limits inbound requests per client and paces outbound
// requests to Instagram.
//
// Inbound limiting is a fixed window counter: the first request from a
// client opens a window; every request in the window increments the count
// and requests beyond the limit are rejected until the window elapses.
// Counters live in a Store: MemoryStore for a single process, BadgerStore
// when counters must survive restarts.
//
//	limiter := ratelimit.NewFixedWindow(ratelimit.NewMemoryStore(), 50, time.Minute)
//	d, err := limiter.Allow(ctx, clientIP)
//	if err == nil && !d.Allowed {
//	    // 429, Retry-After: d.RetryAfter
//	}
//
// Outbound pacing uses a token bucket from golang.org/x/time/rate.
package ratelimit
