package ratelimit

import (
	"context"
	"time"
)

// RejectionMessage is returned to clients that exceeded their budget
const RejectionMessage = "Rate limit exceeded. Please try again later."

// Decision is the outcome of counting one request against a client's window
type Decision struct {
	Allowed    bool
	Count      int
	Remaining  int
	RetryAfter time.Duration
}

// FixedWindow counts requests per key in fixed windows that start with
// the key's first request. Rejected requests still count.
type FixedWindow struct {
	store       Store
	maxRequests int
	window      time.Duration
	now         func() time.Time
}

// NewFixedWindow creates a limiter allowing maxRequests per window for each key
func NewFixedWindow(store Store, maxRequests int, window time.Duration) *FixedWindow {
	return &FixedWindow{
		store:       store,
		maxRequests: maxRequests,
		window:      window,
		now:         time.Now,
	}
}

// WithClock replaces the time source, used by tests
func (fw *FixedWindow) WithClock(now func() time.Time) *FixedWindow {
	fw.now = now
	return fw
}

// Allow records one request for key and reports whether it is within budget
func (fw *FixedWindow) Allow(ctx context.Context, key string) (Decision, error) {
	now := fw.now()

	entry, err := fw.store.Update(ctx, key, func(e Entry, ok bool) Entry {
		if !ok || fw.expired(e, now) {
			return Entry{Count: 1, WindowStart: now}
		}
		e.Count++
		return e
	}, fw.window+time.Second)
	if err != nil {
		return Decision{}, err
	}

	d := Decision{
		Allowed:   entry.Count <= fw.maxRequests,
		Count:     entry.Count,
		Remaining: max(fw.maxRequests-entry.Count, 0),
	}
	if !d.Allowed {
		d.RetryAfter = max(entry.WindowStart.Add(fw.window).Sub(now), time.Nanosecond)
	}
	return d, nil
}

// expired reports whether e's window has fully elapsed at now. A request
// landing exactly on the window boundary still belongs to the old window.
func (fw *FixedWindow) expired(e Entry, now time.Time) bool {
	return now.Sub(e.WindowStart) > fw.window
}

// Sweep removes entries whose window has elapsed
func (fw *FixedWindow) Sweep(ctx context.Context) (int, error) {
	return fw.store.Sweep(ctx, fw.now().Add(-fw.window))
}

// Limit returns the configured number of requests per window
func (fw *FixedWindow) Limit() int {
	return fw.maxRequests
}

// Close releases the underlying store
func (fw *FixedWindow) Close() error {
	return fw.store.Close()
}
