package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// UpstreamPacer spaces out requests sent to Instagram.
// A nil pacer never blocks.
type UpstreamPacer struct {
	limiter *rate.Limiter
}

// NewUpstreamPacer allows requestsPerMinute with the given burst.
// A non-positive rate disables pacing and returns nil.
func NewUpstreamPacer(requestsPerMinute, burst int) *UpstreamPacer {
	if requestsPerMinute <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &UpstreamPacer{
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), burst),
	}
}

// Wait blocks until another upstream request may be sent or ctx is done
func (p *UpstreamPacer) Wait(ctx context.Context) error {
	if p == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}
