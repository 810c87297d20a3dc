package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"igproxy/pkg/config"
	errs "igproxy/pkg/errors"
	"igproxy/pkg/logger"
)

// Operation is a unit of work that might need retrying
type Operation func(ctx context.Context) error

// Policy controls how Do retries an operation
type Policy struct {
	// MaxAttempts is the total number of attempts, at least 1
	MaxAttempts int
	Backoff     BackoffStrategy
	// RetryIf decides whether an error is worth another attempt
	RetryIf func(error) bool
	// OnRetry is called before sleeping for the next attempt
	OnRetry func(attempt int, err error, delay time.Duration)
	Logger  logger.Logger
}

// NoRetry runs an operation exactly once
func NoRetry() *Policy {
	return &Policy{MaxAttempts: 1, Backoff: &ConstantBackoff{}, RetryIf: DefaultRetryIf}
}

// FromConfig builds a Policy from the retry section of the configuration.
// A disabled section yields a single-attempt policy.
func FromConfig(cfg config.RetryConfig, log logger.Logger) *Policy {
	if !cfg.Enabled || cfg.MaxAttempts <= 1 {
		p := NoRetry()
		p.Logger = log
		return p
	}
	return &Policy{
		MaxAttempts: cfg.MaxAttempts,
		Backoff: &ExponentialBackoff{
			BaseDelay:    cfg.BaseDelay,
			MaxDelay:     cfg.MaxDelay,
			Multiplier:   cfg.Multiplier,
			JitterFactor: 0.1,
		},
		RetryIf: DefaultRetryIf,
		Logger:  log,
	}
}

// DefaultRetryIf retries typed errors whose type is transient and
// anything untyped except context cancellation
func DefaultRetryIf(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *errs.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code != 0 {
			return errs.IsRetryableStatusCode(apiErr.Code)
		}
		return errs.IsRetryable(apiErr.Type)
	}
	return true
}

// Do executes op until it succeeds, returns a non-retryable error,
// runs out of attempts or ctx is done. The last operation error is
// returned unchanged so callers can inspect its type.
func Do(ctx context.Context, p *Policy, op Operation) error {
	if p == nil {
		p = NoRetry()
	}
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	retryIf := p.RetryIf
	if retryIf == nil {
		retryIf = DefaultRetryIf
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			if attempt > 1 && p.Logger != nil {
				p.Logger.DebugWithFields("operation succeeded after retry", map[string]interface{}{
					"attempt": attempt,
				})
			}
			return nil
		}

		if attempt == maxAttempts || !retryIf(lastErr) {
			break
		}

		var delay time.Duration
		if p.Backoff != nil {
			delay = p.Backoff.NextDelay(attempt)
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, lastErr, delay)
		}
		if p.Logger != nil {
			p.Logger.WarnWithFields("retrying operation", map[string]interface{}{
				"attempt":      attempt,
				"error":        lastErr.Error(),
				"delay_ms":     delay.Milliseconds(),
				"max_attempts": maxAttempts,
			})
		}

		if err := Wait(ctx, delay); err != nil {
			return fmt.Errorf("retry cancelled: %w", err)
		}
	}
	return lastErr
}
