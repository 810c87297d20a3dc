// Package retry wraps upstream Instagram calls in an optional retry loop.
//
// The proxy does not retry by default: FromConfig returns a single-attempt
// policy unless the retry section is enabled. When enabled, transient
// failures (network errors, 429 and 5xx responses) are retried with
// exponential backoff and jitter; 404s, parsing failures and context
// cancellation are returned immediately.
//
//	policy := retry.FromConfig(cfg.Retry, log)
//	err := retry.Do(ctx, policy, func(ctx context.Context) error {
//		return fetch(ctx)
//	})
package retry
