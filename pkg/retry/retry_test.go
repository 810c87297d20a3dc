package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igproxy/pkg/config"
	errs "igproxy/pkg/errors"
	"igproxy/pkg/logger"
)

func TestExponentialBackoff(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   time.Second,
		Multiplier: 2.0,
	}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 0},
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, time.Second},
		{9, time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, backoff.NextDelay(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestExponentialBackoffJitterBounds(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.25,
	}

	for i := 0; i < 50; i++ {
		d := backoff.NextDelay(2)
		assert.GreaterOrEqual(t, d, 150*time.Millisecond)
		assert.LessOrEqual(t, d, 250*time.Millisecond)
	}
}

func TestDoSucceedsAfterRetries(t *testing.T) {
	attempts := 0
	p := &Policy{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		Logger:      logger.NewNopLogger(),
	}

	err := Do(context.Background(), p, func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errs.New(errs.ErrorTypeServerError, 503, "unavailable")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDoReturnsLastErrorUnchanged(t *testing.T) {
	attempts := 0
	upstream := errs.New(errs.ErrorTypeServerError, 502, "Failed to fetch Instagram post")
	p := &Policy{MaxAttempts: 3, Backoff: &ConstantBackoff{Delay: time.Millisecond}}

	err := Do(context.Background(), p, func(context.Context) error {
		attempts++
		return upstream
	})

	assert.Same(t, upstream, err)
	assert.Equal(t, 3, attempts)
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	attempts := 0
	p := &Policy{MaxAttempts: 5, Backoff: &ConstantBackoff{Delay: time.Millisecond}}

	err := Do(context.Background(), p, func(context.Context) error {
		attempts++
		return errs.New(errs.ErrorTypeNotFound, 404, "Failed to fetch Instagram profile")
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDoHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Policy{
		MaxAttempts: 10,
		Backoff:     &ConstantBackoff{Delay: time.Hour},
		OnRetry:     func(int, error, time.Duration) { cancel() },
	}

	err := Do(ctx, p, func(context.Context) error { return errors.New("flaky") })

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "retry cancelled")
}

func TestNoRetryRunsOnce(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), nil, func(context.Context) error {
		attempts++
		return errors.New("network down")
	})

	assert.EqualError(t, err, "network down")
	assert.Equal(t, 1, attempts)
}

func TestFromConfig(t *testing.T) {
	disabled := FromConfig(config.RetryConfig{Enabled: false, MaxAttempts: 5}, nil)
	assert.Equal(t, 1, disabled.MaxAttempts)

	enabled := FromConfig(config.RetryConfig{
		Enabled:     true,
		MaxAttempts: 4,
		BaseDelay:   50 * time.Millisecond,
		MaxDelay:    time.Second,
		Multiplier:  3,
	}, nil)
	assert.Equal(t, 4, enabled.MaxAttempts)
	eb, ok := enabled.Backoff.(*ExponentialBackoff)
	require.True(t, ok)
	assert.Equal(t, 50*time.Millisecond, eb.BaseDelay)
	assert.Equal(t, 3.0, eb.Multiplier)
}

func TestDefaultRetryIf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
		{"network", errs.Wrap(errs.ErrorTypeNetwork, 0, "Failed to fetch Instagram post", errors.New("eof")), true},
		{"too many requests", errs.New(errs.ErrorTypeRateLimit, 429, "slow down"), true},
		{"server error", errs.New(errs.ErrorTypeServerError, 500, "oops"), true},
		{"not found", errs.New(errs.ErrorTypeNotFound, 404, "gone"), false},
		{"parsing", errs.New(errs.ErrorTypeParsing, 0, "bad shape"), false},
		{"untyped", errors.New("mystery"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultRetryIf(tt.err))
		})
	}
}

func TestWait(t *testing.T) {
	assert.NoError(t, Wait(context.Background(), 0))
	assert.NoError(t, Wait(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Wait(ctx, time.Minute), context.Canceled)
}
