package sweeper

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igproxy/pkg/logger"
)

func TestAddTaskRejectsBadSchedule(t *testing.T) {
	s := New(logger.NewNopLogger())
	err := s.AddTask("cache", "every now and then", func(context.Context) (int, error) { return 0, nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache")
	assert.Empty(t, s.Tasks())
}

func TestScheduledTaskRuns(t *testing.T) {
	s := New(logger.NewNopLogger())

	var runs atomic.Int32
	require.NoError(t, s.AddTask("ratelimit", "@every 1s", func(context.Context) (int, error) {
		runs.Add(1)
		return 2, nil
	}))
	assert.Equal(t, []string{"ratelimit"}, s.Tasks())

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return runs.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
}

func TestRunNowLogsFailure(t *testing.T) {
	log := logger.NewTestLogger()
	s := New(log)

	_, err := s.RunNow("cache", func(context.Context) (int, error) { return 0, errors.New("locked") })
	require.Error(t, err)
	assert.True(t, log.HasMessage("Sweep failed"))

	removed, err := s.RunNow("cache", func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, removed)
}
