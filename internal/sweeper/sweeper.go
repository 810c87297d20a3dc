// Package sweeper periodically removes expired rate-limit counters and
// cache entries.
package sweeper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"igproxy/pkg/logger"
)

// Task removes stale state and reports how many entries it dropped
type Task func(ctx context.Context) (int, error)

// taskTimeout bounds a single sweep
const taskTimeout = time.Minute

// Sweeper runs named tasks on cron schedules
type Sweeper struct {
	cron   *cron.Cron
	logger logger.Logger

	mu   sync.Mutex
	jobs map[string]cron.EntryID
}

// New creates an idle sweeper
func New(log logger.Logger) *Sweeper {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Sweeper{
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger: log.WithField("component", "sweeper"),
		jobs:   make(map[string]cron.EntryID),
	}
}

// AddTask schedules task; schedule accepts cron specs and descriptors such as "@every 1m"
func (s *Sweeper) AddTask(name, schedule string, task Task) error {
	entryID, err := s.cron.AddFunc(schedule, func() {
		_, _ = s.RunNow(name, task)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule sweep %s: %w", name, err)
	}

	s.mu.Lock()
	s.jobs[name] = entryID
	s.mu.Unlock()

	s.logger.DebugWithFields("Sweep scheduled", map[string]interface{}{
		"task":     name,
		"schedule": schedule,
	})
	return nil
}

// RunNow executes task immediately and logs the outcome
func (s *Sweeper) RunNow(name string, task Task) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
	defer cancel()

	start := time.Now()
	removed, err := task(ctx)
	if err != nil {
		s.logger.WithError(err).ErrorWithFields("Sweep failed", map[string]interface{}{
			"task": name,
		})
		return removed, err
	}

	s.logger.DebugWithFields("Sweep completed", map[string]interface{}{
		"task":     name,
		"removed":  removed,
		"duration": time.Since(start),
	})
	return removed, nil
}

// Tasks returns the names of scheduled tasks
func (s *Sweeper) Tasks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	return names
}

// Start begins running scheduled tasks
func (s *Sweeper) Start() {
	logger.LogComponentStart("sweeper", map[string]interface{}{"tasks": len(s.Tasks())})
	s.cron.Start()
}

// Stop halts scheduling and waits for running tasks
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
	logger.LogComponentStop("sweeper", "shutdown")
}
