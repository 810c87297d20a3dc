// Package cachewriter stores responses in the cache after they have been
// sent, using a small pool of workers so request goroutines never wait on
// the cache backend.
package cachewriter

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"igproxy/pkg/cache"
	"igproxy/pkg/logger"
)

// ErrQueueFull is returned when the pool cannot accept more writes
var ErrQueueFull = errors.New("cache write queue is full")

// ErrStopped is returned by Submit after Stop
var ErrStopped = errors.New("cache writer is stopped")

// writeTimeout bounds a single backend write
const writeTimeout = 5 * time.Second

// Job is one response to store
type Job struct {
	Key      string
	Response *cache.Response
	TTL      time.Duration
}

// Stats counts what the pool has done
type Stats struct {
	Written int64
	Failed  int64
	Dropped int64
}

// Pool manages concurrent cache write workers
type Pool struct {
	numWorkers int
	jobQueue   chan Job
	wg         sync.WaitGroup
	store      cache.Cache
	logger     logger.Logger

	mu      sync.RWMutex
	stopped bool

	written atomic.Int64
	failed  atomic.Int64
	dropped atomic.Int64
}

// New creates a pool of numWorkers writers in front of store
func New(numWorkers int, store cache.Cache, log logger.Logger) *Pool {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &Pool{
		numWorkers: numWorkers,
		jobQueue:   make(chan Job, numWorkers*64),
		store:      store,
		logger:     log.WithField("component", "cachewriter"),
	}
}

// Start launches the workers
func (p *Pool) Start() {
	p.logger.InfoWithFields("Starting cache writer", map[string]interface{}{
		"num_workers": p.numWorkers,
	})

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop refuses new jobs and waits until queued writes are done
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobQueue)
	p.mu.Unlock()

	p.wg.Wait()

	s := p.Stats()
	p.logger.InfoWithFields("Cache writer stopped", map[string]interface{}{
		"written": s.Written,
		"failed":  s.Failed,
		"dropped": s.Dropped,
	})
}

// Submit queues a write without blocking
func (p *Pool) Submit(job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return ErrStopped
	}

	select {
	case p.jobQueue <- job:
		return nil
	default:
		p.dropped.Add(1)
		p.logger.WarnWithFields("Cache write dropped", map[string]interface{}{
			"cache_key": job.Key,
		})
		return ErrQueueFull
	}
}

// Stats returns a snapshot of the pool counters
func (p *Pool) Stats() Stats {
	return Stats{
		Written: p.written.Load(),
		Failed:  p.failed.Load(),
		Dropped: p.dropped.Load(),
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for job := range p.jobQueue {
		p.process(job, id)
	}
}

func (p *Pool) process(job Job, workerID int) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	start := time.Now()
	if err := p.store.Set(ctx, job.Key, job.Response, job.TTL); err != nil {
		p.failed.Add(1)
		p.logger.WithError(err).ErrorWithFields("Cache write failed", map[string]interface{}{
			"worker_id": workerID,
			"cache_key": job.Key,
		})
		return
	}

	p.written.Add(1)
	p.logger.DebugWithFields("Cache write completed", map[string]interface{}{
		"worker_id": workerID,
		"cache_key": job.Key,
		"ttl":       job.TTL,
		"duration":  time.Since(start),
	})
}
