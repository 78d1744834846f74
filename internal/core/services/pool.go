package services

import (
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/oasisprop/concierge/internal/core/domain"
)

// DefaultPoolSize is the default number of concurrent background jobs.
const DefaultPoolSize = 4

// WorkerPool runs fire-and-forget background jobs with a bound on
// concurrency. Submission is explicit: TrySubmit reports saturation
// instead of blocking, so callers can acknowledge quickly and log the
// loss. Job failures are the job's own responsibility to log; the pool
// never retries.
type WorkerPool struct {
	sem *semaphore.Weighted
	wg  sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewWorkerPool creates a pool allowing up to size concurrent jobs.
// A size below 1 falls back to DefaultPoolSize.
func NewWorkerPool(size int) *WorkerPool {
	if size < 1 {
		size = DefaultPoolSize
	}
	return &WorkerPool{sem: semaphore.NewWeighted(int64(size))}
}

// TrySubmit starts job on a new goroutine if a slot is free.
// Returns domain.ErrPoolSaturated when every slot is busy and
// domain.ErrInvalidInput after Close.
func (p *WorkerPool) TrySubmit(job func()) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return domain.ErrInvalidInput
	}
	if !p.sem.TryAcquire(1) {
		p.mu.Unlock()
		return domain.ErrPoolSaturated
	}
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		defer p.sem.Release(1)
		job()
	}()

	return nil
}

// Close stops accepting new jobs and waits for running jobs to finish.
func (p *WorkerPool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.wg.Wait()
}
