package worker

import (
	"context"
	"log"
	"sync"

	"golang.org/x/time/rate"

	emailapp "mailsort/internal/application/email"
)

// SyncJob asks for one user's inbox to be synced.
type SyncJob struct {
	UserID string
}

type Syncer interface {
	Execute(ctx context.Context, userID string, opts emailapp.SyncOptions) (*emailapp.SyncReport, error)
}

// Pool runs sync jobs on a fixed number of workers. Jobs for a user who
// already has one queued are coalesced.
type Pool struct {
	workers int
	jobs    chan SyncJob
	syncer  Syncer
	pace    *rate.Limiter
	wg      sync.WaitGroup

	mu       sync.RWMutex
	closed   bool
	done     chan struct{}
	shutdown sync.Once

	pendMu  sync.Mutex
	pending map[string]struct{}
}

// NewPool builds a pool; a nil pace runs jobs back to back.
func NewPool(workers int, syncer Syncer, pace *rate.Limiter) *Pool {
	if workers < 1 {
		workers = 1
	}
	if pace == nil {
		pace = rate.NewLimiter(rate.Inf, 1)
	}
	return &Pool{
		workers: workers,
		jobs:    make(chan SyncJob, 100),
		syncer:  syncer,
		pace:    pace,
		done:    make(chan struct{}),
		pending: make(map[string]struct{}),
	}
}

func (p *Pool) Start(ctx context.Context) {
	log.Printf("Worker pool started with %d workers", p.workers)

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

// Submit queues job and reports whether it was accepted. It returns false
// once Shutdown has begun instead of blocking.
func (p *Pool) Submit(job SyncJob) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}

	p.pendMu.Lock()
	if _, queued := p.pending[job.UserID]; queued {
		p.pendMu.Unlock()
		return true
	}
	p.pending[job.UserID] = struct{}{}
	p.pendMu.Unlock()

	select {
	case p.jobs <- job:
		return true
	case <-p.done:
		p.release(job.UserID)
		return false
	}
}

// Shutdown stops accepting jobs and waits for the workers to exit. While the
// context given to Start is live the workers drain the queue first; once it
// is cancelled, jobs still queued are dropped. A dropped sync is picked up by
// the next one for that user.
func (p *Pool) Shutdown() {
	p.shutdown.Do(func() {
		close(p.done)
		p.mu.Lock()
		p.closed = true
		close(p.jobs)
		p.mu.Unlock()
	})

	p.wg.Wait()
	log.Println("Worker pool shut down")
}

func (p *Pool) worker(ctx context.Context, workerID int) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			p.release(job.UserID)

			if err := p.pace.Wait(ctx); err != nil {
				return
			}

			report, err := p.syncer.Execute(ctx, job.UserID, emailapp.SyncOptions{})
			if err != nil {
				log.Printf("[worker %d] Error syncing user %s: %v", workerID, job.UserID, err)
				continue
			}
			log.Printf("[worker %d] Synced user %s: %d new, %d skipped, %d errors",
				workerID, job.UserID, report.New, report.Skipped, report.Errors)
		}
	}
}

func (p *Pool) release(userID string) {
	p.pendMu.Lock()
	delete(p.pending, userID)
	p.pendMu.Unlock()
}
