// Package async runs file-processing jobs on a bounded in-process worker
// pool.
package async

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Job is one file handed to the pool.
type Job struct {
	Path        string
	SubmittedAt time.Time
}

// FileProcessor is the behavior the workers drive.
type FileProcessor interface {
	ProcessFile(ctx context.Context, path string) error
}

// Dispatcher is what producers (watcher, HTTP surface, CLI) see.
type Dispatcher interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}

// Queue fans jobs out to a fixed set of workers over a bounded channel.
type Queue struct {
	proc    FileProcessor
	logger  *slog.Logger
	workers int
	timeout time.Duration
	release func(path string)

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*Queue)

func WithWorkers(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// WithRelease installs a cleanup called when a job finishes, success or
// failure. The watcher uses it to free the in-flight entry.
func WithRelease(fn func(path string)) Option {
	return func(q *Queue) {
		q.release = fn
	}
}

func NewQueue(proc FileProcessor, logger *slog.Logger, opts ...Option) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &Queue{
		proc:    proc,
		logger:  logger,
		workers: 4,
		timeout: 3 * time.Minute,
		ch:      make(chan Job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *Queue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)

				for job := range q.ch {
					q.run(workerID, job)
				}

				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *Queue) run(workerID int, job Job) {
	defer func() {
		if q.release != nil {
			q.release(job.Path)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()

	if err := q.proc.ProcessFile(ctx, job.Path); err != nil {
		q.logger.Error("processing failed", "worker_id", workerID, "path", job.Path, "error", err)
		return
	}
	q.logger.Info("processed file", "worker_id", workerID, "path", job.Path)
}

func (q *Queue) Enqueue(_ context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "path", job.Path)
		if q.release != nil {
			q.release(job.Path)
		}
		return nil
	}
	select {
	case q.ch <- job:
		q.logger.Info("queued file for processing", "path", job.Path)
	default:
		// A full queue must never stall the producer's poll loop. The job
		// is dropped and its in-flight entry released; the next scan
		// re-admits the file since its identity has no record yet.
		q.logger.Warn("queue full, dropping job until next scan", "path", job.Path)
		if q.release != nil {
			q.release(job.Path)
		}
	}
	return nil
}

// Shutdown stops intake and waits for in-flight jobs, bounded by ctx.
func (q *Queue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
