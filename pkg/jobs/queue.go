package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler processes a job.
type Handler func(context.Context, Job) error

// Backend stores pending jobs. Push may be called concurrently; Pop is only
// ever called by the queue's single consumer.
type Backend interface {
	Push(ctx context.Context, job Job) error
	Pop(ctx context.Context) (Job, error)
	Len(ctx context.Context) (int, error)
	Close() error
}

// QueueConfig configures the queue.
type QueueConfig struct {
	Backend        Backend
	EnqueueTimeout time.Duration
	// OnComplete and OnFailure are each invoked at most once per dequeued job,
	// and exactly one of them fires.
	OnComplete func(Job)
	OnFailure  func(Job, error)
	Logger     *zap.Logger
}

// Stats is a snapshot of queue counters.
type Stats struct {
	Enqueued  uint64
	Rejected  uint64
	Completed uint64
	Failed    uint64
}

// Queue dispatches jobs to a single consumer goroutine. Failed jobs are
// reported and dropped; there is no retry and no per-job timeout, so a handler
// that never returns stalls the queue.
//
// Once the consumer stops, either through Stop or because the Start context
// ended, Enqueue rejects new jobs and the consumer drains what the backend
// still hands out without blocking. Jobs left in a durable backend (Redis)
// wait for the next consumer.
type Queue struct {
	name    string
	handler Handler
	backend Backend

	enqueueTimeout time.Duration
	onComplete     func(Job)
	onFailure      func(Job, error)
	logger         *zap.Logger

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.RWMutex
	started   bool
	stopped   bool
	closeOnce sync.Once

	enqueued  atomic.Uint64
	rejected  atomic.Uint64
	completed atomic.Uint64
	failed    atomic.Uint64
}

// NewQueue builds a new queue with the provided handler.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	if cfg.Backend == nil {
		cfg.Backend = NewMemoryBackend(0)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Queue{
		name:           name,
		handler:        handler,
		backend:        cfg.Backend,
		enqueueTimeout: cfg.EnqueueTimeout,
		onComplete:     cfg.OnComplete,
		onFailure:      cfg.OnFailure,
		logger:         cfg.Logger,
	}
}

// Name returns the queue name.
func (q *Queue) Name() string { return q.name }

// Start launches the consumer. Safe to call more than once.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started || q.stopped {
		return
	}
	q.ctx = ctx
	popCtx, cancel := context.WithCancel(ctx)
	q.cancel = cancel
	q.wg.Add(1)
	go q.consume(popCtx)
	q.started = true
	q.logger.Sugar().Infow("queue started", "queue", q.name)
}

// Stop rejects further jobs, lets the consumer drain the backend, waits for it
// and closes the backend. Safe to call more than once.
func (q *Queue) Stop() {
	q.mu.Lock()
	q.stopped = true
	cancel := q.cancel
	q.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	q.wg.Wait()
	q.closeOnce.Do(func() {
		if err := q.backend.Close(); err != nil {
			q.logger.Sugar().Warnw("queue backend close failed", "queue", q.name, "error", err)
		}
		q.logger.Sugar().Infow("queue stopped", "queue", q.name, "completed", q.completed.Load(), "failed", q.failed.Load())
	})
}

// Enqueue hands a job to the backend. Any failure is reported as ErrUnavailable.
// The read lock is held across the push so a job accepted here is always seen
// by the consumer's drain.
func (q *Queue) Enqueue(ctx context.Context, job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if !q.started || q.stopped {
		q.rejected.Add(1)
		return fmt.Errorf("%w: %s not running", ErrUnavailable, q.name)
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}

	if q.enqueueTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.enqueueTimeout)
		defer cancel()
	}

	if err := q.backend.Push(ctx, job); err != nil {
		q.rejected.Add(1)
		if errors.Is(err, ErrUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, q.name, err)
	}
	q.enqueued.Add(1)
	return nil
}

// Pending reports how many jobs wait in the backend.
func (q *Queue) Pending(ctx context.Context) (int, error) {
	return q.backend.Len(ctx)
}

// Stats returns a snapshot of the counters.
func (q *Queue) Stats() Stats {
	return Stats{
		Enqueued:  q.enqueued.Load(),
		Rejected:  q.rejected.Load(),
		Completed: q.completed.Load(),
		Failed:    q.failed.Load(),
	}
}

func (q *Queue) consume(ctx context.Context) {
	defer q.wg.Done()
	defer q.halt(ctx)
	for {
		job, err := q.backend.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, ErrClosed) {
				return
			}
			q.logger.Sugar().Warnw("dequeue failed", "queue", q.name, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		q.process(job)
	}
}

// halt marks the queue stopped, then processes whatever the backend returns
// for an already cancelled context. No Enqueue can be in flight once the write
// lock is taken.
func (q *Queue) halt(ctx context.Context) {
	q.mu.Lock()
	q.stopped = true
	q.mu.Unlock()

	drainCtx := ctx
	if drainCtx.Err() == nil {
		var cancel context.CancelFunc
		drainCtx, cancel = context.WithCancel(ctx)
		cancel()
	}
	drained := 0
	for {
		job, err := q.backend.Pop(drainCtx)
		if err != nil {
			break
		}
		q.process(job)
		drained++
	}
	if drained > 0 {
		q.logger.Sugar().Infow("queue drained", "queue", q.name, "jobs", drained)
	}
}

func (q *Queue) process(job Job) {
	if err := q.run(job); err != nil {
		q.failed.Add(1)
		q.logger.Sugar().Errorw("job failed", "queue", q.name, "job_id", job.ID, "name", job.Name, "error", err)
		if q.onFailure != nil {
			q.onFailure(job, err)
		}
		return
	}
	q.completed.Add(1)
	q.logger.Sugar().Debugw("job completed", "queue", q.name, "job_id", job.ID, "name", job.Name)
	if q.onComplete != nil {
		q.onComplete(job)
	}
}

func (q *Queue) run(job Job) (err error) {
	if job.malformed != nil {
		return job.malformed
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", job.ID, r)
		}
	}()
	return q.handler(q.ctx, job)
}
