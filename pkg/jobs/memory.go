package jobs

import (
	"context"
	"sync"
)

// MemoryBackend is an in-process FIFO. Push never blocks; when maxPending is
// positive a full backend rejects new jobs with ErrUnavailable.
type MemoryBackend struct {
	mu         sync.Mutex
	items      []Job
	maxPending int
	closed     bool
	wake       chan struct{}
}

// NewMemoryBackend builds an in-memory backend. maxPending <= 0 means unbounded.
func NewMemoryBackend(maxPending int) *MemoryBackend {
	return &MemoryBackend{
		maxPending: maxPending,
		wake:       make(chan struct{}, 1),
	}
}

func (b *MemoryBackend) Push(_ context.Context, job Job) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	if b.maxPending > 0 && len(b.items) >= b.maxPending {
		b.mu.Unlock()
		return ErrUnavailable
	}
	b.items = append(b.items, job)
	b.mu.Unlock()

	b.signal()
	return nil
}

// Pop blocks until a job is available, the backend is closed or ctx ends.
func (b *MemoryBackend) Pop(ctx context.Context) (Job, error) {
	for {
		b.mu.Lock()
		if len(b.items) > 0 {
			job := b.items[0]
			b.items[0] = Job{}
			b.items = b.items[1:]
			b.mu.Unlock()
			return job, nil
		}
		if b.closed {
			b.mu.Unlock()
			return Job{}, ErrClosed
		}
		b.mu.Unlock()

		select {
		case <-ctx.Done():
			return Job{}, ctx.Err()
		case <-b.wake:
		}
	}
}

func (b *MemoryBackend) Len(context.Context) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items), nil
}

// Close wakes a blocked Pop. Jobs still pending are discarded.
func (b *MemoryBackend) Close() error {
	b.mu.Lock()
	b.closed = true
	b.items = nil
	b.mu.Unlock()
	b.signal()
	return nil
}

func (b *MemoryBackend) signal() {
	select {
	case b.wake <- struct{}{}:
	default:
	}
}
