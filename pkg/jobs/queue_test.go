package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type outcomes struct {
	mu        sync.Mutex
	completed []string
	failed    map[string]error
	done      chan struct{}
	want      int
}

func newOutcomes(want int) *outcomes {
	return &outcomes{failed: map[string]error{}, done: make(chan struct{}), want: want}
}

func (o *outcomes) record() {
	if len(o.completed)+len(o.failed) == o.want {
		close(o.done)
	}
}

func (o *outcomes) complete(job Job) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.completed = append(o.completed, job.ID)
	o.record()
}

func (o *outcomes) fail(job Job, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, seen := o.failed[job.ID]; seen {
		panic("failure signalled twice for " + job.ID)
	}
	o.failed[job.ID] = err
	o.record()
}

func (o *outcomes) wait(t *testing.T) {
	t.Helper()
	select {
	case <-o.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for job outcomes")
	}
}

func TestQueueDeliversInOrderToSingleConsumer(t *testing.T) {
	out := newOutcomes(20)
	var active, maxActive int32
	handler := func(ctx context.Context, job Job) error {
		n := atomic.AddInt32(&active, 1)
		for {
			m := atomic.LoadInt32(&maxActive)
			if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		atomic.AddInt32(&active, -1)
		return nil
	}
	q := NewQueue("test", handler, QueueConfig{OnComplete: out.complete, OnFailure: out.fail})
	q.Start(context.Background())
	defer q.Stop()

	var ids []string
	for i := 0; i < 20; i++ {
		job, err := NewJob("upload", map[string]int{"n": i})
		require.NoError(t, err)
		ids = append(ids, job.ID)
		require.NoError(t, q.Enqueue(context.Background(), job))
	}

	out.wait(t)
	assert.Equal(t, ids, out.completed)
	assert.Equal(t, int32(1), atomic.LoadInt32(&maxActive))
	assert.Equal(t, uint64(20), q.Stats().Completed)
}

func TestQueueFailureSignalledOnceWithoutRetry(t *testing.T) {
	out := newOutcomes(1)
	var calls int32
	boom := errors.New("boom")
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&calls, 1)
		return boom
	}, QueueConfig{OnComplete: out.complete, OnFailure: out.fail})
	q.Start(context.Background())

	require.NoError(t, q.Enqueue(context.Background(), Job{ID: "job-1", Name: "upload"}))
	out.wait(t)
	// Give a hypothetical retry a chance to show up.
	time.Sleep(50 * time.Millisecond)
	q.Stop()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Empty(t, out.completed)
	assert.ErrorIs(t, out.failed["job-1"], boom)
	assert.Equal(t, Stats{Enqueued: 1, Failed: 1}, q.Stats())
}

func TestQueuePanicBecomesFailure(t *testing.T) {
	out := newOutcomes(2)
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		if job.ID == "bad" {
			panic("nil map")
		}
		return nil
	}, QueueConfig{OnComplete: out.complete, OnFailure: out.fail})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(context.Background(), Job{ID: "bad"}))
	require.NoError(t, q.Enqueue(context.Background(), Job{ID: "good"}))
	out.wait(t)

	assert.Equal(t, []string{"good"}, out.completed)
	assert.Contains(t, out.failed["bad"].Error(), "panicked")
}

func TestQueueEnqueueUnavailable(t *testing.T) {
	q := NewQueue("test", func(context.Context, Job) error { return nil }, QueueConfig{})

	err := q.Enqueue(context.Background(), Job{ID: "early"})
	assert.ErrorIs(t, err, ErrUnavailable)

	q.Start(context.Background())
	q.Stop()

	err = q.Enqueue(context.Background(), Job{ID: "late"})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, uint64(2), q.Stats().Rejected)
}

func waitStopped(t *testing.T, q *Queue) {
	t.Helper()
	require.Eventually(t, func() bool {
		q.mu.RLock()
		defer q.mu.RUnlock()
		return q.stopped
	}, time.Second, 5*time.Millisecond)
}

func TestQueueRejectsEnqueueAfterStartContextEnds(t *testing.T) {
	var calls int32
	ctx, cancel := context.WithCancel(context.Background())
	q := NewQueue("test", func(context.Context, Job) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}, QueueConfig{})
	q.Start(ctx)
	defer q.Stop()

	cancel()
	waitStopped(t, q)
	assert.ErrorIs(t, q.Enqueue(context.Background(), Job{ID: "late"}), ErrUnavailable)

	pending, err := q.Pending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, pending)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
	assert.Zero(t, q.Stats().Enqueued)
}

func TestQueueStopDrainsAcceptedJobs(t *testing.T) {
	out := newOutcomes(3)
	release := make(chan struct{})
	q := NewQueue("test", func(_ context.Context, job Job) error {
		if job.ID == "a" {
			<-release
		}
		return nil
	}, QueueConfig{OnComplete: out.complete, OnFailure: out.fail})
	q.Start(context.Background())

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, q.Enqueue(context.Background(), Job{ID: id}))
	}

	stopped := make(chan struct{})
	go func() {
		q.Stop()
		close(stopped)
	}()
	waitStopped(t, q)
	assert.ErrorIs(t, q.Enqueue(context.Background(), Job{ID: "d"}), ErrUnavailable)
	close(release)

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("stop did not return")
	}
	out.wait(t)
	assert.Equal(t, []string{"a", "b", "c"}, out.completed)
	assert.Equal(t, uint64(3), q.Stats().Completed)
}

func TestQueueStopClosesBackend(t *testing.T) {
	backend := NewMemoryBackend(0)
	q := NewQueue("test", func(context.Context, Job) error { return nil }, QueueConfig{Backend: backend})
	q.Start(context.Background())
	q.Stop()
	q.Stop()

	assert.ErrorIs(t, backend.Push(context.Background(), Job{ID: "x"}), ErrClosed)
}

func TestQueueEnqueueRejectedWhenFull(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	q := NewQueue("test", func(context.Context, Job) error {
		started <- struct{}{}
		<-release
		return nil
	}, QueueConfig{Backend: NewMemoryBackend(1)})
	q.Start(context.Background())
	defer func() {
		close(release)
		q.Stop()
	}()

	require.NoError(t, q.Enqueue(context.Background(), Job{ID: "a"}))
	<-started
	require.NoError(t, q.Enqueue(context.Background(), Job{ID: "b"}))
	err := q.Enqueue(context.Background(), Job{ID: "c"})
	assert.ErrorIs(t, err, ErrUnavailable)

	pending, err := q.Pending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, pending)
}

func TestJobDecode(t *testing.T) {
	job, err := NewJob("upload", map[string]string{"fileId": "f1"})
	require.NoError(t, err)
	require.NotEmpty(t, job.ID)

	var payload struct {
		FileID string `json:"fileId"`
	}
	require.NoError(t, job.Decode(&payload))
	assert.Equal(t, "f1", payload.FileID)

	assert.Error(t, Job{ID: "empty"}.Decode(&payload))
}
