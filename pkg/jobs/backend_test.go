package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBackendFIFO(t *testing.T) {
	b := NewMemoryBackend(0)
	ctx := context.Background()
	for _, id := range []string{"1", "2", "3"} {
		require.NoError(t, b.Push(ctx, Job{ID: id}))
	}
	for _, id := range []string{"1", "2", "3"} {
		job, err := b.Pop(ctx)
		require.NoError(t, err)
		assert.Equal(t, id, job.ID)
	}
}

func TestMemoryBackendPopHonoursContext(t *testing.T) {
	b := NewMemoryBackend(0)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := b.Pop(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMemoryBackendCloseWakesConsumer(t *testing.T) {
	b := NewMemoryBackend(0)
	errCh := make(chan error, 1)
	go func() {
		_, err := b.Pop(context.Background())
		errCh <- err
	}()
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, b.Close())

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("pop did not return after close")
	}
	assert.ErrorIs(t, b.Push(context.Background(), Job{ID: "x"}), ErrClosed)
}

func newRedisBackend(t *testing.T) (*RedisBackend, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisBackend(client, "file-upload", time.Second), mr
}

func TestRedisBackendRoundTrip(t *testing.T) {
	b, mr := newRedisBackend(t)
	ctx := context.Background()

	require.NoError(t, b.Push(ctx, Job{ID: "1", Name: "upload", Payload: []byte(`{"fileId":"f1"}`)}))
	require.NoError(t, b.Push(ctx, Job{ID: "2", Name: "upload", Payload: []byte(`{"fileId":"f2"}`)}))

	assert.True(t, mr.Exists("queue:file-upload"))
	n, err := b.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	first, err := b.Pop(ctx)
	require.NoError(t, err)
	second, err := b.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1", first.ID)
	assert.Equal(t, "2", second.ID)
	assert.JSONEq(t, `{"fileId":"f1"}`, string(first.Payload))
}

func TestRedisBackendPushFailsWhenBrokerDown(t *testing.T) {
	b, mr := newRedisBackend(t)
	mr.Close()

	err := b.Push(context.Background(), Job{ID: "1"})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestQueueOverRedisBackend(t *testing.T) {
	b, _ := newRedisBackend(t)
	out := newOutcomes(2)
	q := NewQueue("file-upload", func(context.Context, Job) error { return nil },
		QueueConfig{Backend: b, OnComplete: out.complete, OnFailure: out.fail})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(context.Background(), Job{ID: "a"}))
	require.NoError(t, q.Enqueue(context.Background(), Job{ID: "b"}))
	out.wait(t)

	assert.Equal(t, []string{"a", "b"}, out.completed)
}

func TestRedisUndecodableEntryIsReportedAsFailure(t *testing.T) {
	b, mr := newRedisBackend(t)
	_, err := mr.Lpush("queue:file-upload", "not json")
	require.NoError(t, err)

	failed := make(chan error, 1)
	var handled int32
	q := NewQueue("file-upload", func(context.Context, Job) error {
		atomic.AddInt32(&handled, 1)
		return nil
	}, QueueConfig{
		Backend:   b,
		OnFailure: func(_ Job, err error) { failed <- err },
	})
	q.Start(context.Background())
	defer q.Stop()

	select {
	case err := <-failed:
		assert.Contains(t, err.Error(), "decode job")
	case <-time.After(3 * time.Second):
		t.Fatal("undecodable entry was not reported")
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(&handled))
	assert.False(t, mr.Exists("queue:file-upload"))
	assert.Equal(t, uint64(1), q.Stats().Failed)
}
