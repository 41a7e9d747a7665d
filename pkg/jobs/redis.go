package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores jobs in a Redis list: producers LPUSH, the consumer BRPOPs.
type RedisBackend struct {
	client      redis.Cmdable
	key         string
	pollTimeout time.Duration
}

// NewRedisBackend builds a backend on the list "queue:<name>". BRPOP waits at
// most pollTimeout before the consumer re-checks its context.
func NewRedisBackend(client redis.Cmdable, name string, pollTimeout time.Duration) *RedisBackend {
	if pollTimeout < time.Second {
		pollTimeout = time.Second
	}
	return &RedisBackend{client: client, key: "queue:" + name, pollTimeout: pollTimeout}
}

// Key exposes the Redis list name.
func (b *RedisBackend) Key() string { return b.key }

func (b *RedisBackend) Push(ctx context.Context, job Job) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job %s: %w", job.ID, err)
	}
	if err := b.client.LPush(ctx, b.key, raw).Err(); err != nil {
		return fmt.Errorf("%w: lpush %s: %v", ErrUnavailable, b.key, err)
	}
	return nil
}

func (b *RedisBackend) Pop(ctx context.Context) (Job, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Job{}, err
		}
		res, err := b.client.BRPop(ctx, b.pollTimeout, b.key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return Job{}, ctx.Err()
			}
			return Job{}, fmt.Errorf("brpop %s: %w", b.key, err)
		}
		// BRPOP replies with [key, value].
		if len(res) != 2 {
			return Job{}, fmt.Errorf("brpop %s: unexpected reply of %d items", b.key, len(res))
		}
		var job Job
		if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
			// BRPOP already removed the entry; hand it to the consumer as a failed job.
			return Job{
				Payload:   json.RawMessage(res[1]),
				malformed: fmt.Errorf("decode job from %s: %w", b.key, err),
			}, nil
		}
		return job, nil
	}
}

func (b *RedisBackend) Len(ctx context.Context) (int, error) {
	n, err := b.client.LLen(ctx, b.key).Result()
	if err != nil {
		return 0, fmt.Errorf("llen %s: %w", b.key, err)
	}
	return int(n), nil
}

// Close is a no-op; the Redis client is owned by the caller.
func (b *RedisBackend) Close() error { return nil }
