package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// replyTTL bounds how long an uncollected reply may sit in Redis.
const replyTTL = time.Hour

var _ Queue = (*RedisQueue)(nil)

// RedisQueue implements Queue over a Redis list. Producers LPUSH onto the
// list; the consumer BRPOPs from the other end, which gives at-least-once
// delivery for the simple single-consumer case this service runs.
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue wraps an existing client. The client is shared, not owned;
// closing it is the caller's concern.
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	return &RedisQueue{client: client, key: key}
}

// Enqueue pushes one message; used by producers and by tests.
func (q *RedisQueue) Enqueue(ctx context.Context, payload []byte) error {
	return q.client.LPush(ctx, q.key, payload).Err()
}

// Dequeue blocks on BRPOP, polling in short intervals so ctx cancellation is
// honored between server round trips.
func (q *RedisQueue) Dequeue(ctx context.Context) ([]byte, error) {
	for {
		res, err := q.client.BRPop(ctx, 2*time.Second, q.key).Result()
		if err == nil {
			// BRPOP replies [key, value].
			if len(res) != 2 {
				return nil, errors.New("unexpected brpop reply shape")
			}
			return []byte(res[1]), nil
		}
		if errors.Is(err, redis.Nil) {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		return nil, err
	}
}

// Requeue puts a failed message back at the consume end so it retries next.
func (q *RedisQueue) Requeue(ctx context.Context, payload []byte) error {
	return q.client.RPush(ctx, q.key, payload).Err()
}

// Reply pushes onto the named reply list and arms a TTL so abandoned replies
// do not accumulate.
func (q *RedisQueue) Reply(ctx context.Context, replyTo string, payload []byte) error {
	pipe := q.client.TxPipeline()
	pipe.LPush(ctx, replyTo, payload)
	pipe.Expire(ctx, replyTo, replyTTL)
	_, err := pipe.Exec(ctx)
	return err
}
