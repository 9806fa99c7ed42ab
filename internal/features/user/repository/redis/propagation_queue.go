package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPropagationPending = "propagation:pending"
	keyPropagationCursor  = "propagation:cursor:"
)

// PropagationQueue is the redis-backed job queue for author-snapshot
// propagation. The pending list is deduplicated with LREM-before-push so a
// user enqueued twice during one pass is processed once.
type PropagationQueue struct {
	client *redis.Client
}

func NewPropagationQueue(client *redis.Client) *PropagationQueue {
	return &PropagationQueue{client: client}
}

func (q *PropagationQueue) Enqueue(ctx context.Context, userID string) error {
	pipe := q.client.TxPipeline()
	pipe.LRem(ctx, keyPropagationPending, 0, userID)
	pipe.RPush(ctx, keyPropagationPending, userID)
	_, err := pipe.Exec(ctx)
	return err
}

func (q *PropagationQueue) Dequeue(ctx context.Context, timeout time.Duration) (string, error) {
	res, err := q.client.BLPop(ctx, timeout, keyPropagationPending).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if len(res) < 2 {
		return "", nil
	}
	return res[1], nil
}

func (q *PropagationQueue) Cursor(ctx context.Context, userID string) (int64, error) {
	val, err := q.client.Get(ctx, keyPropagationCursor+userID).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(val, 10, 64)
}

func (q *PropagationQueue) SetCursor(ctx context.Context, userID string, cursor int64) error {
	return q.client.Set(ctx, keyPropagationCursor+userID, cursor, 0).Err()
}

func (q *PropagationQueue) ClearCursor(ctx context.Context, userID string) error {
	return q.client.Del(ctx, keyPropagationCursor+userID).Err()
}
