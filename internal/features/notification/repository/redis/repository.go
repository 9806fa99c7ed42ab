package redis

import (
	"context"

	"jetfeed-backend/internal/features/notification/models"
	"jetfeed-backend/internal/features/notification/repository"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefixNotification = "notification:"
	suffixNotifications   = ":notifications"
)

func notificationKey(id string) string {
	return keyPrefixNotification + id
}

func recipientIndexKey(recipientID string) string {
	return "user:" + recipientID + suffixNotifications
}

// Add queues a notification write onto an open pipeline so the record
// commits in the same atomic batch as the triggering action. Self-actions
// never produce a row.
func Add(ctx context.Context, pipe redis.Pipeliner, n *models.Notification) {
	if n.SenderID == n.RecipientID {
		return
	}
	pipe.HSet(ctx, notificationKey(n.ID), n)
	pipe.ZAdd(ctx, recipientIndexKey(n.RecipientID), redis.Z{
		Score:  float64(n.CreatedAt),
		Member: n.ID,
	})
}

type notificationRepository struct {
	client *redis.Client
}

func NewNotificationRepository(client *redis.Client) repository.NotificationRepository {
	return &notificationRepository{client: client}
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID string, limit int64) ([]*models.Notification, error) {
	if limit <= 0 {
		limit = 20
	}
	ids, err := r.client.ZRevRange(ctx, recipientIndexKey(recipientID), 0, limit-1).Result()
	if err != nil {
		return nil, err
	}

	out := make([]*models.Notification, 0, len(ids))
	for _, id := range ids {
		n, err := r.GetByID(ctx, id)
		if err != nil {
			if err == repository.ErrNotificationNotFound {
				continue
			}
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func (r *notificationRepository) GetByID(ctx context.Context, id string) (*models.Notification, error) {
	cmd := r.client.HGetAll(ctx, notificationKey(id))
	if err := cmd.Err(); err != nil {
		return nil, err
	}
	if len(cmd.Val()) == 0 {
		return nil, repository.ErrNotificationNotFound
	}

	var n models.Notification
	if err := cmd.Scan(&n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range ids {
			pipe.HSet(ctx, notificationKey(id), "read", true)
		}
		return nil
	})
	return err
}
