package repository

import (
	"context"
	"errors"

	"jetfeed-backend/internal/features/notification/models"
)

var ErrNotificationNotFound = errors.New("notification not found")

type NotificationRepository interface {
	// ListByRecipient returns the newest notifications first.
	ListByRecipient(ctx context.Context, recipientID string, limit int64) ([]*models.Notification, error)

	GetByID(ctx context.Context, id string) (*models.Notification, error)

	// MarkRead flips read=true on the given notifications in one batch.
	MarkRead(ctx context.Context, ids []string) error
}
