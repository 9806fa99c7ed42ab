package repository

import (
	"context"

	notifmodels "jetfeed-backend/internal/features/notification/models"
	"jetfeed-backend/internal/features/social/models"
)

type FollowRepository interface {
	Exists(ctx context.Context, followerID, followingID string) (bool, error)

	// Create writes the edge, both counter increments and the follow
	// notification in one atomic batch.
	Create(ctx context.Context, edge *models.FollowEdge, notification *notifmodels.Notification) error

	// Delete removes the edge and applies both counter decrements in one
	// atomic batch.
	Delete(ctx context.Context, followerID, followingID string) error

	// Followers/Following return user ids newest-edge-first.
	Followers(ctx context.Context, userID string, limit int64) ([]string, error)
	Following(ctx context.Context, userID string, limit int64) ([]string, error)
}
