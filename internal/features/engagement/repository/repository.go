package repository

import (
	"context"

	notifmodels "jetfeed-backend/internal/features/notification/models"
)

// EngagementRepository owns the per-user like and bookmark membership rows.
// Membership is the source of truth; the post's likeCount is advisory and
// updated in the same batch as the membership flip.
type EngagementRepository interface {
	Like(ctx context.Context, userID, postID string, createdAt int64, notification *notifmodels.Notification) error
	Unlike(ctx context.Context, userID, postID string) error
	IsLiked(ctx context.Context, userID, postID string) (bool, error)

	Bookmark(ctx context.Context, userID, postID string, createdAt int64) error
	Unbookmark(ctx context.Context, userID, postID string) error
	IsBookmarked(ctx context.Context, userID, postID string) (bool, error)

	// Newest-first membership listings.
	LikedPostIDs(ctx context.Context, userID string, limit int64) ([]string, error)
	BookmarkedPostIDs(ctx context.Context, userID string, limit int64) ([]string, error)
}
