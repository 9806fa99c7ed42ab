package repository

import (
	"context"
	"errors"

	notifmodels "jetfeed-backend/internal/features/notification/models"
	"jetfeed-backend/internal/features/post/models"
	usermodels "jetfeed-backend/internal/features/user/models"
)

var (
	ErrPostNotFound   = errors.New("post not found")
	ErrRepostNotFound = errors.New("repost not found")
)

type PostRepository interface {
	// Create commits the post, the author's postsCount increment, every
	// feed index entry, the trend bumps and, for replies, the parent's
	// commentCount increment plus the comment notification, all in one
	// atomic batch.
	Create(ctx context.Context, post *models.Post, notification *notifmodels.Notification) error

	GetByID(ctx context.Context, id string) (*models.Post, error)

	// Delete removes the post, its index entries and the counter
	// decrements in one atomic batch. Media cleanup is the caller's.
	Delete(ctx context.Context, post *models.Post) error

	// CreateRepost / DeleteRepost flip a repost row together with the
	// original's repostCount and the reposter's postsCount.
	CreateRepost(ctx context.Context, repost *models.Post, notification *notifmodels.Notification) error
	DeleteRepost(ctx context.Context, repost *models.Post) error
	// FindRepost returns the id of the caller's repost of originalPostID.
	FindRepost(ctx context.Context, userID, originalPostID string) (string, error)

	Feed(ctx context.Context, limit int64) ([]*models.Post, error)
	ByAuthor(ctx context.Context, authorID string, limit int64) ([]*models.Post, error)
	RepliesByAuthor(ctx context.Context, authorID string, limit int64) ([]*models.Post, error)
	MediaByAuthor(ctx context.Context, authorID string, limit int64) ([]*models.Post, error)
	// RepliesTo returns a post's replies oldest-first.
	RepliesTo(ctx context.Context, postID string, limit int64) ([]*models.Post, error)

	TopHashtags(ctx context.Context, limit int64) ([]models.Trend, error)

	// UpdateAuthorSnapshot rewrites denormalized author fields on one batch
	// of the author's posts; see the user service propagation job.
	UpdateAuthorSnapshot(ctx context.Context, authorID string, snap usermodels.AuthorSnapshot, cursor int64, batch int64) (int64, bool, error)
}
