package service

import (
	"context"
	"errors"
	"time"

	"jetfeed-backend/internal/common/apperrors"
	"jetfeed-backend/internal/features/engagement/repository"
	notifmodels "jetfeed-backend/internal/features/notification/models"
	postmodels "jetfeed-backend/internal/features/post/models"
	postrepo "jetfeed-backend/internal/features/post/repository"

	"github.com/google/uuid"
)

const defaultPageSize = 20

type EngagementService interface {
	// Like/Unlike are idempotent: repeating the same direction is a no-op,
	// so the likeCount delta is applied at most once per flip.
	Like(ctx context.Context, userID, postID string) error
	Unlike(ctx context.Context, userID, postID string) error

	Bookmark(ctx context.Context, userID, postID string) error
	Unbookmark(ctx context.Context, userID, postID string) error

	LikedPosts(ctx context.Context, userID string, limit int64) ([]*postmodels.Post, error)
	BookmarkedPosts(ctx context.Context, userID string, limit int64) ([]*postmodels.Post, error)
}

type engagementService struct {
	repo  repository.EngagementRepository
	posts postrepo.PostRepository
}

func NewEngagementService(repo repository.EngagementRepository, posts postrepo.PostRepository) EngagementService {
	return &engagementService{repo: repo, posts: posts}
}

func (s *engagementService) Like(ctx context.Context, userID, postID string) error {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, postrepo.ErrPostNotFound) {
			return apperrors.NewNotFoundError("Post")
		}
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to load post")
	}

	liked, err := s.repo.IsLiked(ctx, userID, postID)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to check like state")
	}
	if liked {
		return nil
	}

	now := time.Now().UnixMilli()
	notification := &notifmodels.Notification{
		ID:          uuid.New().String(),
		Type:        notifmodels.TypeLike,
		SenderID:    userID,
		RecipientID: post.AuthorID,
		PostID:      postID,
		CreatedAt:   now,
	}
	if err := s.repo.Like(ctx, userID, postID, now, notification); err != nil {
		return apperrors.NewTransientStoreError(err)
	}
	return nil
}

func (s *engagementService) Unlike(ctx context.Context, userID, postID string) error {
	liked, err := s.repo.IsLiked(ctx, userID, postID)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to check like state")
	}
	if !liked {
		return nil
	}
	if err := s.repo.Unlike(ctx, userID, postID); err != nil {
		return apperrors.NewTransientStoreError(err)
	}
	return nil
}

func (s *engagementService) Bookmark(ctx context.Context, userID, postID string) error {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		if errors.Is(err, postrepo.ErrPostNotFound) {
			return apperrors.NewNotFoundError("Post")
		}
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to load post")
	}
	if err := s.repo.Bookmark(ctx, userID, postID, time.Now().UnixMilli()); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to bookmark post")
	}
	return nil
}

func (s *engagementService) Unbookmark(ctx context.Context, userID, postID string) error {
	if err := s.repo.Unbookmark(ctx, userID, postID); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to remove bookmark")
	}
	return nil
}

func (s *engagementService) LikedPosts(ctx context.Context, userID string, limit int64) ([]*postmodels.Post, error) {
	ids, err := s.repo.LikedPostIDs(ctx, userID, pageSize(limit))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to load liked posts")
	}
	return s.hydrate(ctx, ids)
}

func (s *engagementService) BookmarkedPosts(ctx context.Context, userID string, limit int64) ([]*postmodels.Post, error) {
	ids, err := s.repo.BookmarkedPostIDs(ctx, userID, pageSize(limit))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to load bookmarks")
	}
	return s.hydrate(ctx, ids)
}

// hydrate resolves membership rows to posts; posts that no longer exist are
// dropped from the result.
func (s *engagementService) hydrate(ctx context.Context, ids []string) ([]*postmodels.Post, error) {
	posts := make([]*postmodels.Post, 0, len(ids))
	for _, id := range ids {
		post, err := s.posts.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, postrepo.ErrPostNotFound) {
				continue
			}
			return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to load post")
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func pageSize(limit int64) int64 {
	if limit <= 0 || limit > 100 {
		return defaultPageSize
	}
	return limit
}
