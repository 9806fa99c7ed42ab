package service

import (
	"context"
	"errors"
	"time"

	"jetfeed-backend/internal/common/apperrors"
	notifmodels "jetfeed-backend/internal/features/notification/models"
	"jetfeed-backend/internal/features/social/models"
	"jetfeed-backend/internal/features/social/repository"
	usermodels "jetfeed-backend/internal/features/user/models"
	userrepo "jetfeed-backend/internal/features/user/repository"

	"github.com/google/uuid"
)

type SocialService interface {
	// ToggleFollow flips the follow edge between follower and target. Edge,
	// counters and the follow notification always commit as one batch.
	ToggleFollow(ctx context.Context, followerID, targetID string) (*models.ToggleResult, error)

	IsFollowing(ctx context.Context, followerID, targetID string) (bool, error)
	ListFollowers(ctx context.Context, userID string, limit int64) ([]*usermodels.UserResponse, error)
	ListFollowing(ctx context.Context, userID string, limit int64) ([]*usermodels.UserResponse, error)
}

type socialService struct {
	follows repository.FollowRepository
	users   userrepo.UserRepository
}

func NewSocialService(follows repository.FollowRepository, users userrepo.UserRepository) SocialService {
	return &socialService{follows: follows, users: users}
}

func (s *socialService) ToggleFollow(ctx context.Context, followerID, targetID string) (*models.ToggleResult, error) {
	if followerID == targetID {
		return nil, apperrors.NewConflictError("You cannot follow yourself.")
	}
	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			return nil, apperrors.NewNotFoundError("User")
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to load user")
	}

	exists, err := s.follows.Exists(ctx, followerID, targetID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to check follow state")
	}

	if exists {
		if err := s.follows.Delete(ctx, followerID, targetID); err != nil {
			return nil, apperrors.NewTransientStoreError(err)
		}
		return &models.ToggleResult{Following: false}, nil
	}

	now := time.Now().UnixMilli()
	edge := &models.FollowEdge{
		FollowerID:  followerID,
		FollowingID: targetID,
		CreatedAt:   now,
	}
	notification := &notifmodels.Notification{
		ID:          uuid.New().String(),
		Type:        notifmodels.TypeFollow,
		SenderID:    followerID,
		RecipientID: targetID,
		CreatedAt:   now,
	}
	if err := s.follows.Create(ctx, edge, notification); err != nil {
		return nil, apperrors.NewTransientStoreError(err)
	}
	return &models.ToggleResult{Following: true}, nil
}

func (s *socialService) IsFollowing(ctx context.Context, followerID, targetID string) (bool, error) {
	following, err := s.follows.Exists(ctx, followerID, targetID)
	if err != nil {
		return false, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to check follow state")
	}
	return following, nil
}

func (s *socialService) ListFollowers(ctx context.Context, userID string, limit int64) ([]*usermodels.UserResponse, error) {
	ids, err := s.follows.Followers(ctx, userID, normalizeLimit(limit))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to load followers")
	}
	return s.hydrate(ctx, ids), nil
}

func (s *socialService) ListFollowing(ctx context.Context, userID string, limit int64) ([]*usermodels.UserResponse, error) {
	ids, err := s.follows.Following(ctx, userID, normalizeLimit(limit))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to load following")
	}
	return s.hydrate(ctx, ids), nil
}

// hydrate resolves edge endpoints to profiles; users that no longer resolve
// are silently skipped.
func (s *socialService) hydrate(ctx context.Context, ids []string) []*usermodels.UserResponse {
	out := make([]*usermodels.UserResponse, 0, len(ids))
	for _, id := range ids {
		user, err := s.users.GetByID(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, user.ToResponse())
	}
	return out
}

func normalizeLimit(limit int64) int64 {
	if limit <= 0 || limit > 100 {
		return 20
	}
	return limit
}
