package service

import (
	"context"
	"errors"

	"jetfeed-backend/internal/common/apperrors"
	"jetfeed-backend/internal/common/logger"
	"jetfeed-backend/internal/features/notification/models"
	"jetfeed-backend/internal/features/notification/repository"
	userrepo "jetfeed-backend/internal/features/user/repository"
)

type NotificationService interface {
	// List returns the recipient's newest notifications with sender
	// snapshots hydrated, then marks the returned unread rows read in a
	// follow-up batch. A row can therefore be seen unread exactly once.
	List(ctx context.Context, recipientID string, limit int64) ([]*models.NotificationResponse, error)

	MarkRead(ctx context.Context, recipientID, notificationID string) error
}

type notificationService struct {
	repo  repository.NotificationRepository
	users userrepo.UserRepository
}

func NewNotificationService(repo repository.NotificationRepository, users userrepo.UserRepository) NotificationService {
	return &notificationService{repo: repo, users: users}
}

func (s *notificationService) List(ctx context.Context, recipientID string, limit int64) ([]*models.NotificationResponse, error) {
	notifications, err := s.repo.ListByRecipient(ctx, recipientID, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to load notifications")
	}

	out := make([]*models.NotificationResponse, 0, len(notifications))
	var unread []string
	for _, n := range notifications {
		resp := &models.NotificationResponse{Notification: n}
		if sender, err := s.users.GetByID(ctx, n.SenderID); err == nil {
			resp.Sender = &models.Sender{
				ID:               sender.ID,
				Username:         sender.Username,
				DisplayName:      sender.DisplayName,
				PhotoURL:         sender.PhotoURL,
				IsVerified:       sender.IsVerified,
				VerificationType: sender.VerificationType,
			}
		}
		if !n.Read {
			unread = append(unread, n.ID)
		}
		out = append(out, resp)
	}

	// Not atomic with the read on purpose: the caller sees the unread state
	// once, then the rows settle to read.
	if len(unread) > 0 {
		if err := s.repo.MarkRead(ctx, unread); err != nil {
			logger.Warn().Err(err).Str("recipient_id", recipientID).Msg("Failed to mark notifications read")
		}
	}
	return out, nil
}

func (s *notificationService) MarkRead(ctx context.Context, recipientID, notificationID string) error {
	n, err := s.repo.GetByID(ctx, notificationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotificationNotFound) {
			return apperrors.NewNotFoundError("Notification")
		}
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to load notification")
	}
	if n.RecipientID != recipientID {
		return apperrors.NewForbiddenError("You cannot modify this notification.")
	}
	if err := s.repo.MarkRead(ctx, []string{notificationID}); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to mark notification read")
	}
	return nil
}
