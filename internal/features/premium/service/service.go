package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"jetfeed-backend/internal/common/apperrors"
	"jetfeed-backend/internal/common/logger"
	"jetfeed-backend/internal/features/premium/models"
	"jetfeed-backend/internal/features/premium/repository"
	userrepo "jetfeed-backend/internal/features/user/repository"
)

// ChargeInitiator pushes an STK charge to the subscriber's phone and
// returns the gateway order reference.
type ChargeInitiator interface {
	InitiateCharge(ctx context.Context, phone string, amount int64) (string, error)
}

type PremiumService interface {
	InitiateSubscription(ctx context.Context, userID, phone string) (*models.InitiateResponse, error)

	// VerifySignature checks the webhook HMAC over the raw request body.
	VerifySignature(body []byte, signature string) bool

	HandleWebhook(ctx context.Context, payload *models.WebhookPayload) error
}

type premiumService struct {
	repo          repository.PremiumRepository
	users         userrepo.UserRepository
	gateway       ChargeInitiator
	webhookSecret string
}

func NewPremiumService(repo repository.PremiumRepository, users userrepo.UserRepository, gateway ChargeInitiator, webhookSecret string) PremiumService {
	return &premiumService{
		repo:          repo,
		users:         users,
		gateway:       gateway,
		webhookSecret: webhookSecret,
	}
}

func (s *premiumService) InitiateSubscription(ctx context.Context, userID, phone string) (*models.InitiateResponse, error) {
	if phone == "" {
		return nil, apperrors.NewValidationError("Phone number is required.")
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			return nil, apperrors.NewNotFoundError("User")
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to load user")
	}

	orderReference, err := s.gateway.InitiateCharge(ctx, phone, models.SubscriptionAmount)
	if err != nil {
		return nil, apperrors.NewExternalError("Payment gateway", err)
	}

	intent := &models.PaymentIntent{
		OrderReference: orderReference,
		UserID:         userID,
		Status:         models.IntentStatusPending,
		Amount:         models.SubscriptionAmount,
		Phone:          phone,
		CreatedAt:      time.Now().UnixMilli(),
	}
	if err := s.repo.CreateIntent(ctx, intent); err != nil {
		return nil, apperrors.NewTransientStoreError(err)
	}

	return &models.InitiateResponse{
		OrderReference: orderReference,
		Status:         models.IntentStatusPending,
	}, nil
}

func (s *premiumService) VerifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(s.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// HandleWebhook resolves a pending intent. A replayed webhook finds no
// intent and reports not found; the first delivery already settled it.
func (s *premiumService) HandleWebhook(ctx context.Context, payload *models.WebhookPayload) error {
	if payload.OrderReference == "" {
		return apperrors.NewValidationError("orderReference is required.")
	}

	intent, err := s.repo.GetIntent(ctx, payload.OrderReference)
	if err != nil {
		if errors.Is(err, repository.ErrIntentNotFound) {
			return apperrors.NewNotFoundError("Payment intent")
		}
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to load payment intent")
	}

	if payload.Status != models.PaymentStatusSuccess {
		logger.Warn().
			Str("order_reference", payload.OrderReference).
			Str("status", payload.Status).
			Msg("Payment failed")
		// Marking the intent failed is best-effort. The gateway retries on
		// anything but 200, so a store hiccup here must not error out.
		if err := s.repo.MarkIntentFailed(ctx, payload.OrderReference); err != nil {
			logger.Error().
				Err(err).
				Str("order_reference", payload.OrderReference).
				Msg("Failed to record failed payment intent")
		}
		return nil
	}

	now := time.Now()
	record := &models.Payment{
		OrderReference:   payload.OrderReference,
		UserID:           intent.UserID,
		GatewayReference: payload.Reference,
		Status:           payload.Status,
		Amount:           payload.Amount,
		Timestamp:        payload.Timestamp,
		CreatedAt:        now.UnixMilli(),
	}
	expiresAt := now.AddDate(0, 1, 0).UnixMilli()
	if err := s.repo.Activate(ctx, record, intent.UserID, expiresAt); err != nil {
		return apperrors.NewTransientStoreError(err)
	}
	logger.Info().
		Str("user_id", intent.UserID).
		Str("order_reference", payload.OrderReference).
		Msg("Premium subscription activated")
	return nil
}
