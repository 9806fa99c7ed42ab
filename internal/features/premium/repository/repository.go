package repository

import (
	"context"
	"errors"

	"jetfeed-backend/internal/features/premium/models"
)

var (
	ErrIntentNotFound  = errors.New("payment intent not found")
	ErrPaymentNotFound = errors.New("payment not found")
)

// PremiumRepository owns payment intents, settled payment records, and the
// premium fields on the user document.
type PremiumRepository interface {
	CreateIntent(ctx context.Context, intent *models.PaymentIntent) error
	GetIntent(ctx context.Context, orderReference string) (*models.PaymentIntent, error)
	MarkIntentFailed(ctx context.Context, orderReference string) error

	// Activate commits the settlement atomically: the payment record is
	// written, the user's premium fields flip, and the intent is deleted.
	Activate(ctx context.Context, payment *models.Payment, userID string, expiresAt int64) error

	GetPayment(ctx context.Context, orderReference string) (*models.Payment, error)
}
