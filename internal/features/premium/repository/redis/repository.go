package redis

import (
	"context"
	"time"

	"jetfeed-backend/internal/features/premium/models"
	"jetfeed-backend/internal/features/premium/repository"
	usermodels "jetfeed-backend/internal/features/user/models"
	userredis "jetfeed-backend/internal/features/user/repository/redis"

	"github.com/redis/go-redis/v9"
)

const (
	prefixIntent  = "payment_intent:"
	prefixPayment = "payment:"
)

func intentKey(orderReference string) string {
	return prefixIntent + orderReference
}

func paymentKey(orderReference string) string {
	return prefixPayment + orderReference
}

type premiumRepository struct {
	client *redis.Client
}

func NewPremiumRepository(client *redis.Client) repository.PremiumRepository {
	return &premiumRepository{client: client}
}

func (r *premiumRepository) CreateIntent(ctx context.Context, intent *models.PaymentIntent) error {
	return r.client.HSet(ctx, intentKey(intent.OrderReference), intent).Err()
}

func (r *premiumRepository) GetIntent(ctx context.Context, orderReference string) (*models.PaymentIntent, error) {
	cmd := r.client.HGetAll(ctx, intentKey(orderReference))
	if err := cmd.Err(); err != nil {
		return nil, err
	}
	if len(cmd.Val()) == 0 {
		return nil, repository.ErrIntentNotFound
	}
	var intent models.PaymentIntent
	if err := cmd.Scan(&intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

func (r *premiumRepository) MarkIntentFailed(ctx context.Context, orderReference string) error {
	return r.client.HSet(ctx, intentKey(orderReference), "status", models.IntentStatusFailed).Err()
}

func (r *premiumRepository) Activate(ctx context.Context, payment *models.Payment, userID string, expiresAt int64) error {
	now := time.Now().UnixMilli()
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, paymentKey(payment.OrderReference), payment)
		pipe.HSet(ctx, userredis.UserKey(userID),
			"is_verified", true,
			"verification_type", usermodels.VerificationIndividual,
			"premium_is_verified", true,
			"premium_status", usermodels.PremiumStatusActive,
			"premium_plan", models.PlanMonthly,
			"premium_expires_at", expiresAt,
			"updated_at", now,
		)
		pipe.Del(ctx, intentKey(payment.OrderReference))
		return nil
	})
	return err
}

func (r *premiumRepository) GetPayment(ctx context.Context, orderReference string) (*models.Payment, error) {
	cmd := r.client.HGetAll(ctx, paymentKey(orderReference))
	if err := cmd.Err(); err != nil {
		return nil, err
	}
	if len(cmd.Val()) == 0 {
		return nil, repository.ErrPaymentNotFound
	}
	var payment models.Payment
	if err := cmd.Scan(&payment); err != nil {
		return nil, err
	}
	return &payment, nil
}
