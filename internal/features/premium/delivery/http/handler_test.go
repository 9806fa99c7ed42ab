package http

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"jetfeed-backend/internal/features/premium/models"
	premiumredis "jetfeed-backend/internal/features/premium/repository/redis"
	"jetfeed-backend/internal/features/premium/service"
	usermodels "jetfeed-backend/internal/features/user/models"
	userredis "jetfeed-backend/internal/features/user/repository/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "webhook-secret"

type stubGateway struct{}

func (stubGateway) InitiateCharge(context.Context, string, int64) (string, error) {
	return "order-1", nil
}

func newWebhookRouter(t *testing.T) (*gin.Engine, *redis.Client) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc := service.NewPremiumService(
		premiumredis.NewPremiumRepository(client),
		userredis.NewUserRepository(client),
		stubGateway{},
		testSecret,
	)

	router := gin.New()
	v1 := router.Group("/api/v1")
	NewPremiumHandler(svc).RegisterWebhook(v1)
	return router, client
}

func seedIntent(t *testing.T, client *redis.Client) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UnixMilli()

	users := userredis.NewUserRepository(client)
	require.NoError(t, users.Create(ctx, &usermodels.User{
		ID:          "u1",
		Username:    "alice",
		DisplayName: "Alice",
		Status:      usermodels.StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}))

	repo := premiumredis.NewPremiumRepository(client)
	require.NoError(t, repo.CreateIntent(ctx, &models.PaymentIntent{
		OrderReference: "order-1",
		UserID:         "u1",
		Status:         models.IntentStatusPending,
		Amount:         models.SubscriptionAmount,
		CreatedAt:      now,
	}))
}

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func postWebhook(router *gin.Engine, body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(signatureHeader, signature)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestWebhook_Success(t *testing.T) {
	router, client := newWebhookRouter(t)
	seedIntent(t, client)

	body, err := json.Marshal(models.WebhookPayload{
		OrderReference: "order-1",
		Status:         models.PaymentStatusSuccess,
		Reference:      "gw-1",
		Amount:         models.SubscriptionAmount,
	})
	require.NoError(t, err)

	w := postWebhook(router, body, sign(body))
	assert.Equal(t, http.StatusOK, w.Code)

	user, err := userredis.NewUserRepository(client).GetByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, usermodels.PremiumStatusActive, user.PremiumStatus)
}

func TestWebhook_BadSignature(t *testing.T) {
	router, client := newWebhookRouter(t)
	seedIntent(t, client)

	body := []byte(`{"orderReference":"order-1","status":"Success"}`)

	w := postWebhook(router, body, sign([]byte("different body")))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = postWebhook(router, body, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhook_MissingOrderReference(t *testing.T) {
	router, _ := newWebhookRouter(t)

	body := []byte(`{"status":"Success"}`)
	w := postWebhook(router, body, sign(body))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhook_UnknownIntent(t *testing.T) {
	router, _ := newWebhookRouter(t)

	body := []byte(`{"orderReference":"never-seen","status":"Success"}`)
	w := postWebhook(router, body, sign(body))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWebhook_ReplayedDelivery(t *testing.T) {
	router, client := newWebhookRouter(t)
	seedIntent(t, client)

	body, err := json.Marshal(models.WebhookPayload{
		OrderReference: "order-1",
		Status:         models.PaymentStatusSuccess,
		Reference:      "gw-1",
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, postWebhook(router, body, sign(body)).Code)
	assert.Equal(t, http.StatusNotFound, postWebhook(router, body, sign(body)).Code)
}
