package service

import (
	"context"
	"testing"
	"time"

	"jetfeed-backend/internal/common/apperrors"
	"jetfeed-backend/internal/features/notification/models"
	notifredis "jetfeed-backend/internal/features/notification/repository/redis"
	usermodels "jetfeed-backend/internal/features/user/models"
	userredis "jetfeed-backend/internal/features/user/repository/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (NotificationService, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewNotificationService(
		notifredis.NewNotificationRepository(client),
		userredis.NewUserRepository(client),
	), client
}

func addNotification(t *testing.T, client *redis.Client, n *models.Notification) {
	t.Helper()
	_, err := client.TxPipelined(context.Background(), func(pipe redis.Pipeliner) error {
		notifredis.Add(context.Background(), pipe, n)
		return nil
	})
	require.NoError(t, err)
}

func TestList_HydratesSenderAndMarksRead(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()

	users := userredis.NewUserRepository(client)
	now := time.Now().UnixMilli()
	require.NoError(t, users.Create(ctx, &usermodels.User{
		ID:          "sender",
		Username:    "alice",
		DisplayName: "Alice",
		Status:      usermodels.StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}))

	addNotification(t, client, &models.Notification{
		ID:          "n1",
		Type:        models.TypeFollow,
		SenderID:    "sender",
		RecipientID: "recipient",
		CreatedAt:   now,
	})

	first, err := svc.List(ctx, "recipient", 10)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.False(t, first[0].Read)
	require.NotNil(t, first[0].Sender)
	assert.Equal(t, "alice", first[0].Sender.Username)

	// The unread state is observable exactly once.
	second, err := svc.List(ctx, "recipient", 10)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.True(t, second[0].Read)
}

func TestList_UnknownSenderLeftUnhydrated(t *testing.T) {
	svc, client := newTestService(t)

	addNotification(t, client, &models.Notification{
		ID:          "n1",
		Type:        models.TypeLike,
		SenderID:    "ghost",
		RecipientID: "recipient",
		CreatedAt:   time.Now().UnixMilli(),
	})

	rows, err := svc.List(context.Background(), "recipient", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].Sender)
}

func TestMarkRead_RecipientOnly(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()

	addNotification(t, client, &models.Notification{
		ID:          "n1",
		Type:        models.TypeLike,
		SenderID:    "sender",
		RecipientID: "recipient",
		CreatedAt:   time.Now().UnixMilli(),
	})

	err := svc.MarkRead(ctx, "intruder", "n1")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeForbidden, apperrors.Code(err))

	require.NoError(t, svc.MarkRead(ctx, "recipient", "n1"))

	err = svc.MarkRead(ctx, "recipient", "missing")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.Code(err))
}
