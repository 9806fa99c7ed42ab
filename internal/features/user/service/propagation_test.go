package service

import (
	"context"
	"testing"
	"time"

	postmodels "jetfeed-backend/internal/features/post/models"
	postredis "jetfeed-backend/internal/features/post/repository/redis"
	"jetfeed-backend/internal/features/user/models"
	userredis "jetfeed-backend/internal/features/user/repository/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropagator_ProcessesQueuedJob(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	users := userredis.NewUserRepository(client)
	posts := postredis.NewPostRepository(client)
	queue := userredis.NewPropagationQueue(client)

	now := time.Now().UnixMilli()
	require.NoError(t, users.Create(ctx, &models.User{
		ID:          "u1",
		Username:    "alice",
		DisplayName: "Alice Current",
		Status:      models.StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}))

	// Post still carrying a stale snapshot from before a profile edit.
	require.NoError(t, posts.Create(ctx, &postmodels.Post{
		ID:          "p1",
		AuthorID:    "u1",
		Username:    "alice",
		DisplayName: "Alice Stale",
		Content:     "hello",
		Type:        postmodels.TypePost,
		CreatedAt:   now,
	}, nil))

	propagator := NewPropagator(users, posts, queue)
	propagator.Start()
	t.Cleanup(propagator.Stop)

	require.NoError(t, queue.Enqueue(ctx, "u1"))

	assert.Eventually(t, func() bool {
		post, err := posts.GetByID(ctx, "p1")
		return err == nil && post.DisplayName == "Alice Current"
	}, 3*time.Second, 20*time.Millisecond)

	// Cursor state is cleared once the pass completes.
	assert.Eventually(t, func() bool {
		cursor, err := queue.Cursor(ctx, "u1")
		return err == nil && cursor == 0
	}, time.Second, 20*time.Millisecond)
}

func TestPropagator_ClearsJobForVanishedUser(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	users := userredis.NewUserRepository(client)
	posts := postredis.NewPostRepository(client)
	queue := userredis.NewPropagationQueue(client)

	require.NoError(t, queue.SetCursor(ctx, "ghost", 40))

	propagator := NewPropagator(users, posts, queue)
	propagator.Start()
	t.Cleanup(propagator.Stop)

	require.NoError(t, queue.Enqueue(ctx, "ghost"))

	assert.Eventually(t, func() bool {
		cursor, err := queue.Cursor(ctx, "ghost")
		return err == nil && cursor == 0
	}, 3*time.Second, 20*time.Millisecond)
}
