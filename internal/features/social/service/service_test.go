package service

import (
	"context"
	"testing"
	"time"

	"jetfeed-backend/internal/common/apperrors"
	notifrepo "jetfeed-backend/internal/features/notification/repository"
	notifredis "jetfeed-backend/internal/features/notification/repository/redis"
	socialredis "jetfeed-backend/internal/features/social/repository/redis"
	usermodels "jetfeed-backend/internal/features/user/models"
	userrepo "jetfeed-backend/internal/features/user/repository"
	userredis "jetfeed-backend/internal/features/user/repository/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type socialFixture struct {
	svc    SocialService
	users  userrepo.UserRepository
	notifs notifrepo.NotificationRepository
}

func newFixture(t *testing.T) *socialFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	users := userredis.NewUserRepository(client)
	follows := socialredis.NewFollowRepository(client)
	return &socialFixture{
		svc:    NewSocialService(follows, users),
		users:  users,
		notifs: notifredis.NewNotificationRepository(client),
	}
}

func (f *socialFixture) addUser(t *testing.T, id, username string) {
	t.Helper()
	now := time.Now().UnixMilli()
	require.NoError(t, f.users.Create(context.Background(), &usermodels.User{
		ID:          id,
		Username:    username,
		DisplayName: username,
		Status:      usermodels.StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}))
}

func TestToggleFollow_CreatesEdgeCountersAndNotification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "u1", "alice")
	f.addUser(t, "u2", "bob")

	result, err := f.svc.ToggleFollow(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.True(t, result.Following)

	alice, err := f.users.GetByID(ctx, "u1")
	require.NoError(t, err)
	bob, err := f.users.GetByID(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), alice.FollowingCount)
	assert.Equal(t, int64(1), bob.FollowersCount)
	assert.Zero(t, alice.FollowersCount)

	rows, err := f.notifs.ListByRecipient(ctx, "u2", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "follow", rows[0].Type)
	assert.Equal(t, "u1", rows[0].SenderID)

	following, err := f.svc.IsFollowing(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.True(t, following)
}

func TestToggleFollow_SecondToggleUnfollows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "u1", "alice")
	f.addUser(t, "u2", "bob")

	_, err := f.svc.ToggleFollow(ctx, "u1", "u2")
	require.NoError(t, err)
	result, err := f.svc.ToggleFollow(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.False(t, result.Following)

	alice, err := f.users.GetByID(ctx, "u1")
	require.NoError(t, err)
	bob, err := f.users.GetByID(ctx, "u2")
	require.NoError(t, err)
	assert.Zero(t, alice.FollowingCount)
	assert.Zero(t, bob.FollowersCount)

	following, err := f.svc.IsFollowing(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.False(t, following)
}

func TestToggleFollow_SelfFollowRejected(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", "alice")

	_, err := f.svc.ToggleFollow(context.Background(), "u1", "u1")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeConflict, apperrors.Code(err))
}

func TestToggleFollow_UnknownTarget(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", "alice")

	_, err := f.svc.ToggleFollow(context.Background(), "u1", "ghost")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.Code(err))
}

func TestListFollowersAndFollowing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "u1", "alice")
	f.addUser(t, "u2", "bob")
	f.addUser(t, "u3", "carol")

	_, err := f.svc.ToggleFollow(ctx, "u2", "u1")
	require.NoError(t, err)
	_, err = f.svc.ToggleFollow(ctx, "u3", "u1")
	require.NoError(t, err)

	followers, err := f.svc.ListFollowers(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, followers, 2)
	// Newest edge first.
	assert.Equal(t, "carol", followers[0].Username)
	assert.Equal(t, "bob", followers[1].Username)

	following, err := f.svc.ListFollowing(ctx, "u2", 10)
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, "alice", following[0].Username)
}
