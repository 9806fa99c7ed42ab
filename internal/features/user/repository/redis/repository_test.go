package redis

import (
	"context"
	"testing"
	"time"

	"jetfeed-backend/internal/features/user/models"
	"jetfeed-backend/internal/features/user/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) repository.UserRepository {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewUserRepository(client)
}

func user(id, username string) *models.User {
	now := time.Now().UnixMilli()
	return &models.User{
		ID:          id,
		Username:    username,
		DisplayName: username,
		Status:      models.StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestCreate_UsernameReservationIsCaseInsensitive(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, user("u1", "Alice")))

	err := repo.Create(ctx, user("u2", "ALICE"))
	assert.ErrorIs(t, err, repository.ErrUsernameTaken)

	// Lookup resolves regardless of case.
	found, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "u1", found.ID)
}

func TestChangeUsername_FreesOldReservation(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	alice := user("u1", "alice")
	require.NoError(t, repo.Create(ctx, alice))
	require.NoError(t, repo.ChangeUsername(ctx, alice, "alice_two", nil))

	stored, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice_two", stored.Username)
	assert.NotZero(t, stored.UsernameUpdatedAt)

	_, err = repo.GetByUsername(ctx, "alice")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)

	// The old name is reusable immediately.
	require.NoError(t, repo.Create(ctx, user("u2", "alice")))
}

func TestChangeUsername_TakenByOther(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	alice := user("u1", "alice")
	require.NoError(t, repo.Create(ctx, alice))
	require.NoError(t, repo.Create(ctx, user("u2", "bobby")))

	err := repo.ChangeUsername(ctx, alice, "bobby", nil)
	assert.ErrorIs(t, err, repository.ErrUsernameTaken)
}

func TestSearchByPrefix(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	for _, name := range []string{"alice", "alina", "bob99"} {
		require.NoError(t, repo.Create(ctx, user("id_"+name, name)))
	}

	found, err := repo.SearchByPrefix(ctx, "ali", 10)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "alice", found[0].Username)
	assert.Equal(t, "alina", found[1].Username)

	found, err = repo.SearchByPrefix(ctx, "ALI", 10)
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = repo.SearchByPrefix(ctx, "zed", 10)
	require.NoError(t, err)
	assert.Empty(t, found)
}
