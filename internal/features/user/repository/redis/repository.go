package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"jetfeed-backend/internal/features/user/models"
	"jetfeed-backend/internal/features/user/repository"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefixUser     = "user:"
	keyPrefixUsername = "username:"
	keyUsernameIndex  = "usernames"
)

// UserKey returns the hash key of a user document. Exported because other
// ledgers adjust user counters inside their own atomic batches.
func UserKey(id string) string {
	return keyPrefixUser + id
}

// UsernameKey returns the reservation key for a normalized username.
func UsernameKey(username string) string {
	return keyPrefixUsername + strings.ToLower(username)
}

type userRepository struct {
	client *redis.Client
}

func NewUserRepository(client *redis.Client) repository.UserRepository {
	return &userRepository{client: client}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	normalized := strings.ToLower(user.Username)
	reservationKey := UsernameKey(user.Username)

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, reservationKey).Result()
		if err != nil {
			return err
		}
		if exists > 0 {
			return repository.ErrUsernameTaken
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, reservationKey, user.ID, 0)
			pipe.HSet(ctx, UserKey(user.ID), user)
			pipe.ZAdd(ctx, keyUsernameIndex, redis.Z{Score: 0, Member: normalized})
			return nil
		})
		return err
	}, reservationKey)

	if errors.Is(err, redis.TxFailedErr) {
		return repository.ErrTxConflict
	}
	return err
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return getUser(ctx, r.client, UserKey(id))
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	id, err := r.UsernameOwner(ctx, username)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *userRepository) UsernameOwner(ctx context.Context, username string) (string, error) {
	id, err := r.client.Get(ctx, UsernameKey(username)).Result()
	if err == redis.Nil {
		return "", repository.ErrUserNotFound
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *userRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	fields["updated_at"] = time.Now().UnixMilli()
	return r.client.HSet(ctx, UserKey(id), fields).Err()
}

func (r *userRepository) ChangeUsername(ctx context.Context, user *models.User, newUsername string, fields map[string]interface{}) error {
	oldKey := UsernameKey(user.Username)
	newKey := UsernameKey(newUsername)
	now := time.Now().UnixMilli()

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		owner, err := tx.Get(ctx, newKey).Result()
		if err != nil && err != redis.Nil {
			return err
		}
		if err == nil && owner != user.ID {
			return repository.ErrUsernameTaken
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, oldKey)
			pipe.Set(ctx, newKey, user.ID, 0)
			pipe.ZRem(ctx, keyUsernameIndex, strings.ToLower(user.Username))
			pipe.ZAdd(ctx, keyUsernameIndex, redis.Z{Score: 0, Member: strings.ToLower(newUsername)})

			if fields == nil {
				fields = map[string]interface{}{}
			}
			fields["username"] = newUsername
			fields["username_updated_at"] = now
			fields["updated_at"] = now
			pipe.HSet(ctx, UserKey(user.ID), fields)
			return nil
		})
		return err
	}, oldKey, newKey)

	if errors.Is(err, redis.TxFailedErr) {
		return repository.ErrTxConflict
	}
	return err
}

func (r *userRepository) SearchByPrefix(ctx context.Context, prefix string, limit int64) ([]*models.User, error) {
	prefix = strings.ToLower(prefix)
	names, err := r.client.ZRangeByLex(ctx, keyUsernameIndex, &redis.ZRangeBy{
		Min:   "[" + prefix,
		Max:   "[" + prefix + "\xff",
		Count: limit,
	}).Result()
	if err != nil {
		return nil, err
	}

	users := make([]*models.User, 0, len(names))
	for _, name := range names {
		u, err := r.GetByUsername(ctx, name)
		if err != nil {
			// Index entries whose user vanished are skipped, not fatal.
			if errors.Is(err, repository.ErrUserNotFound) {
				continue
			}
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// getUser loads a user hash; an empty hash means the document is absent.
func getUser(ctx context.Context, c redis.Cmdable, key string) (*models.User, error) {
	cmd := c.HGetAll(ctx, key)
	if err := cmd.Err(); err != nil {
		return nil, err
	}
	if len(cmd.Val()) == 0 {
		return nil, repository.ErrUserNotFound
	}

	var user models.User
	if err := cmd.Scan(&user); err != nil {
		return nil, err
	}
	return &user, nil
}
