package redis

import (
	"context"

	notifmodels "jetfeed-backend/internal/features/notification/models"
	notifredis "jetfeed-backend/internal/features/notification/repository/redis"
	"jetfeed-backend/internal/features/social/models"
	"jetfeed-backend/internal/features/social/repository"
	userredis "jetfeed-backend/internal/features/user/repository/redis"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefixFollow = "follow:"
	suffixFollowers = ":followers"
	suffixFollowing = ":following"
	fieldFollowers  = "followers_count"
	fieldFollowing  = "following_count"
)

func edgeKey(followerID, followingID string) string {
	return keyPrefixFollow + followerID + ":" + followingID
}

func followersKey(userID string) string {
	return "user:" + userID + suffixFollowers
}

func followingKey(userID string) string {
	return "user:" + userID + suffixFollowing
}

type followRepository struct {
	client *redis.Client
}

func NewFollowRepository(client *redis.Client) repository.FollowRepository {
	return &followRepository{client: client}
}

func (r *followRepository) Exists(ctx context.Context, followerID, followingID string) (bool, error) {
	n, err := r.client.Exists(ctx, edgeKey(followerID, followingID)).Result()
	return n > 0, err
}

func (r *followRepository) Create(ctx context.Context, edge *models.FollowEdge, notification *notifmodels.Notification) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		score := float64(edge.CreatedAt)
		pipe.Set(ctx, edgeKey(edge.FollowerID, edge.FollowingID), edge.CreatedAt, 0)
		pipe.ZAdd(ctx, followersKey(edge.FollowingID), redis.Z{Score: score, Member: edge.FollowerID})
		pipe.ZAdd(ctx, followingKey(edge.FollowerID), redis.Z{Score: score, Member: edge.FollowingID})
		pipe.HIncrBy(ctx, userredis.UserKey(edge.FollowingID), fieldFollowers, 1)
		pipe.HIncrBy(ctx, userredis.UserKey(edge.FollowerID), fieldFollowing, 1)
		if notification != nil {
			notifredis.Add(ctx, pipe, notification)
		}
		return nil
	})
	return err
}

func (r *followRepository) Delete(ctx context.Context, followerID, followingID string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, edgeKey(followerID, followingID))
		pipe.ZRem(ctx, followersKey(followingID), followerID)
		pipe.ZRem(ctx, followingKey(followerID), followingID)
		pipe.HIncrBy(ctx, userredis.UserKey(followingID), fieldFollowers, -1)
		pipe.HIncrBy(ctx, userredis.UserKey(followerID), fieldFollowing, -1)
		return nil
	})
	return err
}

func (r *followRepository) Followers(ctx context.Context, userID string, limit int64) ([]string, error) {
	return r.client.ZRevRange(ctx, followersKey(userID), 0, limit-1).Result()
}

func (r *followRepository) Following(ctx context.Context, userID string, limit int64) ([]string, error) {
	return r.client.ZRevRange(ctx, followingKey(userID), 0, limit-1).Result()
}
