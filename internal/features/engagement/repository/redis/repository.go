package redis

import (
	"context"

	"jetfeed-backend/internal/features/engagement/repository"
	notifmodels "jetfeed-backend/internal/features/notification/models"
	notifredis "jetfeed-backend/internal/features/notification/repository/redis"
	postredis "jetfeed-backend/internal/features/post/repository/redis"

	"github.com/redis/go-redis/v9"
)

const (
	suffixLikes     = ":likes"
	suffixBookmarks = ":bookmarks"
	fieldLikeCount  = "like_count"
)

func likesKey(userID string) string {
	return "user:" + userID + suffixLikes
}

func bookmarksKey(userID string) string {
	return "user:" + userID + suffixBookmarks
}

type engagementRepository struct {
	client *redis.Client
}

func NewEngagementRepository(client *redis.Client) repository.EngagementRepository {
	return &engagementRepository{client: client}
}

func (r *engagementRepository) Like(ctx context.Context, userID, postID string, createdAt int64, notification *notifmodels.Notification) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, likesKey(userID), redis.Z{Score: float64(createdAt), Member: postID})
		pipe.HIncrBy(ctx, postredis.PostKey(postID), fieldLikeCount, 1)
		if notification != nil {
			notifredis.Add(ctx, pipe, notification)
		}
		return nil
	})
	return err
}

func (r *engagementRepository) Unlike(ctx context.Context, userID, postID string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, likesKey(userID), postID)
		pipe.HIncrBy(ctx, postredis.PostKey(postID), fieldLikeCount, -1)
		return nil
	})
	if err != nil {
		return err
	}
	// The post may have been deleted while the like stood; the decrement
	// above then re-created its hash as counter residue.
	return postredis.ReapGhost(ctx, r.client, postID)
}

func (r *engagementRepository) IsLiked(ctx context.Context, userID, postID string) (bool, error) {
	return r.member(ctx, likesKey(userID), postID)
}

func (r *engagementRepository) Bookmark(ctx context.Context, userID, postID string, createdAt int64) error {
	return r.client.ZAdd(ctx, bookmarksKey(userID), redis.Z{Score: float64(createdAt), Member: postID}).Err()
}

func (r *engagementRepository) Unbookmark(ctx context.Context, userID, postID string) error {
	return r.client.ZRem(ctx, bookmarksKey(userID), postID).Err()
}

func (r *engagementRepository) IsBookmarked(ctx context.Context, userID, postID string) (bool, error) {
	return r.member(ctx, bookmarksKey(userID), postID)
}

func (r *engagementRepository) LikedPostIDs(ctx context.Context, userID string, limit int64) ([]string, error) {
	return r.client.ZRevRange(ctx, likesKey(userID), 0, limit-1).Result()
}

func (r *engagementRepository) BookmarkedPostIDs(ctx context.Context, userID string, limit int64) ([]string, error) {
	return r.client.ZRevRange(ctx, bookmarksKey(userID), 0, limit-1).Result()
}

func (r *engagementRepository) member(ctx context.Context, key, member string) (bool, error) {
	_, err := r.client.ZScore(ctx, key, member).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
