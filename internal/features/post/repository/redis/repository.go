package redis

import (
	"context"
	"encoding/json"

	notifmodels "jetfeed-backend/internal/features/notification/models"
	notifredis "jetfeed-backend/internal/features/notification/repository/redis"
	"jetfeed-backend/internal/features/post/models"
	"jetfeed-backend/internal/features/post/repository"
	usermodels "jetfeed-backend/internal/features/user/models"
	userredis "jetfeed-backend/internal/features/user/repository/redis"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefixPost  = "post:"
	keyRecentPosts = "posts:recent"
	keyTrends      = "trends:hashtags"

	suffixPosts   = ":posts"
	suffixReplies = ":replies"
	suffixMedia   = ":media"
	suffixReposts = ":reposts"

	fieldPostsCount   = "posts_count"
	fieldCommentCount = "comment_count"
	fieldRepostCount  = "repost_count"
)

// PostKey returns the hash key of a post document. Exported because the
// engagement ledger adjusts likeCount inside its own batches.
func PostKey(id string) string {
	return keyPrefixPost + id
}

// ReapGhost deletes the post hash when it holds only counter residue. A
// counter bump that raced a delete re-creates the hash without the id field;
// such a hash is never a live post, so deleting it is always safe.
func ReapGhost(ctx context.Context, c redis.Cmdable, postID string) error {
	key := PostKey(postID)
	live, err := c.HExists(ctx, key, "id").Result()
	if err != nil || live {
		return err
	}
	return c.Del(ctx, key).Err()
}

func authorPostsKey(userID string) string {
	return "user:" + userID + suffixPosts
}

func authorRepliesKey(userID string) string {
	return "user:" + userID + suffixReplies
}

func authorMediaKey(userID string) string {
	return "user:" + userID + suffixMedia
}

func authorRepostsKey(userID string) string {
	return "user:" + userID + suffixReposts
}

func postRepliesKey(postID string) string {
	return keyPrefixPost + postID + suffixReplies
}

type postRepository struct {
	client *redis.Client
}

func NewPostRepository(client *redis.Client) repository.PostRepository {
	return &postRepository{client: client}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post, notification *notifmodels.Notification) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		writePost(ctx, pipe, post)

		score := float64(post.CreatedAt)
		if post.IsReply {
			pipe.ZAdd(ctx, authorRepliesKey(post.AuthorID), redis.Z{Score: score, Member: post.ID})
			pipe.ZAdd(ctx, postRepliesKey(post.ReplyToID), redis.Z{Score: score, Member: post.ID})
			pipe.HIncrBy(ctx, PostKey(post.ReplyToID), fieldCommentCount, 1)
		} else {
			pipe.ZAdd(ctx, keyRecentPosts, redis.Z{Score: score, Member: post.ID})
			pipe.ZAdd(ctx, authorPostsKey(post.AuthorID), redis.Z{Score: score, Member: post.ID})
		}
		if post.HasMedia {
			pipe.ZAdd(ctx, authorMediaKey(post.AuthorID), redis.Z{Score: score, Member: post.ID})
		}

		pipe.HIncrBy(ctx, userredis.UserKey(post.AuthorID), fieldPostsCount, 1)

		for _, tag := range post.Hashtags {
			pipe.ZIncrBy(ctx, keyTrends, 1, tag)
		}

		if notification != nil {
			notifredis.Add(ctx, pipe, notification)
		}
		return nil
	})
	return err
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	return readPost(ctx, r.client, id)
}

func (r *postRepository) Delete(ctx context.Context, post *models.Post) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, PostKey(post.ID))
		pipe.ZRem(ctx, keyRecentPosts, post.ID)
		pipe.ZRem(ctx, authorPostsKey(post.AuthorID), post.ID)
		pipe.ZRem(ctx, authorRepliesKey(post.AuthorID), post.ID)
		pipe.ZRem(ctx, authorMediaKey(post.AuthorID), post.ID)

		pipe.HIncrBy(ctx, userredis.UserKey(post.AuthorID), fieldPostsCount, -1)

		if post.IsReply && post.ReplyToID != "" {
			pipe.ZRem(ctx, postRepliesKey(post.ReplyToID), post.ID)
			pipe.HIncrBy(ctx, PostKey(post.ReplyToID), fieldCommentCount, -1)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if post.IsReply && post.ReplyToID != "" {
		return ReapGhost(ctx, r.client, post.ReplyToID)
	}
	return nil
}

func (r *postRepository) CreateRepost(ctx context.Context, repost *models.Post, notification *notifmodels.Notification) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		writePost(ctx, pipe, repost)

		score := float64(repost.CreatedAt)
		pipe.ZAdd(ctx, keyRecentPosts, redis.Z{Score: score, Member: repost.ID})
		pipe.ZAdd(ctx, authorPostsKey(repost.AuthorID), redis.Z{Score: score, Member: repost.ID})
		pipe.HSet(ctx, authorRepostsKey(repost.AuthorID), repost.OriginalPostID, repost.ID)

		pipe.HIncrBy(ctx, PostKey(repost.OriginalPostID), fieldRepostCount, 1)
		pipe.HIncrBy(ctx, userredis.UserKey(repost.AuthorID), fieldPostsCount, 1)

		if notification != nil {
			notifredis.Add(ctx, pipe, notification)
		}
		return nil
	})
	return err
}

func (r *postRepository) DeleteRepost(ctx context.Context, repost *models.Post) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, PostKey(repost.ID))
		pipe.ZRem(ctx, keyRecentPosts, repost.ID)
		pipe.ZRem(ctx, authorPostsKey(repost.AuthorID), repost.ID)
		pipe.HDel(ctx, authorRepostsKey(repost.AuthorID), repost.OriginalPostID)

		pipe.HIncrBy(ctx, PostKey(repost.OriginalPostID), fieldRepostCount, -1)
		pipe.HIncrBy(ctx, userredis.UserKey(repost.AuthorID), fieldPostsCount, -1)
		return nil
	})
	if err != nil {
		return err
	}
	return ReapGhost(ctx, r.client, repost.OriginalPostID)
}

func (r *postRepository) FindRepost(ctx context.Context, userID, originalPostID string) (string, error) {
	id, err := r.client.HGet(ctx, authorRepostsKey(userID), originalPostID).Result()
	if err == redis.Nil {
		return "", repository.ErrRepostNotFound
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *postRepository) Feed(ctx context.Context, limit int64) ([]*models.Post, error) {
	return r.collectDesc(ctx, keyRecentPosts, limit)
}

func (r *postRepository) ByAuthor(ctx context.Context, authorID string, limit int64) ([]*models.Post, error) {
	return r.collectDesc(ctx, authorPostsKey(authorID), limit)
}

func (r *postRepository) RepliesByAuthor(ctx context.Context, authorID string, limit int64) ([]*models.Post, error) {
	return r.collectDesc(ctx, authorRepliesKey(authorID), limit)
}

func (r *postRepository) MediaByAuthor(ctx context.Context, authorID string, limit int64) ([]*models.Post, error) {
	return r.collectDesc(ctx, authorMediaKey(authorID), limit)
}

func (r *postRepository) RepliesTo(ctx context.Context, postID string, limit int64) ([]*models.Post, error) {
	ids, err := r.client.ZRange(ctx, postRepliesKey(postID), 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	return r.hydrate(ctx, ids)
}

func (r *postRepository) TopHashtags(ctx context.Context, limit int64) ([]models.Trend, error) {
	entries, err := r.client.ZRevRangeWithScores(ctx, keyTrends, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	trends := make([]models.Trend, 0, len(entries))
	for _, e := range entries {
		tag, _ := e.Member.(string)
		trends = append(trends, models.Trend{Tag: tag, Count: int64(e.Score)})
	}
	return trends, nil
}

func (r *postRepository) UpdateAuthorSnapshot(ctx context.Context, authorID string, snap usermodels.AuthorSnapshot, cursor int64, batch int64) (int64, bool, error) {
	postsKey := authorPostsKey(authorID)
	repliesKey := authorRepliesKey(authorID)

	postsTotal, err := r.client.ZCard(ctx, postsKey).Result()
	if err != nil {
		return cursor, false, err
	}
	repliesTotal, err := r.client.ZCard(ctx, repliesKey).Result()
	if err != nil {
		return cursor, false, err
	}
	total := postsTotal + repliesTotal
	if cursor >= total {
		return cursor, true, nil
	}

	// The cursor ranks over posts first, then replies, oldest-first so that
	// entries created mid-pass (which already carry the fresh snapshot) land
	// past the watermark.
	var ids []string
	if cursor < postsTotal {
		end := min64(cursor+batch, postsTotal) - 1
		ids, err = r.client.ZRange(ctx, postsKey, cursor, end).Result()
	} else {
		start := cursor - postsTotal
		end := min64(start+batch, repliesTotal) - 1
		ids, err = r.client.ZRange(ctx, repliesKey, start, end).Result()
	}
	if err != nil {
		return cursor, false, err
	}

	_, err = r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range ids {
			pipe.HSet(ctx, PostKey(id),
				"username", snap.Username,
				"display_name", snap.DisplayName,
				"author_photo_url", snap.PhotoURL,
				"is_verified", snap.IsVerified,
				"verification_type", snap.VerificationType,
			)
		}
		return nil
	})
	if err != nil {
		return cursor, false, err
	}

	next := cursor + int64(len(ids))
	return next, next >= total, nil
}

func (r *postRepository) collectDesc(ctx context.Context, key string, limit int64) ([]*models.Post, error) {
	ids, err := r.client.ZRevRange(ctx, key, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	return r.hydrate(ctx, ids)
}

func (r *postRepository) hydrate(ctx context.Context, ids []string) ([]*models.Post, error) {
	posts := make([]*models.Post, 0, len(ids))
	for _, id := range ids {
		post, err := readPost(ctx, r.client, id)
		if err != nil {
			if err == repository.ErrPostNotFound {
				continue
			}
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// writePost queues the document write onto an open pipeline. Slice fields
// travel as JSON strings alongside the tagged scalar fields.
func writePost(ctx context.Context, pipe redis.Pipeliner, post *models.Post) {
	key := PostKey(post.ID)
	pipe.HSet(ctx, key, post)
	pipe.HSet(ctx, key,
		"hashtags", marshalStrings(post.Hashtags),
		"media_urls", marshalStrings(post.MediaURLs),
		"media_keys", marshalStrings(post.MediaKeys),
	)
}

func readPost(ctx context.Context, c redis.Cmdable, id string) (*models.Post, error) {
	cmd := c.HGetAll(ctx, PostKey(id))
	if err := cmd.Err(); err != nil {
		return nil, err
	}
	raw := cmd.Val()
	// A hash without the id field is counter residue from a bump that raced a
	// delete, not a post.
	if len(raw) == 0 || raw["id"] == "" {
		return nil, repository.ErrPostNotFound
	}

	var post models.Post
	if err := cmd.Scan(&post); err != nil {
		return nil, err
	}
	post.Hashtags = unmarshalStrings(raw["hashtags"])
	post.MediaURLs = unmarshalStrings(raw["media_urls"])
	post.MediaKeys = unmarshalStrings(raw["media_keys"])
	return &post, nil
}

func marshalStrings(values []string) string {
	if values == nil {
		values = []string{}
	}
	data, _ := json.Marshal(values)
	return string(data)
}

func unmarshalStrings(raw string) []string {
	if raw == "" {
		return []string{}
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return []string{}
	}
	return values
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
