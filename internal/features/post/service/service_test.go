package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"jetfeed-backend/internal/common/apperrors"
	notifredis "jetfeed-backend/internal/features/notification/repository/redis"
	"jetfeed-backend/internal/features/post/models"
	postredis "jetfeed-backend/internal/features/post/repository/redis"
	usermodels "jetfeed-backend/internal/features/user/models"
	userrepo "jetfeed-backend/internal/features/user/repository"
	userredis "jetfeed-backend/internal/features/user/repository/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMediaStore struct {
	uploaded []string
	deleted  []string
	failNext bool
}

func (f *fakeMediaStore) Upload(_ context.Context, key, _ string, _ io.Reader) (string, error) {
	if f.failNext {
		return "", errors.New("broker unavailable")
	}
	f.uploaded = append(f.uploaded, key)
	return "https://media.test/" + key, nil
}

func (f *fakeMediaStore) DeleteObject(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

type postFixture struct {
	svc    PostService
	users  userrepo.UserRepository
	client *redis.Client
	media  *fakeMediaStore
}

func newFixture(t *testing.T) *postFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	users := userredis.NewUserRepository(client)
	posts := postredis.NewPostRepository(client)
	media := &fakeMediaStore{}
	return &postFixture{
		svc:    NewPostService(posts, users, media),
		users:  users,
		client: client,
		media:  media,
	}
}

func (f *postFixture) addUser(t *testing.T, id, username string) *usermodels.User {
	t.Helper()
	now := time.Now().UnixMilli()
	user := &usermodels.User{
		ID:          id,
		Email:       username + "@example.com",
		Username:    username,
		DisplayName: username,
		Status:      usermodels.StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, f.users.Create(context.Background(), user))
	return user
}

func TestCreatePost_IncrementsAuthorCounter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "u1", "alice")

	post, err := f.svc.CreatePost(ctx, "u1", &models.CreatePostRequest{Content: "first #golang post"})
	require.NoError(t, err)
	assert.Equal(t, models.TypePost, post.Type)
	assert.Equal(t, "alice", post.Username)
	assert.Equal(t, []string{"golang"}, post.Hashtags)

	author, err := f.users.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), author.PostsCount)

	feed, err := f.svc.Feed(ctx, 10)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, post.ID, feed[0].ID)
}

func TestCreatePost_EmptyContentRejected(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", "alice")

	_, err := f.svc.CreatePost(context.Background(), "u1", &models.CreatePostRequest{Content: "   "})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeValidation, apperrors.Code(err))
}

func TestCreatePost_UnknownAuthor(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreatePost(context.Background(), "ghost", &models.CreatePostRequest{Content: "hello"})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.Code(err))
}

func TestCreatePost_ReplyUpdatesParentAndNotifies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "u1", "alice")
	f.addUser(t, "u2", "bob")

	parent, err := f.svc.CreatePost(ctx, "u1", &models.CreatePostRequest{Content: "parent"})
	require.NoError(t, err)

	reply, err := f.svc.CreatePost(ctx, "u2", &models.CreatePostRequest{Content: "reply", ReplyToID: parent.ID})
	require.NoError(t, err)
	assert.True(t, reply.IsReply)

	stored, err := f.svc.GetPost(ctx, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.CommentCount)

	// The parent author got a comment notification in the same batch.
	notifs := notifredis.NewNotificationRepository(f.client)
	rows, err := notifs.ListByRecipient(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "comment", rows[0].Type)
	assert.Equal(t, "u2", rows[0].SenderID)

	replies, err := f.svc.Replies(ctx, parent.ID, 10)
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, reply.ID, replies[0].ID)
}

func TestCreatePost_ReplyToOwnPostSkipsNotification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "u1", "alice")

	parent, err := f.svc.CreatePost(ctx, "u1", &models.CreatePostRequest{Content: "parent"})
	require.NoError(t, err)

	_, err = f.svc.CreatePost(ctx, "u1", &models.CreatePostRequest{Content: "self reply", ReplyToID: parent.ID})
	require.NoError(t, err)

	notifs := notifredis.NewNotificationRepository(f.client)
	rows, err := notifs.ListByRecipient(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestCreatePost_MediaUploadFailureAbortsCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "u1", "alice")
	f.media.failNext = true

	_, err := f.svc.CreatePost(ctx, "u1", &models.CreatePostRequest{
		Content: "with media",
		Media:   []models.MediaFile{{FileName: "pic.png", ContentType: "image/png"}},
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeExternal, apperrors.Code(err))

	author, err := f.users.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, author.PostsCount)
}

func TestDeletePost_OnlyAuthorMay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "u1", "alice")
	f.addUser(t, "u2", "bob")

	post, err := f.svc.CreatePost(ctx, "u1", &models.CreatePostRequest{Content: "mine"})
	require.NoError(t, err)

	err = f.svc.DeletePost(ctx, "u2", post.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeForbidden, apperrors.Code(err))

	require.NoError(t, f.svc.DeletePost(ctx, "u1", post.ID))

	_, err = f.svc.GetPost(ctx, post.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.Code(err))

	author, err := f.users.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, author.PostsCount)
}

func TestDeletePost_RemovesMediaObjects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "u1", "alice")

	post, err := f.svc.CreatePost(ctx, "u1", &models.CreatePostRequest{
		Content: "with media",
		Media:   []models.MediaFile{{FileName: "pic.png", ContentType: "image/png"}},
	})
	require.NoError(t, err)
	require.Len(t, f.media.uploaded, 1)

	require.NoError(t, f.svc.DeletePost(ctx, "u1", post.ID))
	assert.Equal(t, f.media.uploaded, f.media.deleted)
}

func TestDeleteReply_DecrementsParentCommentCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "u1", "alice")
	f.addUser(t, "u2", "bob")

	parent, err := f.svc.CreatePost(ctx, "u1", &models.CreatePostRequest{Content: "parent"})
	require.NoError(t, err)

	var replies []*models.Post
	for i := 0; i < 3; i++ {
		reply, err := f.svc.CreatePost(ctx, "u2", &models.CreatePostRequest{Content: "reply", ReplyToID: parent.ID})
		require.NoError(t, err)
		replies = append(replies, reply)
	}

	require.NoError(t, f.svc.DeletePost(ctx, "u2", replies[0].ID))
	require.NoError(t, f.svc.DeletePost(ctx, "u2", replies[1].ID))

	stored, err := f.svc.GetPost(ctx, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.CommentCount)

	remaining, err := f.svc.Replies(ctx, parent.ID, 10)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, replies[2].ID, remaining[0].ID)
}

func TestDeleteReply_AfterParentDeletedLeavesParentGone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "u1", "alice")
	f.addUser(t, "u2", "bob")

	parent, err := f.svc.CreatePost(ctx, "u1", &models.CreatePostRequest{Content: "parent"})
	require.NoError(t, err)
	reply, err := f.svc.CreatePost(ctx, "u2", &models.CreatePostRequest{Content: "reply", ReplyToID: parent.ID})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeletePost(ctx, "u1", parent.ID))

	// Deleting the orphaned reply decrements the parent's counter; that must
	// not re-create the parent's hash.
	require.NoError(t, f.svc.DeletePost(ctx, "u2", reply.ID))

	_, err = f.svc.GetPost(ctx, parent.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.Code(err))

	exists, err := f.client.Exists(ctx, postredis.PostKey(parent.ID)).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}

func TestToggleRepost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "u1", "alice")
	f.addUser(t, "u2", "bob")

	original, err := f.svc.CreatePost(ctx, "u1", &models.CreatePostRequest{Content: "original"})
	require.NoError(t, err)

	reposted, err := f.svc.ToggleRepost(ctx, "u2", original.ID)
	require.NoError(t, err)
	assert.True(t, reposted)

	stored, err := f.svc.GetPost(ctx, original.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.RepostCount)

	bob, err := f.users.GetByID(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), bob.PostsCount)

	reposted, err = f.svc.ToggleRepost(ctx, "u2", original.ID)
	require.NoError(t, err)
	assert.False(t, reposted)

	stored, err = f.svc.GetPost(ctx, original.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.RepostCount)

	bob, err = f.users.GetByID(ctx, "u2")
	require.NoError(t, err)
	assert.Zero(t, bob.PostsCount)
}

func TestTrends_RankedByUsage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "u1", "alice")

	for _, content := range []string{"#go one", "#go two", "#redis three"} {
		_, err := f.svc.CreatePost(ctx, "u1", &models.CreatePostRequest{Content: content})
		require.NoError(t, err)
	}

	trends, err := f.svc.Trends(ctx, 5)
	require.NoError(t, err)
	require.Len(t, trends, 2)
	assert.Equal(t, models.Trend{Tag: "go", Count: 2}, trends[0])
	assert.Equal(t, models.Trend{Tag: "redis", Count: 1}, trends[1])
}
