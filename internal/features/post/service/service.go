package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"time"

	"jetfeed-backend/internal/common/apperrors"
	"jetfeed-backend/internal/common/logger"
	"jetfeed-backend/internal/common/validation"
	notifmodels "jetfeed-backend/internal/features/notification/models"
	"jetfeed-backend/internal/features/post/models"
	"jetfeed-backend/internal/features/post/repository"
	userrepo "jetfeed-backend/internal/features/user/repository"

	"github.com/google/uuid"
)

const defaultPageSize = 20

var (
	firstURLRe   = regexp.MustCompile(`https?://[^\s]+`)
	unsafeNameRe = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
)

// MediaStore is the external object store behind the signed-URL broker.
type MediaStore interface {
	Upload(ctx context.Context, key, contentType string, data io.Reader) (url string, err error)
	DeleteObject(ctx context.Context, key string) error
}

type PostService interface {
	CreatePost(ctx context.Context, authorID string, req *models.CreatePostRequest) (*models.Post, error)
	DeletePost(ctx context.Context, requesterID, postID string) error
	ToggleRepost(ctx context.Context, userID, originalPostID string) (bool, error)

	GetPost(ctx context.Context, id string) (*models.Post, error)
	Feed(ctx context.Context, limit int64) ([]*models.Post, error)
	UserPosts(ctx context.Context, userID string, limit int64) ([]*models.Post, error)
	UserReplies(ctx context.Context, userID string, limit int64) ([]*models.Post, error)
	UserMediaPosts(ctx context.Context, userID string, limit int64) ([]*models.Post, error)
	Replies(ctx context.Context, postID string, limit int64) ([]*models.Post, error)
	Trends(ctx context.Context, limit int64) ([]models.Trend, error)
}

type postService struct {
	repo  repository.PostRepository
	users userrepo.UserRepository
	media MediaStore
}

func NewPostService(repo repository.PostRepository, users userrepo.UserRepository, media MediaStore) PostService {
	return &postService{repo: repo, users: users, media: media}
}

func (s *postService) CreatePost(ctx context.Context, authorID string, req *models.CreatePostRequest) (*models.Post, error) {
	if ok, msg := validation.ValidatePostContent(req.Content, len(req.Media)); !ok {
		return nil, apperrors.NewValidationError(msg)
	}

	author, err := s.users.GetByID(ctx, authorID)
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			return nil, apperrors.NewNotFoundError("User")
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to load author")
	}

	var parent *models.Post
	if req.ReplyToID != "" {
		parent, err = s.repo.GetByID(ctx, req.ReplyToID)
		if err != nil {
			if errors.Is(err, repository.ErrPostNotFound) {
				return nil, apperrors.NewNotFoundError("Post")
			}
			return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to load parent post")
		}
	}

	postID := uuid.New().String()
	now := time.Now().UnixMilli()

	// Uploads happen before the batch commits so a stored post never points
	// at media it doesn't own. If an upload fails nothing has been written;
	// the caller retries the whole create.
	mediaURLs := make([]string, 0, len(req.Media))
	mediaKeys := make([]string, 0, len(req.Media))
	for _, file := range req.Media {
		key := mediaKeyFor(postID, file.FileName)
		url, err := s.media.Upload(ctx, key, file.ContentType, file.Data)
		if err != nil {
			return nil, apperrors.NewExternalError("Media store", err)
		}
		mediaURLs = append(mediaURLs, url)
		mediaKeys = append(mediaKeys, key)
	}

	snap := author.Snapshot()
	post := &models.Post{
		ID:               postID,
		AuthorID:         authorID,
		Username:         snap.Username,
		DisplayName:      snap.DisplayName,
		AuthorPhotoURL:   snap.PhotoURL,
		IsVerified:       snap.IsVerified,
		VerificationType: snap.VerificationType,
		Content:          req.Content,
		Hashtags:         validation.ExtractHashtags(req.Content),
		HasMedia:         len(mediaKeys) > 0,
		MediaURLs:        mediaURLs,
		MediaKeys:        mediaKeys,
		IsReply:          parent != nil,
		ReplyToID:        req.ReplyToID,
		Type:             models.TypePost,
		LinkPreviewURL:   firstURLRe.FindString(req.Content),
		CreatedAt:        now,
	}

	var notification *notifmodels.Notification
	if parent != nil {
		notification = &notifmodels.Notification{
			ID:          uuid.New().String(),
			Type:        notifmodels.TypeComment,
			SenderID:    authorID,
			RecipientID: parent.AuthorID,
			PostID:      postID,
			Content:     req.Content,
			CreatedAt:   now,
		}
	}

	if err := s.repo.Create(ctx, post, notification); err != nil {
		return nil, apperrors.NewTransientStoreError(err)
	}
	return post, nil
}

func (s *postService) DeletePost(ctx context.Context, requesterID, postID string) error {
	post, err := s.repo.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return apperrors.NewNotFoundError("Post")
		}
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to load post")
	}
	if post.AuthorID != requesterID {
		return apperrors.NewForbiddenError("You cannot delete this post.")
	}

	if post.Type == models.TypeRepost {
		err = s.repo.DeleteRepost(ctx, post)
	} else {
		err = s.repo.Delete(ctx, post)
	}
	if err != nil {
		return apperrors.NewTransientStoreError(err)
	}

	// The post delete is committed; media cleanup is fire-and-forget. An
	// orphaned object is acceptable, an orphaned post is not.
	for _, key := range post.MediaKeys {
		if err := s.media.DeleteObject(ctx, key); err != nil {
			logger.Warn().Err(err).Str("key", key).Str("post_id", postID).Msg("Failed to delete media object")
		}
	}
	return nil
}

func (s *postService) ToggleRepost(ctx context.Context, userID, originalPostID string) (bool, error) {
	original, err := s.repo.GetByID(ctx, originalPostID)
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return false, apperrors.NewNotFoundError("Post")
		}
		return false, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to load post")
	}

	repostID, err := s.repo.FindRepost(ctx, userID, originalPostID)
	if err == nil {
		repost, err := s.repo.GetByID(ctx, repostID)
		if err != nil {
			if errors.Is(err, repository.ErrPostNotFound) {
				// Mapping outlived the row; treat as not reposted.
				return false, apperrors.NewTransientStoreError(err)
			}
			return false, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to load repost")
		}
		if err := s.repo.DeleteRepost(ctx, repost); err != nil {
			return false, apperrors.NewTransientStoreError(err)
		}
		return false, nil
	}
	if !errors.Is(err, repository.ErrRepostNotFound) {
		return false, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to check repost state")
	}

	reposter, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			return false, apperrors.NewNotFoundError("User")
		}
		return false, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to load user")
	}

	now := time.Now().UnixMilli()
	snap := reposter.Snapshot()
	repost := &models.Post{
		ID:               uuid.New().String(),
		AuthorID:         userID,
		Username:         snap.Username,
		DisplayName:      snap.DisplayName,
		AuthorPhotoURL:   snap.PhotoURL,
		IsVerified:       snap.IsVerified,
		VerificationType: snap.VerificationType,
		Content:          original.Content,
		Hashtags:         original.Hashtags,
		HasMedia:         original.HasMedia,
		MediaURLs:        original.MediaURLs,
		Type:             models.TypeRepost,
		OriginalPostID:   originalPostID,
		CreatedAt:        now,
	}
	notification := &notifmodels.Notification{
		ID:          uuid.New().String(),
		Type:        notifmodels.TypeRepost,
		SenderID:    userID,
		RecipientID: original.AuthorID,
		PostID:      originalPostID,
		CreatedAt:   now,
	}
	if err := s.repo.CreateRepost(ctx, repost, notification); err != nil {
		return false, apperrors.NewTransientStoreError(err)
	}
	return true, nil
}

func (s *postService) GetPost(ctx context.Context, id string) (*models.Post, error) {
	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return nil, apperrors.NewNotFoundError("Post")
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to load post")
	}
	return post, nil
}

func (s *postService) Feed(ctx context.Context, limit int64) ([]*models.Post, error) {
	return s.read(s.repo.Feed(ctx, pageSize(limit)))
}

func (s *postService) UserPosts(ctx context.Context, userID string, limit int64) ([]*models.Post, error) {
	return s.read(s.repo.ByAuthor(ctx, userID, pageSize(limit)))
}

func (s *postService) UserReplies(ctx context.Context, userID string, limit int64) ([]*models.Post, error) {
	return s.read(s.repo.RepliesByAuthor(ctx, userID, pageSize(limit)))
}

func (s *postService) UserMediaPosts(ctx context.Context, userID string, limit int64) ([]*models.Post, error) {
	return s.read(s.repo.MediaByAuthor(ctx, userID, pageSize(limit)))
}

func (s *postService) Replies(ctx context.Context, postID string, limit int64) ([]*models.Post, error) {
	posts, err := s.repo.RepliesTo(ctx, postID, pageSize(limit))
	return s.read(posts, err)
}

func (s *postService) Trends(ctx context.Context, limit int64) ([]models.Trend, error) {
	if limit <= 0 || limit > 20 {
		limit = 5
	}
	trends, err := s.repo.TopHashtags(ctx, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to load trends")
	}
	return trends, nil
}

func (s *postService) read(posts []*models.Post, err error) ([]*models.Post, error) {
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to load posts")
	}
	return posts, nil
}

func mediaKeyFor(postID, fileName string) string {
	safe := unsafeNameRe.ReplaceAllString(fileName, "_")
	return fmt.Sprintf("posts/%s/%d_%s", postID, time.Now().UnixMilli(), safe)
}

func pageSize(limit int64) int64 {
	if limit <= 0 || limit > 100 {
		return defaultPageSize
	}
	return limit
}
