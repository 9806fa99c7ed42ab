package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"jetfeed-backend/internal/common/apperrors"
	"jetfeed-backend/internal/common/logger"
	"jetfeed-backend/internal/common/validation"
	"jetfeed-backend/internal/features/user/models"
	"jetfeed-backend/internal/features/user/repository"
)

const (
	usernameDeriveMax   = 12
	usernameMax         = 15
	usernameMin         = 4
	usernameMaxAttempts = 10
)

// PropagationWarning is returned by UpdateProfile when the profile change
// committed but the author-snapshot pass over existing posts did not finish.
const PropagationWarning = "Profile updated, but some of your posts may briefly show outdated author info."

var (
	nonUsernameChars = regexp.MustCompile(`[^a-zA-Z0-9_]`)
	unsafeFileChars  = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
)

// MediaStore is the external object store behind the signed-URL broker.
type MediaStore interface {
	Upload(ctx context.Context, key, contentType string, data io.Reader) (url string, err error)
	DeleteObject(ctx context.Context, key string) error
}

// AuthorPostsUpdater rewrites the denormalized author fields on one batch of
// the author's posts. It returns the next cursor and whether the pass is
// complete. Implemented by the content ledger repository.
type AuthorPostsUpdater interface {
	UpdateAuthorSnapshot(ctx context.Context, authorID string, snap models.AuthorSnapshot, cursor int64, batch int64) (next int64, done bool, err error)
}

type UserService interface {
	// EnsureProfile returns the profile for an authenticated identity,
	// creating it together with a unique username reservation on first
	// sign-in.
	EnsureProfile(ctx context.Context, userID, email, displayName string) (*models.UserResponse, error)

	GetUser(ctx context.Context, id string) (*models.UserResponse, error)
	GetByUsername(ctx context.Context, username string) (*models.UserResponse, error)
	Search(ctx context.Context, prefix string, limit int64) ([]*models.UserResponse, error)

	// UpdateProfile applies profile edits. The returned warning is non-empty
	// when the edit itself committed but snapshot propagation was partial.
	UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.UserResponse, string, error)

	// UpdatePhoto/UpdateBanner upload the image and store the resulting URL
	// on the profile. A photo change propagates like any snapshot edit.
	UpdatePhoto(ctx context.Context, userID, fileName, contentType string, data io.Reader) (*models.UserResponse, string, error)
	UpdateBanner(ctx context.Context, userID, fileName, contentType string, data io.Reader) (*models.UserResponse, string, error)
}

type userService struct {
	repo    repository.UserRepository
	updater AuthorPostsUpdater
	queue   PropagationQueue
	media   MediaStore
}

func NewUserService(repo repository.UserRepository, updater AuthorPostsUpdater, queue PropagationQueue, media MediaStore) UserService {
	return &userService{
		repo:    repo,
		updater: updater,
		queue:   queue,
		media:   media,
	}
}

func (s *userService) EnsureProfile(ctx context.Context, userID, email, displayName string) (*models.UserResponse, error) {
	existing, err := s.repo.GetByID(ctx, userID)
	if err == nil {
		return existing.ToResponse(), nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to load profile")
	}

	base := deriveUsernameBase(email)
	candidate := base
	for attempt := 0; ; attempt++ {
		if attempt >= usernameMaxAttempts {
			candidate = truncate(fmt.Sprintf("user%d", time.Now().UnixMilli()), usernameMax)
		} else if attempt > 0 {
			candidate = truncate(base+randomDigits(3), usernameMax)
		}

		user := newUser(userID, email, displayName, candidate)
		err := s.repo.Create(ctx, user)
		if err == nil {
			return user.ToResponse(), nil
		}
		if errors.Is(err, repository.ErrUsernameTaken) && attempt < usernameMaxAttempts {
			continue
		}
		if errors.Is(err, repository.ErrTxConflict) || errors.Is(err, repository.ErrUsernameTaken) {
			// Lost the race with a concurrent resolver; nothing was written.
			return nil, apperrors.NewTransientStoreError(err)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to create profile")
	}
}

func (s *userService) GetUser(ctx context.Context, id string) (*models.UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperrors.NewNotFoundError("User")
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to load user")
	}
	return user.ToResponse(), nil
}

func (s *userService) GetByUsername(ctx context.Context, username string) (*models.UserResponse, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperrors.NewNotFoundError("User")
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to load user")
	}
	return user.ToResponse(), nil
}

func (s *userService) Search(ctx context.Context, prefix string, limit int64) ([]*models.UserResponse, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return []*models.UserResponse{}, nil
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	users, err := s.repo.SearchByPrefix(ctx, prefix, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "user search failed")
	}
	out := make([]*models.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, u.ToResponse())
	}
	return out, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.UserResponse, string, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, "", apperrors.NewNotFoundError("User")
		}
		return nil, "", apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to load user")
	}

	fields := map[string]interface{}{}
	snapshotChanged := false

	if req.DisplayName != nil && *req.DisplayName != user.DisplayName {
		if strings.TrimSpace(*req.DisplayName) == "" {
			return nil, "", apperrors.NewValidationError("Display name cannot be empty.")
		}
		fields["display_name"] = *req.DisplayName
		snapshotChanged = true
	}
	if req.Bio != nil {
		fields["bio"] = *req.Bio
	}
	if req.Location != nil {
		fields["location"] = *req.Location
	}
	if req.Website != nil {
		if !validation.IsValidWebsite(*req.Website) {
			return nil, "", apperrors.NewValidationError("Website must be a valid http(s) URL.")
		}
		fields["website"] = *req.Website
	}
	if req.PhotoURL != nil && *req.PhotoURL != user.PhotoURL {
		fields["photo_url"] = *req.PhotoURL
		snapshotChanged = true
	}
	if req.BannerURL != nil {
		fields["banner_url"] = *req.BannerURL
	}

	usernameChanged := req.Username != nil && !strings.EqualFold(*req.Username, user.Username)
	if usernameChanged {
		newName := *req.Username
		if !validation.IsValidUsername(newName) {
			return nil, "", apperrors.NewValidationError("Username must be 4-15 characters: letters, numbers and underscores only.")
		}
		if user.UsernameUpdatedAt != 0 {
			last := time.UnixMilli(user.UsernameUpdatedAt)
			if time.Since(last) < models.UsernameCooldown {
				return nil, "", apperrors.NewConflictError("You can only change your username once every 30 days.")
			}
		}
		if owner, err := s.repo.UsernameOwner(ctx, newName); err == nil && owner != userID {
			return nil, "", apperrors.NewConflictError("Username is already taken.")
		}

		err = s.repo.ChangeUsername(ctx, user, newName, fields)
		if errors.Is(err, repository.ErrUsernameTaken) {
			return nil, "", apperrors.NewConflictError("Username is already taken.")
		}
		if errors.Is(err, repository.ErrTxConflict) {
			return nil, "", apperrors.NewTransientStoreError(err)
		}
		if err != nil {
			return nil, "", apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to update profile")
		}
		snapshotChanged = true
	} else if len(fields) > 0 {
		if err := s.repo.UpdateFields(ctx, userID, fields); err != nil {
			return nil, "", apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to update profile")
		}
	}

	fresh, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, "", apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to reload user")
	}

	// The profile change is committed at this point. Snapshot propagation
	// over existing posts is best-effort: a failure is reported as a
	// warning and handed to the background worker, never rolled back.
	warning := ""
	if snapshotChanged {
		if err := s.propagateSnapshot(ctx, fresh); err != nil {
			logger.Warn().Err(err).Str("user_id", userID).Msg("Author snapshot propagation incomplete, queued for retry")
			warning = PropagationWarning
			if qErr := s.queue.Enqueue(ctx, userID); qErr != nil {
				logger.Error().Err(qErr).Str("user_id", userID).Msg("Failed to enqueue snapshot propagation")
			}
		}
	}

	return fresh.ToResponse(), warning, nil
}

func (s *userService) UpdatePhoto(ctx context.Context, userID, fileName, contentType string, data io.Reader) (*models.UserResponse, string, error) {
	url, err := s.uploadProfileObject(ctx, userID, "profile", fileName, contentType, data)
	if err != nil {
		return nil, "", err
	}
	return s.UpdateProfile(ctx, userID, &models.UpdateProfileRequest{PhotoURL: &url})
}

func (s *userService) UpdateBanner(ctx context.Context, userID, fileName, contentType string, data io.Reader) (*models.UserResponse, string, error) {
	url, err := s.uploadProfileObject(ctx, userID, "banner", fileName, contentType, data)
	if err != nil {
		return nil, "", err
	}
	return s.UpdateProfile(ctx, userID, &models.UpdateProfileRequest{BannerURL: &url})
}

func (s *userService) uploadProfileObject(ctx context.Context, userID, kind, fileName, contentType string, data io.Reader) (string, error) {
	safe := unsafeFileChars.ReplaceAllString(fileName, "_")
	key := fmt.Sprintf("users/%s/%s/%d_%s", userID, kind, time.Now().UnixMilli(), safe)
	url, err := s.media.Upload(ctx, key, contentType, data)
	if err != nil {
		return "", apperrors.NewExternalError("Media store", err)
	}
	return url, nil
}

// propagateSnapshot runs one full inline pass over the user's posts,
// persisting the cursor between batches so an interrupted pass resumes.
func (s *userService) propagateSnapshot(ctx context.Context, user *models.User) error {
	snap := user.Snapshot()
	cursor, err := s.queue.Cursor(ctx, user.ID)
	if err != nil {
		return err
	}

	for {
		next, done, err := s.updater.UpdateAuthorSnapshot(ctx, user.ID, snap, cursor, propagationBatchSize)
		if err != nil {
			_ = s.queue.SetCursor(ctx, user.ID, cursor)
			return err
		}
		if done {
			return s.queue.ClearCursor(ctx, user.ID)
		}
		cursor = next
		if err := s.queue.SetCursor(ctx, user.ID, cursor); err != nil {
			return err
		}
	}
}

func newUser(id, email, displayName, username string) *models.User {
	now := time.Now().UnixMilli()
	return &models.User{
		ID:               id,
		Email:            email,
		Username:         username,
		DisplayName:      displayName,
		Status:           models.StatusActive,
		VerificationType: models.VerificationNone,
		PremiumStatus:    models.PremiumStatusNone,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// deriveUsernameBase builds a username candidate from the email local part:
// strip to [a-zA-Z0-9_], lower-case, truncate to 12, pad with random digits
// up to the 4-character minimum.
func deriveUsernameBase(email string) string {
	local := email
	if at := strings.IndexByte(email, '@'); at >= 0 {
		local = email[:at]
	}
	base := strings.ToLower(nonUsernameChars.ReplaceAllString(local, ""))
	base = truncate(base, usernameDeriveMax)
	for len(base) < usernameMin {
		base += randomDigits(1)
	}
	return base
}

func randomDigits(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "%d", rand.Intn(10))
	}
	return b.String()
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}
