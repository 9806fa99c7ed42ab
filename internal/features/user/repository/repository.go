package repository

import (
	"context"
	"errors"

	"jetfeed-backend/internal/features/user/models"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already reserved")

	// ErrTxConflict means an optimistic transaction lost the race with a
	// concurrent writer. The operation had no effect.
	ErrTxConflict = errors.New("transaction conflict")
)

type UserRepository interface {
	// Create writes the user and its username reservation in one
	// transaction guarded by the reservation key.
	Create(ctx context.Context, user *models.User) error

	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	UsernameOwner(ctx context.Context, username string) (string, error)

	// UpdateFields patches the given hash fields on the user document.
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error

	// ChangeUsername swaps the reservation from the current username to
	// newUsername and applies fields to the user document, all in one
	// transaction watching both reservation keys.
	ChangeUsername(ctx context.Context, user *models.User, newUsername string, fields map[string]interface{}) error

	SearchByPrefix(ctx context.Context, prefix string, limit int64) ([]*models.User, error)
}
