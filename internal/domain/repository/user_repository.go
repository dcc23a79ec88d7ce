package repository

import (
	"context"
	"errors"

	"github.com/petlovers/petlovers-api/internal/domain/entity"
)

var (
	// ErrNotFound is returned when no row matches the lookup key.
	ErrNotFound = errors.New("repository: not found")
	// ErrStaleWrite is returned by Update when the stored version no longer
	// matches the version the caller read. Nothing was written.
	ErrStaleWrite = errors.New("repository: stale write")
	// ErrDuplicate is returned by Insert when a unique key already exists.
	ErrDuplicate = errors.New("repository: duplicate key")
)

// UserRepository persists the identity aggregate. Update writes the full row,
// refresh token pair included, in one statement guarded by u.Version and
// advances u.Version on success.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Insert(ctx context.Context, u *entity.User) error
	Update(ctx context.Context, u *entity.User) error
}
