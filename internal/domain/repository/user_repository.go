package repository

import (
	"context"
	"errors"
	"time"

	"github.com/oksasatya/codex/internal/domain/entity"
)

var (
	// ErrNotFound is returned by repositories when no row matches the key.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique column (email, username) collides.
	ErrDuplicate = errors.New("duplicate")
)

// UserRepository defines the interface for user-related storage operations.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	// Update writes the profile columns of an active user. It never touches
	// the deletion mark and reports ErrNotFound for a marked or unknown row.
	Update(ctx context.Context, u *entity.User) error
	// MarkForDeletion atomically marks an active row at now and anonymizes
	// its display fields. It returns the stored row and whether this call
	// did the marking; an already marked row is returned unchanged.
	MarkForDeletion(ctx context.Context, id string, now time.Time) (*entity.User, bool, error)
	// Restore atomically clears the mark while DeletedAt is after cutoff.
	// It returns the stored row and whether this call restored it.
	Restore(ctx context.Context, id string, cutoff time.Time) (*entity.User, bool, error)
	// DeleteMarked permanently removes the row only while it is still marked
	// with DeletedAt at or before cutoff. It reports false when nothing was
	// removed (already purged, restored in the meantime, or unknown id).
	DeleteMarked(ctx context.Context, id string, cutoff time.Time) (bool, error)
	// ListMarkedForDeletion returns marked users whose DeletedAt is at or before cutoff.
	ListMarkedForDeletion(ctx context.Context, cutoff time.Time) ([]*entity.User, error)
}
