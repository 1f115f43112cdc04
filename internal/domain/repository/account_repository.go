package repository

import (
	"context"
	"errors"

	"github.com/joshuaoni/user-management-dashboard/internal/domain/entity"
)

var (
	// ErrNotFound is returned when no account matches the identifier.
	// Malformed identifiers are reported the same way.
	ErrNotFound = errors.New("account not found")
	// ErrDuplicateEmail is returned when the unique email constraint is violated.
	ErrDuplicateEmail = errors.New("email already in use")
)

// ListQuery filters and pages account listings.
// Search is matched literally and case-insensitively against name or email.
type ListQuery struct {
	Search string
	Role   entity.Role
	Skip   int
	Limit  int
}

// AccountRepository defines the interface for account storage operations.
type AccountRepository interface {
	Create(ctx context.Context, a *entity.Account) error
	GetByID(ctx context.Context, id string) (*entity.Account, error)
	GetByEmail(ctx context.Context, email string) (*entity.Account, error)
	// List returns one page of matches ordered by creation time, plus the total match count.
	List(ctx context.Context, q ListQuery) ([]*entity.Account, int64, error)
	// Update applies the patch atomically and returns the updated account.
	Update(ctx context.Context, id string, p entity.AccountPatch) (*entity.Account, error)
	Delete(ctx context.Context, id string) error
}
