package application

import (
	"context"
	"io"
	"time"

	"github.com/joshuaoni/user-management-dashboard/internal/domain/entity"
	"github.com/joshuaoni/user-management-dashboard/internal/domain/repository"
)

// ImageUpload is a profile photo received from a client.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ImageStore persists an uploaded image and returns the value stored on the account.
type ImageStore interface {
	Store(ctx context.Context, img ImageUpload) (string, error)
}

// AccountIndex is a secondary search index kept in sync with the store.
// IndexAll stamps documents with syncedAt; Prune drops every document
// stamped before it.
type AccountIndex interface {
	Index(ctx context.Context, a *entity.Account) error
	IndexAll(ctx context.Context, accounts []*entity.Account, syncedAt time.Time) error
	Prune(ctx context.Context, before time.Time) error
	Remove(ctx context.Context, id string) error
	Search(ctx context.Context, q repository.ListQuery) ([]*entity.Account, int64, error)
}

// Notifier announces account lifecycle events.
type Notifier interface {
	AccountCreated(ctx context.Context, a *entity.Account) error
}
