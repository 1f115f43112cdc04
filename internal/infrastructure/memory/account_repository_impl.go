package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joshuaoni/user-management-dashboard/internal/domain/entity"
	"github.com/joshuaoni/user-management-dashboard/internal/domain/repository"
)

// AccountRepository keeps accounts in process memory.
// It is used for local development and tests and follows the same
// uniqueness and matching rules as the persistent drivers.
type AccountRepository struct {
	mu      sync.RWMutex
	byID    map[string]*entity.Account
	byEmail map[string]string
	now     func() time.Time
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		byID:    make(map[string]*entity.Account),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

func clone(a *entity.Account) *entity.Account {
	c := *a
	return &c
}

func (r *AccountRepository) Create(_ context.Context, a *entity.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[a.Email]; taken {
		return repository.ErrDuplicateEmail
	}
	now := r.now().UTC()
	a.ID = uuid.NewString()
	a.CreatedAt = now
	a.UpdatedAt = now
	r.byID[a.ID] = clone(a)
	r.byEmail[a.Email] = a.ID
	return nil
}

func (r *AccountRepository) GetByID(_ context.Context, id string) (*entity.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clone(a), nil
}

func (r *AccountRepository) GetByEmail(_ context.Context, email string) (*entity.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clone(r.byID[id]), nil
}

func matches(a *entity.Account, q repository.ListQuery) bool {
	if q.Role != "" && a.Role != q.Role {
		return false
	}
	if q.Search == "" {
		return true
	}
	term := strings.ToLower(q.Search)
	return strings.Contains(strings.ToLower(a.Name), term) || strings.Contains(strings.ToLower(a.Email), term)
}

func (r *AccountRepository) List(_ context.Context, q repository.ListQuery) ([]*entity.Account, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	hits := make([]*entity.Account, 0, len(r.byID))
	for _, a := range r.byID {
		if matches(a, q) {
			hits = append(hits, a)
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].CreatedAt.Equal(hits[j].CreatedAt) {
			return hits[i].ID < hits[j].ID
		}
		return hits[i].CreatedAt.Before(hits[j].CreatedAt)
	})

	total := int64(len(hits))
	if q.Skip < 0 {
		q.Skip = 0
	}
	if q.Skip >= len(hits) {
		return []*entity.Account{}, total, nil
	}
	end := len(hits)
	if q.Limit > 0 && q.Skip+q.Limit < end {
		end = q.Skip + q.Limit
	}
	page := make([]*entity.Account, 0, end-q.Skip)
	for _, a := range hits[q.Skip:end] {
		page = append(page, clone(a))
	}
	return page, total, nil
}

func (r *AccountRepository) Update(_ context.Context, id string, p entity.AccountPatch) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if p.Email != nil && *p.Email != cur.Email {
		if _, taken := r.byEmail[*p.Email]; taken {
			return nil, repository.ErrDuplicateEmail
		}
		delete(r.byEmail, cur.Email)
		r.byEmail[*p.Email] = id
	}
	p.Apply(cur)
	cur.UpdatedAt = r.now().UTC()
	return clone(cur), nil
}

func (r *AccountRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	delete(r.byEmail, a.Email)
	delete(r.byID, id)
	return nil
}

var _ repository.AccountRepository = (*AccountRepository)(nil)
