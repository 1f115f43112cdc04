package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuaoni/user-management-dashboard/internal/domain/entity"
	"github.com/joshuaoni/user-management-dashboard/internal/domain/repository"
)

func newTestRepo() *AccountRepository {
	r := NewAccountRepository()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	n := 0
	r.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
	return r
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo()

	a := &entity.Account{Name: "Ada", Email: "ada@x.com", PasswordHash: "h", Role: entity.RoleUser, Status: entity.StatusActive}
	require.NoError(t, r.Create(ctx, a))
	require.NotEmpty(t, a.ID)

	got, err := r.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@x.com", got.Email)

	got.Name = "mutated"
	again, _ := r.GetByID(ctx, a.ID)
	assert.Equal(t, "Ada", again.Name, "stored record must not alias returned copies")

	byEmail, err := r.GetByEmail(ctx, "ada@x.com")
	require.NoError(t, err)
	assert.Equal(t, a.ID, byEmail.ID)

	_, err = r.GetByEmail(ctx, "ADA@x.com")
	assert.ErrorIs(t, err, repository.ErrNotFound, "email lookup is case-sensitive")
}

func TestCreateDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo()

	require.NoError(t, r.Create(ctx, &entity.Account{Name: "A", Email: "a@x.com"}))
	err := r.Create(ctx, &entity.Account{Name: "B", Email: "a@x.com"})
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)

	_, total, err := r.List(ctx, repository.ListQuery{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestListSearchRoleAndPaging(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo()

	for i := 0; i < 12; i++ {
		role := entity.RoleUser
		if i%4 == 0 {
			role = entity.RoleAdmin
		}
		require.NoError(t, r.Create(ctx, &entity.Account{
			Name:  fmt.Sprintf("User %02d", i),
			Email: fmt.Sprintf("user%02d@example.com", i),
			Role:  role,
		}))
	}
	require.NoError(t, r.Create(ctx, &entity.Account{Name: "Dot.Star", Email: "d@x.com", Role: entity.RoleUser}))

	page, total, err := r.List(ctx, repository.ListQuery{Skip: 10, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(13), total)
	assert.Len(t, page, 3)
	assert.Equal(t, "User 10", page[0].Name)

	first, _, err := r.List(ctx, repository.ListQuery{Skip: -20, Limit: 2})
	require.NoError(t, err)
	require.Len(t, first, 2, "negative skip starts at the first match")
	assert.Equal(t, "User 00", first[0].Name)

	admins, total, err := r.List(ctx, repository.ListQuery{Role: entity.RoleAdmin, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, admins, 3)

	hits, total, err := r.List(ctx, repository.ListQuery{Search: "USER0", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(10), total)
	assert.Len(t, hits, 10)

	literal, total, err := r.List(ctx, repository.ListQuery{Search: ".", Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, int64(13), total, "every email contains a literal dot")
	assert.Len(t, literal, 13)

	star, total, err := r.List(ctx, repository.ListQuery{Search: "t.s", Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "Dot.Star", star[0].Name)

	empty, total, err := r.List(ctx, repository.ListQuery{Skip: 100, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(13), total)
	assert.Empty(t, empty)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo()

	a := &entity.Account{Name: "A", Email: "a@x.com", Role: entity.RoleUser}
	b := &entity.Account{Name: "B", Email: "b@x.com", Role: entity.RoleUser}
	require.NoError(t, r.Create(ctx, a))
	require.NoError(t, r.Create(ctx, b))

	taken := "a@x.com"
	_, err := r.Update(ctx, b.ID, entity.AccountPatch{Email: &taken})
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)

	fresh := "bee@x.com"
	admin := entity.RoleAdmin
	updated, err := r.Update(ctx, b.ID, entity.AccountPatch{Email: &fresh, Role: &admin})
	require.NoError(t, err)
	assert.Equal(t, "bee@x.com", updated.Email)
	assert.Equal(t, entity.RoleAdmin, updated.Role)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

	_, err = r.GetByEmail(ctx, "b@x.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = r.Update(ctx, "missing", entity.AccountPatch{Email: &fresh})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo()

	a := &entity.Account{Name: "A", Email: "a@x.com"}
	require.NoError(t, r.Create(ctx, a))
	require.NoError(t, r.Delete(ctx, a.ID))

	_, err := r.GetByID(ctx, a.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, r.Delete(ctx, a.ID), repository.ErrNotFound)

	require.NoError(t, r.Create(ctx, &entity.Account{Name: "A2", Email: "a@x.com"}), "email is free again after delete")
}
