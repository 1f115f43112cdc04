package cache

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/joshuaoni/user-management-dashboard/internal/domain/entity"
	"github.com/joshuaoni/user-management-dashboard/internal/domain/repository"
	"github.com/joshuaoni/user-management-dashboard/internal/infrastructure/memory"
)

// countingRepo wraps the memory store and records GetByID calls.
type countingRepo struct {
	mock.Mock
	repository.AccountRepository
}

func (c *countingRepo) GetByID(ctx context.Context, id string) (*entity.Account, error) {
	c.Called(id)
	return c.AccountRepository.GetByID(ctx, id)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func setup(t *testing.T) (*miniredis.Miniredis, *countingRepo, *AccountRepository, *entity.Account) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	inner := &countingRepo{AccountRepository: memory.NewAccountRepository()}
	inner.On("GetByID", mock.Anything).Return()

	a := &entity.Account{Name: "Ada", Email: "ada@x.com", PasswordHash: "secret-hash", Role: entity.RoleUser, Status: entity.StatusActive}
	require.NoError(t, inner.Create(context.Background(), a))

	return mr, inner, NewAccountRepository(inner, rdb, time.Minute, quietLogger()), a
}

func TestGetByIDReadThrough(t *testing.T) {
	ctx := context.Background()
	mr, inner, repo, a := setup(t)

	first, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "secret-hash", first.PasswordHash, "miss returns the store record")
	assert.True(t, mr.Exists(accountKey(a.ID)))

	raw, err := mr.Get(accountKey(a.ID))
	require.NoError(t, err)
	assert.NotContains(t, raw, "secret-hash")

	second, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", second.Name)
	assert.Empty(t, second.PasswordHash)
	inner.AssertNumberOfCalls(t, "GetByID", 1)

	mr.FastForward(2 * time.Minute)
	_, err = repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	inner.AssertNumberOfCalls(t, "GetByID", 2)
}

func TestDeleteEvicts(t *testing.T) {
	ctx := context.Background()
	mr, _, repo, a := setup(t)

	_, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, a.ID))
	assert.False(t, mr.Exists(accountKey(a.ID)))

	_, err = repo.GetByID(ctx, a.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUpdateEvicts(t *testing.T) {
	ctx := context.Background()
	_, _, repo, a := setup(t)

	_, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)

	role := entity.RoleAdmin
	_, err = repo.Update(ctx, a.ID, entity.AccountPatch{Role: &role})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, got.Role)
}

func TestRedisDownFallsThrough(t *testing.T) {
	ctx := context.Background()
	mr, inner, repo, a := setup(t)
	mr.Close()

	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	inner.AssertNumberOfCalls(t, "GetByID", 1)
}

// pausingRepo holds its first GetByID after the store read until resumed.
type pausingRepo struct {
	repository.AccountRepository
	once   sync.Once
	read   chan struct{}
	resume chan struct{}
}

func (p *pausingRepo) GetByID(ctx context.Context, id string) (*entity.Account, error) {
	a, err := p.AccountRepository.GetByID(ctx, id)
	p.once.Do(func() {
		close(p.read)
		<-p.resume
	})
	return a, err
}

func TestFillRacingDeleteIsDiscarded(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	inner := &pausingRepo{
		AccountRepository: memory.NewAccountRepository(),
		read:              make(chan struct{}),
		resume:            make(chan struct{}),
	}
	a := &entity.Account{Name: "Ada", Email: "ada@x.com", Role: entity.RoleUser, Status: entity.StatusActive}
	require.NoError(t, inner.Create(ctx, a))
	repo := NewAccountRepository(inner, rdb, time.Minute, quietLogger())

	done := make(chan error, 1)
	go func() {
		_, err := repo.GetByID(ctx, a.ID)
		done <- err
	}()

	<-inner.read
	require.NoError(t, repo.Delete(ctx, a.ID))
	close(inner.resume)
	require.NoError(t, <-done, "the in-flight read still returns the record it saw")

	assert.False(t, mr.Exists(accountKey(a.ID)), "stale fill must not land")
	_, err := repo.GetByID(ctx, a.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestEvictBumpsVersion(t *testing.T) {
	ctx := context.Background()
	mr, _, repo, a := setup(t)

	name := "Grace"
	_, err := repo.Update(ctx, a.ID, entity.AccountPatch{Name: &name})
	require.NoError(t, err)
	v, err := mr.Get(versionKey(a.ID))
	require.NoError(t, err)
	assert.Equal(t, "1", v)
	assert.Greater(t, mr.TTL(versionKey(a.ID)), time.Duration(0))

	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Grace", got.Name)
	assert.True(t, mr.Exists(accountKey(a.ID)), "fill lands when no eviction raced it")
}
