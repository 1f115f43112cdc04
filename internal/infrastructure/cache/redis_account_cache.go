package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/joshuaoni/user-management-dashboard/internal/domain/entity"
	"github.com/joshuaoni/user-management-dashboard/internal/domain/repository"
	"github.com/joshuaoni/user-management-dashboard/pkg/helpers"
)

// cachedAccount is the Redis shape of an account. The password hash is never cached.
type cachedAccount struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	Status       string    `json:"status"`
	ProfilePhoto string    `json:"profile_photo,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func fromEntity(a *entity.Account) cachedAccount {
	return cachedAccount{
		ID:           a.ID,
		Name:         a.Name,
		Email:        a.Email,
		Role:         string(a.Role),
		Status:       string(a.Status),
		ProfilePhoto: a.ProfilePhoto,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func (c cachedAccount) toEntity() *entity.Account {
	return &entity.Account{
		ID:           c.ID,
		Name:         c.Name,
		Email:        c.Email,
		Role:         entity.Role(c.Role),
		Status:       entity.Status(c.Status),
		ProfilePhoto: c.ProfilePhoto,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func accountKey(id string) string {
	return "account:cache:" + id
}

// versionKey counts evictions of an account. A fill only lands while the
// count it saw before reading the store is still current.
func versionKey(id string) string {
	return "account:ver:" + id
}

const versionTTL = 24 * time.Hour

var setIfVersionScript = redis.NewScript(`
local v = redis.call("GET", KEYS[2]) or "0"
if v ~= ARGV[1] then
  return 0
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return 1
`)

// AccountRepository is a read-through cache over GetByID.
// Update and Delete evict the entry and bump its version before returning;
// a fill that raced with them is discarded, so a deleted account is never
// served from the cache. Accounts returned by GetByID carry no
// password hash; callers that verify passwords must use GetByEmail.
type AccountRepository struct {
	repository.AccountRepository
	rdb    *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

func NewAccountRepository(next repository.AccountRepository, rdb *redis.Client, ttl time.Duration, logger *logrus.Logger) *AccountRepository {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &AccountRepository{AccountRepository: next, rdb: rdb, ttl: ttl, logger: logger}
}

func (r *AccountRepository) warn(err error, msg, id string) {
	if r.logger != nil {
		r.logger.WithError(err).WithField("account_id", id).Warn(msg)
	}
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*entity.Account, error) {
	var hit cachedAccount
	found, err := helpers.RedisGetJSON(ctx, r.rdb, accountKey(id), &hit)
	if err != nil {
		r.warn(err, "account cache read failed", id)
	}
	if found {
		return hit.toEntity(), nil
	}

	ver, verErr := r.rdb.Get(ctx, versionKey(id)).Result()
	if errors.Is(verErr, redis.Nil) {
		ver, verErr = "0", nil
	}

	a, err := r.AccountRepository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if verErr != nil {
		r.warn(verErr, "account cache version read failed", id)
		return a, nil
	}
	r.fill(ctx, a, ver)
	return a, nil
}

func (r *AccountRepository) fill(ctx context.Context, a *entity.Account, ver string) {
	b, err := json.Marshal(fromEntity(a))
	if err != nil {
		r.warn(err, "account cache encode failed", a.ID)
		return
	}
	keys := []string{accountKey(a.ID), versionKey(a.ID)}
	if err := setIfVersionScript.Run(ctx, r.rdb, keys, ver, b, r.ttl.Milliseconds()).Err(); err != nil {
		r.warn(err, "account cache write failed", a.ID)
	}
}

func (r *AccountRepository) Update(ctx context.Context, id string, p entity.AccountPatch) (*entity.Account, error) {
	a, err := r.AccountRepository.Update(ctx, id, p)
	r.evict(ctx, id)
	return a, err
}

func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	err := r.AccountRepository.Delete(ctx, id)
	r.evict(ctx, id)
	return err
}

func (r *AccountRepository) evict(ctx context.Context, id string) {
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey(id))
		pipe.PExpire(ctx, versionKey(id), versionTTL)
		pipe.Del(ctx, accountKey(id))
		return nil
	})
	if err != nil {
		r.warn(err, "account cache evict failed", id)
	}
}

var _ repository.AccountRepository = (*AccountRepository)(nil)
