package application

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/joshuaoni/user-management-dashboard/internal/domain/entity"
	"github.com/joshuaoni/user-management-dashboard/internal/domain/repository"
	"github.com/joshuaoni/user-management-dashboard/pkg/helpers"
)

// Paging defaults.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// MaxPage keeps (page-1)*limit within int for every allowed limit.
const MaxPage = math.MaxInt / MaxLimit

// DefaultMaxUploadBytes bounds profile photo uploads when no limit is configured.
const DefaultMaxUploadBytes int64 = 5 << 20

const throwawayPasswordBytes = 24

type Service struct {
	Repo     repository.AccountRepository
	JWT      *helpers.JWTManager
	Logger   *logrus.Logger
	Images   ImageStore
	Index    AccountIndex
	Notifier Notifier

	MaxUploadBytes int64

	// The index serves listings only after a full Reindex with no failed
	// write since it started.
	indexMu       sync.Mutex
	indexReady    bool
	indexFailures uint64
}

type Option func(*Service)

func WithImageStore(s ImageStore) Option { return func(svc *Service) { svc.Images = s } }

func WithAccountIndex(ix AccountIndex) Option { return func(svc *Service) { svc.Index = ix } }

func WithNotifier(n Notifier) Option { return func(svc *Service) { svc.Notifier = n } }

func WithMaxUploadBytes(n int64) Option {
	return func(svc *Service) {
		if n > 0 {
			svc.MaxUploadBytes = n
		}
	}
}

func NewService(repo repository.AccountRepository, jwt *helpers.JWTManager, logger *logrus.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = logrus.New()
	}
	s := &Service{
		Repo:           repo,
		JWT:            jwt,
		Logger:         logger,
		MaxUploadBytes: DefaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type RegisterInput struct {
	Name         string
	Email        string
	Password     string
	Role         entity.Role
	Status       entity.Status
	ProfilePhoto string
	Photo        *ImageUpload
}

type CreateInput struct {
	Name         string
	Email        string
	Role         entity.Role
	Status       entity.Status
	ProfilePhoto string
	Photo        *ImageUpload
}

// UpdateInput is a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Name         *string
	Email        *string
	Role         *entity.Role
	Status       *entity.Status
	ProfilePhoto *string
	Photo        *ImageUpload
}

type ListParams struct {
	Search string
	Role   entity.Role
	Page   int
	Limit  int
}

type ListResult struct {
	Accounts   []*entity.Account
	Total      int64
	TotalPages int
	Page       int
	Limit      int
}

// AuthResult carries an account and a freshly issued token.
type AuthResult struct {
	Account   *entity.Account
	Token     string
	ExpiresAt time.Time
}

// normalizeEmail trims surrounding space. Case is kept: A@x.com and a@x.com are distinct accounts.
func normalizeEmail(email string) string {
	return strings.TrimSpace(email)
}

// internal logs err and hides it behind the generic server error.
func (s *Service) internal(err error, op string, fields logrus.Fields) *Error {
	s.Logger.WithFields(fields).WithError(err).Error(op + " failed")
	return newError(KindInternal, MsgServerError, err)
}

func (s *Service) storeError(err error, op string, fields logrus.Fields) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrDuplicateEmail):
		return ErrConflict
	}
	return s.internal(err, op, fields)
}

func (s *Service) issue(a *entity.Account) (*AuthResult, error) {
	token, exp, err := s.JWT.Generate(a.ID)
	if err != nil {
		return nil, s.internal(err, "generate token", logrus.Fields{"account_id": a.ID})
	}
	return &AuthResult{Account: a, Token: token, ExpiresAt: exp}, nil
}

// ensureEmailFree is a fast path; the store's unique index decides races.
func (s *Service) ensureEmailFree(ctx context.Context, email string) error {
	_, err := s.Repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return ErrConflict
	case errors.Is(err, repository.ErrNotFound):
		return nil
	}
	return s.internal(err, "lookup by email", logrus.Fields{"email": email})
}

// photo resolves the stored profile photo value for an optional upload.
func (s *Service) photo(ctx context.Context, current string, img *ImageUpload) (string, error) {
	if img == nil {
		return current, nil
	}
	if !strings.HasPrefix(strings.ToLower(img.ContentType), "image/") {
		return "", ValidationError("profilePhoto must be an image")
	}
	if img.Size > s.MaxUploadBytes {
		return "", ValidationError("profilePhoto is too large")
	}
	if s.Images == nil {
		return "", s.internal(errors.New("no image store configured"), "store image", nil)
	}
	ref, err := s.Images.Store(ctx, *img)
	if err != nil {
		return "", s.internal(err, "store image", logrus.Fields{"filename": img.Filename})
	}
	return ref, nil
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := normalizeEmail(in.Email)
	if err := s.ensureEmailFree(ctx, email); err != nil {
		return nil, err
	}

	hash, err := helpers.HashPassword(in.Password)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, ValidationError("password must be at most 72 bytes long")
	}
	if err != nil {
		return nil, s.internal(err, "hash password", nil)
	}
	photo, err := s.photo(ctx, in.ProfilePhoto, in.Photo)
	if err != nil {
		return nil, err
	}

	a := &entity.Account{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         in.Role,
		Status:       in.Status,
		ProfilePhoto: photo,
	}
	a.ApplyDefaults()
	if err := s.Repo.Create(ctx, a); err != nil {
		return nil, s.storeError(err, "create account", logrus.Fields{"email": email})
	}
	s.index(ctx, a)
	return s.issue(a)
}

// Login never distinguishes an unknown email from a wrong password.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	a, err := s.Repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, s.internal(err, "lookup by email", nil)
	}
	if !helpers.CompareHashAndPassword(a.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return s.issue(a)
}

// Normalize applies paging defaults and bounds.
func (p ListParams) Normalize() ListParams {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	p.Search = strings.TrimSpace(p.Search)
	return p
}

func totalPages(total int64, limit int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(limit)))
}

func (s *Service) List(ctx context.Context, p ListParams) (*ListResult, error) {
	p = p.Normalize()
	if p.Role != "" && !p.Role.Valid() {
		return nil, ValidationError("role must be one of: admin, user")
	}
	q := repository.ListQuery{Search: p.Search, Role: p.Role, Skip: (p.Page - 1) * p.Limit, Limit: p.Limit}

	var (
		page  []*entity.Account
		total int64
		err   error
	)
	useIndex := s.indexUsable()
	if useIndex {
		page, total, err = s.Index.Search(ctx, q)
		if err != nil {
			s.Logger.WithError(err).Warn("index search failed, querying store")
		}
	}
	if !useIndex || err != nil {
		page, total, err = s.Repo.List(ctx, q)
		if err != nil {
			return nil, s.internal(err, "list accounts", nil)
		}
	}
	return &ListResult{
		Accounts:   page,
		Total:      total,
		TotalPages: totalPages(total, p.Limit),
		Page:       p.Page,
		Limit:      p.Limit,
	}, nil
}

func (s *Service) Get(ctx context.Context, id string) (*entity.Account, error) {
	a, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.storeError(err, "get account", logrus.Fields{"account_id": id})
	}
	return a, nil
}

// Create provisions an account with an unusable random password.
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.Account, error) {
	email := normalizeEmail(in.Email)
	if err := s.ensureEmailFree(ctx, email); err != nil {
		return nil, err
	}

	secret, err := helpers.RandomPassword(throwawayPasswordBytes)
	if err != nil {
		return nil, s.internal(err, "generate password", nil)
	}
	hash, err := helpers.HashPassword(secret)
	if err != nil {
		return nil, s.internal(err, "hash password", nil)
	}
	photo, err := s.photo(ctx, in.ProfilePhoto, in.Photo)
	if err != nil {
		return nil, err
	}

	a := &entity.Account{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         in.Role,
		Status:       in.Status,
		ProfilePhoto: photo,
	}
	a.ApplyDefaults()
	if err := s.Repo.Create(ctx, a); err != nil {
		return nil, s.storeError(err, "create account", logrus.Fields{"email": email})
	}
	s.index(ctx, a)
	s.notifyCreated(ctx, a)
	return a, nil
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*entity.Account, error) {
	patch := entity.AccountPatch{
		Name:         in.Name,
		Role:         in.Role,
		Status:       in.Status,
		ProfilePhoto: in.ProfilePhoto,
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		patch.Name = &name
	}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		patch.Email = &email
	}
	if in.Photo != nil {
		photo, err := s.photo(ctx, "", in.Photo)
		if err != nil {
			return nil, err
		}
		patch.ProfilePhoto = &photo
	}
	if patch.Empty() {
		return s.Get(ctx, id)
	}

	a, err := s.Repo.Update(ctx, id, patch)
	if err != nil {
		return nil, s.storeError(err, "update account", logrus.Fields{"account_id": id})
	}
	s.index(ctx, a)
	return a, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		return s.storeError(err, "delete account", logrus.Fields{"account_id": id})
	}
	if s.Index != nil {
		if err := s.Index.Remove(ctx, id); err != nil {
			s.indexFailed(err, "index remove failed", id)
		}
	}
	return nil
}

func (s *Service) index(ctx context.Context, a *entity.Account) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Index(ctx, a); err != nil {
		s.indexFailed(err, "index account failed", a.ID)
	}
}

func (s *Service) indexUsable() bool {
	if s.Index == nil {
		return false
	}
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	return s.indexReady
}

// indexFailed sends listings back to the store until the next Reindex.
func (s *Service) indexFailed(err error, msg, id string) {
	s.indexMu.Lock()
	s.indexReady = false
	s.indexFailures++
	s.indexMu.Unlock()
	s.Logger.WithError(err).WithField("account_id", id).Warn(msg)
}

// Reindex copies every stored account into the index and prunes documents
// the store no longer has. Listings use the index once it succeeds.
func (s *Service) Reindex(ctx context.Context) (int, error) {
	if s.Index == nil {
		return 0, nil
	}
	s.indexMu.Lock()
	failures := s.indexFailures
	s.indexMu.Unlock()

	syncedAt := time.Now().UTC()
	var all []*entity.Account
	for skip := 0; ; {
		page, _, err := s.Repo.List(ctx, repository.ListQuery{Skip: skip, Limit: MaxLimit})
		if err != nil {
			return 0, fmt.Errorf("read accounts: %w", err)
		}
		all = append(all, page...)
		if len(page) < MaxLimit {
			break
		}
		skip += len(page)
	}
	for start := 0; start < len(all); start += MaxLimit {
		end := min(start+MaxLimit, len(all))
		if err := s.Index.IndexAll(ctx, all[start:end], syncedAt); err != nil {
			return 0, fmt.Errorf("index accounts: %w", err)
		}
	}
	if err := s.Index.Prune(ctx, syncedAt); err != nil {
		return 0, fmt.Errorf("prune index: %w", err)
	}

	s.indexMu.Lock()
	s.indexReady = s.indexFailures == failures
	s.indexMu.Unlock()
	return len(all), nil
}

func (s *Service) notifyCreated(ctx context.Context, a *entity.Account) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.AccountCreated(ctx, a); err != nil {
		s.Logger.WithError(err).WithField("account_id", a.ID).Warn("account created notification failed")
	}
}
