package main

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/joshuaoni/user-management-dashboard/config"
	"github.com/joshuaoni/user-management-dashboard/internal/container"
	"github.com/joshuaoni/user-management-dashboard/internal/domain/entity"
	"github.com/joshuaoni/user-management-dashboard/internal/domain/repository"
	"github.com/joshuaoni/user-management-dashboard/internal/infrastructure/search"
	"github.com/joshuaoni/user-management-dashboard/pkg/helpers"
)

// seed creates the first administrator, or promotes an existing account with the same email.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)

	email := strings.TrimSpace(cfg.SeedAdminEmail)
	if email == "" || len(cfg.SeedAdminPassword) < 8 {
		log.Fatal("SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD (min 8 characters) are required")
	}

	ctx := context.Background()
	repo, closeStore, err := container.OpenAccountStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("account store: %v", err)
	}
	defer closeStore()

	existing, err := repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role == entity.RoleAdmin {
			logger.WithField("account_id", existing.ID).Info("admin already seeded")
			return
		}
		admin := entity.RoleAdmin
		promoted, err := repo.Update(ctx, existing.ID, entity.AccountPatch{Role: &admin})
		if err != nil {
			logger.Fatalf("promote account: %v", err)
		}
		logger.WithField("account_id", existing.ID).Info("existing account promoted to admin")
		indexAccount(ctx, cfg, logger, promoted)
		return
	case !errors.Is(err, repository.ErrNotFound):
		logger.Fatalf("lookup admin: %v", err)
	}

	hash, err := helpers.HashPassword(cfg.SeedAdminPassword)
	if err != nil {
		logger.Fatalf("failed to hash password: %v", err)
	}
	a := &entity.Account{
		Name:         cfg.SeedAdminName,
		Email:        email,
		PasswordHash: hash,
		Role:         entity.RoleAdmin,
	}
	a.ApplyDefaults()
	if err := repo.Create(ctx, a); err != nil {
		logger.Fatalf("failed to seed admin: %v", err)
	}
	helpers.LogInfo(logger, "seeded admin", logrus.Fields{"account_id": a.ID, "email": a.Email})
	indexAccount(ctx, cfg, logger, a)
}

// indexAccount mirrors the seeded admin into the search index so a running
// server lists it without waiting for its next rebuild.
func indexAccount(ctx context.Context, cfg *config.Config, logger *logrus.Logger, a *entity.Account) {
	if cfg.SearchBackend != config.SearchElasticsearch {
		return
	}
	es, err := helpers.NewESClient(cfg.ESAddrs(), cfg.ElasticsearchUser, cfg.ElasticsearchPass)
	if err != nil {
		helpers.LogError(logger, "elasticsearch client", err, nil)
		return
	}
	ix := search.NewAccountIndex(es, cfg.ESAccountsIndex)
	if err := ix.EnsureIndex(ctx); err != nil {
		helpers.LogError(logger, "ensure account index", err, nil)
		return
	}
	if err := ix.Index(ctx, a); err != nil {
		helpers.LogError(logger, "index seeded admin", err, logrus.Fields{"account_id": a.ID})
	}
}
