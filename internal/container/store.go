package container

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/joshuaoni/user-management-dashboard/config"
	"github.com/joshuaoni/user-management-dashboard/internal/domain/repository"
	"github.com/joshuaoni/user-management-dashboard/internal/infrastructure/cache"
	"github.com/joshuaoni/user-management-dashboard/internal/infrastructure/memory"
	"github.com/joshuaoni/user-management-dashboard/internal/infrastructure/mongodb"
	pginfra "github.com/joshuaoni/user-management-dashboard/internal/infrastructure/postgres"
)

// OpenAccountStore connects the driver selected by STORE_DRIVER, prepares its
// schema and registers the resulting repository. The returned func releases connections.
func OpenAccountStore(ctx context.Context, c *config.Config, log *logrus.Logger) (repository.AccountRepository, func(), error) {
	var (
		repo    repository.AccountRepository
		cleanup = func() {}
	)

	switch c.StoreDriver {
	case config.StorePostgres:
		if err := pginfra.Migrate(c.PostgresDSN(), c.MigrationsDir, log); err != nil {
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		pool, err := pginfra.NewPool(ctx, c.PostgresDSN(), c.DBMaxConns, c.DBMinConns, c.DBMaxConnLife)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		SetPGPool(pool)
		repo = pginfra.NewAccountRepository(pool)
		cleanup = pool.Close

	case config.StoreMongo:
		client, err := mongodb.NewClient(ctx, c.MongoURI)
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongo: %w", err)
		}
		mrepo := mongodb.NewAccountRepository(client.Database(c.MongoDatabase))
		if err := mrepo.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, nil, fmt.Errorf("mongo indexes: %w", err)
		}
		SetMongo(client)
		repo = mrepo
		cleanup = func() { _ = client.Disconnect(context.Background()) }

	case config.StoreMemory:
		log.Warn("using in-memory account store; data is lost on restart")
		repo = memory.NewAccountRepository()

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}

	if c.AccountCacheEnabled && GetRedis() != nil {
		repo = cache.NewAccountRepository(repo, GetRedis(), c.AccountCacheTTL, log)
	}
	SetAccountRepository(repo)
	log.WithField("driver", c.StoreDriver).Info("account store ready")
	return repo, cleanup, nil
}
