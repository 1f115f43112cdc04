package router

import (
	"context"

	"github.com/joshuaoni/user-management-dashboard/internal/application"
	"github.com/joshuaoni/user-management-dashboard/internal/container"
	"github.com/joshuaoni/user-management-dashboard/internal/infrastructure/images"
	"github.com/joshuaoni/user-management-dashboard/internal/infrastructure/notify"
	"github.com/joshuaoni/user-management-dashboard/internal/infrastructure/search"
	handlers "github.com/joshuaoni/user-management-dashboard/internal/interface/http"
	"github.com/joshuaoni/user-management-dashboard/internal/interface/middleware"
	"github.com/joshuaoni/user-management-dashboard/internal/router/modules"
)

type AccountModuleDeps struct {
	Service *application.Service
	Handler *handlers.AccountHandler
}

func serviceOptions() []application.Option {
	cfg := container.GetConfig()
	opts := []application.Option{application.WithMaxUploadBytes(cfg.MaxUploadBytes)}

	if gcs := container.GetGCS(); gcs != nil && cfg.GCSBucket != "" {
		opts = append(opts, application.WithImageStore(images.NewGCSStore(gcs, cfg.GCSBucket, cfg.MaxUploadBytes)))
	} else {
		opts = append(opts, application.WithImageStore(images.NewInlineStore(cfg.MaxUploadBytes)))
	}
	if es := container.GetES(); es != nil {
		opts = append(opts, application.WithAccountIndex(search.NewAccountIndex(es, cfg.ESAccountsIndex)))
	}
	if pub := container.GetRabbitPub(); pub != nil && cfg.MailSendEnabled {
		opts = append(opts, application.WithNotifier(notify.NewRabbitNotifier(pub, notify.Branding{
			AppName:     cfg.AppName,
			CompanyName: cfg.CompanyName,
			LoginURL:    cfg.LoginURL,
		})))
	}
	return opts
}

func buildAccountDeps() AccountModuleDeps {
	cfg := container.GetConfig()
	service := application.NewService(
		container.GetAccountRepository(),
		container.GetJWT(),
		container.GetLogger(),
		serviceOptions()...,
	)
	handler := handlers.NewAccountHandler(service, container.GetLogger(), cfg.CookieDomain, cfg.CookieSecure)
	return AccountModuleDeps{Service: service, Handler: handler}
}

func healthChecks() []handlers.Check {
	var checks []handlers.Check
	if pool := container.GetPGPool(); pool != nil {
		checks = append(checks, handlers.Check{Name: "postgres", Ping: pool.Ping})
	}
	if client := container.GetMongo(); client != nil {
		checks = append(checks, handlers.Check{Name: "mongo", Ping: func(ctx context.Context) error { return client.Ping(ctx, nil) }})
	}
	if rdb := container.GetRedis(); rdb != nil {
		checks = append(checks, handlers.Check{Name: "redis", Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }})
	}
	return checks
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	logger := container.GetLogger()
	accountDeps := buildAccountDeps()
	auth := middleware.Authenticate(container.GetJWT(), container.GetAccountRepository(), logger)

	if svc := accountDeps.Service; svc.Index != nil {
		// Listings come from the store until the index has caught up.
		go func() {
			n, err := svc.Reindex(context.Background())
			if err != nil {
				logger.WithError(err).Warn("account reindex failed; listing from the store")
				return
			}
			logger.WithField("accounts", n).Info("account index rebuilt")
		}()
	}

	r.Add(modules.NewAccountModule(accountDeps.Handler, auth))
	r.Add(modules.NewHealthModule(handlers.NewHealthHandler(logger, healthChecks()...)))
	if container.GetConfig().DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
