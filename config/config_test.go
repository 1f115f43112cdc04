package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("JWT_SECRET", "")

	cfg := Load()

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, StorePostgres, cfg.StoreDriver)
	assert.Equal(t, SearchStore, cfg.SearchBackend)
	assert.Equal(t, time.Minute, cfg.AccountCacheTTL)
	assert.False(t, cfg.CookieSecure)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins())
	assert.Equal(t, int64(5<<20), cfg.MaxUploadBytes)
}

func TestLoadProductionCookieSecure(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	cfg := Load()
	assert.True(t, cfg.IsProduction())
	assert.True(t, cfg.CookieSecure)

	t.Setenv("COOKIE_SECURE", "false")
	assert.False(t, Load().CookieSecure)
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("DB_MAX_CONNS", "lots")
	t.Setenv("ACCOUNT_CACHE_TTL", "soon")
	t.Setenv("HTTP_LOG_ENABLED", "maybe")

	cfg := Load()
	assert.Equal(t, int32(10), cfg.DBMaxConns)
	assert.Equal(t, time.Minute, cfg.AccountCacheTTL)
	assert.False(t, cfg.HTTPLogEnabled)
}

func TestValidate(t *testing.T) {
	t.Run("missing secret", func(t *testing.T) {
		cfg := &Config{StoreDriver: StoreMemory, SearchBackend: SearchStore}
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "JWT_SECRET")
	})

	t.Run("unknown drivers", func(t *testing.T) {
		cfg := &Config{JWTSecret: "s", StoreDriver: "sqlite", SearchBackend: "solr"}
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "STORE_DRIVER")
		assert.Contains(t, err.Error(), "SEARCH_BACKEND")
	})

	t.Run("valid", func(t *testing.T) {
		cfg := &Config{JWTSecret: "s", StoreDriver: StoreMongo, SearchBackend: SearchElasticsearch}
		assert.NoError(t, cfg.Validate())
	})
}

func TestPostgresDSNAndLists(t *testing.T) {
	cfg := &Config{
		DBUser: "u", DBPassword: "p", DBHost: "db", DBPort: "5432", DBName: "users", DBSSLMode: "disable",
		ElasticsearchAddrs: " http://a:9200 , ,http://b:9200",
	}
	assert.Equal(t, "postgres://u:p@db:5432/users?sslmode=disable", cfg.PostgresDSN())
	assert.Equal(t, []string{"http://a:9200", "http://b:9200"}, cfg.ESAddrs())
}
