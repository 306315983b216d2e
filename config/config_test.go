package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
http:
  addr: ":9090"
  allowed_origins: ["https://pledg.in"]
price_feed:
  interval: 30s
  fallback_price: 9000000
calculator:
  max_term_months: 6
storage:
  driver: mongo
  mongo_uri: mongodb://localhost:27017
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, []string{"https://pledg.in"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, 30*time.Second, cfg.PriceFeed.Interval)
	assert.Equal(t, 9_000_000.0, cfg.PriceFeed.FallbackPrice)
	assert.Equal(t, 6, cfg.Calculator.MaxTermMonths)
	assert.Equal(t, 1, cfg.Calculator.MinTermMonths)
	assert.Equal(t, "mongo", cfg.Storage.Driver)
	assert.Equal(t, "waitlists", cfg.Storage.MongoCollection)
	assert.Equal(t, 15*time.Second, cfg.HTTP.ReadTimeout)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PLEDG_HTTP_ADDR", ":7070")
	t.Setenv("PLEDG_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("PLEDG_RATE_LIMIT", "5")
	t.Setenv("PLEDG_PRICE_FEED_INTERVAL", "2m")
	t.Setenv("PLEDG_STORAGE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://pledg@localhost/pledg")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("PLEDG_TRUST_PROXY", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.HTTP.Addr)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, 5, cfg.HTTP.RateLimit)
	assert.Equal(t, 2*time.Minute, cfg.PriceFeed.Interval)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, "postgres://pledg@localhost/pledg", cfg.Storage.PostgresDSN)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Cache.RedisURL)
	assert.True(t, cfg.HTTP.TrustProxy)
}

func TestLoad_InvalidEnvFallsBack(t *testing.T) {
	t.Setenv("PLEDG_RATE_LIMIT", "many")
	t.Setenv("PLEDG_FALLBACK_PRICE", "cheap")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.HTTP.RateLimit)
	assert.Equal(t, 8_500_000.0, cfg.PriceFeed.FallbackPrice)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Storage.Driver = "mongo"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Storage.Driver = "cassandra"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Calculator.MinTermMonths = 13
	assert.Error(t, cfg.Validate())

	assert.NoError(t, Default().Validate())
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http: [not, a, map"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
