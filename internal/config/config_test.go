package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("SESSION_TTL_DAYS", "")
	t.Setenv("GATEWAY_TIMEOUT_SECONDS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreDriverSQLite, cfg.Store.Driver)
	assert.Equal(t, 7*24*time.Hour, cfg.Session.TTL())
	assert.Equal(t, 30*time.Second, cfg.Gateway.Timeout())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "redis")
	t.Setenv("SESSION_TTL_DAYS", "3")
	t.Setenv("GATEWAY_TIMEOUT_SECONDS", "5")
	t.Setenv("API_URL", "http://backend:9000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreDriverRedis, cfg.Store.Driver)
	assert.Equal(t, 72*time.Hour, cfg.Session.TTL())
	assert.Equal(t, 5*time.Second, cfg.Gateway.Timeout())
	assert.Equal(t, "http://backend:9000", cfg.Gateway.BaseURL)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "etcd")

	_, err := Load()
	assert.Error(t, err)
}

func TestInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("SESSION_TTL_DAYS", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Session.TTLDays)
}

func TestBackendSettings(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("BACKEND_SEED_DEMO", "false")
	t.Setenv("AUTH_REVOCATION_STORE", "redis")
	t.Setenv("APP_HOST", "127.0.0.1")
	t.Setenv("APP_PORT", "8081")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.App.SeedDemo)
	assert.Equal(t, "redis", cfg.Auth.RevocationStore)
	assert.Equal(t, "127.0.0.1:8081", cfg.App.Addr())
}
