package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "memory", cfg.StorageDriver)
	assert.Equal(t, "souk:", cfg.StoragePrefix)
	assert.Equal(t, "local", cfg.SyncTransport)
	assert.Equal(t, 10*time.Second, cfg.RemoteTimeout)
	assert.Nil(t, cfg.UseMock)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("STORAGE_DRIVER", "Redis")
	t.Setenv("USE_MOCK", "0")
	t.Setenv("USE_MOCK_LISTINGS", "1")
	t.Setenv("REMOTE_API_URL", "https://api.souk.dz/api/")
	t.Setenv("REMOTE_TIMEOUT", "3s")
	t.Setenv("STORAGE_QUOTA_BYTES", "5242880")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "redis", cfg.StorageDriver)
	require.NotNil(t, cfg.UseMock)
	assert.False(t, *cfg.UseMock)
	require.NotNil(t, cfg.UseMockListings)
	assert.True(t, *cfg.UseMockListings)
	assert.Nil(t, cfg.UseMockUsers)
	assert.Equal(t, "https://api.souk.dz/api", cfg.RemoteAPIURL)
	assert.Equal(t, 3*time.Second, cfg.RemoteTimeout)
	assert.EqualValues(t, 5242880, cfg.StorageQuotaBytes)
}

func TestFlag(t *testing.T) {
	assert.Nil(t, flag(""))
	assert.Nil(t, flag("maybe"))
	assert.True(t, *flag("TRUE"))
	assert.False(t, *flag("0"))
}
