package config_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bect/levelshare/pkg/levelshare/config"
)

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SESSION_SECRET", "test-secret")
	t.Setenv("PORT", "9090")
	t.Setenv("ADMIN_KEY", "elevate-me")
	t.Setenv("STORAGE_BACKEND", "memory")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "test-secret", cfg.SessionSecret)
	assert.Equal(t, "elevate-me", cfg.AdminKey)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, int64(3145728), cfg.UploadLimitBytes)
	assert.Equal(t, 20, cfg.SearchLimit)
	assert.Equal(t, 720, cfg.TokenTTLHours)
}

func TestLoadRequiresSessionSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *config.ServerConfig {
		return &config.ServerConfig{
			Port:             "8080",
			SessionSecret:    "secret",
			TokenTTLHours:    720,
			UploadLimitBytes: 1 << 20,
			Storage:          config.StorageConfig{Backend: "memory"},
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("fs backend needs base dir", func(t *testing.T) {
		cfg := base()
		cfg.Storage.Backend = "fs"
		assert.Error(t, cfg.Validate())

		cfg.Storage.FSBaseDir = "/tmp/blobs"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("s3 backend needs bucket", func(t *testing.T) {
		cfg := base()
		cfg.Storage.Backend = "s3"
		assert.Error(t, cfg.Validate())

		cfg.Storage.S3Bucket = "levels"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := base()
		cfg.Storage.Backend = "carrier-pigeon"
		assert.Error(t, cfg.Validate())
	})
}

func TestBuildServicesInMemory(t *testing.T) {
	t.Setenv("SESSION_SECRET", "test-secret")
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("DATABASE_URL", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	services, err := cfg.BuildServices(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, services.Repository)
	assert.NotNil(t, services.BlobStore)
	assert.NotNil(t, services.Identity)
	assert.NotNil(t, services.Content)
	assert.NotNil(t, services.Admin)
}
