// Package config collects every tunable of the server into one structure
// read from the environment, and knows how to build the wired services
// from it.
package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bect/levelshare/pkg/levelshare"
	"github.com/bect/levelshare/pkg/levelshare/admin"
	repomemory "github.com/bect/levelshare/pkg/levelshare/repo/memory"
	repopg "github.com/bect/levelshare/pkg/levelshare/repo/postgres"
	fsstorage "github.com/bect/levelshare/pkg/levelshare/storage/fs"
	memorystorage "github.com/bect/levelshare/pkg/levelshare/storage/memory"
	s3storage "github.com/bect/levelshare/pkg/levelshare/storage/s3"
)

// ServerConfig represents server configuration for the levelshare service
type ServerConfig struct {
	Port        string `env:"PORT" env-default:"8080"`
	Environment string `env:"ENVIRONMENT" env-default:"development"`

	// Record store configuration. Empty or "memory" selects the in-memory
	// repository; a postgres:// URL selects the pgx-backed one.
	DatabaseURL string `env:"DATABASE_URL" env-default:""`
	AutoMigrate bool   `env:"AUTO_MIGRATE" env-default:"true"`

	// Identity secrets and policy
	SessionSecret string `env:"SESSION_SECRET" env-required:"true"`
	AdminKey      string `env:"ADMIN_KEY" env-default:""`
	TokenTTLHours int    `env:"TOKEN_TTL_HOURS" env-default:"720"`

	// Content policy
	UploadLimitBytes int64 `env:"UPLOAD_LIMIT_BYTES" env-default:"3145728"`
	SearchLimit      int   `env:"SEARCH_LIMIT" env-default:"20"`

	Storage StorageConfig
}

// StorageConfig selects and parameterizes the blob store backend.
type StorageConfig struct {
	Backend string `env:"STORAGE_BACKEND" env-default:"memory"` // memory, fs, s3

	FSBaseDir   string `env:"FS_BASE_DIR" env-default:"./data/blobs"`
	FSURLPrefix string `env:"FS_URL_PREFIX" env-default:""`

	S3Region          string `env:"S3_REGION" env-default:"us-east-1"`
	S3Bucket          string `env:"S3_BUCKET" env-default:""`
	S3AccessKeyID     string `env:"S3_ACCESS_KEY_ID" env-default:""`
	S3SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY" env-default:""`
	S3Endpoint        string `env:"S3_ENDPOINT" env-default:""`
	S3UsePathStyle    bool   `env:"S3_USE_PATH_STYLE" env-default:"false"`
	S3PresignSeconds  int    `env:"S3_PRESIGN_SECONDS" env-default:"3600"`
	S3CreateBucket    bool   `env:"S3_CREATE_BUCKET" env-default:"false"`
}

// Load reads the server configuration from the environment.
func Load() (*ServerConfig, error) {
	var cfg ServerConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}
	if c.SessionSecret == "" {
		return errors.New("session secret is required")
	}
	if c.TokenTTLHours <= 0 {
		return errors.New("token ttl must be positive")
	}
	if c.UploadLimitBytes <= 0 {
		return errors.New("upload limit must be positive")
	}

	switch c.Storage.Backend {
	case "memory":
	case "fs":
		if c.Storage.FSBaseDir == "" {
			return errors.New("fs base dir is required for fs storage")
		}
	case "s3":
		if c.Storage.S3Bucket == "" {
			return errors.New("s3 bucket is required for s3 storage")
		}
	default:
		return fmt.Errorf("unsupported storage backend: %s", c.Storage.Backend)
	}

	return nil
}

// Services bundles the wired service graph built from a ServerConfig.
type Services struct {
	Repository levelshare.Repository
	BlobStore  levelshare.BlobStore
	Identity   levelshare.IdentityService
	Content    levelshare.Service
	Admin      admin.Service
}

// BuildServices constructs the repository, blob store and all services.
func (c *ServerConfig) BuildServices(ctx context.Context) (*Services, error) {
	repo, err := c.buildRepository(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build repository: %w", err)
	}

	store, err := c.buildBlobStore()
	if err != nil {
		return nil, fmt.Errorf("failed to build blob store: %w", err)
	}

	identity, err := levelshare.NewIdentityService(repo, levelshare.IdentityConfig{
		SigningKey: []byte(c.SessionSecret),
		AdminKey:   []byte(c.AdminKey),
		TokenTTL:   time.Duration(c.TokenTTLHours) * time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build identity service: %w", err)
	}

	content, err := levelshare.New(
		levelshare.WithRepository(repo),
		levelshare.WithBlobStore(store),
		levelshare.WithUploadLimit(c.UploadLimitBytes),
		levelshare.WithSearchLimit(c.SearchLimit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build content service: %w", err)
	}

	adminSvc, err := admin.New(content, repo)
	if err != nil {
		return nil, fmt.Errorf("failed to build admin service: %w", err)
	}

	return &Services{
		Repository: repo,
		BlobStore:  store,
		Identity:   identity,
		Content:    content,
		Admin:      adminSvc,
	}, nil
}

// buildRepository creates a Repository based on the configuration
func (c *ServerConfig) buildRepository(ctx context.Context) (levelshare.Repository, error) {
	if c.DatabaseURL == "" || c.DatabaseURL == "memory" {
		return repomemory.New(), nil
	}

	if c.AutoMigrate {
		if err := repopg.Migrate(ctx, c.DatabaseURL); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	poolCfg, err := pgxpool.ParseConfig(c.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	return repopg.NewWithPool(pool), nil
}

// buildBlobStore creates a BlobStore based on the backend configuration
func (c *ServerConfig) buildBlobStore() (levelshare.BlobStore, error) {
	switch c.Storage.Backend {
	case "memory":
		return memorystorage.New(), nil

	case "fs":
		return fsstorage.New(fsstorage.Config{
			BaseDir:   c.Storage.FSBaseDir,
			URLPrefix: c.Storage.FSURLPrefix,
		})

	case "s3":
		return s3storage.New(s3storage.Config{
			Region:                 c.Storage.S3Region,
			Bucket:                 c.Storage.S3Bucket,
			AccessKeyID:            c.Storage.S3AccessKeyID,
			SecretAccessKey:        c.Storage.S3SecretAccessKey,
			Endpoint:               c.Storage.S3Endpoint,
			UsePathStyle:           c.Storage.S3UsePathStyle,
			PresignDuration:        c.Storage.S3PresignSeconds,
			CreateBucketIfNotExist: c.Storage.S3CreateBucket,
		})

	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", c.Storage.Backend)
	}
}
