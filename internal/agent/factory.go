package agent

import (
	"context"
	"fmt"

	"github.com/mwantia/mediaindex/internal/config"
	"github.com/mwantia/mediaindex/pkg/db/store"
	"github.com/mwantia/mediaindex/pkg/storage"
	"github.com/mwantia/mediaindex/pkg/storage/local"
	"github.com/mwantia/mediaindex/pkg/storage/s3"
)

func newStore(ctx context.Context, cfg config.MetadataConfig) (*store.SQLiteStore, error) {
	switch cfg.Type {
	case config.MetadataTypeSQLite:
		st, err := store.NewSQLiteStore(store.SQLiteConfig{Path: cfg.SQLite.Path})
		if err != nil {
			return nil, err
		}
		if err := st.Connect(ctx); err != nil {
			return nil, fmt.Errorf("failed to connect index store: %w", err)
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, fmt.Errorf("failed to migrate index store: %w", err)
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unsupported metadata type '%s'", cfg.Type)
	}
}

// newBackend selects the storage backend once from configuration.
func newBackend(ctx context.Context, cfg config.StorageConfig) (storage.Backend, error) {
	var backend storage.Backend
	var err error

	switch cfg.Type {
	case config.StorageTypeLocal:
		backend, err = local.New(local.Config{
			RootPath:   cfg.Local.Path,
			CreateDirs: cfg.Local.CreateDirs,
		})
	case config.StorageTypeS3:
		backend, err = s3.New(ctx, s3.Config{
			Endpoint:  cfg.S3.Endpoint,
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			UseSSL:    cfg.S3.UseSSL,
			Prefix:    cfg.S3.Prefix,
		})
	default:
		return nil, fmt.Errorf("unsupported storage type '%s'", cfg.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s storage backend: %w", cfg.Type, err)
	}

	return storage.Instrument(backend), nil
}
