package storage

import (
	"context"
	"fmt"

	"github.com/andresuchdata/autopo-lab/internal/cache"
	"github.com/andresuchdata/autopo-lab/internal/config"
	"github.com/andresuchdata/autopo-lab/internal/drive"
)

const (
	BackendLocal  = "local"
	BackendS3     = "s3"
	BackendMinio  = "minio"
	BackendGDrive = "gdrive"
)

// Open builds the configured backend and wraps it with the listing cache.
func Open(ctx context.Context, cfg config.StorageConfig, listings cache.ListingCache) (*CachedStore, error) {
	inner, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewCachedStore(inner, listings), nil
}

func openBackend(ctx context.Context, cfg config.StorageConfig) (FileStore, error) {
	switch cfg.Backend {
	case "", BackendLocal:
		return NewLocalStore(cfg.LocalRoot)
	case BackendS3:
		return NewS3Store(cfg.S3)
	case BackendMinio:
		return NewMinioStore(cfg.Minio)
	case BackendGDrive:
		if cfg.Drive.CredentialsJSON == "" {
			return nil, fmt.Errorf("GOOGLE_DRIVE_CREDENTIALS_JSON must be set for the gdrive backend")
		}
		return drive.NewService(ctx, cfg.Drive.CredentialsJSON, cfg.Drive.RootFolderID)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
