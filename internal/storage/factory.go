package storage

import (
	"context"
	"fmt"

	"github.com/vojaudio/voj-server/internal/config"
)

// NewAdapter creates a new storage adapter based on the configuration
func NewAdapter(ctx context.Context, cfg config.StorageConfig) (Adapter, error) {
	switch cfg.Backend {
	case config.StorageBackendLocal:
		return NewLocalAdapter(cfg.LocalPath)
	case config.StorageBackendS3:
		return NewS3Adapter(ctx, S3Options{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			Bucket:          cfg.S3Bucket,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}
