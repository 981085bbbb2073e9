package storage

import (
	"context"
	"fmt"

	"docstack/internal/config"
)

// NewBackendFromConfig selects and constructs the configured backend. The
// configured timeout bounds every blob operation regardless of backend.
func NewBackendFromConfig(ctx context.Context, cfg config.StorageConfig) (Backend, error) {
	var (
		backend Backend
		err     error
	)
	switch cfg.Type {
	case config.StorageTypeLocal:
		basePath := cfg.LocalPath
		if basePath == "" {
			basePath = "./uploads"
		}
		backend, err = NewLocalBackend(basePath)

	case config.StorageTypeS3:
		if cfg.S3Bucket == "" || cfg.S3Region == "" {
			return nil, fmt.Errorf("s3 backend requires bucket and region")
		}
		backend, err = NewS3Backend(ctx, cfg.S3Bucket, cfg.S3Region)

	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
	if err != nil {
		return nil, err
	}
	return WithTimeout(backend, cfg.Timeout), nil
}
