package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/hugh/boardstack/pkg/config"
)

// ObjectStore abstracts the bucket backend used for uploaded assets
// (organization logos). Implementations return a public URL for the
// stored object.
type ObjectStore interface {
	Upload(ctx context.Context, path, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, path string) error
}

// New builds the configured backend. An empty provider disables uploads;
// callers must treat a nil store as "no object storage available".
func New(ctx context.Context, cfg *config.StorageConfig) (ObjectStore, error) {
	switch cfg.Provider {
	case "":
		return nil, nil
	case "gcs":
		return newGCSStore(ctx, cfg)
	case "s3":
		return newS3Store(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported storage provider: %q", cfg.Provider)
	}
}
