package storage

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/videohub/backend/internal/config"
)

// ErrUnavailable indicates no storage backend has been configured.
var ErrUnavailable = errors.New("object storage unavailable")

// Asset describes an uploaded file.
type Asset struct {
	URL        string
	ExternalID string
	// Duration is the media length in seconds when the backend reports one.
	Duration float64
}

// Storage persists local files to a remote object store.
type Storage interface {
	Store(ctx context.Context, localPath string) (Asset, error)
	Remove(ctx context.Context, externalID string) error
}

// New builds the backend selected by cfg.Provider.
func New(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (Storage, error) {
	switch cfg.Provider {
	case config.StorageCloudinary:
		return NewCloudinaryStorage(cfg.Cloudinary, logger)
	case config.StorageS3:
		return NewS3Storage(ctx, cfg.ObjectStore)
	default:
		return nil, fmt.Errorf("storage provider %q: %w", cfg.Provider, ErrUnavailable)
	}
}
