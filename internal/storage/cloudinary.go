package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"

	"github.com/videohub/backend/internal/config"
)

// cloudinaryUploader is the subset of the Cloudinary upload API the backend uses.
type cloudinaryUploader interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

// CloudinaryStorage uploads files with resource type detection and retries.
type CloudinaryStorage struct {
	api        cloudinaryUploader
	folder     string
	timeout    time.Duration
	maxRetries int
	logger     *zap.Logger
}

// NewCloudinaryStorage connects to the configured Cloudinary account.
func NewCloudinaryStorage(cfg config.CloudinaryConfig, logger *zap.Logger) (*CloudinaryStorage, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials are missing: %w", ErrUnavailable)
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("initialise cloudinary: %w", err)
	}
	return newCloudinaryStorage(&cld.Upload, cfg, logger), nil
}

func newCloudinaryStorage(api cloudinaryUploader, cfg config.CloudinaryConfig, logger *zap.Logger) *CloudinaryStorage {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.UploadTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return &CloudinaryStorage{api: api, folder: cfg.Folder, timeout: timeout, maxRetries: retries, logger: logger}
}

// Store uploads the file at localPath. The external ID encodes the resource type
// so Remove can address the asset without a lookup.
func (s *CloudinaryStorage) Store(ctx context.Context, localPath string) (Asset, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	params := uploader.UploadParams{
		Folder:       s.folder,
		ResourceType: "auto",
	}

	var result *uploader.UploadResult
	operation := func() error {
		res, err := s.api.Upload(ctx, localPath, params)
		if err != nil {
			return err
		}
		if res == nil {
			return errors.New("empty upload response")
		}
		if res.Error.Message != "" {
			return backoff.Permanent(errors.New(res.Error.Message))
		}
		result = res
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = s.timeout / 2
	err := backoff.RetryNotify(operation, backoff.WithContext(backoff.WithMaxRetries(b, uint64(s.maxRetries)), ctx),
		func(err error, wait time.Duration) {
			s.logger.Warn("cloudinary upload attempt failed", zap.String("path", localPath), zap.Error(err), zap.Duration("backoff", wait))
		})
	if err != nil {
		return Asset{}, fmt.Errorf("cloudinary upload: %w", err)
	}

	return Asset{
		URL:        result.SecureURL,
		ExternalID: result.ResourceType + ":" + result.PublicID,
	}, nil
}

// Remove destroys the asset. Missing assets count as removed.
func (s *CloudinaryStorage) Remove(ctx context.Context, externalID string) error {
	resourceType, publicID := splitExternalID(externalID)
	if publicID == "" {
		return fmt.Errorf("cloudinary remove: empty public id")
	}

	res, err := s.api.Destroy(ctx, uploader.DestroyParams{PublicID: publicID, ResourceType: resourceType})
	if err != nil {
		return fmt.Errorf("cloudinary destroy %s: %w", publicID, err)
	}
	if res != nil && res.Error.Message != "" {
		return fmt.Errorf("cloudinary destroy %s: %s", publicID, res.Error.Message)
	}
	if res != nil && res.Result != "ok" && res.Result != "not found" {
		return fmt.Errorf("cloudinary destroy %s: unexpected result %q", publicID, res.Result)
	}
	return nil
}

func splitExternalID(externalID string) (resourceType, publicID string) {
	kind, id, ok := strings.Cut(externalID, ":")
	if !ok {
		return "image", externalID
	}
	return kind, id
}

var _ Storage = (*CloudinaryStorage)(nil)
