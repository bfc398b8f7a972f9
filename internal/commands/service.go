// Package commands implements the write side of the API: input validation,
// ownership checks and orchestration of repositories, the engagement maintainer
// and object storage.
package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/videohub/backend/internal/apperr"
	"github.com/videohub/backend/internal/auth"
	"github.com/videohub/backend/internal/engagement"
	"github.com/videohub/backend/internal/logging"
	"github.com/videohub/backend/internal/readmodel"
	"github.com/videohub/backend/internal/repositories"
	"github.com/videohub/backend/internal/storage"
	"github.com/videohub/backend/internal/videos"
)

// AssetRemover schedules removal of a stored asset that is no longer referenced.
type AssetRemover interface {
	Enqueue(ctx context.Context, externalID string) error
}

// Deps are the collaborators of a Service.
type Deps struct {
	Store      repositories.Store
	Engine     *readmodel.Engine
	Engagement *engagement.Maintainer
	Sessions   *auth.Manager
	Storage    storage.Storage
	Janitor    AssetRemover
	Prober     videos.Prober
	Logger     *zap.Logger
}

// Service executes commands on behalf of an authenticated caller.
type Service struct {
	store      repositories.Store
	engine     *readmodel.Engine
	engagement *engagement.Maintainer
	sessions   *auth.Manager
	storage    storage.Storage
	janitor    AssetRemover
	prober     videos.Prober
	logger     *zap.Logger
	validate   *validator.Validate

	now   func() time.Time
	newID func() string
}

// New constructs a Service. Storage, Janitor and Prober may be nil; uploads then fail
// with a storage-unavailable error and replaced assets are left in place.
func New(deps Deps) (*Service, error) {
	if deps.Engine == nil || deps.Engagement == nil || deps.Sessions == nil {
		return nil, errors.New("commands: engine, engagement and sessions are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:      deps.Store,
		engine:     deps.Engine,
		engagement: deps.Engagement,
		sessions:   deps.Sessions,
		storage:    deps.Storage,
		janitor:    deps.Janitor,
		prober:     deps.Prober,
		logger:     logger,
		validate:   newValidator(),
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
	}, nil
}

// translate maps repository sentinels onto client-facing errors.
func translate(err error, action, notFound string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrNotFound):
		return apperr.NotFound("%s", notFound)
	case apperr.KindOf(err) != apperr.KindInternal:
		return err
	default:
		return apperr.Internal("failed to "+action, err)
	}
}

// requireOwner enforces that actorID owns the resource.
func requireOwner(ownerID, actorID, what string) error {
	if ownerID != actorID {
		return apperr.Forbidden("you do not own this %s", what)
	}
	return nil
}

// upload stores a local file. A missing path yields an empty asset.
func (s *Service) upload(ctx context.Context, localPath, what string) (storage.Asset, error) {
	if localPath == "" {
		return storage.Asset{}, nil
	}
	if s.storage == nil {
		return storage.Asset{}, apperr.Internal("file storage is not configured", storage.ErrUnavailable)
	}
	asset, err := s.storage.Store(ctx, localPath)
	if err != nil {
		return storage.Asset{}, apperr.Internal(fmt.Sprintf("failed to upload %s", what), err)
	}
	return asset, nil
}

// discard schedules removal of a replaced asset. Failures never fail the command.
func (s *Service) discard(ctx context.Context, externalIDs ...string) {
	for _, id := range externalIDs {
		if id == "" {
			continue
		}
		if s.janitor == nil {
			logging.FromContext(ctx).Warn("asset janitor not configured; leaving asset", zap.String("external_id", id))
			continue
		}
		if err := s.janitor.Enqueue(ctx, id); err != nil {
			logging.FromContext(ctx).Warn("failed to schedule asset removal", zap.String("external_id", id), zap.Error(err))
		}
	}
}

// cascadeFailed logs a cascade error after the primary delete already succeeded.
func (s *Service) cascadeFailed(ctx context.Context, what, id string, err error) {
	if err != nil {
		logging.FromContext(ctx).Error("cascade cleanup incomplete", zap.String("entity", what), zap.String("id", id), zap.Error(err))
	}
}
