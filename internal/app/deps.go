package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/videohub/backend/internal/auth"
	"github.com/videohub/backend/internal/commands"
	"github.com/videohub/backend/internal/config"
	"github.com/videohub/backend/internal/db"
	"github.com/videohub/backend/internal/engagement"
	"github.com/videohub/backend/internal/handlers"
	"github.com/videohub/backend/internal/middleware"
	"github.com/videohub/backend/internal/readmodel"
	"github.com/videohub/backend/internal/repositories"
	"github.com/videohub/backend/internal/storage"
	"github.com/videohub/backend/internal/videos"
)

// services is everything serve needs besides the HTTP server itself.
type services struct {
	HTTP       handlers.Dependencies
	Engagement *engagement.Maintainer
	cleanup    []func(context.Context) error
}

// Close releases resources in reverse order of acquisition.
func (s *services) Close(ctx context.Context) error {
	var errs []error
	for i := len(s.cleanup) - 1; i >= 0; i-- {
		if err := s.cleanup[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// buildDependencies wires together concrete implementations used by the HTTP handlers.
// pool may be nil when cfg selects the memory store.
func buildDependencies(ctx context.Context, pool *pgxpool.Pool, cfg config.Config, logger *zap.Logger) (*services, error) {
	svc := &services{}

	var store repositories.Store
	switch cfg.Store {
	case config.StoreMemory:
		store = repositories.NewMemoryStore()
		logger.Warn("using the in-memory store; data is lost on restart")
	case config.StorePostgres:
		if pool == nil {
			return nil, errors.New("postgres store selected but no database pool was provided")
		}
		store = repositories.NewPostgresStore(db.Pool(pool))
		svc.HTTP.HealthCheck = pool.Ping
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}

	blobs, err := storage.New(ctx, cfg.Storage, logger.Named("storage"))
	if err != nil {
		if !errors.Is(err, storage.ErrUnavailable) || cfg.Env == "production" {
			return nil, fmt.Errorf("configure storage: %w", err)
		}
		logger.Warn("object storage unavailable; uploads will fail", zap.Error(err))
		blobs = nil
	}

	issuer, err := auth.NewTokenIssuer(cfg.Auth.AccessSecret, cfg.Auth.RefreshSecret, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL)
	if err != nil {
		return nil, fmt.Errorf("configure tokens: %w", err)
	}
	sessions := auth.NewManager(issuer, store.Users)
	engine := readmodel.NewEngine(store)
	maintainer := engagement.NewMaintainer(store, logger.Named("engagement"))

	deps := commands.Deps{
		Store:      store,
		Engine:     engine,
		Engagement: maintainer,
		Sessions:   sessions,
		Prober:     videos.NewFFProbe(cfg.Probe.Binary, cfg.Probe.Timeout),
		Logger:     logger,
	}
	if blobs != nil {
		janitor := storage.NewJanitor(blobs, storage.JanitorConfig{
			QueueSize: cfg.Janitor.QueueSize,
			Workers:   cfg.Janitor.Workers,
		}, logger.Named("janitor"))
		deps.Storage = blobs
		deps.Janitor = janitor
		svc.cleanup = append(svc.cleanup, janitor.Shutdown)
	}
	cmds, err := commands.New(deps)
	if err != nil {
		return nil, err
	}

	limiter, err := buildLimiter(cfg.RateLimit, logger, svc)
	if err != nil {
		return nil, err
	}

	svc.Engagement = maintainer
	svc.HTTP.Commands = cmds
	svc.HTTP.Engine = engine
	svc.HTTP.Auth = sessions
	svc.HTTP.Limiter = limiter
	svc.HTTP.Uploads = handlers.Uploads{Dir: cfg.Storage.UploadDir, MaxBytes: cfg.Storage.MaxUploadBytes}
	svc.HTTP.SecureCookies = cfg.Env == "production"
	svc.HTTP.Logger = logger
	return svc, nil
}

func buildLimiter(cfg config.RateLimitConfig, logger *zap.Logger, svc *services) (middleware.RateLimiter, error) {
	if cfg.RedisURL == "" {
		return middleware.NewIPRateLimiter(cfg.Requests, cfg.Window, cfg.Burst, cfg.TTL), nil
	}
	limiter, client, err := middleware.NewRedisRateLimiter(cfg.RedisURL, cfg.Requests, cfg.Burst, cfg.Window, logger.Named("ratelimit"))
	if err != nil {
		return nil, fmt.Errorf("configure rate limiter: %w", err)
	}
	svc.cleanup = append(svc.cleanup, func(context.Context) error { return client.Close() })
	return limiter, nil
}
