package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// JanitorConfig controls the concurrency characteristics of the janitor.
type JanitorConfig struct {
	QueueSize int
	Workers   int
	// Timeout bounds a single removal.
	Timeout time.Duration
}

// Janitor removes superseded assets in the background. Failures are logged and
// dropped: an orphaned blob never fails the request that replaced it.
type Janitor struct {
	storage Storage
	logger  *zap.Logger
	timeout time.Duration

	jobs   chan string
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// ErrJanitorClosed is returned by Enqueue after Shutdown.
var ErrJanitorClosed = errors.New("asset janitor closed")

// NewJanitor starts cfg.Workers goroutines draining removal requests.
func NewJanitor(storage Storage, cfg JanitorConfig, logger *zap.Logger) *Janitor {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())

	j := &Janitor{
		storage: storage,
		logger:  logger,
		timeout: cfg.Timeout,
		jobs:    make(chan string, cfg.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
	}

	j.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go j.worker()
	}

	return j
}

// Enqueue schedules removal of externalID. Empty IDs are ignored.
func (j *Janitor) Enqueue(ctx context.Context, externalID string) error {
	if externalID == "" {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-j.ctx.Done():
		return ErrJanitorClosed
	default:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-j.ctx.Done():
		return ErrJanitorClosed
	case j.jobs <- externalID:
		return nil
	}
}

// Shutdown stops accepting work and waits for queued removals to finish.
func (j *Janitor) Shutdown(ctx context.Context) error {
	j.once.Do(func() {
		j.cancel()
		close(j.jobs)
	})

	done := make(chan struct{})
	go func() {
		j.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (j *Janitor) worker() {
	defer j.wg.Done()

	// Queued jobs are drained even after cancellation so Shutdown flushes the backlog.
	for id := range j.jobs {
		j.remove(id)
	}
}

func (j *Janitor) remove(externalID string) {
	if j.storage == nil {
		j.logger.Error("asset janitor has no storage", zap.String("external_id", externalID))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if err := j.storage.Remove(ctx, externalID); err != nil {
		j.logger.Warn("asset removal failed", zap.String("external_id", externalID), zap.Error(err))
		return
	}
	j.logger.Debug("asset removed", zap.String("external_id", externalID))
}
