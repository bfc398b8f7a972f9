// Package jobs runs periodic maintenance on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// PollSweeper closes polls whose end time has passed.
type PollSweeper interface {
	ExpirePolls(ctx context.Context, now time.Time) (int64, error)
}

// Scheduler owns the cron runner for background jobs.
type Scheduler struct {
	cron    *cron.Cron
	logger  *zap.Logger
	timeout time.Duration
	now     func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

// NewScheduler builds a scheduler. Overlapping runs of the same job are skipped.
func NewScheduler(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLogger{logger}),
			cron.SkipIfStillRunning(cronLogger{logger}),
		)),
		logger:  logger,
		timeout: time.Minute,
		now:     func() time.Time { return time.Now().UTC() },
		ctx:     ctx,
		cancel:  cancel,
	}
}

// SchedulePollSweep registers the poll expiry job on spec (standard cron syntax or @every).
func (s *Scheduler) SchedulePollSweep(spec string, sweeper PollSweeper) error {
	if spec == "" {
		return nil
	}
	id, err := s.cron.AddFunc(spec, func() { s.sweepPolls(sweeper) })
	if err != nil {
		return fmt.Errorf("schedule poll sweep %q: %w", spec, err)
	}
	s.logger.Info("scheduled poll sweep", zap.Int("job_id", int(id)), zap.String("schedule", spec))
	return nil
}

func (s *Scheduler) sweepPolls(sweeper PollSweeper) {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	closed, err := sweeper.ExpirePolls(ctx, s.now())
	if err != nil {
		s.logger.Error("poll sweep failed", zap.Error(err))
		return
	}
	if closed > 0 {
		s.logger.Info("closed expired polls", zap.Int64("count", closed))
	}
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels running jobs and waits for them to return or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	var done context.Context
	s.once.Do(func() {
		s.cancel()
		done = s.cron.Stop()
	})
	if done == nil {
		return nil
	}
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct{ l *zap.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(msg, zap.Any("details", keysAndValues))
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(msg, zap.Error(err), zap.Any("details", keysAndValues))
}
