package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// redisCounter is the subset of the redis client used by the limiter.
type redisCounter interface {
	TxPipelined(ctx context.Context, fn func(redis.Pipeliner) error) ([]redis.Cmder, error)
}

// redisRateLimiter counts requests per fixed window in Redis so every instance shares one budget.
type redisRateLimiter struct {
	client   redisCounter
	requests int64
	window   time.Duration
	prefix   string
	logger   *zap.Logger
	now      func() time.Time
}

// NewRedisRateLimiter connects to redisURL. Requests plus burst are allowed per window.
func NewRedisRateLimiter(redisURL string, requests, burst int, window time.Duration, logger *zap.Logger) (RateLimiter, *redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	return newRedisRateLimiter(client, requests, burst, window, logger), client, nil
}

func newRedisRateLimiter(client redisCounter, requests, burst int, window time.Duration, logger *zap.Logger) *redisRateLimiter {
	if requests <= 0 {
		requests = 1
	}
	if burst < 0 {
		burst = 0
	}
	if window <= 0 {
		window = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &redisRateLimiter{
		client:   client,
		requests: int64(requests + burst),
		window:   window,
		prefix:   "videohub:ratelimit:",
		logger:   logger,
		now:      time.Now,
	}
}

// Allow fails open when Redis is unreachable.
func (l *redisRateLimiter) Allow(ctx context.Context, key string) bool {
	if key == "" {
		key = "unknown"
	}
	bucket := l.now().UnixNano() / int64(l.window)
	redisKey := fmt.Sprintf("%s%s:%d", l.prefix, key, bucket)

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, redisKey)
		p.ExpireNX(ctx, redisKey, l.window)
		return nil
	})
	if err != nil {
		l.logger.Warn("rate limiter unavailable, allowing request", zap.String("key", key), zap.Error(err))
		return true
	}
	return incr.Val() <= l.requests
}
