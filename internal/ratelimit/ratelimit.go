package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sara-ai/checkin-service/internal/config"
	"go.uber.org/zap"
)

const keyPrefix = "checkin:uploads:"

// Limiter counts uploads per user in a fixed window kept in redis. A nil
// Limiter allows everything.
type Limiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

// New returns nil when no redis address is configured.
func New(cfg config.RedisConfig) *Limiter {
	if cfg.Address == "" || cfg.UploadsPerHour <= 0 {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		zap.S().Named("ratelimit").Warnw("redis is not reachable, uploads are limited once it is", "address", cfg.Address, "error", err)
	}

	return NewWithClient(client, int64(cfg.UploadsPerHour), time.Hour)
}

func NewWithClient(client *redis.Client, limit int64, window time.Duration) *Limiter {
	return &Limiter{client: client, limit: limit, window: window}
}

// Allow records one upload for user and reports whether it is within the
// limit.
func (l *Limiter) Allow(ctx context.Context, user string) (bool, error) {
	if l == nil {
		return true, nil
	}

	key := keyPrefix + user

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to count upload: %w", err)
	}

	return incr.Val() <= l.limit, nil
}

func (l *Limiter) Close() error {
	if l == nil {
		return nil
	}
	return l.client.Close()
}
