// Package lock provides a Redis-backed mutual exclusion lock for work that must
// run on one replica at a time.
package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cashday-ledger/internal/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotAcquired is returned when another owner holds the key
var ErrNotAcquired = errors.New("lock is held by another owner")

// only the owner token may delete the key
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Client is the subset of redis.Cmdable the locker uses
type Client interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	redis.Scripter
}

// Locker hands out expiring locks. A crashed owner releases by TTL.
type Locker struct {
	client Client
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

func NewLocker(logger *slog.Logger, client Client, ttl time.Duration, prefix string) *Locker {
	return &Locker{
		client: client,
		ttl:    ttl,
		prefix: prefix,
		logger: logger,
	}
}

// Release gives the lock back early
type Release func(ctx context.Context) error

// Acquire takes key for the locker TTL or returns ErrNotAcquired
func (l *Locker) Acquire(ctx context.Context, key string) (Release, error) {
	fullKey := l.prefix + key
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, fullKey, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", fullKey, err)
	}
	if !ok {
		return nil, ErrNotAcquired
	}

	l.logger.Debug("Lock acquired", "key", fullKey, "ttl", l.ttl)

	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{fullKey}, token).Err(); err != nil {
			l.logger.Warn("Failed to release lock", "key", fullKey, "error", err)
			return fmt.Errorf("failed to release lock %s: %w", fullKey, err)
		}
		return nil
	}, nil
}

// NewRedisClient connects and pings Redis
func NewRedisClient(ctx context.Context, logger *slog.Logger, cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	logger.Info("Connected to Redis", "addr", cfg.Addr, "db", cfg.DB)
	return client, nil
}
