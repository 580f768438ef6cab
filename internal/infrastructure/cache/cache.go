// Package cache holds the raw asset byte cache and the per-invoice export lock,
// each with a Redis implementation for shared deployments and an in-process one.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/invoice-export/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

// ErrLockNotHeld is returned when releasing a lock whose token no longer matches
var ErrLockNotHeld = errors.New("export lock not held")

// AssetCache stores raw asset bytes by reference for a bounded time
type AssetCache interface {
	// Get returns the cached bytes and whether they were present
	Get(ctx context.Context, ref string) ([]byte, bool, error)
	// Set stores data for ttl
	Set(ctx context.Context, ref string, data []byte, ttl time.Duration) error
	Close() error
}

// ExportLock serializes exports of the same invoice
type ExportLock interface {
	// Acquire takes the lock for key. ok is false when another holder has it.
	// The returned token must be passed to Release.
	Acquire(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	// Release frees the lock if token still owns it
	Release(ctx context.Context, key, token string) error
	Close() error
}

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}
