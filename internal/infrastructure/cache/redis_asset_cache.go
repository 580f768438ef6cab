package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisAssetCache implements AssetCache on Redis strings with expiry
type RedisAssetCache struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisAssetCache creates a cache on an existing client.
// The client is not closed by Close.
func NewRedisAssetCache(client *redis.Client, keyPrefix string) *RedisAssetCache {
	if keyPrefix == "" {
		keyPrefix = "invoice:asset:"
	}
	return &RedisAssetCache{client: client, keyPrefix: keyPrefix}
}

// Get implements AssetCache
func (c *RedisAssetCache) Get(ctx context.Context, ref string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, c.keyPrefix+ref).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached asset: %w", err)
	}
	return data, true, nil
}

// Set implements AssetCache
func (c *RedisAssetCache) Set(ctx context.Context, ref string, data []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.keyPrefix+ref, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache asset: %w", err)
	}
	return nil
}

// Close implements AssetCache
func (c *RedisAssetCache) Close() error {
	return nil
}

var _ AssetCache = (*RedisAssetCache)(nil)
