package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only when it still holds the caller's token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisExportLock implements ExportLock with SET NX and a token-checked release
type RedisExportLock struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisExportLock creates a lock on an existing client.
// The client is not closed by Close.
func NewRedisExportLock(client *redis.Client, keyPrefix string) *RedisExportLock {
	if keyPrefix == "" {
		keyPrefix = "invoice:export-lock:"
	}
	return &RedisExportLock{client: client, keyPrefix: keyPrefix}
}

// Acquire implements ExportLock
func (l *RedisExportLock) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.keyPrefix+key, token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to acquire export lock: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Release implements ExportLock
func (l *RedisExportLock) Release(ctx context.Context, key, token string) error {
	n, err := releaseScript.Run(ctx, l.client, []string{l.keyPrefix + key}, token).Int64()
	if err != nil {
		return fmt.Errorf("failed to release export lock: %w", err)
	}
	if n == 0 {
		return ErrLockNotHeld
	}
	return nil
}

// Close implements ExportLock
func (l *RedisExportLock) Close() error {
	return nil
}

var _ ExportLock = (*RedisExportLock)(nil)
