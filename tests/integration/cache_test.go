package integration

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/erp/invoice-export/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRedisBackends_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	redisCfg := NewTestRedis(t)
	backends, err := cache.NewBackends(redisCfg, cache.WithLogger(zap.NewNop()), cache.WithInMemoryFallback(false))
	require.NoError(t, err)
	t.Cleanup(func() { _ = backends.Close() })

	_, isRedisLock := backends.Lock.(*cache.RedisExportLock)
	require.True(t, isRedisLock, "expected the Redis export lock")
	ctx := context.Background()

	t.Run("asset cache round trip", func(t *testing.T) {
		data := []byte{0x89, 'P', 'N', 'G', 0x00, 0xff}
		require.NoError(t, backends.Assets.Set(ctx, "https://drive.example/logo.png", data, time.Minute))

		got, ok, err := backends.Assets.Get(ctx, "https://drive.example/logo.png")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, data, got)

		_, ok, err = backends.Assets.Get(ctx, "https://drive.example/missing.png")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("asset cache entries expire", func(t *testing.T) {
		require.NoError(t, backends.Assets.Set(ctx, "short-lived", []byte("x"), time.Second))
		require.Eventually(t, func() bool {
			_, ok, err := backends.Assets.Get(ctx, "short-lived")
			return err == nil && !ok
		}, 5*time.Second, 100*time.Millisecond)
	})

	t.Run("lock is exclusive until released", func(t *testing.T) {
		token, ok, err := backends.Lock.Acquire(ctx, "INV-42", time.Minute)
		require.NoError(t, err)
		require.True(t, ok)

		_, ok, err = backends.Lock.Acquire(ctx, "INV-42", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)

		assert.ErrorIs(t, backends.Lock.Release(ctx, "INV-42", "someone-else"), cache.ErrLockNotHeld)
		require.NoError(t, backends.Lock.Release(ctx, "INV-42", token))

		_, ok, err = backends.Lock.Acquire(ctx, "INV-42", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("lock expires with its ttl", func(t *testing.T) {
		_, ok, err := backends.Lock.Acquire(ctx, "INV-TTL", time.Second)
		require.NoError(t, err)
		require.True(t, ok)

		require.Eventually(t, func() bool {
			_, ok, err := backends.Lock.Acquire(ctx, "INV-TTL", time.Minute)
			return err == nil && ok
		}, 5*time.Second, 100*time.Millisecond)
	})

	t.Run("one winner among concurrent acquirers", func(t *testing.T) {
		var winners atomic.Int32
		var wg sync.WaitGroup
		for range 16 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, ok, err := backends.Lock.Acquire(ctx, "INV-RACE", time.Minute); err == nil && ok {
					winners.Add(1)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), winners.Load())
	})
}

func TestNewBackends_RequiredRedisUnavailable_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	redisCfg := NewTestRedis(t)
	redisCfg.Port = 1

	_, err := cache.NewBackends(redisCfg, cache.WithInMemoryFallback(false))
	assert.Error(t, err)

	backends, err := cache.NewBackends(redisCfg)
	require.NoError(t, err)
	defer backends.Close()
	_, inMemory := backends.Lock.(*cache.InMemoryExportLock)
	assert.True(t, inMemory)
}
