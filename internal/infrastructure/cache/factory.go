package cache

import (
	"fmt"

	"github.com/erp/invoice-export/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Backends bundles the cache and lock chosen for a process
type Backends struct {
	Assets AssetCache
	Lock   ExportLock
	client *redis.Client
}

// Close releases both backends and the shared Redis client
func (b *Backends) Close() error {
	_ = b.Assets.Close()
	_ = b.Lock.Close()
	if b.client != nil {
		return b.client.Close()
	}
	return nil
}

// FactoryOption configures NewBackends
type FactoryOption func(*factory)

type factory struct {
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// WithLogger sets the logger used to report the chosen backend
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *factory) { f.logger = logger }
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to
// in-process backends. Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *factory) { f.allowInMemoryFallback = allow }
}

// NewBackends picks Redis when enabled and reachable, otherwise in-process backends.
// In-process locks only guard exports within one instance.
func NewBackends(cfg config.RedisConfig, opts ...FactoryOption) (*Backends, error) {
	f := &factory{logger: zap.NewNop(), allowInMemoryFallback: true}
	for _, opt := range opts {
		opt(f)
	}

	if cfg.Enabled {
		client, err := NewRedisClient(cfg)
		if err == nil {
			f.logger.Info("using Redis asset cache and export lock", zap.String("addr", cfg.Addr()))
			return &Backends{
				Assets: NewRedisAssetCache(client, ""),
				Lock:   NewRedisExportLock(client, ""),
				client: client,
			}, nil
		}
		if !f.allowInMemoryFallback {
			return nil, fmt.Errorf("Redis required but unavailable: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory cache and lock. "+
			"Concurrent exports on other instances are not guarded.",
			zap.Error(err),
		)
	}

	return &Backends{
		Assets: NewInMemoryAssetCache(),
		Lock:   NewInMemoryExportLock(),
	}, nil
}
