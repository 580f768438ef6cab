package assets

import (
	"github.com/erp/invoice-export/internal/infrastructure/cache"
	"github.com/erp/invoice-export/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewResolverFromConfig wires the standard sources. objects may be nil when
// no object storage is configured; object references then fail as unsupported.
func NewResolverFromConfig(cfg config.AssetsConfig, objects ObjectGetter, assetCache cache.AssetCache, log *zap.Logger) *Resolver {
	client := NewHTTPClient(cfg.Timeout)
	retry := RetryPolicy{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxBackoff:     cfg.MaxBackoff,
	}

	sources := []Source{
		DataURLSource{MaxBytes: cfg.MaxAssetBytes},
	}
	if objects != nil {
		sources = append(sources, ObjectSource{Store: objects, MaxBytes: cfg.MaxAssetBytes})
	}
	sources = append(sources,
		NewHTTPSource(client, retry, cfg.MaxAssetBytes, HostOf(cfg.DriveBaseURL)),
		NewDriveSource(cfg.DriveBaseURL, client, retry, cfg.MaxAssetBytes),
	)

	opts := []ResolverOption{WithLogger(log)}
	if assetCache != nil {
		opts = append(opts, WithCache(assetCache))
	}
	return NewResolver(ResolverConfig{
		Timeout:     cfg.Timeout,
		CacheTTL:    cfg.CacheTTL,
		Concurrency: cfg.Concurrency,
	}, sources, opts...)
}
