package assets

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/erp/invoice-export/internal/domain/invoice"
	"github.com/erp/invoice-export/internal/infrastructure/cache"
	"github.com/erp/invoice-export/internal/infrastructure/logger"
	"github.com/erp/invoice-export/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// QRSize is the pixel size of generated QR images
const QRSize = 256

// ResolverConfig tunes the Resolver
type ResolverConfig struct {
	Timeout     time.Duration // per asset, including retries
	CacheTTL    time.Duration
	Concurrency int
}

// Resolver fetches every asset a document references before rendering starts
type Resolver struct {
	sources []Source
	cache   cache.AssetCache
	config  ResolverConfig
	logger  *zap.Logger
}

// ResolverOption configures a Resolver
type ResolverOption func(*Resolver)

// WithCache caches raw bytes of cacheable sources
func WithCache(c cache.AssetCache) ResolverOption {
	return func(r *Resolver) { r.cache = c }
}

// WithLogger sets the fallback logger
func WithLogger(l *zap.Logger) ResolverOption {
	return func(r *Resolver) { r.logger = l }
}

// NewResolver creates a resolver. Sources are tried in order; the first match wins.
func NewResolver(cfg ResolverConfig, sources []Source, opts ...ResolverOption) *Resolver {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	r := &Resolver{
		sources: sources,
		config:  cfg,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve fetches all refs concurrently and waits for every fetch to settle.
// Failures are recorded on the returned set and never abort the call.
func (r *Resolver) Resolve(ctx context.Context, refs invoice.AssetRefs, credential string) *ResolvedAssets {
	ctx, span := telemetry.StartServiceSpan(ctx, "AssetResolver", "Resolve")
	defer span.End()

	byKind := refs.Refs()
	results := make([]*Asset, 0, len(byKind))
	for kind, ref := range byKind {
		results = append(results, &Asset{Kind: kind, Ref: ref})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.config.Concurrency)
	for _, a := range results {
		g.Go(func() error {
			r.resolveOne(gctx, a, credential)
			return nil
		})
	}
	_ = g.Wait()

	resolved := NewResolvedAssets(results...)
	for _, a := range resolved.Failures() {
		logger.WithLogger(ctx, r.logger).Warn("Asset unresolved, using placeholder",
			zap.String("kind", string(a.Kind)),
			zap.String("source", a.Source),
			zap.Error(a.Err),
		)
	}
	telemetry.SetAttributes(span, "asset.count", len(results), "asset.failures", len(resolved.Failures()))
	return resolved
}

func (r *Resolver) resolveOne(ctx context.Context, a *Asset, credential string) {
	ctx, span := telemetry.StartSpan(ctx, "AssetResolver.fetch", telemetry.SpanAttrAssetKind, string(a.Kind))
	defer span.End()

	if a.Kind == invoice.AssetPaymentQR {
		a.Source = "qr"
		a.Image, a.Err = QRImage(a.Ref, QRSize)
		telemetry.RecordError(span, a.Err)
		return
	}

	src := r.match(a.Ref)
	if src == nil {
		a.Err = ErrUnsupportedRef
		telemetry.RecordError(span, a.Err)
		return
	}
	a.Source = src.Name()
	telemetry.SetAttributes(span, telemetry.SpanAttrAssetSource, a.Source)

	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.Timeout)
		defer cancel()
	}

	data, store, err := r.fetch(ctx, src, a, credential)
	if err != nil {
		a.Err = err
		telemetry.RecordError(span, err)
		return
	}
	a.Image, a.Err = Decode(data)
	if a.Err != nil {
		telemetry.RecordError(span, a.Err)
		return
	}
	// only bytes that decode are cached
	store(ctx, data)
}

// fetch returns the raw bytes and a func that caches them once they are known to decode
func (r *Resolver) fetch(ctx context.Context, src Source, a *Asset, credential string) ([]byte, func(context.Context, []byte), error) {
	noStore := func(context.Context, []byte) {}
	c, isCacheable := src.(cacheable)
	if r.cache == nil || !isCacheable || !c.Cacheable() {
		data, err := src.Fetch(ctx, a.Ref, credential)
		return data, noStore, err
	}

	key := cacheKey(src.Name(), a.Ref, credential, c.Credentialed())
	data, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		r.logger.Debug("Asset cache read failed", zap.Error(err))
	}
	if err == nil && ok {
		a.Source = "cache"
		return data, noStore, nil
	}

	data, err = src.Fetch(ctx, a.Ref, credential)
	if err != nil {
		return nil, noStore, err
	}
	store := func(ctx context.Context, data []byte) {
		if err := r.cache.Set(ctx, key, data, r.config.CacheTTL); err != nil {
			r.logger.Debug("Asset cache write failed", zap.Error(err))
		}
	}
	return data, store, nil
}

func (r *Resolver) match(ref string) Source {
	for _, s := range r.sources {
		if s.Match(ref) {
			return s
		}
	}
	return nil
}

// cacheKey scopes credentialed entries to a digest of the credential so one
// caller can never read bytes fetched with another caller's token.
func cacheKey(source, ref, credential string, credentialed bool) string {
	key := source + ":" + ref
	if credentialed && credential != "" {
		sum := sha256.Sum256([]byte(credential))
		key += ":" + hex.EncodeToString(sum[:8])
	}
	return key
}
