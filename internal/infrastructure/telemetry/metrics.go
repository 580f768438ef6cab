package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled           bool
	CollectorEndpoint string
	ExportInterval    time.Duration // Default: 60s
	ServiceName       string
	Insecure          bool
}

// MeterProvider wraps the OpenTelemetry MeterProvider with lifecycle management.
type MeterProvider struct {
	provider *sdkmetric.MeterProvider
	logger   *zap.Logger
	config   MetricsConfig
}

// NewMeterProvider creates the global meter provider.
// When metrics are disabled the global no-op provider stays in place.
func NewMeterProvider(ctx context.Context, cfg MetricsConfig, logger *zap.Logger) (*MeterProvider, error) {
	mp := &MeterProvider{logger: logger, config: cfg}
	if !cfg.Enabled {
		logger.Info("Metrics disabled, using no-op meter provider")
		return mp, nil
	}

	interval := cfg.ExportInterval
	if interval == 0 {
		interval = 60 * time.Second
	}

	exporterOpts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		exporterOpts = append(exporterOpts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
	}

	res, err := serviceResource(cfg.ServiceName, "")
	if err != nil {
		return nil, err
	}

	mp.provider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
	)
	otel.SetMeterProvider(mp.provider)

	logger.Info("OpenTelemetry MeterProvider initialized",
		zap.String("collector_endpoint", cfg.CollectorEndpoint),
		zap.Duration("export_interval", interval),
	)
	return mp, nil
}

// Shutdown flushes pending metrics and stops the provider.
func (mp *MeterProvider) Shutdown(ctx context.Context) error {
	if mp.provider == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := mp.provider.Shutdown(shutdownCtx); err != nil {
		mp.logger.Error("Error shutting down meter provider", zap.Error(err))
		return fmt.Errorf("failed to shutdown meter provider: %w", err)
	}
	return nil
}

// Meter returns a named meter from the provider.
func (mp *MeterProvider) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if mp.provider == nil {
		return otel.GetMeterProvider().Meter(name, opts...)
	}
	return mp.provider.Meter(name, opts...)
}

// IsEnabled reports whether metrics are exported.
func (mp *MeterProvider) IsEnabled() bool {
	return mp != nil && mp.provider != nil
}

// Metric attribute keys
var (
	AttrExportFormat = attribute.Key("export.format")
	AttrOutcome      = attribute.Key("outcome")
	AttrAssetKind    = attribute.Key("asset.kind")
)

// ExportDurationBuckets are histogram boundaries in seconds for whole exports.
var ExportDurationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

// ExportMetrics holds the instruments recorded by the export service.
type ExportMetrics struct {
	exports        metric.Int64Counter
	pagesRendered  metric.Int64Counter
	assetFallbacks metric.Int64Counter
	duration       metric.Float64Histogram
	artifactBytes  metric.Int64Histogram
}

// NewExportMetrics registers the export instruments on meter.
func NewExportMetrics(meter metric.Meter) (*ExportMetrics, error) {
	m := &ExportMetrics{}
	var err error

	if m.exports, err = meter.Int64Counter("invoice_exports_total",
		metric.WithDescription("Export calls by format and outcome"),
		metric.WithUnit("{export}")); err != nil {
		return nil, fmt.Errorf("failed to create exports counter: %w", err)
	}
	if m.pagesRendered, err = meter.Int64Counter("invoice_pages_rendered_total",
		metric.WithDescription("Pages rasterized"),
		metric.WithUnit("{page}")); err != nil {
		return nil, fmt.Errorf("failed to create pages counter: %w", err)
	}
	if m.assetFallbacks, err = meter.Int64Counter("invoice_asset_fallbacks_total",
		metric.WithDescription("Assets replaced by a placeholder"),
		metric.WithUnit("{asset}")); err != nil {
		return nil, fmt.Errorf("failed to create asset fallback counter: %w", err)
	}
	if m.duration, err = meter.Float64Histogram("invoice_export_duration_seconds",
		metric.WithDescription("Wall time of an export call"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(ExportDurationBuckets...)); err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}
	if m.artifactBytes, err = meter.Int64Histogram("invoice_artifact_bytes",
		metric.WithDescription("Size of produced artifacts"),
		metric.WithUnit("By")); err != nil {
		return nil, fmt.Errorf("failed to create artifact size histogram: %w", err)
	}
	return m, nil
}

// NewGlobalExportMetrics registers the instruments on the global meter provider.
func NewGlobalExportMetrics() (*ExportMetrics, error) {
	return NewExportMetrics(otel.GetMeterProvider().Meter(TracerName))
}

// RecordExport records the outcome and duration of one export call.
func (m *ExportMetrics) RecordExport(ctx context.Context, format string, success bool, d time.Duration, size int64) {
	if m == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	attrs := metric.WithAttributes(AttrExportFormat.String(format), AttrOutcome.String(outcome))
	m.exports.Add(ctx, 1, attrs)
	m.duration.Record(ctx, d.Seconds(), attrs)
	if success && size > 0 {
		m.artifactBytes.Record(ctx, size, metric.WithAttributes(AttrExportFormat.String(format)))
	}
}

// RecordPages adds n rendered pages.
func (m *ExportMetrics) RecordPages(ctx context.Context, format string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.pagesRendered.Add(ctx, int64(n), metric.WithAttributes(AttrExportFormat.String(format)))
}

// RecordAssetFallback counts one asset that rendered as a placeholder.
func (m *ExportMetrics) RecordAssetFallback(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.assetFallbacks.Add(ctx, 1, metric.WithAttributes(AttrAssetKind.String(kind)))
}
