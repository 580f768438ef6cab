package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/erp/invoice-export/internal/application/export"
	"github.com/erp/invoice-export/internal/domain/invoice"
	"github.com/erp/invoice-export/internal/domain/printing"
	"github.com/erp/invoice-export/internal/infrastructure/assets"
	"github.com/erp/invoice-export/internal/infrastructure/cache"
	"github.com/erp/invoice-export/internal/infrastructure/config"
	"github.com/erp/invoice-export/internal/infrastructure/logger"
	"github.com/erp/invoice-export/internal/infrastructure/persistence"
	"github.com/erp/invoice-export/internal/infrastructure/scheduler"
	infra "github.com/erp/invoice-export/internal/infrastructure/printing"
	"github.com/erp/invoice-export/internal/infrastructure/storage"
	"github.com/erp/invoice-export/internal/infrastructure/telemetry"
	"github.com/erp/invoice-export/internal/interfaces/http/handler"
	"github.com/erp/invoice-export/internal/interfaces/http/middleware"
	"github.com/erp/invoice-export/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: cfg.App.Name,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting invoice export service",
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry
	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	defer func() { _ = mp.Shutdown(context.Background()) }()

	exportMetrics, err := telemetry.NewGlobalExportMetrics()
	if err != nil {
		log.Fatal("Failed to register export metrics", zap.Error(err))
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Database.LogLevel), cfg.Database.SlowThreshold)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if cfg.Database.Driver == "sqlite" {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to prepare sqlite schema", zap.Error(err))
		}
	}
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:  cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		DBSystem: cfg.Database.Driver,
	}, log); err != nil {
		log.Warn("Database tracing not registered", zap.Error(err))
	}
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	// Asset cache and export lock
	backends, err := cache.NewBackends(cfg.Redis, cache.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to initialize cache backends", zap.Error(err))
	}
	defer func() { _ = backends.Close() }()

	// Artifact storage. The S3 store also serves s3:// asset references.
	var (
		spool   storage.ArtifactStore
		objects assets.ObjectGetter
	)
	switch cfg.Export.Storage {
	case "s3":
		s3Store, err := storage.NewS3ObjectStorage(ctx, cfg.S3, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize S3 storage", zap.Error(err))
		}
		spool, objects = s3Store, s3Store
	default:
		fsStore, err := storage.NewFileSystemStorage(cfg.Export.SpoolPath, log)
		if err != nil {
			log.Fatal("Failed to initialize spool directory", zap.Error(err))
		}
		spool = fsStore
	}

	// Rendering stack
	layout, err := invoice.NewLayout(cfg.Layout)
	if err != nil {
		log.Fatal("Invalid layout configuration", zap.Error(err))
	}
	fonts, err := infra.LoadFonts()
	if err != nil {
		log.Fatal("Failed to load fonts", zap.Error(err))
	}
	defer func() { _ = fonts.Close() }()

	renderer, err := infra.NewPageRenderer(layout.Config(), fonts, cfg.Export.Supersample)
	if err != nil {
		log.Fatal("Failed to initialize page renderer", zap.Error(err))
	}

	paper := printing.PaperSize(strings.ToUpper(cfg.Export.PaperSize))
	if !paper.IsValid() {
		log.Fatal("Unsupported paper size", zap.String("paper_size", cfg.Export.PaperSize))
	}

	deps := export.Dependencies{
		Layout:   layout,
		Resolver: assets.NewResolverFromConfig(cfg.Assets, objects, backends.Assets, log),
		Renderer: renderer,
		PDF:      infra.NewPDFExporter(paper),
		Image:    infra.NewImageExporter(),
		Jobs:     persistence.NewGormExportJobRepository(db.DB),
		Spool:    spool,
		Lock:     backends.Lock,
		Metrics:  exportMetrics,
		Logger:   log,
	}
	if cfg.Chrome.Enabled {
		printer := infra.NewChromedpPrinter(cfg.Chrome, paper, log)
		defer func() { _ = printer.Close() }()
		deps.Print = infra.PrintExporter{Pipeline: printer}
		log.Info("Print pipeline enabled", zap.String("remote_url", cfg.Chrome.RemoteURL))
	}

	exportService, err := export.NewService(export.Config{
		LockTTL:      cfg.Export.LockTTL,
		Timeout:      cfg.Export.Timeout,
		SpoolBaseURL: cfg.Export.SpoolBaseURL,
	}, deps)
	if err != nil {
		log.Fatal("Failed to initialize export service", zap.Error(err))
	}

	jobs := scheduler.New(scheduler.Config{
		Enabled:    cfg.Export.CleanupInterval > 0 && cfg.Export.SpoolRetention > 0,
		RunTimeout: cfg.Export.CleanupInterval,
		RetryDelay: time.Minute,
		RunOnStart: true,
	}, log)
	if cfg.Export.CleanupInterval > 0 {
		if err := jobs.Register(scheduler.NewSpoolCleanupTask(spool, cfg.Export.SpoolRetention, log), cfg.Export.CleanupInterval); err != nil {
			log.Fatal("Failed to register spool cleanup", zap.Error(err))
		}
	}
	if err := jobs.Start(ctx); err != nil {
		log.Fatal("Failed to start scheduler", zap.Error(err))
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Order matters: the request ID must exist before logging and tracing read it
	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		Enabled:     cfg.Telemetry.Enabled,
		ServiceName: cfg.Telemetry.ServiceName,
	}))
	engine.Use(middleware.SpanEnricher())
	engine.Use(logger.GinMiddleware(log, "/health"))
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		Enabled:       cfg.Telemetry.MetricsEnabled,
		MeterProvider: mp,
	}))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	var renderLimit gin.HandlerFunc
	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer limiter.Stop()
		renderLimit = middleware.RateLimit(limiter)
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	health := handler.NewHealthHandler(map[string]handler.HealthCheck{
		"database": db.Ping,
	})
	engine.GET("/health", health.Health)

	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(handler.InvoiceRoutes(handler.NewExportHandler(exportService), renderLimit)).
		Register(handler.JobRoutes(handler.NewJobHandler(exportService))).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := jobs.Stop(shutdownCtx); err != nil {
		log.Warn("Scheduler did not stop in time", zap.Error(err))
	}
	log.Info("Server exited gracefully")
}
