package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/erp/invoice-export/internal/application/export"
	"github.com/erp/invoice-export/internal/domain/invoice"
	"github.com/erp/invoice-export/internal/domain/printing"
	"github.com/erp/invoice-export/internal/infrastructure/assets"
	"github.com/erp/invoice-export/internal/infrastructure/cache"
	"github.com/erp/invoice-export/internal/infrastructure/config"
	"github.com/erp/invoice-export/internal/infrastructure/logger"
	"github.com/erp/invoice-export/internal/infrastructure/persistence"
	infra "github.com/erp/invoice-export/internal/infrastructure/printing"
	"go.uber.org/zap"
)

func main() {
	var (
		inputPath  string
		outputPath string
		format     string
		configPath string
		credential string
		logLevel   string
	)
	flag.StringVar(&inputPath, "in", "", "Invoice document JSON file (- for stdin)")
	flag.StringVar(&outputPath, "out", "", "Output file (default: the invoice file name in the current directory)")
	flag.StringVar(&format, "format", "pdf", "Output format: pdf, image or plan")
	flag.StringVar(&configPath, "config", "", "Config file (default: ./config.toml)")
	flag.StringVar(&credential, "token", "", "Credential for drive-hosted assets")
	flag.StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	flag.Parse()

	if inputPath == "" {
		printUsage()
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: "2006-01-02 15:04:05",
		Service:    "invoice-render",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	var cfg *config.Config
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	doc, err := readDocument(inputPath)
	if err != nil {
		log.Fatal("Failed to read invoice document", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, cleanup, err := newLocalService(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize renderer", zap.Error(err))
	}
	defer cleanup()

	req := export.ExportRequest{Document: doc, Credential: credential}
	switch strings.ToLower(format) {
	case "plan":
		plan, err := svc.PlanLayout(ctx, doc)
		if err != nil {
			log.Fatal("Failed to plan layout", zap.Error(err))
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(plan); err != nil {
			log.Fatal("Failed to write layout plan", zap.Error(err))
		}
	case "pdf", "image":
		render := svc.DownloadAsPDF
		if strings.EqualFold(format, "image") {
			render = svc.DownloadAsImage
		}
		artifact, err := render(ctx, req)
		if err != nil {
			log.Fatal("Export failed", zap.Error(err))
		}
		if outputPath == "" {
			outputPath = artifact.FileName
		}
		if err := os.WriteFile(outputPath, artifact.Data, 0o644); err != nil {
			log.Fatal("Failed to write output", zap.Error(err))
		}
		fmt.Printf("Wrote %s (%d page(s), %d bytes)\n", outputPath, artifact.PageCount, artifact.Size())
	default:
		log.Fatal("Unknown format", zap.String("format", format))
	}
}

// newLocalService wires the export service for a single process: sqlite job
// history and in-memory asset cache and lock. The print pipeline is left out.
func newLocalService(cfg *config.Config, log *zap.Logger) (*export.Service, func(), error) {
	dbCfg := config.DatabaseConfig{Driver: "sqlite", MaxOpenConns: 1}
	db, err := persistence.NewDatabase(&dbCfg)
	if err != nil {
		return nil, nil, err
	}
	if err := db.AutoMigrate(); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	cfg.Redis.Enabled = false
	backends, err := cache.NewBackends(cfg.Redis, cache.WithLogger(log))
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	fonts, err := infra.LoadFonts()
	if err != nil {
		_ = backends.Close()
		_ = db.Close()
		return nil, nil, err
	}
	cleanup := func() {
		_ = fonts.Close()
		_ = backends.Close()
		_ = db.Close()
	}

	layout, err := invoice.NewLayout(cfg.Layout)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	renderer, err := infra.NewPageRenderer(layout.Config(), fonts, cfg.Export.Supersample)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	paper := printing.PaperSize(strings.ToUpper(cfg.Export.PaperSize))
	if !paper.IsValid() {
		cleanup()
		return nil, nil, fmt.Errorf("unsupported paper size %q", cfg.Export.PaperSize)
	}

	svc, err := export.NewService(export.Config{
		LockTTL: cfg.Export.LockTTL,
		Timeout: cfg.Export.Timeout,
	}, export.Dependencies{
		Layout:   layout,
		Resolver: assets.NewResolverFromConfig(cfg.Assets, nil, backends.Assets, log),
		Renderer: renderer,
		PDF:      infra.NewPDFExporter(paper),
		Image:    infra.NewImageExporter(),
		Jobs:     persistence.NewGormExportJobRepository(db.DB),
		Lock:     backends.Lock,
		Logger:   log,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return svc, cleanup, nil
}

func readDocument(path string) (*invoice.Document, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(filepath.Clean(path))
	}
	if err != nil {
		return nil, err
	}

	// Both a bare document and an export request body are accepted
	var req export.ExportRequest
	if err := json.Unmarshal(data, &req); err == nil && req.Document != nil {
		return req.Document, nil
	}
	var doc invoice.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid invoice JSON: %w", err)
	}
	return &doc, nil
}

func printUsage() {
	fmt.Println(`Usage: invoice-render -in <file> [options]

Renders an invoice document locally without the HTTP service.

Options:
  -in         Invoice document JSON file, or - for stdin
  -out        Output file (default: invoice-<number>.pdf or .png)
  -format     pdf, image or plan (prints the page plan as JSON)
  -config     Config file (default: ./config.toml)
  -token      Credential for drive-hosted assets
  -log-level  Log level (default: warn)

Examples:
  invoice-render -in invoice.json
  invoice-render -in invoice.json -format image -out preview.png
  cat invoice.json | invoice-render -in - -format plan`)
}
