package export

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/erp/invoice-export/internal/domain/invoice"
	"github.com/erp/invoice-export/internal/domain/printing"
	"github.com/erp/invoice-export/internal/domain/shared"
	"github.com/erp/invoice-export/internal/infrastructure/assets"
	"github.com/erp/invoice-export/internal/infrastructure/cache"
	"github.com/erp/invoice-export/internal/infrastructure/logger"
	infra "github.com/erp/invoice-export/internal/infrastructure/printing"
	"github.com/erp/invoice-export/internal/infrastructure/storage"
	"github.com/erp/invoice-export/internal/infrastructure/telemetry"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const serviceName = "ExportService"

// AssetResolver resolves the remote assets of a document. It never fails:
// unresolved assets come back absent and render as placeholders.
type AssetResolver interface {
	Resolve(ctx context.Context, refs invoice.AssetRefs, credential string) *assets.ResolvedAssets
}

// PageRenderer rasterizes planned pages in ascending order
type PageRenderer interface {
	RenderAll(ctx context.Context, pages []invoice.PageDescriptor, doc *invoice.Document, resolved *assets.ResolvedAssets) ([]*infra.RenderedPage, error)
}

// Config holds the service tunables
type Config struct {
	// LockTTL bounds how long a crashed export can block its invoice
	LockTTL time.Duration
	// Timeout bounds one export call; zero means the caller's context only
	Timeout time.Duration
	// SpoolBaseURL prefixes the download link of spooled print files
	SpoolBaseURL string
}

// Dependencies are the collaborators of the service.
// Print is optional; without it PrintInvoice reports the format as unavailable.
type Dependencies struct {
	Layout   *invoice.Layout
	Resolver AssetResolver
	Renderer PageRenderer
	PDF      infra.Exporter
	Image    infra.Exporter
	Print    infra.Exporter
	Jobs     printing.ExportJobRepository
	Spool    storage.ArtifactStore
	Lock     cache.ExportLock
	Metrics  *telemetry.ExportMetrics
	Logger   *zap.Logger
}

// Service runs invoice exports end to end: assets, layout, rendering and assembly
type Service struct {
	cfg       Config
	layout    *invoice.Layout
	resolver  AssetResolver
	renderer  PageRenderer
	exporters map[printing.ExportFormat]infra.Exporter
	jobs      printing.ExportJobRepository
	spool     storage.ArtifactStore
	lock      cache.ExportLock
	metrics   *telemetry.ExportMetrics
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewService creates a new Service
func NewService(cfg Config, deps Dependencies) (*Service, error) {
	switch {
	case deps.Layout == nil:
		return nil, errors.New("export service: layout is required")
	case deps.Resolver == nil:
		return nil, errors.New("export service: asset resolver is required")
	case deps.Renderer == nil:
		return nil, errors.New("export service: page renderer is required")
	case deps.PDF == nil || deps.Image == nil:
		return nil, errors.New("export service: PDF and image exporters are required")
	case deps.Jobs == nil:
		return nil, errors.New("export service: job repository is required")
	case deps.Lock == nil:
		return nil, errors.New("export service: export lock is required")
	case deps.Print != nil && deps.Spool == nil:
		return nil, errors.New("export service: print output needs an artifact store")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 2 * time.Minute
	}
	cfg.SpoolBaseURL = strings.TrimRight(cfg.SpoolBaseURL, "/")

	exporters := map[printing.ExportFormat]infra.Exporter{
		printing.ExportFormatPDF:   deps.PDF,
		printing.ExportFormatImage: deps.Image,
	}
	if deps.Print != nil {
		exporters[printing.ExportFormatPrint] = deps.Print
	}

	return &Service{
		cfg:       cfg,
		layout:    deps.Layout,
		resolver:  deps.Resolver,
		renderer:  deps.Renderer,
		exporters: exporters,
		jobs:      deps.Jobs,
		spool:     deps.Spool,
		lock:      deps.Lock,
		metrics:   deps.Metrics,
		validate:  newDocumentValidator(),
		logger:    deps.Logger,
	}, nil
}

func newDocumentValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// =============================================================================
// Export operations
// =============================================================================

// DownloadAsPDF renders the document into an A4 PDF named invoice-<n>.pdf
func (s *Service) DownloadAsPDF(ctx context.Context, req ExportRequest) (*Artifact, error) {
	return s.export(ctx, printing.ExportFormatPDF, req)
}

// DownloadAsImage renders the document into one PNG named invoice-<n>.png.
// Multi-page documents are stacked vertically in page order.
func (s *Service) DownloadAsImage(ctx context.Context, req ExportRequest) (*Artifact, error) {
	return s.export(ctx, printing.ExportFormatImage, req)
}

// PrintInvoice hands the rendered pages to the print pipeline and spools the
// print-ready PDF. The returned job carries the download URL.
func (s *Service) PrintInvoice(ctx context.Context, req ExportRequest) (*PrintResponse, error) {
	artifact, err := s.export(ctx, printing.ExportFormatPrint, req)
	if err != nil {
		return nil, err
	}
	job, err := s.jobs.FindByID(ctx, artifact.JobID)
	if err != nil {
		return nil, fmt.Errorf("failed to load print job: %w", err)
	}
	return &PrintResponse{Job: *toJobResponse(job)}, nil
}

// PlanLayout returns the single-page estimate and the page plan without rendering
func (s *Service) PlanLayout(ctx context.Context, doc *invoice.Document) (*LayoutResponse, error) {
	if err := s.checkDocument(doc); err != nil {
		return nil, err
	}
	_, span := telemetry.StartServiceSpan(ctx, serviceName, "PlanLayout",
		telemetry.SpanAttrInvoiceNumber, doc.InvoiceNumber)
	defer span.End()

	plan := s.layout.Plan(doc)
	telemetry.SetAttributes(span, telemetry.SpanAttrPageCount, plan.PageCount())
	return toLayoutResponse(doc, plan), nil
}

// export runs one guarded export call. Validation and lock contention are
// reported before a job exists; every later failure fails the job and comes
// back as an ExportFailedError.
func (s *Service) export(ctx context.Context, format printing.ExportFormat, req ExportRequest) (*Artifact, error) {
	doc := req.Document
	if err := s.checkDocument(doc); err != nil {
		return nil, err
	}
	exporter, ok := s.exporters[format]
	if !ok {
		return nil, shared.NewDomainError("FORMAT_UNAVAILABLE", "Export format is not available: "+format.String())
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	lockKey := "invoice:" + doc.InvoiceNumber
	token, acquired, err := s.lock.Acquire(ctx, lockKey, s.cfg.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire export lock: %w", err)
	}
	if !acquired {
		return nil, shared.ErrExportInProgress
	}
	defer func() {
		if err := s.lock.Release(context.WithoutCancel(ctx), lockKey, token); err != nil {
			logger.WithLogger(ctx, s.logger).Warn("Failed to release export lock",
				zap.String("invoice_number", doc.InvoiceNumber), zap.Error(err))
		}
	}()

	job, err := printing.NewExportJob(doc.InvoiceNumber, format)
	if err != nil {
		return nil, err
	}
	job.RequestID = logger.GetRequestID(ctx)
	if err := s.jobs.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save export job: %w", err)
	}

	ctx = logger.WithInvoiceNumber(ctx, doc.InvoiceNumber)
	ctx = logger.WithExportID(ctx, job.ID.String())
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "Export",
		telemetry.SpanAttrInvoiceNumber, doc.InvoiceNumber,
		telemetry.SpanAttrExportFormat, format.String(),
		telemetry.SpanAttrExportID, job.ID.String(),
	)
	defer span.End()

	p := &pipeline{
		svc:        s,
		doc:        doc,
		job:        job,
		credential: req.Credential,
		exporter:   exporter,
		started:    time.Now(),
	}
	defer p.release()

	artifact, err := p.run(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, s.fail(ctx, p, err)
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrPageCount, artifact.PageCount,
		telemetry.SpanAttrArtifactSize, artifact.Size(),
	)
	return artifact, nil
}

// fail records a failed export and converts err into the caller-facing error
func (s *Service) fail(ctx context.Context, p *pipeline, err error) error {
	failed := newExportFailed(p.job.ID, p.job.Format, err)
	saveCtx := context.WithoutCancel(ctx)

	log := logger.WithLogger(ctx, s.logger)
	log.Error("Export failed",
		zap.String("format", p.job.Format.String()),
		zap.String("code", failed.Code),
		zap.Error(err),
	)

	if ferr := p.job.Fail(userMessage(failed.Code)); ferr == nil {
		if serr := s.jobs.Save(saveCtx, p.job); serr != nil {
			log.Warn("Failed to persist failed export job", zap.Error(serr))
		}
	}
	s.metrics.RecordExport(saveCtx, p.job.Format.String(), false, time.Since(p.started), 0)
	return failed
}

func (s *Service) checkDocument(doc *invoice.Document) error {
	if doc == nil {
		return shared.NewDomainError("INVALID_DOCUMENT", "Invoice document is required")
	}
	if err := s.validate.Struct(doc); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return shared.NewDomainError("INVALID_DOCUMENT",
				fmt.Sprintf("Field %s failed %s validation", fe.Namespace(), fe.Tag()))
		}
		return shared.NewDomainError("INVALID_DOCUMENT", err.Error())
	}
	return doc.CheckStructure()
}

// =============================================================================
// Export job operations
// =============================================================================

// GetJob retrieves an export job by ID
func (s *Service) GetJob(ctx context.Context, jobID uuid.UUID) (*ExportJobResponse, error) {
	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Export job not found")
		}
		return nil, fmt.Errorf("failed to get export job: %w", err)
	}
	return toJobResponse(job), nil
}

// ListJobs retrieves a paginated list of export jobs
func (s *Service) ListJobs(ctx context.Context, req ListJobsRequest) (*ListJobsResponse, error) {
	filter := shared.DefaultFilter()
	if req.Page > 0 {
		filter.Page = req.Page
	}
	if req.PageSize > 0 {
		filter.PageSize = req.PageSize
	}
	if req.OrderBy != "" {
		filter.OrderBy = req.OrderBy
	}
	if req.OrderDir != "" {
		filter.OrderDir = req.OrderDir
	}
	if req.InvoiceNumber != "" {
		filter.Filters["invoice_number"] = req.InvoiceNumber
	}
	if req.Status != "" {
		status := printing.JobStatus(strings.ToUpper(req.Status))
		if !status.IsValid() {
			return nil, shared.NewDomainError("INVALID_INPUT", "Invalid job status: "+req.Status)
		}
		filter.Filters["status"] = string(status)
	}
	if req.Format != "" {
		format := printing.ExportFormat(strings.ToUpper(req.Format))
		if !format.IsValid() {
			return nil, shared.NewDomainError("INVALID_INPUT", "Invalid export format: "+req.Format)
		}
		filter.Filters["format"] = string(format)
	}

	jobs, err := s.jobs.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list export jobs: %w", err)
	}
	total, err := s.jobs.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count export jobs: %w", err)
	}

	items := make([]ExportJobResponse, len(jobs))
	for i := range jobs {
		items[i] = *toJobResponse(&jobs[i])
	}
	return &ListJobsResponse{
		Items: items,
		Total: total,
		Page:  filter.Page,
		Size:  filter.PageSize,
	}, nil
}

// DownloadJob opens the spooled print file of a completed job
func (s *Service) DownloadJob(ctx context.Context, jobID uuid.UUID) (*JobDownload, error) {
	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Export job not found")
		}
		return nil, fmt.Errorf("failed to get export job: %w", err)
	}
	if !job.HasArtifact() || s.spool == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Export job has no stored artifact")
	}

	body, err := s.spool.Open(ctx, job.ArtifactPath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Stored artifact has expired")
		}
		return nil, fmt.Errorf("failed to open artifact: %w", err)
	}
	return &JobDownload{
		Body:        body,
		FileName:    job.FileName,
		ContentType: job.Format.ContentType(),
		Size:        job.SizeBytes,
	}, nil
}
