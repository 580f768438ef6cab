package export

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/invoice-export/internal/domain/invoice"
	"github.com/erp/invoice-export/internal/domain/printing"
	"github.com/erp/invoice-export/internal/infrastructure/logger"
	infra "github.com/erp/invoice-export/internal/infrastructure/printing"
	"github.com/erp/invoice-export/internal/infrastructure/storage"
	"github.com/erp/invoice-export/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// pipeline is the state of one export call. It owns the rendered surfaces
// and drops them on release.
type pipeline struct {
	svc        *Service
	doc        *invoice.Document
	job        *printing.ExportJob
	credential string
	exporter   infra.Exporter
	started    time.Time

	pages []*infra.RenderedPage
}

func (p *pipeline) release() {
	for i := range p.pages {
		p.pages[i] = nil
	}
	p.pages = nil
}

// run drives the stages in order: assets, layout, rendering, assembly, delivery
func (p *pipeline) run(ctx context.Context) (*Artifact, error) {
	s := p.svc
	log := logger.WithLogger(ctx, s.logger)
	format := p.job.Format.String()

	resolved := s.resolver.Resolve(ctx, p.doc.Assets, p.credential)
	failures := resolved.Failures()
	for _, a := range failures {
		s.metrics.RecordAssetFallback(ctx, string(a.Kind))
	}
	p.job.RecordAssetFallbacks(len(failures))

	plan := s.layout.Plan(p.doc)
	log.Debug("Page plan ready",
		zap.Int("items", p.doc.ItemCount()),
		zap.Float64("estimated_height", plan.Estimate.TotalHeight),
		zap.Bool("fits_single_page", plan.Estimate.FitsSinglePage),
		zap.Int("pages", plan.PageCount()),
	)

	if err := p.job.StartRendering(plan.PageCount()); err != nil {
		return nil, err
	}
	if err := s.jobs.Save(ctx, p.job); err != nil {
		return nil, fmt.Errorf("failed to update export job: %w", err)
	}

	pages, err := s.renderer.RenderAll(ctx, plan.Pages, p.doc, resolved)
	if err != nil {
		return nil, err
	}
	p.pages = pages
	s.metrics.RecordPages(ctx, format, len(pages))

	data, err := p.exporter.Export(ctx, pages)
	if err != nil {
		return nil, err
	}

	artifact := &Artifact{
		Data:        data,
		ContentType: p.job.Format.ContentType(),
		FileName:    p.fileName(),
		PageCount:   len(pages),
		JobID:       p.job.ID,
	}

	stored, err := p.deliver(ctx, artifact)
	if err != nil {
		return nil, err
	}

	if err := p.job.Complete(stored); err != nil {
		return nil, err
	}
	if err := s.jobs.Save(ctx, p.job); err != nil {
		// the artifact exists; a stale job row must not withhold it
		log.Warn("Failed to persist completed export job", zap.Error(err))
	}

	elapsed := time.Since(p.started)
	s.metrics.RecordExport(ctx, format, true, elapsed, artifact.Size())
	log.Info("Export completed",
		zap.String("format", format),
		zap.Int("pages", artifact.PageCount),
		zap.Int("asset_fallbacks", len(failures)),
		zap.Int64("bytes", artifact.Size()),
		zap.Duration("duration", elapsed),
	)
	return artifact, nil
}

// deliver spools print output; PDF and image artifacts go straight back to the caller
func (p *pipeline) deliver(ctx context.Context, artifact *Artifact) (printing.Artifact, error) {
	record := printing.Artifact{FileName: artifact.FileName, Size: artifact.Size()}
	if p.job.Format != printing.ExportFormatPrint {
		return record, nil
	}

	_, span := telemetry.StartServiceSpan(ctx, serviceName, "Spool",
		telemetry.SpanAttrExportID, p.job.ID.String())
	defer span.End()

	res, err := p.svc.spool.Store(ctx, &storage.StoreRequest{
		JobID:       p.job.ID,
		Data:        artifact.Data,
		ContentType: artifact.ContentType,
		Extension:   p.job.Format.Extension(),
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return record, infra.NewRenderError(infra.ErrCodeStorageFailed, "failed to spool print file", err)
	}

	record.Path = res.Path
	record.URL = res.URL
	if record.URL == "" {
		record.URL = fmt.Sprintf("%s/%s/download", p.svc.cfg.SpoolBaseURL, p.job.ID)
	}
	return record, nil
}

func (p *pipeline) fileName() string {
	if p.job.Format == printing.ExportFormatImage {
		return p.doc.ImageFileName()
	}
	return p.doc.PDFFileName()
}
