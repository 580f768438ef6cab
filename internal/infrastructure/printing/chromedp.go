package printing

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/erp/invoice-export/internal/domain/printing"
	"github.com/erp/invoice-export/internal/infrastructure/config"
	"go.uber.org/zap"
)

const defaultChromeTimeout = 30 * time.Second

// PrintResult is a print-ready PDF produced by the browser
type PrintResult struct {
	PDF       []byte
	PageCount int
	Duration  time.Duration
}

// PrintPipeline hands rendered surfaces to a print engine
type PrintPipeline interface {
	Print(ctx context.Context, pages []*RenderedPage) (*PrintResult, error)
	Close() error
}

// ChromedpPrinter prints surfaces through headless Chrome. Each surface
// becomes one full sheet; nothing is rescaled beyond fitting the sheet.
type ChromedpPrinter struct {
	paper       printing.PaperSize
	timeout     time.Duration
	logger      *zap.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// NewChromedpPrinter creates a printer from config. With a RemoteURL it
// attaches to an existing browser, otherwise it launches one on demand.
func NewChromedpPrinter(cfg config.ChromeConfig, paper printing.PaperSize, logger *zap.Logger) *ChromedpPrinter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !paper.IsValid() {
		paper = printing.PaperSizeA4
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultChromeTimeout
	}

	p := &ChromedpPrinter{paper: paper, timeout: timeout, logger: logger}
	if cfg.RemoteURL != "" {
		p.allocCtx, p.allocCancel = chromedp.NewRemoteAllocator(context.Background(), cfg.RemoteURL)
		return p
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
	)
	if cfg.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	p.allocCtx, p.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	return p
}

// Print implements PrintPipeline
func (p *ChromedpPrinter) Print(ctx context.Context, pages []*RenderedPage) (*PrintResult, error) {
	if err := checkAssembly(pages); err != nil {
		return nil, err
	}
	doc, err := printDocument(pages, p.paper)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	browserCtx, browserCancel := chromedp.NewContext(p.allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			p.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	defer browserCancel()

	// the browser context must die with the caller's context
	stop := context.AfterFunc(ctx, browserCancel)
	defer stop()

	width, height := p.paper.Dimensions()
	var pdfData []byte
	err = chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, doc).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				WithPaperWidth(mmToInches(width)).
				WithPaperHeight(mmToInches(height)).
				WithMarginTop(0).
				WithMarginRight(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				WithScale(1).
				Do(ctx)
			if err != nil {
				return err
			}
			pdfData = data
			return nil
		}),
	)
	if err != nil {
		if cerr := contextError(ctx, "print"); cerr != nil {
			return nil, cerr
		}
		if errors.Is(err, exec.ErrNotFound) {
			return nil, NewRenderError(ErrCodeBinaryNotFound, "Chrome executable not found", err)
		}
		p.logger.Error("chromedp print failed", zap.Error(err))
		return nil, NewRenderError(ErrCodePrintFailed, "chromedp execution failed", err)
	}
	if len(pdfData) == 0 {
		return nil, NewRenderError(ErrCodePrintFailed, "generated PDF is empty", nil)
	}

	count := countPDFPages(pdfData)
	if count != len(pages) {
		return nil, NewRenderError(ErrCodeAssemblyFailed,
			fmt.Sprintf("print produced %d sheets for %d pages", count, len(pages)), nil)
	}

	duration := time.Since(start)
	p.logger.Info("Print PDF rendered",
		zap.Int("bytes", len(pdfData)),
		zap.Int("pages", count),
		zap.Duration("duration", duration))

	return &PrintResult{PDF: pdfData, PageCount: count, Duration: duration}, nil
}

// Close releases the browser allocator
func (p *ChromedpPrinter) Close() error {
	if p.allocCancel != nil {
		p.allocCancel()
	}
	return nil
}

// printDocument builds an HTML document holding each surface as one sheet
func printDocument(pages []*RenderedPage, paper printing.PaperSize) (string, error) {
	width, height := paper.Dimensions()
	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html><html><head><meta charset=\"UTF-8\"><style>")
	fmt.Fprintf(&buf, "@page{size:%.2fmm %.2fmm;margin:0}", width, height)
	buf.WriteString("html,body{margin:0;padding:0}")
	fmt.Fprintf(&buf, ".sheet{position:relative;width:%.2fmm;height:%.2fmm;overflow:hidden}", width, height)
	buf.WriteString(".sheet+.sheet{break-before:page}.sheet img{position:absolute;display:block}")
	buf.WriteString("</style></head><body>")

	for _, pg := range pages {
		b := pg.Image.Bounds()
		place, err := printing.FitToPaper(b.Dx(), b.Dy(), paper)
		if err != nil {
			return "", NewRenderError(ErrCodeAssemblyFailed, fmt.Sprintf("scale page %d", pg.Index), err)
		}
		data, err := encodePNG(pg.Image)
		if err != nil {
			return "", NewRenderError(ErrCodeAssemblyFailed, fmt.Sprintf("encode page %d", pg.Index), err)
		}
		fmt.Fprintf(&buf,
			"<div class=\"sheet\"><img alt=\"page %d\" style=\"left:%.3fmm;top:%.3fmm;width:%.3fmm;height:%.3fmm\" src=\"data:image/png;base64,",
			pg.Index, place.X, place.Y, place.Width, place.Height)
		buf.WriteString(base64.StdEncoding.EncodeToString(data))
		buf.WriteString("\"></div>")
	}
	buf.WriteString("</body></html>")
	return buf.String(), nil
}

// countPDFPages counts page objects; "/Type /Pages" tree nodes are excluded
func countPDFPages(pdfData []byte) int {
	count := bytes.Count(pdfData, []byte("/Type /Page")) - bytes.Count(pdfData, []byte("/Type /Pages"))
	return max(count, 1)
}

func mmToInches(mm float64) float64 {
	return mm / 25.4
}

var _ PrintPipeline = (*ChromedpPrinter)(nil)

// PrintExporter adapts a PrintPipeline to the Exporter interface
type PrintExporter struct {
	Pipeline PrintPipeline
}

// Format implements Exporter
func (e PrintExporter) Format() printing.ExportFormat { return printing.ExportFormatPrint }

// Export implements Exporter
func (e PrintExporter) Export(ctx context.Context, pages []*RenderedPage) ([]byte, error) {
	if e.Pipeline == nil {
		return nil, NewRenderError(ErrCodePrintFailed, "print pipeline is not configured", nil)
	}
	res, err := e.Pipeline.Print(ctx, pages)
	if err != nil {
		return nil, err
	}
	return res.PDF, nil
}
