package printing

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/erp/invoice-export/internal/domain/printing"
	"github.com/go-pdf/fpdf"
)

// fixedDocumentDate keeps PDF output byte-identical across runs
var fixedDocumentDate = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// PDFExporter places one surface per sheet, scaled to fit, centered
// horizontally and aligned to the top edge
type PDFExporter struct {
	paper printing.PaperSize
	title string
}

// NewPDFExporter creates a PDF exporter for the given sheet size
func NewPDFExporter(paper printing.PaperSize) *PDFExporter {
	if !paper.IsValid() {
		paper = printing.PaperSizeA4
	}
	return &PDFExporter{paper: paper}
}

// WithTitle returns a copy that sets the PDF title metadata
func (e *PDFExporter) WithTitle(title string) *PDFExporter {
	cp := *e
	cp.title = title
	return &cp
}

// Format implements Exporter
func (e *PDFExporter) Format() printing.ExportFormat { return printing.ExportFormatPDF }

// Export implements Exporter
func (e *PDFExporter) Export(ctx context.Context, pages []*RenderedPage) ([]byte, error) {
	if err := checkAssembly(pages); err != nil {
		return nil, err
	}

	w, h := e.paper.Dimensions()
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: w, Ht: h},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreationDate(fixedDocumentDate)
	pdf.SetModificationDate(fixedDocumentDate)
	pdf.SetCatalogSort(true)
	pdf.SetCreator("invoice-export", true)
	if e.title != "" {
		pdf.SetTitle(e.title, true)
	}

	for _, page := range pages {
		if err := contextError(ctx, "PDF assembly"); err != nil {
			return nil, err
		}
		b := page.Image.Bounds()
		place, err := printing.FitToPaper(b.Dx(), b.Dy(), e.paper)
		if err != nil {
			return nil, NewRenderError(ErrCodeAssemblyFailed, fmt.Sprintf("scale page %d", page.Index), err)
		}
		data, err := encodePNG(page.Image)
		if err != nil {
			return nil, NewRenderError(ErrCodeAssemblyFailed, fmt.Sprintf("encode page %d", page.Index), err)
		}

		name := fmt.Sprintf("page-%d", page.Index)
		opts := fpdf.ImageOptions{ImageType: "PNG"}
		pdf.AddPage()
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
		pdf.ImageOptions(name, place.X, place.Y, place.Width, place.Height, false, opts, 0, "")
		if pdf.Err() {
			return nil, NewRenderError(ErrCodeAssemblyFailed, fmt.Sprintf("place page %d", page.Index), pdf.Error())
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, NewRenderError(ErrCodeAssemblyFailed, "write PDF", err)
	}
	return buf.Bytes(), nil
}
