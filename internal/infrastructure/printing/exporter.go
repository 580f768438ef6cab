package printing

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/erp/invoice-export/internal/domain/printing"
)

// Exporter assembles rendered pages into one artifact
type Exporter interface {
	Format() printing.ExportFormat
	Export(ctx context.Context, pages []*RenderedPage) ([]byte, error)
}

// checkAssembly verifies pages are complete and in strict ascending order
func checkAssembly(pages []*RenderedPage) error {
	if len(pages) == 0 {
		return NewRenderError(ErrCodeAssemblyFailed, "no pages to assemble", nil)
	}
	total := len(pages)
	for i, p := range pages {
		if p == nil || p.Image == nil {
			return NewRenderError(ErrCodeAssemblyFailed, fmt.Sprintf("page %d has no surface", i+1), nil)
		}
		if p.Index != i+1 {
			return NewRenderError(ErrCodeAssemblyFailed,
				fmt.Sprintf("page at position %d has index %d", i+1, p.Index), nil)
		}
		if p.Total != 0 && p.Total != total {
			return NewRenderError(ErrCodeAssemblyFailed,
				fmt.Sprintf("page %d claims %d pages, got %d", p.Index, p.Total, total), nil)
		}
		b := p.Image.Bounds()
		if b.Dx() <= 0 || b.Dy() <= 0 {
			return NewRenderError(ErrCodeAssemblyFailed, fmt.Sprintf("page %d surface is empty", p.Index), nil)
		}
	}
	return nil
}

// encodePNG encodes one surface for embedding
func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
