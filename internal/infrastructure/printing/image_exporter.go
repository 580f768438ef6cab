package printing

import (
	"bytes"
	"context"
	"fmt"

	"github.com/erp/invoice-export/internal/domain/printing"
	"github.com/gogpu/gg"
)

// maxStackedPixels bounds the stacked image allocation
const maxStackedPixels = 256 << 20

// ImageExporter writes a single page as PNG, or stacks several pages
// vertically in order into one PNG
type ImageExporter struct{}

// NewImageExporter creates an image exporter
func NewImageExporter() *ImageExporter { return &ImageExporter{} }

// Format implements Exporter
func (e *ImageExporter) Format() printing.ExportFormat { return printing.ExportFormatImage }

// Export implements Exporter
func (e *ImageExporter) Export(ctx context.Context, pages []*RenderedPage) ([]byte, error) {
	if err := checkAssembly(pages); err != nil {
		return nil, err
	}
	if len(pages) == 1 {
		data, err := encodePNG(pages[0].Image)
		if err != nil {
			return nil, NewRenderError(ErrCodeAssemblyFailed, "encode page 1", err)
		}
		return data, nil
	}

	width, height := 0, 0
	for _, p := range pages {
		b := p.Bounds()
		width = max(width, b.Dx())
		height += b.Dy()
	}
	if width*height > maxStackedPixels {
		return nil, NewRenderError(ErrCodeAssemblyFailed,
			fmt.Sprintf("stacked image %dx%d is too large", width, height), nil)
	}

	dc := gg.NewContext(width, height)
	defer dc.Close()
	dc.ClearWithColor(gg.White)

	y := 0
	for _, p := range pages {
		if err := contextError(ctx, "image assembly"); err != nil {
			return nil, err
		}
		dc.DrawImage(gg.ImageBufFromImage(p.Image), 0, float64(y))
		y += p.Bounds().Dy()
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, NewRenderError(ErrCodeAssemblyFailed, "encode stacked image", err)
	}
	return buf.Bytes(), nil
}
