package printing

import (
	"fmt"
	"math"

	"github.com/erp/invoice-export/internal/domain/shared"
)

// Logical page surface, A4 at 96dpi
const (
	LogicalPageWidth  = 794
	LogicalPageHeight = 1123
)

// MaxSupersample bounds the raster scale factor
const MaxSupersample = 4.0

// SurfaceSize is the pixel size of a rendered page at a given supersampling factor
type SurfaceSize struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Scale  float64 `json:"scale"`
}

// NewSurfaceSize scales the logical page by the supersampling factor
func NewSurfaceSize(scale float64) (SurfaceSize, error) {
	if scale <= 0 || scale > MaxSupersample || math.IsNaN(scale) {
		return SurfaceSize{}, shared.NewDomainError("INVALID_SCALE",
			fmt.Sprintf("Supersample factor must be in (0, %.0f]", MaxSupersample))
	}
	return SurfaceSize{
		Width:  int(math.Round(LogicalPageWidth * scale)),
		Height: int(math.Round(LogicalPageHeight * scale)),
		Scale:  scale,
	}, nil
}

// Placement is where one raster surface lands on a physical sheet, in millimeters
type Placement struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Ratio  float64 `json:"ratio"` // millimeters per pixel
}

// FitToPaper scales an image of imgWidth x imgHeight pixels onto the sheet using
// ratio = min(paperWidth/imgWidth, paperHeight/imgHeight), centered horizontally
// and aligned to the top edge.
func FitToPaper(imgWidth, imgHeight int, paper PaperSize) (Placement, error) {
	if imgWidth <= 0 || imgHeight <= 0 {
		return Placement{}, shared.NewDomainError("INVALID_SURFACE",
			fmt.Sprintf("Surface dimensions must be positive, got %dx%d", imgWidth, imgHeight))
	}
	paperW, paperH := paper.Dimensions()
	ratio := math.Min(paperW/float64(imgWidth), paperH/float64(imgHeight))
	w := float64(imgWidth) * ratio
	h := float64(imgHeight) * ratio
	return Placement{
		X:      (paperW - w) / 2,
		Y:      0,
		Width:  w,
		Height: h,
		Ratio:  ratio,
	}, nil
}
