package printing

import (
	"image"
	"strings"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
)

// Palette used by the page grammar
var (
	colorInk      = gg.Hex("#1f2328")
	colorMuted    = gg.Hex("#57606a")
	colorRule     = gg.Hex("#d0d7de")
	colorHeaderBg = gg.Hex("#f3f4f6")
	colorAccent   = gg.Hex("#0b4f8a")
)

type align int

const (
	alignLeft align = iota
	alignCenter
	alignRight
)

type faceKey struct {
	size float64
	bold bool
}

// canvas draws in logical page units on a gg context sized for the
// supersampled surface. Text in gg is not affected by the transform
// matrix, so every coordinate and font size is scaled here instead.
type canvas struct {
	dc    *gg.Context
	scale float64
	fonts *Fonts
	faces map[faceKey]text.Face
	err   error
}

func newCanvas(width, height int, scale float64, fonts *Fonts) *canvas {
	dc := gg.NewContext(width, height)
	dc.ClearWithColor(gg.White)
	return &canvas{
		dc:    dc,
		scale: scale,
		fonts: fonts,
		faces: make(map[faceKey]text.Face),
	}
}

func (c *canvas) s(v float64) float64 { return v * c.scale }

func (c *canvas) record(err error) {
	if err != nil && c.err == nil {
		c.err = err
	}
}

func (c *canvas) setFont(size float64, bold bool) {
	key := faceKey{size: size, bold: bold}
	face, ok := c.faces[key]
	if !ok {
		face = c.fonts.source(bold).Face(c.s(size))
		c.faces[key] = face
	}
	c.dc.SetFont(face)
}

func (c *canvas) setColor(col gg.RGBA) {
	c.dc.SetRGBA(col.R, col.G, col.B, col.A)
}

func (c *canvas) fillRect(x, y, w, h float64, col gg.RGBA) {
	c.setColor(col)
	c.dc.DrawRectangle(c.s(x), c.s(y), c.s(w), c.s(h))
	c.record(c.dc.Fill())
}

func (c *canvas) strokeRect(x, y, w, h, width float64, col gg.RGBA) {
	c.setColor(col)
	c.dc.SetLineWidth(c.s(width))
	c.dc.DrawRectangle(c.s(x), c.s(y), c.s(w), c.s(h))
	c.record(c.dc.Stroke())
}

func (c *canvas) hline(x1, x2, y, width float64, col gg.RGBA) {
	c.setColor(col)
	c.dc.SetLineWidth(c.s(width))
	c.dc.DrawLine(c.s(x1), c.s(y), c.s(x2), c.s(y))
	c.record(c.dc.Stroke())
}

// text draws s with its baseline at y. For alignRight x is the right edge,
// for alignCenter the midpoint.
func (c *canvas) text(s string, x, y, size float64, bold bool, a align, col gg.RGBA) {
	if s == "" {
		return
	}
	c.setFont(size, bold)
	c.setColor(col)
	switch a {
	case alignRight:
		c.dc.DrawStringAnchored(s, c.s(x), c.s(y), 1, 0)
	case alignCenter:
		c.dc.DrawStringAnchored(s, c.s(x), c.s(y), 0.5, 0)
	default:
		c.dc.DrawString(s, c.s(x), c.s(y))
	}
}

// width returns the logical width of s at the given size
func (c *canvas) width(s string, size float64, bold bool) float64 {
	c.setFont(size, bold)
	w, _ := c.dc.MeasureString(s)
	return w / c.scale
}

// fit truncates s with an ellipsis until it is at most maxWidth wide
func (c *canvas) fit(s string, maxWidth, size float64, bold bool) string {
	if c.width(s, size, bold) <= maxWidth {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := strings.TrimRight(string(runes), " ") + "…"
		if c.width(candidate, size, bold) <= maxWidth {
			return candidate
		}
	}
	return ""
}

// image draws img scaled to fit inside the box, preserving aspect ratio
func (c *canvas) image(img image.Image, x, y, w, h float64) {
	b := img.Bounds()
	iw, ih := float64(b.Dx()), float64(b.Dy())
	if iw <= 0 || ih <= 0 {
		return
	}
	ratio := min(w/iw, h/ih)
	dw, dh := iw*ratio, ih*ratio
	c.dc.DrawImageEx(gg.ImageBufFromImage(img), gg.DrawImageOptions{
		X:             c.s(x + (w-dw)/2),
		Y:             c.s(y + (h-dh)/2),
		DstWidth:      c.s(dw),
		DstHeight:     c.s(dh),
		Interpolation: gg.InterpBilinear,
	})
}

// placeholder marks an image box whose asset could not be resolved
func (c *canvas) placeholder(x, y, w, h float64, label string) {
	c.fillRect(x, y, w, h, colorHeaderBg)
	c.strokeRect(x, y, w, h, 1, colorRule)
	c.text(label, x+w/2, y+h/2+4, 10, false, alignCenter, colorMuted)
}

// snapshot copies the surface out so the context can be closed
func (c *canvas) snapshot() *image.RGBA {
	img := c.dc.Image()
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			rgba.Set(x, y, img.At(x, y))
		}
	}
	return rgba
}

func (c *canvas) close() {
	_ = c.dc.Close()
}
