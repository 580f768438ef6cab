package assets

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp"
)

var supportedTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}

// Decode sniffs and decodes raster image bytes.
// Anything that is not PNG, JPEG, GIF or WebP is rejected.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image data")
	}
	mt := mimetype.Detect(data)
	if !mimetype.EqualsAny(mt.String(), supportedTypes...) {
		return nil, fmt.Errorf("unsupported image type %s", mt.String())
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", mt.String(), err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("image has no pixels")
	}
	return img, nil
}
