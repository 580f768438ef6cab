package assets

import (
	"fmt"
	"image"

	qrcode "github.com/skip2/go-qrcode"
)

// QRImage encodes payload as a square QR code of size pixels
func QRImage(payload string, size int) (image.Image, error) {
	if payload == "" {
		return nil, fmt.Errorf("empty QR payload")
	}
	code, err := qrcode.New(payload, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("encode QR payload: %w", err)
	}
	return code.Image(size), nil
}
