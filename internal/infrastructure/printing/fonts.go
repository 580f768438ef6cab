package printing

import (
	"errors"
	"fmt"

	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// Fonts holds the parsed font sources. Sources are safe for concurrent use
// and are shared; faces are created per render call.
type Fonts struct {
	regular *text.FontSource
	bold    *text.FontSource
}

// LoadFonts parses the embedded Go fonts
func LoadFonts() (*Fonts, error) {
	regular, err := text.NewFontSource(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("load regular font: %w", err)
	}
	bold, err := text.NewFontSource(gobold.TTF)
	if err != nil {
		_ = regular.Close()
		return nil, fmt.Errorf("load bold font: %w", err)
	}
	return &Fonts{regular: regular, bold: bold}, nil
}

// Close releases the font sources
func (f *Fonts) Close() error {
	if f == nil {
		return nil
	}
	return errors.Join(f.regular.Close(), f.bold.Close())
}

func (f *Fonts) source(bold bool) *text.FontSource {
	if bold {
		return f.bold
	}
	return f.regular
}
