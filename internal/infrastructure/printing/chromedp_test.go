package printing

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/erp/invoice-export/internal/domain/printing"
	"github.com/erp/invoice-export/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubPipeline struct {
	result *PrintResult
	err    error
	pages  int
}

func (s *stubPipeline) Print(_ context.Context, pages []*RenderedPage) (*PrintResult, error) {
	s.pages = len(pages)
	return s.result, s.err
}

func (s *stubPipeline) Close() error { return nil }

func TestNewChromedpPrinter_Defaults(t *testing.T) {
	p := NewChromedpPrinter(config.ChromeConfig{}, printing.PaperSize("B5"), nil)
	defer p.Close()

	assert.Equal(t, printing.PaperSizeA4, p.paper, "unknown paper falls back to A4")
	assert.Equal(t, defaultChromeTimeout, p.timeout)
	assert.NotNil(t, p.allocCtx)
}

func TestNewChromedpPrinter_RemoteAllocator(t *testing.T) {
	p := NewChromedpPrinter(config.ChromeConfig{
		RemoteURL: "ws://127.0.0.1:9222",
		Timeout:   5 * time.Second,
	}, printing.PaperSizeLetter, zap.NewNop())
	defer p.Close()

	assert.Equal(t, printing.PaperSizeLetter, p.paper)
	assert.Equal(t, 5*time.Second, p.timeout)
}

func TestChromedpPrinter_PrintRejectsEmptyInput(t *testing.T) {
	p := NewChromedpPrinter(config.ChromeConfig{}, printing.PaperSizeA4, nil)
	defer p.Close()

	_, err := p.Print(context.Background(), nil)
	require.Error(t, err)
	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, ErrCodeAssemblyFailed, renderErr.Code)
}

func TestPrintDocument_OneSheetPerPage(t *testing.T) {
	pages := []*RenderedPage{solidPage(1, 3, 80, 113), solidPage(2, 3, 80, 113), solidPage(3, 3, 80, 113)}

	doc, err := printDocument(pages, printing.PaperSizeA4)
	require.NoError(t, err)

	assert.Contains(t, doc, "@page{size:210.00mm 297.00mm;margin:0}")
	assert.Equal(t, 3, strings.Count(doc, `<div class="sheet">`))
	assert.Equal(t, 3, strings.Count(doc, "data:image/png;base64,"))
	assert.Less(t, strings.Index(doc, `alt="page 1"`), strings.Index(doc, `alt="page 2"`))
	assert.Less(t, strings.Index(doc, `alt="page 2"`), strings.Index(doc, `alt="page 3"`))
}

func TestPrintDocument_PlacesPageAtTopCenter(t *testing.T) {
	doc, err := printDocument([]*RenderedPage{solidPage(1, 1, 100, 420)}, printing.PaperSizeA5)
	require.NoError(t, err)

	// 100x420 px on 148x210 mm is height bound: 0.5 mm/px, 50 mm wide, 49 mm left
	assert.Contains(t, doc, "size:148.00mm 210.00mm")
	assert.Contains(t, doc, "left:49.000mm;top:0.000mm;width:50.000mm;height:210.000mm")
}

func TestCountPDFPages(t *testing.T) {
	tests := []struct {
		name string
		pdf  string
		want int
	}{
		{"single page", "<< /Type /Pages /Count 1 >> << /Type /Page >>", 1},
		{"three pages", "<< /Type /Pages >> << /Type /Page >> << /Type /Page >> << /Type /Page >>", 3},
		{"no page objects", "%PDF-1.4", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, countPDFPages([]byte(tt.pdf)))
		})
	}
}

func TestMMToInches(t *testing.T) {
	assert.InDelta(t, 8.27, mmToInches(210), 0.01)
	assert.InDelta(t, 11.69, mmToInches(297), 0.01)
}

func TestPrintExporter(t *testing.T) {
	pages := []*RenderedPage{solidPage(1, 2, 10, 14), solidPage(2, 2, 10, 14)}

	t.Run("returns the pipeline PDF", func(t *testing.T) {
		stub := &stubPipeline{result: &PrintResult{PDF: []byte("%PDF-print"), PageCount: 2}}
		e := PrintExporter{Pipeline: stub}

		assert.Equal(t, printing.ExportFormatPrint, e.Format())
		data, err := e.Export(context.Background(), pages)
		require.NoError(t, err)
		assert.Equal(t, []byte("%PDF-print"), data)
		assert.Equal(t, 2, stub.pages)
	})

	t.Run("propagates pipeline errors", func(t *testing.T) {
		boom := NewRenderError(ErrCodePrintFailed, "chromedp execution failed", errors.New("crash"))
		_, err := PrintExporter{Pipeline: &stubPipeline{err: boom}}.Export(context.Background(), pages)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("unconfigured pipeline", func(t *testing.T) {
		_, err := PrintExporter{}.Export(context.Background(), pages)
		var renderErr *RenderError
		require.ErrorAs(t, err, &renderErr)
		assert.Equal(t, ErrCodePrintFailed, renderErr.Code)
	})
}
