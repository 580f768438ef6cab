package export_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/erp/invoice-export/internal/application/export"
	"github.com/erp/invoice-export/internal/domain/invoice"
	domain "github.com/erp/invoice-export/internal/domain/printing"
	"github.com/erp/invoice-export/internal/infrastructure/assets"
	"github.com/erp/invoice-export/internal/infrastructure/cache"
	"github.com/erp/invoice-export/internal/infrastructure/config"
	infra "github.com/erp/invoice-export/internal/infrastructure/printing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newRealService wires the production collaborators with only the job store mocked
func newRealService(t *testing.T, assetsURL string) (*export.Service, *MockJobRepository) {
	t.Helper()

	layout, err := invoice.NewLayout(invoice.DefaultLayoutConfig())
	require.NoError(t, err)
	fonts, err := infra.LoadFonts()
	require.NoError(t, err)
	t.Cleanup(func() { _ = fonts.Close() })
	renderer, err := infra.NewPageRenderer(layout.Config(), fonts, 1)
	require.NoError(t, err)

	assetCache := cache.NewInMemoryAssetCache()
	lock := cache.NewInMemoryExportLock()
	t.Cleanup(func() {
		_ = assetCache.Close()
		_ = lock.Close()
	})
	resolver := assets.NewResolverFromConfig(config.AssetsConfig{
		DriveBaseURL:   assetsURL,
		Timeout:        2 * time.Second,
		MaxRetries:     0,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
		CacheTTL:       time.Minute,
		MaxAssetBytes:  1 << 20,
		Concurrency:    2,
	}, nil, assetCache, zap.NewNop())

	jobs := new(MockJobRepository)
	jobs.On("Save", mock.Anything, mock.Anything).Return(nil)

	svc, err := export.NewService(export.Config{Timeout: 30 * time.Second}, export.Dependencies{
		Layout:   layout,
		Resolver: resolver,
		Renderer: renderer,
		PDF:      infra.NewPDFExporter(domain.PaperSizeA4),
		Image:    infra.NewImageExporter(),
		Jobs:     jobs,
		Lock:     lock,
		Logger:   zap.NewNop(),
	})
	require.NoError(t, err)
	return svc, jobs
}

func pdfPageCount(data []byte) int {
	return bytes.Count(data, []byte("/Type /Page")) - bytes.Count(data, []byte("/Type /Pages"))
}

func TestPipeline_LogoFailureRendersPlaceholder(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	svc, jobs := newRealService(t, server.URL)
	doc := newDocument(3)
	doc.Assets.CompanyLogoRef = server.URL + "/logo.png"
	doc.Assets.QRPayload = "upi://pay?pa=acme@bank&am=100"

	artifact, err := svc.DownloadAsPDF(context.Background(), export.ExportRequest{Document: doc})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(artifact.Data, []byte("%PDF")))
	assert.Equal(t, 1, pdfPageCount(artifact.Data))
	assert.Equal(t, domain.JobStatusCompleted, jobs.statuses[len(jobs.statuses)-1])
}

func TestPipeline_ThirtyItemsGiveThreePDFPages(t *testing.T) {
	svc, _ := newRealService(t, "http://127.0.0.1:1")

	artifact, err := svc.DownloadAsPDF(context.Background(), export.ExportRequest{Document: newDocument(30)})
	require.NoError(t, err)
	assert.Equal(t, 3, artifact.PageCount)
	assert.Equal(t, 3, pdfPageCount(artifact.Data))
}

func TestPipeline_ImageStacksPages(t *testing.T) {
	svc, _ := newRealService(t, "http://127.0.0.1:1")

	single, err := svc.DownloadAsImage(context.Background(), export.ExportRequest{Document: newDocument(1)})
	require.NoError(t, err)
	stacked, err := svc.DownloadAsImage(context.Background(), export.ExportRequest{Document: newDocument(30)})
	require.NoError(t, err)

	assert.Equal(t, []byte("\x89PNG"), single.Data[:4])
	assert.Equal(t, 3, stacked.PageCount)
	assert.Greater(t, len(stacked.Data), len(single.Data))
}
