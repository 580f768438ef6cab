package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/erp/invoice-export/internal/application/export"
	"github.com/erp/invoice-export/internal/domain/invoice"
	"github.com/erp/invoice-export/internal/domain/printing"
	"github.com/erp/invoice-export/internal/domain/shared"
	infra "github.com/erp/invoice-export/internal/infrastructure/printing"
	"github.com/erp/invoice-export/internal/interfaces/http/dto"
	"github.com/erp/invoice-export/internal/interfaces/http/middleware"
	"github.com/erp/invoice-export/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// MockExportService is a mock implementation of ExportService
type MockExportService struct {
	mock.Mock
}

func (m *MockExportService) DownloadAsPDF(ctx context.Context, req export.ExportRequest) (*export.Artifact, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*export.Artifact), args.Error(1)
}

func (m *MockExportService) DownloadAsImage(ctx context.Context, req export.ExportRequest) (*export.Artifact, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*export.Artifact), args.Error(1)
}

func (m *MockExportService) PrintInvoice(ctx context.Context, req export.ExportRequest) (*export.PrintResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*export.PrintResponse), args.Error(1)
}

func (m *MockExportService) PlanLayout(ctx context.Context, doc *invoice.Document) (*export.LayoutResponse, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*export.LayoutResponse), args.Error(1)
}

// MockJobService is a mock implementation of JobService
type MockJobService struct {
	mock.Mock
}

func (m *MockJobService) GetJob(ctx context.Context, jobID uuid.UUID) (*export.ExportJobResponse, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*export.ExportJobResponse), args.Error(1)
}

func (m *MockJobService) ListJobs(ctx context.Context, req export.ListJobsRequest) (*export.ListJobsResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*export.ListJobsResponse), args.Error(1)
}

func (m *MockJobService) DownloadJob(ctx context.Context, jobID uuid.UUID) (*export.JobDownload, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*export.JobDownload), args.Error(1)
}

func newTestEngine(exports ExportService, jobs JobService) *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestID())
	r := router.NewRouter(engine)
	if exports != nil {
		r.Register(InvoiceRoutes(NewExportHandler(exports), nil))
	}
	if jobs != nil {
		r.Register(JobRoutes(NewJobHandler(jobs)))
	}
	r.Setup()
	return engine
}

func doRequest(engine *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not JSON: %v: %s", err, w.Body.String())
	}
	return resp
}

const exportBody = `{"document": {"invoice_number": "INV-7", "invoice_date": "2024-04-01"}, "credential": "body-token"}`

func failedExport(code string) error {
	return &export.ExportFailedError{
		JobID:  uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		Format: printing.ExportFormatPDF,
		Code:   code,
		Cause:  infra.NewRenderError(code, "stage failed", errors.New("boom")),
	}
}

func errNotFound() error {
	return shared.NewDomainError("NOT_FOUND", "Export job not found")
}
