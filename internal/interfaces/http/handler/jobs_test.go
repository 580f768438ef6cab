package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/erp/invoice-export/internal/application/export"
	"github.com/erp/invoice-export/internal/interfaces/http/dto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type trackingBody struct {
	io.Reader
	closed bool
}

func (b *trackingBody) Close() error {
	b.closed = true
	return nil
}

func TestJobHandler_GetJob(t *testing.T) {
	svc := new(MockJobService)
	jobID := uuid.New()
	svc.On("GetJob", mock.Anything, jobID).Return(&export.ExportJobResponse{
		ID:            jobID.String(),
		InvoiceNumber: "INV-7",
		Format:        "PDF",
		Status:        "COMPLETED",
		PageCount:     3,
		CreatedAt:     time.Now(),
	}, nil)

	w := doRequest(newTestEngine(nil, svc), http.MethodGet, "/api/v1/export-jobs/"+jobID.String(), "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"COMPLETED"`)
	assert.Contains(t, w.Body.String(), `"page_count":3`)
}

func TestJobHandler_GetJobErrors(t *testing.T) {
	t.Run("invalid ID", func(t *testing.T) {
		svc := new(MockJobService)
		w := doRequest(newTestEngine(nil, svc), http.MethodGet, "/api/v1/export-jobs/not-a-uuid", "", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeBadRequest, decodeResponse(t, w).Error.Code)
		svc.AssertNotCalled(t, "GetJob", mock.Anything, mock.Anything)
	})

	t.Run("not found", func(t *testing.T) {
		svc := new(MockJobService)
		svc.On("GetJob", mock.Anything, mock.Anything).Return(nil, errNotFound())

		w := doRequest(newTestEngine(nil, svc), http.MethodGet, "/api/v1/export-jobs/"+uuid.NewString(), "", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, dto.ErrCodeNotFound, decodeResponse(t, w).Error.Code)
	})
}

func TestJobHandler_ListJobs(t *testing.T) {
	svc := new(MockJobService)
	svc.On("ListJobs", mock.Anything, export.ListJobsRequest{
		Page:          2,
		PageSize:      5,
		InvoiceNumber: "INV-7",
		Status:        "failed",
	}).Return(&export.ListJobsResponse{
		Items: []export.ExportJobResponse{{ID: uuid.NewString(), Status: "FAILED"}},
		Total: 6,
		Page:  2,
		Size:  5,
	}, nil)

	w := doRequest(newTestEngine(nil, svc), http.MethodGet,
		"/api/v1/export-jobs?page=2&page_size=5&invoice_number=INV-7&status=failed", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(6), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.Page)
	assert.Equal(t, 2, resp.Meta.TotalPages)
	svc.AssertExpectations(t)
}

func TestJobHandler_ListJobsRejectsBadQuery(t *testing.T) {
	svc := new(MockJobService)

	w := doRequest(newTestEngine(nil, svc), http.MethodGet, "/api/v1/export-jobs?page_size=1000", "", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, decodeResponse(t, w).Error.Code)
	svc.AssertNotCalled(t, "ListJobs", mock.Anything, mock.Anything)
}

func TestJobHandler_Download(t *testing.T) {
	svc := new(MockJobService)
	jobID := uuid.New()
	body := &trackingBody{Reader: strings.NewReader("%PDF-1.4 spooled")}
	svc.On("DownloadJob", mock.Anything, jobID).Return(&export.JobDownload{
		Body:        body,
		FileName:    "invoice-7.pdf",
		ContentType: "application/pdf",
		Size:        int64(len("%PDF-1.4 spooled")),
	}, nil)

	w := doRequest(newTestEngine(nil, svc), http.MethodGet, "/api/v1/export-jobs/"+jobID.String()+"/download", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "%PDF-1.4 spooled", w.Body.String())
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=invoice-7.pdf", w.Header().Get("Content-Disposition"))
	assert.True(t, body.closed)
}

func TestJobHandler_DownloadWithoutArtifact(t *testing.T) {
	svc := new(MockJobService)
	svc.On("DownloadJob", mock.Anything, mock.Anything).Return(nil, errNotFound())

	w := doRequest(newTestEngine(nil, svc), http.MethodGet, "/api/v1/export-jobs/"+uuid.NewString()+"/download", "", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]HealthCheck
		wantStatus int
		wantBody   string
	}{
		{
			name: "all healthy",
			checks: map[string]HealthCheck{
				"database": func(context.Context) error { return nil },
				"cache":    func(context.Context) error { return nil },
			},
			wantStatus: http.StatusOK,
			wantBody:   `"status":"healthy"`,
		},
		{
			name: "database down",
			checks: map[string]HealthCheck{
				"database": func(context.Context) error { return errors.New("connection refused") },
				"cache":    func(context.Context) error { return nil },
			},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   `"database":"error"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestEngine(nil, nil)
			engine.GET("/health", NewHealthHandler(tt.checks).Health)

			w := doRequest(engine, http.MethodGet, "/health", "", nil)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
			assert.NotContains(t, w.Body.String(), "connection refused")
		})
	}
}
