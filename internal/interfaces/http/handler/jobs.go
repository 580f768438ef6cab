package handler

import (
	"context"
	"net/http"

	"github.com/erp/invoice-export/internal/application/export"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// JobService is the export job surface used by JobHandler
type JobService interface {
	GetJob(ctx context.Context, jobID uuid.UUID) (*export.ExportJobResponse, error)
	ListJobs(ctx context.Context, req export.ListJobsRequest) (*export.ListJobsResponse, error)
	DownloadJob(ctx context.Context, jobID uuid.UUID) (*export.JobDownload, error)
}

// JobHandler handles export job endpoints
type JobHandler struct {
	BaseHandler
	service JobService
}

// NewJobHandler creates a new JobHandler
func NewJobHandler(service JobService) *JobHandler {
	return &JobHandler{service: service}
}

// ListJobs lists export jobs, newest first by default
//
//	GET /export-jobs?invoice_number=&status=&format=&page=&page_size=
func (h *JobHandler) ListJobs(c *gin.Context) {
	var req export.ListJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.HandleBindError(c, err)
		return
	}

	result, err := h.service.ListJobs(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.Size)
}

// GetJob returns one export job
//
//	GET /export-jobs/:id
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID, ok := h.jobID(c)
	if !ok {
		return
	}

	job, err := h.service.GetJob(c.Request.Context(), jobID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, job)
}

// Download streams the spooled file of a completed print job
//
//	GET /export-jobs/:id/download
func (h *JobHandler) Download(c *gin.Context) {
	jobID, ok := h.jobID(c)
	if !ok {
		return
	}

	file, err := h.service.DownloadJob(c.Request.Context(), jobID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer file.Body.Close()

	c.DataFromReader(http.StatusOK, file.Size, file.ContentType, file.Body, map[string]string{
		"Content-Disposition": attachment(file.FileName),
		JobIDHeader:           jobID.String(),
	})
}

func (h *JobHandler) jobID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid job ID format")
		return uuid.Nil, false
	}
	return id, true
}
