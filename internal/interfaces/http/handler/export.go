package handler

import (
	"context"
	"mime"
	"net/http"
	"strconv"

	"github.com/erp/invoice-export/internal/application/export"
	"github.com/erp/invoice-export/internal/domain/invoice"
	"github.com/gin-gonic/gin"
)

// AssetTokenHeader carries the credential used to fetch remote assets.
// It takes precedence over a credential in the request body.
const AssetTokenHeader = "X-Asset-Token"

// ExportService is the export surface used by ExportHandler
type ExportService interface {
	DownloadAsPDF(ctx context.Context, req export.ExportRequest) (*export.Artifact, error)
	DownloadAsImage(ctx context.Context, req export.ExportRequest) (*export.Artifact, error)
	PrintInvoice(ctx context.Context, req export.ExportRequest) (*export.PrintResponse, error)
	PlanLayout(ctx context.Context, doc *invoice.Document) (*export.LayoutResponse, error)
}

// ExportHandler handles invoice export endpoints
type ExportHandler struct {
	BaseHandler
	service ExportService
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(service ExportService) *ExportHandler {
	return &ExportHandler{service: service}
}

// ExportPDF renders the posted invoice and returns it as a PDF attachment
//
//	POST /invoices/export/pdf
func (h *ExportHandler) ExportPDF(c *gin.Context) {
	h.serveArtifact(c, h.service.DownloadAsPDF)
}

// ExportImage renders the posted invoice and returns one PNG attachment
//
//	POST /invoices/export/image
func (h *ExportHandler) ExportImage(c *gin.Context) {
	h.serveArtifact(c, h.service.DownloadAsImage)
}

// PrintInvoice sends the posted invoice through the print pipeline.
// The response is the completed job with its download URL.
//
//	POST /invoices/export/print
func (h *ExportHandler) PrintInvoice(c *gin.Context) {
	req, ok := h.bindExport(c)
	if !ok {
		return
	}

	result, err := h.service.PrintInvoice(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header(JobIDHeader, result.Job.ID)
	h.Created(c, result)
}

// PlanLayout returns the page plan of the posted invoice without rendering
//
//	POST /invoices/layout
func (h *ExportHandler) PlanLayout(c *gin.Context) {
	var req export.LayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindError(c, err)
		return
	}

	result, err := h.service.PlanLayout(c.Request.Context(), req.Document)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

type exportFunc func(ctx context.Context, req export.ExportRequest) (*export.Artifact, error)

func (h *ExportHandler) serveArtifact(c *gin.Context, run exportFunc) {
	req, ok := h.bindExport(c)
	if !ok {
		return
	}

	artifact, err := run(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", attachment(artifact.FileName))
	c.Header("Content-Length", strconv.FormatInt(artifact.Size(), 10))
	c.Header("X-Page-Count", strconv.Itoa(artifact.PageCount))
	c.Header(JobIDHeader, artifact.JobID.String())
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, artifact.ContentType, artifact.Data)
}

func (h *ExportHandler) bindExport(c *gin.Context) (export.ExportRequest, bool) {
	var req export.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindError(c, err)
		return req, false
	}
	if token := c.GetHeader(AssetTokenHeader); token != "" {
		req.Credential = token
	}
	return req, true
}

func attachment(fileName string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": fileName})
}
