package export

import (
	"io"
	"time"

	"github.com/erp/invoice-export/internal/domain/invoice"
	"github.com/erp/invoice-export/internal/domain/printing"
	"github.com/google/uuid"
)

// =============================================================================
// Export DTOs
// =============================================================================

// ExportRequest carries one fully computed invoice to export.
// Credential is only ever used to fetch remote assets.
type ExportRequest struct {
	Document   *invoice.Document `json:"document" binding:"required"`
	Credential string            `json:"credential,omitempty"`
}

// Artifact is a produced export: the bytes plus how to deliver them
type Artifact struct {
	Data        []byte
	ContentType string
	FileName    string
	PageCount   int
	JobID       uuid.UUID
}

// Size returns the artifact length in bytes
func (a *Artifact) Size() int64 {
	return int64(len(a.Data))
}

// PrintResponse is returned by PrintInvoice: the completed job pointing at the spooled file
type PrintResponse struct {
	Job ExportJobResponse `json:"job"`
}

// =============================================================================
// Layout preview DTOs
// =============================================================================

// LayoutRequest asks for the page plan of a document without rendering
type LayoutRequest struct {
	Document *invoice.Document `json:"document" binding:"required"`
}

// PageResponse describes one planned page
type PageResponse struct {
	Index               int    `json:"index"`
	Total               int    `json:"total"`
	Start               int    `json:"start"`
	End                 int    `json:"end"`
	ItemCount           int    `json:"item_count"`
	Banner              string `json:"banner"`
	ShowCompanyHeader   bool   `json:"show_company_header"`
	ShowCustomerDetails bool   `json:"show_customer_details"`
	ShowTaxSummary      bool   `json:"show_tax_summary"`
	ShowFooter          bool   `json:"show_footer"`
}

// LayoutResponse is the estimate and page plan of a document
type LayoutResponse struct {
	InvoiceNumber string           `json:"invoice_number"`
	Estimate      invoice.Estimate `json:"estimate"`
	PageCount     int              `json:"page_count"`
	Pages         []PageResponse   `json:"pages"`
}

// =============================================================================
// Export job DTOs
// =============================================================================

// ListJobsRequest represents a request to list export jobs
type ListJobsRequest struct {
	Page          int    `form:"page" binding:"omitempty,min=1"`
	PageSize      int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy       string `form:"order_by"`
	OrderDir      string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	InvoiceNumber string `form:"invoice_number"`
	Status        string `form:"status"`
	Format        string `form:"format"`
}

// ExportJobResponse represents an export job
type ExportJobResponse struct {
	ID             string     `json:"id"`
	InvoiceNumber  string     `json:"invoice_number"`
	Format         string     `json:"format"`
	Status         string     `json:"status"`
	PageCount      int        `json:"page_count"`
	AssetFallbacks int        `json:"asset_fallbacks"`
	FileName       string     `json:"file_name,omitempty"`
	ArtifactURL    string     `json:"artifact_url,omitempty"`
	SizeBytes      int64      `json:"size_bytes"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	RequestID      string     `json:"request_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// ListJobsResponse represents a paginated list of export jobs
type ListJobsResponse struct {
	Items []ExportJobResponse `json:"items"`
	Total int64               `json:"total"`
	Page  int                 `json:"page"`
	Size  int                 `json:"size"`
}

// JobDownload streams a spooled artifact; the caller must close Body
type JobDownload struct {
	Body        io.ReadCloser
	FileName    string
	ContentType string
	Size        int64
}

func toJobResponse(j *printing.ExportJob) *ExportJobResponse {
	return &ExportJobResponse{
		ID:             j.ID.String(),
		InvoiceNumber:  j.InvoiceNumber,
		Format:         string(j.Format),
		Status:         string(j.Status),
		PageCount:      j.PageCount,
		AssetFallbacks: j.AssetFallbacks,
		FileName:       j.FileName,
		ArtifactURL:    j.ArtifactURL,
		SizeBytes:      j.SizeBytes,
		ErrorMessage:   j.ErrorMessage,
		RequestID:      j.RequestID,
		CreatedAt:      j.CreatedAt,
		UpdatedAt:      j.UpdatedAt,
		CompletedAt:    j.CompletedAt,
	}
}

func toLayoutResponse(doc *invoice.Document, plan invoice.PagePlan) *LayoutResponse {
	pages := make([]PageResponse, len(plan.Pages))
	for i, p := range plan.Pages {
		pages[i] = PageResponse{
			Index:               p.Index,
			Total:               p.Total,
			Start:               p.Start,
			End:                 p.End,
			ItemCount:           p.ItemCount(),
			Banner:              p.Banner(),
			ShowCompanyHeader:   p.ShowCompanyHeader,
			ShowCustomerDetails: p.ShowCustomerDetails,
			ShowTaxSummary:      p.ShowTaxSummary,
			ShowFooter:          p.ShowFooter,
		}
	}
	return &LayoutResponse{
		InvoiceNumber: doc.InvoiceNumber,
		Estimate:      plan.Estimate,
		PageCount:     plan.PageCount(),
		Pages:         pages,
	}
}
