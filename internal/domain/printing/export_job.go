package printing

import (
	"time"

	"github.com/erp/invoice-export/internal/domain/shared"
)

// ExportJob records one export call for an invoice.
// Artifacts are handed to the caller; only print output is kept and referenced here.
type ExportJob struct {
	shared.BaseEntity
	InvoiceNumber  string
	Format         ExportFormat
	Status         JobStatus
	PageCount      int
	AssetFallbacks int // assets replaced by a placeholder
	FileName       string
	ArtifactPath   string // storage path of the spooled print file
	ArtifactURL    string
	SizeBytes      int64
	ErrorMessage   string
	RequestID      string
	CompletedAt    *time.Time
}

// Artifact describes the output attached to a completed job
type Artifact struct {
	FileName string
	Size     int64
	Path     string
	URL      string
}

// NewExportJob creates a pending export job
func NewExportJob(invoiceNumber string, format ExportFormat) (*ExportJob, error) {
	if invoiceNumber == "" {
		return nil, shared.NewDomainError("INVALID_DOCUMENT_NUMBER", "Invoice number cannot be empty")
	}
	if !format.IsValid() {
		return nil, shared.NewDomainError("INVALID_FORMAT", "Invalid export format: "+string(format))
	}

	return &ExportJob{
		BaseEntity:    shared.NewBaseEntity(),
		InvoiceNumber: invoiceNumber,
		Format:        format,
		Status:        JobStatusPending,
	}, nil
}

// StartRendering marks the job as rendering the planned number of pages
func (j *ExportJob) StartRendering(pageCount int) error {
	if !j.Status.CanTransitionTo(JobStatusRendering) {
		return shared.NewDomainError("INVALID_STATE",
			"Cannot start rendering from status: "+j.Status.String())
	}
	if pageCount < 1 {
		return shared.NewDomainError("INVALID_PAGE_COUNT", "An export needs at least one page")
	}

	j.Status = JobStatusRendering
	j.PageCount = pageCount
	j.Touch()
	return nil
}

// RecordAssetFallbacks stores how many assets were replaced by a placeholder
func (j *ExportJob) RecordAssetFallbacks(n int) {
	j.AssetFallbacks = n
}

// Complete marks the job as completed with its artifact
func (j *ExportJob) Complete(artifact Artifact) error {
	if !j.Status.CanTransitionTo(JobStatusCompleted) {
		return shared.NewDomainError("INVALID_STATE",
			"Cannot complete from status: "+j.Status.String())
	}
	if artifact.FileName == "" || artifact.Size <= 0 {
		return shared.NewDomainError("INVALID_ARTIFACT", "Completed export must carry a non-empty artifact")
	}

	j.Status = JobStatusCompleted
	j.FileName = artifact.FileName
	j.SizeBytes = artifact.Size
	j.ArtifactPath = artifact.Path
	j.ArtifactURL = artifact.URL
	now := time.Now()
	j.CompletedAt = &now
	j.Touch()
	return nil
}

// Fail marks the job as failed with an error message
func (j *ExportJob) Fail(errorMessage string) error {
	if j.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE",
			"Cannot fail a job that is already in terminal status: "+j.Status.String())
	}

	j.Status = JobStatusFailed
	j.ErrorMessage = errorMessage
	j.Touch()
	return nil
}

// IsCompleted returns true if the job is completed
func (j *ExportJob) IsCompleted() bool {
	return j.Status == JobStatusCompleted
}

// HasArtifact returns true if a spooled artifact can be downloaded
func (j *ExportJob) HasArtifact() bool {
	return j.IsCompleted() && j.ArtifactPath != ""
}
