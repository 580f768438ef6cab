package models

import (
	"time"

	"github.com/erp/invoice-export/internal/domain/printing"
)

// ExportJobModel is the GORM model for the export_jobs table
type ExportJobModel struct {
	BaseModel
	InvoiceNumber  string     `gorm:"column:invoice_number;type:varchar(64);not null;index"`
	Format         string     `gorm:"type:varchar(20);not null"`
	Status         string     `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	PageCount      int        `gorm:"column:page_count;not null;default:0"`
	AssetFallbacks int        `gorm:"column:asset_fallbacks;not null;default:0"`
	FileName       string     `gorm:"column:file_name;type:varchar(255)"`
	ArtifactPath   string     `gorm:"column:artifact_path;type:varchar(500)"`
	ArtifactURL    string     `gorm:"column:artifact_url;type:text"`
	SizeBytes      int64      `gorm:"column:size_bytes;not null;default:0"`
	ErrorMessage   string     `gorm:"column:error_message;type:text"`
	RequestID      string     `gorm:"column:request_id;type:varchar(64)"`
	CompletedAt    *time.Time `gorm:"column:completed_at"`
}

// TableName returns the table name for ExportJobModel
func (ExportJobModel) TableName() string {
	return "export_jobs"
}

// ToDomain converts ExportJobModel to the domain ExportJob
func (m *ExportJobModel) ToDomain() *printing.ExportJob {
	return &printing.ExportJob{
		BaseEntity:     m.BaseModel.ToDomain(),
		InvoiceNumber:  m.InvoiceNumber,
		Format:         printing.ExportFormat(m.Format),
		Status:         printing.JobStatus(m.Status),
		PageCount:      m.PageCount,
		AssetFallbacks: m.AssetFallbacks,
		FileName:       m.FileName,
		ArtifactPath:   m.ArtifactPath,
		ArtifactURL:    m.ArtifactURL,
		SizeBytes:      m.SizeBytes,
		ErrorMessage:   m.ErrorMessage,
		RequestID:      m.RequestID,
		CompletedAt:    m.CompletedAt,
	}
}

// ExportJobModelFromDomain creates an ExportJobModel from the domain ExportJob
func ExportJobModelFromDomain(j *printing.ExportJob) *ExportJobModel {
	m := &ExportJobModel{
		InvoiceNumber:  j.InvoiceNumber,
		Format:         string(j.Format),
		Status:         string(j.Status),
		PageCount:      j.PageCount,
		AssetFallbacks: j.AssetFallbacks,
		FileName:       j.FileName,
		ArtifactPath:   j.ArtifactPath,
		ArtifactURL:    j.ArtifactURL,
		SizeBytes:      j.SizeBytes,
		ErrorMessage:   j.ErrorMessage,
		RequestID:      j.RequestID,
		CompletedAt:    j.CompletedAt,
	}
	m.FromDomainBaseEntity(j.BaseEntity)
	return m
}
