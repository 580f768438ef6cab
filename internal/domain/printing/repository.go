package printing

import (
	"context"

	"github.com/erp/invoice-export/internal/domain/shared"
	"github.com/google/uuid"
)

// ExportJobRepository defines the interface for export job persistence
type ExportJobRepository interface {
	// FindByID finds a job by ID
	FindByID(ctx context.Context, id uuid.UUID) (*ExportJob, error)

	// FindAll finds jobs matching the filter.
	// Supported filter keys: invoice_number, status, format.
	FindAll(ctx context.Context, filter shared.Filter) ([]ExportJob, error)

	// Count returns the number of jobs matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Save saves a job (insert or update)
	Save(ctx context.Context, job *ExportJob) error
}
