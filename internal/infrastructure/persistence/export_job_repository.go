package persistence

import (
	"context"
	"errors"

	"github.com/erp/invoice-export/internal/domain/printing"
	"github.com/erp/invoice-export/internal/domain/shared"
	"github.com/erp/invoice-export/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormExportJobRepository implements ExportJobRepository using GORM
type GormExportJobRepository struct {
	db *gorm.DB
}

// NewGormExportJobRepository creates a new GormExportJobRepository
func NewGormExportJobRepository(db *gorm.DB) *GormExportJobRepository {
	return &GormExportJobRepository{db: db}
}

// FindByID finds a job by ID
func (r *GormExportJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*printing.ExportJob, error) {
	var model models.ExportJobModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds jobs matching the filter, newest first by default
func (r *GormExportJobRepository) FindAll(ctx context.Context, filter shared.Filter) ([]printing.ExportJob, error) {
	var jobModels []models.ExportJobModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ExportJobModel{}), filter)

	if err := query.Find(&jobModels).Error; err != nil {
		return nil, err
	}

	jobs := make([]printing.ExportJob, len(jobModels))
	for i, model := range jobModels {
		jobs[i] = *model.ToDomain()
	}
	return jobs, nil
}

// Count returns the number of jobs matching the filter
func (r *GormExportJobRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyConditions(r.db.WithContext(ctx).Model(&models.ExportJobModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save inserts or updates a job
func (r *GormExportJobRepository) Save(ctx context.Context, job *printing.ExportJob) error {
	model := models.ExportJobModelFromDomain(job)
	return r.db.WithContext(ctx).Save(model).Error
}

// applyFilter adds conditions, pagination and a whitelisted ordering
func (r *GormExportJobRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyConditions(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	sortField := ValidateSortField(filter.OrderBy, ExportJobSortFields, "created_at")
	return query.Order(sortField + " " + ValidateSortOrder(filter.OrderDir))
}

func (r *GormExportJobRepository) applyConditions(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "invoice_number":
			query = query.Where("invoice_number = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "format":
			query = query.Where("format = ?", value)
		}
	}
	return query
}

var _ printing.ExportJobRepository = (*GormExportJobRepository)(nil)
