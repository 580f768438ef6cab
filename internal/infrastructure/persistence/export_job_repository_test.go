package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/erp/invoice-export/internal/domain/printing"
	"github.com/erp/invoice-export/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupExportJobTestDB creates an in-memory SQLite database with the export_jobs table
func setupExportJobTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.Exec(`
		CREATE TABLE export_jobs (
			id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			version INTEGER NOT NULL DEFAULT 1,
			invoice_number TEXT NOT NULL,
			format TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'PENDING',
			page_count INTEGER NOT NULL DEFAULT 0,
			asset_fallbacks INTEGER NOT NULL DEFAULT 0,
			file_name TEXT,
			artifact_path TEXT,
			artifact_url TEXT,
			size_bytes INTEGER NOT NULL DEFAULT 0,
			error_message TEXT,
			request_id TEXT,
			completed_at DATETIME
		)
	`).Error
	require.NoError(t, err)
	return db
}

func newJob(t *testing.T, number string, format printing.ExportFormat) *printing.ExportJob {
	t.Helper()
	job, err := printing.NewExportJob(number, format)
	require.NoError(t, err)
	return job
}

func TestGormExportJobRepository_SaveAndFind(t *testing.T) {
	repo := NewGormExportJobRepository(setupExportJobTestDB(t))
	ctx := context.Background()

	job := newJob(t, "INV-001", printing.ExportFormatPrint)
	job.RequestID = "req-1"
	require.NoError(t, repo.Save(ctx, job))

	require.NoError(t, job.StartRendering(2))
	job.RecordAssetFallbacks(1)
	require.NoError(t, job.Complete(printing.Artifact{
		FileName: "invoice-INV-001.pdf",
		Size:     2048,
		Path:     "2024/03/" + job.ID.String() + ".pdf",
		URL:      "/api/v1/export-jobs/" + job.ID.String() + "/download",
	}))
	require.NoError(t, repo.Save(ctx, job))

	found, err := repo.FindByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, "INV-001", found.InvoiceNumber)
	assert.Equal(t, printing.ExportFormatPrint, found.Format)
	assert.Equal(t, printing.JobStatusCompleted, found.Status)
	assert.Equal(t, 2, found.PageCount)
	assert.Equal(t, 1, found.AssetFallbacks)
	assert.Equal(t, int64(2048), found.SizeBytes)
	assert.Equal(t, "req-1", found.RequestID)
	assert.Equal(t, job.Version, found.Version)
	require.NotNil(t, found.CompletedAt)
	assert.True(t, found.HasArtifact())
}

func TestGormExportJobRepository_FindByID_NotFound(t *testing.T) {
	repo := NewGormExportJobRepository(setupExportJobTestDB(t))
	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormExportJobRepository_FindAllAndCount(t *testing.T) {
	repo := NewGormExportJobRepository(setupExportJobTestDB(t))
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	specs := []struct {
		number string
		format printing.ExportFormat
		failed bool
	}{
		{"INV-A", printing.ExportFormatPDF, false},
		{"INV-A", printing.ExportFormatImage, true},
		{"INV-B", printing.ExportFormatPDF, false},
		{"INV-C", printing.ExportFormatPrint, false},
	}
	for i, s := range specs {
		job := newJob(t, s.number, s.format)
		job.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if s.failed {
			require.NoError(t, job.Fail("raster failed"))
		}
		require.NoError(t, repo.Save(ctx, job))
	}

	t.Run("newest first by default", func(t *testing.T) {
		jobs, err := repo.FindAll(ctx, shared.DefaultFilter())
		require.NoError(t, err)
		require.Len(t, jobs, 4)
		assert.Equal(t, "INV-C", jobs[0].InvoiceNumber)
		assert.Equal(t, "INV-A", jobs[3].InvoiceNumber)
	})

	t.Run("filter by invoice number", func(t *testing.T) {
		filter := shared.DefaultFilter()
		filter.Filters["invoice_number"] = "INV-A"
		jobs, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		assert.Len(t, jobs, 2)

		count, err := repo.Count(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("filter by status and format", func(t *testing.T) {
		filter := shared.DefaultFilter()
		filter.Filters["status"] = string(printing.JobStatusFailed)
		jobs, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		require.Len(t, jobs, 1)
		assert.Equal(t, printing.ExportFormatImage, jobs[0].Format)

		filter = shared.DefaultFilter()
		filter.Filters["format"] = string(printing.ExportFormatPDF)
		count, err := repo.Count(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("pagination", func(t *testing.T) {
		filter := shared.DefaultFilter()
		filter.Page = 2
		filter.PageSize = 3
		jobs, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		assert.Len(t, jobs, 1)

		count, err := repo.Count(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(4), count, "count ignores pagination")
	})

	t.Run("ascending order on whitelisted field", func(t *testing.T) {
		filter := shared.DefaultFilter()
		filter.OrderBy = "invoice_number"
		filter.OrderDir = "asc"
		jobs, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, "INV-A", jobs[0].InvoiceNumber)
		assert.Equal(t, "INV-C", jobs[3].InvoiceNumber)
	})
}
