package handler

import (
	"github.com/erp/invoice-export/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
)

// InvoiceRoutes creates the route group for invoice export endpoints.
// limit guards the rendering endpoints and may be nil.
func InvoiceRoutes(h *ExportHandler, limit gin.HandlerFunc) *router.DomainGroup {
	group := router.NewDomainGroup("invoices", "/invoices")

	guarded := func(next gin.HandlerFunc) []gin.HandlerFunc {
		if limit == nil {
			return []gin.HandlerFunc{next}
		}
		return []gin.HandlerFunc{limit, next}
	}

	group.POST("/layout", h.PlanLayout)
	group.POST("/export/pdf", guarded(h.ExportPDF)...)
	group.POST("/export/image", guarded(h.ExportImage)...)
	group.POST("/export/print", guarded(h.PrintInvoice)...)

	return group
}

// JobRoutes creates the route group for export job endpoints
func JobRoutes(h *JobHandler) *router.DomainGroup {
	group := router.NewDomainGroup("export-jobs", "/export-jobs")

	group.GET("", h.ListJobs)
	group.GET("/:id", h.GetJob)
	group.GET("/:id/download", h.Download)

	return group
}
