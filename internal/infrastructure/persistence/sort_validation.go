package persistence

import (
	"strings"
)

// ValidateSortOrder normalizes the sort order to ASC or DESC, defaulting to DESC
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField when whitelisted, otherwise defaultField
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed != "" && allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// ExportJobSortFields whitelists sortable export job columns
var ExportJobSortFields = map[string]bool{
	"created_at":     true,
	"updated_at":     true,
	"completed_at":   true,
	"invoice_number": true,
	"status":         true,
	"format":         true,
	"page_count":     true,
	"size_bytes":     true,
}
