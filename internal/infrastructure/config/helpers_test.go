package config

import (
	"testing"

	"github.com/erp/invoice-export/internal/domain/invoice"
)

func validLayout(t *testing.T) invoice.LayoutConfig {
	t.Helper()
	return invoice.DefaultLayoutConfig()
}
