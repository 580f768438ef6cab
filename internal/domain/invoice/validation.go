package invoice

import (
	"github.com/erp/invoice-export/internal/domain/shared"
)

// CheckStructure verifies the structural invariants the layout relies on.
// It does not look at business rules or tax arithmetic.
func (d *Document) CheckStructure() error {
	if d.InvoiceNumber == "" {
		return shared.NewDomainError("INVALID_DOCUMENT", "Invoice number cannot be empty")
	}
	seen := make(map[string]struct{}, len(d.TaxBreakdown))
	for _, row := range d.TaxBreakdown {
		if _, dup := seen[row.HSN]; dup {
			return shared.NewDomainError("DUPLICATE_HSN", "Tax breakdown has more than one row for HSN/SAC "+row.HSN)
		}
		seen[row.HSN] = struct{}{}
	}
	return nil
}
