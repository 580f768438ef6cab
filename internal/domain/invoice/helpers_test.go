package invoice

import (
	"fmt"

	"github.com/shopspring/decimal"
)

func newTestDocument(items, charges int) *Document {
	doc := &Document{
		InvoiceNumber: "INV-2024-001",
		InvoiceDate:   "2024-04-01",
		Company:       Company{Name: "Acme Traders"},
		Customer:      Customer{BillTo: Party{Name: "Globex"}},
	}
	for i := 0; i < items; i++ {
		doc.Items = append(doc.Items, LineItem{
			Index:    i + 1,
			Name:     fmt.Sprintf("Item %d", i+1),
			HSN:      "8471",
			Quantity: "1",
			Rate:     decimal.NewFromInt(100),
			Amount:   decimal.NewFromInt(100),
		})
	}
	for i := 0; i < charges; i++ {
		doc.AdditionalCharges = append(doc.AdditionalCharges, Charge{
			Name:   fmt.Sprintf("Charge %d", i+1),
			Amount: decimal.NewFromInt(10),
		})
	}
	return doc
}

func mustLayout(cfg LayoutConfig) *Layout {
	l, err := NewLayout(cfg)
	if err != nil {
		panic(err)
	}
	return l
}
