package printing

import (
	"fmt"
	"image"
	"image/color"
	"testing"

	"github.com/erp/invoice-export/internal/domain/invoice"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func testFonts(t *testing.T) *Fonts {
	t.Helper()
	fonts, err := LoadFonts()
	require.NoError(t, err)
	t.Cleanup(func() { _ = fonts.Close() })
	return fonts
}

func testDocument(items int) *invoice.Document {
	doc := &invoice.Document{
		InvoiceNumber: "INV-2024-0042",
		InvoiceDate:   "2024-03-15",
		PlaceOfSupply: "karnataka",
		Company: invoice.Company{
			Name:    "Acme Traders Pvt Ltd",
			Address: []string{"12 MG Road", "Bengaluru 560001"},
			GSTIN:   "29ABCDE1234F1Z5",
		},
		Customer: invoice.Customer{
			BillTo: invoice.Party{Name: "Globex Corp", Address: []string{"4 Park Street"}, State: "west bengal"},
		},
		TaxBreakdown: []invoice.TaxRow{{
			HSN:          "8471",
			TaxableValue: decimal.RequireFromString("1000"),
			IGSTRate:     decimal.RequireFromString("18"),
			IGSTAmount:   decimal.RequireFromString("180"),
			TotalTax:     decimal.RequireFromString("180"),
		}},
		Totals: invoice.Totals{
			Subtotal:      decimal.RequireFromString("1000"),
			TaxTotal:      decimal.RequireFromString("180"),
			GrandTotal:    decimal.RequireFromString("1180"),
			AmountInWords: "One Thousand One Hundred Eighty Rupees Only",
		},
		Modifiers: invoice.Modifiers{
			TDS: &invoice.Modifier{Enabled: true, Rate: decimal.RequireFromString("2"), Amount: decimal.RequireFromString("20")},
		},
		Bank:  &invoice.BankDetails{BankName: "State Bank", AccountNumber: "0001234567", IFSC: "SBIN0000001"},
		Notes: "Thank you for your business",
		Terms: []string{"Payment due within 30 days"},
	}
	for i := range items {
		doc.Items = append(doc.Items, invoice.LineItem{
			Index:    i + 1,
			Name:     fmt.Sprintf("Item %d", i+1),
			HSN:      "8471",
			TaxLabel: "IGST 18%",
			Quantity: "1",
			Rate:     decimal.RequireFromString("10"),
			Amount:   decimal.RequireFromString("10"),
		})
	}
	return doc
}

func solidPage(index, total, w, h int) *RenderedPage {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = uint8(index*40), 0x80, 0xff, 0xff
	}
	return &RenderedPage{Index: index, Total: total, Image: img}
}

// inkPixels counts pixels that are not white
func inkPixels(img *image.RGBA, r image.Rectangle) int {
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if c := img.RGBAAt(x, y); c != (color.RGBA{255, 255, 255, 255}) {
				n++
			}
		}
	}
	return n
}
