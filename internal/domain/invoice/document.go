package invoice

import (
	"github.com/shopspring/decimal"
)

// Document is a fully computed tax invoice handed to the export engine.
// Monetary fields are pre-rounded and items are already in display order.
type Document struct {
	Title         string `json:"title,omitempty"`
	InvoiceNumber string `json:"invoice_number" validate:"required,max=64"`
	InvoiceDate   string `json:"invoice_date" validate:"required"`
	DueDate       string `json:"due_date,omitempty"`
	PlaceOfSupply string `json:"place_of_supply,omitempty"`
	ReverseCharge bool   `json:"reverse_charge,omitempty"`

	Company  Company  `json:"company"`
	Customer Customer `json:"customer"`

	Items             []LineItem `json:"items" validate:"dive"`
	AdditionalCharges []Charge   `json:"additional_charges,omitempty" validate:"dive"`
	TaxBreakdown      []TaxRow   `json:"tax_breakdown,omitempty" validate:"dive"`

	Totals    Totals       `json:"totals"`
	Modifiers Modifiers    `json:"modifiers"`
	Bank      *BankDetails `json:"bank,omitempty"`
	Notes     string       `json:"notes,omitempty"`
	Terms     []string     `json:"terms,omitempty"`

	Assets AssetRefs `json:"assets"`
}

// Company is the issuing business shown in the first-page header
type Company struct {
	Name    string   `json:"name" validate:"required"`
	Address []string `json:"address,omitempty"`
	GSTIN   string   `json:"gstin,omitempty"`
	PAN     string   `json:"pan,omitempty"`
	Phone   string   `json:"phone,omitempty"`
	Email   string   `json:"email,omitempty"`
	State   string   `json:"state,omitempty"`
}

// Party is a bill-to or ship-to block
type Party struct {
	Name    string   `json:"name"`
	Address []string `json:"address,omitempty"`
	GSTIN   string   `json:"gstin,omitempty"`
	Phone   string   `json:"phone,omitempty"`
	State   string   `json:"state,omitempty"`
}

// Customer groups the billing and optional shipping parties
type Customer struct {
	BillTo Party  `json:"bill_to"`
	ShipTo *Party `json:"ship_to,omitempty"`
}

// LineItem is one row of the items table.
// Quantity is a display string and may be non-numeric.
type LineItem struct {
	Index    int             `json:"index"`
	Name     string          `json:"name" validate:"required"`
	HSN      string          `json:"hsn,omitempty"`
	TaxLabel string          `json:"tax_label,omitempty"`
	Quantity string          `json:"quantity"`
	Rate     decimal.Decimal `json:"rate"`
	Amount   decimal.Decimal `json:"amount"`
}

// Charge is an additional charge listed under the items on the last page
type Charge struct {
	Name     string          `json:"name" validate:"required"`
	TaxLabel string          `json:"tax_label,omitempty"`
	Amount   decimal.Decimal `json:"amount"`
}

// TaxRow is one HSN/SAC line of the tax summary
type TaxRow struct {
	HSN          string          `json:"hsn" validate:"required"`
	TaxableValue decimal.Decimal `json:"taxable_value"`
	CGSTRate     decimal.Decimal `json:"cgst_rate"`
	CGSTAmount   decimal.Decimal `json:"cgst_amount"`
	SGSTRate     decimal.Decimal `json:"sgst_rate"`
	SGSTAmount   decimal.Decimal `json:"sgst_amount"`
	IGSTRate     decimal.Decimal `json:"igst_rate"`
	IGSTAmount   decimal.Decimal `json:"igst_amount"`
	TotalTax     decimal.Decimal `json:"total_tax"`
}

// Totals holds the aggregate figures of the document
type Totals struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	TaxTotal      decimal.Decimal `json:"tax_total"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
	TotalQuantity string          `json:"total_quantity"`
	AmountInWords string          `json:"amount_in_words,omitempty"`
}

// Modifier is an optional adjustment row such as TDS or a discount
type Modifier struct {
	Enabled bool            `json:"enabled"`
	Label   string          `json:"label,omitempty"`
	Rate    decimal.Decimal `json:"rate"`
	Amount  decimal.Decimal `json:"amount"`
}

// Active reports whether the modifier should produce a row
func (m *Modifier) Active() bool {
	return m != nil && m.Enabled
}

// Modifiers lists the optional adjustment rows in render order
type Modifiers struct {
	GlobalDiscount     *Modifier `json:"global_discount,omitempty"`
	AdditionalDiscount *Modifier `json:"additional_discount,omitempty"`
	TotalDiscount      *Modifier `json:"total_discount,omitempty"`
	TDS                *Modifier `json:"tds,omitempty"`
	TDSUnderGST        *Modifier `json:"tds_under_gst,omitempty"`
	TCS                *Modifier `json:"tcs,omitempty"`
}

// BankDetails is the payment block printed in the footer
type BankDetails struct {
	AccountName   string `json:"account_name,omitempty"`
	BankName      string `json:"bank_name,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`
	IFSC          string `json:"ifsc,omitempty"`
	Branch        string `json:"branch,omitempty"`
	UPI           string `json:"upi,omitempty"`
}

// AssetKind names a remote asset slot of the document
type AssetKind string

const (
	AssetCompanyLogo AssetKind = "company_logo" // 100x100 box in the company header
	AssetSignature   AssetKind = "signature"    // 100x100 box in the footer
	AssetPaymentQR   AssetKind = "payment_qr"   // generated from QRPayload
)

// AssetRefs are the remote references a document needs resolved before rendering
type AssetRefs struct {
	CompanyLogoRef string `json:"company_logo_ref,omitempty"`
	SignatureRef   string `json:"signature_ref,omitempty"`
	QRPayload      string `json:"qr_payload,omitempty"`
}

// Refs returns the non-empty references keyed by slot
func (a AssetRefs) Refs() map[AssetKind]string {
	refs := make(map[AssetKind]string, 3)
	if a.CompanyLogoRef != "" {
		refs[AssetCompanyLogo] = a.CompanyLogoRef
	}
	if a.SignatureRef != "" {
		refs[AssetSignature] = a.SignatureRef
	}
	if a.QRPayload != "" {
		refs[AssetPaymentQR] = a.QRPayload
	}
	return refs
}

// DisplayTitle returns the document title, defaulting to TAX INVOICE
func (d *Document) DisplayTitle() string {
	if d.Title == "" {
		return "TAX INVOICE"
	}
	return d.Title
}

// ItemCount returns the number of line items
func (d *Document) ItemCount() int {
	return len(d.Items)
}

// ChargeCount returns the number of additional charges
func (d *Document) ChargeCount() int {
	return len(d.AdditionalCharges)
}

// PDFFileName returns the suggested file name for a PDF export
func (d *Document) PDFFileName() string {
	return "invoice-" + d.InvoiceNumber + ".pdf"
}

// ImageFileName returns the suggested file name for an image export
func (d *Document) ImageFileName() string {
	return "invoice-" + d.InvoiceNumber + ".png"
}
