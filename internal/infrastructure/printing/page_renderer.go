package printing

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/erp/invoice-export/internal/domain/invoice"
	"github.com/erp/invoice-export/internal/domain/printing"
	"github.com/erp/invoice-export/internal/infrastructure/assets"
	"github.com/erp/invoice-export/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Horizontal grid in logical units
const (
	marginX      = 32.0
	contentWidth = printing.LogicalPageWidth - 2*marginX
	marginTop    = 32.0
)

// RenderedPage is one rasterized page. It is owned by whoever consumes it next.
type RenderedPage struct {
	Index int
	Total int
	Image *image.RGBA
}

// Bounds returns the pixel size of the surface
func (p *RenderedPage) Bounds() image.Rectangle {
	return p.Image.Bounds()
}

// PageRenderer rasterizes page descriptors onto fresh surfaces
type PageRenderer struct {
	layout invoice.LayoutConfig
	fonts  *Fonts
	size   printing.SurfaceSize
}

// NewPageRenderer creates a renderer producing surfaces at supersample x the logical page
func NewPageRenderer(layout invoice.LayoutConfig, fonts *Fonts, supersample float64) (*PageRenderer, error) {
	if fonts == nil {
		return nil, fmt.Errorf("fonts are required")
	}
	size, err := printing.NewSurfaceSize(supersample)
	if err != nil {
		return nil, err
	}
	return &PageRenderer{layout: layout, fonts: fonts, size: size}, nil
}

// SurfaceSize returns the pixel size of rendered pages
func (r *PageRenderer) SurfaceSize() printing.SurfaceSize {
	return r.size
}

// RenderAll renders pages one at a time in ascending index order
func (r *PageRenderer) RenderAll(ctx context.Context, pages []invoice.PageDescriptor, doc *invoice.Document, resolved *assets.ResolvedAssets) ([]*RenderedPage, error) {
	out := make([]*RenderedPage, 0, len(pages))
	for _, desc := range pages {
		page, err := r.Render(ctx, desc, doc, resolved)
		if err != nil {
			return nil, err
		}
		out = append(out, page)
	}
	return out, nil
}

// Render draws one page. Each call owns its own surface; unresolved assets
// become placeholders and never fail the call.
func (r *PageRenderer) Render(ctx context.Context, desc invoice.PageDescriptor, doc *invoice.Document, resolved *assets.ResolvedAssets) (page *RenderedPage, err error) {
	ctx, span := telemetry.StartSpan(ctx, "PageRenderer.Render",
		telemetry.SpanAttrPageIndex, desc.Index,
		telemetry.SpanAttrPageCount, desc.Total,
	)
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	if err := contextError(ctx, "rasterization"); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, NewRenderError(ErrCodeRasterFailed, "document is nil", nil)
	}
	if desc.Index < 1 || desc.Index > desc.Total || desc.Start < 0 || desc.Start > desc.End || desc.End > len(doc.Items) {
		return nil, NewRenderError(ErrCodeRasterFailed,
			fmt.Sprintf("page %d/%d slice [%d,%d) is outside %d items", desc.Index, desc.Total, desc.Start, desc.End, len(doc.Items)), nil)
	}

	c := newCanvas(r.size.Width, r.size.Height, r.size.Scale, r.fonts)
	defer c.close()
	defer func() {
		if rec := recover(); rec != nil {
			page, err = nil, NewRenderError(ErrCodeRasterFailed, fmt.Sprintf("page %d raster panic: %v", desc.Index, rec), nil)
		}
	}()

	w := &pageWriter{
		c:      c,
		layout: r.layout,
		desc:   desc,
		doc:    doc,
		assets: resolved,
		upper:  cases.Upper(language.English),
		title:  cases.Title(language.English),
		y:      marginTop,
	}
	w.banner()
	if desc.ShowCompanyHeader {
		w.companyHeader()
	}
	if desc.ShowCustomerDetails {
		w.customerDetails()
	}
	w.itemsTable()
	w.totalsGroup()
	if desc.ShowTaxSummary {
		w.taxSummary()
	}
	if desc.ShowFooter {
		w.footer()
	}

	if c.err != nil {
		return nil, NewRenderError(ErrCodeRasterFailed, fmt.Sprintf("page %d raster failed", desc.Index), c.err)
	}
	return &RenderedPage{Index: desc.Index, Total: desc.Total, Image: c.snapshot()}, nil
}

// pageWriter lays sections top to bottom; y is the cursor in logical units
type pageWriter struct {
	c      *canvas
	layout invoice.LayoutConfig
	desc   invoice.PageDescriptor
	doc    *invoice.Document
	assets *assets.ResolvedAssets
	upper  cases.Caser
	title  cases.Caser
	y      float64
}

func (w *pageWriter) right() float64 { return marginX + contentWidth }

func (w *pageWriter) banner() {
	h := w.layout.BannerHeight
	w.c.text(w.upper.String(w.doc.DisplayTitle()), printing.LogicalPageWidth/2, w.y+h*0.6, 18, true, alignCenter, colorAccent)
	w.c.text(w.desc.Banner(), w.right(), w.y+h*0.6, 9, true, alignRight, colorMuted)
	w.c.hline(marginX, w.right(), w.y+h-2, 1, colorRule)
	w.y += h
}

func (w *pageWriter) companyHeader() {
	h := w.layout.CompanyHeaderHeight
	box := w.layout.ImageBoxSize
	top := w.y + 10

	w.imageBox(invoice.AssetCompanyLogo, marginX, top, box, "LOGO")

	x := marginX + box + 16
	co := w.doc.Company
	w.c.text(w.c.fit(co.Name, 330, 16, true), x, top+16, 16, true, alignLeft, colorInk)
	line := top + 34
	for _, l := range co.Address {
		w.c.text(w.c.fit(l, 330, 10, false), x, line, 10, false, alignLeft, colorMuted)
		line += 14
	}
	for _, kv := range [][2]string{{"GSTIN", co.GSTIN}, {"PAN", co.PAN}, {"Phone", co.Phone}, {"Email", co.Email}} {
		if kv[1] == "" || line > top+box+20 {
			continue
		}
		w.c.text(kv[0]+": "+kv[1], x, line, 10, false, alignLeft, colorMuted)
		line += 14
	}

	meta := [][2]string{
		{"Invoice No.", w.doc.InvoiceNumber},
		{"Invoice Date", w.doc.InvoiceDate},
		{"Due Date", w.doc.DueDate},
		{"Place of Supply", w.title.String(w.doc.PlaceOfSupply)},
	}
	if w.doc.ReverseCharge {
		meta = append(meta, [2]string{"Reverse Charge", "Yes"})
	}
	line = top + 16
	for _, kv := range meta {
		if kv[1] == "" {
			continue
		}
		w.c.text(kv[0], w.right()-150, line, 10, false, alignRight, colorMuted)
		w.c.text(w.c.fit(kv[1], 140, 10, true), w.right(), line, 10, true, alignRight, colorInk)
		line += 16
	}

	w.c.hline(marginX, w.right(), w.y+h-2, 1, colorRule)
	w.y += h
}

func (w *pageWriter) customerDetails() {
	h := w.layout.CustomerBlockHeight
	half := contentWidth / 2
	w.party("BILL TO", w.doc.Customer.BillTo, marginX, half-16)
	if ship := w.doc.Customer.ShipTo; ship != nil {
		w.party("SHIP TO", *ship, marginX+half, half-16)
	}
	w.c.hline(marginX, w.right(), w.y+h-2, 1, colorRule)
	w.y += h
}

func (w *pageWriter) party(label string, p invoice.Party, x, maxWidth float64) {
	top := w.y + 8
	w.c.text(label, x, top+12, 9, true, alignLeft, colorAccent)
	w.c.text(w.c.fit(p.Name, maxWidth, 12, true), x, top+30, 12, true, alignLeft, colorInk)
	line := top + 46
	lines := append([]string{}, p.Address...)
	if p.State != "" {
		lines = append(lines, "State: "+w.title.String(p.State))
	}
	if p.GSTIN != "" {
		lines = append(lines, "GSTIN: "+p.GSTIN)
	}
	if p.Phone != "" {
		lines = append(lines, "Phone: "+p.Phone)
	}
	limit := w.y + w.layout.CustomerBlockHeight - 8
	for _, l := range lines {
		if line > limit {
			break
		}
		w.c.text(w.c.fit(l, maxWidth, 10, false), x, line, 10, false, alignLeft, colorMuted)
		line += 14
	}
}

// column is one items-table column; x is the left edge
type column struct {
	title string
	x     float64
	width float64
	align align
}

var itemColumns = []column{
	{"#", marginX, 30, alignLeft},
	{"Item", marginX + 30, 270, alignLeft},
	{"HSN/SAC", marginX + 300, 80, alignLeft},
	{"Tax", marginX + 380, 70, alignLeft},
	{"Qty", marginX + 450, 70, alignRight},
	{"Rate", marginX + 520, 90, alignRight},
	{"Amount", marginX + 610, 120, alignRight},
}

func (w *pageWriter) cell(col column, s string, baseline float64, bold bool) {
	const size, pad = 10.0, 6.0
	s = w.c.fit(s, col.width-2*pad, size, bold)
	switch col.align {
	case alignRight:
		w.c.text(s, col.x+col.width-pad, baseline, size, bold, alignRight, colorInk)
	default:
		w.c.text(s, col.x+pad, baseline, size, bold, alignLeft, colorInk)
	}
}

func (w *pageWriter) itemsTable() {
	hh := w.layout.TableHeaderHeight
	w.c.fillRect(marginX, w.y, contentWidth, hh, colorHeaderBg)
	for _, col := range itemColumns {
		w.cell(col, col.title, w.y+hh*0.62, true)
	}
	w.c.hline(marginX, w.right(), w.y+hh, 1, colorRule)
	w.y += hh

	rh := w.layout.RowHeight
	for i, item := range w.desc.Items(w.doc) {
		index := item.Index
		if index == 0 {
			index = w.desc.Start + i + 1
		}
		base := w.y + rh*0.64
		w.cell(itemColumns[0], fmt.Sprint(index), base, false)
		w.cell(itemColumns[1], item.Name, base, false)
		w.cell(itemColumns[2], item.HSN, base, false)
		w.cell(itemColumns[3], item.TaxLabel, base, false)
		w.cell(itemColumns[4], item.Quantity, base, false)
		w.cell(itemColumns[5], invoice.FormatMoney(item.Rate), base, false)
		w.cell(itemColumns[6], invoice.FormatMoney(item.Amount), base, false)
		w.c.hline(marginX, w.right(), w.y+rh, 0.5, colorRule)
		w.y += rh
	}
}

type totalsRowKind int

const (
	totalsRowTotal totalsRowKind = iota
	totalsRowCharge
	totalsRowModifier
	totalsRowGrandTotal
)

// totalsRow is one formatted line of the totals group
type totalsRow struct {
	kind     totalsRowKind
	label    string
	taxLabel string
	quantity string
	rate     string
	amount   string
}

// totalsRows selects and formats the totals group of a page: the TOTAL row,
// one row per additional charge, one per active modifier and the grand total.
// Pages without the tax summary carry no totals.
func totalsRows(desc invoice.PageDescriptor, doc *invoice.Document) []totalsRow {
	if !desc.ShowTaxSummary || doc == nil {
		return nil
	}

	qty := doc.Totals.TotalQuantity
	if strings.TrimSpace(qty) == "" {
		qty = invoice.SumQuantities(doc.Items).String()
	}
	rows := []totalsRow{{
		kind:     totalsRowTotal,
		label:    "TOTAL",
		quantity: invoice.FormatQuantityTotal(qty),
		amount:   invoice.FormatMoney(doc.Totals.Subtotal),
	}}

	for _, ch := range doc.AdditionalCharges {
		rows = append(rows, totalsRow{
			kind:     totalsRowCharge,
			label:    ch.Name,
			taxLabel: ch.TaxLabel,
			amount:   invoice.FormatMoney(ch.Amount),
		})
	}

	m := doc.Modifiers
	for _, mod := range []struct {
		label string
		mod   *invoice.Modifier
	}{
		{"Global Discount", m.GlobalDiscount},
		{"Additional Discount", m.AdditionalDiscount},
		{"Total Discount", m.TotalDiscount},
		{"TDS", m.TDS},
		{"TDS under GST", m.TDSUnderGST},
		{"TCS", m.TCS},
	} {
		if !mod.mod.Active() {
			continue
		}
		row := totalsRow{kind: totalsRowModifier, label: mod.label, amount: invoice.FormatMoney(mod.mod.Amount)}
		if mod.mod.Label != "" {
			row.label = mod.mod.Label
		}
		if !mod.mod.Rate.IsZero() {
			row.rate = invoice.FormatPercent(mod.mod.Rate)
		}
		rows = append(rows, row)
	}

	return append(rows, totalsRow{
		kind:   totalsRowGrandTotal,
		label:  "GRAND TOTAL",
		amount: invoice.FormatMoney(doc.Totals.GrandTotal),
	})
}

// totalsGroup draws the rows chosen by totalsRows
func (w *pageWriter) totalsGroup() {
	rh := w.layout.RowHeight
	crh := w.layout.ChargeRowHeight

	for _, row := range totalsRows(w.desc, w.doc) {
		switch row.kind {
		case totalsRowTotal:
			b := w.y + rh*0.64
			w.cell(itemColumns[1], row.label, b, true)
			w.cell(itemColumns[4], row.quantity, b, true)
			w.cell(itemColumns[6], row.amount, b, true)
			w.c.hline(marginX, w.right(), w.y+rh, 1, colorRule)
			w.y += rh
		case totalsRowGrandTotal:
			w.c.fillRect(marginX, w.y, contentWidth, rh, colorHeaderBg)
			b := w.y + rh*0.64
			w.cell(itemColumns[1], row.label, b, true)
			w.cell(itemColumns[6], row.amount, b, true)
			w.c.hline(marginX, w.right(), w.y+rh, 1.5, colorInk)
			w.y += rh
		default:
			b := w.y + crh*0.66
			w.cell(itemColumns[1], row.label, b, false)
			if row.taxLabel != "" {
				w.cell(itemColumns[3], row.taxLabel, b, false)
			}
			if row.rate != "" {
				w.cell(itemColumns[5], row.rate, b, false)
			}
			w.cell(itemColumns[6], row.amount, b, false)
			w.y += crh
		}
	}
}

var taxColumns = []column{
	{"HSN/SAC", marginX, 110, alignLeft},
	{"Taxable Value", marginX + 110, 110, alignRight},
	{"CGST", marginX + 220, 125, alignRight},
	{"SGST", marginX + 345, 125, alignRight},
	{"IGST", marginX + 470, 125, alignRight},
	{"Total Tax", marginX + 595, 135, alignRight},
}

func rateAmount(rate, amount decimal.Decimal) string {
	if rate.IsZero() && amount.IsZero() {
		return "-"
	}
	return invoice.FormatMoney(amount) + " (" + invoice.FormatPercent(rate) + ")"
}

// taxSummary draws the HSN-wise tax table and the amount in words.
// Rows past the section height are clipped.
func (w *pageWriter) taxSummary() {
	const rowH = 18.0
	top := w.y + 8
	bottom := w.y + w.layout.TaxSummaryHeight
	w.c.text("TAX SUMMARY", marginX, top+10, 9, true, alignLeft, colorAccent)
	y := top + 16

	w.c.fillRect(marginX, y, contentWidth, rowH, colorHeaderBg)
	for _, col := range taxColumns {
		w.cell(col, col.title, y+rowH*0.7, true)
	}
	y += rowH

	reserve := 2 * rowH
	for _, row := range w.doc.TaxBreakdown {
		if y+rowH > bottom-reserve {
			break
		}
		b := y + rowH*0.7
		w.cell(taxColumns[0], row.HSN, b, false)
		w.cell(taxColumns[1], invoice.FormatMoney(row.TaxableValue), b, false)
		w.cell(taxColumns[2], rateAmount(row.CGSTRate, row.CGSTAmount), b, false)
		w.cell(taxColumns[3], rateAmount(row.SGSTRate, row.SGSTAmount), b, false)
		w.cell(taxColumns[4], rateAmount(row.IGSTRate, row.IGSTAmount), b, false)
		w.cell(taxColumns[5], invoice.FormatMoney(row.TotalTax), b, false)
		w.c.hline(marginX, w.right(), y+rowH, 0.5, colorRule)
		y += rowH
	}

	b := y + rowH*0.7
	w.cell(taxColumns[0], "Total", b, true)
	w.cell(taxColumns[5], invoice.FormatMoney(w.doc.Totals.TaxTotal), b, true)
	y += rowH

	if words := w.doc.Totals.AmountInWords; words != "" {
		w.c.text(w.c.fit("Amount in words: "+words, contentWidth, 10, true), marginX, y+rowH*0.8, 10, true, alignLeft, colorInk)
	}
	w.y += w.layout.TaxSummaryHeight
}

// footer places bank details and notes on the left, the payment QR in the
// middle and the signature on the right.
func (w *pageWriter) footer() {
	box := w.layout.ImageBoxSize
	top := w.y + 8
	w.c.hline(marginX, w.right(), w.y, 1, colorRule)

	textWidth := contentWidth - 2*box - 48
	line := top + 12
	if bank := w.doc.Bank; bank != nil {
		w.c.text("BANK DETAILS", marginX, line, 9, true, alignLeft, colorAccent)
		line += 16
		for _, kv := range [][2]string{
			{"Account Name", bank.AccountName},
			{"Bank", bank.BankName},
			{"Account No.", bank.AccountNumber},
			{"IFSC", bank.IFSC},
			{"Branch", bank.Branch},
			{"UPI", bank.UPI},
		} {
			if kv[1] == "" {
				continue
			}
			w.c.text(w.c.fit(kv[0]+": "+kv[1], textWidth, 10, false), marginX, line, 10, false, alignLeft, colorInk)
			line += 14
		}
		line += 6
	}
	limit := w.y + w.layout.FooterHeight - 4
	if w.doc.Notes != "" && line < limit {
		w.c.text("Notes: "+w.c.fit(w.doc.Notes, textWidth-40, 9, false), marginX, line, 9, false, alignLeft, colorMuted)
		line += 13
	}
	for i, term := range w.doc.Terms {
		if line >= limit {
			break
		}
		w.c.text(w.c.fit(fmt.Sprintf("%d. %s", i+1, term), textWidth, 9, false), marginX, line, 9, false, alignLeft, colorMuted)
		line += 13
	}

	qrX := w.right() - 2*box - 24
	if w.assets.Referenced(invoice.AssetPaymentQR) {
		w.imageBox(invoice.AssetPaymentQR, qrX, top, box, "QR")
		w.c.text("Scan to pay", qrX+box/2, top+box+14, 9, false, alignCenter, colorMuted)
	}

	sigX := w.right() - box
	w.c.text("For "+w.c.fit(w.doc.Company.Name, box+40, 9, true), w.right(), top+10, 9, true, alignRight, colorInk)
	w.imageBox(invoice.AssetSignature, sigX, top+16, box, "SIGNATURE")
	w.c.text("Authorised Signatory", w.right(), top+box+30, 9, false, alignRight, colorMuted)

	w.y += w.layout.FooterHeight
}

// imageBox draws the asset of kind into a square box, or a placeholder
// when the asset was referenced but could not be resolved
func (w *pageWriter) imageBox(kind invoice.AssetKind, x, y, size float64, label string) {
	if img, ok := w.assets.Image(kind); ok {
		w.c.image(img, x, y, size, size)
		return
	}
	if w.assets.Referenced(kind) {
		w.c.placeholder(x, y, size, size, label)
	}
}
