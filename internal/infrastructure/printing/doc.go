// Package printing rasterizes invoice pages and assembles them into
// exportable artifacts.
//
// PageRenderer draws one PageDescriptor onto a fresh gg surface of the
// logical A4 size scaled by the supersample factor. The exporters consume
// the rendered pages in ascending order:
//
//   - PDFExporter builds one sheet per surface with go-pdf/fpdf
//   - ImageExporter writes a PNG, stacking pages vertically
//   - ChromedpPrinter prints surfaces through headless Chrome
//
// Example usage:
//
//	fonts, _ := LoadFonts()
//	r, _ := NewPageRenderer(invoice.DefaultLayoutConfig(), fonts, 2)
//	pages, err := r.RenderAll(ctx, plan.Pages, doc, resolved)
//	if err != nil {
//	    return err
//	}
//	pdf, err := NewPDFExporter(printing.PaperSizeA4).Export(ctx, pages)
package printing
