// Package invoice contains the invoice document model and the layout rules
// that decide how a document is split across fixed-size pages.
//
// Pagination is decided once, before anything is rasterized, from named
// height constants in LayoutConfig. Rows are treated as uniform height.
package invoice
