package invoice

import (
	"fmt"

	"github.com/erp/invoice-export/internal/domain/printing"
	"github.com/erp/invoice-export/internal/domain/shared"
)

// LayoutConfig holds the height constants used to estimate a document.
// Rows are uniform height; these values are the only lever for matching real font metrics.
type LayoutConfig struct {
	PageHeight  float64 `json:"page_height"`
	PagePadding float64 `json:"page_padding"`

	BannerHeight        float64 `json:"banner_height"`
	CompanyHeaderHeight float64 `json:"company_header_height"`
	CustomerBlockHeight float64 `json:"customer_block_height"`
	TableHeaderHeight   float64 `json:"table_header_height"`
	TaxSummaryHeight    float64 `json:"tax_summary_height"`
	FooterHeight        float64 `json:"footer_height"`

	RowHeight       float64 `json:"row_height"`
	ChargeRowHeight float64 `json:"charge_row_height"`

	FirstPageCapacity      int `json:"first_page_capacity"`
	SubsequentPageCapacity int `json:"subsequent_page_capacity"`

	// ImageBoxSize is fixed so asset resolution never changes pagination
	ImageBoxSize float64 `json:"image_box_size"`
}

// DefaultLayoutConfig returns the constants tuned for the built-in renderer
func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{
		PageHeight:             printing.LogicalPageHeight,
		PagePadding:            64,
		BannerHeight:           40,
		CompanyHeaderHeight:    150,
		CustomerBlockHeight:    130,
		TableHeaderHeight:      36,
		TaxSummaryHeight:       160,
		FooterHeight:           200,
		RowHeight:              28,
		ChargeRowHeight:        24,
		FirstPageCapacity:      12,
		SubsequentPageCapacity: 15,
		ImageBoxSize:           100,
	}
}

// UsableHeight is the page height minus the padding allowance
func (c LayoutConfig) UsableHeight() float64 {
	return c.PageHeight - c.PagePadding
}

// Validate checks that the constants describe a usable page
func (c LayoutConfig) Validate() error {
	if c.PageHeight <= 0 {
		return shared.NewDomainError("INVALID_LAYOUT", "Page height must be positive")
	}
	if c.PagePadding < 0 || c.PagePadding >= c.PageHeight {
		return shared.NewDomainError("INVALID_LAYOUT", "Page padding must be between 0 and the page height")
	}
	if c.RowHeight <= 0 || c.ChargeRowHeight <= 0 {
		return shared.NewDomainError("INVALID_LAYOUT", "Row heights must be positive")
	}
	sections := []struct {
		name   string
		height float64
	}{
		{"banner", c.BannerHeight},
		{"company header", c.CompanyHeaderHeight},
		{"customer block", c.CustomerBlockHeight},
		{"table header", c.TableHeaderHeight},
		{"tax summary", c.TaxSummaryHeight},
		{"footer", c.FooterHeight},
	}
	for _, s := range sections {
		if s.height < 0 {
			return shared.NewDomainError("INVALID_LAYOUT", fmt.Sprintf("Section height for %s cannot be negative", s.name))
		}
	}
	if c.FirstPageCapacity <= 0 || c.SubsequentPageCapacity <= 0 {
		return shared.NewDomainError("INVALID_LAYOUT", "Page capacities must be positive")
	}
	if c.ImageBoxSize <= 0 {
		return shared.NewDomainError("INVALID_LAYOUT", "Image box size must be positive")
	}
	return nil
}

// Estimate is the outcome of the single-page decision
type Estimate struct {
	TotalHeight    float64 `json:"total_height"`
	UsableHeight   float64 `json:"usable_height"`
	FitsSinglePage bool    `json:"fits_single_page"`
}

// Layout applies a LayoutConfig to documents
type Layout struct {
	config LayoutConfig
}

// NewLayout creates a Layout after validating the configuration
func NewLayout(config LayoutConfig) (*Layout, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Layout{config: config}, nil
}

// Config returns a copy of the layout constants
func (l *Layout) Config() LayoutConfig {
	return l.config
}

// Estimate sums the section constants and the per-row contributions of doc
func (l *Layout) Estimate(doc *Document) Estimate {
	c := l.config
	sections := c.BannerHeight +
		c.CompanyHeaderHeight +
		c.CustomerBlockHeight +
		c.TableHeaderHeight +
		c.TaxSummaryHeight +
		c.FooterHeight

	total := sections +
		float64(doc.ItemCount())*c.RowHeight +
		float64(doc.ChargeCount())*c.ChargeRowHeight

	usable := c.UsableHeight()
	return Estimate{
		TotalHeight:    total,
		UsableHeight:   usable,
		FitsSinglePage: total <= usable,
	}
}
