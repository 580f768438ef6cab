package invoice

import "fmt"

// BannerOriginal is printed on the first page only
const BannerOriginal = "ORIGINAL FOR RECIPIENT"

// PageDescriptor describes one physical page: its item slice [Start, End)
// and which structural sections it carries.
type PageDescriptor struct {
	Index int `json:"index"` // 1-based
	Total int `json:"total"`
	Start int `json:"start"`
	End   int `json:"end"`

	ShowCompanyHeader   bool `json:"show_company_header"`
	ShowCustomerDetails bool `json:"show_customer_details"`
	ShowTaxSummary      bool `json:"show_tax_summary"`
	ShowFooter          bool `json:"show_footer"`
}

// NewPageDescriptor builds a descriptor whose flags derive from (index, total) only
func NewPageDescriptor(index, total, start, end int) PageDescriptor {
	first := index == 1
	last := index == total
	return PageDescriptor{
		Index:               index,
		Total:               total,
		Start:               start,
		End:                 end,
		ShowCompanyHeader:   first,
		ShowCustomerDetails: first,
		ShowTaxSummary:      last,
		ShowFooter:          last,
	}
}

// Banner returns the page banner, a function of the page index alone
func (p PageDescriptor) Banner() string {
	if p.Index == 1 {
		return BannerOriginal
	}
	return fmt.Sprintf("Page %d/%d", p.Index, p.Total)
}

// IsFirst reports whether this is page 1
func (p PageDescriptor) IsFirst() bool {
	return p.Index == 1
}

// IsLast reports whether this is the final page
func (p PageDescriptor) IsLast() bool {
	return p.Index == p.Total
}

// ItemCount returns the number of items on the page
func (p PageDescriptor) ItemCount() int {
	return p.End - p.Start
}

// Items returns the slice of doc.Items assigned to the page
func (p PageDescriptor) Items(doc *Document) []LineItem {
	return doc.Items[p.Start:p.End]
}

// PagePlan is the full layout decision for one document
type PagePlan struct {
	Estimate Estimate         `json:"estimate"`
	Pages    []PageDescriptor `json:"pages"`
}

// PageCount returns the number of pages in the plan
func (p PagePlan) PageCount() int {
	return len(p.Pages)
}

// Plan estimates doc and paginates it only when it does not fit one page
func (l *Layout) Plan(doc *Document) PagePlan {
	est := l.Estimate(doc)
	if est.FitsSinglePage {
		return PagePlan{
			Estimate: est,
			Pages:    []PageDescriptor{singlePage(doc.ItemCount())},
		}
	}
	return PagePlan{
		Estimate: est,
		Pages:    l.Paginate(doc),
	}
}

// Paginate partitions the items using the first-page and subsequent-page capacities.
// A document with no items, or with no more items than the first page holds,
// yields exactly the single-page layout.
func (l *Layout) Paginate(doc *Document) []PageDescriptor {
	n := doc.ItemCount()
	first := l.config.FirstPageCapacity
	next := l.config.SubsequentPageCapacity

	count := PageCount(n, first, next)
	if count == 1 {
		return []PageDescriptor{singlePage(n)}
	}

	pages := make([]PageDescriptor, 0, count)
	pages = append(pages, NewPageDescriptor(1, count, 0, first))
	for k := 1; k < count; k++ {
		start := first + (k-1)*next
		end := min(start+next, n)
		pages = append(pages, NewPageDescriptor(k+1, count, start, end))
	}
	return pages
}

// PageCount returns max(1, ceil((n-first)/next)+1) for n > first, else 1
func PageCount(n, first, next int) int {
	if n <= first || next <= 0 {
		return 1
	}
	return (n-first+next-1)/next + 1
}

func singlePage(n int) PageDescriptor {
	return NewPageDescriptor(1, 1, 0, n)
}
