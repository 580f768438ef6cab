package invoice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageCount(t *testing.T) {
	tests := []struct {
		n, first, next int
		expected       int
	}{
		{0, 12, 15, 1},
		{1, 12, 15, 1},
		{12, 12, 15, 1},
		{13, 12, 15, 2},
		{27, 12, 15, 2},
		{28, 12, 15, 3},
		{30, 12, 15, 3},
		{100, 10, 10, 10},
		{101, 10, 10, 11},
		{5, 1, 1, 5},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, PageCount(tt.n, tt.first, tt.next),
			"n=%d first=%d next=%d", tt.n, tt.first, tt.next)
	}
}

func TestPageDescriptor_Flags(t *testing.T) {
	t.Run("single page carries every section", func(t *testing.T) {
		p := NewPageDescriptor(1, 1, 0, 3)
		assert.True(t, p.ShowCompanyHeader)
		assert.True(t, p.ShowCustomerDetails)
		assert.True(t, p.ShowTaxSummary)
		assert.True(t, p.ShowFooter)
		assert.Equal(t, BannerOriginal, p.Banner())
	})

	t.Run("middle page carries none", func(t *testing.T) {
		p := NewPageDescriptor(2, 3, 12, 27)
		assert.False(t, p.ShowCompanyHeader)
		assert.False(t, p.ShowCustomerDetails)
		assert.False(t, p.ShowTaxSummary)
		assert.False(t, p.ShowFooter)
		assert.Equal(t, "Page 2/3", p.Banner())
	})

	t.Run("last page carries tax summary and footer", func(t *testing.T) {
		p := NewPageDescriptor(3, 3, 27, 30)
		assert.False(t, p.ShowCompanyHeader)
		assert.True(t, p.ShowTaxSummary)
		assert.True(t, p.ShowFooter)
		assert.True(t, p.IsLast())
		assert.Equal(t, 3, p.ItemCount())
	})
}

func TestLayout_Paginate_ThirtyItems(t *testing.T) {
	layout := mustLayout(DefaultLayoutConfig())
	doc := newTestDocument(30, 0)

	pages := layout.Paginate(doc)

	require.Len(t, pages, 3)
	bounds := [][2]int{{0, 12}, {12, 27}, {27, 30}}
	for i, p := range pages {
		assert.Equal(t, i+1, p.Index)
		assert.Equal(t, 3, p.Total)
		assert.Equal(t, bounds[i][0], p.Start, "page %d start", p.Index)
		assert.Equal(t, bounds[i][1], p.End, "page %d end", p.Index)
	}
	assert.Equal(t, "Item 13", pages[1].Items(doc)[0].Name)
	assert.Equal(t, "Item 28", pages[2].Items(doc)[0].Name)
}

func TestLayout_Paginate_ZeroItems(t *testing.T) {
	layout := mustLayout(DefaultLayoutConfig())

	pages := layout.Paginate(newTestDocument(0, 0))

	require.Len(t, pages, 1)
	assert.Equal(t, 0, pages[0].ItemCount())
	assert.True(t, pages[0].ShowTaxSummary)
	assert.True(t, pages[0].ShowCompanyHeader)
}

func TestLayout_Paginate_MatchesSinglePageLayout(t *testing.T) {
	layout := mustLayout(DefaultLayoutConfig())

	for _, n := range []int{0, 1, 5, 12} {
		doc := newTestDocument(n, 0)
		plan := layout.Plan(doc)
		require.Len(t, plan.Pages, 1)

		assert.Equal(t, plan.Pages, layout.Paginate(doc), "n=%d", n)
	}
}

func TestLayout_Paginate_Properties(t *testing.T) {
	configs := []struct{ first, next int }{
		{12, 15}, {1, 1}, {5, 20}, {20, 5}, {7, 7},
	}

	for _, c := range configs {
		cfg := DefaultLayoutConfig()
		cfg.FirstPageCapacity = c.first
		cfg.SubsequentPageCapacity = c.next
		layout := mustLayout(cfg)

		for n := 0; n <= 80; n++ {
			doc := newTestDocument(n, 0)
			pages := layout.Paginate(doc)

			require.Len(t, pages, PageCount(n, c.first, c.next))

			var concatenated []LineItem
			firstPages, lastPages := 0, 0
			next := 0
			for i, p := range pages {
				assert.Equal(t, i+1, p.Index)
				assert.Equal(t, len(pages), p.Total)
				assert.Equal(t, next, p.Start, "slices must be contiguous")
				assert.LessOrEqual(t, p.Start, p.End)
				next = p.End
				concatenated = append(concatenated, p.Items(doc)...)

				if p.ShowCompanyHeader && p.ShowCustomerDetails {
					firstPages++
					assert.Equal(t, 1, p.Index)
				}
				if p.ShowTaxSummary && p.ShowFooter {
					lastPages++
					assert.Equal(t, len(pages), p.Index)
				}
				if i == 0 {
					assert.LessOrEqual(t, p.ItemCount(), c.first)
				} else {
					assert.LessOrEqual(t, p.ItemCount(), c.next)
				}
			}

			assert.Equal(t, n, next)
			assert.Equal(t, 1, firstPages)
			assert.Equal(t, 1, lastPages)
			if n == 0 {
				assert.Empty(t, concatenated)
			} else {
				assert.Equal(t, doc.Items, concatenated)
			}
		}
	}
}

func TestLayout_Plan(t *testing.T) {
	layout := mustLayout(DefaultLayoutConfig())

	t.Run("fitting document gets one page with all flags", func(t *testing.T) {
		plan := layout.Plan(newTestDocument(4, 1))

		assert.True(t, plan.Estimate.FitsSinglePage)
		require.Equal(t, 1, plan.PageCount())
		p := plan.Pages[0]
		assert.Equal(t, 0, p.Start)
		assert.Equal(t, 4, p.End)
		assert.True(t, p.ShowCompanyHeader && p.ShowCustomerDetails && p.ShowTaxSummary && p.ShowFooter)
	})

	t.Run("overflowing document is paginated", func(t *testing.T) {
		plan := layout.Plan(newTestDocument(40, 0))

		assert.False(t, plan.Estimate.FitsSinglePage)
		assert.Equal(t, 3, plan.PageCount())
	})

	t.Run("overflow from charges with few items stays one page", func(t *testing.T) {
		plan := layout.Plan(newTestDocument(11, 6))

		assert.False(t, plan.Estimate.FitsSinglePage)
		assert.Equal(t, 1, plan.PageCount())
	})

	t.Run("plan is deterministic", func(t *testing.T) {
		doc := newTestDocument(55, 2)
		assert.Equal(t, layout.Plan(doc), layout.Plan(doc))
	})
}
