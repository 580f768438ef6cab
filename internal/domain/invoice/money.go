package invoice

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatMoney renders a monetary value with exactly two decimal places
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatPercent renders a rate with a literal percent suffix
func FormatPercent(d decimal.Decimal) string {
	return d.String() + "%"
}

// FormatQuantityTotal renders the running quantity total as <value>.000.
// Numeric input is normalised to three decimals; anything else is echoed.
func FormatQuantityTotal(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "0.000"
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return v
	}
	return d.StringFixed(3)
}

// SumQuantities adds the numeric quantities of the given items.
// Non-numeric display quantities are skipped.
func SumQuantities(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		q, err := decimal.NewFromString(strings.TrimSpace(item.Quantity))
		if err != nil {
			continue
		}
		total = total.Add(q)
	}
	return total
}
