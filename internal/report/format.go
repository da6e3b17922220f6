// Package report turns filtered rows into what the dashboard and CLI show:
// formatted KPIs, chart specifications, the data table and exports.
package report

import (
	"math"
	"strconv"

	"github.com/dustin/go-humanize"

	"salesdash/internal/core"
)

// DefaultCurrencySymbol prefixes monetary KPIs when none is configured.
const DefaultCurrencySymbol = "₹"

// KPI is one headline metric ready for display.
type KPI struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// FormatCurrency renders an amount rounded to whole units with thousands
// separators, e.g. "₹1,234". Negative amounts render as "₹-50".
func FormatCurrency(symbol string, v float64) string {
	return symbol + humanize.Comma(int64(math.RoundToEven(v)))
}

// FormatCount renders an order count as a plain integer.
func FormatCount(n int64) string {
	return strconv.FormatInt(n, 10)
}

// KPIs builds the three headline metrics in display order.
func KPIs(agg core.Aggregates, symbol string) []KPI {
	return []KPI{
		{Label: "Total Sales", Value: FormatCurrency(symbol, agg.TotalSales)},
		{Label: "Total Orders", Value: FormatCount(agg.TotalOrders)},
		{Label: "Total Profit", Value: FormatCurrency(symbol, agg.TotalProfit)},
	}
}
