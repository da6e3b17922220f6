package report

import (
	"net/url"

	"salesdash/internal/core"
)

// Title is the dashboard heading.
const Title = "Sales Performance Dashboard"

// Option is a selectable filter value.
type Option struct {
	Value    string
	Selected bool
}

// Table is the tabular view of the filtered rows, cells as they appeared
// in the source.
type Table struct {
	Header []string
	Rows   [][]string
}

// Options control how a View is rendered.
type Options struct {
	CurrencySymbol string
	UsingDefault   bool
}

// View is everything one dashboard render needs.
type View struct {
	Title        string
	Source       string
	UsingDefault bool

	Selection  core.FilterSelection
	Regions    []Option
	Categories []Option

	// KPIs describe the full dataset; the table, charts and exports
	// follow the selection.
	KPIs        []KPI
	Summary     core.Summary
	ByCategory  []core.CategoryAmount
	Table       Table
	Charts      Charts
	ExportQuery string
	Currency    string
}

// BuildView filters ds by sel and derives every presentation element.
func BuildView(ds *core.Dataset, sel core.FilterSelection, opts Options) View {
	symbol := opts.CurrencySymbol
	if symbol == "" {
		symbol = DefaultCurrencySymbol
	}

	filtered := core.Filter(ds.Rows, sel)
	summary := core.Summarize(ds.Rows, filtered)

	return View{
		Title:        Title,
		Source:       ds.Source,
		UsingDefault: opts.UsingDefault,
		Selection:    sel,
		Regions:      options(ds.Rows, core.DimRegion, sel),
		Categories:   options(ds.Rows, core.DimCategory, sel),
		KPIs:         KPIs(summary.Full, symbol),
		Summary:      summary,
		ByCategory:   core.SumByCategory(filtered),
		Table:        BuildTable(ds.Header, filtered),
		Charts:       BuildCharts(filtered, symbol),
		ExportQuery:  SelectionQuery(sel),
		Currency:     symbol,
	}
}

// BuildTable copies the original cell text of rows under header.
func BuildTable(header []string, rows []core.Row) Table {
	t := Table{Header: header, Rows: make([][]string, 0, len(rows))}
	for _, r := range rows {
		t.Rows = append(t.Rows, r.Raw)
	}
	return t
}

// SelectionQuery encodes the known dimensions of sel as a query string so
// links such as the export keep the current filters.
func SelectionQuery(sel core.FilterSelection) string {
	q := url.Values{}
	for _, dim := range []string{core.DimRegion, core.DimCategory} {
		for _, v := range sel.Values(dim) {
			q.Add(dim, v)
		}
	}
	return q.Encode()
}

func options(rows []core.Row, dim string, sel core.FilterSelection) []Option {
	chosen := make(map[string]bool)
	for _, v := range sel.Values(dim) {
		chosen[v] = true
	}
	values := core.DistinctValues(rows, dim)
	out := make([]Option, 0, len(values))
	for _, v := range values {
		out = append(out, Option{Value: v, Selected: chosen[v]})
	}
	return out
}
