package report

import "salesdash/internal/core"

// Chart types understood by the frontend.
const (
	ChartLine = "line"
	ChartBar  = "bar"
)

// Palette for category bars, cycled when there are more categories.
var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// ChartConfig is a renderer-neutral chart description serialized to the
// browser as JSON.
type ChartConfig struct {
	ChartType   string        `json:"chartType"`
	Title       string        `json:"title"`
	XAxis       string        `json:"xAxis"`
	YAxis       string        `json:"yAxis"`
	YTickPrefix string        `json:"yTickPrefix,omitempty"`
	Markers     bool          `json:"markers,omitempty"`
	Series      []ChartSeries `json:"series"`
	Colors      []string      `json:"colors,omitempty"`
}

// ChartSeries is a named sequence of points.
type ChartSeries struct {
	Name  string       `json:"name"`
	Data  []ChartPoint `json:"data"`
	Color string       `json:"color,omitempty"`
}

// ChartPoint is a single labelled value.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Charts bundles the two dashboard views.
type Charts struct {
	Trend      ChartConfig `json:"trend"`
	ByCategory ChartConfig `json:"by_category"`
}

// BuildTrend plots sales over time with one marker per row. Rows sharing a
// date produce separate points; nothing is resampled.
func BuildTrend(rows []core.Row, symbol string) ChartConfig {
	points := make([]ChartPoint, 0, len(rows))
	for _, r := range rows {
		points = append(points, ChartPoint{Label: r.Date.String(), Value: r.Sales})
	}
	return ChartConfig{
		ChartType:   ChartLine,
		Title:       "Sales Trend Over Time",
		XAxis:       core.ColDate,
		YAxis:       core.ColSales,
		YTickPrefix: symbol,
		Markers:     true,
		Series:      []ChartSeries{{Name: core.ColSales, Data: points, Color: defaultColors[0]}},
	}
}

// BuildByCategory plots summed sales per category, one coloured bar each,
// in first-appearance order.
func BuildByCategory(rows []core.Row, symbol string) ChartConfig {
	totals := core.SumByCategory(rows)
	points := make([]ChartPoint, 0, len(totals))
	for _, c := range totals {
		points = append(points, ChartPoint{Label: c.Name, Value: c.Sales})
	}
	return ChartConfig{
		ChartType:   ChartBar,
		Title:       "Sales by Category",
		XAxis:       core.ColCategory,
		YAxis:       core.ColSales,
		YTickPrefix: symbol,
		Series:      []ChartSeries{{Name: core.ColSales, Data: points}},
		Colors:      assignColors(len(points)),
	}
}

// BuildCharts produces both views for the same rows.
func BuildCharts(rows []core.Row, symbol string) Charts {
	return Charts{
		Trend:      BuildTrend(rows, symbol),
		ByCategory: BuildByCategory(rows, symbol),
	}
}

func assignColors(n int) []string {
	colors := make([]string, n)
	for i := range colors {
		colors[i] = defaultColors[i%len(defaultColors)]
	}
	return colors
}
