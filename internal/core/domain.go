package core

import (
	"sort"
	"time"
)

// Dimension names accepted in a FilterSelection.
const (
	DimRegion   = "region"
	DimCategory = "category"
)

// Canonical input columns, in export order.
const (
	ColDate     = "Date"
	ColRegion   = "Region"
	ColCategory = "Category"
	ColSales    = "Sales"
	ColOrders   = "Orders"
	ColProfit   = "Profit"
)

// RequiredColumns lists the header names every input file must carry.
var RequiredColumns = []string{ColDate, ColRegion, ColCategory, ColSales, ColOrders, ColProfit}

type (
	Date struct {
		time.Time
	}

	// Row is one sales record. Rows are built only by the loader and are
	// never modified afterwards; Raw keeps the original cell text in header
	// order so an export reproduces the input formatting.
	Row struct {
		Date     Date
		Region   string
		Category string
		Sales    float64
		Orders   int64
		Profit   float64

		Raw []string
	}

	// Dataset is the full, date-sorted sequence of rows from one source.
	Dataset struct {
		Header []string
		Rows   []Row
		Hash   string // hex SHA-256 of the source bytes
		Source string
	}

	// FilterSelection maps a dimension name to its allowed values.
	// A missing key or an empty slice leaves that dimension unrestricted.
	FilterSelection map[string][]string

	// Aggregates are totals over a row sequence. They are always derived.
	Aggregates struct {
		TotalSales  float64
		TotalOrders int64
		TotalProfit float64
	}
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

// Dimension returns the value of a categorical field by dimension name.
func (r Row) Dimension(name string) (string, bool) {
	switch name {
	case DimRegion:
		return r.Region, true
	case DimCategory:
		return r.Category, true
	default:
		return "", false
	}
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// IsKnownDimension reports whether name is a filterable dimension.
func IsKnownDimension(name string) bool {
	return name == DimRegion || name == DimCategory
}

// IsEmpty reports whether the selection restricts nothing.
func (s FilterSelection) IsEmpty() bool {
	for dim, values := range s {
		if IsKnownDimension(dim) && len(values) > 0 {
			return false
		}
	}
	return true
}

// Unknown returns the dimension names that rows cannot be filtered on,
// sorted for stable logging.
func (s FilterSelection) Unknown() []string {
	var out []string
	for dim := range s {
		if !IsKnownDimension(dim) {
			out = append(out, dim)
		}
	}
	sort.Strings(out)
	return out
}

// Values returns the allowed values for a dimension.
func (s FilterSelection) Values(dim string) []string {
	if s == nil {
		return nil
	}
	return s[dim]
}
