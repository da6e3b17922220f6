package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"salesdash/internal/core"
)

// The PDF core fonts use cp1252, which has no rupee sign.
var pdfSymbols = map[string]string{
	"₹": "Rs. ",
}

// WritePDF renders a one-page summary of v: the selection, headline and
// filtered totals, and sales per category.
func WritePDF(w io.Writer, v View, generated time.Time) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	symbol := v.Currency
	if s, ok := pdfSymbols[symbol]; ok {
		symbol = s
	}

	headerColor := [3]int{40, 40, 40}
	bodyTextColor := [3]int{50, 50, 50}
	lineColor := [3]int{200, 200, 200}

	section := func(title string) {
		pdf.SetFont("Arial", "B", 12)
		pdf.SetTextColor(0, 0, 0)
		pdf.Cell(0, 8, tr(title))
		pdf.Ln(7)
		pdf.SetDrawColor(lineColor[0], lineColor[1], lineColor[2])
		pdf.Line(pdf.GetX(), pdf.GetY(), pdf.GetX()+190, pdf.GetY())
		pdf.Ln(4)
		pdf.SetFont("Arial", "", 10)
		pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
	}
	pair := func(label, value string) {
		pdf.CellFormat(60, 6, tr(label), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, tr(value), "", 1, "L", false, 0, "")
	}

	pdf.AddPage()
	pdf.SetFillColor(headerColor[0], headerColor[1], headerColor[2])
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 12, tr("  "+v.Title), "", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 8, tr("  Source: "+v.Source), "", 1, "L", true, 0, "")
	pdf.Ln(6)

	section("Filters")
	pair("Region", describe(v.Selection.Values(core.DimRegion)))
	pair("Category", describe(v.Selection.Values(core.DimCategory)))
	pdf.Ln(4)

	section("Totals")
	pair("", fmt.Sprintf("All rows (%d) / Filtered rows (%d)", v.Summary.FullRows, v.Summary.FilteredRows))
	pair("Total Sales", FormatCurrency(symbol, v.Summary.Full.TotalSales)+" / "+FormatCurrency(symbol, v.Summary.Filtered.TotalSales))
	pair("Total Orders", FormatCount(v.Summary.Full.TotalOrders)+" / "+FormatCount(v.Summary.Filtered.TotalOrders))
	pair("Total Profit", FormatCurrency(symbol, v.Summary.Full.TotalProfit)+" / "+FormatCurrency(symbol, v.Summary.Filtered.TotalProfit))
	pdf.Ln(4)

	section("Sales by Category")
	if len(v.ByCategory) == 0 {
		pair("No rows match the current filters", "")
	}
	for _, c := range v.ByCategory {
		pair(c.Name, FormatCurrency(symbol, c.Sales))
	}

	pdf.SetY(-20)
	pdf.SetFont("Arial", "I", 8)
	pdf.SetTextColor(128, 128, 128)
	pdf.CellFormat(0, 10, tr("Generated "+generated.Format("2006-01-02 15:04:05")), "", 0, "L", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

func describe(values []string) string {
	if len(values) == 0 {
		return "All"
	}
	return strings.Join(values, ", ")
}
