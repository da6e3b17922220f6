package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"salesdash/internal/core"
)

const (
	ExportFilename    = "filtered_data.csv"
	ExportPDFFilename = "filtered_data.pdf"
	ExportContentType = "text/csv"
)

// WriteCSV writes header followed by the original cells of each row, so
// loading the output again yields the same rows.
func WriteCSV(w io.Writer, header []string, rows []core.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range rows {
		if err := cw.Write(r.Raw); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
