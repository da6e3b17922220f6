package google

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

// valuesToCSV converts a values matrix (as returned by Sheets API) into CSV
// bytes. The API drops trailing empty cells, so short rows are padded to
// the header width; rows with no content at all are skipped.
func valuesToCSV(values [][]interface{}) ([]byte, error) {
	if len(values) == 0 {
		return nil, nil
	}
	headers := toStrings(values[0])
	for len(headers) > 0 && headers[len(headers)-1] == "" {
		headers = headers[:len(headers)-1]
	}
	width := len(headers)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(headers); err != nil {
		return nil, err
	}
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		if isBlank(row) {
			continue
		}
		if len(row) > width && isBlank(row[width:]) {
			row = row[:width]
		}
		if len(row) > width {
			return nil, fmt.Errorf("row %d has %d cells, header has %d", i+1, len(row), width)
		}
		for len(row) < width {
			row = append(row, "")
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func isBlank(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}
