package loader

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"salesdash/internal/core"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ContentHash identifies a source by its bytes, never by its name.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Parse decodes a comma-delimited CSV with a header row into a Dataset
// sorted by date. Rows with equal dates keep their file order. Parsing is
// all or nothing: the first bad cell fails the whole load.
func Parse(data []byte, source string) (*core.Dataset, error) {
	hash := ContentHash(data)
	data = bytes.TrimPrefix(data, utf8BOM)

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = 0 // every record must match the header width

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &core.SourceError{Source: source, Err: errors.New("empty input: header row required")}
		}
		return nil, &core.SourceError{Source: source, Err: fmt.Errorf("read header: %w", err)}
	}

	cols, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	var rows []core.Row
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &core.SourceError{Source: source, Err: err}
		}
		line, _ := r.FieldPos(0)
		row, err := cols.row(record, line)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Date.Before(rows[j].Date.Time)
	})

	return &core.Dataset{
		Header: header,
		Rows:   rows,
		Hash:   hash,
		Source: source,
	}, nil
}

type columns struct {
	header   []string
	date     int
	region   int
	category int
	sales    int
	orders   int
	profit   int
}

func resolveColumns(header []string) (columns, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}

	pos := make(map[string]int, len(core.RequiredColumns))
	for _, name := range core.RequiredColumns {
		i, ok := index[strings.ToLower(name)]
		if !ok {
			return columns{}, &core.SchemaError{Column: name, Reason: "missing required column"}
		}
		pos[name] = i
	}

	return columns{
		header:   header,
		date:     pos[core.ColDate],
		region:   pos[core.ColRegion],
		category: pos[core.ColCategory],
		sales:    pos[core.ColSales],
		orders:   pos[core.ColOrders],
		profit:   pos[core.ColProfit],
	}, nil
}

func (c columns) row(record []string, line int) (core.Row, error) {
	fail := func(col int, reason string) error {
		return &core.SchemaError{Column: c.header[col], Line: line, Value: record[col], Reason: reason}
	}

	date, err := core.ParseDayFirst(record[c.date])
	if err != nil {
		return core.Row{}, fail(c.date, "unparseable date")
	}
	sales, err := core.ParseAmount(record[c.sales])
	if err != nil {
		return core.Row{}, fail(c.sales, "not a number")
	}
	orders, err := core.ParseCount(record[c.orders])
	if err != nil {
		return core.Row{}, fail(c.orders, "not an integer")
	}
	profit, err := core.ParseAmount(record[c.profit])
	if err != nil {
		return core.Row{}, fail(c.profit, "not a number")
	}

	return core.Row{
		Date:     date,
		Region:   strings.TrimSpace(record[c.region]),
		Category: strings.TrimSpace(record[c.category]),
		Sales:    sales,
		Orders:   orders,
		Profit:   profit,
		Raw:      record,
	}, nil
}
