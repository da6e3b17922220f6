package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/pterm/pterm"

	"salesdash/internal/core"
	"salesdash/internal/log"
)

const salesCSV = `Date,Region,Category,Sales,Orders,Profit
01/01/2024,North,A,100,1,10
02/01/2024,South,B,"1,200",2,40
03/01/2024,North,B,300,3,-20
`

func TestMain(m *testing.M) {
	pterm.DisableColor()
	color.NoColor = true
	os.Exit(m.Run())
}

func writeCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sales.csv")
	if err := os.WriteFile(path, []byte(salesCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	app := NewCLIApp(log.New(log.Config{Output: io.Discard}))
	app.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }

	var out bytes.Buffer
	app.rootCmd.SetOut(&out)
	app.rootCmd.SetErr(&out)
	app.rootCmd.SetArgs(args)
	err := app.Execute()
	return out.String(), err
}

func TestSummary(t *testing.T) {
	path := writeCSV(t)

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "all rows",
			args: []string{"summary", path},
			want: []string{"Total Sales", "₹1,600", "Total Orders", "3 of 3 rows"},
		},
		{
			name: "region filter",
			args: []string{"summary", path, "--region", "North"},
			want: []string{"₹1,600", "2 of 3 rows", "₹400"},
		},
		{
			name: "no matches",
			args: []string{"summary", path, "--region", "West"},
			want: []string{"0 of 3 rows", "No rows match"},
		},
		{
			name: "currency flag",
			args: []string{"summary", path, "--currency", "$"},
			want: []string{"$1,600"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.args...)
			if err != nil {
				t.Fatalf("summary: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
		})
	}
}

func TestSummaryDefaultsToSample(t *testing.T) {
	out, err := run(t, "summary")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if !strings.Contains(out, "sample_sales.csv") {
		t.Errorf("expected sample source in output:\n%s", out)
	}
}

func TestSummaryMissingFile(t *testing.T) {
	_, err := run(t, "summary", filepath.Join(t.TempDir(), "nope.csv"))
	var srcErr *core.SourceError
	if !errors.As(err, &srcErr) {
		t.Fatalf("expected SourceError, got %v", err)
	}
}

func TestExport(t *testing.T) {
	path := writeCSV(t)
	dir := filepath.Join(t.TempDir(), "out")

	out, err := run(t, "export", path, "--dir", dir, "--category", "B", "--pdf")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(out, "Wrote 2 rows") {
		t.Errorf("unexpected output: %s", out)
	}

	data, err := os.ReadFile(filepath.Join(dir, "filtered_data.csv"))
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %d lines:\n%s", len(lines), data)
	}
	if lines[0] != "Date,Region,Category,Sales,Orders,Profit" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != `02/01/2024,South,B,"1,200",2,40` {
		t.Errorf("first row = %q", lines[1])
	}

	pdf, err := os.ReadFile(filepath.Join(dir, "filtered_data.pdf"))
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF-")) {
		t.Errorf("pdf export does not start with a PDF header")
	}
}

func TestExportWithoutPDF(t *testing.T) {
	path := writeCSV(t)
	dir := t.TempDir()

	if _, err := run(t, "export", path, "--dir", dir); err != nil {
		t.Fatalf("export: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "filtered_data.pdf")); !os.IsNotExist(err) {
		t.Errorf("pdf written without --pdf: %v", err)
	}
}
