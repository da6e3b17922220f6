package google

import (
	"strings"
	"testing"
)

func TestValuesToCSV(t *testing.T) {
	values := [][]interface{}{
		{"Date", "Region", "Category", "Sales", "Orders", "Profit", ""},
		{"01/02/2024", "North", "Electronics", "1,200", "3", "240"},
		{},
		{"02/02/2024", " South ", "Furniture", 800, 2},
		{"", "", ""},
	}

	got, err := valuesToCSV(values)
	if err != nil {
		t.Fatalf("valuesToCSV: %v", err)
	}
	want := strings.Join([]string{
		"Date,Region,Category,Sales,Orders,Profit",
		`01/02/2024,North,Electronics,"1,200",3,240`,
		"02/02/2024,South,Furniture,800,2,",
		"",
	}, "\n")
	if string(got) != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestValuesToCSV_Empty(t *testing.T) {
	got, err := valuesToCSV(nil)
	if err != nil || len(got) != 0 {
		t.Fatalf("expected no output, got %q, %v", got, err)
	}
}

func TestValuesToCSV_RowWiderThanHeader(t *testing.T) {
	values := [][]interface{}{
		{"Date", "Sales"},
		{"01/02/2024", "10", "surplus"},
	}
	if _, err := valuesToCSV(values); err == nil {
		t.Fatal("expected error for row wider than header")
	}
}
