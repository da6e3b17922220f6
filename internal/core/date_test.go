package core

import "testing"

func TestParseDayFirst(t *testing.T) {
	cases := []struct {
		in   string
		want Date
		ok   bool
	}{
		{"03/04/2025", NewDate(2025, 4, 3), true},
		{"3/4/2025", NewDate(2025, 4, 3), true},
		{"31-12-2024", NewDate(2024, 12, 31), true},
		{"01.02.2024", NewDate(2024, 2, 1), true},
		{"05/06/24", NewDate(2024, 6, 5), true},
		{"05/06/99", NewDate(1999, 6, 5), true},
		{"2024-01-02", NewDate(2024, 1, 2), true},
		{"2024-01-02T10:30:00", NewDate(2024, 1, 2), true},
		{"02/01/2024 08:00", NewDate(2024, 1, 2), true},
		{"3 Apr 2025", NewDate(2025, 4, 3), true},
		{"03-April-2025", NewDate(2025, 4, 3), true},
		{"2 Jan 2024 10:00", NewDate(2024, 1, 2), true},
		{"2 Jan 2024 10:00:45", NewDate(2024, 1, 2), true},
		{"Jan 2, 2024 23:59", NewDate(2024, 1, 2), true},
		{"2 Jan 2024 noon", Date{}, false},
		{" 13/01/2024 ", NewDate(2024, 1, 13), true},
		{"not-a-date", Date{}, false},
		{"", Date{}, false},
		{"13/13/2024", Date{}, false},
		{"31/02/2024", Date{}, false},
		{"01/02-2024", Date{}, false},
		{"01//02/2024", Date{}, false},
		{"01/02/123", Date{}, false},
		{"2024/13/01", Date{}, false},
	}
	for _, tc := range cases {
		got, err := ParseDayFirst(tc.in)
		if tc.ok {
			if err != nil {
				t.Fatalf("%q expected ok, got %v", tc.in, err)
			}
			if !got.Equal(tc.want.Time) {
				t.Fatalf("%q expected %s, got %s", tc.in, tc.want, got)
			}
		} else if err == nil {
			t.Fatalf("%q expected error, got %s", tc.in, got)
		}
	}
}

func TestDateString(t *testing.T) {
	if got := NewDate(2024, 3, 9).String(); got != "2024-03-09" {
		t.Fatalf("unexpected format: %s", got)
	}
}
