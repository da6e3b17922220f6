package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out float64
		ok  bool
	}{
		{"100", 100, true},
		{"100.25", 100.25, true},
		{"-12.5", -12.5, true},
		{" 7 ", 7, true},
		{"1,234.50", 1234.5, true},
		{"-1,234,567", -1234567, true},
		{"0", 0, true},
		{"12,34", 0, false},
		{",123", 0, false},
		{"abc", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestParseCount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"3", 3, true},
		{"3.0", 3, true},
		{"1,200", 1200, true},
		{"0", 0, true},
		{"3.5", 0, false},
		{"three", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseCount(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}
