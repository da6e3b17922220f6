// Package core provides the sales record model and the pure functions that
// operate on it.
//
// This file contains the numeric cell parsers used by the loader.
package core

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidCount  = errors.New("invalid count")
)

// ParseAmount converts a numeric cell to float64.
//
// Comma thousands separators are accepted ("1,234.50") as long as every
// group after the first has exactly three digits. Negative values are
// allowed since profit may be a loss. NaN and infinities are rejected.
//
// Examples:
//
//	ParseAmount("100")      -> 100, nil
//	ParseAmount("-12.5")    -> -12.5, nil
//	ParseAmount("1,234.50") -> 1234.5, nil
//	ParseAmount("12,34")    -> 0, ErrInvalidAmount
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if strings.Contains(s, ",") {
		normalized, ok := stripThousands(s)
		if !ok {
			return 0, ErrInvalidAmount
		}
		s = normalized
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// ParseCount converts an integer cell. Values written with a zero
// fractional part ("3.0") are accepted, anything else fractional is not.
func ParseCount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidCount
	}
	if strings.Contains(s, ",") {
		normalized, ok := stripThousands(s)
		if !ok {
			return 0, ErrInvalidCount
		}
		s = normalized
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt64 {
		return 0, ErrInvalidCount
	}
	return int64(f), nil
}

func stripThousands(s string) (string, bool) {
	intPart, frac, hasFrac := strings.Cut(s, ".")
	sign := ""
	if strings.HasPrefix(intPart, "-") || strings.HasPrefix(intPart, "+") {
		sign, intPart = intPart[:1], intPart[1:]
	}
	groups := strings.Split(intPart, ",")
	if len(groups[0]) == 0 || len(groups[0]) > 3 {
		return "", false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 {
			return "", false
		}
	}
	out := sign + strings.Join(groups, "")
	if hasFrac {
		out += "." + frac
	}
	return out, true
}
