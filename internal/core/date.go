package core

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidDate = errors.New("invalid date")

// Layouts with a month name are never ambiguous, so they are tried as-is.
var namedMonthLayouts = []string{
	"2 Jan 2006",
	"2 January 2006",
	"2-Jan-2006",
	"2-January-2006",
	"2 Jan 06",
	"2-Jan-06",
	"Jan 2, 2006",
	"January 2, 2006",
}

// ParseDayFirst interprets a date string with the day before the month
// whenever the order is ambiguous: "03/04/2025" is 3 April 2025. A leading
// four-digit year switches to year-month-day, so ISO dates parse too.
// Accepted separators are '/', '-' and '.'. A time-of-day suffix after 'T'
// or a space is discarded.
func ParseDayFirst(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrInvalidDate
	}

	for _, candidate := range []string{s, stripClock(s)} {
		for _, layout := range namedMonthLayouts {
			if t, err := time.Parse(layout, candidate); err == nil {
				return NewDate(t.Year(), int(t.Month()), t.Day()), nil
			}
		}
	}

	if i := strings.IndexAny(s, "T "); i > 0 {
		s = s[:i]
	}

	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '/' || r == '-' || r == '.'
	})
	if len(parts) != 3 || strings.Count(s, string(s[len(parts[0])])) != 2 {
		return Date{}, ErrInvalidDate
	}

	nums := make([]int, 3)
	for i, p := range parts {
		if p == "" || len(p) > 4 {
			return Date{}, ErrInvalidDate
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Date{}, ErrInvalidDate
		}
		nums[i] = n
	}

	var year, month, day int
	if len(parts[0]) == 4 {
		year, month, day = nums[0], nums[1], nums[2]
	} else {
		if len(parts[2]) != 2 && len(parts[2]) != 4 {
			return Date{}, ErrInvalidDate
		}
		day, month, year = nums[0], nums[1], nums[2]
		if len(parts[2]) == 2 {
			year = expandYear(year)
		}
	}

	return validDate(year, month, day)
}

// stripClock drops a trailing " HH:MM" or " HH:MM:SS" from s.
func stripClock(s string) string {
	i := strings.LastIndexByte(s, ' ')
	if i <= 0 {
		return s
	}
	clock := s[i+1:]
	if n := strings.Count(clock, ":"); n < 1 || n > 2 {
		return s
	}
	for _, r := range clock {
		if r != ':' && (r < '0' || r > '9') {
			return s
		}
	}
	return strings.TrimSpace(s[:i])
}

// expandYear maps a two-digit year onto 1970-2069.
func expandYear(yy int) int {
	if yy < 70 {
		return 2000 + yy
	}
	return 1900 + yy
}

func validDate(year, month, day int) (Date, error) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return Date{}, ErrInvalidDate
	}
	d := NewDate(year, month, day)
	// time.Date normalizes 31/02 into March; reject instead.
	if d.Day() != day || int(d.Month()) != month {
		return Date{}, ErrInvalidDate
	}
	return d, nil
}
