package store

// convert.go coerces raw CSV strings into PostgreSQL values.
//
// Spreadsheet exports are messy: dates arrive in several layouts, money
// columns carry currency symbols and thousands separators, and counts are
// sometimes written as "3.0". Empty input always becomes NULL. Input that
// is present but cannot be parsed is an error, and one bad cell fails the
// whole batch.

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// TwoDigitYearPivot is how many years into the future a two-digit year may
// land before it is read as the previous century.
var TwoDigitYearPivot = 20

var now = time.Now

var (
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06",
	}
	fourDigitYearLayouts = []string{
		"2006-01-02", "2006/01/02",
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006",
		"Jan 2, 2006", "January 2, 2006", "2 Jan 2006",
		time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05",
	}
)

// ToPgText trims s; blank input is NULL.
func ToPgText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

// ParseInt4 parses a whole number. Thousands separators are ignored and a
// zero fraction ("3.0") is accepted.
func ParseInt4(s string) (pgtype.Int4, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return pgtype.Int4{}, nil
	}

	n, err := strconv.ParseInt(s, 10, 32)
	if err == nil {
		return pgtype.Int4{Int32: int32(n), Valid: true}, nil
	}

	f, ferr := strconv.ParseFloat(s, 64)
	if ferr != nil || f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return pgtype.Int4{}, fmt.Errorf("invalid number %q: expected a whole number", s)
	}
	return pgtype.Int4{Int32: int32(f), Valid: true}, nil
}

// ParseNumeric parses a decimal amount. Currency symbols, thousands
// separators and accounting negatives like "(12.50)" are accepted.
func ParseNumeric(s string) (pgtype.Numeric, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return pgtype.Numeric{}, nil
	}

	v := raw
	negative := false
	if strings.HasPrefix(v, "(") && strings.HasSuffix(v, ")") {
		negative = true
		v = strings.TrimSpace(v[1 : len(v)-1])
	}

	v = strings.NewReplacer("$", "", "€", "", "£", "", ",", "").Replace(v)
	v = strings.TrimSpace(v)
	if negative {
		v = "-" + v
	}

	if !numericRegex.MatchString(v) {
		return pgtype.Numeric{}, fmt.Errorf("invalid number %q", raw)
	}

	var n pgtype.Numeric
	if err := n.Scan(v); err != nil {
		return pgtype.Numeric{}, fmt.Errorf("invalid number %q: %w", raw, err)
	}
	return n, nil
}

// ParseDate parses the date layouts commonly produced by spreadsheet and
// booking-tool exports. US month-first order wins for ambiguous slashes.
func ParseDate(s string) (pgtype.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Date{}, nil
	}

	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return pgtype.Date{Time: truncateDay(t), Valid: true}, nil
		}
	}

	pivot := now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivot {
				t = t.AddDate(-100, 0, 0)
			}
			return pgtype.Date{Time: t, Valid: true}, nil
		}
	}

	return pgtype.Date{}, fmt.Errorf("invalid date %q", s)
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
