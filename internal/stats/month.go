// Package stats computes dashboard summaries and budget progress from
// a user's transactions. Everything here is a pure function of its input.
package stats

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	monthLayout = "2006-01"
	dateLayout  = "2006-01-02"
)

var hundred = decimal.NewFromInt(100)

// MonthKey formats t as YYYY-MM.
func MonthKey(t time.Time) string {
	return t.Format(monthLayout)
}

// AddMonths moves n calendar months from the first day of t's month,
// so that March 31 minus one month is February rather than March 3.
func AddMonths(t time.Time, n int) time.Time {
	return time.Date(t.Year(), t.Month()+time.Month(n), 1, 0, 0, 0, 0, t.Location())
}

// ParseMonth parses a YYYY-MM key into the first instant of that month (UTC).
func ParseMonth(key string) (time.Time, bool) {
	t, err := time.Parse(monthLayout, key)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// inMonth matches a transaction date to a month window by its YYYY-MM prefix.
// Malformed dates silently never match.
func inMonth(date, key string) bool {
	return len(date) >= 7 && date[:7] == key
}

// PercentChange returns (current-previous)/|previous|*100 rounded to two
// decimals, or 0 when previous is zero.
func PercentChange(current, previous decimal.Decimal) float64 {
	if previous.IsZero() {
		return 0
	}
	return current.Sub(previous).Div(previous.Abs()).Mul(hundred).Round(2).InexactFloat64()
}
