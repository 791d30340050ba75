package types

import (
	"fmt"
	"strings"
	"time"
)

// monthOrdinals is the single authoritative month-name→ordinal table.
// Every chronological comparison on month names must go through this map;
// never re-derive the mapping inline.
var monthOrdinals = map[string]time.Month{
	"january":   time.January,
	"february":  time.February,
	"march":     time.March,
	"april":     time.April,
	"may":       time.May,
	"june":      time.June,
	"july":      time.July,
	"august":    time.August,
	"september": time.September,
	"october":   time.October,
	"november":  time.November,
	"december":  time.December,
}

var monthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// MonthOrdinal resolves a calendar-month name (any case) to its 1-12 ordinal
func MonthOrdinal(name string) (time.Month, bool) {
	m, ok := monthOrdinals[strings.ToLower(name)]
	return m, ok
}

// MonthName returns the canonical calendar-month label for an ordinal
func MonthName(m time.Month) string {
	return monthNames[m-1]
}

// MonthKey builds the YYYY-MM sort key for a month bucket. Lexicographic
// order on these keys matches chronological order.
func MonthKey(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}
