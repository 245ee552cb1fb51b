package recurrence

import "time"

// DayFormat is the wire/storage layout for date-only values.
const DayFormat = "2006-01-02"

// Day truncates t to its calendar day as a UTC midnight. All date math in
// this package operates on these normalized values; UTC has no DST jumps, so
// day arithmetic stays exact.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AddDays returns d shifted by n calendar days.
func AddDays(d time.Time, n int) time.Time {
	return d.AddDate(0, 0, n)
}

// DaysBetween returns the whole-day distance from a to b (negative when b is
// earlier). Both arguments must already be day-normalized.
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

// FormatDay renders a day-normalized time as YYYY-MM-DD.
func FormatDay(d time.Time) string {
	return d.Format(DayFormat)
}

// ParseDay parses a YYYY-MM-DD string into a UTC midnight.
func ParseDay(s string) (time.Time, error) {
	return time.Parse(DayFormat, s)
}

// IsLeapYear reports whether year has a February 29.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
