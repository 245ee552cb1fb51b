package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/cadence/internal/recurrence"
)

// Timestamp columns store RFC 3339 text at second granularity (UTC), so
// lexicographic comparison in SQL matches chronological order. Date-only
// columns store YYYY-MM-DD.

func formatTime(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// nullTime renders an optional timestamp as a nullable column value.
func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

// scanNullTime converts a nullable timestamp column back to *time.Time.
func scanNullTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// scanDay parses a date-only column.
func scanDay(s string) (time.Time, error) {
	d, err := recurrence.ParseDay(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return d, nil
}
