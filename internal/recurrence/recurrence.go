// Package recurrence is the pure calendar math of the engine: it expands a
// rule's recurrence payload into the notify-dates that fall inside a
// materialization window. No I/O, no clock reads - callers pass the window
// explicitly, which is what makes the materializer deterministic and
// testable across arbitrary dates.
package recurrence

import (
	"fmt"
	"sort"
	"time"

	"github.com/roach88/cadence/internal/rule"
)

// Window is an inclusive [Start, End] range of day-normalized dates.
// Start is "today" at materialization time.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether day d falls inside the window, inclusive on both
// ends.
func (w Window) Contains(d time.Time) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

// WindowFrom builds the forward-looking window for a materialization run:
// [today, today+days].
func WindowFrom(today time.Time, days int) Window {
	return Window{Start: today, End: AddDays(today, days)}
}

// FixedDates expands an annual (month, day) event into the notify-dates
// inside w.
//
// Candidate event dates are constructed for w.Start's year and the year
// after; two consecutive years cover every window up to ~365 days wide
// without missing a year-end wraparound. Feb 29 in a non-leap candidate year
// clamps to Feb 28 - the reminder is never silently skipped.
//
// Offsets subtract whole days from the event date. A result that lands
// before w.Start is discarded, not clamped.
func FixedDates(month, day int, offsets []int, w Window) []time.Time {
	var out []time.Time
	for _, year := range []int{w.Start.Year(), w.Start.Year() + 1} {
		event := fixedEventDate(year, month, day)
		for _, o := range notifyOffsets(offsets) {
			d := AddDays(event, -o)
			if w.Contains(d) {
				out = append(out, d)
			}
		}
	}
	return dedupeSorted(out)
}

// fixedEventDate places the (month, day) event in a concrete year, clamping
// Feb 29 to Feb 28 when the year is not a leap year.
func fixedEventDate(year, month, day int) time.Time {
	if month == 2 && day == 29 && !IsLeapYear(year) {
		day = 28
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// IntervalDates expands an every-N-days recurrence from anchor into the
// notify-dates inside w.
//
// The first due date at or after w.Start is computed by ceiling division of
// the anchor distance, never by stepping day-by-day from the anchor (an old
// anchor would make that unbounded). Due dates are then walked forward by
// intervalDays until one passes w.End; each offset-adjusted notify-date is
// kept only if it lands inside the window.
func IntervalDates(anchor time.Time, intervalDays int, offsets []int, w Window) []time.Time {
	anchor = Day(anchor)

	k := 0
	if diff := DaysBetween(anchor, w.Start); diff > 0 {
		k = (diff + intervalDays - 1) / intervalDays
	}

	var out []time.Time
	for d := AddDays(anchor, k*intervalDays); !d.After(w.End); d = AddDays(d, intervalDays) {
		for _, o := range notifyOffsets(offsets) {
			nd := AddDays(d, -o)
			if w.Contains(nd) {
				out = append(out, nd)
			}
		}
	}
	return dedupeSorted(out)
}

// Dates dispatches a rule to the algorithm(s) its kind implies and returns
// the deduplicated, ascending notify-dates inside w. A hybrid rule emits the
// union of both payloads' dates.
//
// The anchor argument is only consulted for interval payloads; callers
// resolve it (last activity, rule creation, or explicit date) before calling.
//
// A missing payload is a defensive error: validation rejects such rules
// before they are stored.
func Dates(r *rule.Rule, anchor time.Time, w Window) ([]time.Time, error) {
	switch r.Kind {
	case rule.KindFixedDate:
		if r.Fixed == nil {
			return nil, fmt.Errorf("recurrence: rule %s has kind %s but no fixed-date payload", r.ID, r.Kind)
		}
		return FixedDates(r.Fixed.Month, r.Fixed.Day, r.Offsets, w), nil

	case rule.KindInterval:
		if r.Interval == nil {
			return nil, fmt.Errorf("recurrence: rule %s has kind %s but no interval payload", r.ID, r.Kind)
		}
		return IntervalDates(anchor, r.Interval.Days, r.Offsets, w), nil

	case rule.KindHybrid:
		if r.Fixed == nil || r.Interval == nil {
			return nil, fmt.Errorf("recurrence: rule %s has kind %s but an incomplete payload", r.ID, r.Kind)
		}
		merged := append(
			FixedDates(r.Fixed.Month, r.Fixed.Day, r.Offsets, w),
			IntervalDates(anchor, r.Interval.Days, r.Offsets, w)...,
		)
		return dedupeSorted(merged), nil

	default:
		return nil, fmt.Errorf("recurrence: rule %s has unknown kind %q", r.ID, r.Kind)
	}
}

// notifyOffsets returns the effective offset set: an empty list means
// day-of only.
func notifyOffsets(offsets []int) []int {
	if len(offsets) == 0 {
		return []int{0}
	}
	return offsets
}

// dedupeSorted sorts dates ascending and drops duplicates in place.
func dedupeSorted(dates []time.Time) []time.Time {
	if len(dates) == 0 {
		return nil
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	out := dates[:1]
	for _, d := range dates[1:] {
		if !d.Equal(out[len(out)-1]) {
			out = append(out, d)
		}
	}
	return out
}
