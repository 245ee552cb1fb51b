package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cadence/internal/rule"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func window(start, end time.Time) Window {
	return Window{Start: start, End: end}
}

func TestFixedDates_DayOfInsideWindow(t *testing.T) {
	w := window(day(2026, 3, 1), day(2026, 3, 31))

	got := FixedDates(3, 5, []int{0}, w)
	require.Len(t, got, 1)
	assert.Equal(t, day(2026, 3, 5), got[0])
}

func TestFixedDates_Feb29ClampsToFeb28InNonLeapYear(t *testing.T) {
	w := window(day(2025, 2, 1), day(2025, 3, 3))

	got := FixedDates(2, 29, []int{0}, w)
	require.Len(t, got, 1, "the reminder must never be silently skipped")
	assert.Equal(t, day(2025, 2, 28), got[0])
}

func TestFixedDates_Feb29KeptInLeapYear(t *testing.T) {
	w := window(day(2024, 2, 1), day(2024, 3, 3))

	got := FixedDates(2, 29, []int{0}, w)
	require.Len(t, got, 1)
	assert.Equal(t, day(2024, 2, 29), got[0])
}

func TestFixedDates_YearWraparoundUsesNextYear(t *testing.T) {
	// Window straddles new year; the event is found in windowStart.year+1.
	w := window(day(2025, 12, 20), day(2026, 1, 19))

	got := FixedDates(1, 10, []int{0}, w)
	require.Len(t, got, 1)
	assert.Equal(t, day(2026, 1, 10), got[0])
}

func TestFixedDates_OffsetBeforeWindowDiscardedNotClamped(t *testing.T) {
	w := window(day(2026, 3, 1), day(2026, 3, 31))

	// Event 2026-03-05: day-of stays, the 7-day offset lands on 02-26,
	// before the window, and is dropped entirely.
	got := FixedDates(3, 5, []int{0, 7}, w)
	require.Len(t, got, 1)
	assert.Equal(t, day(2026, 3, 5), got[0])
}

func TestFixedDates_MultipleOffsets(t *testing.T) {
	w := window(day(2026, 3, 1), day(2026, 3, 31))

	got := FixedDates(3, 20, []int{0, 7}, w)
	require.Len(t, got, 2)
	assert.Equal(t, day(2026, 3, 13), got[0], "offsets sort ascending")
	assert.Equal(t, day(2026, 3, 20), got[1])
}

func TestFixedDates_DuplicateOffsetsDeduplicate(t *testing.T) {
	w := window(day(2026, 3, 1), day(2026, 3, 31))

	got := FixedDates(3, 5, []int{0, 0}, w)
	assert.Len(t, got, 1)
}

func TestIntervalDates_CeilDivisionAnchoring(t *testing.T) {
	// Anchor 45 days before today with a 30-day interval: the next due
	// date is anchor+60 (second boundary at or after today), not
	// anchor+30, and not found by stepping day-by-day.
	today := day(2026, 3, 1)
	anchor := day(2026, 1, 15) // 45 days before
	w := window(today, AddDays(today, 30))

	got := IntervalDates(anchor, 30, []int{0}, w)
	require.Len(t, got, 1)
	assert.Equal(t, AddDays(anchor, 60), got[0])
	assert.Equal(t, day(2026, 3, 16), got[0])
}

func TestIntervalDates_AnchorTodayIsDueToday(t *testing.T) {
	today := day(2026, 3, 1)
	w := window(today, AddDays(today, 30))

	got := IntervalDates(today, 30, []int{0}, w)
	require.Len(t, got, 2)
	assert.Equal(t, today, got[0])
	assert.Equal(t, AddDays(today, 30), got[1])
}

func TestIntervalDates_FutureAnchorStartsAtAnchor(t *testing.T) {
	today := day(2026, 3, 1)
	w := window(today, AddDays(today, 30))

	got := IntervalDates(day(2026, 3, 10), 7, []int{0}, w)
	require.NotEmpty(t, got)
	assert.Equal(t, day(2026, 3, 10), got[0])
}

func TestIntervalDates_StopsAfterWindowEnd(t *testing.T) {
	today := day(2026, 3, 1)
	w := window(today, AddDays(today, 30))

	got := IntervalDates(today, 10, []int{0}, w)
	require.Len(t, got, 4) // days 0, 10, 20, 30
	assert.Equal(t, AddDays(today, 30), got[3])
}

func TestIntervalDates_AnchorTimeOfDayIgnored(t *testing.T) {
	today := day(2026, 3, 1)
	w := window(today, AddDays(today, 30))

	late := time.Date(2026, 3, 1, 23, 45, 0, 0, time.UTC)
	got := IntervalDates(late, 30, []int{0}, w)
	require.Len(t, got, 2)
	assert.Equal(t, today, got[0])
}

func TestDates_FixedKind(t *testing.T) {
	r := &rule.Rule{
		ID:    "r1",
		Kind:  rule.KindFixedDate,
		Fixed: &rule.FixedDate{Month: 3, Day: 5},
	}
	w := window(day(2026, 3, 1), day(2026, 3, 31))

	got, err := Dates(r, time.Time{}, w)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, day(2026, 3, 5), got[0])
}

func TestDates_HybridEmitsUnionOfBothPayloads(t *testing.T) {
	r := &rule.Rule{
		ID:       "r1",
		Kind:     rule.KindHybrid,
		Fixed:    &rule.FixedDate{Month: 3, Day: 5},
		Interval: &rule.IntervalSpec{Days: 10, AnchorMode: rule.AnchorRuleCreation},
	}
	w := window(day(2026, 3, 1), day(2026, 3, 20))

	got, err := Dates(r, day(2026, 3, 1), w)
	require.NoError(t, err)
	// Interval: 03-01, 03-11; fixed: 03-05.
	require.Len(t, got, 3)
	assert.Equal(t, day(2026, 3, 1), got[0])
	assert.Equal(t, day(2026, 3, 5), got[1])
	assert.Equal(t, day(2026, 3, 11), got[2])
}

func TestDates_MissingPayloadIsError(t *testing.T) {
	r := &rule.Rule{ID: "r1", Kind: rule.KindInterval}
	w := window(day(2026, 3, 1), day(2026, 3, 31))

	_, err := Dates(r, day(2026, 3, 1), w)
	assert.Error(t, err)
}

func TestDates_UnknownKindIsError(t *testing.T) {
	r := &rule.Rule{ID: "r1", Kind: rule.Kind("weekly")}
	w := window(day(2026, 3, 1), day(2026, 3, 31))

	_, err := Dates(r, day(2026, 3, 1), w)
	assert.Error(t, err)
}

func TestDates_EmptyOffsetsMeansDayOf(t *testing.T) {
	r := &rule.Rule{
		ID:    "r1",
		Kind:  rule.KindFixedDate,
		Fixed: &rule.FixedDate{Month: 3, Day: 5},
	}
	w := window(day(2026, 3, 1), day(2026, 3, 31))

	got, err := Dates(r, time.Time{}, w)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{day(2026, 3, 5)}, got)
}
