package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cadence/internal/rule"
)

func scoredInstance(typ rule.Type, prio rule.Priority, dueDate time.Time) rule.Instance {
	return rule.Instance{
		Key:      "r1:" + dueDate.Format("2006-01-02"),
		Type:     typ,
		Priority: prio,
		DueDate:  dueDate,
	}
}

func TestScore_BaseTimesMultiplier(t *testing.T) {
	today := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		typ  rule.Type
		prio rule.Priority
		want float64
	}{
		{rule.TypeBirthday, rule.PriorityHigh, 120},
		{rule.TypeBirthday, rule.PriorityLow, 40},
		{rule.TypeAnniversary, rule.PriorityMedium, 70},
		{rule.TypeFollowUp, rule.PriorityHigh, 90},
		{rule.TypeFollowUp, rule.PriorityLow, 30},
		{rule.TypeCustom, rule.PriorityMedium, 50},
		{rule.TypeCustom, rule.PriorityLow, 25},
	}
	for _, tt := range tests {
		got, err := Score(scoredInstance(tt.typ, tt.prio, today), today)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s/%s", tt.typ, tt.prio)
	}
}

func TestScore_OverduePenaltyAccumulates(t *testing.T) {
	today := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	tenDaysAgo := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	got, err := Score(scoredInstance(rule.TypeCustom, rule.PriorityLow, tenDaysAgo), today)
	require.NoError(t, err)
	assert.Equal(t, 45.0, got) // 25*1 + 2*10
}

func TestScore_FutureDueIsNotDiscounted(t *testing.T) {
	today := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	nextWeek := today.AddDate(0, 0, 7)

	got, err := Score(scoredInstance(rule.TypeBirthday, rule.PriorityHigh, nextWeek), today)
	require.NoError(t, err)
	assert.Equal(t, 120.0, got)
}

func TestScore_SustainedNeglectOutranksPriority(t *testing.T) {
	// A long-overdue low-priority follow-up eventually beats a fresh
	// high-priority one: 30*1 + 2*31 > 30*3.
	today := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	neglected, err := Score(scoredInstance(rule.TypeFollowUp, rule.PriorityLow, today.AddDate(0, 0, -31)), today)
	require.NoError(t, err)
	fresh, err := Score(scoredInstance(rule.TypeFollowUp, rule.PriorityHigh, today), today)
	require.NoError(t, err)

	assert.Greater(t, neglected, fresh)
}

func TestScore_UnknownEnumIsError(t *testing.T) {
	today := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	_, err := Score(scoredInstance(rule.Type("errand"), rule.PriorityHigh, today), today)
	assert.Error(t, err)

	_, err = Score(scoredInstance(rule.TypeBirthday, rule.Priority("urgent"), today), today)
	assert.Error(t, err)
}
