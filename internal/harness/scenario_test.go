package harness

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cadence/internal/rule"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestBuildRule_Defaults(t *testing.T) {
	createdAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	r, err := RuleDef{
		ID:       "r1",
		Owner:    "owner-1",
		Type:     "follow_up",
		Title:    "  Catch up  ",
		Interval: &IntervalDef{Days: 30},
	}.buildRule(createdAt)
	require.NoError(t, err)

	assert.Equal(t, rule.KindInterval, r.Kind)
	assert.Equal(t, rule.PriorityMedium, r.Priority)
	assert.Equal(t, rule.AnchorLastActivity, r.Interval.AnchorMode)
	assert.Equal(t, "Catch up", r.Title)
	assert.True(t, r.Active)
	assert.Equal(t, createdAt, r.CreatedAt)
}

func TestBuildRule_HybridAndExplicitDate(t *testing.T) {
	createdAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	r, err := RuleDef{
		ID:       "r1",
		Owner:    "owner-1",
		Type:     "custom",
		Title:    "Lease check",
		Fixed:    &FixedDef{Month: 12, Day: 24},
		Interval: &IntervalDef{Days: 365, Anchor: "explicit_date", Date: "2026-01-10"},
	}.buildRule(createdAt)
	require.NoError(t, err)

	assert.Equal(t, rule.KindHybrid, r.Kind)
	assert.Equal(t, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), r.Interval.AnchorDate)
}

func TestBuildRule_Rejections(t *testing.T) {
	createdAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	_, err := RuleDef{ID: "r1", Owner: "owner-1", Type: "custom"}.buildRule(createdAt)
	assert.ErrorContains(t, err, "payload")

	_, err = RuleDef{
		ID: "r1", Owner: "owner-1", Type: "custom",
		Fixed: &FixedDef{Month: 2, Day: 30},
	}.buildRule(createdAt)
	assert.Error(t, err)
}
