package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/cadence/internal/rule"
	"github.com/roach88/cadence/internal/store"
	"github.com/roach88/cadence/internal/testutil"
)

// engineNow pins every engine test to the same instant: a Sunday morning,
// 2026-03-01 09:00 UTC.
var engineNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) (*Engine, *testutil.FrozenClock) {
	t.Helper()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	clock := testutil.NewFrozenClock(engineNow)
	return New(s, WithClock(clock)), clock
}

func mustCreateRule(t *testing.T, e *Engine, r *rule.Rule) {
	t.Helper()
	require.NoError(t, r.Validate())
	require.NoError(t, e.Store().CreateRule(context.Background(), r))
}

func mustUpsertTarget(t *testing.T, e *Engine, tgt *rule.Target) {
	t.Helper()
	require.NoError(t, e.Store().UpsertTarget(context.Background(), tgt))
}

func fixedRule(id string, typ rule.Type, prio rule.Priority, month, day int, offsets ...int) *rule.Rule {
	return &rule.Rule{
		ID:        id,
		OwnerID:   "owner-1",
		Type:      typ,
		Kind:      rule.KindFixedDate,
		Fixed:     &rule.FixedDate{Month: month, Day: day},
		Priority:  prio,
		Offsets:   offsets,
		Active:    true,
		Title:     "rule " + id,
		CreatedAt: engineNow,
	}
}

func intervalRule(id string, days int, mode rule.AnchorMode) *rule.Rule {
	return &rule.Rule{
		ID:        id,
		OwnerID:   "owner-1",
		Type:      rule.TypeFollowUp,
		Kind:      rule.KindInterval,
		Interval:  &rule.IntervalSpec{Days: days, AnchorMode: mode},
		Priority:  rule.PriorityMedium,
		Active:    true,
		Title:     "rule " + id,
		CreatedAt: engineNow,
	}
}

// seedInstance writes a pending instance directly, bypassing the
// materializer, for queue and state-machine tests that need precise due
// dates.
func seedInstance(t *testing.T, e *Engine, r *rule.Rule, dueDate time.Time) rule.Instance {
	t.Helper()
	inst := rule.Instance{
		Key:        InstanceKey(r.ID, dueDate),
		RuleID:     r.ID,
		OwnerID:    r.OwnerID,
		TargetID:   r.TargetID,
		DueDate:    dueDate,
		Status:     rule.StatusPending,
		Type:       r.Type,
		Priority:   r.Priority,
		Title:      r.Title,
		ObservedAt: engineNow,
		CreatedAt:  engineNow,
	}
	created, _, failed, err := e.Store().UpsertInstances(context.Background(), []rule.Instance{inst})
	require.NoError(t, err)
	require.Nil(t, failed)
	require.Equal(t, 1, created)
	return inst
}
