package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cadence/internal/rule"
)

func stateTestInstance(t *testing.T, e *Engine) rule.Instance {
	t.Helper()
	r := fixedRule("r1", rule.TypeBirthday, rule.PriorityHigh, 3, 1)
	mustCreateRule(t, e, r)
	return seedInstance(t, e, r, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
}

func TestComplete(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	inst := stateTestInstance(t, e)

	got, err := e.Complete(ctx, inst.Key, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, rule.StatusCompleted, got.Status)
	require.NotNil(t, got.ResolvedAt)
	assert.Equal(t, engineNow, *got.ResolvedAt)
	assert.Nil(t, got.SnoozedUntil)
}

func TestComplete_DoubleTapIsNotActionable(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	inst := stateTestInstance(t, e)

	_, err := e.Complete(ctx, inst.Key, "owner-1")
	require.NoError(t, err)

	_, err = e.Complete(ctx, inst.Key, "owner-1")
	require.Error(t, err)
	assert.True(t, IsNotActionable(err), "a guard miss is reported, not swallowed as success")

	got, err := e.Store().GetInstance(ctx, inst.Key, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, rule.StatusCompleted, got.Status)
}

func TestSnoozeThenComplete(t *testing.T) {
	e, clock := newTestEngine(t)
	ctx := context.Background()
	inst := stateTestInstance(t, e)

	until := clock.Now().Add(48 * time.Hour)
	got, err := e.Snooze(ctx, inst.Key, "owner-1", until)
	require.NoError(t, err)
	assert.Equal(t, rule.StatusSnoozed, got.Status)
	require.NotNil(t, got.SnoozedUntil)
	assert.Equal(t, until, *got.SnoozedUntil)

	// Snoozing an already-snoozed instance is a miss; use unsnooze first.
	_, err = e.Snooze(ctx, inst.Key, "owner-1", until.Add(time.Hour))
	assert.True(t, IsNotActionable(err))

	got, err = e.Complete(ctx, inst.Key, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, rule.StatusCompleted, got.Status)
	assert.Nil(t, got.SnoozedUntil, "completion clears the snooze")
	require.NotNil(t, got.ResolvedAt)
}

func TestSnooze_RejectsNonFutureUntil(t *testing.T) {
	e, clock := newTestEngine(t)
	ctx := context.Background()
	inst := stateTestInstance(t, e)

	for _, until := range []time.Time{
		clock.Now(),
		clock.Now().Add(-time.Hour),
	} {
		_, err := e.Snooze(ctx, inst.Key, "owner-1", until)
		require.Error(t, err)
		assert.True(t, hasCode(err, ErrCodeValidation), "until %s", until)
		assert.False(t, IsNotActionable(err))
	}

	got, err := e.Store().GetInstance(ctx, inst.Key, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, rule.StatusPending, got.Status, "a rejected snooze writes nothing")
	assert.Nil(t, got.SnoozedUntil)
}

func TestUnsnooze(t *testing.T) {
	e, clock := newTestEngine(t)
	ctx := context.Background()
	inst := stateTestInstance(t, e)

	_, err := e.Snooze(ctx, inst.Key, "owner-1", clock.Now().Add(time.Hour))
	require.NoError(t, err)

	got, err := e.Unsnooze(ctx, inst.Key, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, rule.StatusPending, got.Status)
	assert.Nil(t, got.SnoozedUntil)
	assert.Nil(t, got.ResolvedAt)

	// Unsnoozing a pending instance is a miss.
	_, err = e.Unsnooze(ctx, inst.Key, "owner-1")
	assert.True(t, IsNotActionable(err))
}

func TestSkip(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	inst := stateTestInstance(t, e)

	got, err := e.Skip(ctx, inst.Key, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, rule.StatusSkipped, got.Status)
	require.NotNil(t, got.ResolvedAt)

	// Skipped is terminal: nothing moves it.
	_, err = e.Complete(ctx, inst.Key, "owner-1")
	assert.True(t, IsNotActionable(err))
	_, err = e.Snooze(ctx, inst.Key, "owner-1", engineNow.Add(time.Hour))
	assert.True(t, IsNotActionable(err))
}

func TestTransition_UnknownKeyOrWrongOwner(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	inst := stateTestInstance(t, e)

	_, err := e.Complete(ctx, "r1:1999-01-01", "owner-1")
	assert.True(t, IsNotActionable(err))

	_, err = e.Complete(ctx, inst.Key, "owner-2")
	assert.True(t, IsNotActionable(err), "ownership scoping is part of the guard")
}
