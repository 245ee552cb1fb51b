package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/roach88/cadence/internal/rule"
)

// Instance state machine. Legal transitions:
//
//	pending -> completed   (terminal)
//	pending -> snoozed
//	snoozed -> pending     (unsnooze)
//	snoozed -> completed
//	pending|snoozed -> skipped (terminal)
//
// Nothing leaves completed or skipped; the rule materializes a fresh
// instance for the next cycle instead of resurrecting a terminal one.
//
// Every transition is one conditional update guarded by the expected
// current status. A guard miss (completing an already-completed instance,
// concurrent double-submission) returns a not-actionable error rather than
// reporting success, so double-submission bugs stay visible.

// Complete marks a pending or snoozed instance done, clearing any snooze.
func (e *Engine) Complete(ctx context.Context, key, ownerID string) (*rule.Instance, error) {
	now := e.clock.Now()
	return e.transition(ctx, key, ownerID,
		[]rule.Status{rule.StatusPending, rule.StatusSnoozed},
		rule.StatusCompleted, &now, nil)
}

// Snooze suppresses a pending instance from the queue until the given time.
// A non-future until is rejected: it would create a snooze that is already
// expired and resurfaces on the next queue read.
func (e *Engine) Snooze(ctx context.Context, key, ownerID string, until time.Time) (*rule.Instance, error) {
	if !until.After(e.clock.Now()) {
		return nil, validationError(key, "snooze time must be in the future")
	}
	return e.transition(ctx, key, ownerID,
		[]rule.Status{rule.StatusPending},
		rule.StatusSnoozed, nil, &until)
}

// Unsnooze returns a snoozed instance to pending immediately.
func (e *Engine) Unsnooze(ctx context.Context, key, ownerID string) (*rule.Instance, error) {
	return e.transition(ctx, key, ownerID,
		[]rule.Status{rule.StatusSnoozed},
		rule.StatusPending, nil, nil)
}

// Skip dismisses a pending or snoozed instance without completing it,
// clearing any snooze.
func (e *Engine) Skip(ctx context.Context, key, ownerID string) (*rule.Instance, error) {
	now := e.clock.Now()
	return e.transition(ctx, key, ownerID,
		[]rule.Status{rule.StatusPending, rule.StatusSnoozed},
		rule.StatusSkipped, &now, nil)
}

func (e *Engine) transition(
	ctx context.Context,
	key, ownerID string,
	from []rule.Status,
	to rule.Status,
	resolvedAt *time.Time,
	snoozedUntil *time.Time,
) (*rule.Instance, error) {
	ok, err := e.store.TransitionInstance(ctx, key, ownerID, from, to, resolvedAt, snoozedUntil)
	if err != nil {
		return nil, storageError("transition instance", err)
	}
	if !ok {
		return nil, notActionableError(key)
	}

	slog.Info("instance transition", "key", key, "owner", ownerID, "to", string(to))

	inst, err := e.store.GetInstance(ctx, key, ownerID)
	if err != nil {
		return nil, storageError("reload instance", err)
	}
	return inst, nil
}
