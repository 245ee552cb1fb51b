package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/cadence/internal/recurrence"
	"github.com/roach88/cadence/internal/rule"
)

const instanceColumns = `instance_key, rule_id, owner_id, target_id, due_date, status,
	type, priority, title, target_name,
	snoozed_until, resolved_at, observed_at, created_at`

// UpsertInstances writes a materialization batch in a single transaction.
//
// Per instance the write is the insert-only / always-set split that makes
// materialization idempotent and non-destructive:
//
//   - insert-only: status (pending), due date, and the denormalized display
//     fields - written once, when the key does not exist yet. A user's
//     completion or snooze on an existing instance is never overwritten.
//   - always-set: observed_at bookkeeping, touched on every pass.
//
// Statement failures are collected per rule and the batch continues; one
// rule's bad row must not block its siblings. The returned error is reserved
// for transaction-level failures (retryable by the caller - keys are
// idempotent).
func (s *Store) UpsertInstances(ctx context.Context, batch []rule.Instance) (created, updated int, failed map[string]error, err error) {
	if len(batch) == 0 {
		return 0, 0, nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("upsert instances: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	failed = make(map[string]error)
	for _, inst := range batch {
		res, execErr := tx.ExecContext(ctx, `
			INSERT INTO instances (`+instanceColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, NULL, ?, ?)
			ON CONFLICT(instance_key) DO NOTHING
		`,
			inst.Key, inst.RuleID, inst.OwnerID, nullString(inst.TargetID),
			recurrence.FormatDay(inst.DueDate), string(inst.Status),
			string(inst.Type), string(inst.Priority), inst.Title, inst.TargetName,
			formatTime(inst.ObservedAt), formatTime(inst.CreatedAt),
		)
		if execErr != nil {
			failed[inst.RuleID] = execErr
			continue
		}

		n, raErr := res.RowsAffected()
		if raErr != nil {
			failed[inst.RuleID] = raErr
			continue
		}
		if n > 0 {
			created++
			continue
		}

		// Key exists: touch bookkeeping only.
		if _, execErr := tx.ExecContext(ctx, `
			UPDATE instances SET observed_at = ? WHERE instance_key = ?
		`, formatTime(inst.ObservedAt), inst.Key); execErr != nil {
			failed[inst.RuleID] = execErr
			continue
		}
		updated++
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, nil, fmt.Errorf("upsert instances: commit: %w", err)
	}

	if len(failed) == 0 {
		failed = nil
	}
	return created, updated, failed, nil
}

// DeleteStalePending removes a rule's still-pending instances with a due
// date after cutoff that are not in the keep set. Run after a successful
// materialization so a rule edit does not strand future instances the new
// payload would never produce. Instances a user has acted on are never
// touched by this path.
func (s *Store) DeleteStalePending(ctx context.Context, ruleID string, cutoff time.Time, keep []string) (int64, error) {
	query := `
		DELETE FROM instances
		WHERE rule_id = ? AND status = ? AND due_date > ?`
	args := []any{ruleID, string(rule.StatusPending), recurrence.FormatDay(cutoff)}

	if len(keep) > 0 {
		query += ` AND instance_key NOT IN (?` + strings.Repeat(", ?", len(keep)-1) + `)`
		for _, k := range keep {
			args = append(args, k)
		}
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete stale pending for rule %s: %w", ruleID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete stale pending for rule %s: %w", ruleID, err)
	}
	return n, nil
}

// ListDue returns the instances eligible for the owner's queue: pending, or
// snoozed with the snooze already expired, due on or before today. With
// todayOnly set, overdue instances are excluded.
//
// Ordering is deterministic (due date, then key) so the scorer's tiebreaks
// are stable across calls.
func (s *Store) ListDue(ctx context.Context, ownerID string, today time.Time, now time.Time, todayOnly bool) ([]rule.Instance, error) {
	query := `
		SELECT ` + instanceColumns + ` FROM instances
		WHERE owner_id = ?
		  AND (status = ? OR (status = ? AND snoozed_until IS NOT NULL AND snoozed_until <= ?))
		  AND due_date <= ?`
	args := []any{
		ownerID,
		string(rule.StatusPending), string(rule.StatusSnoozed), formatTime(now),
		recurrence.FormatDay(today),
	}
	if todayOnly {
		query += ` AND due_date = ?`
		args = append(args, recurrence.FormatDay(today))
	}
	query += ` ORDER BY due_date ASC, instance_key ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query due instances: %w", err)
	}
	defer rows.Close()

	instances := []rule.Instance{}
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan instance: %w", err)
		}
		instances = append(instances, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate instances: %w", err)
	}
	return instances, nil
}

// GetInstance returns an instance by key, scoped to its owner, or
// ErrNotFound.
func (s *Store) GetInstance(ctx context.Context, key, ownerID string) (*rule.Instance, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+instanceColumns+` FROM instances
		WHERE instance_key = ? AND owner_id = ?
	`, key, ownerID)

	inst, err := scanInstanceRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("instance %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get instance %s: %w", key, err)
	}
	return inst, nil
}

// TransitionInstance performs one guarded state-machine step: a single
// conditional UPDATE that only fires when the instance currently holds one
// of the expected statuses. Returns false on a miss - either the instance
// does not exist for that owner or its status no longer matches (an expected
// race such as a double-tapped "done", not an error).
//
// Completing or skipping clears snoozed_until; snoozing sets it.
func (s *Store) TransitionInstance(
	ctx context.Context,
	key, ownerID string,
	from []rule.Status,
	to rule.Status,
	resolvedAt *time.Time,
	snoozedUntil *time.Time,
) (bool, error) {
	if len(from) == 0 {
		return false, fmt.Errorf("transition instance %s: empty guard", key)
	}

	query := `
		UPDATE instances
		SET status = ?, resolved_at = ?, snoozed_until = ?
		WHERE instance_key = ? AND owner_id = ?
		  AND status IN (?` + strings.Repeat(", ?", len(from)-1) + `)`

	args := []any{string(to), nullTime(resolvedAt), nullTime(snoozedUntil), key, ownerID}
	for _, st := range from {
		args = append(args, string(st))
	}

	ok, err := s.execRowsAffected(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("transition instance %s: %w", key, err)
	}
	return ok, nil
}

// PruneStale deletes an owner's aged-out instances and returns the count:
//
//   - terminal (completed/skipped) instances resolved more than softDays ago
//   - any instance, regardless of status, whose due date is more than
//     hardDays past - the hard bound keeps a long-gone rule from leaving
//     unbounded garbage behind
func (s *Store) PruneStale(ctx context.Context, ownerID string, now time.Time, softDays, hardDays int) (int64, error) {
	softCutoff := formatTime(now.AddDate(0, 0, -softDays))
	hardCutoff := recurrence.FormatDay(recurrence.AddDays(recurrence.Day(now), -hardDays))

	// The soft retention applies to terminal statuses only; the set is
	// derived from the status type so a new terminal status prunes without
	// this query being touched.
	var terminal []any
	for _, st := range rule.Statuses() {
		if st.Terminal() {
			terminal = append(terminal, string(st))
		}
	}

	query := `
		DELETE FROM instances
		WHERE owner_id = ?
		  AND (
			(status IN (?` + strings.Repeat(", ?", len(terminal)-1) + `) AND resolved_at IS NOT NULL AND resolved_at < ?)
			OR due_date < ?
		  )`
	args := append([]any{ownerID}, terminal...)
	args = append(args, softCutoff, hardCutoff)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("prune instances for %s: %w", ownerID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune instances for %s: %w", ownerID, err)
	}
	return n, nil
}

func scanInstance(rows *sql.Rows) (rule.Instance, error) {
	inst, err := scanInstanceRow(rows)
	if err != nil {
		return rule.Instance{}, err
	}
	return *inst, nil
}

func scanInstanceRow(row rowScanner) (*rule.Instance, error) {
	var (
		inst         rule.Instance
		targetID     sql.NullString
		dueDate      string
		snoozedUntil sql.NullString
		resolvedAt   sql.NullString
		observedAt   string
		createdAt    string
	)

	err := row.Scan(
		&inst.Key, &inst.RuleID, &inst.OwnerID, &targetID, &dueDate, &inst.Status,
		&inst.Type, &inst.Priority, &inst.Title, &inst.TargetName,
		&snoozedUntil, &resolvedAt, &observedAt, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	inst.TargetID = targetID.String
	if inst.DueDate, err = scanDay(dueDate); err != nil {
		return nil, err
	}
	if inst.SnoozedUntil, err = scanNullTime(snoozedUntil); err != nil {
		return nil, err
	}
	if inst.ResolvedAt, err = scanNullTime(resolvedAt); err != nil {
		return nil, err
	}
	if inst.ObservedAt, err = parseTime(observedAt); err != nil {
		return nil, err
	}
	if inst.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &inst, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
