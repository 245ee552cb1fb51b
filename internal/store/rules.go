package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/cadence/internal/recurrence"
	"github.com/roach88/cadence/internal/rule"
)

const ruleColumns = `id, owner_id, target_id, type, kind,
	fixed_month, fixed_day, fixed_year,
	interval_days, anchor_mode, anchor_date,
	priority, offsets, active, title, notes, created_at`

// CreateRule inserts a new rule. The caller is expected to have validated it.
func (s *Store) CreateRule(ctx context.Context, r *rule.Rule) error {
	offsets, err := marshalOffsets(r.Offsets)
	if err != nil {
		return fmt.Errorf("create rule: %w", err)
	}

	args := ruleWriteArgs(r)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO rules (`+ruleColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, append([]any{r.ID}, append(args, offsets, boolInt(r.Active), r.Title, r.Notes, formatTime(r.CreatedAt))...)...)
	if err != nil {
		return fmt.Errorf("create rule %s: %w", r.ID, err)
	}
	return nil
}

// UpdateRule rewrites every editable field of an existing rule, scoped to
// its owner. Returns false if no such rule exists.
func (s *Store) UpdateRule(ctx context.Context, r *rule.Rule) (bool, error) {
	offsets, err := marshalOffsets(r.Offsets)
	if err != nil {
		return false, fmt.Errorf("update rule: %w", err)
	}

	args := ruleWriteArgs(r)
	ok, err := s.execRowsAffected(ctx, `
		UPDATE rules SET
			owner_id = ?, target_id = ?, type = ?, kind = ?,
			fixed_month = ?, fixed_day = ?, fixed_year = ?,
			interval_days = ?, anchor_mode = ?, anchor_date = ?,
			priority = ?, offsets = ?, active = ?, title = ?, notes = ?
		WHERE id = ? AND owner_id = ?
	`, append(args, offsets, boolInt(r.Active), r.Title, r.Notes, r.ID, r.OwnerID)...)
	if err != nil {
		return false, fmt.Errorf("update rule %s: %w", r.ID, err)
	}
	return ok, nil
}

// ruleWriteArgs returns the shared owner..priority column values for
// insert/update statements, in column order (without id, offsets, active,
// title, notes, created_at).
func ruleWriteArgs(r *rule.Rule) []any {
	var fixedMonth, fixedDay, fixedYear any
	if r.Fixed != nil {
		fixedMonth, fixedDay = r.Fixed.Month, r.Fixed.Day
		if r.Fixed.Year != 0 {
			fixedYear = r.Fixed.Year
		}
	}

	var intervalDays, anchorMode, anchorDate any
	if r.Interval != nil {
		intervalDays = r.Interval.Days
		anchorMode = string(r.Interval.AnchorMode)
		if !r.Interval.AnchorDate.IsZero() {
			anchorDate = recurrence.FormatDay(recurrence.Day(r.Interval.AnchorDate))
		}
	}

	var targetID any
	if r.TargetID != "" {
		targetID = r.TargetID
	}

	return []any{
		r.OwnerID, targetID, string(r.Type), string(r.Kind),
		fixedMonth, fixedDay, fixedYear,
		intervalDays, anchorMode, anchorDate,
		string(r.Priority),
	}
}

// GetRule returns a rule by id, or ErrNotFound.
func (s *Store) GetRule(ctx context.Context, id string) (*rule.Rule, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+ruleColumns+` FROM rules WHERE id = ?
	`, id)
	r, err := scanRule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("rule %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get rule %s: %w", id, err)
	}
	return r, nil
}

// ListActiveRules returns every active rule owned by ownerID, ordered by
// creation time for deterministic batch processing.
func (s *Store) ListActiveRules(ctx context.Context, ownerID string) ([]*rule.Rule, error) {
	return s.queryRules(ctx, `
		SELECT `+ruleColumns+` FROM rules
		WHERE owner_id = ? AND active = 1
		ORDER BY created_at ASC, id ASC
	`, ownerID)
}

// ListRules returns every rule owned by ownerID, active or not.
func (s *Store) ListRules(ctx context.Context, ownerID string) ([]*rule.Rule, error) {
	return s.queryRules(ctx, `
		SELECT `+ruleColumns+` FROM rules
		WHERE owner_id = ?
		ORDER BY created_at ASC, id ASC
	`, ownerID)
}

// ListAnchoredRulesByTarget returns the active interval-bearing rules
// pointing at a target. Used when an anchor-relevant event moves the
// target's anchor date.
func (s *Store) ListAnchoredRulesByTarget(ctx context.Context, targetID string) ([]*rule.Rule, error) {
	return s.queryRules(ctx, `
		SELECT `+ruleColumns+` FROM rules
		WHERE target_id = ? AND active = 1 AND kind IN (?, ?)
		ORDER BY created_at ASC, id ASC
	`, targetID, string(rule.KindInterval), string(rule.KindHybrid))
}

// SetRuleActive flips the soft-delete flag. Returns false if the rule does
// not exist for that owner.
func (s *Store) SetRuleActive(ctx context.Context, id, ownerID string, active bool) (bool, error) {
	ok, err := s.execRowsAffected(ctx, `
		UPDATE rules SET active = ? WHERE id = ? AND owner_id = ?
	`, boolInt(active), id, ownerID)
	if err != nil {
		return false, fmt.Errorf("set rule %s active: %w", id, err)
	}
	return ok, nil
}

// DeleteRule hard-deletes a rule; the foreign key cascade removes all of its
// instances. Returns false if the rule does not exist for that owner.
func (s *Store) DeleteRule(ctx context.Context, id, ownerID string) (bool, error) {
	ok, err := s.execRowsAffected(ctx, `
		DELETE FROM rules WHERE id = ? AND owner_id = ?
	`, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete rule %s: %w", id, err)
	}
	return ok, nil
}

func (s *Store) queryRules(ctx context.Context, query string, args ...any) ([]*rule.Rule, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}
	defer rows.Close()

	rules := []*rule.Rule{}
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		rules = append(rules, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rules: %w", err)
	}
	return rules, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for the shared scan path.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(row rowScanner) (*rule.Rule, error) {
	var (
		r          rule.Rule
		targetID   sql.NullString
		fixedMonth sql.NullInt64
		fixedDay   sql.NullInt64
		fixedYear  sql.NullInt64
		ivDays     sql.NullInt64
		anchorMode sql.NullString
		anchorDate sql.NullString
		offsets    string
		active     int
		createdAt  string
	)

	err := row.Scan(
		&r.ID, &r.OwnerID, &targetID, &r.Type, &r.Kind,
		&fixedMonth, &fixedDay, &fixedYear,
		&ivDays, &anchorMode, &anchorDate,
		&r.Priority, &offsets, &active, &r.Title, &r.Notes, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	r.TargetID = targetID.String
	r.Active = active != 0

	if fixedMonth.Valid {
		r.Fixed = &rule.FixedDate{
			Month: int(fixedMonth.Int64),
			Day:   int(fixedDay.Int64),
			Year:  int(fixedYear.Int64),
		}
	}

	if ivDays.Valid {
		iv := &rule.IntervalSpec{
			Days:       int(ivDays.Int64),
			AnchorMode: rule.AnchorMode(anchorMode.String),
		}
		if anchorDate.Valid && anchorDate.String != "" {
			d, err := scanDay(anchorDate.String)
			if err != nil {
				return nil, err
			}
			iv.AnchorDate = d
		}
		r.Interval = iv
	}

	if err := json.Unmarshal([]byte(offsets), &r.Offsets); err != nil {
		return nil, fmt.Errorf("decode offsets %q: %w", offsets, err)
	}

	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}

	return &r, nil
}

func marshalOffsets(offsets []int) (string, error) {
	if len(offsets) == 0 {
		offsets = []int{0}
	}
	b, err := json.Marshal(offsets)
	if err != nil {
		return "", fmt.Errorf("encode offsets: %w", err)
	}
	return string(b), nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
