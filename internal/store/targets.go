package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/cadence/internal/rule"
)

// UpsertTarget inserts or replaces a target's display data. Last-activity is
// preserved on conflict unless the incoming record carries one.
func (s *Store) UpsertTarget(ctx context.Context, t *rule.Target) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO targets (id, owner_id, name, last_activity_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			last_activity_at = COALESCE(excluded.last_activity_at, targets.last_activity_at)
	`, t.ID, t.OwnerID, t.Name, nullTime(t.LastActivityAt))
	if err != nil {
		return fmt.Errorf("upsert target %s: %w", t.ID, err)
	}
	return nil
}

// GetTarget returns a target by id, or ErrNotFound. A dangling rule
// reference surfaces here and degrades to a per-rule error in the
// materializer.
func (s *Store) GetTarget(ctx context.Context, id string) (*rule.Target, error) {
	var (
		t            rule.Target
		lastActivity sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, last_activity_at FROM targets WHERE id = ?
	`, id).Scan(&t.ID, &t.OwnerID, &t.Name, &lastActivity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("target %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get target %s: %w", id, err)
	}

	if t.LastActivityAt, err = scanNullTime(lastActivity); err != nil {
		return nil, fmt.Errorf("get target %s: %w", id, err)
	}
	return &t, nil
}

// TouchTarget records an anchor-relevant event (e.g. an interaction logged)
// by moving the target's last-activity timestamp forward. Returns false if
// the target does not exist.
//
// The MAX guard keeps a late-arriving touch from moving the anchor
// backwards.
func (s *Store) TouchTarget(ctx context.Context, id string, at time.Time) (bool, error) {
	ok, err := s.execRowsAffected(ctx, `
		UPDATE targets SET last_activity_at = MAX(COALESCE(last_activity_at, ''), ?)
		WHERE id = ?
	`, formatTime(at), id)
	if err != nil {
		return false, fmt.Errorf("touch target %s: %w", id, err)
	}
	return ok, nil
}
