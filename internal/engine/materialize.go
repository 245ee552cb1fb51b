package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/cadence/internal/recurrence"
	"github.com/roach88/cadence/internal/rule"
)

// RuleError records one rule's failure inside a batch. Partial success is
// the expected common case: one dangling target reference must not fail a
// whole owner's nightly run.
type RuleError struct {
	RuleID string `json:"rule_id"`
	Error  string `json:"error"`
}

// MaterializeResult is the structured outcome of a materialization call.
// Per-rule failures are collected here, not thrown.
type MaterializeResult struct {
	RulesProcessed   int         `json:"rules_processed"`
	InstancesCreated int         `json:"instances_created"`
	InstancesUpdated int         `json:"instances_updated"`
	Errors           []RuleError `json:"errors,omitempty"`
}

// MaterializeForOwner materializes every active rule owned by ownerID into
// the tier's forward window. Triggered by the periodic sweep.
func (e *Engine) MaterializeForOwner(ctx context.Context, ownerID string, tier Tier) (*MaterializeResult, error) {
	rules, err := e.store.ListActiveRules(ctx, ownerID)
	if err != nil {
		return nil, storageError("list active rules", err)
	}
	return e.materialize(ctx, rules, tier)
}

// MaterializeForRule materializes a single rule, used right after create or
// update. A missing rule is returned directly as a not-found error (there is
// no batch to degrade into); an inactive rule processes zero rules.
func (e *Engine) MaterializeForRule(ctx context.Context, ruleID string, tier Tier) (*MaterializeResult, error) {
	r, err := e.store.GetRule(ctx, ruleID)
	if err != nil {
		if isStoreNotFound(err) {
			return nil, notFoundError(ruleID, "rule not found", err)
		}
		return nil, storageError("get rule", err)
	}
	if !r.Active {
		return &MaterializeResult{}, nil
	}
	return e.materialize(ctx, []*rule.Rule{r}, tier)
}

// RematerializeForTarget re-runs only the interval-anchored rules pointing
// at one target, after an anchor-relevant event (e.g. a new interaction
// logged) moves the target's anchor date.
func (e *Engine) RematerializeForTarget(ctx context.Context, targetID string, tier Tier) (*MaterializeResult, error) {
	rules, err := e.store.ListAnchoredRulesByTarget(ctx, targetID)
	if err != nil {
		return nil, storageError("list rules for target", err)
	}
	return e.materialize(ctx, rules, tier)
}

// PruneStale deletes an owner's terminal instances older than the soft
// retention and any instance older than the hard retention. Returns the
// deleted count.
func (e *Engine) PruneStale(ctx context.Context, ownerID string) (int64, error) {
	n, err := e.store.PruneStale(ctx, ownerID, e.clock.Now(), SoftRetentionDays, HardRetentionDays)
	if err != nil {
		return 0, storageError("prune stale instances", err)
	}
	slog.Info("pruned stale instances", "owner", ownerID, "deleted", n)
	return n, nil
}

// Retention policy for pruneStale: terminal instances are kept softDays
// after resolution; the hard bound removes anything older regardless of
// status so a rule deleted or mutated long ago cannot leave unbounded
// garbage.
const (
	SoftRetentionDays = 30
	HardRetentionDays = 90
)

// materialize runs the shared per-rule pipeline: resolve anchor data, expand
// recurrence dates in the window, stage keyed upserts, submit them as one
// batch, and clear each rule's stranded future pending instances.
//
// Rule calculation is side-effect-free until the batch write; the only
// suspension points are the store reads and the single batched upsert.
// A half-completed batch leaves a valid state the next sweep fills in.
func (e *Engine) materialize(ctx context.Context, rules []*rule.Rule, tier Tier) (*MaterializeResult, error) {
	now := e.clock.Now()
	today := recurrence.Day(now)
	window := recurrence.WindowFrom(today, tier.WindowDays)

	res := &MaterializeResult{}
	var batch []rule.Instance
	keysByRule := make(map[string][]string)

	for _, r := range rules {
		anchor, targetName, err := e.resolveAnchor(ctx, r)
		if err != nil {
			res.Errors = append(res.Errors, RuleError{RuleID: r.ID, Error: err.Error()})
			continue
		}

		dates, err := recurrence.Dates(r, anchor, window)
		if err != nil {
			res.Errors = append(res.Errors, RuleError{RuleID: r.ID, Error: err.Error()})
			continue
		}

		keys := make([]string, 0, len(dates))
		for _, due := range dates {
			key := InstanceKey(r.ID, due)
			batch = append(batch, rule.Instance{
				Key:        key,
				RuleID:     r.ID,
				OwnerID:    r.OwnerID,
				TargetID:   r.TargetID,
				DueDate:    due,
				Status:     rule.StatusPending,
				Type:       r.Type,
				Priority:   r.Priority,
				Title:      rule.NormalizeText(r.Title),
				TargetName: targetName,
				ObservedAt: now,
				CreatedAt:  now,
			})
			keys = append(keys, key)
		}
		// Recorded even when empty: a rule whose fresh date set has no
		// in-window dates still needs its stranded future pendings cleared.
		keysByRule[r.ID] = keys
		res.RulesProcessed++
	}

	created, updated, failed, err := e.store.UpsertInstances(ctx, batch)
	if err != nil {
		return nil, storageError("batch upsert", err)
	}
	res.InstancesCreated = created
	res.InstancesUpdated = updated
	for ruleID, ruleErr := range failed {
		res.Errors = append(res.Errors, RuleError{RuleID: ruleID, Error: ruleErr.Error()})
		delete(keysByRule, ruleID)
	}

	// A rule edit must not strand future pending instances the new payload
	// would never produce. Only rules whose upserts all landed are pruned.
	for ruleID, keys := range keysByRule {
		if _, err := e.store.DeleteStalePending(ctx, ruleID, today, keys); err != nil {
			res.Errors = append(res.Errors, RuleError{RuleID: ruleID, Error: err.Error()})
		}
	}

	slog.Info("materialization run",
		"rules", res.RulesProcessed,
		"created", res.InstancesCreated,
		"updated", res.InstancesUpdated,
		"errors", len(res.Errors),
		"window_days", tier.WindowDays,
	)
	return res, nil
}

// resolveAnchor loads the anchor date and display name a rule needs. A
// dangling target reference is a per-rule error, never a batch abort.
func (e *Engine) resolveAnchor(ctx context.Context, r *rule.Rule) (anchor time.Time, targetName string, err error) {
	var target *rule.Target
	if r.TargetID != "" {
		target, err = e.store.GetTarget(ctx, r.TargetID)
		if err != nil {
			if isStoreNotFound(err) {
				return time.Time{}, "", fmt.Errorf("target %s not found", r.TargetID)
			}
			return time.Time{}, "", err
		}
		targetName = rule.NormalizeText(target.Name)
	}

	if r.Interval == nil {
		return time.Time{}, targetName, nil
	}

	switch r.Interval.AnchorMode {
	case rule.AnchorLastActivity:
		if target != nil && target.LastActivityAt != nil {
			return *target.LastActivityAt, targetName, nil
		}
		// No activity yet: the rule's own creation date stands in.
		return r.CreatedAt, targetName, nil
	case rule.AnchorRuleCreation:
		return r.CreatedAt, targetName, nil
	case rule.AnchorExplicitDate:
		if r.Interval.AnchorDate.IsZero() {
			return time.Time{}, "", validationError(r.ID, "anchor mode explicit_date without anchor date")
		}
		return r.Interval.AnchorDate, targetName, nil
	default:
		return time.Time{}, "", validationError(r.ID, fmt.Sprintf("unknown anchor mode %q", r.Interval.AnchorMode))
	}
}
