package engine

import (
	"context"
	"log/slog"
	"sort"

	"github.com/roach88/cadence/internal/recurrence"
	"github.com/roach88/cadence/internal/rule"
)

// QueueOptions narrow the queue selection.
type QueueOptions struct {
	// IncludeOverdue keeps instances due before today in the queue.
	// When false, only instances due exactly today are returned.
	IncludeOverdue bool
}

// QueueItem is one ranked entry of the today queue.
type QueueItem struct {
	Instance rule.Instance
	Score    float64
}

// QueueResult is the ranked, capped action list for one owner.
type QueueResult struct {
	Items []QueueItem
	// Total is the uncapped number of matching instances, so callers can
	// render "N more" when Capped is set.
	Total  int
	Capped bool
}

// GetQueue builds the owner's prioritized action list: instances due
// today-or-earlier (per opts), not suppressed by an active snooze, scored,
// sorted descending, and cut to the tier's queue cap.
func (e *Engine) GetQueue(ctx context.Context, ownerID string, tier Tier, opts QueueOptions) (*QueueResult, error) {
	now := e.clock.Now()
	today := recurrence.Day(now)

	due, err := e.store.ListDue(ctx, ownerID, today, now, !opts.IncludeOverdue)
	if err != nil {
		return nil, storageError("list due instances", err)
	}

	items := make([]QueueItem, 0, len(due))
	for _, inst := range due {
		score, err := Score(inst, today)
		if err != nil {
			// A score failure means a corrupt denormalized type or
			// priority slipped past validation; surface it.
			return nil, validationError(inst.Key, err.Error())
		}
		items = append(items, QueueItem{Instance: inst, Score: score})
	}

	// Descending score; ascending due date on ties (older-due-first); key
	// as the final tiebreak for fully deterministic output.
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		if !items[i].Instance.DueDate.Equal(items[j].Instance.DueDate) {
			return items[i].Instance.DueDate.Before(items[j].Instance.DueDate)
		}
		return items[i].Instance.Key < items[j].Instance.Key
	})

	total := len(items)
	capped := total > tier.QueueCap
	if capped {
		items = items[:tier.QueueCap]
	}

	slog.Debug("queue built",
		"owner", ownerID,
		"total", total,
		"returned", len(items),
		"capped", capped,
	)
	return &QueueResult{Items: items, Total: total, Capped: capped}, nil
}
