package engine

import (
	"fmt"
	"time"

	"github.com/roach88/cadence/internal/recurrence"
	"github.com/roach88/cadence/internal/rule"
)

// OverduePenaltyPerDay is added to an instance's score for every whole day
// it is past due, so neglected items climb the queue over time.
const OverduePenaltyPerDay = 2.0

// typeBaseScore maps each reminder type to its base score, reflecting the
// social cost of missing it: a birthday outranks an anniversary outranks a
// follow-up outranks a custom note.
//
// The switch is exhaustive over the closed rule.Type set; an unknown type is
// an error, not a silently wrong default score.
func typeBaseScore(t rule.Type) (float64, error) {
	switch t {
	case rule.TypeBirthday:
		return 40, nil
	case rule.TypeAnniversary:
		return 35, nil
	case rule.TypeFollowUp:
		return 30, nil
	case rule.TypeCustom:
		return 25, nil
	default:
		return 0, fmt.Errorf("no base score for type %q", t)
	}
}

// priorityMultiplier maps priority to its fixed multiplier: high=3,
// medium=2, low=1.
func priorityMultiplier(p rule.Priority) (float64, error) {
	switch p {
	case rule.PriorityHigh:
		return 3, nil
	case rule.PriorityMedium:
		return 2, nil
	case rule.PriorityLow:
		return 1, nil
	default:
		return 0, fmt.Errorf("no multiplier for priority %q", p)
	}
}

// Score computes the deterministic queue score of an instance relative to
// today:
//
//	score = typeBaseScore(type) * priorityMultiplier(priority)
//	      + OverduePenaltyPerDay * daysOverdue
//
// daysOverdue is max(0, today - dueDate) in whole days. Ties in score break
// by ascending due date - among equally urgent items, the one due longest
// resolves first.
func Score(inst rule.Instance, today time.Time) (float64, error) {
	base, err := typeBaseScore(inst.Type)
	if err != nil {
		return 0, fmt.Errorf("score instance %s: %w", inst.Key, err)
	}
	mult, err := priorityMultiplier(inst.Priority)
	if err != nil {
		return 0, fmt.Errorf("score instance %s: %w", inst.Key, err)
	}

	overdue := recurrence.DaysBetween(inst.DueDate, today)
	if overdue < 0 {
		overdue = 0
	}

	return base*mult + OverduePenaltyPerDay*float64(overdue), nil
}
