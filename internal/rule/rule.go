package rule

import (
	"fmt"
	"time"
)

// Type is the user-facing reminder category. It drives the queue scorer's
// base score, so the set is closed: adding a type means touching the
// exhaustive switches that consume it.
type Type string

const (
	TypeBirthday    Type = "birthday"
	TypeAnniversary Type = "anniversary"
	TypeFollowUp    Type = "follow_up"
	TypeCustom      Type = "custom"
)

// Valid reports whether t is a known reminder type.
func (t Type) Valid() bool {
	switch t {
	case TypeBirthday, TypeAnniversary, TypeFollowUp, TypeCustom:
		return true
	}
	return false
}

// Kind is the recurrence mechanism of a rule.
type Kind string

const (
	// KindFixedDate recurs on a fixed (month, day) every year.
	KindFixedDate Kind = "fixed_date"
	// KindInterval recurs every N days counted from an anchor date.
	KindInterval Kind = "interval"
	// KindHybrid carries both payloads and emits the union of their dates.
	KindHybrid Kind = "hybrid"
)

// Valid reports whether k is a known recurrence kind.
func (k Kind) Valid() bool {
	switch k {
	case KindFixedDate, KindInterval, KindHybrid:
		return true
	}
	return false
}

// Priority is the user-assigned weight of a rule. The queue scorer maps it
// to a fixed multiplier (high=3, medium=2, low=1).
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// AnchorMode selects the reference date an interval rule counts forward from.
type AnchorMode string

const (
	// AnchorLastActivity anchors on the target's most recent activity,
	// falling back to the rule's creation date when none exists yet.
	AnchorLastActivity AnchorMode = "last_activity"
	// AnchorRuleCreation anchors on the rule's creation date.
	AnchorRuleCreation AnchorMode = "rule_creation"
	// AnchorExplicitDate anchors on a date stored with the rule.
	AnchorExplicitDate AnchorMode = "explicit_date"
)

// Valid reports whether m is a known anchor mode.
func (m AnchorMode) Valid() bool {
	switch m {
	case AnchorLastActivity, AnchorRuleCreation, AnchorExplicitDate:
		return true
	}
	return false
}

// MaxNotifyOffsetDays bounds how far ahead of an event a notify-offset may
// reach.
const MaxNotifyOffsetDays = 30

// FixedDate is the annual-event payload of a fixed_date or hybrid rule.
// Year is optional and only used for display (e.g. age on a birthday).
type FixedDate struct {
	Month int
	Day   int
	Year  int
}

// IntervalSpec is the every-N-days payload of an interval or hybrid rule.
type IntervalSpec struct {
	Days       int
	AnchorMode AnchorMode
	// AnchorDate is required when AnchorMode is AnchorExplicitDate and
	// ignored otherwise.
	AnchorDate time.Time
}

// Rule is a user-owned recurrence definition. Instances are materialized
// from it; the rule itself never appears on the hot queue path.
type Rule struct {
	ID       string
	OwnerID  string
	TargetID string // optional; empty for target-less custom reminders
	Type     Type
	Kind     Kind
	Fixed    *FixedDate
	Interval *IntervalSpec
	Priority Priority
	// Offsets are notify-offsets in days before the event date.
	// [0, 7] means day-of plus one week prior.
	Offsets   []int
	Active    bool
	Title     string
	Notes     string
	CreatedAt time.Time
}

// daysInMonth returns the maximum legal day for a month. February reports
// 29: Feb 29 rules are legal and clamped to Feb 28 in non-leap years by the
// recurrence calculator.
func daysInMonth(month int) int {
	switch month {
	case 1, 3, 5, 7, 8, 10, 12:
		return 31
	case 4, 6, 9, 11:
		return 30
	case 2:
		return 29
	default:
		return 0
	}
}

// Validate checks every invariant a rule must satisfy before it is stored.
// It is the single gate for malformed payloads; the recurrence calculator
// assumes a validated rule.
func (r *Rule) Validate() error {
	if r.OwnerID == "" {
		return fmt.Errorf("rule: owner id is required")
	}
	if !r.Type.Valid() {
		return fmt.Errorf("rule: unknown type %q", r.Type)
	}
	if !r.Kind.Valid() {
		return fmt.Errorf("rule: unknown kind %q", r.Kind)
	}
	if !r.Priority.Valid() {
		return fmt.Errorf("rule: unknown priority %q", r.Priority)
	}

	switch r.Kind {
	case KindFixedDate:
		if r.Fixed == nil {
			return fmt.Errorf("rule: kind %s requires a fixed-date payload", r.Kind)
		}
	case KindInterval:
		if r.Interval == nil {
			return fmt.Errorf("rule: kind %s requires an interval payload", r.Kind)
		}
	case KindHybrid:
		if r.Fixed == nil {
			return fmt.Errorf("rule: kind %s requires a fixed-date payload", r.Kind)
		}
		if r.Interval == nil {
			return fmt.Errorf("rule: kind %s requires an interval payload", r.Kind)
		}
	}

	if r.Fixed != nil {
		if r.Fixed.Month < 1 || r.Fixed.Month > 12 {
			return fmt.Errorf("rule: month %d out of range [1,12]", r.Fixed.Month)
		}
		if max := daysInMonth(r.Fixed.Month); r.Fixed.Day < 1 || r.Fixed.Day > max {
			return fmt.Errorf("rule: day %d invalid for month %d", r.Fixed.Day, r.Fixed.Month)
		}
	}

	if r.Interval != nil {
		if r.Interval.Days < 1 {
			return fmt.Errorf("rule: interval days must be >= 1, got %d", r.Interval.Days)
		}
		if !r.Interval.AnchorMode.Valid() {
			return fmt.Errorf("rule: unknown anchor mode %q", r.Interval.AnchorMode)
		}
		if r.Interval.AnchorMode == AnchorExplicitDate && r.Interval.AnchorDate.IsZero() {
			return fmt.Errorf("rule: anchor mode %s requires an anchor date", AnchorExplicitDate)
		}
	}

	for _, o := range r.Offsets {
		if o < 0 {
			return fmt.Errorf("rule: notify-offset %d is negative", o)
		}
		if o > MaxNotifyOffsetDays {
			return fmt.Errorf("rule: notify-offset %d exceeds %d days", o, MaxNotifyOffsetDays)
		}
	}

	return nil
}

// Anchored reports whether the rule's materialized dates depend on a
// target's activity anchor. Used to pick which rules to re-run when a
// target's anchor moves.
func (r *Rule) Anchored() bool {
	return r.Interval != nil && r.Interval.AnchorMode == AnchorLastActivity
}
