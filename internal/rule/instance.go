package rule

import "time"

// Status is the lifecycle state of a materialized instance.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusSnoozed   Status = "snoozed"
	StatusSkipped   Status = "skipped"
)

// Valid reports whether s is a known instance status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusSnoozed, StatusSkipped:
		return true
	}
	return false
}

// Terminal reports whether s ends the instance's lifecycle. The rule
// materializes a fresh instance for the next cycle rather than resurrecting
// a terminal one.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusSkipped
}

// Statuses lists every known instance status.
func Statuses() []Status {
	return []Status{StatusPending, StatusCompleted, StatusSnoozed, StatusSkipped}
}

// Instance is a single materialized occurrence of a rule on a specific due
// date. Type, Priority, Title, and TargetName are denormalized from the rule
// and target at materialization time so the today-queue query needs no joins.
type Instance struct {
	// Key is the deterministic identity "ruleID:YYYY-MM-DD". It is the
	// idempotency anchor: every retry or concurrent materialization of the
	// same rule/date collapses onto this key.
	Key        string
	RuleID     string
	OwnerID    string
	TargetID   string
	DueDate    time.Time // UTC midnight, day granularity
	Status     Status
	Type       Type
	Priority   Priority
	Title      string
	TargetName string
	// SnoozedUntil suppresses the instance from the queue while in the
	// future. An expired snooze resurfaces without an explicit unsnooze.
	SnoozedUntil *time.Time
	// ResolvedAt is set when the instance reaches a terminal status.
	ResolvedAt *time.Time
	// ObservedAt is bookkeeping: the last time a materialization pass saw
	// this instance in-window. It is the only field re-materialization is
	// allowed to overwrite.
	ObservedAt time.Time
	CreatedAt  time.Time
}

// Target is the minimal anchor-data record the engine reads: a display name
// and the last-activity timestamp interval rules anchor on.
type Target struct {
	ID             string
	OwnerID        string
	Name           string
	LastActivityAt *time.Time
}
