package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/roach88/cadence/internal/recurrence"
)

// InstanceKey is the single idempotency anchor of the engine: a pure
// function of rule identity and due date, at calendar-day granularity.
// Every caller - periodic sweep, on-demand re-materialization, retry -
// computes the same key for the same rule/date, so concurrent upserts
// collapse to one row.
//
// The key must never incorporate the wall-clock time of generation.
func InstanceKey(ruleID string, dueDate time.Time) string {
	return ruleID + ":" + recurrence.FormatDay(dueDate)
}

// SplitInstanceKey recovers the rule id and due date from an instance key.
func SplitInstanceKey(key string) (ruleID string, dueDate time.Time, err error) {
	i := strings.LastIndexByte(key, ':')
	if i < 1 || i == len(key)-1 {
		return "", time.Time{}, fmt.Errorf("malformed instance key %q", key)
	}
	due, err := recurrence.ParseDay(key[i+1:])
	if err != nil {
		return "", time.Time{}, fmt.Errorf("malformed instance key %q: %w", key, err)
	}
	return key[:i], due, nil
}
