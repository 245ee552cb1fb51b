package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstanceKey_Deterministic(t *testing.T) {
	d := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "r1:2026-03-05", InstanceKey("r1", d))

	// Same rule/date always collapses to the same key, regardless of the
	// time-of-day carried on the value.
	noon := time.Date(2026, 3, 5, 12, 30, 0, 0, time.UTC)
	assert.Equal(t, InstanceKey("r1", d), InstanceKey("r1", noon))

	assert.NotEqual(t, InstanceKey("r1", d), InstanceKey("r2", d))
	assert.NotEqual(t, InstanceKey("r1", d), InstanceKey("r1", d.AddDate(0, 0, 1)))
}

func TestSplitInstanceKey(t *testing.T) {
	ruleID, dueDate, err := SplitInstanceKey("r1:2026-03-05")
	require.NoError(t, err)
	assert.Equal(t, "r1", ruleID)
	assert.Equal(t, time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), dueDate)
}

func TestSplitInstanceKey_RuleIDMayContainColons(t *testing.T) {
	ruleID, _, err := SplitInstanceKey("ns:r1:2026-03-05")
	require.NoError(t, err)
	assert.Equal(t, "ns:r1", ruleID)
}

func TestSplitInstanceKey_Malformed(t *testing.T) {
	for _, key := range []string{"", "r1", "r1:", ":2026-03-05", "r1:not-a-date"} {
		_, _, err := SplitInstanceKey(key)
		assert.Error(t, err, "key %q", key)
	}
}
