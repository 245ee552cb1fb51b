package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cadence/internal/engine"
	"github.com/roach88/cadence/internal/rule"
)

func TestOutputFormatter_SuccessText(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &buf}

	require.NoError(t, f.Success(map[string]int{"n": 3}, "3 reminders due"))
	assert.Equal(t, "3 reminders due\n", buf.String())
}

func TestOutputFormatter_SuccessJSONEnvelope(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}

	require.NoError(t, f.Success(map[string]int{"n": 3}, "ignored in json mode"))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Error)
	assert.NotContains(t, buf.String(), "ignored")
}

func TestOutputFormatter_Failure(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}

	require.NoError(t, f.Failure("NOT_ACTIONABLE", "already completed"))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_ACTIONABLE", resp.Error.Code)

	buf.Reset()
	f.Format = "text"
	require.NoError(t, f.Failure("NOT_ACTIONABLE", "already completed"))
	assert.Equal(t, "error: already completed\n", buf.String())
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad path")))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))

	wrapped := fmt.Errorf("outer: %w", WrapExitError(ExitCommandError, "inner", errors.New("cause")))
	assert.Equal(t, ExitCommandError, GetExitCode(wrapped))
}

func queueResultFixture() *engine.QueueResult {
	return &engine.QueueResult{
		Items: []engine.QueueItem{
			{
				Instance: rule.Instance{
					Key:        "r1:2026-03-01",
					DueDate:    time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
					Type:       rule.TypeBirthday,
					Priority:   rule.PriorityHigh,
					Title:      "Ana's birthday",
					TargetName: "Ana",
				},
				Score: 120,
			},
			{
				Instance: rule.Instance{
					Key:      "r2:2026-02-25",
					DueDate:  time.Date(2026, 2, 25, 0, 0, 0, 0, time.UTC),
					Type:     rule.TypeFollowUp,
					Priority: rule.PriorityMedium,
					Title:    "Catch up",
				},
				Score: 68,
			},
		},
		Total:  5,
		Capped: true,
	}
}

func TestQueueData(t *testing.T) {
	got := QueueData(queueResultFixture())

	assert.Equal(t, 5, got.Total)
	assert.True(t, got.Capped)
	require.Len(t, got.Items, 2)
	assert.Equal(t, QueueItemData{
		Key:        "r1:2026-03-01",
		DueDate:    "2026-03-01",
		Type:       "birthday",
		Priority:   "high",
		Title:      "Ana's birthday",
		TargetName: "Ana",
		Score:      120,
	}, got.Items[0])

	b, err := json.Marshal(got.Items[1])
	require.NoError(t, err)
	assert.NotContains(t, string(b), "target_name", "empty target name is omitted")
}

func TestRenderQueueText(t *testing.T) {
	text := renderQueueText(queueResultFixture())
	assert.Contains(t, text, " 1. [ 120.0] 2026-03-01")
	assert.Contains(t, text, "Ana's birthday")
	assert.Contains(t, text, "... 3 more")

	assert.Equal(t, "queue empty", renderQueueText(&engine.QueueResult{}))
}
