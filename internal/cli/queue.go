package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/cadence/internal/engine"
	"github.com/roach88/cadence/internal/recurrence"
)

// NewQueueCommand prints the owner's ranked, capped list of due reminders.
func NewQueueCommand(opts *RootOptions) *cobra.Command {
	var (
		ownerID   string
		todayOnly bool
	)

	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Show the prioritized reminders due today",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, closeStore, err := openEngine(opts)
			if err != nil {
				return err
			}
			defer closeStore()

			tier, err := resolveTier(opts)
			if err != nil {
				return err
			}

			res, err := eng.GetQueue(cmd.Context(), ownerID, tier, engine.QueueOptions{
				IncludeOverdue: !todayOnly,
			})
			if err != nil {
				return WrapExitError(ExitFailure, "build queue", err)
			}

			out := formatter(cmd, opts)
			return out.Success(QueueData(res), renderQueueText(res))
		},
	}

	cmd.Flags().StringVar(&ownerID, "owner", "", "owner id")
	cmd.Flags().BoolVar(&todayOnly, "today-only", false, "exclude overdue reminders")
	cmd.MarkFlagRequired("owner")
	return cmd
}

// QueueItemData is the JSON shape of one queue entry.
type QueueItemData struct {
	Key        string  `json:"key"`
	DueDate    string  `json:"due_date"`
	Type       string  `json:"type"`
	Priority   string  `json:"priority"`
	Title      string  `json:"title"`
	TargetName string  `json:"target_name,omitempty"`
	Score      float64 `json:"score"`
}

// QueueResultData is the JSON shape of a queue response.
type QueueResultData struct {
	Items  []QueueItemData `json:"items"`
	Total  int             `json:"total"`
	Capped bool            `json:"capped"`
}

// QueueData converts an engine queue result to its wire shape. Shared with
// the scenario harness, whose golden files snapshot exactly this form.
func QueueData(res *engine.QueueResult) QueueResultData {
	items := make([]QueueItemData, 0, len(res.Items))
	for _, item := range res.Items {
		items = append(items, QueueItemData{
			Key:        item.Instance.Key,
			DueDate:    recurrence.FormatDay(item.Instance.DueDate),
			Type:       string(item.Instance.Type),
			Priority:   string(item.Instance.Priority),
			Title:      item.Instance.Title,
			TargetName: item.Instance.TargetName,
			Score:      item.Score,
		})
	}
	return QueueResultData{Items: items, Total: res.Total, Capped: res.Capped}
}

func renderQueueText(res *engine.QueueResult) string {
	if res.Total == 0 {
		return "queue empty"
	}

	var b strings.Builder
	for i, item := range res.Items {
		name := item.Instance.Title
		if name == "" {
			name = item.Instance.TargetName
		}
		fmt.Fprintf(&b, "%2d. [%6.1f] %s  %-11s %-6s %s\n",
			i+1, item.Score,
			recurrence.FormatDay(item.Instance.DueDate),
			item.Instance.Type, item.Instance.Priority, name)
	}
	if res.Capped {
		fmt.Fprintf(&b, "... %d more", res.Total-len(res.Items))
	}
	return strings.TrimRight(b.String(), "\n")
}
