package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/cadence/internal/rule"
)

// NewTargetCommand manages the target registry that interval rules anchor
// on.
func NewTargetCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "target",
		Short: "Manage reminder targets",
	}
	cmd.AddCommand(newTargetSetCommand(opts))
	cmd.AddCommand(newTargetTouchCommand(opts))
	return cmd
}

func newTargetSetCommand(opts *RootOptions) *cobra.Command {
	var (
		targetID     string
		ownerID      string
		name         string
		lastActivity string
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Create or update a target",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, closeStore, err := openEngine(opts)
			if err != nil {
				return err
			}
			defer closeStore()

			t := &rule.Target{
				ID:      targetID,
				OwnerID: ownerID,
				Name:    rule.NormalizeText(name),
			}
			if lastActivity != "" {
				at, err := time.Parse(time.RFC3339, lastActivity)
				if err != nil {
					return WrapExitError(ExitCommandError, "parse --last-activity", err)
				}
				t.LastActivityAt = &at
			}

			if err := eng.Store().UpsertTarget(cmd.Context(), t); err != nil {
				return WrapExitError(ExitFailure, "upsert target", err)
			}

			out := formatter(cmd, opts)
			return out.Success(
				map[string]any{"target_id": t.ID},
				fmt.Sprintf("target %s set", t.ID),
			)
		},
	}

	cmd.Flags().StringVar(&targetID, "id", "", "target id")
	cmd.Flags().StringVar(&ownerID, "owner", "", "owner id")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&lastActivity, "last-activity", "", "last activity time (RFC 3339)")
	cmd.MarkFlagRequired("id")
	cmd.MarkFlagRequired("owner")
	return cmd
}

// newTargetTouchCommand records an anchor-relevant event on a target and,
// by default, re-materializes the interval rules counting from it.
func newTargetTouchCommand(opts *RootOptions) *cobra.Command {
	var (
		targetID      string
		rematerialize bool
	)

	cmd := &cobra.Command{
		Use:   "touch",
		Short: "Record activity on a target",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, closeStore, err := openEngine(opts)
			if err != nil {
				return err
			}
			defer closeStore()

			ctx := cmd.Context()
			ok, err := eng.Store().TouchTarget(ctx, targetID, eng.Clock().Now())
			if err != nil {
				return WrapExitError(ExitFailure, "touch target", err)
			}
			if !ok {
				return NewExitError(ExitFailure, fmt.Sprintf("target %s not found", targetID))
			}

			if rematerialize {
				tier, err := resolveTier(opts)
				if err != nil {
					return err
				}
				if _, err := eng.RematerializeForTarget(ctx, targetID, tier); err != nil {
					return WrapExitError(ExitFailure, "rematerialize target", err)
				}
			}

			out := formatter(cmd, opts)
			return out.Success(
				map[string]any{"target_id": targetID, "rematerialized": rematerialize},
				fmt.Sprintf("target %s touched", targetID),
			)
		},
	}

	cmd.Flags().StringVar(&targetID, "id", "", "target id")
	cmd.Flags().BoolVar(&rematerialize, "rematerialize", true, "re-materialize anchored rules")
	cmd.MarkFlagRequired("id")
	return cmd
}
