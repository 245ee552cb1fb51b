package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/cadence/internal/engine"
	"github.com/roach88/cadence/internal/rule"
)

// Instance action commands. Each maps to one guarded state-machine
// transition; a guard miss (already done, already skipped) is rendered as
// "not actionable" with a failure exit code rather than masquerading as
// success.

// NewDoneCommand completes an instance. With --touch, the target's
// last-activity anchor is moved to now and its anchored rules are
// re-materialized, so the next follow-up cycle counts from this completion.
func NewDoneCommand(opts *RootOptions) *cobra.Command {
	var (
		ownerID string
		touch   bool
	)

	cmd := &cobra.Command{
		Use:   "done <instance-key>",
		Short: "Complete a reminder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, closeStore, err := openEngine(opts)
			if err != nil {
				return err
			}
			defer closeStore()

			ctx := cmd.Context()
			inst, err := eng.Complete(ctx, args[0], ownerID)
			if err != nil {
				return actionError(cmd, opts, err)
			}

			if touch && inst.TargetID != "" {
				tier, err := resolveTier(opts)
				if err != nil {
					return err
				}
				if _, err := eng.Store().TouchTarget(ctx, inst.TargetID, eng.Clock().Now()); err != nil {
					return WrapExitError(ExitFailure, "touch target", err)
				}
				if _, err := eng.RematerializeForTarget(ctx, inst.TargetID, tier); err != nil {
					return WrapExitError(ExitFailure, "rematerialize target", err)
				}
			}

			return actionSuccess(cmd, opts, inst, "completed")
		},
	}

	cmd.Flags().StringVar(&ownerID, "owner", "", "owner id")
	cmd.Flags().BoolVar(&touch, "touch", false, "record activity on the target and re-materialize its rules")
	cmd.MarkFlagRequired("owner")
	return cmd
}

// NewSnoozeCommand suppresses a pending instance until a point in time.
func NewSnoozeCommand(opts *RootOptions) *cobra.Command {
	var (
		ownerID  string
		until    string
		duration time.Duration
	)

	cmd := &cobra.Command{
		Use:   "snooze <instance-key>",
		Short: "Snooze a reminder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, closeStore, err := openEngine(opts)
			if err != nil {
				return err
			}
			defer closeStore()

			var at time.Time
			switch {
			case until != "":
				at, err = time.Parse(time.RFC3339, until)
				if err != nil {
					return WrapExitError(ExitCommandError, "parse --until", err)
				}
			case duration > 0:
				at = eng.Clock().Now().Add(duration)
			default:
				return NewExitError(ExitCommandError, "one of --until or --for is required")
			}

			inst, err := eng.Snooze(cmd.Context(), args[0], ownerID, at)
			if err != nil {
				return actionError(cmd, opts, err)
			}
			return actionSuccess(cmd, opts, inst, fmt.Sprintf("snoozed until %s", at.UTC().Format(time.RFC3339)))
		},
	}

	cmd.Flags().StringVar(&ownerID, "owner", "", "owner id")
	cmd.Flags().StringVar(&until, "until", "", "snooze until this RFC 3339 time")
	cmd.Flags().DurationVar(&duration, "for", 0, "snooze for this duration (e.g. 48h)")
	cmd.MarkFlagRequired("owner")
	return cmd
}

// NewUnsnoozeCommand returns a snoozed instance to the queue immediately.
func NewUnsnoozeCommand(opts *RootOptions) *cobra.Command {
	var ownerID string

	cmd := &cobra.Command{
		Use:   "unsnooze <instance-key>",
		Short: "Wake a snoozed reminder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, closeStore, err := openEngine(opts)
			if err != nil {
				return err
			}
			defer closeStore()

			inst, err := eng.Unsnooze(cmd.Context(), args[0], ownerID)
			if err != nil {
				return actionError(cmd, opts, err)
			}
			return actionSuccess(cmd, opts, inst, "unsnoozed")
		},
	}

	cmd.Flags().StringVar(&ownerID, "owner", "", "owner id")
	cmd.MarkFlagRequired("owner")
	return cmd
}

// NewSkipCommand dismisses an instance without completing it.
func NewSkipCommand(opts *RootOptions) *cobra.Command {
	var ownerID string

	cmd := &cobra.Command{
		Use:   "skip <instance-key>",
		Short: "Skip a reminder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, closeStore, err := openEngine(opts)
			if err != nil {
				return err
			}
			defer closeStore()

			inst, err := eng.Skip(cmd.Context(), args[0], ownerID)
			if err != nil {
				return actionError(cmd, opts, err)
			}
			return actionSuccess(cmd, opts, inst, "skipped")
		},
	}

	cmd.Flags().StringVar(&ownerID, "owner", "", "owner id")
	cmd.MarkFlagRequired("owner")
	return cmd
}

func actionSuccess(cmd *cobra.Command, opts *RootOptions, inst *rule.Instance, verb string) error {
	out := formatter(cmd, opts)
	return out.Success(
		map[string]any{"key": inst.Key, "status": string(inst.Status)},
		fmt.Sprintf("%s %s", inst.Key, verb),
	)
}

// actionError renders a state-machine miss distinctly from a real failure,
// so callers can show "already done" instead of a generic error.
func actionError(cmd *cobra.Command, opts *RootOptions, err error) error {
	if engine.IsNotActionable(err) {
		out := formatter(cmd, opts)
		if ferr := out.Failure(string(engine.ErrCodeNotActionable), err.Error()); ferr != nil {
			return ferr
		}
		return NewExitError(ExitFailure, err.Error())
	}
	return WrapExitError(ExitFailure, "instance action", err)
}
