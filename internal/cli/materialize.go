package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/cadence/internal/engine"
)

// NewMaterializeCommand runs a materialization pass for an owner, a single
// rule, or a target's anchored rules.
func NewMaterializeCommand(opts *RootOptions) *cobra.Command {
	var (
		ownerID  string
		ruleID   string
		targetID string
	)

	cmd := &cobra.Command{
		Use:   "materialize",
		Short: "Materialize rules into dated reminder instances",
		RunE: func(cmd *cobra.Command, args []string) error {
			if countSet(ownerID, ruleID, targetID) != 1 {
				return NewExitError(ExitCommandError, "exactly one of --owner, --rule, --target is required")
			}

			eng, closeStore, err := openEngine(opts)
			if err != nil {
				return err
			}
			defer closeStore()

			tier, err := resolveTier(opts)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			var res *engine.MaterializeResult
			switch {
			case ownerID != "":
				res, err = eng.MaterializeForOwner(ctx, ownerID, tier)
			case ruleID != "":
				res, err = eng.MaterializeForRule(ctx, ruleID, tier)
			default:
				res, err = eng.RematerializeForTarget(ctx, targetID, tier)
			}
			if err != nil {
				return WrapExitError(ExitFailure, "materialize", err)
			}

			out := formatter(cmd, opts)
			text := fmt.Sprintf("rules=%d created=%d updated=%d errors=%d",
				res.RulesProcessed, res.InstancesCreated, res.InstancesUpdated, len(res.Errors))
			for _, re := range res.Errors {
				text += fmt.Sprintf("\n  rule %s: %s", re.RuleID, re.Error)
			}
			return out.Success(res, text)
		},
	}

	cmd.Flags().StringVar(&ownerID, "owner", "", "materialize every active rule of this owner")
	cmd.Flags().StringVar(&ruleID, "rule", "", "materialize one rule")
	cmd.Flags().StringVar(&targetID, "target", "", "re-materialize the rules anchored on this target")
	return cmd
}

func countSet(values ...string) int {
	n := 0
	for _, v := range values {
		if v != "" {
			n++
		}
	}
	return n
}
