package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/cadence/internal/rule"
)

// NewRulesCommand groups rule management: import, vet, list,
// enable/disable, delete.
func NewRulesCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage reminder rules",
	}
	cmd.AddCommand(newRulesImportCommand(opts))
	cmd.AddCommand(newRulesVetCommand(opts))
	cmd.AddCommand(newRulesListCommand(opts))
	cmd.AddCommand(newRulesActiveCommand(opts, "enable", true))
	cmd.AddCommand(newRulesActiveCommand(opts, "disable", false))
	cmd.AddCommand(newRulesDeleteCommand(opts))
	return cmd
}

func newRulesImportCommand(opts *RootOptions) *cobra.Command {
	var materialize bool

	cmd := &cobra.Command{
		Use:   "import <dir>",
		Short: "Import rule definitions from a directory of CUE files",
		Args:  cobra.ExactArgs(1),
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

			rules, errs := LoadRules(args[0], rule.UUIDv7Generator{}, eng.Clock().Now())
			if len(errs) > 0 {
				return NewExitError(ExitFailure, joinErrors(errs))
			}

			ctx := cmd.Context()
			imported := 0
			for _, r := range rules {
				if err := eng.Store().CreateRule(ctx, r); err != nil {
					return WrapExitError(ExitFailure, fmt.Sprintf("import rule %s", r.ID), err)
				}
				imported++

				if materialize {
					if _, err := eng.MaterializeForRule(ctx, r.ID, tier); err != nil {
						return WrapExitError(ExitFailure, fmt.Sprintf("materialize rule %s", r.ID), err)
					}
				}
			}

			out := formatter(cmd, opts)
			return out.Success(
				map[string]any{"imported": imported, "materialized": materialize},
				fmt.Sprintf("imported %d rule(s)", imported),
			)
		},
	}

	cmd.Flags().BoolVar(&materialize, "materialize", true, "materialize imported rules immediately")
	return cmd
}

func newRulesVetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "vet <dir>",
		Short: "Validate rule definitions without importing them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, errs := LoadRules(args[0], rule.UUIDv7Generator{}, time.Now().UTC())
			if len(errs) > 0 {
				return NewExitError(ExitFailure, joinErrors(errs))
			}

			out := formatter(cmd, opts)
			return out.Success(
				map[string]any{"rules": len(rules)},
				fmt.Sprintf("%d rule(s) ok", len(rules)),
			)
		},
	}
}

func newRulesListCommand(opts *RootOptions) *cobra.Command {
	var ownerID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List an owner's rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, closeStore, err := openEngine(opts)
			if err != nil {
				return err
			}
			defer closeStore()

			rules, err := eng.Store().ListRules(cmd.Context(), ownerID)
			if err != nil {
				return WrapExitError(ExitFailure, "list rules", err)
			}

			var b strings.Builder
			for _, r := range rules {
				state := "active"
				if !r.Active {
					state = "inactive"
				}
				fmt.Fprintf(&b, "%s  %-11s %-10s %-8s %s\n", r.ID, r.Type, r.Kind, state, r.Title)
			}
			if len(rules) == 0 {
				b.WriteString("no rules")
			}

			out := formatter(cmd, opts)
			return out.Success(rulesListData(rules), strings.TrimRight(b.String(), "\n"))
		},
	}

	cmd.Flags().StringVar(&ownerID, "owner", "", "owner id")
	cmd.MarkFlagRequired("owner")
	return cmd
}

func newRulesActiveCommand(opts *RootOptions, verb string, active bool) *cobra.Command {
	var ownerID string

	cmd := &cobra.Command{
		Use:   verb + " <rule-id>",
		Short: strings.ToUpper(verb[:1]) + verb[1:] + " a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, closeStore, err := openEngine(opts)
			if err != nil {
				return err
			}
			defer closeStore()

			ok, err := eng.Store().SetRuleActive(cmd.Context(), args[0], ownerID, active)
			if err != nil {
				return WrapExitError(ExitFailure, verb+" rule", err)
			}
			if !ok {
				return NewExitError(ExitFailure, fmt.Sprintf("rule %s not found", args[0]))
			}

			out := formatter(cmd, opts)
			return out.Success(
				map[string]any{"rule_id": args[0], "active": active},
				fmt.Sprintf("rule %s %sd", args[0], verb),
			)
		},
	}

	cmd.Flags().StringVar(&ownerID, "owner", "", "owner id")
	cmd.MarkFlagRequired("owner")
	return cmd
}

func newRulesDeleteCommand(opts *RootOptions) *cobra.Command {
	var ownerID string

	cmd := &cobra.Command{
		Use:   "delete <rule-id>",
		Short: "Hard-delete a rule and all of its instances",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, closeStore, err := openEngine(opts)
			if err != nil {
				return err
			}
			defer closeStore()

			ok, err := eng.Store().DeleteRule(cmd.Context(), args[0], ownerID)
			if err != nil {
				return WrapExitError(ExitFailure, "delete rule", err)
			}
			if !ok {
				return NewExitError(ExitFailure, fmt.Sprintf("rule %s not found", args[0]))
			}

			out := formatter(cmd, opts)
			return out.Success(
				map[string]any{"rule_id": args[0], "deleted": true},
				fmt.Sprintf("rule %s deleted", args[0]),
			)
		},
	}

	cmd.Flags().StringVar(&ownerID, "owner", "", "owner id")
	cmd.MarkFlagRequired("owner")
	return cmd
}

func rulesListData(rules []*rule.Rule) []map[string]any {
	data := make([]map[string]any, 0, len(rules))
	for _, r := range rules {
		data = append(data, map[string]any{
			"id":       r.ID,
			"type":     string(r.Type),
			"kind":     string(r.Kind),
			"priority": string(r.Priority),
			"active":   r.Active,
			"title":    r.Title,
		})
	}
	return data
}

func joinErrors(errs []error) string {
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "\n")
}
