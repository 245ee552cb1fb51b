package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewPruneCommand deletes an owner's aged-out instances.
func NewPruneCommand(opts *RootOptions) *cobra.Command {
	var ownerID string

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old completed/skipped instances",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, closeStore, err := openEngine(opts)
			if err != nil {
				return err
			}
			defer closeStore()

			n, err := eng.PruneStale(cmd.Context(), ownerID)
			if err != nil {
				return WrapExitError(ExitFailure, "prune", err)
			}

			out := formatter(cmd, opts)
			return out.Success(
				map[string]any{"deleted": n},
				fmt.Sprintf("deleted %d instance(s)", n),
			)
		},
	}

	cmd.Flags().StringVar(&ownerID, "owner", "", "owner id")
	cmd.MarkFlagRequired("owner")
	return cmd
}
