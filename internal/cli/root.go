// Package cli implements the cadence command line interface: rule
// definition import, materialization runs, the today queue, instance
// actions, and pruning.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/cadence/internal/config"
	"github.com/roach88/cadence/internal/engine"
	"github.com/roach88/cadence/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	DBPath  string
	Format  string // "json" | "text"
	Tier    string
	Verbose bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the cadence CLI.
func NewRootCommand() *cobra.Command {
	cfg := config.Load()
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "cadence",
		Short: "Cadence - recurring reminder engine",
		Long:  "Materializes recurrence rules into dated reminders and ranks the ones due today.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if _, err := engine.TierByName(opts.Tier); err != nil {
				return err
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", cfg.DBPath, "sqlite database path")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Tier, "tier", cfg.DefaultTier, "subscription tier (base|plus)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	cmd.AddCommand(NewRulesCommand(opts))
	cmd.AddCommand(NewMaterializeCommand(opts))
	cmd.AddCommand(NewQueueCommand(opts))
	cmd.AddCommand(NewDoneCommand(opts))
	cmd.AddCommand(NewSnoozeCommand(opts))
	cmd.AddCommand(NewUnsnoozeCommand(opts))
	cmd.AddCommand(NewSkipCommand(opts))
	cmd.AddCommand(NewPruneCommand(opts))
	cmd.AddCommand(NewTargetCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// openEngine opens the store at the configured path and wraps it in an
// engine. The returned closer must be called when the command finishes.
func openEngine(opts *RootOptions) (*engine.Engine, func(), error) {
	s, err := store.Open(opts.DBPath)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, fmt.Sprintf("open database %s", opts.DBPath), err)
	}
	eng := engine.New(s)
	return eng, func() { s.Close() }, nil
}

// resolveTier maps the --tier flag to its policy values.
func resolveTier(opts *RootOptions) (engine.Tier, error) {
	tier, err := engine.TierByName(opts.Tier)
	if err != nil {
		return engine.Tier{}, WrapExitError(ExitCommandError, "resolve tier", err)
	}
	return tier, nil
}

// formatter builds an OutputFormatter bound to the command's stdout.
func formatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}
}
