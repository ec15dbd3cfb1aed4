package cmd

import (
	"github.com/dmarten/relval/core"
	"github.com/dmarten/relval/internal/contract"
	"github.com/spf13/cobra"
)

// compareCmd diffs two prior run outputs.
var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Diff the outcomes of two prior release-validation runs.",
	Long: `Compare two finished run directories against each other.

Two views are available and both are produced when neither flag is given:
--difference reports which artifacts changed severity bucket between the
runs; --compare-values writes side-by-side test values for every per-task
summary present in both trees.

Examples:
  # Full comparison of two runs
  relval compare -i run_a -j run_b

  # Only the severity membership diff
  relval compare -i run_a -j run_b --difference

  # Only the value tables, into a custom directory
  relval compare -i run_a -j run_b --compare-values --output diff_out`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteCompare(rootCtx, cfg); err != nil {
			contract.LogFatal("Cannot compare runs", err)
		}
	},
}
