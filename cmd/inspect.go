package cmd

import (
	"github.com/dmarten/relval/core"
	"github.com/dmarten/relval/internal/contract"
	"github.com/spf13/cobra"
)

// inspectCmd classifies an existing summary document.
var inspectCmd = &cobra.Command{
	Use:   "inspect [summary-file-or-run-dir]",
	Short: "Print the per-severity verdict of an existing run.",
	Long: `Classify the artifacts of a finished run without re-running anything.

The target is a summary file or a run directory; directories prefer the
merged SummaryGlobal.json over a single task's Summary.json. Use
--select-critical to only show severities that block a release.

Examples:
  # Inspect a whole run
  relval inspect rel_val

  # Inspect one task's raw summary
  relval inspect rel_val/sim/tpc/Summary.json

  # Only show release-blocking artifacts, as JSON
  relval inspect rel_val --select-critical --format json`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if cfg.Dir == "" {
			cfg.Dir = "."
		}
		if err := core.ExecuteInspect(rootCtx, cfg); err != nil {
			contract.LogFatal("Cannot inspect summary", err)
		}
	},
}
