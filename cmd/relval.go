package cmd

import (
	"github.com/dmarten/relval/core"
	"github.com/dmarten/relval/internal/contract"
	"github.com/spf13/cobra"
)

// relValCmd runs a full release-validation comparison.
var relValCmd = &cobra.Command{
	Use:   "rel-val",
	Short: "Compare two sets of validation artifacts and classify the outcome.",
	Long: `Run the full release-validation pipeline between two input sides.

Each side is either a list of artifact files or a single directory tree.
Directory trees additionally need a --dir-config describing which sub-paths
participate and how; mutual file sizes are audited before dispatch.

Every matched group becomes one comparison task executed by the external
macro; its raw verdicts are merged into SummaryGlobal.json, task outcomes
land in RunReport.json, and the per-severity verdict is printed at the end.

Examples:
  # Compare two histogram files
  relval rel-val -i old/AnalysisResults.root -j new/AnalysisResults.root --macro-path compare.C

  # Compare two pipeline output trees
  relval rel-val -i old_run -j new_run --dir-config config.json --macro-path compare.C

  # Restrict to the chi2 test with a custom threshold and 4 workers
  relval rel-val -i old_run -j new_run --dir-config config.json --macro-path compare.C \
    --with-test-chi2 --chi2-threshold 2.0 --workers 4

  # Reuse the values of a previous run as thresholds
  relval rel-val -i old_run -j new_run --dir-config config.json --macro-path compare.C \
    --use-values-as-thresholds prev/SummaryGlobal.json`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteRelVal(rootCtx, cfg); err != nil {
			contract.LogFatal("Cannot run release validation", err)
		}
	},
}
