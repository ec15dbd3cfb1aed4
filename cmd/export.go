package cmd

import (
	"github.com/dmarten/relval/core"
	"github.com/dmarten/relval/internal/contract"
	"github.com/spf13/cobra"
)

// exportCmd flattens a run's verdicts to tabular form.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a run's verdicts as flat rows (CSV, JSON or Parquet).",
	Long: `Flatten every test outcome of a run to one row per (artifact, test).

Rows carry the severity label and rank, the computed value and threshold
where comparable, and the artifact's provenance. The format follows
--format; parquet requires --output-file or defaults to
relval_export.parquet inside the run directory.

Examples:
  # CSV to stdout
  relval export --dir rel_val --format csv

  # Parquet for downstream analytics
  relval export --dir rel_val --format parquet --output-file outcomes.parquet`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteExport(rootCtx, cfg); err != nil {
			contract.LogFatal("Cannot export outcomes", err)
		}
	},
}
