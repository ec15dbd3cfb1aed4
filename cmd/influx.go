package cmd

import (
	"github.com/dmarten/relval/core"
	"github.com/dmarten/relval/internal/contract"
	"github.com/spf13/cobra"
)

// influxCmd encodes a run's verdicts as line protocol.
var influxCmd = &cobra.Command{
	Use:   "influx",
	Short: "Export a run's verdicts as InfluxDB line protocol.",
	Long: `Encode the merged summary of a run as one line-protocol point per artifact.

Points carry the configured key=value tags plus the artifact's provenance
(type_global, type_specific, id) as tags, and one integer severity rank per
test as fields. No timestamp is written; the ingesting side assigns one.
The output lands in influxDB.dat inside the run directory unless
--output-file says otherwise.

Examples:
  # Export a run with deployment tags
  relval influx --dir rel_val --tags release=v1.2,host=alice

  # Use a dedicated measurement and link plots
  relval influx --dir rel_val --table-suffix nightly --web-storage https://qc.example.org/plots`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteInflux(rootCtx, cfg); err != nil {
			contract.LogFatal("Cannot export line protocol", err)
		}
	},
}
