// Package cmd defines the command-line interface for relval.
package cmd

import (
	"github.com/dmarten/relval/internal/contract"
	"github.com/dmarten/relval/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(relValCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(influxCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the history subcommands to the parent history command
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().StringSliceP("input1", "i", nil, "First input side: artifact files or one directory tree")
	rootCmd.PersistentFlags().StringSliceP("input2", "j", nil, "Second input side: artifact files or one directory tree")
	rootCmd.PersistentFlags().String("output", "", "Output directory (default rel_val, or rel_val_comparison for compare)")
	rootCmd.PersistentFlags().String("format", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent comparison tasks")
	rootCmd.PersistentFlags().String("dir", "", "Run directory holding the summary documents")
	rootCmd.PersistentFlags().Bool("select-critical", false, "Restrict to severities that block a release")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	rootCmd.PersistentFlags().String("history-backend", string(schema.NoneBackend), "Run-history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("history-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of relValCmd to Viper
	relValCmd.Flags().Bool("with-test-chi2", false, "Run the chi2 test")
	relValCmd.Flags().Bool("with-test-bincont", false, "Run the bin-content test")
	relValCmd.Flags().Bool("with-test-numentries", false, "Run the number-of-entries test")
	relValCmd.Flags().Float64("chi2-threshold", contract.DefaultChi2Threshold, "Chi2 test threshold")
	relValCmd.Flags().Float64("rel-mean-diff-threshold", contract.DefaultRelMeanDiffThresh, "Relative mean difference threshold")
	relValCmd.Flags().Float64("rel-entries-diff-threshold", contract.DefaultRelEntriesThresh, "Relative entries difference threshold")
	relValCmd.Flags().Float64("threshold", contract.DefaultSizeThreshold, "Relative file-size divergence threshold")
	relValCmd.Flags().Bool("no-plots", false, "Skip overlay plot production")
	relValCmd.Flags().String("use-values-as-thresholds", "", "Comma-separated summary files whose values become new thresholds")
	relValCmd.Flags().String("dir-config", "", "JSON config describing which sub-paths to compare (required for directory inputs)")
	relValCmd.Flags().StringSlice("dir-config-enable", nil, "Only dispatch these top-level dir-config groups")
	relValCmd.Flags().StringSlice("dir-config-disable", nil, "Never dispatch these top-level dir-config groups")
	relValCmd.Flags().String("macro-path", "", "Path to the comparison macro executed per task")
	relValCmd.Flags().String("task-timeout", "", "Per-task wall-clock limit, e.g. 10m (empty = unbounded)")
	if err := viper.BindPFlags(relValCmd.Flags()); err != nil {
		contract.LogFatal("Error binding rel-val flags", err)
	}

	// Bind all flags of compareCmd to Viper
	compareCmd.Flags().Bool("difference", false, "Report severity membership differences between the runs")
	compareCmd.Flags().Bool("compare-values", false, "Report side-by-side test values of the runs")
	if err := viper.BindPFlags(compareCmd.Flags()); err != nil {
		contract.LogFatal("Error binding compare flags", err)
	}

	// Bind all flags of influxCmd to Viper
	influxCmd.Flags().String("table-suffix", "", "Suffix appended to the measurement name")
	influxCmd.Flags().String("web-storage", "", "Base URL prepended to relative plot paths")
	influxCmd.Flags().StringSlice("tags", nil, "Additional key=value tags attached to every point")
	if err := viper.BindPFlags(influxCmd.Flags()); err != nil {
		contract.LogFatal("Error binding influx flags", err)
	}

	// Bind all flags of historyMigrateCmd to Viper
	historyMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(historyMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history migrate flags", err)
	}

	// Bind all flags of historyListCmd to Viper
	historyListCmd.Flags().Int("history-limit", contract.DefaultHistoryLimit, "Number of recent runs to display")
	if err := viper.BindPFlags(historyListCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history list flags", err)
	}
}
