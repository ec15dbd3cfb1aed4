package cmd

import (
	"fmt"

	"github.com/dmarten/relval/internal/contract"
	"github.com/dmarten/relval/internal/outwriter"
	"github.com/dmarten/relval/internal/runstore"
	"github.com/dmarten/relval/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// historySetup loads minimal configuration needed for history operations.
// This is used by commands that need store access without full shared setup.
func historySetup(_ *cobra.Command, _ []string) error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend := schema.DatabaseBackend(viper.GetString("history-backend"))
	if backend == "" || backend == schema.NoneBackend {
		// History commands only make sense with a real backend
		backend = schema.SQLiteBackend
	}
	connStr := viper.GetString("history-db-connect")

	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	cfg.Format = schema.OutputMode(viper.GetString("format"))
	cfg.OutputFile = viper.GetString("output-file")
	cfg.Precision = viper.GetInt("precision")
	cfg.Width = viper.GetInt("width")
	return nil
}

// openHistoryStore connects to the configured backend or exits.
func openHistoryStore() *runstore.Store {
	store, err := runstore.Open(cfg)
	if err != nil {
		contract.LogFatal("Failed to open run history", err)
	}
	return store
}

// historyCmd focused on run-history management.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage the run-history database.",
	Long: `Manage the database that tracks past release-validation runs.

Runs are recorded when rel-val executes with a history backend configured
(--history-backend or RELVAL_HISTORY_BACKEND). History commands default to
the SQLite backend when none is configured.

Supported backends: SQLite (default), MySQL, PostgreSQL

Subcommands:
  list    - Show recent runs
  status  - Show backend statistics and connection info
  clear   - Remove all recorded runs
  migrate - Run schema migrations

Examples:
  # Show the last runs
  relval history list

  # Check where runs are stored
  relval history status`,
}

// historyListCmd shows recent runs.
var historyListCmd = &cobra.Command{
	Use:     "list",
	Short:   "Show the most recent recorded runs.",
	PreRunE: historySetup,
	Run: func(_ *cobra.Command, _ []string) {
		store := openHistoryStore()
		defer func() { _ = store.Close() }()

		records, err := store.ListRuns(viper.GetInt("history-limit"))
		if err != nil {
			contract.LogFatal("Failed to list runs", err)
		}
		if err := outwriter.WriteHistoryRuns(records, cfg); err != nil {
			contract.LogFatal("Failed to write runs", err)
		}
	},
}

// historyStatusCmd shows store status.
var historyStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Display run-history statistics and connection details.",
	PreRunE: historySetup,
	Run: func(_ *cobra.Command, _ []string) {
		store := openHistoryStore()
		defer func() { _ = store.Close() }()

		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get history status", err)
		}
		runstore.PrintHistoryStatus(status)
	},
}

// historyClearCmd removes all recorded runs.
var historyClearCmd = &cobra.Command{
	Use:     "clear",
	Short:   "Remove all recorded runs.",
	PreRunE: historySetup,
	Run: func(_ *cobra.Command, _ []string) {
		store := openHistoryStore()
		defer func() { _ = store.Close() }()

		if err := store.Clear(); err != nil {
			contract.LogFatal("Failed to clear run history", err)
		}
		fmt.Println("Run history cleared successfully.")
	},
}

// historyMigrateCmd runs schema migrations.
var historyMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run schema migrations for the run-history database.",
	Long: `Apply or roll back the run-history schema.

--target-version selects the migration target: -1 migrates to the latest
version, 0 rolls everything back, a positive number migrates to that exact
version.`,
	PreRunE: historySetup,
	Run: func(_ *cobra.Command, _ []string) {
		target := viper.GetInt("target-version")
		if err := runstore.Migrate(cfg.HistoryBackend, cfg.HistoryDBConnect, target); err != nil {
			contract.LogFatal("Failed to migrate run history", err)
		}
	},
}
