package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/dmarten/relval/schema"
)

// Default values for configuration.
const (
	DefaultChi2Threshold     = 1.5
	DefaultRelMeanDiffThresh = 1.5
	DefaultRelEntriesThresh  = 0.01
	DefaultSizeThreshold     = 0.1
	DefaultPrecision         = 3
	DefaultHistoryLimit      = 25
	DefaultRelValOutputDir   = "rel_val"
	DefaultCompareOutputDir  = "rel_val_comparison"
	DefaultInfluxTableName   = "ReleaseValidation"
)

// DefaultWorkers is the default number of concurrent comparison tasks.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// Config holds the runtime configuration for a relval invocation.
// This struct remains the "final, validated" config; nothing reads from
// process-wide state after validation.
type Config struct {
	Inputs1 []string
	Inputs2 []string

	OutputDir string

	TestMask                int
	Chi2Threshold           float64
	RelMeanDiffThreshold    float64
	RelEntriesDiffThreshold float64
	SizeThreshold           float64
	SelectCritical          bool
	NoPlots                 bool
	UseValuesAsThresholds   string

	DirConfigPath    string
	DirConfigEnable  []string
	DirConfigDisable []string

	MacroPath   string
	Workers     int
	TaskTimeout time.Duration

	Format     schema.OutputMode
	OutputFile string
	Precision  int
	UseColors  bool
	Width      int

	// compare
	Difference    bool
	CompareValues bool

	// influx / export
	Dir         string
	TableSuffix string
	WebStorage  string
	Tags        []Tag

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string
}

// Tag is one validated key=value pair for the metrics export.
type Tag struct {
	Key   string
	Value string
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config
// file). Viper unmarshals into this struct.
type ConfigRawInput struct {
	Input1 []string `mapstructure:"input1"`
	Input2 []string `mapstructure:"input2"`

	Output string `mapstructure:"output"`

	WithTestChi2       bool `mapstructure:"with-test-chi2"`
	WithTestBincont    bool `mapstructure:"with-test-bincont"`
	WithTestNumentries bool `mapstructure:"with-test-numentries"`

	Chi2Threshold           float64 `mapstructure:"chi2-threshold"`
	RelMeanDiffThreshold    float64 `mapstructure:"rel-mean-diff-threshold"`
	RelEntriesDiffThreshold float64 `mapstructure:"rel-entries-diff-threshold"`
	Threshold               float64 `mapstructure:"threshold"`

	SelectCritical        bool   `mapstructure:"select-critical"`
	NoPlots               bool   `mapstructure:"no-plots"`
	UseValuesAsThresholds string `mapstructure:"use-values-as-thresholds"`

	DirConfig        string   `mapstructure:"dir-config"`
	DirConfigEnable  []string `mapstructure:"dir-config-enable"`
	DirConfigDisable []string `mapstructure:"dir-config-disable"`

	MacroPath   string `mapstructure:"macro-path"`
	Workers     int    `mapstructure:"workers"`
	TaskTimeout string `mapstructure:"task-timeout"`

	Format     string `mapstructure:"format"`
	OutputFile string `mapstructure:"output-file"`
	Precision  int    `mapstructure:"precision"`
	Color      string `mapstructure:"color"`
	Width      int    `mapstructure:"width"`

	Difference    bool `mapstructure:"difference"`
	CompareValues bool `mapstructure:"compare-values"`

	Dir         string   `mapstructure:"dir"`
	TableSuffix string   `mapstructure:"table-suffix"`
	WebStorage  string   `mapstructure:"web-storage"`
	Tags        []string `mapstructure:"tags"`

	HistoryBackend   string `mapstructure:"history-backend"`
	HistoryDBConnect string `mapstructure:"history-db-connect"`
}

// ProcessAndValidate reads from input and populates cfg, returning the first
// validation error encountered.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := processInputsAndOutput(cfg, input); err != nil {
		return err
	}
	if err := processTestSettings(cfg, input); err != nil {
		return err
	}
	if err := processDispatchSettings(cfg, input); err != nil {
		return err
	}
	if err := processOutputSettings(cfg, input); err != nil {
		return err
	}
	if err := processTags(cfg, input); err != nil {
		return err
	}
	return processHistoryBackend(cfg, input)
}

// processInputsAndOutput normalizes input paths to absolute form.
func processInputsAndOutput(cfg *Config, input *ConfigRawInput) error {
	var err error
	if cfg.Inputs1, err = absAll(input.Input1); err != nil {
		return err
	}
	if cfg.Inputs2, err = absAll(input.Input2); err != nil {
		return err
	}
	// The comparison subprocess runs inside the task's output directory,
	// so every path derived from OutputDir must survive that chdir.
	if cfg.OutputDir, err = filepath.Abs(input.Output); err != nil {
		return fmt.Errorf("cannot resolve path %q: %w", input.Output, err)
	}
	cfg.Dir = input.Dir
	return nil
}

// processTestSettings builds the test bitmask and validates thresholds.
// No test flag set means all tests.
func processTestSettings(cfg *Config, input *ConfigRawInput) error {
	mask := 0
	if input.WithTestChi2 {
		mask |= schema.TestChi2
	}
	if input.WithTestBincont {
		mask |= schema.TestBinCont
	}
	if input.WithTestNumentries {
		mask |= schema.TestNumEntries
	}
	if mask == 0 {
		mask = schema.TestAll
	}
	cfg.TestMask = mask

	for name, v := range map[string]float64{
		"chi2-threshold":             input.Chi2Threshold,
		"rel-mean-diff-threshold":    input.RelMeanDiffThreshold,
		"rel-entries-diff-threshold": input.RelEntriesDiffThreshold,
		"threshold":                  input.Threshold,
	} {
		if v < 0 {
			return fmt.Errorf("%s must not be negative, got %v", name, v)
		}
	}
	cfg.Chi2Threshold = input.Chi2Threshold
	cfg.RelMeanDiffThreshold = input.RelMeanDiffThreshold
	cfg.RelEntriesDiffThreshold = input.RelEntriesDiffThreshold
	cfg.SizeThreshold = input.Threshold
	cfg.SelectCritical = input.SelectCritical
	cfg.NoPlots = input.NoPlots
	cfg.UseValuesAsThresholds = input.UseValuesAsThresholds
	return nil
}

// processDispatchSettings validates worker count, task timeout and the
// directory config selection.
func processDispatchSettings(cfg *Config, input *ConfigRawInput) error {
	if input.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", input.Workers)
	}
	cfg.Workers = input.Workers

	if input.TaskTimeout != "" && input.TaskTimeout != "0" {
		d, err := time.ParseDuration(input.TaskTimeout)
		if err != nil {
			return fmt.Errorf("invalid task-timeout %q: %w", input.TaskTimeout, err)
		}
		if d < 0 {
			return fmt.Errorf("task-timeout must not be negative, got %v", d)
		}
		cfg.TaskTimeout = d
	}

	cfg.MacroPath = input.MacroPath
	cfg.DirConfigPath = input.DirConfig
	cfg.DirConfigEnable = input.DirConfigEnable
	cfg.DirConfigDisable = input.DirConfigDisable
	cfg.Difference = input.Difference
	cfg.CompareValues = input.CompareValues
	return nil
}

// processOutputSettings validates the machine-output format and color flag.
func processOutputSettings(cfg *Config, input *ConfigRawInput) error {
	format := schema.OutputMode(strings.ToLower(input.Format))
	if format == "" {
		format = schema.TextOut
	}
	if _, ok := schema.ValidOutputModes[format]; !ok {
		return fmt.Errorf("invalid format %q. Must be text, csv, json or parquet", input.Format)
	}
	cfg.Format = format
	cfg.OutputFile = input.OutputFile

	if input.Precision < 0 {
		return fmt.Errorf("precision must not be negative, got %d", input.Precision)
	}
	cfg.Precision = input.Precision
	cfg.Width = input.Width
	cfg.UseColors = parseBoolish(input.Color, true)
	cfg.TableSuffix = input.TableSuffix
	cfg.WebStorage = input.WebStorage
	return nil
}

// processTags validates the key=value tags for the metrics export.
// A malformed tag is a precondition failure.
func processTags(cfg *Config, input *ConfigRawInput) error {
	cfg.Tags = cfg.Tags[:0]
	for _, raw := range input.Tags {
		parts := strings.SplitN(raw, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid tag %q, expected key=value", raw)
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" || value == "" {
			return fmt.Errorf("invalid tag %q, key and value must be non-empty", raw)
		}
		cfg.Tags = append(cfg.Tags, Tag{Key: key, Value: value})
	}
	return nil
}

// processHistoryBackend validates the run-history database settings.
func processHistoryBackend(cfg *Config, input *ConfigRawInput) error {
	backend := schema.DatabaseBackend(strings.ToLower(input.HistoryBackend))
	if backend == "" {
		backend = schema.NoneBackend
	}
	if _, ok := schema.ValidHistoryBackends[backend]; !ok {
		return fmt.Errorf("invalid history backend %q. Must be sqlite, mysql, postgresql or none", input.HistoryBackend)
	}
	if err := ValidateDatabaseConnectionString(backend, input.HistoryDBConnect); err != nil {
		return err
	}
	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = input.HistoryDBConnect
	return nil
}

// ValidateDatabaseConnectionString validates the format of database
// connection strings for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("history-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("history-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for run history.
func GetHistoryDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".relval_history.db"
	}
	return filepath.Join(homeDir, ".relval_history.db")
}

// absAll converts every path to absolute form.
func absAll(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("cannot resolve path %q: %w", p, err)
		}
		out = append(out, abs)
	}
	return out, nil
}

// parseBoolish interprets yes/no/true/false/1/0, falling back to def.
func parseBoolish(s string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "1", "on":
		return true
	case "no", "false", "0", "off":
		return false
	default:
		return def
	}
}
