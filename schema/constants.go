package schema

// Custom string types for type safety.
type (
	// Severity is the ordered verdict label for a single test outcome
	// or an artifact's overall outcome.
	Severity string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for run history.
	DatabaseBackend string

	// TaskStatus represents the outcome of a single dispatched comparison task.
	TaskStatus string
)

// All severities, best to worst.
const (
	SeverityGood      Severity = "GOOD"
	SeverityWarning   Severity = "WARNING"
	SeverityNoncritNC Severity = "NONCRIT_NC"
	SeverityCritNC    Severity = "CRIT_NC"
	SeverityBad       Severity = "BAD"
)

// AllSeverities lists every severity in rank order. Iteration over severities
// must use this slice so reports come out in a stable order.
var AllSeverities = []Severity{
	SeverityGood,
	SeverityWarning,
	SeverityNoncritNC,
	SeverityCritNC,
	SeverityBad,
}

// severityRanks maps each severity to its numeric rank for sorting and
// numeric export.
var severityRanks = map[Severity]int{
	SeverityGood:      0,
	SeverityWarning:   1,
	SeverityNoncritNC: 2,
	SeverityCritNC:    3,
	SeverityBad:       4,
}

// Rank returns the numeric rank of the severity (0 best, 4 worst).
// Unknown severities rank worst so they are never silently hidden.
func (s Severity) Rank() int {
	if r, ok := severityRanks[s]; ok {
		return r
	}
	return len(severityRanks)
}

// IsCritical reports whether the severity must block a release. Unknown
// severities count as critical for the same reason Rank treats them as worst.
func (s Severity) IsCritical() bool {
	switch s {
	case SeverityGood, SeverityWarning, SeverityNoncritNC:
		return false
	default:
		return true
	}
}

// IsValid reports whether the severity is one of the known labels.
func (s Severity) IsValid() bool {
	_, ok := severityRanks[s]
	return ok
}

// Test bitmask values understood by the external comparison routine.
// A zero mask means all tests.
const (
	TestChi2       = 1
	TestBinCont    = 2
	TestNumEntries = 4
	TestAll        = TestChi2 | TestBinCont | TestNumEntries
)

// TestNameSummary is the synthetic overall-verdict test emitted by the
// external comparison routine for every artifact.
const TestNameSummary = "test_summary"

// All output modes supported.
const (
	TextOut    OutputMode = "text" // default
	CSVOut     OutputMode = "csv"
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All history backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite"
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none" // default
)

// All task statuses recorded in a run report.
const (
	TaskOK       TaskStatus = "ok"
	TaskWarning  TaskStatus = "warning"
	TaskFailed   TaskStatus = "failed"
	TaskTimedOut TaskStatus = "timed_out"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	TextOut:    {},
	CSVOut:     {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidHistoryBackends lists all valid run-history backends.
var ValidHistoryBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// Well-known file names of a run's output tree.
const (
	SummaryFileName       = "Summary.json"
	SummaryGlobalFileName = "SummaryGlobal.json"
	FileSizesFileName     = "file_sizes.json"
	RunReportFileName     = "RunReport.json"
	InfluxFileName        = "influxDB.dat"
	ThresholdsFileName    = "use_thresholds.dat"
	TaskLogFileName       = "rel_val.log"
)
