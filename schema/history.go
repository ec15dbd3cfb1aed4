package schema

import "time"

// RunRecord is one tracked relval run in the history store.
type RunRecord struct {
	RunID       int64
	StartTime   time.Time
	EndTime     *time.Time
	Input1      string
	Input2      string
	OutputDir   string
	TotalTasks  int
	FailedTasks int

	// Artifact counts per severity at the end of the run, keyed by label.
	SeverityCounts map[Severity]int
}

// HistoryStatus holds status information about the history store.
type HistoryStatus struct {
	Backend    DatabaseBackend
	Location   string
	TotalRuns  int
	LastRunAt  *time.Time
	TotalBytes int64 // 0 when the backend cannot report a size
}
