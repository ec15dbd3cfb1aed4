// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/dmarten/relval/schema"
)

// ComparisonRunner performs the numerical comparison of two matched file
// lists. The production implementation shells out to an external routine;
// an in-process implementation can satisfy the same contract without
// touching the orchestrator.
type ComparisonRunner interface {
	// Run executes one comparison task. The task's output directory exists
	// when Run is called; the runner writes Summary.json and optional plots
	// into it. A non-nil error marks the task failed in the run report but
	// never aborts the run.
	Run(ctx context.Context, task *schema.ComparisonTask) error
}

// HistoryStore tracks relval runs in a database. All methods are best-effort
// from the orchestrator's point of view: tracking failures are logged as
// warnings and never fail a run.
type HistoryStore interface {
	// BeginRun creates a new run record and returns its unique ID.
	BeginRun(startTime time.Time, input1, input2, outputDir string) (int64, error)

	// EndRun finalizes the run record with severity and task counts.
	EndRun(runID int64, endTime time.Time, severityCounts map[schema.Severity]int, totalTasks, failedTasks int) error

	// ListRuns returns the most recent run records, newest first.
	ListRuns(limit int) ([]schema.RunRecord, error)

	// GetStatus returns status information about the store.
	GetStatus() (schema.HistoryStatus, error)

	// Clear removes all run records.
	Clear() error

	// Close closes the underlying connection.
	Close() error
}
