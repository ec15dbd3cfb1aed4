// Package schema has the shared documents, configs and constants for all
// parts of relval.
package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// TestOutcome is the result of one statistical test on one artifact as
// reported by the external comparison routine. When Comparable is false,
// Value and Threshold carry no meaning and must not be consumed for numeric
// aggregation.
type TestOutcome struct {
	TestName   string   `json:"test_name"`
	Result     Severity `json:"result"`
	Comparable bool     `json:"comparable"`
	Value      *float64 `json:"value,omitempty"`
	Threshold  *float64 `json:"threshold,omitempty"`

	// Provenance metadata, injected once during the global merge.
	Name         string `json:"name,omitempty"`
	TypeGlobal   string `json:"type_global,omitempty"`
	TypeSpecific string `json:"type_specific,omitempty"`
	RelPathPlot  string `json:"rel_path_plot,omitempty"`
}

// Validate checks the required fields of an outcome read from disk.
func (o *TestOutcome) Validate() error {
	if o.TestName == "" {
		return fmt.Errorf("test outcome is missing test_name")
	}
	if !o.Result.IsValid() {
		return fmt.Errorf("test %q has unknown severity %q", o.TestName, o.Result)
	}
	return nil
}

// RawResultDocument maps artifact/histogram name to its ordered list of test
// outcomes. One is produced per comparison task by the external routine and
// is read-only input to the aggregator.
type RawResultDocument map[string][]TestOutcome

// GlobalSummaryDocument is the run-wide merge of all raw result documents,
// keyed by artifact name. It is written once per run and is the single source
// of truth for all downstream reporting.
type GlobalSummaryDocument map[string][]TestOutcome

// ArtifactNames returns the artifact names of the document, sorted.
func (d GlobalSummaryDocument) ArtifactNames() []string {
	names := make([]string, 0, len(d))
	for name := range d {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadSummary reads a raw or global summary document from a JSON file and
// validates every outcome.
func LoadSummary(path string) (GlobalSummaryDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read summary %s: %w", path, err)
	}
	var doc GlobalSummaryDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse summary %s: %w", path, err)
	}
	for name, outcomes := range doc {
		for i := range outcomes {
			if err := outcomes[i].Validate(); err != nil {
				return nil, fmt.Errorf("invalid outcome for artifact %q in %s: %w", name, path, err)
			}
		}
	}
	return doc, nil
}

// SizeReport is the output of the size-divergence audit over two or more
// directory trees. Files holds only the paths with at least one flagged pair,
// mapping each to its per-tree byte sizes.
type SizeReport struct {
	Directories []string           `json:"directories"`
	Files       map[string][]int64 `json:"files"`
	Threshold   float64            `json:"threshold"`
}

// SizeRow is the per-file view of a size audit, kept for every mutual file so
// tables can show clean and flagged rows alike. FlaggedPairs holds the index
// pairs whose relative divergence exceeded the threshold.
type SizeRow struct {
	Path         string
	Sizes        []int64
	FlaggedPairs [][2]int
}

// ThresholdEntry is one line of a rebuilt threshold file, built only from
// comparable outcomes of a prior run.
type ThresholdEntry struct {
	Artifact string
	TestName string
	Value    float64
}

// TaskRecord is the per-task entry of a run report.
type TaskRecord struct {
	Group     string     `json:"group"`
	Name      string     `json:"name"`
	OutputDir string     `json:"output_dir"`
	Status    TaskStatus `json:"status"`
	Detail    string     `json:"detail,omitempty"`
}

// RunReport aggregates per-task outcomes and aggregation warnings for a whole
// run. Dispatch failures never fail the run; this report is how they are
// discovered without manual log inspection.
type RunReport struct {
	Tasks    []TaskRecord `json:"tasks"`
	Warnings []string     `json:"warnings,omitempty"`
}

// Add appends a task record to the report.
func (r *RunReport) Add(group, name, outputDir string, status TaskStatus, detail string) {
	r.Tasks = append(r.Tasks, TaskRecord{
		Group:     group,
		Name:      name,
		OutputDir: outputDir,
		Status:    status,
		Detail:    detail,
	})
}

// Warn appends a free-form warning to the report.
func (r *RunReport) Warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// CountByStatus returns the number of tasks recorded with the given status.
func (r *RunReport) CountByStatus(status TaskStatus) int {
	n := 0
	for _, t := range r.Tasks {
		if t.Status == status {
			n++
		}
	}
	return n
}

// ComparisonTask is the unit of dispatch: two index-aligned file lists, an
// output directory owned exclusively by this task, and the bitmask of tests
// to run. The file at index k of Files1 is the counterpart of the file at
// index k of Files2.
type ComparisonTask struct {
	Files1    []string
	Files2    []string
	OutputDir string
	TestMask  int

	Chi2Threshold     float64
	RelMeanDiffThresh float64
	RelEntriesThresh  float64
	SelectCritical    bool
	NoPlots           bool
	InThresholdsPath  string
}
