package schema

// SeverityDiff reports, for one severity level, how two runs disagree.
// Artifacts at this severity in both runs land in Common and are never
// reported as differing.
type SeverityDiff struct {
	Severity   Severity `json:"severity"`
	Common     []string `json:"common"`
	OnlyFirst  []string `json:"only_first"`
	OnlySecond []string `json:"only_second"`
}

// DiffReport is the per-severity symmetric difference of two runs, ordered
// by severity rank.
type DiffReport []SeverityDiff

// ValueRow is one artifact's measured value and threshold for one test in
// one run, used when comparing the numbers of two prior runs.
type ValueRow struct {
	TestName  string   `json:"test_name"`
	Artifact  string   `json:"artifact"`
	Value1    float64  `json:"value_1"`
	Value2    float64  `json:"value_2"`
	Threshold *float64 `json:"threshold,omitempty"`
}
