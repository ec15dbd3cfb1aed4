package schema

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityRank(t *testing.T) {
	assert.Equal(t, 0, SeverityGood.Rank())
	assert.Equal(t, 1, SeverityWarning.Rank())
	assert.Equal(t, 2, SeverityNoncritNC.Rank())
	assert.Equal(t, 3, SeverityCritNC.Rank())
	assert.Equal(t, 4, SeverityBad.Rank())

	// Unknown labels rank worse than anything known.
	assert.Equal(t, 5, Severity("NO_SUCH").Rank())
	assert.False(t, Severity("NO_SUCH").IsValid())
}

func TestAllSeveritiesOrdered(t *testing.T) {
	for i, s := range AllSeverities {
		assert.Equal(t, i, s.Rank())
	}
}

func TestTestOutcomeValidate(t *testing.T) {
	val := 1.2
	tests := []struct {
		name    string
		outcome TestOutcome
		wantErr bool
	}{
		{
			name:    "valid comparable outcome",
			outcome: TestOutcome{TestName: "chi2", Result: SeverityGood, Comparable: true, Value: &val},
		},
		{
			name:    "valid non-comparable outcome",
			outcome: TestOutcome{TestName: "bin_cont", Result: SeverityNoncritNC},
		},
		{
			name:    "missing test name",
			outcome: TestOutcome{Result: SeverityGood},
			wantErr: true,
		},
		{
			name:    "unknown severity",
			outcome: TestOutcome{TestName: "chi2", Result: "MEDIOCRE"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.outcome.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadSummary(t *testing.T) {
	dir := t.TempDir()

	doc := GlobalSummaryDocument{
		"H1": {
			{TestName: "chi2", Result: SeverityGood, Comparable: true},
			{TestName: TestNameSummary, Result: SeverityWarning},
		},
	}
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	path := filepath.Join(dir, SummaryFileName)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	loaded, err := LoadSummary(path)
	require.NoError(t, err)
	assert.Equal(t, doc, loaded)
	assert.Equal(t, []string{"H1"}, loaded.ArtifactNames())
}

func TestLoadSummaryRejectsInvalidOutcome(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, SummaryFileName)
	require.NoError(t, os.WriteFile(path, []byte(`{"H1":[{"test_name":"chi2","result":"SO_SO"}]}`), 0o644))

	_, err := LoadSummary(path)
	assert.Error(t, err)
}

func TestLoadSummaryMissingFile(t *testing.T) {
	_, err := LoadSummary(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestRunReport(t *testing.T) {
	var report RunReport
	report.Add("QC", "hits", "out/QC/hits", TaskOK, "")
	report.Add("QC", "digits", "out/QC/digits", TaskFailed, "exit status 1")
	report.Warn("nothing found for search path %s", "foo/*.root")

	assert.Equal(t, 1, report.CountByStatus(TaskOK))
	assert.Equal(t, 1, report.CountByStatus(TaskFailed))
	assert.Equal(t, 0, report.CountByStatus(TaskTimedOut))
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "foo/*.root")
}
