package core

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/dmarten/relval/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeRawSummary places a raw result document at relDir/Summary.json under
// the output root.
func writeRawSummary(t *testing.T, root, relDir string, doc schema.RawResultDocument) {
	t.Helper()
	dir := filepath.Join(root, filepath.FromSlash(relDir))
	require.NoError(t, os.MkdirAll(dir, 0o755))
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, schema.SummaryFileName), data, 0o644))
}

func TestMakeSummary_InjectsProvenance(t *testing.T) {
	root := t.TempDir()
	writeRawSummary(t, root, "sim/tpc", schema.RawResultDocument{
		"H1": {summaryOutcome(schema.SeverityGood)},
	})

	merged, paths, err := MakeSummary(root)
	require.NoError(t, err)
	require.Len(t, paths, 1)

	outcomes := merged["H1"]
	require.Len(t, outcomes, 1)
	assert.Equal(t, "H1", outcomes[0].Name)
	assert.Equal(t, "sim", outcomes[0].TypeGlobal)
	assert.Equal(t, "sim/tpc", outcomes[0].TypeSpecific)
	assert.Equal(t, "sim/tpc/overlayPlots/H1.png", outcomes[0].RelPathPlot)
}

func TestMakeSummary_CollisionLastWriterWins(t *testing.T) {
	root := t.TempDir()
	writeRawSummary(t, root, "a", schema.RawResultDocument{
		"H1": {summaryOutcome(schema.SeverityGood)},
	})
	writeRawSummary(t, root, "b", schema.RawResultDocument{
		"H1": {summaryOutcome(schema.SeverityBad)},
	})

	merged, paths, err := MakeSummary(root)
	require.NoError(t, err)
	require.Len(t, paths, 2)

	// Documents merge in sorted path order, so "b" overwrites "a".
	require.Len(t, merged["H1"], 1)
	assert.Equal(t, schema.SeverityBad, merged["H1"][0].Result)
	assert.Equal(t, "b", merged["H1"][0].TypeSpecific)
}

func TestMakeSummary_RootLevelDocument(t *testing.T) {
	root := t.TempDir()
	writeRawSummary(t, root, ".", schema.RawResultDocument{
		"H1": {summaryOutcome(schema.SeverityGood)},
	})

	merged, _, err := MakeSummary(root)
	require.NoError(t, err)
	require.Len(t, merged["H1"], 1)
	assert.Equal(t, "", merged["H1"][0].TypeGlobal)
	assert.Equal(t, "overlayPlots/H1.png", merged["H1"][0].RelPathPlot)
}

func TestWriteSummary_Idempotent(t *testing.T) {
	root := t.TempDir()
	writeRawSummary(t, root, "sim", schema.RawResultDocument{
		"H1": {summaryOutcome(schema.SeverityGood)},
		"H2": {summaryOutcome(schema.SeverityWarning)},
	})

	merged, _, err := MakeSummary(root)
	require.NoError(t, err)

	outPath := filepath.Join(root, schema.SummaryGlobalFileName)
	require.NoError(t, WriteSummary(merged, outPath))
	first, err := os.ReadFile(outPath)
	require.NoError(t, err)

	merged2, _, err := MakeSummary(root)
	require.NoError(t, err)
	require.NoError(t, WriteSummary(merged2, outPath))
	second, err := os.ReadFile(outPath)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestFindAggregationGaps(t *testing.T) {
	root := t.TempDir()
	okDir := filepath.Join(root, "good")
	writeRawSummary(t, root, "good", schema.RawResultDocument{
		"H1": {summaryOutcome(schema.SeverityGood)},
	})
	gapDir := filepath.Join(root, "gap")

	report := &schema.RunReport{}
	report.Add("g", "good", okDir, schema.TaskOK, "")
	report.Add("g", "gap", gapDir, schema.TaskOK, "")
	report.Add("g", "failed", filepath.Join(root, "failed"), schema.TaskFailed, "boom")

	_, paths, err := MakeSummary(root)
	require.NoError(t, err)

	FindAggregationGaps(report, paths)
	// Only the OK task without a document warrants a warning.
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "gap")
}

func TestWriteRunReport(t *testing.T) {
	root := t.TempDir()
	report := &schema.RunReport{}
	report.Add("g", "r", "out", schema.TaskOK, "")
	require.NoError(t, WriteRunReport(report, root))

	data, err := os.ReadFile(filepath.Join(root, schema.RunReportFileName))
	require.NoError(t, err)

	var loaded schema.RunReport
	require.NoError(t, json.Unmarshal(data, &loaded))
	require.Len(t, loaded.Tasks, 1)
	assert.Equal(t, schema.TaskOK, loaded.Tasks[0].Status)
}
