package outwriter

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/dmarten/relval/internal/contract"
	"github.com/dmarten/relval/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exportRows() []schema.ExportRow {
	value := 1.234
	threshold := 2.0
	return []schema.ExportRow{
		{
			Artifact:     "sim/tpc/H1",
			TestName:     "chi2",
			Result:       schema.SeverityGood,
			Rank:         0,
			Comparable:   true,
			Value:        &value,
			Threshold:    &threshold,
			TypeGlobal:   "sim",
			TypeSpecific: "sim/tpc",
		},
		{
			Artifact: "H2",
			TestName: "test_summary",
			Result:   schema.SeverityCritNC,
			Rank:     3,
		},
	}
}

func TestWriteExportCSV(t *testing.T) {
	cfg := &contract.Config{Precision: 2}

	var buf bytes.Buffer
	err := writeExportCSV(&buf, exportRows(), cfg)
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{
		"artifact", "test_name", "result", "rank", "comparable",
		"value", "threshold", "type_global", "type_specific",
	}, records[0])
	assert.Equal(t, []string{
		"sim/tpc/H1", "chi2", "GOOD", "0", "true", "1.23", "2.00", "sim", "sim/tpc",
	}, records[1])
	assert.Equal(t, []string{
		"H2", "test_summary", "CRIT_NC", "3", "false", "-", "-", "", "",
	}, records[2])
}

func TestWriteExportTable(t *testing.T) {
	cfg := &contract.Config{Precision: 2, UseColors: false, Width: 120}

	var buf bytes.Buffer
	err := writeExportTable(exportRows(), cfg, &buf)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "Artifact")
	assert.Contains(t, output, "chi2")
	assert.Contains(t, output, "1.23")
	assert.Contains(t, output, "CRIT_NC")
}

func TestFormatOptFloat(t *testing.T) {
	fmtFloat := createFormatters(3)
	assert.Equal(t, "-", formatOptFloat(nil, fmtFloat))
	v := 1.5
	assert.Equal(t, "1.500", formatOptFloat(&v, fmtFloat))
}
