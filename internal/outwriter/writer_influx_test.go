package outwriter

import (
	"testing"
	"time"

	"github.com/dmarten/relval/internal/contract"
	"github.com/dmarten/relval/schema"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfluxPoint(t *testing.T) {
	outcomes := []schema.TestOutcome{
		{
			TestName:     "chi2",
			Result:       schema.SeverityGood,
			Comparable:   true,
			Name:         "H1",
			TypeGlobal:   "sim",
			TypeSpecific: "sim/tpc",
			RelPathPlot:  "sim/tpc/overlayPlots/H1.png",
		},
		{TestName: "test_summary", Result: schema.SeverityBad},
	}
	cfg := &contract.Config{
		Tags:       []contract.Tag{{Key: "release", Value: "v1"}},
		WebStorage: "https://qa.example.org/plots",
	}

	point := influxPoint("ReleaseValidation", "H1", 3, outcomes, cfg)
	line := write.PointToLineProtocol(point, time.Second)

	assert.Contains(t, line, "ReleaseValidation,")
	assert.Contains(t, line, "release=v1")
	assert.Contains(t, line, "id=3")
	assert.Contains(t, line, "type_global=sim")
	assert.Contains(t, line, "type_specific=sim/tpc")
	assert.Contains(t, line, "web_storage=https://qa.example.org/plots/sim/tpc/overlayPlots/H1.png")
	assert.Contains(t, line, `histogram_name="H1"`)
	assert.Contains(t, line, "chi2=0i")
	assert.Contains(t, line, "test_summary=4i")
	// Points carry no timestamp so the ingesting side can assign one.
	assert.Equal(t, "\n", line[len(line)-1:])
	assert.NotRegexp(t, ` \d+\n$`, line)
}

func TestWriteInfluxPoints_SkipsArtifactsWithoutOutcomes(t *testing.T) {
	doc := schema.GlobalSummaryDocument{
		"H1": {},
		"H2": {{TestName: "test_summary", Result: schema.SeverityGood, Name: "H2"}},
	}
	outPath := t.TempDir() + "/influxDB.dat"

	require.NoError(t, WriteInfluxPoints(doc, &contract.Config{}, outPath))

	data, err := readLines(outPath)
	require.NoError(t, err)
	require.Len(t, data, 1)
	assert.Contains(t, data[0], `histogram_name="H2"`)
}

func TestWriteInfluxPoints_SortedAndSuffixed(t *testing.T) {
	doc := schema.GlobalSummaryDocument{
		"H2": {{TestName: "test_summary", Result: schema.SeverityGood, Name: "H2"}},
		"H1": {{TestName: "test_summary", Result: schema.SeverityWarning, Name: "H1"}},
	}
	outPath := t.TempDir() + "/influxDB.dat"
	cfg := &contract.Config{TableSuffix: "async"}

	require.NoError(t, WriteInfluxPoints(doc, cfg, outPath))

	data, err := readLines(outPath)
	require.NoError(t, err)
	require.Len(t, data, 2)
	assert.Contains(t, data[0], "ReleaseValidation_async")
	assert.Contains(t, data[0], `histogram_name="H1"`)
	assert.Contains(t, data[0], "id=0")
	assert.Contains(t, data[1], `histogram_name="H2"`)
	assert.Contains(t, data[1], "id=1")
}
