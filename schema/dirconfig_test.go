package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `{
  "QC": {
    "tracks": "QC/*Tracks*.root",
    "clusters": {"pattern": "QC/*Clusters*.root", "per_file": true}
  },
  "AOD": {
    "aod": "tf*/AO2D.root"
  },
  "sim_logs": {
    "hits": {
      "pattern": "tf*/sgn*.log",
      "log_metrics": {
        "patterns": ["hits created"],
        "fields": [4],
        "names": ["sim_hits"],
        "combine_patterns": ["tf"]
      }
    }
  }
}`

func TestParseDirectoryConfigPreservesOrder(t *testing.T) {
	cfg, err := ParseDirectoryConfig([]byte(sampleConfig))
	require.NoError(t, err)

	require.Len(t, cfg.Groups, 3)
	assert.Equal(t, "QC", cfg.Groups[0].Name)
	assert.Equal(t, "AOD", cfg.Groups[1].Name)
	assert.Equal(t, "sim_logs", cfg.Groups[2].Name)

	qc := cfg.Groups[0]
	require.Len(t, qc.Rules, 2)
	assert.Equal(t, "tracks", qc.Rules[0].Name)
	assert.Equal(t, "QC/*Tracks*.root", qc.Rules[0].Rule.Pattern)
	assert.False(t, qc.Rules[0].Rule.PerFile)
	assert.Equal(t, "clusters", qc.Rules[1].Name)
	assert.True(t, qc.Rules[1].Rule.PerFile)

	logs := cfg.Groups[2].Rules[0].Rule
	require.NotNil(t, logs.LogMetrics)
	assert.Equal(t, []string{"sim_hits"}, logs.LogMetrics.Names)
	assert.Equal(t, []string{"tf"}, logs.LogMetrics.CombinePatterns)
}

func TestParseDirectoryConfigRejectsDuplicates(t *testing.T) {
	_, err := ParseDirectoryConfig([]byte(`{"QC": {"a": "*.root"}, "QC": {"b": "*.root"}}`))
	assert.Error(t, err)

	_, err = ParseDirectoryConfig([]byte(`{"QC": {"a": "*.root", "a": "*.log"}}`))
	assert.Error(t, err)
}

func TestParseDirectoryConfigRejectsBadRules(t *testing.T) {
	// Missing pattern.
	_, err := ParseDirectoryConfig([]byte(`{"QC": {"a": {"per_file": true}}}`))
	assert.Error(t, err)

	// Misaligned log metrics.
	_, err = ParseDirectoryConfig([]byte(`{"QC": {"a": {
		"pattern": "*.log",
		"log_metrics": {"patterns": ["x"], "fields": [1, 2], "names": ["n"]}
	}}}`))
	assert.Error(t, err)

	// per_file and log_metrics together.
	_, err = ParseDirectoryConfig([]byte(`{"QC": {"a": {
		"pattern": "*.log",
		"per_file": true,
		"log_metrics": {"patterns": ["x"], "fields": [1], "names": ["n"]}
	}}}`))
	assert.Error(t, err)
}

func TestDirectoryConfigFilter(t *testing.T) {
	cfg, err := ParseDirectoryConfig([]byte(sampleConfig))
	require.NoError(t, err)

	// Enable-list only.
	got := cfg.Filter([]string{"AOD", "QC"}, nil)
	require.Len(t, got.Groups, 2)
	assert.Equal(t, "QC", got.Groups[0].Name)
	assert.Equal(t, "AOD", got.Groups[1].Name)

	// Disable takes precedence over enable.
	got = cfg.Filter([]string{"AOD", "QC"}, []string{"QC"})
	require.Len(t, got.Groups, 1)
	assert.Equal(t, "AOD", got.Groups[0].Name)

	// Everything disabled yields an empty config, not an error.
	got = cfg.Filter(nil, []string{"QC", "AOD", "sim_logs"})
	assert.Empty(t, got.Groups)
}

func TestLoadDirectoryConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dirs.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o644))

	cfg, err := LoadDirectoryConfig(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Groups, 3)

	_, err = LoadDirectoryConfig(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
