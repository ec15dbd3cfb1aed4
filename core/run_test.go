package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dmarten/relval/internal/contract"
	"github.com/dmarten/relval/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectRunMode(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.root")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	t.Run("files", func(t *testing.T) {
		cfg := &contract.Config{Inputs1: []string{file}, Inputs2: []string{file}}
		mode, err := detectRunMode(cfg)
		require.NoError(t, err)
		assert.Equal(t, modeFiles, mode)
	})

	t.Run("dirs", func(t *testing.T) {
		cfg := &contract.Config{Inputs1: []string{dir}, Inputs2: []string{dir}}
		mode, err := detectRunMode(cfg)
		require.NoError(t, err)
		assert.Equal(t, modeDirs, mode)
	})

	t.Run("mixed", func(t *testing.T) {
		cfg := &contract.Config{Inputs1: []string{file}, Inputs2: []string{dir}}
		_, err := detectRunMode(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "mix")
	})

	t.Run("empty side", func(t *testing.T) {
		cfg := &contract.Config{Inputs1: []string{file}}
		_, err := detectRunMode(cfg)
		require.Error(t, err)
	})

	t.Run("multiple dirs per side", func(t *testing.T) {
		cfg := &contract.Config{Inputs1: []string{dir, dir}, Inputs2: []string{dir}}
		_, err := detectRunMode(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exactly one directory")
	})

	t.Run("missing input", func(t *testing.T) {
		cfg := &contract.Config{
			Inputs1: []string{filepath.Join(dir, "nope.root")},
			Inputs2: []string{file},
		}
		_, err := detectRunMode(cfg)
		require.Error(t, err)
	})
}

func TestPrepareThresholds_LargestValueWins(t *testing.T) {
	priorDir := t.TempDir()
	doc1 := schema.GlobalSummaryDocument{
		"H1": {{TestName: "chi2", Result: schema.SeverityGood, Comparable: true, Value: floatPtr(1.5)}},
	}
	doc2 := schema.GlobalSummaryDocument{
		"H1": {{TestName: "chi2", Result: schema.SeverityBad, Comparable: true, Value: floatPtr(3.25)}},
		"H2": {{TestName: "num_entries", Result: schema.SeverityGood, Comparable: true, Value: floatPtr(0.5)}},
	}
	p1 := filepath.Join(priorDir, "first.json")
	p2 := filepath.Join(priorDir, "second.json")
	require.NoError(t, WriteSummary(doc1, p1))
	require.NoError(t, WriteSummary(doc2, p2))

	cfg := &contract.Config{
		OutputDir:             t.TempDir(),
		UseValuesAsThresholds: p1 + "," + p2,
	}
	outPath, err := prepareThresholds(cfg)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.OutputDir, schema.ThresholdsFileName), outPath)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "H1,chi2,3.25\nH2,num_entries,0.5\n", string(data))
}

func TestPrepareThresholds_DisabledByDefault(t *testing.T) {
	cfg := &contract.Config{OutputDir: t.TempDir()}
	outPath, err := prepareThresholds(cfg)
	require.NoError(t, err)
	assert.Empty(t, outPath)
}

func TestResolveSummaryPath(t *testing.T) {
	dir := t.TempDir()
	global := filepath.Join(dir, schema.SummaryGlobalFileName)
	raw := filepath.Join(dir, schema.SummaryFileName)
	require.NoError(t, os.WriteFile(raw, []byte("{}"), 0o644))

	// Only the raw document exists.
	got, err := resolveSummaryPath(dir)
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	// The merged document takes precedence once present.
	require.NoError(t, os.WriteFile(global, []byte("{}"), 0o644))
	got, err = resolveSummaryPath(dir)
	require.NoError(t, err)
	assert.Equal(t, global, got)

	// A file target resolves to itself.
	got, err = resolveSummaryPath(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	// An empty directory has nothing to offer.
	_, err = resolveSummaryPath(t.TempDir())
	require.Error(t, err)
}

func TestExecuteRelVal_EmptyMacroPathFails(t *testing.T) {
	inDir := t.TempDir()
	f := filepath.Join(inDir, "a.root")
	require.NoError(t, os.WriteFile(f, []byte("x"), 0o644))

	cfg := &contract.Config{
		Inputs1:        []string{f},
		Inputs2:        []string{f},
		OutputDir:      t.TempDir(),
		Workers:        2,
		TestMask:       schema.TestAll,
		HistoryBackend: schema.NoneBackend,
	}

	err := ExecuteRelVal(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "macro-path")
	// Nothing was dispatched and no summary was produced.
	assert.NoFileExists(t, filepath.Join(cfg.OutputDir, schema.SummaryGlobalFileName))
}

func TestRunRelVal_FilesMode(t *testing.T) {
	inDir := t.TempDir()
	f1 := filepath.Join(inDir, "a.root")
	f2 := filepath.Join(inDir, "b.root")
	require.NoError(t, os.WriteFile(f1, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(f2, []byte("y"), 0o644))

	cfg := &contract.Config{
		Inputs1:   []string{f1},
		Inputs2:   []string{f2},
		OutputDir: filepath.Join(t.TempDir(), "rel_val"),
		Workers:   2,
		TestMask:  schema.TestAll,
	}
	runner := &fakeRunner{}
	report := &schema.RunReport{}

	doc, err := runRelVal(context.Background(), cfg, runner, report)
	require.NoError(t, err)
	require.Contains(t, doc, "H1")
	assert.Equal(t, "H1", doc["H1"][0].Name)
	assert.Equal(t, "overlayPlots/H1.png", doc["H1"][0].RelPathPlot)

	assert.FileExists(t, filepath.Join(cfg.OutputDir, schema.SummaryGlobalFileName))
	assert.FileExists(t, filepath.Join(cfg.OutputDir, schema.RunReportFileName))
	assert.Equal(t, 1, report.CountByStatus(schema.TaskOK))
	assert.Empty(t, report.Warnings)
}
