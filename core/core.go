// Package core has the orchestration logic for release-validation runs:
// matching, size auditing, dispatch, aggregation and classification.
package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmarten/relval/internal/contract"
	"github.com/dmarten/relval/internal/outwriter"
	"github.com/dmarten/relval/internal/parquet"
	"github.com/dmarten/relval/internal/runstore"
	"github.com/dmarten/relval/schema"
)

// ExecutorFunc defines the function signature for executing different
// relval modes.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config) error

// ExecuteRelVal runs a full comparison between the two input sides and
// prints the per-severity verdict. It serves as the main entry point for
// the 'rel-val' mode.
func ExecuteRelVal(ctx context.Context, cfg *contract.Config) error {
	// Every comparison shells out to the macro; a missing one would fail
	// each task individually and let the run finish empty.
	if cfg.MacroPath == "" {
		return fmt.Errorf("no comparison macro configured, set macro-path")
	}

	start := time.Now()
	store, runID := beginHistory(cfg, start)
	if store != nil {
		defer func() { _ = store.Close() }()
	}

	runner := contract.NewLocalMacroRunner(cfg)
	report := &schema.RunReport{}
	doc, err := runRelVal(ctx, cfg, runner, report)
	if err != nil {
		return err
	}

	buckets := Classify(doc)
	counts := SeverityCounts(buckets)
	endHistory(store, runID, counts, report)

	duration := time.Since(start)
	return outwriter.WriteRunOutcome(buckets, report, cfg, duration)
}

// ExecuteInspect classifies an existing summary document and prints the
// per-severity artifact buckets. The target is either a summary file or a
// run directory.
func ExecuteInspect(_ context.Context, cfg *contract.Config) error {
	path, err := resolveSummaryPath(cfg.Dir)
	if err != nil {
		return err
	}
	doc, err := schema.LoadSummary(path)
	if err != nil {
		return err
	}
	buckets := Classify(doc)
	if cfg.SelectCritical {
		for severity := range buckets {
			if !severity.IsCritical() {
				delete(buckets, severity)
			}
		}
	}
	return outwriter.WriteSeverityBuckets(buckets, cfg)
}

// ExecuteCompare diffs two prior run outputs. With no mode flag set, both
// the severity difference and the value comparison are produced.
func ExecuteCompare(_ context.Context, cfg *contract.Config) error {
	if len(cfg.Inputs1) != 1 || len(cfg.Inputs2) != 1 {
		return fmt.Errorf("compare takes exactly one run directory per side")
	}
	dir1, dir2 := cfg.Inputs1[0], cfg.Inputs2[0]

	difference, compareValues := cfg.Difference, cfg.CompareValues
	if !difference && !compareValues {
		difference, compareValues = true, true
	}

	if difference {
		first, err := schema.LoadSummary(filepath.Join(dir1, schema.SummaryGlobalFileName))
		if err != nil {
			return err
		}
		second, err := schema.LoadSummary(filepath.Join(dir2, schema.SummaryGlobalFileName))
		if err != nil {
			return err
		}
		if err := outwriter.WriteDiffReport(DiffSummaries(first, second), cfg); err != nil {
			return err
		}
	}

	if compareValues {
		if err := compareRunValues(cfg, dir1, dir2); err != nil {
			return err
		}
	}
	return nil
}

// compareRunValues matches every per-task summary present in both run trees
// and writes one value table per match under the compare output directory.
func compareRunValues(cfg *contract.Config, dir1, dir2 string) error {
	mutual, err := FindMutualFiles([]string{dir1, dir2}, schema.SummaryFileName, nil)
	if err != nil {
		return err
	}
	if len(mutual) == 0 {
		contract.LogWarn("no mutual summary files found; nothing to compare", nil)
		return nil
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("cannot create output directory %s: %w", cfg.OutputDir, err)
	}

	for _, rel := range mutual {
		first, err := schema.LoadSummary(filepath.Join(dir1, filepath.FromSlash(rel)))
		if err != nil {
			return err
		}
		second, err := schema.LoadSummary(filepath.Join(dir2, filepath.FromSlash(rel)))
		if err != nil {
			return err
		}
		rows := CompareValues(first, second)
		if len(rows) == 0 {
			continue
		}

		label := strings.ReplaceAll(strings.TrimSuffix(rel, "/"+schema.SummaryFileName), "/", "_")
		if label == schema.SummaryFileName {
			label = "run"
		}
		outDir := filepath.Join(cfg.OutputDir, label+"_dir")
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("cannot create %s: %w", outDir, err)
		}
		if err := outwriter.WriteValueRows(rows, cfg, outDir); err != nil {
			return err
		}
	}
	return nil
}

// ExecuteInflux encodes the run's global summary as line protocol and writes
// it next to the summary document.
func ExecuteInflux(_ context.Context, cfg *contract.Config) error {
	doc, err := schema.LoadSummary(filepath.Join(cfg.Dir, schema.SummaryGlobalFileName))
	if err != nil {
		return err
	}
	outPath := cfg.OutputFile
	if outPath == "" {
		outPath = filepath.Join(cfg.Dir, schema.InfluxFileName)
	}
	return outwriter.WriteInfluxPoints(doc, cfg, outPath)
}

// ExecuteExport flattens the run's global summary to one row per test
// outcome, in the configured machine format.
func ExecuteExport(_ context.Context, cfg *contract.Config) error {
	path, err := resolveSummaryPath(cfg.Dir)
	if err != nil {
		return err
	}
	doc, err := schema.LoadSummary(path)
	if err != nil {
		return err
	}
	rows := schema.FlattenOutcomes(doc)

	if cfg.Format == schema.ParquetOut {
		outPath := cfg.OutputFile
		if outPath == "" {
			outPath = filepath.Join(cfg.Dir, "relval_export.parquet")
		}
		return parquet.WriteOutcomeRows(rows, outPath)
	}
	return outwriter.WriteExportRows(rows, cfg)
}

// beginHistory opens the run-history store and records the run start.
// Tracking is best-effort: any failure downgrades to a warning and the run
// proceeds untracked.
func beginHistory(cfg *contract.Config, start time.Time) (contract.HistoryStore, int64) {
	if cfg.HistoryBackend == schema.NoneBackend {
		return nil, 0
	}
	store, err := runstore.Open(cfg)
	if err != nil {
		contract.LogWarn("run history disabled", err)
		return nil, 0
	}
	runID, err := store.BeginRun(start, strings.Join(cfg.Inputs1, ","), strings.Join(cfg.Inputs2, ","), cfg.OutputDir)
	if err != nil {
		contract.LogWarn("failed to record run start", err)
		_ = store.Close()
		return nil, 0
	}
	return store, runID
}

// endHistory finalizes the run record when tracking is active.
func endHistory(store contract.HistoryStore, runID int64, counts map[schema.Severity]int, report *schema.RunReport) {
	if store == nil {
		return
	}
	failed := report.CountByStatus(schema.TaskFailed) + report.CountByStatus(schema.TaskTimedOut)
	if err := store.EndRun(runID, time.Now(), counts, len(report.Tasks), failed); err != nil {
		contract.LogWarn("failed to record run end", err)
	}
}
