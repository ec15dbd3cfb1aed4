package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dmarten/relval/internal/contract"
	"github.com/dmarten/relval/internal/outwriter"
	"github.com/dmarten/relval/schema"
)

// runMode selects how the inputs are interpreted during dispatch.
type runMode int

const (
	modeFiles runMode = iota // plain artifact files, one grouped task
	modeDirs                 // directory trees driven by a dir config
)

// detectRunMode stats every input on both sides. Mixing files and
// directories on either side is a precondition failure; so is an empty side.
func detectRunMode(cfg *contract.Config) (runMode, error) {
	if len(cfg.Inputs1) == 0 || len(cfg.Inputs2) == 0 {
		return 0, fmt.Errorf("both input sides are required")
	}

	dirs, files := 0, 0
	for _, p := range append(append([]string{}, cfg.Inputs1...), cfg.Inputs2...) {
		info, err := os.Stat(p)
		if err != nil {
			return 0, fmt.Errorf("cannot access input %s: %w", p, err)
		}
		if info.IsDir() {
			dirs++
		} else {
			files++
		}
	}
	switch {
	case files > 0 && dirs > 0:
		return 0, fmt.Errorf("inputs mix files and directories; use all files or all directories")
	case dirs > 0:
		if len(cfg.Inputs1) != 1 || len(cfg.Inputs2) != 1 {
			return 0, fmt.Errorf("directory mode takes exactly one directory per side")
		}
		return modeDirs, nil
	default:
		return modeFiles, nil
	}
}

// runRelVal is the whole-run state machine: prepare thresholds, dispatch
// comparisons, aggregate the per-task summaries and persist the run outputs.
// The returned document is the merged global summary.
func runRelVal(ctx context.Context, cfg *contract.Config, runner contract.ComparisonRunner, report *schema.RunReport) (schema.GlobalSummaryDocument, error) {
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create output directory %s: %w", cfg.OutputDir, err)
	}

	thresholdsPath, err := prepareThresholds(cfg)
	if err != nil {
		return nil, err
	}

	mode, err := detectRunMode(cfg)
	if err != nil {
		return nil, err
	}

	dispatcher := NewDispatcher(cfg, runner, report, thresholdsPath)
	switch mode {
	case modeDirs:
		if err := runDirMode(ctx, cfg, dispatcher); err != nil {
			return nil, err
		}
	default:
		dispatcher.DispatchFiles(ctx, cfg.Inputs1, cfg.Inputs2, cfg.OutputDir)
	}

	doc, summaryPaths, err := MakeSummary(cfg.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := WriteSummary(doc, filepath.Join(cfg.OutputDir, schema.SummaryGlobalFileName)); err != nil {
		return nil, err
	}
	FindAggregationGaps(report, summaryPaths)
	if err := WriteRunReport(report, cfg.OutputDir); err != nil {
		return nil, err
	}
	return doc, nil
}

// runDirMode audits mutual file sizes, then dispatches every rule of the
// directory config. A missing dir config is a precondition failure because
// nothing tells the dispatcher what to compare.
func runDirMode(ctx context.Context, cfg *contract.Config, dispatcher *Dispatcher) error {
	if cfg.DirConfigPath == "" {
		return fmt.Errorf("directory inputs require --dir-config")
	}
	dirCfg, err := schema.LoadDirectoryConfig(cfg.DirConfigPath)
	if err != nil {
		return err
	}
	dirCfg = dirCfg.Filter(cfg.DirConfigEnable, cfg.DirConfigDisable)
	if len(dirCfg.Groups) == 0 {
		contract.LogWarn("no dir-config groups left after enable/disable filtering; nothing to dispatch", nil)
	}

	dir1, dir2 := cfg.Inputs1[0], cfg.Inputs2[0]
	sizeReport, sizeRows, err := AuditFileSizes([]string{dir1, dir2}, cfg.SizeThreshold)
	if err != nil {
		return err
	}
	if err := WriteSizeReport(sizeReport, cfg.OutputDir); err != nil {
		return err
	}
	if err := outwriter.WriteSizeAudit(sizeRows, sizeReport, cfg); err != nil {
		return err
	}

	return dispatcher.DispatchConfig(ctx, dir1, dir2, dirCfg, cfg.OutputDir)
}

// prepareThresholds rebuilds a threshold file from prior summary documents
// when requested. The flag takes a comma-separated list of summary paths;
// when the same artifact/test pair occurs in more than one document the
// largest value wins.
func prepareThresholds(cfg *contract.Config) (string, error) {
	if cfg.UseValuesAsThresholds == "" {
		return "", nil
	}

	type key struct{ artifact, test string }
	best := make(map[key]float64)
	for _, p := range strings.Split(cfg.UseValuesAsThresholds, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		doc, err := schema.LoadSummary(p)
		if err != nil {
			return "", err
		}
		for _, e := range RebuildThresholds(doc) {
			k := key{e.Artifact, e.TestName}
			if v, ok := best[k]; !ok || e.Value > v {
				best[k] = e.Value
			}
		}
	}

	entries := make([]schema.ThresholdEntry, 0, len(best))
	for k, v := range best {
		entries = append(entries, schema.ThresholdEntry{Artifact: k.artifact, TestName: k.test, Value: v})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Artifact != entries[j].Artifact {
			return entries[i].Artifact < entries[j].Artifact
		}
		return entries[i].TestName < entries[j].TestName
	})

	outPath := filepath.Join(cfg.OutputDir, schema.ThresholdsFileName)
	if err := WriteThresholdFile(entries, outPath); err != nil {
		return "", err
	}
	return outPath, nil
}

// resolveSummaryPath maps an inspect/export target to a concrete summary
// file. Directories prefer the merged global document over a single task's
// raw one.
func resolveSummaryPath(target string) (string, error) {
	info, err := os.Stat(target)
	if err != nil {
		return "", fmt.Errorf("cannot access %s: %w", target, err)
	}
	if !info.IsDir() {
		return target, nil
	}
	for _, name := range []string{schema.SummaryGlobalFileName, schema.SummaryFileName} {
		candidate := filepath.Join(target, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no %s or %s found under %s", schema.SummaryGlobalFileName, schema.SummaryFileName, target)
}
