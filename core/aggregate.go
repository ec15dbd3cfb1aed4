package core

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dmarten/relval/schema"
)

// MakeSummary walks the run's output tree, merges every per-task raw result
// document into one global summary and injects the provenance metadata of
// each outcome. Key collisions resolve last-writer-wins over the
// lexicographically sorted document paths; this is a documented contract, not
// an accident. The returned paths list the documents that were merged.
func MakeSummary(outputRoot string) (schema.GlobalSummaryDocument, []string, error) {
	paths, err := findSummaryFiles(outputRoot)
	if err != nil {
		return nil, nil, err
	}

	merged := make(schema.GlobalSummaryDocument)
	for _, p := range paths {
		doc, err := schema.LoadSummary(p)
		if err != nil {
			return nil, nil, err
		}

		relDir, err := filepath.Rel(outputRoot, filepath.Dir(p))
		if err != nil {
			return nil, nil, err
		}
		typeSpecific := filepath.ToSlash(relDir)
		if typeSpecific == "." {
			// Document sits in the output root (plain file-list mode).
			typeSpecific = ""
		}
		typeGlobal := typeSpecific
		if i := strings.Index(typeSpecific, "/"); i >= 0 {
			typeGlobal = typeSpecific[:i]
		}

		for name, outcomes := range doc {
			annotated := make([]schema.TestOutcome, len(outcomes))
			for i, o := range outcomes {
				o.Name = name
				o.TypeGlobal = typeGlobal
				o.TypeSpecific = typeSpecific
				o.RelPathPlot = path.Join(typeSpecific, "overlayPlots", name+".png")
				annotated[i] = o
			}
			merged[name] = annotated
		}
	}
	return merged, paths, nil
}

// findSummaryFiles returns every per-task Summary.json under the output
// root, sorted for a deterministic merge order.
func findSummaryFiles(outputRoot string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(outputRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == schema.SummaryFileName {
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan output tree %s: %w", outputRoot, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// WriteSummary persists a summary document as indented JSON. encoding/json
// sorts map keys, so re-aggregating an unchanged tree reproduces the file
// byte for byte.
func WriteSummary(doc schema.GlobalSummaryDocument, outPath string) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(outPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("cannot write summary %s: %w", outPath, err)
	}
	return nil
}

// WriteRunReport persists the run report next to the global summary.
func WriteRunReport(report *schema.RunReport, outputRoot string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	outPath := filepath.Join(outputRoot, schema.RunReportFileName)
	if err := os.WriteFile(outPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("cannot write run report: %w", err)
	}
	return nil
}

// FindAggregationGaps records a warning for every task that completed
// without leaving the expected raw result document behind.
func FindAggregationGaps(report *schema.RunReport, summaryPaths []string) {
	have := make(map[string]struct{}, len(summaryPaths))
	for _, p := range summaryPaths {
		have[filepath.Dir(p)] = struct{}{}
	}
	for _, t := range report.Tasks {
		if t.Status != schema.TaskOK || t.OutputDir == "" {
			continue
		}
		if _, ok := have[t.OutputDir]; !ok {
			report.Warn("task %s/%s finished without a %s in %s",
				t.Group, t.Name, schema.SummaryFileName, t.OutputDir)
		}
	}
}
