package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmarten/relval/schema"
)

// AuditFileSizes compares the byte sizes of mutual artifact files across the
// given trees. Only paths with at least one flagged tree pair end up in the
// report mapping; the returned rows echo every matched path.
func AuditFileSizes(trees []string, threshold float64) (*schema.SizeReport, []schema.SizeRow, error) {
	intersection, err := FindMutualFiles(trees, "*.root", nil)
	if err != nil {
		return nil, nil, err
	}

	report := &schema.SizeReport{
		Directories: trees,
		Files:       make(map[string][]int64),
		Threshold:   threshold,
	}
	rows := make([]schema.SizeRow, 0, len(intersection))

	for _, rel := range intersection {
		sizes := make([]int64, 0, len(trees))
		for _, tree := range trees {
			info, err := os.Stat(filepath.Join(tree, filepath.FromSlash(rel)))
			if err != nil {
				return nil, nil, fmt.Errorf("cannot stat %s under %s: %w", rel, tree, err)
			}
			sizes = append(sizes, info.Size())
		}

		flagged := exceedingPairs(sizes, threshold)
		if len(flagged) > 0 {
			report.Files[rel] = sizes
		}
		rows = append(rows, schema.SizeRow{Path: rel, Sizes: sizes, FlaggedPairs: flagged})
	}

	return report, rows, nil
}

// WriteSizeReport persists the audit result as JSON next to the run's other
// artifacts.
func WriteSizeReport(report *schema.SizeReport, outputRoot string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode size report: %w", err)
	}
	outPath := filepath.Join(outputRoot, schema.FileSizesFileName)
	if err := os.WriteFile(outPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	return nil
}

// exceedingPairs returns the index pairs whose relative size difference
// strictly exceeds the threshold. The denominator is always the second
// operand of the pair; this asymmetry is part of the published contract and
// must not be symmetrized.
func exceedingPairs(sizes []int64, threshold float64) [][2]int {
	var pairs [][2]int
	for i := 0; i < len(sizes); i++ {
		for j := i + 1; j < len(sizes); j++ {
			diff := sizes[i] - sizes[j]
			if diff < 0 {
				diff = -diff
			}
			if float64(diff)/float64(sizes[j]) > threshold {
				pairs = append(pairs, [2]int{i, j})
			}
		}
	}
	return pairs
}
