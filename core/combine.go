package core

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/dmarten/relval/schema"
)

// SyntheticHistogram is a single-bin stand-in for a true histogram, built by
// summing a scalar metric extracted from text log files. The external
// comparison routine accepts these documents in place of binary histogram
// containers.
type SyntheticHistogram struct {
	Entries int     `json:"entries"`
	Sum     float64 `json:"sum"`
}

// buildLogHistograms scans both file lists for the configured patterns and
// writes one synthetic-histogram document per side. Each document maps the
// declared metric names to the accumulated values of their log fields.
func buildLogHistograms(files1, files2 []string, out1, out2 string, lm *schema.LogMetrics) error {
	patterns := make([]*regexp.Regexp, 0, len(lm.Patterns))
	for _, p := range lm.Patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return fmt.Errorf("invalid log pattern %q: %w", p, err)
		}
		patterns = append(patterns, re)
	}

	histos1, err := extractLogMetrics(files1, patterns, lm)
	if err != nil {
		return err
	}
	histos2, err := extractLogMetrics(files2, patterns, lm)
	if err != nil {
		return err
	}

	if err := writeSyntheticHistograms(out1, histos1); err != nil {
		return err
	}
	return writeSyntheticHistograms(out2, histos2)
}

// extractLogMetrics accumulates one synthetic histogram per declared name
// over all given log files.
func extractLogMetrics(files []string, patterns []*regexp.Regexp, lm *schema.LogMetrics) (map[string]SyntheticHistogram, error) {
	histos := make(map[string]SyntheticHistogram, len(lm.Names))
	for _, name := range lm.Names {
		histos[name] = SyntheticHistogram{}
	}

	for _, file := range files {
		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("cannot open log file: %w", err)
		}
		scanner := bufio.NewScanner(f)
		// Simulation logs can carry very long lines.
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			for i, re := range patterns {
				if !re.MatchString(line) {
					continue
				}
				fields := strings.Fields(line)
				idx := lm.Fields[i]
				if idx < 0 || idx >= len(fields) {
					return nil, fmt.Errorf("log line in %s has no field %d for metric %q", file, idx, lm.Names[i])
				}
				value, err := strconv.ParseFloat(fields[idx], 64)
				if err != nil {
					return nil, fmt.Errorf("field %d of matching line in %s is not numeric: %w", idx, file, err)
				}
				h := histos[lm.Names[i]]
				h.Entries++
				h.Sum += value
				histos[lm.Names[i]] = h
			}
		}
		err = scanner.Err()
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to scan log file %s: %w", file, err)
		}
	}
	return histos, nil
}

// writeSyntheticHistograms persists one side's synthetic histograms.
func writeSyntheticHistograms(path string, histos map[string]SyntheticHistogram) error {
	data, err := json.MarshalIndent(histos, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write synthetic histograms: %w", err)
	}
	return nil
}
