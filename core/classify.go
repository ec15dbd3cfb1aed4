package core

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/dmarten/relval/schema"
)

// Classify buckets every artifact under the severity of its synthetic
// overall-verdict outcome. Artifacts without a test_summary outcome appear
// in no bucket. Buckets for every known severity are always present, possibly
// empty, and their contents are sorted.
func Classify(doc schema.GlobalSummaryDocument) map[schema.Severity][]string {
	buckets := make(map[schema.Severity][]string, len(schema.AllSeverities))
	for _, s := range schema.AllSeverities {
		buckets[s] = []string{}
	}
	for name, outcomes := range doc {
		for _, o := range outcomes {
			if o.TestName != schema.TestNameSummary {
				continue
			}
			buckets[o.Result] = append(buckets[o.Result], name)
		}
	}
	for s := range buckets {
		sort.Strings(buckets[s])
	}
	return buckets
}

// SeverityCounts condenses a classification into per-severity counts.
func SeverityCounts(buckets map[schema.Severity][]string) map[schema.Severity]int {
	counts := make(map[schema.Severity]int, len(buckets))
	for s, names := range buckets {
		counts[s] = len(names)
	}
	return counts
}

// DiffSummaries computes, per severity, the artifacts bucketed at that
// severity in exactly one of the two runs.
func DiffSummaries(first, second schema.GlobalSummaryDocument) schema.DiffReport {
	bucketsA := Classify(first)
	bucketsB := Classify(second)

	report := make(schema.DiffReport, 0, len(schema.AllSeverities))
	for _, sev := range schema.AllSeverities {
		inA := toSet(bucketsA[sev])
		inB := toSet(bucketsB[sev])

		diff := schema.SeverityDiff{
			Severity:   sev,
			Common:     []string{},
			OnlyFirst:  []string{},
			OnlySecond: []string{},
		}
		for name := range inA {
			if _, ok := inB[name]; ok {
				diff.Common = append(diff.Common, name)
			} else {
				diff.OnlyFirst = append(diff.OnlyFirst, name)
			}
		}
		for name := range inB {
			if _, ok := inA[name]; !ok {
				diff.OnlySecond = append(diff.OnlySecond, name)
			}
		}
		sort.Strings(diff.Common)
		sort.Strings(diff.OnlyFirst)
		sort.Strings(diff.OnlySecond)
		report = append(report, diff)
	}
	return report
}

// CompareValues pairs the comparable measured values of two runs per test
// name, restricted to the artifacts present in both.
func CompareValues(first, second schema.GlobalSummaryDocument) []schema.ValueRow {
	type key struct{ test, artifact string }
	values := func(doc schema.GlobalSummaryDocument) map[key]schema.TestOutcome {
		m := make(map[key]schema.TestOutcome)
		for name, outcomes := range doc {
			for _, o := range outcomes {
				if !o.Comparable || o.Value == nil {
					continue
				}
				m[key{o.TestName, name}] = o
			}
		}
		return m
	}

	valuesA := values(first)
	valuesB := values(second)

	var rows []schema.ValueRow
	for k, a := range valuesA {
		b, ok := valuesB[k]
		if !ok {
			continue
		}
		rows = append(rows, schema.ValueRow{
			TestName:  k.test,
			Artifact:  k.artifact,
			Value1:    *a.Value,
			Value2:    *b.Value,
			Threshold: a.Threshold,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TestName != rows[j].TestName {
			return rows[i].TestName < rows[j].TestName
		}
		return rows[i].Artifact < rows[j].Artifact
	})
	return rows
}

// RebuildThresholds extracts one threshold entry per comparable outcome of a
// prior run's summary, skipping non-comparable outcomes entirely.
func RebuildThresholds(doc schema.GlobalSummaryDocument) []schema.ThresholdEntry {
	var entries []schema.ThresholdEntry
	for _, name := range doc.ArtifactNames() {
		for _, o := range doc[name] {
			if !o.Comparable || o.Value == nil {
				continue
			}
			entries = append(entries, schema.ThresholdEntry{
				Artifact: name,
				TestName: o.TestName,
				Value:    *o.Value,
			})
		}
	}
	return entries
}

// WriteThresholdFile persists threshold entries in the line-oriented
// artifact,test_name,value form the external routine consumes.
func WriteThresholdFile(entries []schema.ThresholdEntry, outPath string) error {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%s,%s,%v\n", e.Artifact, e.TestName, e.Value)
	}
	if err := os.WriteFile(outPath, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("cannot write threshold file %s: %w", outPath, err)
	}
	return nil
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}
