package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dmarten/relval/internal/contract"
	"github.com/dmarten/relval/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteRunOutcome prints the per-severity verdict of a finished run together
// with the task tally, dispatching based on the output format configured.
func WriteRunOutcome(buckets map[schema.Severity][]string, report *schema.RunReport, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Format {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, runOutcomeDocument(buckets, report))
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSeverityCSV(w, buckets)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			if err := writeSeverityTable(buckets, cfg, w); err != nil {
				return err
			}
			return writeTaskTally(report, duration, w)
		}, "Wrote table")
	}
}

// WriteSeverityBuckets prints severity buckets of an existing summary,
// including the artifact names per bucket.
func WriteSeverityBuckets(buckets map[schema.Severity][]string, cfg *contract.Config) error {
	switch cfg.Format {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, buckets)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeBucketCSV(w, buckets)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			if err := writeSeverityTable(buckets, cfg, w); err != nil {
				return err
			}
			return writeBucketListing(buckets, cfg, w)
		}, "Wrote table")
	}
}

// writeSeverityTable generates the severity-count table, worst severities
// last so they sit right above the prompt.
func writeSeverityTable(buckets map[schema.Severity][]string, cfg *contract.Config, writer io.Writer) error {
	table := tablewriter.NewWriter(writer)
	table.Header([]string{"Severity", "Count"})

	table.Configure(func(tcfg *tablewriter.Config) {
		tcfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, severity := range schema.AllSeverities {
		if cfg.SelectCritical && !severity.IsCritical() {
			continue
		}
		data = append(data, []string{
			contract.GetSeverityLabel(severity, cfg.UseColors),
			strconv.Itoa(len(buckets[severity])),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// writeBucketListing prints the artifact names underneath the count table,
// skipping empty buckets.
func writeBucketListing(buckets map[schema.Severity][]string, cfg *contract.Config, writer io.Writer) error {
	for _, severity := range schema.AllSeverities {
		names := buckets[severity]
		if len(names) == 0 {
			continue
		}
		if _, err := fmt.Fprintf(writer, "\n%s:\n", contract.GetSeverityLabel(severity, cfg.UseColors)); err != nil {
			return err
		}
		for _, name := range names {
			if _, err := fmt.Fprintf(writer, "  %s\n", name); err != nil {
				return err
			}
		}
	}
	return nil
}

// writeTaskTally summarizes the dispatch outcome after the severity table.
func writeTaskTally(report *schema.RunReport, duration time.Duration, writer io.Writer) error {
	_, err := fmt.Fprintf(writer, "Dispatched %d tasks (%d ok, %d failed, %d timed out, %d warnings) in %v\n",
		len(report.Tasks),
		report.CountByStatus(schema.TaskOK),
		report.CountByStatus(schema.TaskFailed),
		report.CountByStatus(schema.TaskTimedOut),
		report.CountByStatus(schema.TaskWarning),
		duration)
	return err
}

// writeSeverityCSV writes severity counts in CSV format.
func writeSeverityCSV(w io.Writer, buckets map[schema.Severity][]string) error {
	return writeCSVWithHeader(w, []string{"severity", "rank", "count"}, func(cw *csv.Writer) error {
		for _, severity := range schema.AllSeverities {
			rec := []string{
				string(severity),
				strconv.Itoa(severity.Rank()),
				strconv.Itoa(len(buckets[severity])),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeBucketCSV writes one CSV row per artifact with its severity.
func writeBucketCSV(w io.Writer, buckets map[schema.Severity][]string) error {
	return writeCSVWithHeader(w, []string{"severity", "rank", "artifact"}, func(cw *csv.Writer) error {
		for _, severity := range schema.AllSeverities {
			for _, name := range buckets[severity] {
				rec := []string{string(severity), strconv.Itoa(severity.Rank()), name}
				if err := cw.Write(rec); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// runOutcomeDocument is the JSON shape of a finished run's verdict.
func runOutcomeDocument(buckets map[schema.Severity][]string, report *schema.RunReport) map[string]any {
	counts := make(map[schema.Severity]int, len(buckets))
	for severity, names := range buckets {
		counts[severity] = len(names)
	}
	return map[string]any{
		"severity_counts": counts,
		"artifacts":       buckets,
		"tasks":           report.Tasks,
		"warnings":        report.Warnings,
	}
}
