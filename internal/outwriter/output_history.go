package outwriter

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/dmarten/relval/internal/contract"
	"github.com/dmarten/relval/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteHistoryRuns prints recent tracked runs, dispatching based on the
// output format configured.
func WriteHistoryRuns(records []schema.RunRecord, cfg *contract.Config) error {
	switch cfg.Format {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, records)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeHistoryCSV(w, records)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeHistoryTable(records, cfg, w)
		}, "Wrote table")
	}
}

// writeHistoryTable generates the human-readable run table, newest first.
func writeHistoryTable(records []schema.RunRecord, cfg *contract.Config, writer io.Writer) error {
	table := tablewriter.NewWriter(writer)
	table.Header([]string{"ID", "Started", "Duration", "Output", "Tasks", "Failed", "Bad"})

	table.Configure(func(tcfg *tablewriter.Config) {
		tcfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, r := range records {
		data = append(data, []string{
			strconv.FormatInt(r.RunID, 10),
			r.StartTime.Format("2006-01-02 15:04:05"),
			formatRunDuration(r),
			contract.TruncatePath(r.OutputDir, getMaxTablePathWidth(cfg)),
			strconv.Itoa(r.TotalTasks),
			strconv.Itoa(r.FailedTasks),
			strconv.Itoa(r.SeverityCounts[schema.SeverityBad]),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// writeHistoryCSV writes one CSV record per tracked run.
func writeHistoryCSV(w io.Writer, records []schema.RunRecord) error {
	header := []string{"run_id", "start_time", "end_time", "input1", "input2", "output_dir", "total_tasks", "failed_tasks", "bad_artifacts"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range records {
			endTime := ""
			if r.EndTime != nil {
				endTime = r.EndTime.Format(time.RFC3339)
			}
			rec := []string{
				strconv.FormatInt(r.RunID, 10),
				r.StartTime.Format(time.RFC3339),
				endTime,
				r.Input1,
				r.Input2,
				r.OutputDir,
				strconv.Itoa(r.TotalTasks),
				strconv.Itoa(r.FailedTasks),
				strconv.Itoa(r.SeverityCounts[schema.SeverityBad]),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// formatRunDuration renders the run duration, "-" for runs that never ended.
func formatRunDuration(r schema.RunRecord) string {
	if r.EndTime == nil {
		return "-"
	}
	return r.EndTime.Sub(r.StartTime).Round(time.Second).String()
}
