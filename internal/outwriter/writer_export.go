package outwriter

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/dmarten/relval/internal/contract"
	"github.com/dmarten/relval/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteExportRows outputs the flattened test outcomes, dispatching based on
// the output format configured. Parquet export is handled by the caller.
func WriteExportRows(rows []schema.ExportRow, cfg *contract.Config) error {
	switch cfg.Format {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, rows)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeExportCSV(w, rows, cfg)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeExportTable(rows, cfg, w)
		}, "Wrote table")
	}
}

// writeExportCSV writes one CSV record per flattened outcome.
func writeExportCSV(w io.Writer, rows []schema.ExportRow, cfg *contract.Config) error {
	fmtFloat := createFormatters(cfg.Precision)
	header := []string{
		"artifact",
		"test_name",
		"result",
		"rank",
		"comparable",
		"value",
		"threshold",
		"type_global",
		"type_specific",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range rows {
			rec := []string{
				r.Artifact,
				r.TestName,
				string(r.Result),
				strconv.Itoa(r.Rank),
				strconv.FormatBool(r.Comparable),
				formatOptFloat(r.Value, fmtFloat),
				formatOptFloat(r.Threshold, fmtFloat),
				r.TypeGlobal,
				r.TypeSpecific,
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeExportTable generates the human-readable outcome table.
func writeExportTable(rows []schema.ExportRow, cfg *contract.Config, writer io.Writer) error {
	fmtFloat := createFormatters(cfg.Precision)
	table := tablewriter.NewWriter(writer)
	table.Header([]string{"Artifact", "Test", "Result", "Value", "Threshold"})

	table.Configure(func(tcfg *tablewriter.Config) {
		tcfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, r := range rows {
		data = append(data, []string{
			contract.TruncatePath(r.Artifact, getMaxTablePathWidth(cfg)),
			r.TestName,
			contract.GetSeverityLabel(r.Result, cfg.UseColors),
			formatOptFloat(r.Value, fmtFloat),
			formatOptFloat(r.Threshold, fmtFloat),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// formatOptFloat renders an optional float, "-" when absent.
func formatOptFloat(v *float64, fmtFloat func(float64) string) string {
	if v == nil {
		return "-"
	}
	return fmtFloat(*v)
}
