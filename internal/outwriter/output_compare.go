package outwriter

import (
	"encoding/csv"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dmarten/relval/internal/contract"
	"github.com/dmarten/relval/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteDiffReport prints the per-severity membership difference between two
// runs, dispatching based on the output format configured.
func WriteDiffReport(diff schema.DiffReport, cfg *contract.Config) error {
	switch cfg.Format {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, diff)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeDiffCSV(w, diff)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeDiffTable(diff, cfg, w)
		}, "Wrote table")
	}
}

// writeDiffTable generates the human-readable severity diff table.
func writeDiffTable(diff schema.DiffReport, cfg *contract.Config, writer io.Writer) error {
	table := tablewriter.NewWriter(writer)
	table.Header([]string{"Severity", "In Both", "Only First", "Only Second"})

	table.Configure(func(tcfg *tablewriter.Config) {
		tcfg.Row.Alignment.Global = tw.AlignLeft
	})

	var data [][]string
	for _, sd := range diff {
		data = append(data, []string{
			contract.GetSeverityLabel(sd.Severity, cfg.UseColors),
			formatNameList(sd.Common),
			formatNameList(sd.OnlyFirst),
			formatNameList(sd.OnlySecond),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// writeDiffCSV writes one row per severity and membership class.
func writeDiffCSV(w io.Writer, diff schema.DiffReport) error {
	return writeCSVWithHeader(w, []string{"severity", "membership", "artifact"}, func(cw *csv.Writer) error {
		for _, sd := range diff {
			classes := []struct {
				label string
				names []string
			}{
				{"both", sd.Common},
				{"only_first", sd.OnlyFirst},
				{"only_second", sd.OnlySecond},
			}
			for _, class := range classes {
				for _, name := range class.names {
					if err := cw.Write([]string{string(sd.Severity), class.label, name}); err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
}

// WriteValueRows writes the side-by-side test values of two runs into the
// given directory, one file named after the format.
func WriteValueRows(rows []schema.ValueRow, cfg *contract.Config, outDir string) error {
	fmtFloat := createFormatters(cfg.Precision)

	if cfg.Format == schema.JSONOut {
		outPath := filepath.Join(outDir, "values.json")
		return writeWithFile(outPath, func(w io.Writer) error {
			return writeJSON(w, rows)
		}, "Wrote JSON")
	}

	outPath := filepath.Join(outDir, "values.csv")
	return writeWithFile(outPath, func(w io.Writer) error {
		return writeCSVWithHeader(w, []string{"test_name", "artifact", "value_1", "value_2", "threshold"}, func(cw *csv.Writer) error {
			for _, r := range rows {
				threshold := ""
				if r.Threshold != nil {
					threshold = fmtFloat(*r.Threshold)
				}
				rec := []string{r.TestName, r.Artifact, fmtFloat(r.Value1), fmtFloat(r.Value2), threshold}
				if err := cw.Write(rec); err != nil {
					return err
				}
			}
			return nil
		})
	}, "Wrote CSV")
}

// formatNameList joins artifact names for one table cell, keeping the cell
// readable when a bucket is large.
func formatNameList(names []string) string {
	const maxShown = 8
	if len(names) == 0 {
		return "-"
	}
	if len(names) <= maxShown {
		return strings.Join(names, "\n")
	}
	shown := append([]string{}, names[:maxShown]...)
	shown = append(shown, "(+"+strconv.Itoa(len(names)-maxShown)+" more)")
	return strings.Join(shown, "\n")
}
