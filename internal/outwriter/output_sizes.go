package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dmarten/relval/internal/contract"
	"github.com/dmarten/relval/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteSizeAudit outputs the size-divergence audit, dispatching based on the
// output format configured. Parquet has no size-audit shape and falls back to
// the table.
func WriteSizeAudit(rows []schema.SizeRow, report *schema.SizeReport, cfg *contract.Config) error {
	switch cfg.Format {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, report)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSizeCSV(w, rows)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSizeTable(rows, report, cfg, w)
		}, "Wrote table")
	}
}

// writeSizeTable generates and writes the human-readable size table.
func writeSizeTable(rows []schema.SizeRow, report *schema.SizeReport, cfg *contract.Config, writer io.Writer) error {
	table := tablewriter.NewWriter(writer)

	headers := []string{"Path"}
	for i := range report.Directories {
		headers = append(headers, fmt.Sprintf("Size %d (B)", i+1))
	}
	headers = append(headers, "Flagged")
	table.Header(headers)

	table.Configure(func(tcfg *tablewriter.Config) {
		tcfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, r := range rows {
		row := []string{contract.TruncatePath(r.Path, getMaxTablePathWidth(cfg))}
		for _, size := range r.Sizes {
			row = append(row, strconv.FormatInt(size, 10))
		}
		row = append(row, formatFlaggedPairs(r.FlaggedPairs))
		data = append(data, row)
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(writer, "Checked %d mutual files, %d above relative threshold %v\n",
		len(rows), len(report.Files), report.Threshold)
	return err
}

// writeSizeCSV writes the size audit in CSV format, one row per mutual file.
func writeSizeCSV(w io.Writer, rows []schema.SizeRow) error {
	return writeCSVWithHeader(w, []string{"path", "sizes", "flagged_pairs"}, func(cw *csv.Writer) error {
		for _, r := range rows {
			sizes := make([]string, len(r.Sizes))
			for i, s := range r.Sizes {
				sizes[i] = strconv.FormatInt(s, 10)
			}
			rec := []string{r.Path, strings.Join(sizes, "|"), formatFlaggedPairs(r.FlaggedPairs)}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// formatFlaggedPairs renders flagged index pairs as "1-2,1-3", 1-based for
// human consumption, or "-" when the row is clean.
func formatFlaggedPairs(pairs [][2]int) string {
	if len(pairs) == 0 {
		return "-"
	}
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = fmt.Sprintf("%d-%d", p[0]+1, p[1]+1)
	}
	return strings.Join(parts, ",")
}
