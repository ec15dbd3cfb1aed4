// Package parquet exports flattened test outcomes to Parquet files using
// github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"

	"github.com/dmarten/relval/schema"
	"github.com/parquet-go/parquet-go"
)

// OutcomeRow is the Parquet row shape for one flattened test outcome.
type OutcomeRow struct {
	// Artifact is the histogram or synthetic metric name
	Artifact string `parquet:"artifact,snappy"`

	// TestName is the statistical test that produced this outcome
	TestName string `parquet:"test_name,snappy"`

	// Result is the severity label assigned by the comparison routine
	Result string `parquet:"result,snappy"`

	// Rank is the numeric rank of the severity (0 best)
	Rank int32 `parquet:"rank,snappy"`

	// Comparable reports whether Value and Threshold are meaningful
	Comparable bool `parquet:"comparable,snappy"`

	// Value is the computed test statistic (nullable)
	Value *float64 `parquet:"value,optional,snappy"`

	// Threshold is the decision threshold applied (nullable)
	Threshold *float64 `parquet:"threshold,optional,snappy"`

	// TypeGlobal is the top-level group the artifact came from
	TypeGlobal string `parquet:"type_global,snappy"`

	// TypeSpecific is the full group path the artifact came from
	TypeSpecific string `parquet:"type_specific,snappy"`
}

// WriteOutcomeRows writes flattened outcomes to a Parquet file.
func WriteOutcomeRows(rows []schema.ExportRow, outputPath string) error {
	data := make([]OutcomeRow, len(rows))
	for i, r := range rows {
		data[i] = OutcomeRow{
			Artifact:     r.Artifact,
			TestName:     r.TestName,
			Result:       string(r.Result),
			Rank:         int32(r.Rank),
			Comparable:   r.Comparable,
			Value:        r.Value,
			Threshold:    r.Threshold,
			TypeGlobal:   r.TypeGlobal,
			TypeSpecific: r.TypeSpecific,
		}
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// Schema is inferred from the OutcomeRow struct tags
	writer := parquet.NewGenericWriter[OutcomeRow](file)
	defer func() { _ = writer.Close() }()

	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	return nil
}
