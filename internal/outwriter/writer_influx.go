package outwriter

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dmarten/relval/internal/contract"
	"github.com/dmarten/relval/schema"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteInfluxPoints encodes the global summary as one line-protocol point
// per artifact and writes them to outPath. Points carry no timestamp; the
// ingesting side assigns one at write time.
func WriteInfluxPoints(doc schema.GlobalSummaryDocument, cfg *contract.Config, outPath string) error {
	measurement := contract.DefaultInfluxTableName
	if cfg.TableSuffix != "" {
		measurement += "_" + cfg.TableSuffix
	}

	return writeWithFile(outPath, func(w io.Writer) error {
		for i, name := range doc.ArtifactNames() {
			if len(doc[name]) == 0 {
				continue
			}
			point := influxPoint(measurement, name, i, doc[name], cfg)
			if _, err := io.WriteString(w, write.PointToLineProtocol(point, time.Second)); err != nil {
				return fmt.Errorf("failed to write point for %s: %w", name, err)
			}
		}
		return nil
	}, "Wrote line protocol")
}

// influxPoint builds the point for one artifact: user tags plus provenance
// tags, and one integer severity rank field per test.
func influxPoint(measurement, name string, id int, outcomes []schema.TestOutcome, cfg *contract.Config) *write.Point {
	tags := make(map[string]string, len(cfg.Tags)+4)
	for _, tag := range cfg.Tags {
		tags[tag.Key] = tag.Value
	}
	tags["id"] = strconv.Itoa(id)

	fields := map[string]any{"histogram_name": name}
	for _, o := range outcomes {
		fields[o.TestName] = o.Result.Rank()

		if o.TypeGlobal != "" {
			tags["type_global"] = o.TypeGlobal
		}
		if o.TypeSpecific != "" {
			tags["type_specific"] = o.TypeSpecific
		}
		if cfg.WebStorage != "" && o.RelPathPlot != "" {
			tags["web_storage"] = cfg.WebStorage + "/" + o.RelPathPlot
		}
	}

	return write.NewPoint(measurement, tags, fields, time.Time{})
}
