package schema

// ExportRow is one flattened test outcome for the tabular exports. Every
// outcome of every artifact becomes exactly one row.
type ExportRow struct {
	Artifact     string   `json:"artifact"`
	TestName     string   `json:"test_name"`
	Result       Severity `json:"result"`
	Rank         int      `json:"rank"`
	Comparable   bool     `json:"comparable"`
	Value        *float64 `json:"value,omitempty"`
	Threshold    *float64 `json:"threshold,omitempty"`
	TypeGlobal   string   `json:"type_global,omitempty"`
	TypeSpecific string   `json:"type_specific,omitempty"`
}

// FlattenOutcomes turns a summary document into export rows, ordered by
// artifact name and then by outcome position within the artifact.
func FlattenOutcomes(doc GlobalSummaryDocument) []ExportRow {
	rows := make([]ExportRow, 0, len(doc))
	for _, name := range doc.ArtifactNames() {
		for _, o := range doc[name] {
			rows = append(rows, ExportRow{
				Artifact:     name,
				TestName:     o.TestName,
				Result:       o.Result,
				Rank:         o.Result.Rank(),
				Comparable:   o.Comparable,
				Value:        o.Value,
				Threshold:    o.Threshold,
				TypeGlobal:   o.TypeGlobal,
				TypeSpecific: o.TypeSpecific,
			})
		}
	}
	return rows
}
