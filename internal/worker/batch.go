package worker

import (
	"strconv"
	"strings"

	"github.com/walkerscm/cosmosctl/internal/connstr"
)

// Columns locates the inventory fields within a CSV row.
type Columns struct {
	Name             int
	ConnectionString int
}

// NormalizedRow is the outcome of round-tripping one inventory entry.
type NormalizedRow struct {
	Name       string
	Original   string
	Normalized string
	Managed    bool
	Augmented  bool
	Equivalent bool
	Err        string
}

// Record renders the row in the column order of OutputHeaders.
func (r NormalizedRow) Record() []string {
	return []string{r.Name, r.Original, r.Normalized,
		strconv.FormatBool(r.Equivalent), strconv.FormatBool(r.Augmented), r.Err}
}

// OutputHeaders are the columns written by the normalize command.
var OutputHeaders = []string{"name", "connection_string", "normalized", "equivalent", "augmented", "error"}

// NormalizeRow parses cs and rebuilds it. Rows that cannot be parsed or have
// no string form are reported through Err rather than failing the batch.
func NormalizeRow(name, cs string) NormalizedRow {
	row := NormalizedRow{Name: name, Original: cs}

	opts, err := connstr.Parse(cs)
	if err != nil {
		row.Err = err.Error()
		return row
	}
	row.Managed = connstr.IsManagedHost(opts.Server)

	built, ok := connstr.Build(opts)
	if !ok {
		row.Err = "no connection string for " + string(opts.AuthenticationType)
		return row
	}
	row.Normalized = built

	diffs, err := connstr.Diff(cs, built)
	switch {
	case err != nil:
		row.Err = err.Error()
	case len(diffs) == 0:
		row.Equivalent = true
	case row.Managed && connstr.OnlyAugmented(diffs):
		row.Augmented = true
	default:
		row.Err = "rebuilt string differs: " + diffs[0].String()
	}
	return row
}

// ConvertBatch normalizes raw CSV rows using the given column positions.
// Short rows yield an empty connection string, which fails to parse.
func ConvertBatch(rows [][]string, cols Columns) []NormalizedRow {
	result := make([]NormalizedRow, len(rows))
	for i, row := range rows {
		result[i] = NormalizeRow(field(row, cols.Name), field(row, cols.ConnectionString))
	}
	return result
}

func field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
