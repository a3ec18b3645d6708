package formatter

import (
	"fmt"
	"io"

	"github.com/penwyp/go-cloud-cost-explorer/internal/core/model"
)

// Report is everything a formatter may print for one view.
type Report struct {
	Capabilities model.Capabilities
	Query        string

	// Records is the revealed prefix of the filtered subset; Total is the
	// subset size.
	Records []model.CostRecord
	Total   int
	HasMore bool

	Summary model.Summary

	// Groups is set when the report is grouped; GroupLabel heads its key column.
	Groups     []model.GroupRow
	GroupLabel string

	// Series feeds the chart output.
	Series model.SeriesTable
}

// Grouped reports whether the report carries a grouped projection.
func (r *Report) Grouped() bool {
	return r.GroupLabel != ""
}

// Formatter writes a report to w
type Formatter interface {
	Format(w io.Writer, r *Report) error
}

// Output names
const (
	OutputTable   = "table"
	OutputJSON    = "json"
	OutputCSV     = "csv"
	OutputSummary = "summary"
	OutputChart   = "chart"
)

// New returns the formatter for the named output.
func New(output string) (Formatter, error) {
	switch output {
	case OutputTable, "":
		return NewTableFormatter(), nil
	case OutputJSON:
		return NewJSONFormatter(), nil
	case OutputCSV:
		return NewCSVFormatter(), nil
	case OutputSummary:
		return NewSummaryFormatter(), nil
	case OutputChart:
		return NewChartFormatter(0), nil
	}
	return nil, fmt.Errorf("unsupported output format: %s", output)
}

// recordRow renders a record as cells in column order.
func recordRow(r model.CostRecord, cols []model.Dimension) []string {
	row := make([]string, len(cols))
	for i, d := range cols {
		row[i] = d.Value(r)
	}
	return row
}

func columnLabels(cols []model.Dimension) []string {
	labels := make([]string, len(cols))
	for i, d := range cols {
		labels[i] = d.Label()
	}
	return labels
}
