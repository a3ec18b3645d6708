package model

import "github.com/shopspring/decimal"

// Summary holds the scalar metrics of a filtered subset.
type Summary struct {
	TotalCost    decimal.Decimal `json:"total_cost"`
	PeriodStart  Date            `json:"period_start"`
	PeriodEnd    Date            `json:"period_end"`
	MonthCount   int             `json:"month_count"`
	AvgMonthly   decimal.Decimal `json:"avg_monthly"`
	ServiceCount int             `json:"service_count"`
	RecordCount  int             `json:"record_count"`
}

// GroupRow is one bar of a grouped-by-dimension projection.
type GroupRow struct {
	Key  string          `json:"key"`
	Cost decimal.Decimal `json:"cost"`
}

// SeriesTable is a row-by-series matrix of summed costs, the shape
// stacked bar and multi-line charts consume.
type SeriesTable struct {
	RowLabel string      `json:"row_label"`
	Series   []string    `json:"series"`
	Rows     []SeriesRow `json:"rows"`
}

// SeriesRow carries one sum per entry of SeriesTable.Series, same order.
type SeriesRow struct {
	Key    string            `json:"key"`
	Values []decimal.Decimal `json:"values"`
	Total  decimal.Decimal   `json:"total"`
}

// Value looks up the sum for (row, series); missing combinations are zero.
func (t SeriesTable) Value(row, series string) decimal.Decimal {
	col := -1
	for i, s := range t.Series {
		if s == series {
			col = i
			break
		}
	}
	if col < 0 {
		return decimal.Zero
	}
	for _, r := range t.Rows {
		if r.Key == row {
			return r.Values[col]
		}
	}
	return decimal.Zero
}

// SingleSeries is the series name used when no split dimension is given.
const SingleSeries = "cost"
