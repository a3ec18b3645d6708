package aggregator

import (
	"sort"

	"github.com/penwyp/go-cloud-cost-explorer/internal/core/model"
	"github.com/shopspring/decimal"
)

// accumulator sums costs per group ID and remembers first-appearance order,
// so a fold is a single pass with map lookups instead of repeated linear
// search. keys holds the display label of each slot.
type accumulator struct {
	index map[string]int
	keys  []string
	sums  []decimal.Decimal
}

func newAccumulator() *accumulator {
	return &accumulator{index: make(map[string]int)}
}

// slot returns the position of id, registering it with label on first sight.
func (a *accumulator) slot(id, label string) int {
	if i, ok := a.index[id]; ok {
		return i
	}
	i := len(a.keys)
	a.index[id] = i
	a.keys = append(a.keys, label)
	a.sums = append(a.sums, decimal.Zero)
	return i
}

func (a *accumulator) add(id, label string, v decimal.Decimal) {
	i := a.slot(id, label)
	a.sums[i] = a.sums[i].Add(v)
}

// Total sums the cost of every record.
func Total(records []model.CostRecord) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.CostUSD)
	}
	return total
}

// Summarize computes the scalar metrics of a filtered subset. The period
// bounds come from the criteria when set and from the subset's extreme
// dates otherwise.
func Summarize(records []model.CostRecord, c model.FilterCriteria) model.Summary {
	s := model.Summary{
		TotalCost:   decimal.Zero,
		AvgMonthly:  decimal.Zero,
		RecordCount: len(records),
	}

	var minDate, maxDate model.Date
	services := make(map[string]struct{})
	for i, r := range records {
		s.TotalCost = s.TotalCost.Add(r.CostUSD)
		services[r.Service] = struct{}{}
		if i == 0 || r.Date.Before(minDate) {
			minDate = r.Date
		}
		if i == 0 || r.Date.After(maxDate) {
			maxDate = r.Date
		}
	}
	s.ServiceCount = len(services)

	s.PeriodStart = c.StartDate
	if s.PeriodStart.IsZero() {
		s.PeriodStart = minDate
	}
	s.PeriodEnd = c.EndDate
	if s.PeriodEnd.IsZero() {
		s.PeriodEnd = maxDate
	}

	s.MonthCount = model.MonthSpan(s.PeriodStart, s.PeriodEnd)
	if s.MonthCount > 0 {
		s.AvgMonthly = s.TotalCost.Div(decimal.NewFromInt(int64(s.MonthCount)))
	}
	return s
}

// GroupBy sums cost per group key value, ordered by first appearance.
func GroupBy(records []model.CostRecord, key model.GroupKey) []model.GroupRow {
	acc := newAccumulator()
	for _, r := range records {
		acc.add(key.ID(r), key.Value(r), r.CostUSD)
	}

	rows := make([]model.GroupRow, len(acc.keys))
	for i, k := range acc.keys {
		rows[i] = model.GroupRow{Key: k, Cost: acc.sums[i]}
	}
	return rows
}

// SortByCost orders group rows by descending cost, keeping first-appearance
// order among equal sums.
func SortByCost(rows []model.GroupRow) []model.GroupRow {
	out := make([]model.GroupRow, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Cost.GreaterThan(out[j].Cost)
	})
	return out
}

// MultiSeries builds a row × series matrix: one row per distinct rowKey
// value and one column per distinct seriesKey value, both in first-appearance
// order. Combinations that never occur are zero. A nil seriesKey yields a
// single "cost" column, which is the flat grouped sum.
func MultiSeries(records []model.CostRecord, rowKey, seriesKey model.GroupKey) model.SeriesTable {
	return build(records, rowKey, seriesKey, false)
}

// TimeSeries builds one row per distinct date, ascending, optionally split
// per a secondary dimension.
func TimeSeries(records []model.CostRecord, split *model.Dimension) model.SeriesTable {
	var seriesKey model.GroupKey
	if split != nil {
		seriesKey = model.GroupKey{*split}
	}
	return build(records, model.GroupKey{model.DimDate}, seriesKey, true)
}

func build(records []model.CostRecord, rowKey, seriesKey model.GroupKey, byDate bool) model.SeriesTable {
	rows := newAccumulator()
	series := newAccumulator()
	cells := make(map[[2]int]decimal.Decimal)

	for _, r := range records {
		row := rows.slot(rowKey.ID(r), rowKey.Value(r))
		rows.sums[row] = rows.sums[row].Add(r.CostUSD)

		id, name := model.SingleSeries, model.SingleSeries
		if len(seriesKey) > 0 {
			id, name = seriesKey.ID(r), seriesKey.Value(r)
		}
		col := series.slot(id, name)

		cell := [2]int{row, col}
		cells[cell] = cells[cell].Add(r.CostUSD)
	}

	order := make([]int, len(rows.keys))
	for i := range order {
		order[i] = i
	}
	if byDate {
		// ISO dates sort lexically in calendar order.
		sort.SliceStable(order, func(i, j int) bool {
			return rows.keys[order[i]] < rows.keys[order[j]]
		})
	}

	table := model.SeriesTable{
		RowLabel: rowKey.Label(),
		Series:   series.keys,
		Rows:     make([]model.SeriesRow, len(order)),
	}
	if table.Series == nil {
		table.Series = []string{}
	}
	for i, row := range order {
		values := make([]decimal.Decimal, len(series.keys))
		for col := range values {
			values[col] = cells[[2]int{row, col}]
		}
		table.Rows[i] = model.SeriesRow{
			Key:    rows.keys[row],
			Values: values,
			Total:  rows.sums[row],
		}
	}
	return table
}

// Distinct lists the values of dim present in records, in first-appearance
// order. Empty values are skipped.
func Distinct(records []model.CostRecord, dim model.Dimension) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, r := range records {
		v := dim.Value(r)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
