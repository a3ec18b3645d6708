package aggregator

import (
	"testing"

	"github.com/penwyp/go-cloud-cost-explorer/internal/core/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(p model.Provider, service, date, cost string) model.CostRecord {
	return model.CostRecord{
		Provider: p,
		Service:  service,
		Region:   "us-east-1",
		Date:     model.MustParseDate(date),
		CostUSD:  decimal.RequireFromString(cost),
	}
}

func sample() []model.CostRecord {
	return []model.CostRecord{
		rec(model.ProviderAWS, "EC2", "2024-01-01", "10"),
		rec(model.ProviderAzure, "VM", "2024-01-01", "4.50"),
		rec(model.ProviderAWS, "S3", "2024-01-02", "1.25"),
		rec(model.ProviderAWS, "EC2", "2024-02-10", "12"),
		rec(model.ProviderGCP, "VM", "2024-03-31", "0.75"),
	}
}

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(expected).Equal(actual), "expected %s, got %s", expected, actual)
}

func TestSummarize(t *testing.T) {
	t.Run("period from data", func(t *testing.T) {
		s := Summarize(sample(), model.FilterCriteria{})

		assertDecimal(t, "28.5", s.TotalCost)
		assert.Equal(t, "2024-01-01", s.PeriodStart.String())
		assert.Equal(t, "2024-03-31", s.PeriodEnd.String())
		assert.Equal(t, 3, s.MonthCount)
		assertDecimal(t, "9.5", s.AvgMonthly)
		assert.Equal(t, 3, s.ServiceCount)
		assert.Equal(t, 5, s.RecordCount)
	})

	t.Run("period from criteria", func(t *testing.T) {
		c := model.FilterCriteria{
			StartDate: model.MustParseDate("2023-11-15"),
			EndDate:   model.MustParseDate("2024-04-01"),
		}
		s := Summarize(sample(), c)

		assert.Equal(t, "2023-11-15", s.PeriodStart.String())
		assert.Equal(t, "2024-04-01", s.PeriodEnd.String())
		assert.Equal(t, 6, s.MonthCount)
		assertDecimal(t, "4.75", s.AvgMonthly)
	})

	t.Run("one bound from criteria", func(t *testing.T) {
		s := Summarize(sample(), model.FilterCriteria{EndDate: model.MustParseDate("2024-01-31")})

		assert.Equal(t, "2024-01-01", s.PeriodStart.String())
		assert.Equal(t, 1, s.MonthCount)
	})

	t.Run("empty subset", func(t *testing.T) {
		s := Summarize(nil, model.FilterCriteria{})

		assert.True(t, s.TotalCost.IsZero())
		assert.True(t, s.PeriodStart.IsZero())
		assert.True(t, s.PeriodEnd.IsZero())
		assert.Zero(t, s.MonthCount)
		assert.True(t, s.AvgMonthly.IsZero())
		assert.Zero(t, s.ServiceCount)
	})

	t.Run("empty subset with criteria bounds", func(t *testing.T) {
		s := Summarize(nil, model.FilterCriteria{StartDate: model.MustParseDate("2024-01-01")})

		assert.Zero(t, s.MonthCount, "end bound does not resolve")
	})
}

func TestGroupBy(t *testing.T) {
	rows := GroupBy(sample(), model.GroupKey{model.DimService})

	require.Len(t, rows, 3)
	assert.Equal(t, "EC2", rows[0].Key)
	assertDecimal(t, "22", rows[0].Cost)
	assert.Equal(t, "VM", rows[1].Key)
	assertDecimal(t, "5.25", rows[1].Cost)
	assert.Equal(t, "S3", rows[2].Key)
	assertDecimal(t, "1.25", rows[2].Cost)
}

func TestGroupByComposite(t *testing.T) {
	rows := GroupBy(sample(), model.GroupKey{model.DimService, model.DimProvider})

	keys := make([]string, len(rows))
	for i, r := range rows {
		keys[i] = r.Key
	}
	assert.Equal(t, []string{"EC2 / AWS", "VM / Azure", "S3 / AWS", "VM / GCP"}, keys)
}

func TestCompositeKeysDoNotCollide(t *testing.T) {
	a := rec(model.ProviderAWS, "a / b", "2024-01-01", "1")
	a.Region = "c"
	b := rec(model.ProviderAWS, "a", "2024-01-01", "2")
	b.Region = "b / c"
	key := model.GroupKey{model.DimService, model.DimRegion}

	rows := GroupBy([]model.CostRecord{a, b}, key)
	require.Len(t, rows, 2)
	assertDecimal(t, "1", rows[0].Cost)
	assertDecimal(t, "2", rows[1].Cost)
	assert.Equal(t, "a / b / c", rows[0].Key)

	table := MultiSeries([]model.CostRecord{a, b}, model.GroupKey{model.DimProvider}, key)
	require.Len(t, table.Series, 2)
	require.Len(t, table.Rows, 1)
	assertDecimal(t, "1", table.Rows[0].Values[0])
	assertDecimal(t, "2", table.Rows[0].Values[1])
}

func TestGroupSumsMatchTotal(t *testing.T) {
	records := sample()
	total := Summarize(records, model.FilterCriteria{}).TotalCost

	for _, key := range []model.GroupKey{
		{model.DimService},
		{model.DimProvider},
		{model.DimRegion},
		{model.DimDate},
		{model.DimService, model.DimProvider},
	} {
		sum := decimal.Zero
		for _, row := range GroupBy(records, key) {
			sum = sum.Add(row.Cost)
		}
		assert.True(t, total.Equal(sum), "group by %s: %s != %s", key, sum, total)
	}
}

func TestGroupByIsOrderIndependentWithinGroup(t *testing.T) {
	records := sample()
	reversed := make([]model.CostRecord, len(records))
	for i, r := range records {
		reversed[len(records)-1-i] = r
	}

	forward := map[string]decimal.Decimal{}
	for _, row := range GroupBy(records, model.GroupKey{model.DimService}) {
		forward[row.Key] = row.Cost
	}
	for _, row := range GroupBy(reversed, model.GroupKey{model.DimService}) {
		assert.True(t, forward[row.Key].Equal(row.Cost))
	}
}

func TestSortByCost(t *testing.T) {
	rows := SortByCost([]model.GroupRow{
		{Key: "a", Cost: decimal.NewFromInt(1)},
		{Key: "b", Cost: decimal.NewFromInt(5)},
		{Key: "c", Cost: decimal.NewFromInt(1)},
	})
	assert.Equal(t, "b", rows[0].Key)
	assert.Equal(t, "a", rows[1].Key)
	assert.Equal(t, "c", rows[2].Key)
}

func TestMultiSeries(t *testing.T) {
	table := MultiSeries(sample(), model.GroupKey{model.DimService}, model.GroupKey{model.DimProvider})

	assert.Equal(t, "Service", table.RowLabel)
	assert.Equal(t, []string{"AWS", "Azure", "GCP"}, table.Series)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, "EC2", table.Rows[0].Key)
	assert.Equal(t, "VM", table.Rows[1].Key)
	assert.Equal(t, "S3", table.Rows[2].Key)

	assertDecimal(t, "22", table.Value("EC2", "AWS"))
	assertDecimal(t, "0", table.Value("EC2", "Azure"))
	assertDecimal(t, "4.5", table.Value("VM", "Azure"))
	assertDecimal(t, "0.75", table.Value("VM", "GCP"))
	assertDecimal(t, "5.25", table.Rows[1].Total)

	for _, row := range table.Rows {
		assert.Len(t, row.Values, len(table.Series))
	}
}

func TestMultiSeriesWithoutSeriesIsFlatGroupBy(t *testing.T) {
	key := model.GroupKey{model.DimService}
	table := MultiSeries(sample(), key, nil)
	flat := GroupBy(sample(), key)

	assert.Equal(t, []string{model.SingleSeries}, table.Series)
	require.Len(t, table.Rows, len(flat))
	for i, row := range table.Rows {
		assert.Equal(t, flat[i].Key, row.Key)
		assert.True(t, flat[i].Cost.Equal(row.Values[0]))
		assert.True(t, flat[i].Cost.Equal(row.Total))
	}
}

func TestTimeSeries(t *testing.T) {
	records := []model.CostRecord{
		rec(model.ProviderAWS, "EC2", "2024-01-03", "1"),
		rec(model.ProviderGCP, "GCE", "2024-01-01", "2"),
		rec(model.ProviderAWS, "S3", "2024-01-03", "3"),
		rec(model.ProviderAWS, "EC2", "2024-01-01", "4"),
	}

	t.Run("single series", func(t *testing.T) {
		table := TimeSeries(records, nil)

		assert.Equal(t, "Date", table.RowLabel)
		assert.Equal(t, []string{model.SingleSeries}, table.Series)
		require.Len(t, table.Rows, 2)
		assert.Equal(t, "2024-01-01", table.Rows[0].Key)
		assertDecimal(t, "6", table.Rows[0].Total)
		assert.Equal(t, "2024-01-03", table.Rows[1].Key)
		assertDecimal(t, "4", table.Rows[1].Values[0])
	})

	t.Run("split by provider", func(t *testing.T) {
		split := model.DimProvider
		table := TimeSeries(records, &split)

		assert.Equal(t, []string{"AWS", "GCP"}, table.Series)
		assertDecimal(t, "4", table.Value("2024-01-01", "AWS"))
		assertDecimal(t, "2", table.Value("2024-01-01", "GCP"))
		assertDecimal(t, "0", table.Value("2024-01-03", "GCP"))
	})

	t.Run("empty", func(t *testing.T) {
		table := TimeSeries(nil, nil)
		assert.Empty(t, table.Rows)
		assert.NotNil(t, table.Series)
	})
}

func TestDistinct(t *testing.T) {
	records := sample()
	records = append(records, model.CostRecord{Service: "Support", Date: model.MustParseDate("2024-04-01")})

	assert.Equal(t, []string{"AWS", "Azure", "GCP"}, Distinct(records, model.DimProvider))
	assert.Equal(t, []string{"EC2", "VM", "S3", "Support"}, Distinct(records, model.DimService))
	assert.Empty(t, Distinct(nil, model.DimService))
}

func TestTotal(t *testing.T) {
	assertDecimal(t, "28.5", Total(sample()))
	assert.True(t, Total(nil).IsZero())
}
