package formatter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/penwyp/go-cloud-cost-explorer/internal/core/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(provider model.Provider, date, service, cost string) model.CostRecord {
	return model.CostRecord{
		Provider: provider,
		Date:     model.MustParseDate(date),
		Service:  service,
		CostUSD:  decimal.RequireFromString(cost),
	}
}

func sampleReport(t *testing.T) *Report {
	t.Helper()
	caps, err := model.CapabilitiesFor(model.ProfileUnified)
	require.NoError(t, err)

	records := []model.CostRecord{
		record(model.ProviderAWS, "2025-01-01", "AmazonEC2", "1200.5"),
		record(model.ProviderGCP, "2025-01-02", "Compute Engine", "10"),
	}
	return &Report{
		Capabilities: caps,
		Query:        "provider=AWS",
		Records:      records,
		Total:        5,
		HasMore:      true,
		Summary: model.Summary{
			TotalCost:    decimal.RequireFromString("1210.5"),
			PeriodStart:  model.MustParseDate("2025-01-01"),
			PeriodEnd:    model.MustParseDate("2025-01-02"),
			MonthCount:   1,
			AvgMonthly:   decimal.RequireFromString("1210.5"),
			ServiceCount: 2,
			RecordCount:  2,
		},
	}
}

func TestTableFormatterRecords(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTableFormatter().Format(&buf, sampleReport(t)))
	out := buf.String()

	for _, want := range []string{"Provider", "Date", "Service", "Cost (USD)", "AmazonEC2", "$1,200.50", "$10.00", "$1,210.50", "Showing 2 of 5 records", "(more available)", "Query: ?provider=AWS"} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "Region")
}

func TestTableFormatterAlignsRows(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTableFormatter().Format(&buf, sampleReport(t)))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	width := -1
	for _, line := range lines {
		if !strings.HasPrefix(line, "│") && !strings.HasPrefix(line, "┌") && !strings.HasPrefix(line, "├") && !strings.HasPrefix(line, "└") {
			continue
		}
		n := len([]rune(line))
		if width < 0 {
			width = n
		}
		assert.Equal(t, width, n, line)
	}
}

func TestTableFormatterGrouped(t *testing.T) {
	r := sampleReport(t)
	r.GroupLabel = "Service"
	r.Groups = []model.GroupRow{
		{Key: "AmazonEC2", Cost: decimal.RequireFromString("1200.5")},
		{Key: "Compute Engine", Cost: decimal.NewFromInt(10)},
	}

	var buf bytes.Buffer
	require.NoError(t, NewTableFormatter().Format(&buf, r))
	out := buf.String()

	assert.Contains(t, out, "Service")
	assert.Contains(t, out, "$1,210.50")
	assert.NotContains(t, out, "Showing")
	assert.NotContains(t, out, "Provider")
}

func TestTableFormatterEmpty(t *testing.T) {
	caps, err := model.CapabilitiesFor(model.ProfileAWS)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, NewTableFormatter().Format(&buf, &Report{Capabilities: caps}))
	out := buf.String()

	assert.Contains(t, out, "Usage Type")
	assert.Contains(t, out, "$0.00")
	assert.Contains(t, out, "Showing 0 of 0 records")
	assert.NotContains(t, out, "Query:")
}

func TestNewFormatter(t *testing.T) {
	for _, name := range []string{"", OutputTable, OutputJSON, OutputCSV, OutputSummary, OutputChart} {
		f, err := New(name)
		require.NoError(t, err, name)
		assert.NotNil(t, f)
	}
	_, err := New("xml")
	assert.Error(t, err)
}
