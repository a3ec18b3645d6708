package filter

import (
	"testing"

	"github.com/penwyp/go-cloud-cost-explorer/internal/core/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(p model.Provider, service, region, date string, cost int64) model.CostRecord {
	return model.CostRecord{
		Provider: p,
		Service:  service,
		Region:   region,
		Date:     model.MustParseDate(date),
		CostUSD:  decimal.NewFromInt(cost),
	}
}

func sample() []model.CostRecord {
	return []model.CostRecord{
		rec(model.ProviderAWS, "EC2", "us-east-1", "2024-01-01", 10),
		rec(model.ProviderAWS, "S3", "us-east-1", "2024-01-02", 2),
		rec(model.ProviderAzure, "VM", "westeurope", "2024-01-15", 7),
		rec(model.ProviderGCP, "Compute Engine", "us-central1", "2024-01-31", 4),
		rec(model.ProviderAWS, "EC2", "eu-west-1", "2024-02-01", 11),
		rec(model.ProviderAWS, "EC2", "us-east-1", "2024-03-01", 12),
	}
}

func services(records []model.CostRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Service + "@" + r.Date.String()
	}
	return out
}

func TestApply(t *testing.T) {
	tests := []struct {
		name     string
		criteria model.FilterCriteria
		expected []string
	}{
		{
			name:     "empty criteria keeps everything",
			criteria: model.FilterCriteria{},
			expected: []string{"EC2@2024-01-01", "S3@2024-01-02", "VM@2024-01-15", "Compute Engine@2024-01-31", "EC2@2024-02-01", "EC2@2024-03-01"},
		},
		{
			name:     "provider equality",
			criteria: model.FilterCriteria{Provider: model.ProviderAWS},
			expected: []string{"EC2@2024-01-01", "S3@2024-01-02", "EC2@2024-02-01", "EC2@2024-03-01"},
		},
		{
			name:     "service and region",
			criteria: model.FilterCriteria{Service: "EC2", Region: "us-east-1"},
			expected: []string{"EC2@2024-01-01", "EC2@2024-03-01"},
		},
		{
			name: "inclusive date range",
			criteria: model.FilterCriteria{
				StartDate: model.MustParseDate("2024-01-02"),
				EndDate:   model.MustParseDate("2024-01-31"),
			},
			expected: []string{"S3@2024-01-02", "VM@2024-01-15", "Compute Engine@2024-01-31"},
		},
		{
			name:     "open-ended start",
			criteria: model.FilterCriteria{StartDate: model.MustParseDate("2024-02-01")},
			expected: []string{"EC2@2024-02-01", "EC2@2024-03-01"},
		},
		{
			name:     "open-ended end",
			criteria: model.FilterCriteria{EndDate: model.MustParseDate("2024-01-01")},
			expected: []string{"EC2@2024-01-01"},
		},
		{
			name:     "service match is exact",
			criteria: model.FilterCriteria{Service: "ec2"},
			expected: []string{},
		},
		{
			name: "inverted range is empty",
			criteria: model.FilterCriteria{
				StartDate: model.MustParseDate("2024-03-01"),
				EndDate:   model.MustParseDate("2024-01-01"),
			},
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(sample(), tt.criteria)
			require.NotNil(t, got)
			assert.Equal(t, tt.expected, services(got))
			assert.Equal(t, len(tt.expected), Count(sample(), tt.criteria))
		})
	}
}

func TestApplySoundness(t *testing.T) {
	records := sample()
	criteria := []model.FilterCriteria{
		{Provider: model.ProviderAWS, StartDate: model.MustParseDate("2024-01-02")},
		{Service: "EC2", EndDate: model.MustParseDate("2024-02-01")},
		{Region: "us-east-1"},
	}

	for _, c := range criteria {
		got := Apply(records, c)
		kept := make(map[string]bool, len(got))
		for _, r := range got {
			assert.True(t, c.Matches(r))
			kept[r.Key()] = true
		}
		for _, r := range records {
			if !kept[r.Key()] {
				assert.False(t, c.Matches(r), "%s was wrongly excluded", r.Key())
			}
		}
	}
}

func TestApplyDoesNotAliasInput(t *testing.T) {
	records := sample()
	got := Apply(records, model.FilterCriteria{})
	got[0].Service = "changed"
	assert.Equal(t, "EC2", records[0].Service)
}
