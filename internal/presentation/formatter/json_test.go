package formatter

import (
	"bytes"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-cloud-cost-explorer/internal/core/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONFormatterRecords(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter().Format(&buf, sampleReport(t)))

	var out struct {
		Query   string             `json:"query"`
		Total   int                `json:"total"`
		HasMore bool               `json:"has_more"`
		Records []model.CostRecord `json:"records"`
		Summary model.Summary      `json:"summary"`
	}
	require.NoError(t, sonic.Unmarshal(buf.Bytes(), &out))

	assert.Equal(t, "provider=AWS", out.Query)
	assert.Equal(t, 5, out.Total)
	assert.True(t, out.HasMore)
	require.Len(t, out.Records, 2)
	assert.Equal(t, "AmazonEC2", out.Records[0].Service)
	assert.True(t, out.Records[0].CostUSD.Equal(decimal.RequireFromString("1200.5")))
	assert.Equal(t, "2025-01-02", out.Records[1].Date.String())
	assert.True(t, out.Summary.TotalCost.Equal(decimal.RequireFromString("1210.5")))
}

func TestJSONFormatterEmptyRecordsIsArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter().Format(&buf, &Report{}))
	assert.Contains(t, buf.String(), `"records": []`)
}

func TestJSONFormatterGrouped(t *testing.T) {
	r := sampleReport(t)
	r.GroupLabel = "Provider"
	r.Groups = []model.GroupRow{{Key: "AWS", Cost: decimal.NewFromInt(3)}}

	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter().Format(&buf, r))
	out := buf.String()

	assert.Contains(t, out, `"group_by": "Provider"`)
	assert.Contains(t, out, `"groups"`)
	assert.NotContains(t, out, `"records"`)
}
