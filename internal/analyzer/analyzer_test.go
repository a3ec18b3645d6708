package analyzer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/penwyp/go-cloud-cost-explorer/internal/core/model"
	"github.com/penwyp/go-cloud-cost-explorer/internal/data/store"
	"github.com/penwyp/go-cloud-cost-explorer/internal/presentation/formatter"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	raw    []store.RawRecord
	err    error
	fields []model.Field
	scope  model.FilterCriteria
}

func (s *stubSource) Name() string                { return "stub" }
func (s *stubSource) ServerFields() []model.Field { return s.fields }

func (s *stubSource) Fetch(_ context.Context, scope model.FilterCriteria) ([]store.RawRecord, error) {
	s.scope = scope
	return s.raw, s.err
}

func caps(t *testing.T, p model.Profile) model.Capabilities {
	t.Helper()
	c, err := model.CapabilitiesFor(p)
	require.NoError(t, err)
	return c
}

// billing builds n lines cycling over providers and two services
func billing(n int) []store.RawRecord {
	out := make([]store.RawRecord, n)
	for i := range out {
		out[i] = store.RawRecord{
			Provider: store.V([]string{"AWS", "Azure", "GCP"}[i%3]),
			Service:  store.V([]string{"Compute", "Storage"}[i%2]),
			Date:     store.V(fmt.Sprintf("2025-02-%02d", 1+i%28)),
			CostUSD:  store.V(fmt.Sprintf("%d", 10*(i+1))),
		}
	}
	return out
}

func TestNewRejectsBadOptions(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{name: "unknown output", config: Config{OutputFormat: "xml"}},
		{name: "unknown group dimension", config: Config{GroupBy: "colour"}},
		{name: "unknown series", config: Config{Series: "colour"}},
		{name: "negative limit", config: Config{Limit: -1}},
		{name: "dimension missing on view", config: Config{GroupBy: "region"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.config
			cfg.Capabilities = caps(t, model.ProfileUnified)
			_, err := New(&cfg, &stubSource{})
			assert.Error(t, err)
		})
	}
}

func TestLoadRevealsLimitedBatches(t *testing.T) {
	tests := []struct {
		limit    int
		expected int
		hasMore  bool
	}{
		{limit: 0, expected: 25, hasMore: false},
		{limit: 1, expected: 10, hasMore: true},
		{limit: 2, expected: 20, hasMore: true},
		{limit: 5, expected: 25, hasMore: false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("limit %d", tt.limit), func(t *testing.T) {
			a, err := New(&Config{
				Capabilities: caps(t, model.ProfileUnified),
				Limit:        tt.limit,
				BatchSize:    10,
			}, &stubSource{raw: billing(25)})
			require.NoError(t, err)

			snap, err := a.Load(context.Background())
			require.NoError(t, err)
			assert.Len(t, snap.Visible, tt.expected)
			assert.Equal(t, tt.hasMore, snap.HasMore)
		})
	}
}

func TestLoadAppliesQueryAndOverrides(t *testing.T) {
	src := &stubSource{raw: billing(12), fields: []model.Field{model.FieldService}}
	a, err := New(&Config{
		Capabilities: caps(t, model.ProfileUnified),
		Query:        "provider=AWS&service=Storage",
		Overrides:    model.FilterCriteria{Service: "Compute"},
	}, src)
	require.NoError(t, err)

	snap, err := a.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Compute", src.scope.Service)
	assert.Empty(t, src.scope.Provider, "provider is not server-filterable here")
	assert.Equal(t, "provider=AWS&service=Compute", snap.Query)
	for _, r := range snap.Filtered {
		assert.Equal(t, model.ProviderAWS, r.Provider)
		assert.Equal(t, "Compute", r.Service)
	}
	assert.Len(t, snap.Filtered, 2)
}

func TestLoadFetchError(t *testing.T) {
	src := &stubSource{err: &model.FetchError{Source: "stub", Status: 502, Err: errors.New("bad gateway")}}
	a, err := New(&Config{Capabilities: caps(t, model.ProfileUnified)}, src)
	require.NoError(t, err)

	_, err = a.Load(context.Background())
	var fe *model.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 502, fe.Status)
}

func TestBuildReportGrouped(t *testing.T) {
	a, err := New(&Config{
		Capabilities: caps(t, model.ProfileUnified),
		GroupBy:      "service",
	}, &stubSource{raw: billing(6)})
	require.NoError(t, err)

	snap, err := a.Load(context.Background())
	require.NoError(t, err)
	report := a.BuildReport(snap)

	require.True(t, report.Grouped())
	assert.Equal(t, "Service", report.GroupLabel)
	require.Len(t, report.Groups, 2)
	// Storage: 20+40+60, Compute: 10+30+50
	assert.Equal(t, "Storage", report.Groups[0].Key)
	assert.True(t, report.Groups[0].Cost.Equal(decimal.NewFromInt(120)))
	assert.True(t, report.Groups[1].Cost.Equal(decimal.NewFromInt(90)))

	assert.Equal(t, []string{"AWS", "Azure", "GCP"}, report.Series.Series)
	assert.Equal(t, 6, report.Total)
}

func TestBuildReportDateSeries(t *testing.T) {
	a, err := New(&Config{
		Capabilities: caps(t, model.ProfileAWS),
		GroupBy:      "date",
	}, &stubSource{raw: billing(4)})
	require.NoError(t, err)

	snap, err := a.Load(context.Background())
	require.NoError(t, err)
	report := a.BuildReport(snap)

	assert.Equal(t, []string{model.SingleSeries}, report.Series.Series)
	require.Len(t, report.Series.Rows, 4)
	assert.Equal(t, "2025-02-01", report.Series.Rows[0].Key)
}

func TestRunWritesReport(t *testing.T) {
	a, err := New(&Config{
		Capabilities: caps(t, model.ProfileUnified),
		OutputFormat: formatter.OutputTable,
		Query:        "provider=GCP",
	}, &stubSource{raw: billing(9)})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, a.Run(context.Background(), &buf))
	assert.Contains(t, buf.String(), "Query: ?provider=GCP")
	assert.Contains(t, buf.String(), "Showing 3 of 3 records")
}
