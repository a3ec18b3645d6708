package ingestion

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	awstypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/penwyp/go-cloud-cost-explorer/internal/core/model"
	"github.com/penwyp/go-cloud-cost-explorer/internal/data/source"
	"github.com/penwyp/go-cloud-cost-explorer/internal/data/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCostExplorer struct {
	out    *costexplorer.GetCostAndUsageOutput
	err    error
	inputs []costexplorer.GetCostAndUsageInput
}

func (f *fakeCostExplorer) GetCostAndUsage(_ context.Context, in *costexplorer.GetCostAndUsageInput, _ ...func(*costexplorer.Options)) (*costexplorer.GetCostAndUsageOutput, error) {
	f.inputs = append(f.inputs, *in)
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

func day(date string, groups ...awstypes.Group) awstypes.ResultByTime {
	return awstypes.ResultByTime{
		TimePeriod: &awstypes.DateInterval{Start: aws.String(date), End: aws.String(date)},
		Groups:     groups,
	}
}

func group(service, region, amount string) awstypes.Group {
	return awstypes.Group{
		Keys: []string{service, region},
		Metrics: map[string]awstypes.MetricValue{
			"UnblendedCost": {Amount: aws.String(amount), Unit: aws.String("USD")},
		},
	}
}

func newIngester(t *testing.T, fake *fakeCostExplorer) (*Ingester, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "data")
	in, err := New(source.NewAWSSource(fake, source.GroupByRegion, time.Second), model.ProviderAWS, dir)
	require.NoError(t, err)
	return in, dir
}

func stored(t *testing.T, dir string) []model.CostRecord {
	t.Helper()
	caps, err := model.CapabilitiesFor(model.ProfileAWS)
	require.NoError(t, err)
	raw, err := source.NewFileSource([]string{dir}, caps, 2).Fetch(context.Background(), model.FilterCriteria{})
	require.NoError(t, err)
	return store.Ingest(raw, caps).Records
}

func req(start, end string) Request {
	return Request{Start: model.MustParseDate(start), End: model.MustParseDate(end)}
}

func TestRunWritesYearlyExports(t *testing.T) {
	fake := &fakeCostExplorer{out: &costexplorer.GetCostAndUsageOutput{
		ResultsByTime: []awstypes.ResultByTime{
			day("2024-12-31", group("Amazon EC2", "us-east-1", "1.5")),
			day("2025-01-01", group("Amazon EC2", "us-east-1", "2"), group("Amazon S3", "NoRegion", "abc")),
			day("2025-01-02", group("Amazon S3", "eu-west-1", "0.25")),
		},
	}}
	in, dir := newIngester(t, fake)

	res, err := in.Run(context.Background(), req("2024-12-31", "2025-01-02"))
	require.NoError(t, err)

	assert.Equal(t, model.ProviderAWS, res.Provider)
	assert.Equal(t, 3, res.Count)
	assert.Equal(t, 1, res.Dropped)
	assert.Equal(t, []string{filepath.Join(dir, "aws_2024.csv"), filepath.Join(dir, "aws_2025.csv")}, res.Files)

	require.Len(t, fake.inputs, 1)
	assert.Equal(t, "2024-12-31", *fake.inputs[0].TimePeriod.Start)
	assert.Equal(t, "2025-01-03", *fake.inputs[0].TimePeriod.End)

	records := stored(t, dir)
	require.Len(t, records, 3)
	assert.Equal(t, "2024-12-31", records[0].Date.String())
	assert.Equal(t, model.ProviderAWS, records[0].Provider)
	assert.Equal(t, "us-east-1", records[0].Region)
	assert.Equal(t, "0.25", records[2].CostUSD.String())

	data, err := os.ReadFile(filepath.Join(dir, "aws_2025.csv"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "date,service,region"), string(data))

	leftovers, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestRunReplacesOnlyTheRequestedRange(t *testing.T) {
	fake := &fakeCostExplorer{out: &costexplorer.GetCostAndUsageOutput{
		ResultsByTime: []awstypes.ResultByTime{
			day("2025-01-01", group("Amazon EC2", "us-east-1", "2")),
		},
	}}
	in, dir := newIngester(t, fake)
	require.NoError(t, os.MkdirAll(dir, 0755))
	existing := "date,service,region,cost_usd\n" +
		"2025-01-01,Amazon EC2,us-east-1,9\n" +
		"2025-01-02,Amazon S3,us-east-1,4\n" +
		"2025-03-01,Amazon EC2,us-east-1,7\n"
	require.NoError(t, os.WriteFile(in.Path(2025), []byte(existing), 0644))

	res, err := in.Run(context.Background(), req("2025-01-01", "2025-01-02"))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)

	records := stored(t, dir)
	require.Len(t, records, 2)
	assert.Equal(t, "2025-01-01", records[0].Date.String())
	assert.Equal(t, "2", records[0].CostUSD.String())
	assert.Equal(t, "2025-03-01", records[1].Date.String())
}

func TestRunSkipsEmptyYears(t *testing.T) {
	fake := &fakeCostExplorer{out: &costexplorer.GetCostAndUsageOutput{}}
	in, dir := newIngester(t, fake)

	res, err := in.Run(context.Background(), req("2025-01-01", "2025-01-31"))
	require.NoError(t, err)
	assert.Zero(t, res.Count)
	assert.Empty(t, res.Files)

	_, err = os.Stat(filepath.Join(dir, "aws_2025.csv"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name    string
		request Request
		err     error
		calls   int
	}{
		{name: "missing start", request: Request{End: model.MustParseDate("2025-01-01")}},
		{name: "inverted range", request: req("2025-02-01", "2025-01-01")},
		{name: "fetch failure", request: req("2025-01-01", "2025-01-31"), err: errors.New("access denied"), calls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeCostExplorer{out: &costexplorer.GetCostAndUsageOutput{}, err: tt.err}
			in, dir := newIngester(t, fake)

			_, err := in.Run(context.Background(), tt.request)
			assert.Error(t, err)
			assert.Len(t, fake.inputs, tt.calls)
			_, statErr := os.Stat(dir)
			assert.True(t, errors.Is(statErr, os.ErrNotExist))
		})
	}
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	src := source.NewAWSSource(&fakeCostExplorer{}, source.GroupByRegion, time.Second)

	_, err := New(src, model.Provider("Oracle"), t.TempDir())
	assert.Error(t, err)
	_, err = New(src, model.ProviderAWS, "")
	assert.Error(t, err)
}
