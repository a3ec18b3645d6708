package source

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	awstypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/penwyp/go-cloud-cost-explorer/internal/core/model"
	"github.com/penwyp/go-cloud-cost-explorer/internal/data/store"
	"github.com/penwyp/go-cloud-cost-explorer/internal/util"
)

const (
	costMetric = "UnblendedCost"
	// defaultLookbackDays is used when the scope has no start date.
	defaultLookbackDays = 30
	// maxCostExplorerPages guards against a token that never runs out.
	maxCostExplorerPages = 100
)

// Second grouping dimension for Cost Explorer queries.
const (
	GroupByRegion  = "REGION"
	GroupByAccount = "LINKED_ACCOUNT"
)

// CostExplorerAPI is the subset of the Cost Explorer client AWSSource uses.
type CostExplorerAPI interface {
	GetCostAndUsage(ctx context.Context, params *costexplorer.GetCostAndUsageInput, optFns ...func(*costexplorer.Options)) (*costexplorer.GetCostAndUsageOutput, error)
}

// AWSSource reads daily unblended cost per service from AWS Cost Explorer.
type AWSSource struct {
	client  CostExplorerAPI
	groupBy string
	timeout time.Duration
	now     func() time.Time
}

// NewCostExplorerClient creates a client from the default credential chain.
func NewCostExplorerClient(ctx context.Context) (*costexplorer.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return costexplorer.NewFromConfig(cfg), nil
}

// NewAWSSource creates a Cost Explorer source. groupBy is GroupByRegion or
// GroupByAccount and decides which optional record field gets filled.
func NewAWSSource(client CostExplorerAPI, groupBy string, timeout time.Duration) *AWSSource {
	if groupBy != GroupByAccount {
		groupBy = GroupByRegion
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &AWSSource{client: client, groupBy: groupBy, timeout: timeout, now: time.Now}
}

// Name returns the source identifier
func (s *AWSSource) Name() string {
	return "aws-cost-explorer"
}

// ServerFields lists what GetCostAndUsage filters on.
func (s *AWSSource) ServerFields() []model.Field {
	return []model.Field{model.FieldService, model.FieldStartDate, model.FieldEndDate}
}

// Interval converts the scope's inclusive date range into Cost Explorer's
// half-open one. Missing bounds default to the last 30 days up to today.
func (s *AWSSource) Interval(scope model.FilterCriteria) awstypes.DateInterval {
	end := scope.EndDate
	if end.IsZero() {
		end = model.DateOf(s.now())
	}
	start := scope.StartDate
	if start.IsZero() {
		start = end.AddDays(-defaultLookbackDays)
	}
	return awstypes.DateInterval{
		Start: aws.String(start.String()),
		End:   aws.String(end.AddDays(1).String()), // AWS expects exclusive end date
	}
}

// Fetch implements Source.
func (s *AWSSource) Fetch(ctx context.Context, scope model.FilterCriteria) ([]store.RawRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	period := s.Interval(scope)
	input := &costexplorer.GetCostAndUsageInput{
		TimePeriod:  &period,
		Granularity: awstypes.GranularityDaily,
		Metrics:     []string{costMetric},
		GroupBy: []awstypes.GroupDefinition{
			{Type: awstypes.GroupDefinitionTypeDimension, Key: aws.String("SERVICE")},
			{Type: awstypes.GroupDefinitionTypeDimension, Key: aws.String(s.groupBy)},
		},
	}
	if scope.Service != "" {
		input.Filter = &awstypes.Expression{
			Dimensions: &awstypes.DimensionValues{
				Key:    awstypes.DimensionService,
				Values: []string{scope.Service},
			},
		}
	}

	var raw []store.RawRecord
	for page := 0; page < maxCostExplorerPages; page++ {
		out, err := s.client.GetCostAndUsage(ctx, input)
		if err != nil {
			if ctx.Err() == context.DeadlineExceeded {
				return nil, fetchError(s.Name(), 0, "request timed out after %v", s.timeout)
			}
			return nil, &model.FetchError{Source: s.Name(), Err: err}
		}
		raw = append(raw, s.convert(out.ResultsByTime)...)

		if out.NextPageToken == nil || *out.NextPageToken == "" {
			return raw, nil
		}
		input.NextPageToken = out.NextPageToken
	}

	util.LogWarn(fmt.Sprintf("Cost Explorer pagination stopped after %d pages", maxCostExplorerPages))
	return raw, nil
}

func (s *AWSSource) convert(results []awstypes.ResultByTime) []store.RawRecord {
	var raw []store.RawRecord
	for _, byTime := range results {
		if byTime.TimePeriod == nil || byTime.TimePeriod.Start == nil {
			continue
		}
		date := *byTime.TimePeriod.Start

		for _, group := range byTime.Groups {
			metric, ok := group.Metrics[costMetric]
			if !ok || metric.Amount == nil || len(group.Keys) == 0 {
				continue
			}
			r := store.RawRecord{
				Provider: store.V(string(model.ProviderAWS)),
				Service:  store.V(group.Keys[0]),
				Date:     store.V(date),
				CostUSD:  store.V(*metric.Amount),
			}
			if len(group.Keys) > 1 && group.Keys[1] != "" {
				if s.groupBy == GroupByAccount {
					r.AccountID = store.V(group.Keys[1])
				} else {
					r.Region = store.V(group.Keys[1])
				}
			}
			raw = append(raw, r)
		}
	}
	return raw
}
