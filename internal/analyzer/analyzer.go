package analyzer

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/penwyp/go-cloud-cost-explorer/internal/core/model"
	"github.com/penwyp/go-cloud-cost-explorer/internal/core/view"
	"github.com/penwyp/go-cloud-cost-explorer/internal/data/aggregator"
	"github.com/penwyp/go-cloud-cost-explorer/internal/data/source"
	"github.com/penwyp/go-cloud-cost-explorer/internal/metrics"
	"github.com/penwyp/go-cloud-cost-explorer/internal/presentation/formatter"
	"github.com/penwyp/go-cloud-cost-explorer/internal/util"
)

type Config struct {
	Capabilities model.Capabilities
	// Query is a shareable query string; Overrides win over its predicates.
	Query     string
	Overrides model.FilterCriteria

	OutputFormat string
	GroupBy      string
	Series       string
	// Limit is the number of batches to reveal; 0 reveals everything.
	Limit     int
	BatchSize int
}

// Analyzer produces one-shot cost reports
type Analyzer struct {
	config    *Config
	src       source.Source
	formatter formatter.Formatter

	groupKey  model.GroupKey
	seriesDim *model.Dimension
}

// New validates the config against the view's capabilities
func New(config *Config, src source.Source) (*Analyzer, error) {
	f, err := formatter.New(config.OutputFormat)
	if err != nil {
		return nil, err
	}
	if config.Limit < 0 {
		return nil, fmt.Errorf("limit must not be negative, got %d", config.Limit)
	}

	a := &Analyzer{config: config, src: src, formatter: f}

	if config.GroupBy != "" {
		key, err := model.ParseGroupKey(config.GroupBy)
		if err != nil {
			return nil, fmt.Errorf("invalid --group-by: %w", err)
		}
		a.groupKey = key
	}

	if config.Series != "" {
		dim, err := model.ParseDimension(config.Series)
		if err != nil {
			return nil, fmt.Errorf("invalid --series: %w", err)
		}
		a.seriesDim = &dim
	} else {
		a.seriesDim = config.Capabilities.SeriesDimension()
	}

	dims := append(model.GroupKey{}, a.groupKey...)
	dims = append(dims, a.seriesDimensions()...)
	for _, d := range dims {
		if !columnSupported(config.Capabilities, d) {
			return nil, fmt.Errorf("dimension %s is not available on the %s view", d, config.Capabilities.Profile)
		}
	}
	return a, nil
}

func (a *Analyzer) seriesDimensions() []model.Dimension {
	if a.seriesDim == nil {
		return nil
	}
	return []model.Dimension{*a.seriesDim}
}

func columnSupported(caps model.Capabilities, d model.Dimension) bool {
	if d == model.DimProvider {
		return true
	}
	for _, c := range caps.Columns() {
		if c == d {
			return true
		}
	}
	return false
}

// Run fetches, filters and reveals the configured view and writes the
// report to w.
func (a *Analyzer) Run(ctx context.Context, w io.Writer) error {
	startTime := time.Now()
	util.LogInfo("Starting cost report", util.F("source", a.src.Name()), util.F("profile", a.config.Capabilities.Profile))

	snap, err := a.Load(ctx)
	if err != nil {
		return err
	}

	report := a.BuildReport(snap)
	if err := a.formatter.Format(w, report); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	util.LogDebug("Report finished",
		util.F("records", report.Total),
		util.F("shown", len(report.Records)),
		util.F("elapsed", time.Since(startTime).String()))
	return nil
}

// Load runs one fetch through a view engine and reveals the requested
// number of batches.
func (a *Analyzer) Load(ctx context.Context) (view.Snapshot, error) {
	engine := view.New(view.Options{
		Capabilities: a.config.Capabilities,
		ServerFields: a.src.ServerFields(),
		BatchSize:    a.config.BatchSize,
	})
	engine.InitFromQuery(a.config.Query)
	engine.SetCriteria(engine.Criteria().Merge(a.config.Overrides))

	// Phase 1: Fetch
	ticket := engine.BeginFetch()
	fetchStart := time.Now()
	raw, fetchErr := a.src.Fetch(ctx, ticket.Scope)
	metrics.RecordFetch(a.src.Name(), time.Since(fetchStart), fetchErr)
	engine.CompleteFetch(ticket, raw, fetchErr)
	if fetchErr != nil {
		return view.Snapshot{}, fmt.Errorf("failed to fetch cost data: %w", fetchErr)
	}

	kept, dropped, duplicates := engine.LastIngest()
	metrics.RecordIngest(kept, dropped, duplicates)
	if dropped > 0 {
		util.LogWarn("Skipped malformed records", util.F("dropped", dropped))
	}

	// Phase 2: Reveal
	for batches := 1; engine.HasMore(); batches++ {
		if a.config.Limit > 0 && batches >= a.config.Limit {
			break
		}
		engine.Reveal()
	}
	return engine.Snapshot(), nil
}

// BuildReport derives the formatter input from a snapshot
func (a *Analyzer) BuildReport(snap view.Snapshot) *formatter.Report {
	report := &formatter.Report{
		Capabilities: snap.Capabilities,
		Query:        snap.Query,
		Records:      snap.Visible,
		Total:        len(snap.Filtered),
		HasMore:      snap.HasMore,
		Summary:      snap.Summary,
	}

	if len(a.groupKey) > 0 {
		report.Groups = aggregator.SortByCost(aggregator.GroupBy(snap.Filtered, a.groupKey))
		report.GroupLabel = a.groupKey.Label()
	}

	var seriesKey model.GroupKey
	if a.seriesDim != nil {
		seriesKey = model.GroupKey{*a.seriesDim}
	}
	switch {
	case len(a.groupKey) == 1 && a.groupKey[0] == model.DimDate:
		report.Series = aggregator.TimeSeries(snap.Filtered, a.seriesDim)
	case len(a.groupKey) > 0:
		report.Series = aggregator.MultiSeries(snap.Filtered, a.groupKey, seriesKey)
	default:
		report.Series = aggregator.MultiSeries(snap.Filtered, model.GroupKey{model.DimService}, seriesKey)
	}
	return report
}
