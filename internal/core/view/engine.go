package view

import (
	"errors"

	"github.com/penwyp/go-cloud-cost-explorer/internal/core/model"
	"github.com/penwyp/go-cloud-cost-explorer/internal/core/pagination"
	"github.com/penwyp/go-cloud-cost-explorer/internal/core/query"
	"github.com/penwyp/go-cloud-cost-explorer/internal/data/aggregator"
	"github.com/penwyp/go-cloud-cost-explorer/internal/data/filter"
	"github.com/penwyp/go-cloud-cost-explorer/internal/data/store"
	"github.com/penwyp/go-cloud-cost-explorer/internal/util"
)

// Ticket identifies one fetch. It is handed out by BeginFetch and must be
// returned with the fetch's outcome to CompleteFetch.
type Ticket struct {
	Generation uint64
	// Scope holds the server-filterable predicates to send with the request.
	Scope model.FilterCriteria
}

// Options configures an Engine.
type Options struct {
	Capabilities model.Capabilities
	// ServerFields are the predicates the data source filters itself.
	// Changing one of them requires a refetch.
	ServerFields []model.Field
	BatchSize    int
}

// Engine is the Record View Engine of one view: the current record
// snapshot, the active criteria and the revealed window over the filtered
// subset. It is not safe for concurrent use.
type Engine struct {
	caps         model.Capabilities
	serverFields []model.Field

	store    *store.Store
	criteria model.FilterCriteria
	filtered []model.CostRecord
	pager    *pagination.Controller

	// fetchedScope is the scope of the committed snapshot.
	fetchedScope model.FilterCriteria
	loading      bool
	err          error
	lastIngest   store.Result
}

// New creates an engine with empty criteria and no data.
func New(opts Options) *Engine {
	serverFields := make([]model.Field, 0, len(opts.ServerFields))
	for _, f := range opts.ServerFields {
		if opts.Capabilities.Supports(f) {
			serverFields = append(serverFields, f)
		}
	}
	e := &Engine{
		caps:         opts.Capabilities,
		serverFields: serverFields,
		store:        store.New(),
		pager:        pagination.NewController(opts.BatchSize),
		filtered:     []model.CostRecord{},
	}
	e.pager.Reset(e.filtered)
	return e
}

// Capabilities returns the capability set the engine was built with.
func (e *Engine) Capabilities() model.Capabilities {
	return e.caps
}

// Criteria returns the active criteria.
func (e *Engine) Criteria() model.FilterCriteria {
	return e.criteria
}

// Query returns the shareable encoding of the active criteria.
func (e *Engine) Query() string {
	return query.Encode(e.criteria, e.caps)
}

// Scope returns the server-filterable part of the active criteria.
func (e *Engine) Scope() model.FilterCriteria {
	return e.criteria.Restrict(e.serverFields)
}

// InitFromQuery sets the criteria from a shareable query string, which may
// be empty or malformed. It reports whether a fetch is needed.
func (e *Engine) InitFromQuery(q string) bool {
	return e.SetCriteria(query.Decode(q, e.caps))
}

// SetCriteria replaces the active criteria. The current snapshot is
// re-filtered immediately. The result reports whether the fetch scope
// differs from that of the current snapshot, in which case the caller
// should start a fetch.
func (e *Engine) SetCriteria(c model.FilterCriteria) bool {
	c = c.Restrict(e.caps.Fields()).Normalize()
	if c != e.criteria {
		e.criteria = c
		e.refilter()
	}
	return e.NeedsFetch()
}

// ResetCriteria clears every predicate.
func (e *Engine) ResetCriteria() bool {
	return e.SetCriteria(model.FilterCriteria{})
}

// NeedsFetch reports whether the current snapshot does not cover the
// active fetch scope.
func (e *Engine) NeedsFetch() bool {
	return !e.store.Loaded() || e.Scope() != e.fetchedScope
}

// BeginFetch starts a fetch for the current scope. Any fetch begun earlier
// becomes stale.
func (e *Engine) BeginFetch() Ticket {
	e.loading = true
	return Ticket{
		Generation: e.store.NextGeneration(),
		Scope:      e.Scope(),
	}
}

// CompleteFetch applies the outcome of the fetch identified by t. Stale
// outcomes are discarded and false is returned. A failed fetch keeps the
// previous snapshot and records the error.
func (e *Engine) CompleteFetch(t Ticket, raw []store.RawRecord, fetchErr error) bool {
	if !e.store.IsCurrent(t.Generation) {
		util.LogDebug("Discarding stale fetch result",
			util.F("generation", t.Generation), util.F("current", e.store.Generation()))
		return false
	}
	e.loading = false

	if fetchErr != nil {
		e.err = fetchErr
		var fe *model.FetchError
		if errors.As(fetchErr, &fe) {
			util.LogWarn("Fetch failed", util.F("source", fe.Source), util.F("status", fe.Status), util.F("error", fetchErr.Error()))
		} else {
			util.LogWarn("Fetch failed", util.F("error", fetchErr.Error()))
		}
		return true
	}

	res := store.Ingest(raw, e.caps)
	e.store.Commit(t.Generation, res.Records)
	e.lastIngest = res
	e.fetchedScope = t.Scope
	e.err = nil
	e.refilter()

	util.LogDebug("Fetch committed",
		util.F("generation", t.Generation),
		util.F("records", len(res.Records)),
		util.F("dropped", res.Dropped),
		util.F("duplicates", res.Duplicates))
	return true
}

// Reveal forwards a reveal signal to the pagination controller.
func (e *Engine) Reveal() bool {
	return e.pager.Handle(pagination.RevealMore{})
}

// RevealedCount is the number of records currently revealed.
func (e *Engine) RevealedCount() int {
	return e.pager.RevealedCount()
}

// HasMore reports whether part of the filtered subset is still hidden.
func (e *Engine) HasMore() bool {
	return e.pager.HasMore()
}

// LastIngest returns the counters of the last committed ingest.
func (e *Engine) LastIngest() (kept, dropped, duplicates int) {
	return len(e.lastIngest.Records), e.lastIngest.Dropped, e.lastIngest.Duplicates
}

// Leave discards the snapshot, as when navigating away from the view.
// Fetches still in flight become stale.
func (e *Engine) Leave() {
	e.store.Reset()
	e.store.NextGeneration()
	e.loading = false
	e.err = nil
	e.lastIngest = store.Result{}
	e.fetchedScope = model.FilterCriteria{}
	e.refilter()
}

func (e *Engine) refilter() {
	e.filtered = filter.Apply(e.store.Records(), e.criteria)
	e.pager.Handle(pagination.SubsetChanged{Subset: e.filtered})
}

// Snapshot captures the current state and its derived projections.
func (e *Engine) Snapshot() Snapshot {
	series := e.caps.SeriesDimension()
	var seriesKey model.GroupKey
	if series != nil {
		seriesKey = model.GroupKey{*series}
	}

	records := e.store.Records()
	return Snapshot{
		Capabilities:  e.caps,
		Criteria:      e.criteria,
		Query:         e.Query(),
		Records:       records,
		Filtered:      e.filtered,
		Visible:       e.pager.Visible(),
		RevealedCount: e.pager.RevealedCount(),
		HasMore:       e.pager.HasMore(),
		Summary:       aggregator.Summarize(e.filtered, e.criteria),
		ByService:     aggregator.MultiSeries(e.filtered, model.GroupKey{model.DimService}, seriesKey),
		Trend:         aggregator.TimeSeries(e.filtered, series),
		Providers:     aggregator.Distinct(records, model.DimProvider),
		Services:      aggregator.Distinct(e.filtered, model.DimService),
		Loading:       e.loading,
		Loaded:        e.store.Loaded(),
		Err:           e.err,
		Generation:    e.store.CommittedGeneration(),
		Dropped:       e.lastIngest.Dropped,
		Duplicates:    e.lastIngest.Duplicates,
	}
}
