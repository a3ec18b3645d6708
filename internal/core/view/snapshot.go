package view

import (
	"github.com/penwyp/go-cloud-cost-explorer/internal/core/model"
)

// Snapshot is a consistent view of one (records, criteria, revealed count)
// state together with everything derived from it. Its slices are shared
// with the engine and must not be modified.
type Snapshot struct {
	Capabilities model.Capabilities
	Criteria     model.FilterCriteria
	Query        string

	Records       []model.CostRecord
	Filtered      []model.CostRecord
	Visible       []model.CostRecord
	RevealedCount int
	HasMore       bool

	Summary model.Summary
	// ByService is stacked by provider on the unified view and a flat sum
	// on single-provider views.
	ByService model.SeriesTable
	Trend     model.SeriesTable

	// Option lists for the provider and service selectors.
	Providers []string
	Services  []string

	Loading    bool
	Loaded     bool
	Err        error
	Generation uint64
	Dropped    int
	Duplicates int
}
