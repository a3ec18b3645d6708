package filter

import (
	"github.com/penwyp/go-cloud-cost-explorer/internal/core/model"
)

// Apply returns the records satisfying every present predicate of c, in
// input order. It never returns nil, so an empty result is distinguishable
// from "not computed yet" by callers that care.
func Apply(records []model.CostRecord, c model.FilterCriteria) []model.CostRecord {
	if c.IsEmpty() {
		out := make([]model.CostRecord, len(records))
		copy(out, records)
		return out
	}

	out := make([]model.CostRecord, 0, len(records))
	for _, r := range records {
		if c.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// Count returns how many records satisfy c without materializing them.
func Count(records []model.CostRecord, c model.FilterCriteria) int {
	n := 0
	for _, r := range records {
		if c.Matches(r) {
			n++
		}
	}
	return n
}
