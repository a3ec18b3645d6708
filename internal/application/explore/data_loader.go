package explore

import (
	"context"
	"time"

	"github.com/penwyp/go-cloud-cost-explorer/internal/core/model"
	"github.com/penwyp/go-cloud-cost-explorer/internal/data/source"
	"github.com/penwyp/go-cloud-cost-explorer/internal/data/store"
	"github.com/penwyp/go-cloud-cost-explorer/internal/metrics"
	"github.com/penwyp/go-cloud-cost-explorer/internal/util"
)

// DataLoader fetches raw records from the configured source
type DataLoader struct {
	src source.Source
}

// NewDataLoader creates a new DataLoader instance
func NewDataLoader(src source.Source) *DataLoader {
	return &DataLoader{src: src}
}

// Source returns the underlying source
func (dl *DataLoader) Source() source.Source {
	return dl.src
}

// Load fetches the records for scope and records the fetch metrics
func (dl *DataLoader) Load(ctx context.Context, scope model.FilterCriteria) ([]store.RawRecord, error) {
	start := time.Now()
	raw, err := dl.src.Fetch(ctx, scope)
	elapsed := time.Since(start)
	metrics.RecordFetch(dl.src.Name(), elapsed, err)

	if err != nil {
		return nil, err
	}
	util.LogDebug("Fetched cost records",
		util.F("source", dl.src.Name()),
		util.F("records", len(raw)),
		util.F("elapsed", elapsed.String()))
	return raw, nil
}
