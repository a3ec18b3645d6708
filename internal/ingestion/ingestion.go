// Package ingestion pulls billed costs from a provider and stores them as the
// yearly CSV exports that the file source and the cost API server read.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/penwyp/go-cloud-cost-explorer/internal/core/model"
	"github.com/penwyp/go-cloud-cost-explorer/internal/data/source"
	"github.com/penwyp/go-cloud-cost-explorer/internal/data/store"
	"github.com/penwyp/go-cloud-cost-explorer/internal/metrics"
	"github.com/penwyp/go-cloud-cost-explorer/internal/presentation/formatter"
	"github.com/penwyp/go-cloud-cost-explorer/internal/util"
)

// Request is an inclusive date range to ingest.
type Request struct {
	Start model.Date
	End   model.Date
}

// Validate rejects missing or inverted bounds.
func (r Request) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return errors.New("start and end dates must be provided")
	}
	if r.End.Before(r.Start) {
		return fmt.Errorf("end date %s is before start date %s", r.End, r.Start)
	}
	return nil
}

func (r Request) covers(d model.Date) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// Result summarizes one ingestion run.
type Result struct {
	Provider   model.Provider `json:"provider"`
	Count      int            `json:"count"`
	Dropped    int            `json:"dropped"`
	Duplicates int            `json:"duplicates"`
	Files      []string       `json:"files"`
}

// Ingester writes one provider's records into dataDir as <slug>_<year>.csv.
// Re-ingesting a range replaces the stored rows of that range and keeps
// the rest of the file.
type Ingester struct {
	src     source.Source
	caps    model.Capabilities
	dataDir string

	// runs touching the same files must not interleave
	mu sync.Mutex
}

// New creates an ingester storing what src returns as provider's exports.
func New(src source.Source, provider model.Provider, dataDir string) (*Ingester, error) {
	caps, err := model.CapabilitiesFor(model.Profile(provider.Slug()))
	if err != nil || provider == "" || caps.FixedProvider != provider {
		return nil, fmt.Errorf("cannot ingest provider %q", provider)
	}
	if dataDir == "" {
		return nil, errors.New("ingestion requires a data directory")
	}
	return &Ingester{src: src, caps: caps, dataDir: dataDir}, nil
}

// Path returns the export file holding year.
func (in *Ingester) Path(year int) string {
	return filepath.Join(in.dataDir, fmt.Sprintf("%s_%d.csv", in.caps.FixedProvider.Slug(), year))
}

// Run fetches req's range, normalizes it like any other fetch and rewrites
// the yearly files the range touches.
func (in *Ingester) Run(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	start := time.Now()
	raw, err := in.src.Fetch(ctx, model.FilterCriteria{StartDate: req.Start, EndDate: req.End})
	metrics.RecordFetch(in.src.Name(), time.Since(start), err)
	if err != nil {
		return Result{}, fmt.Errorf("failed to fetch %s costs: %w", in.caps.FixedProvider, err)
	}

	ingested := store.Ingest(raw, in.caps)
	res := Result{
		Provider:   in.caps.FixedProvider,
		Dropped:    ingested.Dropped,
		Duplicates: ingested.Duplicates,
		Files:      []string{},
	}
	byYear := make(map[int][]model.CostRecord)
	for _, r := range ingested.Records {
		if !req.covers(r.Date) {
			continue
		}
		byYear[r.Date.Year()] = append(byYear[r.Date.Year()], r)
		res.Count++
	}

	in.mu.Lock()
	defer in.mu.Unlock()

	if err := util.EnsureDir(in.dataDir); err != nil {
		return res, fmt.Errorf("failed to create data directory: %w", err)
	}
	for year := req.Start.Year(); year <= req.End.Year(); year++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		written, err := in.writeYear(ctx, year, req, byYear[year])
		if err != nil {
			return res, err
		}
		if written {
			res.Files = append(res.Files, in.Path(year))
		}
	}

	util.LogInfo("Cost data ingested",
		util.F("provider", res.Provider),
		util.F("start", req.Start.String()),
		util.F("end", req.End.String()),
		util.F("records", res.Count),
		util.F("dropped", res.Dropped),
		util.F("files", len(res.Files)))
	return res, nil
}

// writeYear merges fresh into the year's file. It reports false when the
// file did not exist and there was nothing to put in it.
func (in *Ingester) writeYear(ctx context.Context, year int, req Request, fresh []model.CostRecord) (bool, error) {
	path := in.Path(year)
	kept, exists, err := in.outsideRange(ctx, path, req)
	if err != nil {
		return false, err
	}
	if !exists && len(fresh) == 0 {
		return false, nil
	}

	records := append(kept, fresh...)
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})

	tmp, err := os.CreateTemp(in.dataDir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return false, fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	report := &formatter.Report{Capabilities: in.caps, Records: records}
	if err := formatter.NewCSVFormatter().Format(tmp, report); err != nil {
		tmp.Close()
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return false, fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return true, nil
}

// outsideRange loads the stored rows of path that req does not replace.
func (in *Ingester) outsideRange(ctx context.Context, path string, req Request) ([]model.CostRecord, bool, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, err
	}

	raw, err := source.NewFileSource([]string{path}, in.caps, 1).Fetch(ctx, model.FilterCriteria{})
	if err != nil {
		return nil, true, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var kept []model.CostRecord
	for _, r := range store.Ingest(raw, in.caps).Records {
		if !req.covers(r.Date) {
			kept = append(kept, r)
		}
	}
	return kept, true, nil
}
