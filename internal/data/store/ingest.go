package store

import (
	"sort"
	"strings"

	"github.com/penwyp/go-cloud-cost-explorer/internal/core/model"
	"github.com/penwyp/go-cloud-cost-explorer/internal/util"
	"github.com/shopspring/decimal"
)

// maxReportedErrors bounds Result.Errors so a bad export cannot balloon it.
const maxReportedErrors = 20

// Result is the outcome of one ingest.
type Result struct {
	Records    []model.CostRecord
	Dropped    int // malformed rows, including blank services
	Duplicates int
	Errors     []error // first few MalformedRecordErrors, for diagnostics
}

// Ingest normalizes raw records into an immutable, deduplicated snapshot
// sorted ascending by date. Malformed rows are dropped rather than failing
// the batch. For each identity key the earliest input row wins, and rows with
// equal dates keep their input order. The input is not modified.
func Ingest(raw []RawRecord, caps model.Capabilities) Result {
	var res Result
	seen := make(map[string]struct{}, len(raw))
	records := make([]model.CostRecord, 0, len(raw))

	for i, r := range raw {
		rec, err := normalize(i, r, caps)
		if err != nil {
			res.Dropped++
			if len(res.Errors) < maxReportedErrors {
				res.Errors = append(res.Errors, err)
			}
			util.LogDebug("Dropping malformed cost record", util.F("error", err.Error()))
			continue
		}

		key := rec.Key()
		if _, dup := seen[key]; dup {
			res.Duplicates++
			continue
		}
		seen[key] = struct{}{}
		records = append(records, rec)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})

	res.Records = records
	return res
}

func normalize(index int, r RawRecord, caps model.Capabilities) (model.CostRecord, error) {
	malformed := func(field, reason string) error {
		return &model.MalformedRecordError{Index: index, Field: field, Reason: reason}
	}

	if r.decodeErr != nil {
		return model.CostRecord{}, malformed("record", "is not an object: "+r.decodeErr.Error())
	}
	if !r.Service.Set {
		return model.CostRecord{}, malformed("service", "is missing")
	}
	if !r.Date.Set {
		return model.CostRecord{}, malformed("date", "is missing")
	}
	if !r.CostUSD.Set {
		return model.CostRecord{}, malformed("cost_usd", "is missing")
	}

	rec := model.CostRecord{
		Service:   strings.TrimSpace(r.Service.Text),
		Region:    strings.TrimSpace(r.Region.Text),
		AccountID: strings.TrimSpace(r.AccountID.Text),
		UsageType: strings.TrimSpace(r.UsageType.Text),
	}
	if rec.Service == "" {
		return model.CostRecord{}, malformed("service", "is blank")
	}

	date, err := model.ParseDate(r.Date.Text)
	if err != nil {
		return model.CostRecord{}, malformed("date", err.Error())
	}
	rec.Date = date

	cost, err := decimal.NewFromString(strings.TrimSpace(r.CostUSD.Text))
	if err != nil {
		return model.CostRecord{}, malformed("cost_usd", "is not a number")
	}
	if cost.IsNegative() {
		return model.CostRecord{}, malformed("cost_usd", "is negative")
	}
	rec.CostUSD = cost

	switch {
	case caps.FixedProvider != "":
		rec.Provider = caps.FixedProvider
	case caps.HasProvider:
		p, ok := model.ParseProvider(r.Provider.Text)
		if !ok {
			return model.CostRecord{}, malformed("provider", "is missing or unknown")
		}
		rec.Provider = p
	}

	return rec, nil
}
