package source

import (
	"context"
	"fmt"
	"time"

	"github.com/penwyp/go-cloud-cost-explorer/internal/core/model"
	"github.com/penwyp/go-cloud-cost-explorer/internal/data/cache"
	"github.com/penwyp/go-cloud-cost-explorer/internal/data/store"
)

// Kind names a source implementation.
type Kind string

const (
	KindHTTP Kind = "http"
	KindFile Kind = "file"
	KindAWS  Kind = "aws"
)

// Source fetches raw cost records for a view.
type Source interface {
	// Name identifies the source in logs, errors and metrics.
	Name() string
	// ServerFields lists the predicates Fetch applies itself. Only these
	// are passed in scope; the rest are filtered client-side.
	ServerFields() []model.Field
	// Fetch returns the raw records matching scope. Failures are
	// reported as *model.FetchError.
	Fetch(ctx context.Context, scope model.FilterCriteria) ([]store.RawRecord, error)
}

func fetchError(source string, status int, format string, args ...interface{}) error {
	return &model.FetchError{Source: source, Status: status, Err: fmt.Errorf(format, args...)}
}

// Spec describes which source to open and how.
type Spec struct {
	Kind        Kind
	URL         string
	Paths       []string
	Timeout     time.Duration
	RateLimit   float64
	RateBurst   int
	AWSGroupBy  string
	Concurrency int
}

// Open builds the source described by spec for a view with caps.
func Open(ctx context.Context, spec Spec, caps model.Capabilities) (Source, error) {
	switch spec.Kind {
	case KindHTTP:
		if spec.URL == "" {
			return nil, fmt.Errorf("http source requires a URL")
		}
		return NewHTTPSource(spec.URL, caps, WithTimeout(spec.Timeout), WithRateLimit(spec.RateLimit, spec.RateBurst)), nil
	case KindFile:
		if len(spec.Paths) == 0 {
			return nil, fmt.Errorf("file source requires at least one path")
		}
		return NewFileSource(spec.Paths, caps, spec.Concurrency, WithExportCache(cache.NewExportCache())), nil
	case KindAWS:
		if caps.FixedProvider != model.ProviderAWS {
			return nil, fmt.Errorf("aws source requires the aws profile, got %s", caps.Profile)
		}
		client, err := NewCostExplorerClient(ctx)
		if err != nil {
			return nil, err
		}
		return NewAWSSource(client, spec.AWSGroupBy, spec.Timeout), nil
	}
	return nil, fmt.Errorf("unknown source kind %q", spec.Kind)
}
