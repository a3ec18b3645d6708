package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/penwyp/go-cloud-cost-explorer/internal/core/model"
	"github.com/penwyp/go-cloud-cost-explorer/internal/core/query"
	"github.com/penwyp/go-cloud-cost-explorer/internal/data/store"
	"github.com/penwyp/go-cloud-cost-explorer/internal/util"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout = 30 * time.Second
	// maxBodySize bounds a single response body.
	maxBodySize = 64 << 20

	// RequestIDHeader carries the id of each outbound request.
	RequestIDHeader = "X-Request-ID"
)

// HTTPSource fetches records from the cost API:
// GET {base}/api/v1/costs for the unified view and
// GET {base}/api/v1/costs/{aws|azure|gcp} for single-provider views.
type HTTPSource struct {
	baseURL    string
	caps       model.Capabilities
	httpClient *http.Client
	limiter    *rate.Limiter
}

// HTTPOption configures an HTTPSource
type HTTPOption func(*HTTPSource)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(s *HTTPSource) {
		s.httpClient = client
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) HTTPOption {
	return func(s *HTTPSource) {
		if d > 0 {
			s.httpClient.Timeout = d
		}
	}
}

// WithRateLimit caps outbound requests per second; zero disables the limit.
func WithRateLimit(perSecond float64, burst int) HTTPOption {
	return func(s *HTTPSource) {
		if perSecond <= 0 {
			s.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// NewHTTPSource creates a source for the cost API at baseURL.
func NewHTTPSource(baseURL string, caps model.Capabilities, opts ...HTTPOption) *HTTPSource {
	s := &HTTPSource{
		baseURL:    strings.TrimRight(baseURL, "/"),
		caps:       caps,
		httpClient: &http.Client{Timeout: defaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(2), 4),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the source identifier
func (s *HTTPSource) Name() string {
	return "http"
}

// ServerFields: the unified and AWS endpoints filter by provider, service
// and date range; the Azure and GCP endpoints return everything.
func (s *HTTPSource) ServerFields() []model.Field {
	switch s.caps.Profile {
	case model.ProfileUnified:
		return []model.Field{model.FieldProvider, model.FieldService, model.FieldStartDate, model.FieldEndDate}
	case model.ProfileAWS:
		return []model.Field{model.FieldService, model.FieldStartDate, model.FieldEndDate}
	}
	return nil
}

// Endpoint returns the request URL for scope.
func (s *HTTPSource) Endpoint(scope model.FilterCriteria) string {
	path := "/api/v1/costs"
	if s.caps.FixedProvider != "" {
		path += "/" + s.caps.FixedProvider.Slug()
	}
	u := s.baseURL + path
	if q := query.Encode(scope.Restrict(s.ServerFields()), s.caps); q != "" {
		u += "?" + q
	}
	return u
}

// Fetch implements Source. A 404 is the API's way of saying no record
// matched and yields an empty result.
func (s *HTTPSource) Fetch(ctx context.Context, scope model.FilterCriteria) ([]store.RawRecord, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, &model.FetchError{Source: s.Name(), Err: err}
		}
	}

	endpoint := s.Endpoint(scope)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &model.FetchError{Source: s.Name(), Err: fmt.Errorf("failed to create request: %w", err)}
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)

	util.LogDebug(fmt.Sprintf("Fetching %s", endpoint), util.F("request_id", requestID))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &model.FetchError{Source: s.Name(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &model.FetchError{Source: s.Name(), Status: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		util.LogDebug("No cost data for scope", util.F("request_id", requestID))
		return []store.RawRecord{}, nil
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fetchError(s.Name(), resp.StatusCode, "unexpected status: %s", snippet(body))
	}

	raw, err := store.DecodeArray(body)
	if err != nil {
		return nil, &model.FetchError{Source: s.Name(), Status: resp.StatusCode, Err: err}
	}
	return raw, nil
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	if s == "" {
		return "empty body"
	}
	return s
}
