package server

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/penwyp/go-cloud-cost-explorer/internal/core/model"
	"github.com/penwyp/go-cloud-cost-explorer/internal/data/filter"
	"github.com/penwyp/go-cloud-cost-explorer/internal/data/source"
	"github.com/penwyp/go-cloud-cost-explorer/internal/data/store"
	"github.com/penwyp/go-cloud-cost-explorer/internal/ingestion"
	"github.com/penwyp/go-cloud-cost-explorer/internal/util"
)

const (
	requestIDHeader = "X-Request-ID"
	apiVersion      = "1.0.0"
)

// ErrorResponse is the standard error response
type ErrorResponse struct {
	Detail    string `json:"detail"`
	RequestID string `json:"request_id,omitempty"`
}

// HealthResponse is the health check response
type HealthResponse struct {
	Status string `json:"status"`
}

// InfoResponse describes the API
type InfoResponse struct {
	Service   string   `json:"service"`
	Version   string   `json:"version"`
	Endpoints []string `json:"endpoints"`
	Status    string   `json:"status"`
}

// CostsQuery holds the filters accepted by the cost endpoints
type CostsQuery struct {
	Provider  string `form:"provider" binding:"omitempty,max=16"`
	Service   string `form:"service" binding:"omitempty,max=256"`
	Region    string `form:"region" binding:"omitempty,max=64"`
	AccountID string `form:"account_id" binding:"omitempty,max=64"`
	StartDate string `form:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate   string `form:"end_date" binding:"omitempty,datetime=2006-01-02"`
}

// CostItem is one record on the wire
type CostItem struct {
	Provider  string  `json:"provider"`
	Date      string  `json:"date"`
	Service   string  `json:"service"`
	Region    string  `json:"region,omitempty"`
	AccountID string  `json:"account_id,omitempty"`
	UsageType string  `json:"usage_type,omitempty"`
	CostUSD   float64 `json:"cost_usd"`
}

// IngestRequest is the body of POST /api/v1/ingestion
type IngestRequest struct {
	Start string `json:"start" binding:"required,datetime=2006-01-02"`
	End   string `json:"end" binding:"required,datetime=2006-01-02"`
}

// IngestResponse reports a finished ingestion
type IngestResponse struct {
	Status   string   `json:"status"`
	Provider string   `json:"provider"`
	Count    int      `json:"count"`
	Dropped  int      `json:"dropped"`
	Files    []string `json:"files"`
}

func (b IngestRequest) request() (ingestion.Request, error) {
	var (
		req ingestion.Request
		err error
	)
	if req.Start, err = model.ParseDate(b.Start); err != nil {
		return req, err
	}
	if req.End, err = model.ParseDate(b.End); err != nil {
		return req, err
	}
	return req, req.Validate()
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleInfo(c *gin.Context) {
	c.JSON(http.StatusOK, InfoResponse{
		Service: "Cloud Cost Explorer API",
		Version: apiVersion,
		Endpoints: []string{
			"/api/v1/costs",
			"/api/v1/costs/aws",
			"/api/v1/costs/azure",
			"/api/v1/costs/gcp",
			"/api/v1/info",
			"/api/v1/ingestion",
			"/healthz",
			"/metrics",
		},
		Status: "OK",
	})
}

// handleCosts serves the records of profile: every provider for
// model.ProfileUnified, one provider's exports for the others.
func (s *Server) handleCosts(profile model.Profile) gin.HandlerFunc {
	caps, err := model.CapabilitiesFor(profile)
	if err != nil {
		panic(err)
	}

	return func(c *gin.Context) {
		requestID := c.GetString("request_id")

		var q CostsQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Detail: err.Error(), RequestID: requestID})
			return
		}
		criteria, err := q.criteria(caps)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Detail: err.Error(), RequestID: requestID})
			return
		}

		src := source.NewFileSource([]string{s.dataDir}, caps, 4, source.WithExportCache(s.exports))
		raw, err := src.Fetch(c.Request.Context(), model.FilterCriteria{})
		if err != nil {
			util.LogError("Failed to load cost exports", util.F("error", err.Error()), util.F("request_id", requestID))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: "cost data not available", RequestID: requestID})
			return
		}

		records := filter.Apply(store.Ingest(raw, caps).Records, criteria)
		if len(records) == 0 {
			detail := "No cost data for the specified filters"
			if caps.FixedProvider != "" {
				detail = fmt.Sprintf("No %s cost data for the specified filters", caps.FixedProvider)
			}
			c.JSON(http.StatusNotFound, ErrorResponse{Detail: detail, RequestID: requestID})
			return
		}

		items := make([]CostItem, len(records))
		for i, r := range records {
			items[i] = toItem(r, caps)
		}
		c.JSON(http.StatusOK, items)
	}
}

func (q CostsQuery) criteria(caps model.Capabilities) (model.FilterCriteria, error) {
	c := model.FilterCriteria{Service: q.Service}
	if caps.HasRegion {
		c.Region = q.Region
	}
	if caps.HasAccount {
		c.AccountID = q.AccountID
	}
	if q.Provider != "" && caps.HasProvider {
		p, ok := model.ParseProvider(q.Provider)
		if !ok {
			return c, fmt.Errorf("unknown provider %q", q.Provider)
		}
		c.Provider = p
	}
	var err error
	if q.StartDate != "" {
		if c.StartDate, err = model.ParseDate(q.StartDate); err != nil {
			return c, err
		}
	}
	if q.EndDate != "" {
		if c.EndDate, err = model.ParseDate(q.EndDate); err != nil {
			return c, err
		}
	}
	return c.Normalize(), nil
}

func toItem(r model.CostRecord, caps model.Capabilities) CostItem {
	provider := r.Provider
	if provider == "" {
		provider = caps.FixedProvider
	}
	return CostItem{
		Provider:  string(provider),
		Date:      r.Date.String(),
		Service:   r.Service,
		Region:    r.Region,
		AccountID: r.AccountID,
		UsageType: r.UsageType,
		CostUSD:   r.CostUSD.InexactFloat64(),
	}
}

// handleIngest pulls provider costs for the requested range into the data
// directory, where the cost routes pick them up on the next request.
func (s *Server) handleIngest(c *gin.Context) {
	requestID := c.GetString("request_id")
	if s.ingester == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Detail: "ingestion is not enabled", RequestID: requestID})
		return
	}

	var body IngestRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: err.Error(), RequestID: requestID})
		return
	}
	req, err := body.request()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: err.Error(), RequestID: requestID})
		return
	}

	res, err := s.ingester.Run(c.Request.Context(), req)
	if err != nil {
		util.LogError("Ingestion failed", util.F("error", err.Error()), util.F("request_id", requestID))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: "ingestion failed", RequestID: requestID})
		return
	}

	files := make([]string, len(res.Files))
	for i, f := range res.Files {
		files[i] = filepath.Base(f)
	}
	c.JSON(http.StatusOK, IngestResponse{
		Status:   "ok",
		Provider: string(res.Provider),
		Count:    res.Count,
		Dropped:  res.Dropped,
		Files:    files,
	})
}
