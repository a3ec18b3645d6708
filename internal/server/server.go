package server

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/penwyp/go-cloud-cost-explorer/internal/core/model"
	"github.com/penwyp/go-cloud-cost-explorer/internal/data/cache"
	"github.com/penwyp/go-cloud-cost-explorer/internal/ingestion"
	"github.com/penwyp/go-cloud-cost-explorer/internal/metrics"
	"github.com/penwyp/go-cloud-cost-explorer/internal/util"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server serves cost exports from a data directory over the cost API that
// the explorer's HTTP source consumes.
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	dataDir    string
	exports    *cache.ExportCache
	ingester   Ingester

	host string
	port int
}

// Option configures the server
type Option func(*Server)

// WithHost sets the server host
func WithHost(host string) Option {
	return func(s *Server) {
		s.host = host
	}
}

// WithPort sets the server port
func WithPort(port int) Option {
	return func(s *Server) {
		s.port = port
	}
}

// Ingester stores provider costs for a date range in the data directory.
type Ingester interface {
	Run(ctx context.Context, req ingestion.Request) (ingestion.Result, error)
}

// WithIngester enables POST /api/v1/ingestion
func WithIngester(in Ingester) Option {
	return func(s *Server) {
		s.ingester = in
	}
}

// New creates a server over the exports in dataDir.
func New(dataDir string, opts ...Option) *Server {
	s := &Server{
		dataDir: dataDir,
		exports: cache.NewExportCache(),
		host:    "127.0.0.1",
		port:    8000,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupRouter()
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.host, s.port),
		Handler:           s.router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Addr is the address the server listens on
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(s.requestIDMiddleware())
	router.Use(s.metricsMiddleware())
	router.Use(s.loggingMiddleware())
	router.Use(s.recoveryMiddleware())

	router.GET("/healthz", s.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/info", s.handleInfo)
		v1.POST("/ingestion", s.handleIngest)
		v1.GET("/costs", s.handleCosts(model.ProfileUnified))
		v1.GET("/costs/aws", s.handleCosts(model.ProfileAWS))
		v1.GET("/costs/azure", s.handleCosts(model.ProfileAzure))
		v1.GET("/costs/gcp", s.handleCosts(model.ProfileGCP))
	}

	s.router = router
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	util.LogInfo("Starting cost API server", util.F("addr", s.httpServer.Addr), util.F("data_dir", s.dataDir))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	util.LogInfo("Shutting down cost API server")
	return s.httpServer.Shutdown(ctx)
}

// Router returns the Gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// validRequestIDRegex allows alphanumeric, dots, underscores, and hyphens up to 128 chars.
var validRequestIDRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,128}$`)

func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if !validRequestIDRegex.MatchString(requestID) {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header(requestIDHeader, requestID)
		c.Next()
	}
}

func (s *Server) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPRequest(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		util.LogInfo("Request completed",
			util.F("method", c.Request.Method),
			util.F("path", path),
			util.F("status", c.Writer.Status()),
			util.F("latency", time.Since(start).String()),
			util.F("request_id", c.GetString("request_id")))
	}
}

func (s *Server) recoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				util.LogError("Panic recovered",
					util.F("error", fmt.Sprint(err)),
					util.F("stack", string(debug.Stack())),
					util.F("request_id", c.GetString("request_id")))

				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Detail:    "internal server error",
					RequestID: c.GetString("request_id"),
				})
			}
		}()
		c.Next()
	}
}
