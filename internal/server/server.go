// =============================================================================
// Fuel Invoice Extractor - HTTP Service
// =============================================================================
//
// This module exposes the extraction pipeline over HTTP.
//
// ENDPOINTS:
//   GET  /, /health     service status
//   POST /extract       one PDF (multipart field "file")
//   POST /extract-batch several PDFs (multipart field "files")
//   POST /extract-csv   several PDFs, records returned as CSV text
//   GET  /metrics       Prometheus metrics
//
// Errors are returned as {"detail": "..."}. Files that are not PDFs are
// rejected by /extract and skipped by the batch endpoints.
//
// =============================================================================

package server

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ginjaninja78/fuel-invoice-extractor/internal/config"
	"github.com/ginjaninja78/fuel-invoice-extractor/internal/extractor"
	"github.com/ginjaninja78/fuel-invoice-extractor/internal/types"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "fuel-invoice-extractor"

// Extractor runs extractions for the handlers.
type Extractor interface {
	Extract(ctx context.Context, doc extractor.Document) (*types.DocumentResult, error)
	ExtractBatch(ctx context.Context, docs []extractor.Document) *types.BatchResult
}

// Server is the HTTP service.
type Server struct {
	cfg          config.ServerConfig
	extractor    Extractor
	logger       extractor.Logger
	version      string
	csvDelimiter rune
	now          func() time.Time
	engine       *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l extractor.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithVersion sets the version reported by the health endpoint.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// WithCSVDelimiter sets the delimiter of /extract-csv output.
func WithCSVDelimiter(r rune) Option {
	return func(s *Server) { s.csvDelimiter = r }
}

// WithClock sets the clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New creates a Server and its routes.
func New(cfg config.ServerConfig, ex Extractor, opts ...Option) *Server {
	s := &Server{
		cfg:          cfg,
		extractor:    ex,
		logger:       discardLogger{},
		version:      "dev",
		csvDelimiter: ';',
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine = s.routes()
	return s
}

// Handler returns the HTTP handler of the service.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), cors.New(corsConfig(s.cfg.CORSOrigins)))

	// Uploads larger than this spill to temporary files.
	r.MaxMultipartMemory = 32 << 20

	r.GET("/", s.health)
	r.GET("/health", s.health)
	r.POST("/extract", s.extractSingle)
	r.POST("/extract-batch", s.extractBatch)
	r.POST("/extract-csv", s.extractCSV)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// requestLogger logs one line per request.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
		)
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

type discardLogger struct{}

func (discardLogger) Debug(string, ...any) {}
func (discardLogger) Info(string, ...any)  {}
func (discardLogger) Warn(string, ...any)  {}
func (discardLogger) Error(string, ...any) {}
