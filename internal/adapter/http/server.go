package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/grid-eta-service/internal/domain"
	"github.com/couchcryptid/grid-eta-service/internal/estimate"
	"github.com/couchcryptid/grid-eta-service/internal/refdata"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Estimator runs the estimation pipeline.
type Estimator interface {
	Estimate(ctx context.Context, req estimate.Request) (domain.EstimationResult, error)
	CoverageForCenter(ctx context.Context, name string, minutes int) (domain.Coverage, error)
}

// Catalog is the reference data the listing endpoints read.
type Catalog interface {
	sharedobs.ReadinessChecker
	Stations() []domain.Station
	Centers() []domain.ServiceCenter
	FaultCount(stationID string) int
	History() (*refdata.FaultHistory, error)
}

// ArtifactReporter reports which model artifacts loaded at startup.
type ArtifactReporter interface {
	Loaded() map[string]bool
}

// API groups the collaborators behind the /api/v1 routes.
type API struct {
	Estimator Estimator
	Catalog   Catalog
	Artifacts ArtifactReporter
}

// Server exposes the estimation API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	api        API
	logger     *slog.Logger
}

// NewServer creates an HTTP server. Readiness follows the catalog.
func NewServer(addr string, api API, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		api:    api,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(api.Catalog))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/v1/estimate", s.handleEstimate)
	mux.HandleFunc("GET /api/v1/coverage", s.handleCoverage)
	mux.HandleFunc("GET /api/v1/stations", s.handleStations)
	mux.HandleFunc("GET /api/v1/stats", s.handleStats)
	mux.HandleFunc("GET /api/v1/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
