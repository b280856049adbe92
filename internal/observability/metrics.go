package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "grid_eta"

// Metrics holds the Prometheus counters, histograms, and gauges for the estimation service.
type Metrics struct {
	// External provider metrics.
	ProviderRequests *prometheus.CounterVec   // labels: provider={open-meteo,ors-directions,ors-isochrones}, outcome={success,error,empty,unconfigured}
	ProviderDuration *prometheus.HistogramVec // labels: provider
	RouteCache       *prometheus.CounterVec   // labels: result={hit,miss}

	// Degradation and output metrics.
	Fallbacks      *prometheus.CounterVec // labels: stage={weather,routing,isochrone,fault_model,restoration_model}
	Estimations    *prometheus.CounterVec // labels: outcome={success,client_error,unavailable}
	ArtifactLoaded *prometheus.GaugeVec   // labels: artifact
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ProviderRequests,
		m.ProviderDuration,
		m.RouteCache,
		m.Fallbacks,
		m.Estimations,
		m.ArtifactLoaded,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "External provider requests by provider and outcome.",
		}, []string{"provider", "outcome"}),
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "External provider request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}, []string{"provider"}),
		RouteCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "route_cache_total",
			Help:      "Route cache lookups by result.",
		}, []string{"result"}),
		Fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallbacks_total",
			Help:      "Times a stage answered with a local estimate instead of a provider or model.",
		}, []string{"stage"}),
		Estimations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "estimations_total",
			Help:      "Estimation requests by outcome.",
		}, []string{"outcome"}),
		ArtifactLoaded: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_artifact_loaded",
			Help:      "1 when the model artifact loaded at startup, 0 otherwise.",
		}, []string{"artifact"}),
	}
}
