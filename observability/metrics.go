// Package observability defines the Prometheus metrics exported by the
// companion service.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// recomputation streams and the web layer.
type Metrics struct {
	Recomputes        *prometheus.CounterVec   // labels: stream={daily,month}, outcome={published,cancelled,failed}
	RecomputeDuration *prometheus.HistogramVec // labels: stream={daily,month}
	WebsocketClients  prometheus.Gauge

	SpaceWeatherRequests *prometheus.CounterVec // labels: product={kindex,regions}, outcome={success,error}
	GeocodeRequests      *prometheus.CounterVec // labels: result={success,error}
}

// NewMetrics creates and registers all metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Recomputes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "astro_companion",
			Name:      "recomputes_total",
			Help:      "Recomputation jobs by stream and outcome.",
		}, []string{"stream", "outcome"}),
		RecomputeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "astro_companion",
			Name:      "recompute_duration_seconds",
			Help:      "Wall time of a completed recomputation job.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		}, []string{"stream"}),
		WebsocketClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "astro_companion",
			Name:      "websocket_clients",
			Help:      "Currently connected websocket clients.",
		}),
		SpaceWeatherRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "astro_companion",
			Name:      "spaceweather_requests_total",
			Help:      "Space weather API requests by product and outcome.",
		}, []string{"product", "outcome"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "astro_companion",
			Name:      "geocode_requests_total",
			Help:      "Geocoding lookups by cache result.",
		}, []string{"result"}),
	}

	prometheus.MustRegister(
		m.Recomputes,
		m.RecomputeDuration,
		m.WebsocketClients,
		m.SpaceWeatherRequests,
		m.GeocodeRequests,
	)

	return m
}
