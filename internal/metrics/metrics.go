// Package metrics exposes Prometheus metrics for the widget service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fetch outcomes.
const (
	OutcomeOK        = "ok"
	OutcomeFailed    = "failed"
	OutcomeDiscarded = "discarded"
)

// Metrics exposes application metrics that are safe to scrape via Prometheus.
type Metrics struct {
	registry            *prometheus.Registry
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	layerFetches        *prometheus.CounterVec
	layerFetchDuration  prometheus.Histogram
	toggles             *prometheus.CounterVec
	activeLayers        prometheus.Gauge
}

// New creates a fresh registry with HTTP and layer metrics registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geowidget",
		Name:      "http_requests_total",
		Help:      "Count of HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "geowidget",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	layerFetches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geowidget",
		Name:      "layer_fetches_total",
		Help:      "Layer retrievals by outcome",
	}, []string{"layer", "outcome"})

	layerFetchDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "geowidget",
		Name:      "layer_fetch_duration_seconds",
		Help:      "Duration of layer retrieval and ingestion",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})

	toggles := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geowidget",
		Name:      "layer_toggles_total",
		Help:      "Layer visibility toggles by action",
	}, []string{"action"})

	activeLayers := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "geowidget",
		Name:      "active_layers",
		Help:      "Layers currently shown on the map surface",
	})

	registry.MustRegister(
		httpRequests,
		httpRequestDuration,
		layerFetches,
		layerFetchDuration,
		toggles,
		activeLayers,
	)

	return &Metrics{
		registry:            registry,
		httpRequests:        httpRequests,
		httpRequestDuration: httpRequestDuration,
		layerFetches:        layerFetches,
		layerFetchDuration:  layerFetchDuration,
		toggles:             toggles,
		activeLayers:        activeLayers,
	}
}

// ObserveHTTPRequest records a single HTTP request/response cycle.
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{
		"method": method,
		"path":   path,
		"status": strconv.Itoa(status),
	}
	m.httpRequests.With(labels).Inc()
	m.httpRequestDuration.With(labels).Observe(duration.Seconds())
}

// ObserveFetch records one layer retrieval.
func (m *Metrics) ObserveFetch(layer, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.layerFetches.WithLabelValues(layer, outcome).Inc()
	m.layerFetchDuration.Observe(duration.Seconds())
}

// IncToggle counts an activate or deactivate.
func (m *Metrics) IncToggle(action string) {
	if m == nil {
		return
	}
	m.toggles.WithLabelValues(action).Inc()
}

// SetActiveLayers records how many layers are on the surface.
func (m *Metrics) SetActiveLayers(n int) {
	if m == nil {
		return
	}
	m.activeLayers.Set(float64(n))
}

// Handler exposes the Prometheus registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("metrics unavailable"))
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
