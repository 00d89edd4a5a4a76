// Package metrics exposes the overlay API's Prometheus instruments on a
// private registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "overlay_api"

// Overlay operation labels for IncOverlayOp.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Metrics groups the instruments recorded by the server.
type Metrics struct {
	registry   *prometheus.Registry
	requests   *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	overlayOps *prometheus.CounterVec
	overlays   prometheus.Gauge
}

// New registers a fresh set of instruments.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "HTTP requests served, by method, route pattern and status code.",
		}, []string{"method", "route", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Time spent serving HTTP requests.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"method", "route"}),
		overlayOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "overlay_operations_total",
			Help:      "Successful overlay mutations by kind.",
		}, []string{"op"}),
		overlays: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "overlays",
			Help:      "Overlays currently stored.",
		}),
	}
	m.registry.MustRegister(m.requests, m.latency, m.overlayOps, m.overlays)
	return m
}

// ObserveRequest records one served request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// IncOverlayOp counts a successful overlay mutation. Safe on a nil receiver.
func (m *Metrics) IncOverlayOp(op string) {
	if m == nil {
		return
	}
	m.overlayOps.WithLabelValues(op).Inc()
}

// SetActiveOverlays sets the stored overlays gauge.
func (m *Metrics) SetActiveOverlays(n int) {
	m.overlays.Set(float64(n))
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry. refresh, when set, runs before each scrape so
// gauges reflect current state.
func (m *Metrics) Handler(refresh func()) http.Handler {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if refresh != nil {
			refresh()
		}
		h.ServeHTTP(w, r)
	})
}
