// Package metrics holds the Prometheus collectors for the dashboard server.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the dashboard.
type Metrics struct {
	registry           *prometheus.Registry
	requestsTotal      *prometheus.CounterVec
	errorsTotal        prometheus.Counter
	ticksTotal         prometheus.Counter
	refetchesTotal     prometheus.Counter
	refetchErrorsTotal prometheus.Counter
	liveBroadcasts     prometheus.Gauge
	upcomingBroadcasts prometheus.Gauge
}

// New creates and registers Prometheus metrics.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "homeshop_http_requests_total",
			Help: "Total number of HTTP requests received, by method and status code",
		}, []string{"method", "code"}),
		errorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "homeshop_http_errors_total",
			Help: "Total number of HTTP responses with error status (4xx or 5xx)",
		}),
		ticksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "homeshop_ticks_total",
			Help: "Total number of reclassification ticks",
		}),
		refetchesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "homeshop_refetches_total",
			Help: "Total number of schedule refetches attempted",
		}),
		refetchErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "homeshop_refetch_errors_total",
			Help: "Total number of schedule refetches that failed",
		}),
		liveBroadcasts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "homeshop_live_broadcasts",
			Help: "Number of broadcasts live at the current reference instant",
		}),
		upcomingBroadcasts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "homeshop_upcoming_broadcasts",
			Help: "Number of broadcasts still to start today",
		}),
	}

	registry.MustRegister(
		m.requestsTotal,
		m.errorsTotal,
		m.ticksTotal,
		m.refetchesTotal,
		m.refetchErrorsTotal,
		m.liveBroadcasts,
		m.upcomingBroadcasts,
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRequest counts one HTTP request.
func (m *Metrics) ObserveRequest(method string, code int) {
	m.requestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	if code >= 400 {
		m.errorsTotal.Inc()
	}
}

// ObserveTick counts one reclassification tick.
func (m *Metrics) ObserveTick() {
	m.ticksTotal.Inc()
}

// ObserveRefetch counts one refetch and, if err is non-nil, one failure.
func (m *Metrics) ObserveRefetch(err error) {
	m.refetchesTotal.Inc()
	if err != nil {
		m.refetchErrorsTotal.Inc()
	}
}

// SetBroadcasts sets the live and upcoming gauges.
func (m *Metrics) SetBroadcasts(live, upcoming int) {
	m.liveBroadcasts.Set(float64(live))
	m.upcomingBroadcasts.Set(float64(upcoming))
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values.
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	inner := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		inner.ServeHTTP(w, r)
	})
}
