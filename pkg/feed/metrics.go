package feed

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Reload outcomes.
const (
	reloadChanged   = "changed"
	reloadUnchanged = "unchanged"
	reloadError     = "error"
)

// Metrics holds the feed's Prometheus collectors. Each Metrics owns its own
// registry so several servers can live in one process. All methods are
// safe on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	reloadsTotal  *prometheus.CounterVec
	measurements  prometheus.Gauge
	profiles      prometheus.Gauge
	lastReload    prometheus.Gauge
	clients       prometheus.Gauge
	eventsSent    *prometheus.CounterVec
	eventsDropped prometheus.Counter
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tanita_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tanita_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		reloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tanita_reloads_total",
				Help: "Input set reloads by outcome",
			},
			[]string{"outcome"},
		),
		measurements: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tanita_measurements",
			Help: "Measurements in the current dataset",
		}),
		profiles: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tanita_profiles",
			Help: "Profiles in the current dataset",
		}),
		lastReload: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tanita_last_reload_timestamp_seconds",
			Help: "Unix time of the last dataset change",
		}),
		clients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tanita_feed_clients",
			Help: "Connected WebSocket clients",
		}),
		eventsSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tanita_feed_events_sent_total",
				Help: "Events delivered to client buffers by type",
			},
			[]string{"type"},
		),
		eventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tanita_feed_events_dropped_total",
			Help: "Events dropped because a client buffer was full",
		}),
	}

	m.registry.MustRegister(
		m.httpRequestsTotal, m.httpRequestDuration,
		m.reloadsTotal, m.measurements, m.profiles, m.lastReload,
		m.clients, m.eventsSent, m.eventsDropped,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Instrument records request count and duration under the matched chi
// route pattern, so path parameters do not explode label cardinality.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		m.httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rw.status)).Inc()
		m.httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) reload(outcome string) {
	if m == nil {
		return
	}
	m.reloadsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) dataset(measurements, profiles int) {
	if m == nil {
		return
	}
	m.measurements.Set(float64(measurements))
	m.profiles.Set(float64(profiles))
	m.lastReload.SetToCurrentTime()
}

func (m *Metrics) setClients(n int) {
	if m == nil {
		return
	}
	m.clients.Set(float64(n))
}

func (m *Metrics) sent(eventType string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.eventsSent.WithLabelValues(eventType).Add(float64(n))
}

func (m *Metrics) dropped() {
	if m == nil {
		return
	}
	m.eventsDropped.Inc()
}
