package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for docextract.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Engine metrics
	engineCallsTotal   *prometheus.CounterVec
	engineCallDuration *prometheus.HistogramVec

	// Dispatcher metrics
	filesProcessedTotal *prometheus.CounterVec
	resultsWrittenTotal *prometheus.CounterVec

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all Prometheus metrics on a private registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		engineCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docextract_engine_calls_total",
				Help: "Total number of engine invocations",
			},
			[]string{"engine", "operation", "outcome"},
		),
		engineCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "docextract_engine_call_duration_seconds",
				Help:    "Engine invocation latency in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"engine", "operation"},
		),
		filesProcessedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docextract_files_processed_total",
				Help: "Total number of input files processed",
			},
			[]string{"kind", "status"},
		),
		resultsWrittenTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docextract_results_written_total",
				Help: "Total number of result documents written",
			},
			[]string{"status"},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docextract_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "docextract_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60, 120},
			},
			[]string{"method", "path"},
		),
	}
}

// RecordEngineCall records one engine invocation.
// outcome is "ok", "error" or "native".
func (m *Metrics) RecordEngineCall(engine, operation, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.engineCallsTotal.WithLabelValues(engine, operation, outcome).Inc()
	m.engineCallDuration.WithLabelValues(engine, operation).Observe(duration.Seconds())
}

// RecordFile records one dispatched file
func (m *Metrics) RecordFile(kind, status string) {
	if m == nil {
		return
	}
	m.filesProcessedTotal.WithLabelValues(kind, status).Inc()
}

// RecordWrite records one result document write
func (m *Metrics) RecordWrite(err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.resultsWrittenTotal.WithLabelValues(status).Inc()
}

// RecordHTTPRequest records one served request
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, path, statusClass(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func statusClass(status int) string {
	if status < 100 || status > 599 {
		return strconv.Itoa(status)
	}
	return strconv.Itoa(status/100) + "xx"
}
