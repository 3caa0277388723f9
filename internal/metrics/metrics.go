package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the vault client
type Metrics struct {
	// Operation metrics
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec

	// Aggregate read metrics
	RefreshesTotal  *prometheus.CounterVec
	RefreshDuration *prometheus.HistogramVec
	VaultReadErrors prometheus.Counter

	// Session metrics
	SessionConnected prometheus.Gauge
	CorrectChain     prometheus.Gauge

	// API metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		OperationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vault_operations_total",
				Help: "Total number of vault operations by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),

		OperationDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vault_operation_duration_seconds",
				Help:    "Time from operation start to settled outcome",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),

		RefreshesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vault_refreshes_total",
				Help: "Total number of aggregate state refreshes by scope",
			},
			[]string{"scope", "outcome"},
		),

		RefreshDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vault_refresh_duration_seconds",
				Help:    "Time spent reading aggregate vault state",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"scope"},
		),

		VaultReadErrors: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "vault_read_errors_total",
				Help: "Total number of per-vault read failures during portfolio fetches",
			},
		),

		SessionConnected: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "vault_session_connected",
				Help: "Whether a wallet session is currently connected (1/0)",
			},
		),

		CorrectChain: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "vault_session_correct_chain",
				Help: "Whether the session chain matches the configured network (1/0)",
			},
		),

		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vault_http_requests_total",
				Help: "Total number of HTTP API requests",
			},
			[]string{"method", "path", "status"},
		),

		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vault_http_request_duration_seconds",
				Help:    "HTTP API request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
}

// RecordOperation records a settled operation outcome.
func (m *Metrics) RecordOperation(kind string, succeeded bool, duration time.Duration) {
	outcome := "success"
	if !succeeded {
		outcome = "failure"
	}
	m.OperationsTotal.WithLabelValues(kind, outcome).Inc()
	m.OperationDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordRefresh records an aggregate read by scope ("vault", "portfolio").
func (m *Metrics) RecordRefresh(scope string, succeeded bool, duration time.Duration) {
	outcome := "success"
	if !succeeded {
		outcome = "failure"
	}
	m.RefreshesTotal.WithLabelValues(scope, outcome).Inc()
	m.RefreshDuration.WithLabelValues(scope).Observe(duration.Seconds())
}

// RecordHTTPRequest records an API request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// SetSessionState updates the session gauges.
func (m *Metrics) SetSessionState(connected, correctChain bool) {
	m.SessionConnected.Set(boolGauge(connected))
	m.CorrectChain.Set(boolGauge(correctChain))
}

func boolGauge(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
