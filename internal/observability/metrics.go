package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the PubMed tool server.
// Metrics are organized by subsystem: tool calls and upstream E-utilities
// requests. All counters and histograms are registered via promauto with the
// default Prometheus registry.
//
// A nil *Metrics is valid; every Record method is then a no-op.
type Metrics struct {
	// ToolCallsTotal counts tool invocations, labeled by tool and status (ok, error, invalid).
	ToolCallsTotal *prometheus.CounterVec

	// ToolCallDuration observes tool call duration in seconds, labeled by tool.
	ToolCallDuration *prometheus.HistogramVec

	// SearchResults observes the number of records returned per search.
	SearchResults prometheus.Histogram

	// UpstreamRequestsTotal counts completed HTTP requests to E-utilities, labeled by endpoint.
	UpstreamRequestsTotal *prometheus.CounterVec

	// UpstreamRequestsFailed counts failed requests to E-utilities, labeled by endpoint and error type.
	UpstreamRequestsFailed *prometheus.CounterVec

	// UpstreamRequestDuration observes E-utilities request duration in seconds, labeled by endpoint.
	UpstreamRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ToolCallsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Total number of tool calls by tool and status",
		}, []string{"tool", "status"}),
		ToolCallDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_call_duration_seconds",
			Help:      "Duration of tool calls in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"tool"}),
		SearchResults: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Number of records returned per search",
			Buckets:   []float64{0, 1, 5, 10, 20, 50, 100, 500},
		}),

		// Upstream
		UpstreamRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Total number of HTTP requests to E-utilities by endpoint",
		}, []string{"endpoint"}),
		UpstreamRequestsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_failed_total",
			Help:      "Total number of failed HTTP requests to E-utilities by endpoint and error type",
		}, []string{"endpoint", "error_type"}),
		UpstreamRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Duration of HTTP requests to E-utilities in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"endpoint"}),
	}
}

// RecordToolCall records a finished tool call.
func (m *Metrics) RecordToolCall(tool, status string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.ToolCallsTotal.WithLabelValues(tool, status).Inc()
	m.ToolCallDuration.WithLabelValues(tool).Observe(durationSeconds)
}

// RecordSearchResults records how many records a search returned.
func (m *Metrics) RecordSearchResults(count int) {
	if m == nil {
		return
	}
	m.SearchResults.Observe(float64(count))
}

// RecordUpstreamRequest records a completed request to E-utilities.
func (m *Metrics) RecordUpstreamRequest(endpoint string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.UpstreamRequestsTotal.WithLabelValues(endpoint).Inc()
	m.UpstreamRequestDuration.WithLabelValues(endpoint).Observe(durationSeconds)
}

// RecordUpstreamRequestFailed records a failed request to E-utilities.
func (m *Metrics) RecordUpstreamRequestFailed(endpoint, errorType string) {
	if m == nil {
		return
	}
	m.UpstreamRequestsFailed.WithLabelValues(endpoint, errorType).Inc()
}
