package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Search kinds used as the "kind" label.
const (
	SearchKindScientists = "scientists"
	SearchKindArticles   = "articles"
)

// Metrics contains all Prometheus metrics for the scientist search service.
// All collectors are registered with the default registry via promauto, so a
// namespace may only be used once per process.
//
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// SearchesStarted counts searches initiated, labeled by kind.
	SearchesStarted *prometheus.CounterVec

	// SearchesCompleted counts successful searches, labeled by kind.
	SearchesCompleted *prometheus.CounterVec

	// SearchesFailed counts failed searches, labeled by kind.
	SearchesFailed *prometheus.CounterVec

	// SearchDuration observes end-to-end search duration in seconds, labeled by kind.
	SearchDuration *prometheus.HistogramVec

	// ResultsPerPage observes how many results a page carried, labeled by kind.
	ResultsPerPage *prometheus.HistogramVec

	// DocumentsFetched counts documents parsed from the upstream.
	DocumentsFetched prometheus.Counter

	// UpstreamRequestsTotal counts successful upstream calls, labeled by source and endpoint.
	UpstreamRequestsTotal *prometheus.CounterVec

	// UpstreamRequestsFailed counts failed upstream calls, labeled by source, endpoint and error type.
	UpstreamRequestsFailed *prometheus.CounterVec

	// UpstreamRequestDuration observes upstream call duration in seconds, labeled by source and endpoint.
	UpstreamRequestDuration *prometheus.HistogramVec

	// HTTPRequestsTotal counts inbound HTTP requests, labeled by route, method and status.
	HTTPRequestsTotal *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		SearchesStarted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_started_total",
			Help:      "Total number of searches started",
		}, []string{"kind"}),
		SearchesCompleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_completed_total",
			Help:      "Total number of searches completed successfully",
		}, []string{"kind"}),
		SearchesFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_failed_total",
			Help:      "Total number of searches that failed",
		}, []string{"kind"}),
		SearchDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Duration of searches in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"kind"}),
		ResultsPerPage: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "results_per_page",
			Help:      "Number of results returned per page",
			Buckets:   []float64{0, 1, 5, 10, 20, 50, 100, 250},
		}, []string{"kind"}),
		DocumentsFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_fetched_total",
			Help:      "Total number of documents parsed from the upstream",
		}),
		UpstreamRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Total number of successful upstream requests",
		}, []string{"source", "endpoint"}),
		UpstreamRequestsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_failed_total",
			Help:      "Total number of failed upstream requests",
		}, []string{"source", "endpoint", "error_type"}),
		UpstreamRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Duration of upstream requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source", "endpoint"}),
		HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of inbound HTTP requests",
		}, []string{"route", "method", "status"}),
	}
}

// RecordSearchStarted records that a search has started.
func (m *Metrics) RecordSearchStarted(kind string) {
	if m == nil {
		return
	}
	m.SearchesStarted.WithLabelValues(kind).Inc()
}

// RecordSearchCompleted records a successful search and the size of its page.
func (m *Metrics) RecordSearchCompleted(kind string, resultCount int, durationSeconds float64) {
	if m == nil {
		return
	}
	m.SearchesCompleted.WithLabelValues(kind).Inc()
	m.SearchDuration.WithLabelValues(kind).Observe(durationSeconds)
	m.ResultsPerPage.WithLabelValues(kind).Observe(float64(resultCount))
}

// RecordSearchFailed records that a search has failed.
func (m *Metrics) RecordSearchFailed(kind string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.SearchesFailed.WithLabelValues(kind).Inc()
	m.SearchDuration.WithLabelValues(kind).Observe(durationSeconds)
}

// RecordDocumentsFetched records documents parsed from one fetch.
func (m *Metrics) RecordDocumentsFetched(count int) {
	if m == nil {
		return
	}
	m.DocumentsFetched.Add(float64(count))
}

// RecordUpstreamRequest records a successful request to an upstream endpoint.
func (m *Metrics) RecordUpstreamRequest(source, endpoint string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.UpstreamRequestsTotal.WithLabelValues(source, endpoint).Inc()
	m.UpstreamRequestDuration.WithLabelValues(source, endpoint).Observe(durationSeconds)
}

// RecordUpstreamRequestFailed records a failed request to an upstream endpoint.
func (m *Metrics) RecordUpstreamRequestFailed(source, endpoint, errorType string) {
	if m == nil {
		return
	}
	m.UpstreamRequestsFailed.WithLabelValues(source, endpoint, errorType).Inc()
}

// RecordHTTPRequest records one inbound HTTP request.
func (m *Metrics) RecordHTTPRequest(route, method string, status int) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(route, method, statusClass(status)).Inc()
}

// statusClass buckets a status code as "2xx", "4xx" and so on to bound cardinality.
func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
