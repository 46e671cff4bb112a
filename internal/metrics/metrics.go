// Package metrics holds the Prometheus instruments exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recommendation paths.
const (
	PathColdStart    = "cold_start"
	PathPersonalized = "personalized"
)

// Fallback reasons.
const (
	FallbackRetrieverError = "retriever_error"
	FallbackNoCandidates   = "no_candidates"
	FallbackHistoryError   = "history_error"
)

// History write outcomes.
const (
	HistoryRecorded  = "recorded"
	HistoryDuplicate = "duplicate"
	HistoryDropped   = "dropped"
	HistoryFailed    = "failed"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagewise_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pagewise_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pagewise_api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagewise_api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"route"},
	)

	// Recommendation Metrics
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagewise_recommendations_total",
			Help: "Recommendation requests by the path that produced the result",
		},
		[]string{"path"},
	)

	RecommendationFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagewise_recommendation_fallbacks_total",
			Help: "Personalized recommendations that fell back to cold start",
		},
		[]string{"reason"},
	)

	RecommendationResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pagewise_recommendation_results",
			Help:    "Number of books returned per recommendation request",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)

	// Retriever Metrics
	RetrieverQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pagewise_retriever_query_duration_seconds",
			Help:    "Candidate retriever query duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend"},
	)

	RetrieverErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagewise_retriever_errors_total",
			Help: "Total number of failed candidate retriever queries",
		},
		[]string{"backend"},
	)

	RetrieverBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pagewise_retriever_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// History Metrics
	HistoryWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagewise_history_writes_total",
			Help: "View history writes by outcome",
		},
		[]string{"result"},
	)

	// Catalog Metrics
	CatalogBooksIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagewise_catalog_books_ingested_total",
			Help: "Books written to a candidate index",
		},
		[]string{"target"},
	)

	CatalogIngestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagewise_catalog_ingest_errors_total",
			Help: "Catalog ingestion runs that failed",
		},
		[]string{"target"},
	)

	CatalogLastIngest = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pagewise_catalog_last_ingest_timestamp_seconds",
			Help: "Unix time of the last successful catalog ingestion",
		},
	)
)

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest tracks in-flight API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRecommendation records which path served a request and how many books it returned.
func RecordRecommendation(path string, results int) {
	RecommendationsTotal.WithLabelValues(path).Inc()
	RecommendationResults.Observe(float64(results))
}

// RecordFallback records a fallback to cold start.
func RecordFallback(reason string) {
	RecommendationFallbacks.WithLabelValues(reason).Inc()
}

// RecordRetrieverQuery records a candidate retriever query.
func RecordRetrieverQuery(backend string, duration time.Duration, err error) {
	RetrieverQueryDuration.WithLabelValues(backend).Observe(duration.Seconds())
	if err != nil {
		RetrieverErrors.WithLabelValues(backend).Inc()
	}
}

// RecordHistoryWrite records the outcome of a view history write.
func RecordHistoryWrite(result string) {
	HistoryWrites.WithLabelValues(result).Inc()
}

// RecordIngest records a catalog ingestion run.
func RecordIngest(target string, books int, err error) {
	if err != nil {
		CatalogIngestErrors.WithLabelValues(target).Inc()
		return
	}
	CatalogBooksIngested.WithLabelValues(target).Add(float64(books))
	CatalogLastIngest.Set(float64(time.Now().Unix()))
}
