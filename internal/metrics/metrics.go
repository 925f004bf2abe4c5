// Package metrics exposes Prometheus collectors for the TubeScribe service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
	blogGenerationTotal        *prometheus.CounterVec
	transcriptFetchSeconds     *prometheus.HistogramVec
	llmRequestSeconds          prometheus.Histogram
	rateLimitRejectionsTotal   prometheus.Counter
	pdfExportsTotal            prometheus.Counter

	processGoroutines prometheus.Gauge
	processHeapBytes  prometheus.Gauge
	uptimeSeconds     prometheus.Gauge

	once sync.Once
)

// Init initializes the Prometheus collectors. Safe to call multiple times.
func Init() {
	once.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15, 60},
			},
			[]string{"method", "route"},
		)

		blogGenerationTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blog_generation_total",
				Help: "Total number of blog generation attempts, labeled by status.",
			},
			[]string{"status"},
		)

		transcriptFetchSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "transcript_fetch_duration_seconds",
				Help:    "Histogram of transcript fetch durations, labeled by source (api, scrape).",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"source"},
		)

		llmRequestSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "llm_request_duration_seconds",
				Help:    "Histogram of LLM chat-completion call durations.",
				Buckets: []float64{1, 2, 5, 10, 20, 40, 80},
			},
		)

		rateLimitRejectionsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "rate_limit_rejections_total",
				Help: "Total number of requests rejected by the rate limiter.",
			},
		)

		pdfExportsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "pdf_exports_total",
				Help: "Total number of PDF exports served.",
			},
		)

		processGoroutines = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "tubescribe_goroutines",
				Help: "Number of goroutines, refreshed by the system poller.",
			},
		)
		processHeapBytes = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "tubescribe_heap_alloc_bytes",
				Help: "Heap bytes allocated and still in use, refreshed by the system poller.",
			},
		)
		uptimeSeconds = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "tubescribe_uptime_seconds",
				Help: "Seconds since the process started.",
			},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveGeneration increments the generation counter for the given status
// ("success", "invalid_url", "transcript_error", "llm_error", "too_short").
func ObserveGeneration(status string) {
	blogGenerationTotal.WithLabelValues(status).Inc()
}

// ObserveTranscriptFetch records a transcript fetch duration by source.
func ObserveTranscriptFetch(source string, duration time.Duration) {
	transcriptFetchSeconds.WithLabelValues(source).Observe(duration.Seconds())
}

// ObserveLLMRequest records the duration of one chat-completion call.
func ObserveLLMRequest(duration time.Duration) {
	llmRequestSeconds.Observe(duration.Seconds())
}

// ObserveRateLimitRejection counts one rejected request.
func ObserveRateLimitRejection() {
	rateLimitRejectionsTotal.Inc()
}

// ObservePDFExport counts one served PDF.
func ObservePDFExport() {
	pdfExportsTotal.Inc()
}
