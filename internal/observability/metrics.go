package observability

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce              sync.Once
	apiRequestsTotal          *prometheus.CounterVec
	apiLatencySeconds         *prometheus.HistogramVec
	apiErrorsTotal            *prometheus.CounterVec
	feedbackUnmatchedSections *prometheus.CounterVec
	feedbackParsedTotal       *prometheus.CounterVec
	interviewEventsTotal      *prometheus.CounterVec
	eventClientsActive        prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mockview_api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mockview_api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mockview_api_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		feedbackUnmatchedSections = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mockview_feedback_unmatched_sections_total",
			Help: "Feedback sections that could not be located in model output.",
		}, []string{"section"})

		feedbackParsedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mockview_feedback_parsed_total",
			Help: "Feedback texts parsed, partitioned by source.",
		}, []string{"source"})

		interviewEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mockview_interview_events_total",
			Help: "Interview events delivered to local subscribers.",
		}, []string{"type", "origin"})

		eventClientsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mockview_event_clients_active",
			Help: "Number of connected interview event stream clients.",
		})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			feedbackUnmatchedSections,
			feedbackParsedTotal,
			interviewEventsTotal,
			eventClientsActive,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// FeedbackUnmatchedSections counts sections missing from parsed feedback.
func FeedbackUnmatchedSections() *prometheus.CounterVec {
	RegisterMetrics()
	return feedbackUnmatchedSections
}

// FeedbackParsed counts parsed feedback texts by source.
func FeedbackParsed() *prometheus.CounterVec {
	RegisterMetrics()
	return feedbackParsedTotal
}

// InterviewEvents counts interview events by type and origin (local or remote).
func InterviewEvents() *prometheus.CounterVec {
	RegisterMetrics()
	return interviewEventsTotal
}

// EventClientsActive tracks connected event stream clients.
func EventClientsActive() prometheus.Gauge {
	RegisterMetrics()
	return eventClientsActive
}

// MetricsHandler serves the scrape endpoint for the default registry.
func MetricsHandler() fiber.Handler {
	RegisterMetrics()
	return adaptor.HTTPHandler(promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
}
