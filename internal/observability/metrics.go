package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	httpRequestsTotal    *prometheus.CounterVec
	httpLatencySeconds   *prometheus.HistogramVec
	gradeReportsTotal    *prometheus.CounterVec
	gradeComputeSeconds  prometheus.Histogram
	eventsPublishedTotal *prometheus.CounterVec
	submissionsReceived  *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the portal.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "portal_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		gradeReportsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_grade_reports_total",
			Help: "Grade reports served, by whether they came from cache or were computed.",
		}, []string{"source"})

		gradeComputeSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "portal_grade_computation_seconds",
			Help:    "Time spent loading inputs and aggregating a grade report.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		})

		eventsPublishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_events_published_total",
			Help: "Domain events published to the message broker.",
		}, []string{"type", "result"})

		submissionsReceived = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_submissions_total",
			Help: "Submission uploads processed, by outcome.",
		}, []string{"result"})

		prometheus.MustRegister(httpRequestsTotal, httpLatencySeconds, gradeReportsTotal, gradeComputeSeconds, eventsPublishedTotal, submissionsReceived)
	})
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the request latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// GradeReports exposes the report counter.
func GradeReports() *prometheus.CounterVec {
	RegisterMetrics()
	return gradeReportsTotal
}

// GradeComputation exposes the aggregation latency histogram.
func GradeComputation() prometheus.Histogram {
	RegisterMetrics()
	return gradeComputeSeconds
}

// EventsPublished exposes the broker publish counter.
func EventsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return eventsPublishedTotal
}

// Submissions exposes the submission counter.
func Submissions() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsReceived
}
