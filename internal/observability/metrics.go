package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce        sync.Once
	adminRequestsTotal  *prometheus.CounterVec
	adminLatencySeconds *prometheus.HistogramVec
	adminErrorsTotal    *prometheus.CounterVec

	progressReportsTotal       *prometheus.CounterVec
	progressFetchFailuresTotal *prometheus.CounterVec
	progressBuildSeconds       prometheus.Histogram
	progressEventsTotal        *prometheus.CounterVec
	uploadRequestsTotal        *prometheus.CounterVec
	uploadRejectedTotal        *prometheus.CounterVec
	uploadLatencySeconds       prometheus.Histogram
	tutorAnswersTotal          *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		adminRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_requests_total",
			Help: "Total number of admin API requests served.",
		}, []string{"method", "route", "status"})

		adminLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "admin_latency_seconds",
			Help:    "Latency distribution for admin API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		adminErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_errors_total",
			Help: "Total number of error responses returned by admin endpoints.",
		}, []string{"method", "route", "status"})

		progressReportsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "progress_reports_total",
			Help: "Student progress reports served, labelled by cache outcome.",
		}, []string{"cache"})

		progressFetchFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "progress_fetch_failures_total",
			Help: "Data fetch failures absorbed while building progress reports.",
		}, []string{"scope"})

		progressBuildSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "progress_build_seconds",
			Help:    "Time spent assembling a student progress report from storage.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		})

		progressEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "progress_events_total",
			Help: "Progress change events published to the broker.",
		}, []string{"kind"})

		uploadRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "upload_requests_total",
			Help: "Files stored on the CDN, labelled by detected type.",
		}, []string{"type"})

		uploadLatencySeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "upload_latency_seconds",
			Help:    "Time spent validating and storing an uploaded file.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		})

		uploadRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "upload_rejected_total",
			Help: "Lesson or course uploads rejected before reaching storage.",
		}, []string{"reason"})

		tutorAnswersTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tutor_answers_total",
			Help: "Tutor questions answered, labelled by answer source.",
		}, []string{"outcome"})

		prometheus.MustRegister(
			adminRequestsTotal,
			adminLatencySeconds,
			adminErrorsTotal,
			progressReportsTotal,
			progressFetchFailuresTotal,
			progressBuildSeconds,
			progressEventsTotal,
			uploadRequestsTotal,
			uploadRejectedTotal,
			uploadLatencySeconds,
			tutorAnswersTotal,
		)
	})
}

// AdminRequests exposes the counter for admin requests.
func AdminRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return adminRequestsTotal
}

// AdminLatency exposes the latency histogram for admin requests.
func AdminLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return adminLatencySeconds
}

// AdminErrors exposes the counter for admin error responses.
func AdminErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return adminErrorsTotal
}

// ProgressReports counts served reports by cache outcome ("hit" or "miss").
func ProgressReports() *prometheus.CounterVec {
	RegisterMetrics()
	return progressReportsTotal
}

// ProgressFetchFailures counts degraded fetches by scope.
func ProgressFetchFailures() *prometheus.CounterVec {
	RegisterMetrics()
	return progressFetchFailuresTotal
}

// ProgressBuildDuration exposes the report build latency histogram.
func ProgressBuildDuration() prometheus.Histogram {
	RegisterMetrics()
	return progressBuildSeconds
}

// ProgressEvents counts progress change events.
func ProgressEvents() *prometheus.CounterVec {
	RegisterMetrics()
	return progressEventsTotal
}

// UploadRequests counts stored uploads by detected type.
func UploadRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRequestsTotal
}

// UploadLatency exposes the upload latency histogram.
func UploadLatency() prometheus.Histogram {
	RegisterMetrics()
	return uploadLatencySeconds
}

// UploadRejected counts rejected uploads by reason.
func UploadRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRejectedTotal
}

// TutorAnswers counts tutor answers by outcome.
func TutorAnswers() *prometheus.CounterVec {
	RegisterMetrics()
	return tutorAnswersTotal
}
