package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce             sync.Once
	httpRequestsTotal        *prometheus.CounterVec
	httpRequestDuration      *prometheus.HistogramVec
	applicationTransitions   *prometheus.CounterVec
	priorityMutationsTotal   *prometheus.CounterVec
	imageUploadRejectedTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		applicationTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "application_transitions_total",
			Help: "Application status transitions by target status.",
		}, []string{"status"})

		priorityMutationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "priority_mutations_total",
			Help: "Priority list mutations by operation and result.",
		}, []string{"operation", "result"})

		imageUploadRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "section_image_rejected_total",
			Help: "Section image uploads rejected by reason.",
		}, []string{"reason"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpRequestDuration,
			applicationTransitions,
			priorityMutationsTotal,
			imageUploadRejectedTotal,
		)
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
	return httpRequestDuration
}

// ApplicationTransitions exposes the lifecycle transition counter.
func ApplicationTransitions() *prometheus.CounterVec {
	RegisterMetrics()
	return applicationTransitions
}

// PriorityMutations exposes the priority list mutation counter.
func PriorityMutations() *prometheus.CounterVec {
	RegisterMetrics()
	return priorityMutationsTotal
}

// ImageUploadRejected exposes the rejected image upload counter.
func ImageUploadRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return imageUploadRejectedTotal
}
