package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classbook_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "classbook_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	ReservationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classbook_reservations_total",
			Help: "Total number of reservation attempts by outcome",
		},
		[]string{"result"},
	)

	CancellationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classbook_cancellations_total",
			Help: "Total number of cancellation attempts by outcome",
		},
		[]string{"result"},
	)

	ScheduleRequestsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "classbook_schedule_requests_total",
			Help: "Total number of schedule queries",
		},
	)

	ScheduleCacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classbook_schedule_cache_hits_total",
			Help: "Schedule cache lookups by outcome",
		},
		[]string{"outcome"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordReservation(result string) {
	ReservationsTotal.WithLabelValues(result).Inc()
}

func RecordCancellation(result string) {
	CancellationsTotal.WithLabelValues(result).Inc()
}

func RecordScheduleRequest() {
	ScheduleRequestsTotal.Inc()
}

func RecordScheduleCache(outcome string) {
	ScheduleCacheHitsTotal.WithLabelValues(outcome).Inc()
}
