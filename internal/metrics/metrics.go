package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "homebooking"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		},
		[]string{"route", "code"},
	)

	grpcRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grpc_requests_total",
			Help:      "gRPC calls by full method and status code.",
		},
		[]string{"method", "code"},
	)

	bookingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_created_total",
			Help:      "Bookings committed to the store.",
		},
	)

	submissionsCancelled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_submissions_cancelled_total",
			Help:      "Delayed booking submissions cancelled before commit.",
		},
	)

	statusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_status_transitions_total",
			Help:      "Booking status changes by target status and outcome.",
		},
		[]string{"status", "outcome"},
	)

	loginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Login attempts by outcome.",
		},
		[]string{"outcome"},
	)

	streamSubscribers = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_subscribers",
			Help:      "Open snapshot stream subscriptions by collection.",
		},
		[]string{"collection"},
	)

	sheetsTasks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sheets_tasks_total",
			Help:      "Google Sheets mirror tasks by type and result.",
		},
		[]string{"type", "result"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			grpcRequests,
			bookingsCreated,
			submissionsCancelled,
			statusTransitions,
			loginAttempts,
			streamSubscribers,
			sheetsTasks,
		)
	})
}

func IncHTTP(route, code string) {
	httpRequests.WithLabelValues(route, code).Inc()
}

func IncGRPC(method, code string) {
	grpcRequests.WithLabelValues(method, code).Inc()
}

func IncBookingCreated() {
	bookingsCreated.Inc()
}

func IncSubmissionCancelled() {
	submissionsCancelled.Inc()
}

// IncStatusTransition records an attempted transition; outcome is "ok" or "rejected".
func IncStatusTransition(status, outcome string) {
	statusTransitions.WithLabelValues(status, outcome).Inc()
}

func IncLogin(outcome string) {
	loginAttempts.WithLabelValues(outcome).Inc()
}

func AddSubscriber(collection string, delta float64) {
	streamSubscribers.WithLabelValues(collection).Add(delta)
}

func IncSheetsTask(taskType, result string) {
	sheetsTasks.WithLabelValues(taskType, result).Inc()
}
