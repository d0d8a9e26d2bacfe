package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Registry is served on /api/metrics
	Registry = prometheus.NewRegistry()

	factory = promauto.With(Registry)

	// Buckets sized for page renders through to a slow hosted-script round trip
	CustomAPIBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 8, 13, 21}

	// HTTP Metrics
	HTTPRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_server_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"http_request_method", "http_route", "http_response_status_code"},
	)

	HTTPRequestTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_server_request_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"http_request_method", "http_route", "http_response_status_code"},
	)

	ActiveRequests = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_server_active_requests",
			Help: "Number of active HTTP requests",
		},
		[]string{"http_request_method"},
	)

	// Form endpoint client metrics
	EndpointRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "form_endpoint_request_duration_seconds",
			Help:    "Form endpoint delivery duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"status"},
	)

	EndpointRequestTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "form_endpoint_request_total",
			Help: "Total number of form endpoint deliveries",
		},
		[]string{"status"},
	)

	CircuitBreakerState = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"breaker"},
	)

	// Verification metrics
	VerificationTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recaptcha_verifications_total",
			Help: "Total number of reCAPTCHA verifications",
		},
		[]string{"status"},
	)

	// Business Metrics
	ContactFormSubmissions = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tsukikage_contact_form_submissions_total",
			Help: "Total number of contact form submissions",
		},
		[]string{"status"},
	)

	PendingSubmissions = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "tsukikage_contact_pending_submissions",
			Help: "Submissions awaiting an endpoint result",
		},
	)

	ActiveSessions = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "tsukikage_contact_sessions",
			Help: "Number of live contact page sessions",
		},
	)

	ConfirmationNavigations = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tsukikage_contact_confirmation_navigations_total",
			Help: "Scheduled confirmation navigations by outcome",
		},
		[]string{"outcome"},
	)

	NotificationTriggers = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tsukikage_contact_notification_triggers_total",
			Help: "Success notification webhook calls by outcome",
		},
		[]string{"status"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// MeasureDuration measures the duration of an operation
func MeasureDuration(start time.Time) float64 {
	return time.Since(start).Seconds()
}
