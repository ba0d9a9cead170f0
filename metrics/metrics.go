package metrics

import "github.com/prometheus/client_golang/prometheus"

// Prometheus metrics. The webhook path answers 200 even when the downstream
// mutation fails, so the outcome counters are the only reliable failure signal.
var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"handler", "method", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"handler", "method"},
	)

	WebhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Inventory webhook events by outcome (fixed, clean, deduped, ignored, rejected, error)",
		},
		[]string{"outcome"},
	)

	CorrectionsAppliedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "corrections_applied_total",
			Help: "Total number of inventory records corrected",
		},
	)

	RemoteAPIErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "remote_api_errors_total",
			Help: "Total number of failed calls to the Shopify Admin API",
		},
	)
)

// Register registers all Prometheus metrics.
func Register() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(WebhookEventsTotal)
	prometheus.MustRegister(CorrectionsAppliedTotal)
	prometheus.MustRegister(RemoteAPIErrors)
}
