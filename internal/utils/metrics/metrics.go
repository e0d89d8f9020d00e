package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts HTTP requests handled by the service.
	RequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "connections_service_requests_total",
		Help: "The total number of HTTP requests",
	})

	// ResponsesTotal counts responses by status code.
	ResponsesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connections_service_responses_total",
		Help: "The total number of responses by status code",
	}, []string{"status"})

	// RequestDuration observes request handling time.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "connections_service_request_duration_seconds",
		Help:    "The request duration in seconds by method and route",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// CallbacksTotal counts OAuth callback outcomes per platform. Outcome is
	// one of: success, no_token, provider_error, no_code, disabled,
	// missing_client_id, failed.
	CallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connections_service_callbacks_total",
		Help: "The total number of OAuth callbacks by platform and outcome",
	}, []string{"platform", "outcome"})

	// ExchangeDuration observes the token exchange round trip per platform.
	ExchangeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "connections_service_token_exchange_duration_seconds",
		Help:    "The token exchange duration in seconds by platform",
		Buckets: prometheus.DefBuckets,
	}, []string{"platform"})
)
