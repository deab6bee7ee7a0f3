package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Backend API Metrics (client side)
var (
	// APICalls tracks outbound backend calls
	APICalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopfeed_api_calls_total",
			Help: "Total backend API calls by method, route (normalized path), and status code",
		},
		[]string{"method", "route", "status_code"},
	)

	// APIDuration tracks backend call latency
	APIDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:                            "shopfeed_api_duration_ms",
			Help:                            "Backend API call duration in milliseconds",
			NativeHistogramBucketFactor:     1.1,
			NativeHistogramMaxBucketNumber:  100,
			NativeHistogramMinResetDuration: 1 * time.Hour,
		},
		[]string{"method", "route"},
	)

	// APIErrors tracks backend call failures
	APIErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopfeed_api_errors_total",
			Help: "Total backend API errors by route and error type",
		},
		[]string{"route", "error_type"},
	)
)

// Session Pipeline Metrics
var (
	// RefreshAttempts tracks refresh attempts by outcome and rejection reason
	RefreshAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopfeed_refresh_attempts_total",
			Help: "Total credential refresh attempts by outcome (succeeded, rejected, reused) and reason",
		},
		[]string{"outcome", "reason"},
	)

	// RefreshWaiters tracks requests that shared one refresh flight
	RefreshWaiters = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shopfeed_refresh_shared_total",
			Help: "Total requests whose credential refresh was shared with other requests",
		},
	)

	// RefreshInFlight is 1 while a refresh call is outstanding
	RefreshInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shopfeed_refresh_in_flight",
			Help: "Whether a credential refresh is currently in flight (0 or 1)",
		},
	)

	// RequestRetries tracks retries of original requests after a refresh
	RequestRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopfeed_request_retries_total",
			Help: "Total retried requests after a credential refresh, by result",
		},
		[]string{"result"},
	)

	// Logouts tracks session terminations
	Logouts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopfeed_logouts_total",
			Help: "Total session terminations by trigger",
		},
		[]string{"trigger"},
	)
)

// Dev Server Metrics
var (
	// HTTPRequests tracks HTTP requests served
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopfeed_http_requests_total",
			Help: "Total HTTP requests by method, route, and status",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPDuration tracks HTTP request duration
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:                            "shopfeed_http_request_duration_ms",
			Help:                            "HTTP request duration in milliseconds",
			NativeHistogramBucketFactor:     1.1,
			NativeHistogramMaxBucketNumber:  100,
			NativeHistogramMinResetDuration: 1 * time.Hour,
		},
		[]string{"method", "route"},
	)

	// TokensIssued tracks credential pairs issued by the dev server
	TokensIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopfeed_tokens_issued_total",
			Help: "Total credential pairs issued by grant (sign_in, refresh)",
		},
		[]string{"grant"},
	)
)
