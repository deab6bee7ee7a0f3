package metrics

import (
	"strconv"
	"strings"
	"time"
)

// RecordAPICall records one outbound call consistently
// statusCode is 0 when no response was received
func RecordAPICall(method, route string, statusCode int, duration time.Duration, err error) {
	APICalls.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	APIDuration.WithLabelValues(method, route).Observe(float64(duration.Milliseconds()))

	if err != nil || statusCode >= 400 {
		APIErrors.WithLabelValues(route, ClassifyAPIError(statusCode, err)).Inc()
	}
}

// RecordRefresh records the outcome of one refresh attempt
// outcome: "succeeded", "rejected" or "reused"; reason is empty unless rejected
func RecordRefresh(outcome, reason string) {
	if reason == "" {
		reason = "none"
	}
	RefreshAttempts.WithLabelValues(outcome, reason).Inc()
}

// ClassifyAPIError categorizes backend call failures for metrics
func ClassifyAPIError(statusCode int, err error) string {
	if err != nil {
		errStr := strings.ToLower(err.Error())
		switch {
		case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline"):
			return "timeout"
		case strings.Contains(errStr, "canceled"):
			return "canceled"
		case strings.Contains(errStr, "connection") || strings.Contains(errStr, "connect"):
			return "connection"
		case strings.Contains(errStr, "tls"):
			return "tls"
		default:
			return "network"
		}
	}

	switch {
	case statusCode == 400:
		return "bad_request"
	case statusCode == 401:
		return "unauthorized"
	case statusCode == 403:
		return "forbidden"
	case statusCode == 404:
		return "not_found"
	case statusCode == 409:
		return "conflict"
	case statusCode == 429:
		return "rate_limited"
	case statusCode >= 500:
		return "server_error"
	case statusCode >= 400:
		return "client_error"
	default:
		return "unknown"
	}
}
