package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNormalizeRoute(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{
			name:     "normalize post ID",
			path:     "/posts/123456789",
			expected: "/posts/:id",
		},
		{
			name:     "normalize store products",
			path:     "/stores/42/products",
			expected: "/stores/:id/products",
		},
		{
			name:     "normalize nested product",
			path:     "/stores/42/products/7",
			expected: "/stores/:id/products/:id",
		},
		{
			name:     "normalize uuid post",
			path:     "/posts/0b6f9c1e-8d1a-4a43-9d8e-2f4b1c8e9a11/comments",
			expected: "/posts/:id/comments",
		},
		{
			name:     "refresh endpoint untouched",
			path:     "/users/refresh-token",
			expected: "/users/refresh-token",
		},
		{
			name:     "numeric user",
			path:     "/users/987",
			expected: "/users/:id",
		},
		{
			name:     "no normalization needed",
			path:     "/health",
			expected: "/health",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizeRoute(tt.path)
			if result != tt.expected {
				t.Errorf("NormalizeRoute(%q) = %q, want %q", tt.path, result, tt.expected)
			}
		})
	}
}

func TestClassifyAPIError(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		err        error
		expected   string
	}{
		{"bad request", 400, nil, "bad_request"},
		{"unauthorized", 401, nil, "unauthorized"},
		{"forbidden", 403, nil, "forbidden"},
		{"not found", 404, nil, "not_found"},
		{"conflict", 409, nil, "conflict"},
		{"rate limited", 429, nil, "rate_limited"},
		{"server error", 503, nil, "server_error"},
		{"client error", 418, nil, "client_error"},
		{"unknown", 200, nil, "unknown"},
		{"timeout", 0, errors.New("context deadline exceeded"), "timeout"},
		{"connection", 0, errors.New("dial tcp: connection refused"), "connection"},
		{"network", 0, errors.New("EOF"), "network"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ClassifyAPIError(tt.statusCode, tt.err)
			if result != tt.expected {
				t.Errorf("ClassifyAPIError(%d, %v) = %q, want %q", tt.statusCode, tt.err, result, tt.expected)
			}
		})
	}
}

func TestAPITransport_RecordsCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	before := testutil.ToFloat64(APICalls.WithLabelValues(http.MethodGet, "/posts/:id", "418"))

	client := &http.Client{Transport: NewAPITransport(nil)}
	resp, err := client.Get(srv.URL + "/posts/991")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	after := testutil.ToFloat64(APICalls.WithLabelValues(http.MethodGet, "/posts/:id", "418"))
	if after-before != 1 {
		t.Errorf("expected one recorded call, got %v", after-before)
	}
}
