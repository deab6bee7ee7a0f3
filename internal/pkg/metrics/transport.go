package metrics

import (
	"net/http"
	"regexp"
	"time"
)

// apiMetricsTransport wraps an http.RoundTripper to collect metrics on backend calls
type apiMetricsTransport struct {
	base http.RoundTripper
}

// NewAPITransport creates a transport wrapper that records every backend call.
// Install it on the http.Client the session pipeline uses for the network.
func NewAPITransport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &apiMetricsTransport{base: base}
}

// RoundTrip implements http.RoundTripper
func (t *apiMetricsTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	duration := time.Since(start)

	statusCode := 0
	if resp != nil {
		statusCode = resp.StatusCode
	}

	RecordAPICall(req.Method, NormalizeRoute(req.URL.Path), statusCode, duration, err)

	return resp, err
}

var routePatterns = []struct {
	regex   *regexp.Regexp
	replace string
}{
	{regexp.MustCompile(`/posts/[0-9A-Za-z-]+`), "/posts/:id"},
	{regexp.MustCompile(`/stores/[0-9A-Za-z-]+`), "/stores/:id"},
	{regexp.MustCompile(`/products/[0-9A-Za-z-]+`), "/products/:id"},
	{regexp.MustCompile(`/categories/[0-9A-Za-z-]+`), "/categories/:id"},
	{regexp.MustCompile(`/comments/[0-9A-Za-z-]+`), "/comments/:id"},
	{regexp.MustCompile(`/users/\d+`), "/users/:id"},
}

// NormalizeRoute replaces IDs in API paths with placeholders
// This prevents high cardinality in metrics while still providing useful aggregation
func NormalizeRoute(path string) string {
	normalized := path
	for _, p := range routePatterns {
		normalized = p.regex.ReplaceAllString(normalized, p.replace)
	}
	return normalized
}
