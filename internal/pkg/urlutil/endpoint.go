package urlutil

import (
	"fmt"
	"net/url"
	"strings"
)

// ParseBaseURL validates a backend base URL.
// Only http and https are accepted and a host is required.
func ParseBaseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: missing host", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	return u, nil
}

// Resolve joins an API path onto the base URL.
// Returns a URL like: {base}/{path}?{query}. Absolute URLs are returned unchanged.
func Resolve(base *url.URL, path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}

	rawQuery := ""
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path, rawQuery = path[:i], path[i+1:]
	}

	u := *base
	u.Path = strings.TrimRight(base.Path, "/") + "/" + strings.TrimLeft(path, "/")
	u.RawQuery = rawQuery
	return u.String()
}

// StoreProductsPath builds the product listing path for a store.
// Returns a path like: /stores/{storeID}/products
func StoreProductsPath(storeID string) string {
	return "/stores/" + url.PathEscape(storeID) + "/products"
}
