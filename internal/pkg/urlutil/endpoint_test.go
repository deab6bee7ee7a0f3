package urlutil

import (
	"testing"
)

func TestParseBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "plain", raw: "https://api.example.com", want: "https://api.example.com"},
		{name: "trailing slash", raw: "https://api.example.com/v1/", want: "https://api.example.com/v1"},
		{name: "local", raw: " http://localhost:8080 ", want: "http://localhost:8080"},
		{name: "bad scheme", raw: "ftp://example.com", wantErr: true},
		{name: "missing host", raw: "https://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBaseURL(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseBaseURL(%q) expected error", tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseBaseURL(%q) unexpected error: %v", tt.raw, err)
			}
			if got.String() != tt.want {
				t.Errorf("ParseBaseURL(%q) = %q, want %q", tt.raw, got.String(), tt.want)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	base, err := ParseBaseURL("https://api.example.com/v1")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path string
		want string
	}{
		{"/posts", "https://api.example.com/v1/posts"},
		{"posts", "https://api.example.com/v1/posts"},
		{"/posts?page=2&limit=10", "https://api.example.com/v1/posts?page=2&limit=10"},
		{"/users/refresh-token", "https://api.example.com/v1/users/refresh-token"},
		{"https://cdn.example.com/a.png", "https://cdn.example.com/a.png"},
	}

	for _, tt := range tests {
		if got := Resolve(base, tt.path); got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestStoreProductsPath(t *testing.T) {
	if got := StoreProductsPath("store 7"); got != "/stores/store%207/products" {
		t.Errorf("StoreProductsPath() = %q", got)
	}
}
