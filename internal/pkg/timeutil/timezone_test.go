package timeutil

import (
	"testing"
	"time"
)

func TestLocation(t *testing.T) {
	if got := Location(""); got != time.UTC {
		t.Errorf("empty timezone should be UTC, got %v", got)
	}
	if got := Location("Not/AZone"); got != time.UTC {
		t.Errorf("invalid timezone should fall back to UTC, got %v", got)
	}
	if !IsValidTimezone("UTC") || IsValidTimezone("Not/AZone") || IsValidTimezone("") {
		t.Error("IsValidTimezone gave an unexpected answer")
	}
}

func TestFormatRFC3339(t *testing.T) {
	if got := FormatRFC3339("2026-03-01T12:30:00Z", "UTC"); got != "2026-03-01 12:30 UTC" {
		t.Errorf("FormatRFC3339 = %q", got)
	}
	if got := FormatRFC3339("yesterday", "UTC"); got != "yesterday" {
		t.Errorf("unparseable timestamp should pass through, got %q", got)
	}
}

func TestUntil(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		t    time.Time
		want string
	}{
		{now.Add(90 * time.Second), "valid for 1 minute"},
		{now.Add(-5 * time.Minute), "expired 5 minutes ago"},
	}
	for _, tt := range tests {
		if got := Until(tt.t, now); got != tt.want {
			t.Errorf("Until(%v) = %q, want %q", tt.t, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0 seconds"},
		{1 * time.Second, "1 second"},
		{45 * time.Second, "45 seconds"},
		{2*time.Hour + 1*time.Minute, "2 hours and 1 minute"},
		{49*time.Hour + 3*time.Minute, "2 days, 1 hour and 3 minutes"},
		{-3 * time.Minute, "3 minutes"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
