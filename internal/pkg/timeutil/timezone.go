package timeutil

import (
	"fmt"
	"strings"
	"time"
)

// DisplayLayout is how timestamps are shown to CLI users
const DisplayLayout = "2006-01-02 15:04 MST"

// Location loads a timezone, falling back to UTC if it is empty or invalid
func Location(timezone string) *time.Location {
	if timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsValidTimezone checks if a timezone string is valid
func IsValidTimezone(timezone string) bool {
	if timezone == "" {
		return false
	}
	_, err := time.LoadLocation(timezone)
	return err == nil
}

// FormatRFC3339 renders a server timestamp in the user's timezone. Values
// that do not parse are returned unchanged.
func FormatRFC3339(ts, timezone string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return t.In(Location(timezone)).Format(DisplayLayout)
}

// FormatDuration formats a duration in a human-friendly way (e.g. "2 days, 3 hours and 45 minutes").
// Seconds are only shown for durations under a minute.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}

	plural := func(n int, unit string) string {
		if n == 1 {
			return "1 " + unit
		}
		return fmt.Sprintf("%d %ss", n, unit)
	}

	var parts []string
	if days := int(d.Hours() / 24); days > 0 {
		parts = append(parts, plural(days, "day"))
	}
	if hours := int(d.Hours()) % 24; hours > 0 {
		parts = append(parts, plural(hours, "hour"))
	}
	if minutes := int(d.Minutes()) % 60; minutes > 0 {
		parts = append(parts, plural(minutes, "minute"))
	}
	if seconds := int(d.Seconds()) % 60; len(parts) == 0 && seconds > 0 {
		parts = append(parts, plural(seconds, "second"))
	}

	switch len(parts) {
	case 0:
		return "0 seconds"
	case 1:
		return parts[0]
	default:
		return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
	}
}

// Until describes how long until t, or how long ago it passed
func Until(t, now time.Time) string {
	d := t.Sub(now)
	if d < 0 {
		return "expired " + FormatDuration(d) + " ago"
	}
	return "valid for " + FormatDuration(d)
}
