package logger

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSetupLogger_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "cli.log")

	l, err := SetupLogger(Config{Level: slog.LevelInfo, LogFile: path, Format: "json"})
	if err != nil {
		t.Fatalf("SetupLogger: %v", err)
	}

	l.Debug("hidden")
	l.Info("refresh succeeded", "component", "refresh")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)

	if strings.Contains(out, "hidden") {
		t.Errorf("debug line should be filtered at info level:\n%s", out)
	}
	if !strings.Contains(out, `"msg":"refresh succeeded"`) || !strings.Contains(out, `"component":"refresh"`) {
		t.Errorf("expected JSON entry in log, got:\n%s", out)
	}
}

func TestTokenPreview(t *testing.T) {
	if got := TokenPreview("short"); got != "short" {
		t.Errorf("TokenPreview(short) = %q", got)
	}
	if got := TokenPreview("eyJhbGciOiJIUzI1NiJ9.payload.sig"); got != "eyJhbGciOiJI..." {
		t.Errorf("TokenPreview(long) = %q", got)
	}
}
