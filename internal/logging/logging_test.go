package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLoggerWithWriter_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(slog.LevelInfo, "text", &buf)

	logger.Info("login succeeded", "role", "STAFF")

	output := buf.String()
	if !strings.Contains(output, "login succeeded") {
		t.Errorf("expected message in output, got: %s", output)
	}
	if !strings.Contains(output, "role=STAFF") {
		t.Errorf("expected 'role=STAFF' in output, got: %s", output)
	}
}

func TestNewLoggerWithWriter_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(slog.LevelInfo, "JSON", &buf)

	logger.Info("login succeeded", "role", "STAFF")

	output := buf.String()
	if !strings.Contains(output, `"msg":"login succeeded"`) {
		t.Errorf("expected JSON msg field in output, got: %s", output)
	}
	if !strings.Contains(output, `"role":"STAFF"`) {
		t.Errorf("expected JSON role field in output, got: %s", output)
	}
}

func TestNewLoggerWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(slog.LevelWarn, "text", &buf)

	logger.Info("should not appear")
	logger.Warn("should appear")

	output := buf.String()
	if strings.Contains(output, "should not appear") {
		t.Errorf("INFO message should be filtered at WARN level, got: %s", output)
	}
	if !strings.Contains(output, "should appear") {
		t.Errorf("WARN message should appear at WARN level, got: %s", output)
	}
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(slog.LevelDebug, "text", &buf)

	Component(logger, "auth").Debug("attempt", "n", 1)

	output := buf.String()
	if !strings.Contains(output, "component=auth") {
		t.Errorf("expected component in output, got: %s", output)
	}

	// A nil logger must not panic.
	Component(nil, "auth").Info("dropped")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestSecretsAreRedacted(t *testing.T) {
	for _, format := range []string{"text", "json"} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLoggerWithWriter(slog.LevelInfo, format, &buf)

			logger.Info("sign in", "username", "stef", "password", "hunter2",
				slog.Group("resp", "accessToken", "eyJhbGciOi"), "Authorization", "Bearer abc")

			output := buf.String()
			for _, secret := range []string{"hunter2", "eyJhbGciOi", "Bearer abc"} {
				if strings.Contains(output, secret) {
					t.Errorf("secret %q leaked: %s", secret, output)
				}
			}
			if !strings.Contains(output, "stef") {
				t.Errorf("non-secret attribute dropped: %s", output)
			}
		})
	}
}
