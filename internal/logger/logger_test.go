package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Options{Level: slog.LevelDebug})

	tests := []struct {
		name  string
		fn    func()
		level string
		want  string
	}{
		{
			name:  "Info",
			fn:    func() { l.Info("test message") },
			level: "INF",
			want:  "test message",
		},
		{
			name:  "Warn",
			fn:    func() { l.Warn("warning message") },
			level: "WRN",
			want:  "warning message",
		},
		{
			name:  "Error",
			fn:    func() { l.Error("error message") },
			level: "ERR",
			want:  "error message",
		},
		{
			name:  "Debug",
			fn:    func() { l.Debug("debug message") },
			level: "DBG",
			want:  "debug message",
		},
		{
			name:  "Info with args",
			fn:    func() { l.Info("test", "count", 42) },
			level: "INF",
			want:  "count=42",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.fn()
			got := strings.TrimSpace(buf.String())
			if !strings.Contains(got, tt.level) {
				t.Errorf("got %q, want level %q", got, tt.level)
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("got %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestSlogLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Options{Level: slog.LevelWarn})

	l.Info("hidden")
	l.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("expected no output below warn, got %q", buf.String())
	}

	l.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("expected warn output, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "INFO", want: slog.LevelInfo},
		{in: "", want: slog.LevelInfo},
		{in: " warn ", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "loud", want: slog.LevelInfo, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDefault(t *testing.T) {
	if Default == nil {
		t.Error("Default logger should not be nil")
	}

	Default.Info("test")
	Discard().Error("dropped")
}
