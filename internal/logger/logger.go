package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Logger defines the contacts logging contract.
// Arguments after msg are slog-style key/value pairs.
// Implementations should be safe for concurrent use.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Debug(msg string, args ...any)
}

// SlogLogger adapts a *slog.Logger to the Logger contract.
type SlogLogger struct {
	logger *slog.Logger
}

// Options controls the handler built by New.
type Options struct {
	Level slog.Level
	Color bool
}

// New creates a SlogLogger writing tinted text to w.
func New(w io.Writer, opts Options) *SlogLogger {
	return &SlogLogger{
		logger: slog.New(tint.NewHandler(w, &tint.Options{
			Level:      opts.Level,
			TimeFormat: time.Kitchen,
			NoColor:    !opts.Color,
		})),
	}
}

// ParseLevel maps debug, info, warn or error to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

func (l *SlogLogger) Info(msg string, args ...any) {
	l.logger.Info(msg, args...)
}

func (l *SlogLogger) Warn(msg string, args ...any) {
	l.logger.Warn(msg, args...)
}

func (l *SlogLogger) Error(msg string, args ...any) {
	l.logger.Error(msg, args...)
}

func (l *SlogLogger) Debug(msg string, args ...any) {
	l.logger.Debug(msg, args...)
}

// Discard returns a Logger that drops everything.
func Discard() Logger {
	return &SlogLogger{logger: slog.New(slog.DiscardHandler)}
}

// Default provides a global default logger writing warnings and above to stderr.
var Default Logger = New(os.Stderr, Options{Level: slog.LevelWarn, Color: true})
