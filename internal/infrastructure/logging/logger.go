package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/nerrad567/gray-logic-gateway/internal/infrastructure/config"
)

// ServiceName is attached to every entry as the "service" field.
const ServiceName = "gateway"

// redacted replaces the value of any attribute whose key looks like a secret.
const redacted = "[REDACTED]"

// secretKeys are matched as key suffixes, so "smtp_password" and
// "influx_token" are both caught.
var secretKeys = []string{"password", "token", "secret"}

// Logger is a slog.Logger carrying the gateway's default fields. It
// satisfies the narrow Logger interfaces declared by the other packages.
type Logger struct {
	*slog.Logger
	closer io.Closer
}

// New builds the logger described by cfg.
//
// cfg.Output selects stdout, stderr, or a file path opened for appending.
// The returned error is only ever a failure to open that file.
func New(cfg config.LoggingConfig, version string) (*Logger, error) {
	w, closer, err := openOutput(cfg.Output)
	if err != nil {
		return nil, err
	}
	l := NewWithWriter(w, cfg, version)
	l.closer = closer
	return l, nil
}

func openOutput(output string) (io.Writer, io.Closer, error) {
	switch strings.ToLower(output) {
	case "", "stdout":
		return os.Stdout, nil, nil
	case "stderr":
		return os.Stderr, nil, nil
	}
	f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640) //nolint:gosec // path comes from the operator's config
	if err != nil {
		return nil, nil, fmt.Errorf("opening log output %q: %w", output, err)
	}
	return f, f, nil
}

// NewWithWriter builds a logger on w and ignores cfg.Output.
func NewWithWriter(w io.Writer, cfg config.LoggingConfig, version string) *Logger {
	opts := &slog.HandlerOptions{
		Level:       levelFromString(cfg.Level),
		ReplaceAttr: redact,
	}

	var h slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}

	return &Logger{
		Logger: slog.New(h).With("service", ServiceName, "version", version),
	}
}

// levelFromString maps debug, info, warn (or warning) and error onto slog
// levels. Anything else is info.
func levelFromString(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func redact(_ []string, a slog.Attr) slog.Attr {
	key := strings.ToLower(a.Key)
	for _, s := range secretKeys {
		if strings.HasSuffix(key, s) {
			return slog.String(a.Key, redacted)
		}
	}
	return a
}

// With returns a child logger with extra fields. The child shares the
// parent's output; only the parent should be closed.
//
//	mqttLog := logger.With("component", "mqtt_client")
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Close releases the log file when output is a path. No-op otherwise.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// Default is the bootstrap logger used before config.yaml is read: JSON on
// stdout at info level.
func Default() *Logger {
	return NewWithWriter(os.Stdout, config.LoggingConfig{Level: "info", Format: "json"}, "dev")
}
