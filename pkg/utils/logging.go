package utils

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogFormat defines the output format for logs
type LogFormat int

const (
	FormatJSON LogFormat = iota
	FormatText
)

// ParseLogFormat parses a string log format
func ParseLogFormat(format string) (LogFormat, error) {
	switch strings.ToLower(format) {
	case "", "json":
		return FormatJSON, nil
	case "text", "pretty":
		return FormatText, nil
	default:
		return FormatJSON, fmt.Errorf("invalid log format: %s", format)
	}
}

// ParseLogLevel parses a string log level
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO":
		return slog.LevelInfo, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %s", level)
	}
}

// LoggerConfig holds configuration for the logger
type LoggerConfig struct {
	Service string
	Level   slog.Level
	Format  LogFormat
	Output  io.Writer
}

// NewLogger creates a structured logger. Records carry "message" and an
// upper-case "severity" instead of slog's msg/level keys, plus the service
// name under "name".
func NewLogger(cfg LoggerConfig) *slog.Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	opts := &slog.HandlerOptions{
		Level:       cfg.Level,
		ReplaceAttr: replaceAttr,
	}

	var handler slog.Handler
	if cfg.Format == FormatText {
		handler = slog.NewTextHandler(output, opts)
	} else {
		handler = slog.NewJSONHandler(output, opts)
	}

	logger := slog.New(NewContextHandler(handler))
	if cfg.Service != "" {
		logger = logger.With(slog.String("name", cfg.Service))
	}
	return logger
}

// SetupLogging builds a logger from string settings and installs it as the
// slog default. An empty logFile logs to stderr. The returned func closes
// the log file and must be called once logging is done.
func SetupLogging(service, levelStr, formatStr, logFile string) (*slog.Logger, func() error, error) {
	level, err := ParseLogLevel(levelStr)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level: %w", err)
	}

	format, err := ParseLogFormat(formatStr)
	if err != nil {
		return nil, nil, err
	}

	var output io.Writer = os.Stderr
	closeFn := func() error { return nil }
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		output = file
		closeFn = file.Close
	}

	logger := NewLogger(LoggerConfig{
		Service: service,
		Level:   level,
		Format:  format,
		Output:  output,
	})
	slog.SetDefault(logger)

	return logger, closeFn, nil
}

func replaceAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}

	switch a.Key {
	case slog.MessageKey:
		a.Key = "message"
	case slog.LevelKey:
		if level, ok := a.Value.Any().(slog.Level); ok {
			return slog.String("severity", level.String())
		}
	}
	return a
}

type requestIDKey struct{}

// WithRequestID returns a context whose log records carry reqId
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext returns the request id stored by WithRequestID
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// ContextHandler decorates records with values carried by the context
type ContextHandler struct {
	slog.Handler
}

// NewContextHandler wraps handler
func NewContextHandler(handler slog.Handler) *ContextHandler {
	return &ContextHandler{Handler: handler}
}

// Handle adds reqId when present
func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := RequestIDFromContext(ctx); id != "" {
		r.AddAttrs(slog.String("reqId", id))
	}
	return h.Handler.Handle(ctx, r)
}

// WithAttrs implements slog.Handler
func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

// WithGroup implements slog.Handler
func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{Handler: h.Handler.WithGroup(name)}
}
