package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected slog.Level
		wantErr  bool
	}{
		{name: "debug level", input: "DEBUG", expected: slog.LevelDebug},
		{name: "info level", input: "INFO", expected: slog.LevelInfo},
		{name: "warn level", input: "WARN", expected: slog.LevelWarn},
		{name: "warning level", input: "WARNING", expected: slog.LevelWarn},
		{name: "error level", input: "ERROR", expected: slog.LevelError},
		{name: "case insensitive", input: "debug", expected: slog.LevelDebug},
		{name: "invalid level", input: "TRACE", expected: slog.LevelInfo, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseLogLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseLogLevel() error = %v, wantErr %v", err, tt.wantErr)
			}
			if result != tt.expected {
				t.Errorf("ParseLogLevel() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestParseLogFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected LogFormat
		wantErr  bool
	}{
		{"", FormatJSON, false},
		{"json", FormatJSON, false},
		{"TEXT", FormatText, false},
		{"pretty", FormatText, false},
		{"xml", FormatJSON, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := ParseLogFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseLogFormat() error = %v, wantErr %v", err, tt.wantErr)
			}
			if result != tt.expected {
				t.Errorf("ParseLogFormat() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func decodeLine(t *testing.T, line string) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("failed to decode log line %q: %v", line, err)
	}
	return entry
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{
		Service: "virus-scanner",
		Level:   slog.LevelInfo,
		Output:  &buf,
	})

	logger.Info("Getting document from s3", "bucketName", "quarantine", "objectKey", "doc.pdf")

	entry := decodeLine(t, strings.TrimSpace(buf.String()))

	if entry["message"] != "Getting document from s3" {
		t.Errorf("message = %v", entry["message"])
	}
	if entry["severity"] != "INFO" {
		t.Errorf("severity = %v, want INFO", entry["severity"])
	}
	if entry["name"] != "virus-scanner" {
		t.Errorf("name = %v, want virus-scanner", entry["name"])
	}
	if entry["bucketName"] != "quarantine" {
		t.Errorf("bucketName = %v, want quarantine", entry["bucketName"])
	}
	if _, ok := entry["msg"]; ok {
		t.Error("msg key should be renamed to message")
	}
	if _, ok := entry["level"]; ok {
		t.Error("level key should be replaced by severity")
	}
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Level: slog.LevelWarn, Output: &buf})

	logger.Info("dropped")
	logger.Error("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Error("info record should be filtered at WARN")
	}
	if !strings.Contains(out, "kept") {
		t.Error("error record should be written at WARN")
	}
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Format: FormatText, Output: &buf})

	logger.Info("hello", "k", "v")

	out := buf.String()
	if !strings.Contains(out, "message=hello") {
		t.Errorf("text output missing message: %q", out)
	}
	if !strings.Contains(out, "severity=INFO") {
		t.Errorf("text output missing severity: %q", out)
	}
}

func TestContextHandler_RequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Output: &buf}).With("component", "s3-service")

	ctx := WithRequestID(context.Background(), "req-123")
	logger.InfoContext(ctx, "with id")
	logger.Info("without id")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	first := decodeLine(t, lines[0])
	if first["reqId"] != "req-123" {
		t.Errorf("reqId = %v, want req-123", first["reqId"])
	}
	if first["component"] != "s3-service" {
		t.Errorf("component = %v, want s3-service", first["component"])
	}

	second := decodeLine(t, lines[1])
	if _, ok := second["reqId"]; ok {
		t.Error("reqId should be absent without a request id in context")
	}
}

func TestRequestIDFromContext(t *testing.T) {
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Errorf("RequestIDFromContext() = %q, want empty", got)
	}
	ctx := WithRequestID(context.Background(), "abc")
	if got := RequestIDFromContext(ctx); got != "abc" {
		t.Errorf("RequestIDFromContext() = %q, want abc", got)
	}
}

func TestSetupLogging(t *testing.T) {
	previous := slog.Default()
	defer slog.SetDefault(previous)

	t.Run("invalid level", func(t *testing.T) {
		if _, _, err := SetupLogging("svc", "LOUD", "json", ""); err == nil {
			t.Error("expected error for invalid level")
		}
	})

	t.Run("invalid format", func(t *testing.T) {
		if _, _, err := SetupLogging("svc", "INFO", "xml", ""); err == nil {
			t.Error("expected error for invalid format")
		}
	})

	t.Run("log file", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "docscan.log")
		logger, closeLog, err := SetupLogging("svc", "DEBUG", "json", logFile)
		if err != nil {
			t.Fatalf("SetupLogging() error = %v", err)
		}
		if logger == nil {
			t.Fatal("SetupLogging() returned nil logger")
		}
		if slog.Default() != logger {
			t.Error("SetupLogging() should install the default logger")
		}

		logger.Info("written before close")
		if err := closeLog(); err != nil {
			t.Fatalf("close error = %v, want nil", err)
		}
		if err := closeLog(); !errors.Is(err, os.ErrClosed) {
			t.Errorf("second close error = %v, want %v", err, os.ErrClosed)
		}

		data, err := os.ReadFile(logFile)
		if err != nil {
			t.Fatalf("read log file: %v", err)
		}
		if !strings.Contains(string(data), `"message":"written before close"`) {
			t.Errorf("log file = %q", data)
		}
	})

	t.Run("stderr closer is a no-op", func(t *testing.T) {
		_, closeLog, err := SetupLogging("svc", "INFO", "text", "")
		if err != nil {
			t.Fatalf("SetupLogging() error = %v", err)
		}
		if err := closeLog(); err != nil {
			t.Errorf("close error = %v, want nil", err)
		}
		if err := closeLog(); err != nil {
			t.Errorf("second close error = %v, want nil", err)
		}
	})
}
