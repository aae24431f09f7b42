package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"sales-explorer/internal/config"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLogLevel(tt.in); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-42")
	if got := GetRequestID(ctx); got != "req-42" {
		t.Errorf("GetRequestID() = %q, want req-42", got)
	}
	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("GetRequestID() on empty context = %q", got)
	}
}

func TestSpan_Nesting(t *testing.T) {
	ctx, parent := StartSpan(context.Background(), "GET /")
	_, child := StartSpan(ctx, "apply selection")

	if child.TraceID != parent.TraceID {
		t.Errorf("child trace = %q, parent trace = %q", child.TraceID, parent.TraceID)
	}
	if child.ParentID != parent.SpanID {
		t.Errorf("child parent = %q, want %q", child.ParentID, parent.SpanID)
	}
	if len(parent.SpanID) != 16 {
		t.Errorf("span id %q should be 16 hex chars", parent.SpanID)
	}
}

func TestSpan_LogValue(t *testing.T) {
	_, span := StartSpan(context.Background(), "GET /sse/selection")
	span.SetTag("http.status_code", "500")
	span.SetError(errors.New("HTTP 500"))
	span.Finish()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	logger.Info("span finished", "span", span)

	out := buf.String()
	for _, want := range []string{
		"span.operation=\"GET /sse/selection\"",
		"span.status=ERROR",
		"span.http.status_code=500",
		"span.duration=",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %q", out, want)
		}
	}
}

func TestNewLoggerTo_ContextIDs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, config.LoggerConfig{Level: "info", Format: "text", AddSource: true})

	ctx := WithRequestID(context.Background(), "req-7")
	ctx, span := StartSpan(ctx, "GET /sse/overview")
	logger.InfoContext(ctx, "overview streamed")

	out := buf.String()
	for _, want := range []string{
		"service=sales-explorer",
		"request_id=req-7",
		"trace_id=" + span.TraceID,
		"source=observability/observability_test.go:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %q", out, want)
		}
	}
}

func TestNewLoggerTo_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, config.LoggerConfig{Level: "warn", Format: "json"})

	logger.Info("dropped")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") || !strings.Contains(out, `"msg":"kept"`) {
		t.Errorf("unexpected output %q", out)
	}
}
