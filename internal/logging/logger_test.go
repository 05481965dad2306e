package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otellog "go.opentelemetry.io/otel/log"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestNewStandardLogger_Basic(t *testing.T) {
	logger := NewStandardLogger("info", "development")
	assert.NotNil(t, logger)
	assert.NotNil(t, logger.Logger())
	assert.NoError(t, logger.Shutdown(context.Background()))
}

func TestStandardLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := newStandardLogger(&buf, "warn", "test")

	logger.Logger().Info("dropped")
	logger.Logger().Warn("kept")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "kept", lines[0]["msg"])
	assert.Equal(t, "test", lines[0]["environment"])
}

func TestStandardLogger_ContextHelpers(t *testing.T) {
	var buf bytes.Buffer
	logger := newStandardLogger(&buf, "debug", "")

	logger.WithService("trendpulse").Info("a")
	logger.WithComponent("weights").Info("b")
	logger.WithOperation("classify").Info("c")
	logger.WithRequestID("req-1").Info("d")
	logger.WithContentType("blog").Info("e")
	logger.WithTopic("golang").Info("f")
	logger.WithError(errors.New("boom")).Info("g")
	logger.WithError(nil).Info("h")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 8)
	assert.Equal(t, "trendpulse", lines[0]["service"])
	assert.Equal(t, "weights", lines[1]["component"])
	assert.Equal(t, "classify", lines[2]["operation"])
	assert.Equal(t, "req-1", lines[3]["request_id"])
	assert.Equal(t, "blog", lines[4]["content_type"])
	assert.Equal(t, "golang", lines[5]["topic"])
	assert.Equal(t, "boom", lines[6]["error"])
	assert.NotContains(t, lines[7], "error")
}

func TestStandardLogger_Events(t *testing.T) {
	var buf bytes.Buffer
	logger := newStandardLogger(&buf, "info", "")

	logger.LogStartup("trendpulse", "1.0.0", 8080)
	logger.LogShutdown("trendpulse", "signal received")
	logger.LogClassification("golang", "STEADY_RISE", 0.9, 12)
	logger.LogWeightUpdate("blog", "trend", 0.9, map[string]float64{"trend": 0.5})
	logger.LogAPIRequest("GET", "/api/v1/patterns", 200, 3)
	logger.LogBusinessEvent("weights_reset", map[string]interface{}{"content_type": "news"})

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 6)

	assert.Equal(t, "startup", lines[0]["event"])
	assert.Equal(t, float64(8080), lines[0]["port"])
	assert.Equal(t, "shutdown", lines[1]["event"])
	assert.Equal(t, "signal received", lines[1]["reason"])
	assert.Equal(t, "STEADY_RISE", lines[2]["variant"])
	assert.Equal(t, 0.9, lines[2]["confidence"])
	assert.Equal(t, "weights", lines[3]["event"])
	assert.Equal(t, map[string]any{"trend": 0.5}, lines[3]["weights"])
	assert.Equal(t, float64(200), lines[4]["status"])
	assert.Equal(t, "weights_reset", lines[5]["event_type"])
	assert.Equal(t, "news", lines[5]["content_type"])
}

func TestNewStandardOTLPLogger_Disabled(t *testing.T) {
	logger := NewStandardOTLPLogger(OTLPConfig{Enabled: false, ServiceName: "test-service", LogLevel: "info"})

	assert.NotNil(t, logger.Logger())
	assert.NoError(t, logger.Shutdown(context.Background()))
}

func TestNewLogrusLogger(t *testing.T) {
	logger := NewLogrusLogger("debug")

	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)
}

func TestParseLogrusLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"DEBUG", logrus.DebugLevel},
		{"warn", logrus.WarnLevel},
		{"warning", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
		{"info", logrus.InfoLevel},
		{"bogus", logrus.InfoLevel},
		{"", logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLogrusLevel(tt.input))
		})
	}
}

func TestGetSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, getSlogLevel("debug"))
	assert.Equal(t, slog.LevelWarn, getSlogLevel("Warning"))
	assert.Equal(t, slog.LevelError, getSlogLevel("error"))
	assert.Equal(t, slog.LevelInfo, getSlogLevel("verbose"))
}

func TestNewOTLPLogger_Disabled(t *testing.T) {
	logger, err := NewOTLPLogger(OTLPConfig{Enabled: false, ServiceName: "test-service"})
	require.NoError(t, err)
	assert.NotNil(t, logger.Logger())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, logger.Shutdown(shutdownCtx))
}

// recordingOTLPLogger captures emitted records.
type recordingOTLPLogger struct {
	otellog.Logger
	mu      sync.Mutex
	records []otellog.Record
}

func (r *recordingOTLPLogger) Enabled(ctx context.Context, params otellog.EnabledParameters) bool {
	return true
}

func (r *recordingOTLPLogger) Emit(ctx context.Context, record otellog.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
}

func attributesOf(record otellog.Record) map[string]otellog.Value {
	out := make(map[string]otellog.Value)
	record.WalkAttributes(func(kv otellog.KeyValue) bool {
		out[kv.Key] = kv.Value
		return true
	})
	return out
}

func TestOTLPHandler_Enabled(t *testing.T) {
	handler := NewOTLPHandler(&recordingOTLPLogger{}, slog.LevelInfo)
	ctx := context.Background()

	assert.False(t, handler.Enabled(ctx, slog.LevelDebug))
	assert.True(t, handler.Enabled(ctx, slog.LevelInfo))
	assert.True(t, handler.Enabled(ctx, slog.LevelError))
}

func TestOTLPHandler_Handle(t *testing.T) {
	rec := &recordingOTLPLogger{}
	logger := slog.New(NewOTLPHandler(rec, slog.LevelDebug)).
		With("service", "trendpulse").
		WithGroup("pattern")

	logger.Warn("Series classified", "confidence", 0.75, "points", 12, "significant", true)

	require.Len(t, rec.records, 1)
	record := rec.records[0]
	assert.Equal(t, "Series classified", record.Body().AsString())
	assert.Equal(t, otellog.SeverityWarn, record.Severity())

	attrs := attributesOf(record)
	assert.Equal(t, "trendpulse", attrs["service"].AsString())
	assert.Equal(t, 0.75, attrs["pattern.confidence"].AsFloat64())
	assert.Equal(t, int64(12), attrs["pattern.points"].AsInt64())
	assert.True(t, attrs["pattern.significant"].AsBool())
}

func TestOTLPHandler_WithGroupEmptyName(t *testing.T) {
	handler := NewOTLPHandler(&recordingOTLPLogger{}, slog.LevelInfo)
	assert.Same(t, handler, handler.WithGroup(""))
}

func TestConvertSlogLevelToSeverity(t *testing.T) {
	assert.Equal(t, otellog.SeverityDebug, convertSlogLevelToSeverity(slog.LevelDebug))
	assert.Equal(t, otellog.SeverityInfo, convertSlogLevelToSeverity(slog.LevelInfo))
	assert.Equal(t, otellog.SeverityWarn, convertSlogLevelToSeverity(slog.LevelWarn))
	assert.Equal(t, otellog.SeverityError, convertSlogLevelToSeverity(slog.LevelError))
	assert.Equal(t, otellog.SeverityInfo, convertSlogLevelToSeverity(slog.Level(10)))
}
