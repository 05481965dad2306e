package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is the lifecycle and event logger shared by the server and the
// background workers. Service internals log through logrus.
type Logger interface {
	WithService(serviceName string) *slog.Logger
	WithComponent(componentName string) *slog.Logger
	WithOperation(operationName string) *slog.Logger
	WithRequestID(requestID string) *slog.Logger
	WithContentType(contentType string) *slog.Logger
	WithTopic(topic string) *slog.Logger
	WithError(err error) *slog.Logger
	LogStartup(serviceName string, version string, port int)
	LogShutdown(serviceName string, reason string)
	LogClassification(topic string, variant string, confidence float64, durationMs int64)
	LogWeightUpdate(contentType string, metric string, performance float64, weights map[string]float64)
	LogAPIRequest(method string, path string, statusCode int, durationMs int64)
	LogBusinessEvent(eventType string, details map[string]interface{})
	Logger() *slog.Logger
}

// StandardLogger is the default Logger. It may be backed by a plain JSON
// handler or by the OTLP bridge.
type StandardLogger struct {
	logger   Logger
	shutdown func(context.Context) error
}

// NewStandardLogger creates a JSON logger on stdout.
func NewStandardLogger(logLevel string, environment string) *StandardLogger {
	return newStandardLogger(os.Stdout, logLevel, environment)
}

func newStandardLogger(w io.Writer, logLevel string, environment string) *StandardLogger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: getSlogLevel(logLevel),
	})
	logger := slog.New(handler)
	if environment != "" {
		logger = logger.With("environment", environment)
	}
	return &StandardLogger{logger: &slogLogger{logger: logger}}
}

// NewStandardOTLPLogger exports through OTLP when enabled. If the exporter
// cannot be built it falls back to the stdout JSON logger.
func NewStandardOTLPLogger(config OTLPConfig) *StandardLogger {
	otlpLogger, err := NewOTLPLogger(config)
	if err != nil {
		fallback := NewStandardLogger(config.LogLevel, config.Environment)
		fallback.Logger().Warn("OTLP log exporter unavailable, using stdout", "error", err.Error())
		return fallback
	}
	return &StandardLogger{
		logger:   &slogLogger{logger: otlpLogger.Logger()},
		shutdown: otlpLogger.Shutdown,
	}
}

// Shutdown flushes the exporter, if any.
func (l *StandardLogger) Shutdown(ctx context.Context) error {
	if l.shutdown == nil {
		return nil
	}
	return l.shutdown(ctx)
}

func (l *StandardLogger) WithService(serviceName string) *slog.Logger {
	return l.logger.WithService(serviceName)
}

func (l *StandardLogger) WithComponent(componentName string) *slog.Logger {
	return l.logger.WithComponent(componentName)
}

func (l *StandardLogger) WithOperation(operationName string) *slog.Logger {
	return l.logger.WithOperation(operationName)
}

func (l *StandardLogger) WithRequestID(requestID string) *slog.Logger {
	return l.logger.WithRequestID(requestID)
}

func (l *StandardLogger) WithContentType(contentType string) *slog.Logger {
	return l.logger.WithContentType(contentType)
}

func (l *StandardLogger) WithTopic(topic string) *slog.Logger {
	return l.logger.WithTopic(topic)
}

func (l *StandardLogger) WithError(err error) *slog.Logger {
	return l.logger.WithError(err)
}

// LogStartup logs application startup information
func (l *StandardLogger) LogStartup(serviceName string, version string, port int) {
	l.logger.LogStartup(serviceName, version, port)
}

// LogShutdown logs application shutdown information
func (l *StandardLogger) LogShutdown(serviceName string, reason string) {
	l.logger.LogShutdown(serviceName, reason)
}

func (l *StandardLogger) LogClassification(topic string, variant string, confidence float64, durationMs int64) {
	l.logger.LogClassification(topic, variant, confidence, durationMs)
}

func (l *StandardLogger) LogWeightUpdate(contentType string, metric string, performance float64, weights map[string]float64) {
	l.logger.LogWeightUpdate(contentType, metric, performance, weights)
}

func (l *StandardLogger) LogAPIRequest(method string, path string, statusCode int, durationMs int64) {
	l.logger.LogAPIRequest(method, path, statusCode, durationMs)
}

func (l *StandardLogger) LogBusinessEvent(eventType string, details map[string]interface{}) {
	l.logger.LogBusinessEvent(eventType, details)
}

// Logger returns the underlying *slog.Logger
func (l *StandardLogger) Logger() *slog.Logger {
	return l.logger.Logger()
}

// NewLogrusLogger builds the JSON logrus logger handed to services.
func NewLogrusLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(ParseLogrusLevel(level))
	logger.SetFormatter(&logrus.JSONFormatter{})
	return logger
}

// getSlogLevel converts string level to slog.Level
func getSlogLevel(level string) slog.Level {
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

// ParseLogrusLevel converts string level to logrus.Level
func ParseLogrusLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// slogLogger implements Logger on top of any slog handler.
type slogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger adapts an existing slog logger, e.g. one writing to a test
// buffer.
func NewSlogLogger(logger *slog.Logger) Logger {
	return &slogLogger{logger: logger}
}

func (s *slogLogger) WithService(serviceName string) *slog.Logger {
	return s.logger.With("service", serviceName)
}

func (s *slogLogger) WithComponent(componentName string) *slog.Logger {
	return s.logger.With("component", componentName)
}

func (s *slogLogger) WithOperation(operationName string) *slog.Logger {
	return s.logger.With("operation", operationName)
}

func (s *slogLogger) WithRequestID(requestID string) *slog.Logger {
	return s.logger.With("request_id", requestID)
}

func (s *slogLogger) WithContentType(contentType string) *slog.Logger {
	return s.logger.With("content_type", contentType)
}

func (s *slogLogger) WithTopic(topic string) *slog.Logger {
	return s.logger.With("topic", topic)
}

func (s *slogLogger) WithError(err error) *slog.Logger {
	if err == nil {
		return s.logger
	}
	return s.logger.With("error", err.Error())
}

func (s *slogLogger) LogStartup(serviceName string, version string, port int) {
	s.logger.Info("Application startup",
		"service", serviceName,
		"version", version,
		"port", port,
		"event", "startup",
	)
}

func (s *slogLogger) LogShutdown(serviceName string, reason string) {
	s.logger.Info("Application shutdown",
		"service", serviceName,
		"reason", reason,
		"event", "shutdown",
	)
}

func (s *slogLogger) LogClassification(topic string, variant string, confidence float64, durationMs int64) {
	s.logger.Info("Series classified",
		"topic", topic,
		"variant", variant,
		"confidence", confidence,
		"duration_ms", durationMs,
		"event", "classification",
	)
}

func (s *slogLogger) LogWeightUpdate(contentType string, metric string, performance float64, weights map[string]float64) {
	s.logger.Info("Weights updated",
		"content_type", contentType,
		"metric", metric,
		"performance", performance,
		"weights", weights,
		"event", "weights",
	)
}

func (s *slogLogger) LogAPIRequest(method string, path string, statusCode int, durationMs int64) {
	s.logger.Info("API request",
		"method", method,
		"path", path,
		"status", statusCode,
		"duration_ms", durationMs,
		"event", "api",
	)
}

func (s *slogLogger) LogBusinessEvent(eventType string, details map[string]interface{}) {
	args := make([]any, 0, len(details)*2+4)
	args = append(args, "event_type", eventType, "event", "business")
	for k, v := range details {
		args = append(args, k, v)
	}
	s.logger.Info("Business event", args...)
}

func (s *slogLogger) Logger() *slog.Logger {
	return s.logger
}
