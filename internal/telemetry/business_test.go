package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordedBusinessTracer(t *testing.T) (*BusinessTracer, *tracetest.SpanRecorder) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return NewBusinessTracerWith(tp.Tracer("business")), recorder
}

func attrMap(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestNewBusinessTracer(t *testing.T) {
	bt := NewBusinessTracer()
	require.NotNil(t, bt)
	require.NotNil(t, bt.tracer)
}

func TestBusinessTracer_Classification(t *testing.T) {
	bt, recorder := newRecordedBusinessTracer(t)

	_, span := bt.TraceClassification(context.Background(), "golang", 30)
	bt.RecordClassification(span, ClassificationResult{
		Variant:           "SEASONAL",
		PatternType:       "SEASONAL_PEAK",
		Confidence:        0.8,
		RecommendedAction: "FOLLOW_SEASONAL_PATTERN",
		Duration:          12 * time.Millisecond,
	})
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "trend.classify", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)

	attrs := attrMap(spans[0])
	assert.Equal(t, "golang", attrs["trend.topic"].AsString())
	assert.Equal(t, int64(30), attrs["trend.data_points"].AsInt64())
	assert.Equal(t, "SEASONAL", attrs["trend.variant"].AsString())
	assert.Equal(t, 0.8, attrs["trend.confidence"].AsFloat64())
	assert.Equal(t, int64(12), attrs["trend.duration_ms"].AsInt64())
}

func TestBusinessTracer_WeightUpdate(t *testing.T) {
	bt, recorder := newRecordedBusinessTracer(t)

	_, span := bt.TraceWeightUpdate(context.Background(), "blog", "trend")
	bt.RecordWeights(span, map[string]float64{"trend": 0.5, "sentiment": 0.3, "engagement": 0.2})
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "weights.update", spans[0].Name())

	attrs := attrMap(spans[0])
	assert.Equal(t, "blog", attrs["weights.content_type"].AsString())
	assert.Equal(t, 0.5, attrs["weights.trend"].AsFloat64())
	assert.Equal(t, 0.2, attrs["weights.engagement"].AsFloat64())
}

func TestBusinessTracer_RecordError(t *testing.T) {
	bt, recorder := newRecordedBusinessTracer(t)

	_, span := bt.TraceClassification(context.Background(), "golang", 0)
	RecordError(span, assert.AnError)
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	require.Len(t, spans[0].Events(), 1)
}
