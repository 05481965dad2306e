package telemetry

import (
	"context"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// BusinessTracer records spans for classification and weight learning.
type BusinessTracer struct {
	tracer trace.Tracer
}

// NewBusinessTracer uses the global business tracer.
func NewBusinessTracer() *BusinessTracer {
	return &BusinessTracer{tracer: GetBusinessTracer()}
}

// NewBusinessTracerWith is used by tests that install their own provider.
func NewBusinessTracerWith(tracer trace.Tracer) *BusinessTracer {
	return &BusinessTracer{tracer: tracer}
}

// ClassificationResult is the outcome attached to a classification span.
type ClassificationResult struct {
	Variant           string
	PatternType       string
	Confidence        float64
	RecommendedAction string
	Duration          time.Duration
}

func (bt *BusinessTracer) TraceClassification(ctx context.Context, topic string, dataPoints int) (context.Context, trace.Span) {
	return bt.tracer.Start(ctx, "trend.classify",
		trace.WithAttributes(
			attribute.String("trend.topic", topic),
			attribute.Int("trend.data_points", dataPoints),
		),
	)
}

func (bt *BusinessTracer) RecordClassification(span trace.Span, result ClassificationResult) {
	span.SetAttributes(
		attribute.String("trend.variant", result.Variant),
		attribute.String("trend.pattern_type", result.PatternType),
		attribute.Float64("trend.confidence", result.Confidence),
		attribute.String("trend.recommended_action", result.RecommendedAction),
		attribute.Int64("trend.duration_ms", result.Duration.Milliseconds()),
	)
	span.SetStatus(codes.Ok, "")
}

func (bt *BusinessTracer) TraceWeightUpdate(ctx context.Context, contentType, metric string) (context.Context, trace.Span) {
	return bt.tracer.Start(ctx, "weights.update",
		trace.WithAttributes(
			attribute.String("weights.content_type", contentType),
			attribute.String("weights.metric", metric),
		),
	)
}

// RecordWeights attaches each weight as weights.<metric>, in metric order.
func (bt *BusinessTracer) RecordWeights(span trace.Span, weights map[string]float64) {
	metrics := make([]string, 0, len(weights))
	for m := range weights {
		metrics = append(metrics, m)
	}
	sort.Strings(metrics)

	attrs := make([]attribute.KeyValue, 0, len(metrics))
	for _, m := range metrics {
		attrs = append(attrs, attribute.Float64("weights."+m, weights[m]))
	}
	span.SetAttributes(attrs...)
}
