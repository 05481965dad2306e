package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/irfndi/trendpulse/internal/metrics"
	"github.com/irfndi/trendpulse/internal/models"
	"github.com/irfndi/trendpulse/internal/observability"
	"github.com/irfndi/trendpulse/internal/pattern"
	"github.com/irfndi/trendpulse/internal/telemetry"
	"github.com/irfndi/trendpulse/internal/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ErrStorageDisabled is returned by history queries when no repository is
// configured.
var ErrStorageDisabled = errors.New("pattern storage is disabled")

// PatternStore persists classification results.
type PatternStore interface {
	Save(ctx context.Context, record *models.TrendPatternRecord) error
	ListByTopic(ctx context.Context, topic string, limit int) ([]models.TrendPatternRecord, error)
	CountByVariant(ctx context.Context, since time.Time) ([]models.VariantCount, error)
}

// Flags are the independent candidacy predicates of a pattern.
type Flags struct {
	Significant       bool `json:"significant"`
	BreakoutCandidate bool `json:"breakout_candidate"`
	ReversalCandidate bool `json:"reversal_candidate"`
}

// AnalysisResult is everything derived from one series of a topic.
type AnalysisResult struct {
	Topic             string                       `json:"topic"`
	Pattern           pattern.EnhancedTrendPattern `json:"pattern"`
	Variant           pattern.TrendPattern         `json:"variant"`
	Metadata          pattern.Metadata             `json:"metadata"`
	RecommendedAction pattern.Action               `json:"recommended_action"`
	Flags             Flags                        `json:"flags"`
	RecordID          *uuid.UUID                   `json:"record_id,omitempty"`
}

// TrendService classifies series, assigns a variant and stores the result.
type TrendService struct {
	assigner *pattern.VariantAssigner
	store    PatternStore
	breaker  *CircuitBreaker
	metrics  *metrics.Metrics
	tracer   *telemetry.BusinessTracer
	logger   *logrus.Logger
}

// NewTrendService accepts a nil store (results are not persisted) and nil
// metrics.
func NewTrendService(assigner *pattern.VariantAssigner, store PatternStore, m *metrics.Metrics, logger *logrus.Logger) *TrendService {
	if assigner == nil {
		assigner = pattern.NewVariantAssigner()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &TrendService{
		assigner: assigner,
		store:    store,
		breaker:  NewCircuitBreaker("pattern_store", CircuitBreakerConfig{}, logger),
		metrics:  m,
		tracer:   telemetry.NewBusinessTracer(),
		logger:   logger,
	}
}

// SetTracer replaces the business tracer.
func (s *TrendService) SetTracer(tracer *telemetry.BusinessTracer) {
	s.tracer = tracer
}

// StorageEnabled reports whether results are persisted.
func (s *TrendService) StorageEnabled() bool {
	return s.store != nil
}

// Analyze classifies series for topic. A storage failure is logged and
// reported but does not fail the analysis.
func (s *TrendService) Analyze(ctx context.Context, topic string, series Series) (*AnalysisResult, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, utils.NewFieldError("topic", "must not be empty")
	}

	ctx, span := s.tracer.TraceClassification(ctx, topic, series.Len())
	defer span.End()

	start := time.Now()
	p := pattern.Classify(series.Values, series.Timestamps)
	variant := s.assigner.Assign(series.Values, p)
	elapsed := time.Since(start)

	result := &AnalysisResult{
		Topic:             topic,
		Pattern:           p,
		Variant:           variant,
		Metadata:          variant.Metadata(),
		RecommendedAction: p.RecommendedAction(),
		Flags: Flags{
			Significant:       p.IsSignificant(),
			BreakoutCandidate: p.IsBreakoutCandidate(),
			ReversalCandidate: p.IsReversalCandidate(),
		},
	}

	s.tracer.RecordClassification(span, telemetry.ClassificationResult{
		Variant:           string(variant),
		PatternType:       string(p.PatternType),
		Confidence:        p.ConfidenceScore,
		RecommendedAction: string(result.RecommendedAction),
		Duration:          elapsed,
	})
	if s.metrics != nil {
		s.metrics.ObserveClassification(string(variant), string(p.PatternType), series.Len(), elapsed)
	}

	s.logger.WithFields(logrus.Fields{
		"topic":        topic,
		"variant":      variant,
		"pattern_type": p.PatternType,
		"confidence":   p.ConfidenceScore,
		"data_points":  series.Len(),
		"duration_us":  elapsed.Microseconds(),
	}).Debug("Classified trend series")

	if s.store != nil && p.Finite() {
		s.persist(ctx, result)
	}

	return result, nil
}

func (s *TrendService) persist(ctx context.Context, result *AnalysisResult) {
	record := ToRecord(result)
	err := s.breaker.Execute(ctx, func(ctx context.Context) error {
		return s.store.Save(ctx, &record)
	})

	switch {
	case err == nil:
		result.RecordID = &record.ID
	case errors.Is(err, ErrCircuitOpen):
		s.logger.WithField("topic", result.Topic).Debug("Pattern store unavailable, skipping save")
	default:
		s.logger.WithFields(logrus.Fields{
			"topic": result.Topic,
			"error": err.Error(),
		}).Error("Failed to store trend pattern")
		observability.CaptureWithTags(ctx, err, map[string]string{"topic": result.Topic})
	}
}

// History returns the stored classifications of topic, newest first.
func (s *TrendService) History(ctx context.Context, topic string, limit int) ([]models.TrendPatternRecord, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, utils.NewFieldError("topic", "must not be empty")
	}
	if limit < 0 {
		return nil, utils.NewFieldError("limit", "must not be negative")
	}

	records, err := s.store.ListByTopic(ctx, topic, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for %s: %w", topic, err)
	}
	return records, nil
}

// VariantCounts tallies stored classifications since the given time.
func (s *TrendService) VariantCounts(ctx context.Context, since time.Time) ([]models.VariantCount, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}
	counts, err := s.store.CountByVariant(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count variants: %w", err)
	}
	return counts, nil
}

// ToRecord converts a finite analysis result into its stored form, rounded
// to four decimal places.
func ToRecord(result *AnalysisResult) models.TrendPatternRecord {
	p := result.Pattern
	record := models.TrendPatternRecord{
		Topic:               result.Topic,
		Variant:             string(result.Variant),
		PatternType:         string(p.PatternType),
		Momentum:            Round4(p.Momentum),
		Volatility:          Round4(p.Volatility),
		TrendStrength:       Round4(p.TrendStrength),
		BreakoutProbability: Round4(p.BreakoutProbability),
		ReversalProbability: Round4(p.ReversalProbability),
		Seasonality:         Round4(p.Seasonality),
		ConfidenceScore:     Round4(p.ConfidenceScore),
		DominantCycle:       p.DominantCycle,
		RecommendedAction:   string(result.RecommendedAction),
		DataPoints:          p.DataPoints,
	}
	if p.HasSupportResistance {
		support := Round4(p.SupportLevel)
		resistance := Round4(p.ResistanceLevel)
		record.SupportLevel = &support
		record.ResistanceLevel = &resistance
	}
	return record
}

// Round4 converts f to a decimal rounded to four places. Non-finite values
// become zero, since decimal cannot represent them.
func Round4(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f).Round(4)
}

// RoundFinite is Round4 for values that may be missing: non-finite input
// yields nil instead of a zero that reads like a measurement.
func RoundFinite(f float64) *decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	d := Round4(f)
	return &d
}
