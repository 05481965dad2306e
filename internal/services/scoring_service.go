package services

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/irfndi/trendpulse/internal/metrics"
	"github.com/irfndi/trendpulse/internal/telemetry"
	"github.com/irfndi/trendpulse/internal/utils"
	"github.com/irfndi/trendpulse/internal/weights"
	"github.com/sirupsen/logrus"
)

var keyPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_.-]{0,63}$`)

// ScoringService combines metric sub-scores with the adaptive weights of a
// content type and feeds observed performance back into the store.
type ScoringService struct {
	store   *weights.Store
	metrics *metrics.Metrics
	tracer  *telemetry.BusinessTracer
	logger  *logrus.Logger
}

func NewScoringService(store *weights.Store, m *metrics.Metrics, logger *logrus.Logger) *ScoringService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ScoringService{
		store:   store,
		metrics: m,
		tracer:  telemetry.NewBusinessTracer(),
		logger:  logger,
	}
}

func (s *ScoringService) SetTracer(tracer *telemetry.BusinessTracer) {
	s.tracer = tracer
}

// NormalizeKey lowercases and validates a content type or metric name.
func NormalizeKey(field, key string) (string, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return "", utils.NewFieldError(field, "must not be empty")
	}
	if !keyPattern.MatchString(key) {
		return "", utils.NewFieldError(field, "%q has invalid characters", key)
	}
	return key, nil
}

// Weights returns the current vector for contentType.
func (s *ScoringService) Weights(contentType string) (string, map[string]float64, error) {
	ct, err := NormalizeKey("content_type", contentType)
	if err != nil {
		return "", nil, err
	}
	return ct, s.store.GetWeights(ct), nil
}

// Score is the weighted sum of subscores. Metrics without a sub-score count
// as zero; sub-scores for metrics without a weight are ignored.
func (s *ScoringService) Score(contentType string, subscores map[string]float64) (float64, map[string]float64, error) {
	ct, err := NormalizeKey("content_type", contentType)
	if err != nil {
		return 0, nil, err
	}

	normalized := make(map[string]float64, len(subscores))
	for metric, v := range subscores {
		m, err := NormalizeKey("subscores", metric)
		if err != nil {
			return 0, nil, err
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, nil, utils.NewFieldError("subscores", "%s is not finite", m)
		}
		normalized[m] = v
	}

	w := s.store.GetWeights(ct)

	// Summed in sorted metric order.
	names := make([]string, 0, len(w))
	for m := range w {
		names = append(names, m)
	}
	sort.Strings(names)

	score := 0.0
	for _, m := range names {
		score += w[m] * normalized[m]
	}
	return score, w, nil
}

// ReportPerformance validates and applies one performance observation.
func (s *ScoringService) ReportPerformance(ctx context.Context, contentType, metric string, performance float64) (map[string]float64, error) {
	ct, err := NormalizeKey("content_type", contentType)
	if err != nil {
		return nil, err
	}
	m, err := NormalizeKey("metric", metric)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(performance) || math.IsInf(performance, 0) {
		return nil, utils.NewFieldError("performance", "must be finite")
	}
	if performance < 0 {
		return nil, utils.NewFieldError("performance", "must not be negative, got %v", performance)
	}

	_, span := s.tracer.TraceWeightUpdate(ctx, ct, m)
	defer span.End()

	updated := s.store.ReportPerformance(ct, m, performance)
	s.tracer.RecordWeights(span, updated)
	if s.metrics != nil {
		s.metrics.ObserveWeights(ct, m, updated)
	}

	s.logger.WithFields(logrus.Fields{
		"content_type": ct,
		"metric":       m,
		"performance":  performance,
		"weights":      updated,
	}).Debug("Applied performance report")

	return updated, nil
}

// Reset restores the defaults of contentType.
func (s *ScoringService) Reset(ctx context.Context, contentType string) (string, map[string]float64, error) {
	ct, err := NormalizeKey("content_type", contentType)
	if err != nil {
		return "", nil, err
	}

	_, span := s.tracer.TraceWeightUpdate(ctx, ct, "")
	defer span.End()

	defaults := s.store.ResetWeights(ct)
	s.tracer.RecordWeights(span, defaults)
	if s.metrics != nil {
		s.metrics.ObserveWeights(ct, "", defaults)
	}
	return ct, defaults, nil
}

// PublishAll refreshes the weight gauges of every known content type, e.g.
// after restoring a checkpoint.
func (s *ScoringService) PublishAll() {
	if s.metrics == nil {
		return
	}
	for _, ct := range s.store.ContentTypes() {
		s.metrics.ObserveWeights(ct, "", s.store.GetWeights(ct))
	}
}
