package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TrendPatternRecord is one persisted classification of a topic's series.
type TrendPatternRecord struct {
	ID                  uuid.UUID        `json:"id" db:"id"`
	Topic               string           `json:"topic" db:"topic"`
	Variant             string           `json:"variant" db:"variant"`
	PatternType         string           `json:"pattern_type" db:"pattern_type"`
	Momentum            decimal.Decimal  `json:"momentum" db:"momentum"`
	Volatility          decimal.Decimal  `json:"volatility" db:"volatility"`
	TrendStrength       decimal.Decimal  `json:"trend_strength" db:"trend_strength"`
	BreakoutProbability decimal.Decimal  `json:"breakout_probability" db:"breakout_probability"`
	ReversalProbability decimal.Decimal  `json:"reversal_probability" db:"reversal_probability"`
	Seasonality         decimal.Decimal  `json:"seasonality" db:"seasonality"`
	ConfidenceScore     decimal.Decimal  `json:"confidence_score" db:"confidence_score"`
	SupportLevel        *decimal.Decimal `json:"support_level,omitempty" db:"support_level"`
	ResistanceLevel     *decimal.Decimal `json:"resistance_level,omitempty" db:"resistance_level"`
	DominantCycle       string           `json:"dominant_cycle,omitempty" db:"dominant_cycle"`
	RecommendedAction   string           `json:"recommended_action" db:"recommended_action"`
	DataPoints          int              `json:"data_points" db:"data_points"`
	CreatedAt           time.Time        `json:"created_at" db:"created_at"`
}

// VariantCount is the number of stored classifications per variant.
type VariantCount struct {
	Variant string `json:"variant" db:"variant"`
	Count   int64  `json:"count" db:"count"`
}

// ClassifyRequest is the body of a classification call.
type ClassifyRequest struct {
	Topic      string      `json:"topic"`
	Values     []any       `json:"values"`
	Timestamps []time.Time `json:"timestamps,omitempty"`
}

// PerformanceReport is one observed performance value for a metric.
type PerformanceReport struct {
	Metric      string  `json:"metric"`
	Performance float64 `json:"performance"`
}

// ScoreRequest carries per-metric sub-scores to be combined.
type ScoreRequest struct {
	Subscores map[string]float64 `json:"subscores"`
}

// WeightsResponse is the weight vector of one content type.
type WeightsResponse struct {
	ContentType string                     `json:"content_type"`
	Weights     map[string]decimal.Decimal `json:"weights"`
}

// ScoreResponse is a combined score and the weights that produced it.
type ScoreResponse struct {
	ContentType string                     `json:"content_type"`
	Score       decimal.Decimal            `json:"score"`
	Weights     map[string]decimal.Decimal `json:"weights"`
}
