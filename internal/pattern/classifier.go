// Package pattern turns a value series into an EnhancedTrendPattern and maps
// trend variants to their static content guidance.
package pattern

import (
	"fmt"
	"math"
	"time"

	"github.com/irfndi/trendpulse/internal/trend"
)

// PatternType is the coarse shape tag carried by an EnhancedTrendPattern.
type PatternType string

const (
	TypeBreakout       PatternType = "BREAKOUT"
	TypeReversal       PatternType = "REVERSAL"
	TypeConsolidation  PatternType = "CONSOLIDATION"
	TypeContinuation   PatternType = "CONTINUATION"
	TypeSeasonalPeak   PatternType = "SEASONAL_PEAK"
	TypeSeasonalTrough PatternType = "SEASONAL_TROUGH"
)

// Action is the recommended next step for a classified series.
type Action string

const (
	ActionMonitorBreakout   Action = "MONITOR_FOR_BREAKOUT"
	ActionPrepareReversal   Action = "PREPARE_FOR_REVERSAL"
	ActionFollowSeasonal    Action = "FOLLOW_SEASONAL_PATTERN"
	ActionContinueTrend     Action = "STRONG_TREND_CONTINUE"
	ActionVolatilityCaution Action = "HIGH_VOLATILITY_CAUTION"
	ActionMaintainStrategy  Action = "MAINTAIN_CURRENT_STRATEGY"
)

// Classification thresholds.
const (
	significantConfidence = 0.7
	significantStrength   = 0.6
	candidateProbability  = 0.8
	lowVolatility         = 0.3
	weakTrend             = 0.4
	seasonalThreshold     = 0.7
	strongTrend           = 0.8
	strongConfidence      = 0.7
	highVolatility        = 0.5
	continuationStrength  = 0.7
	stableMomentum        = 0.5
	seasonalFactorCutoff  = 0.5
)

// EnhancedTrendPattern is an immutable feature snapshot of one series.
type EnhancedTrendPattern struct {
	Momentum             float64     `json:"momentum"`
	Volatility           float64     `json:"volatility"`
	TrendStrength        float64     `json:"trend_strength"`
	BreakoutProbability  float64     `json:"breakout_probability"`
	ReversalProbability  float64     `json:"reversal_probability"`
	Seasonality          float64     `json:"seasonality"`
	ConfidenceScore      float64     `json:"confidence_score"`
	SupportLevel         float64     `json:"support_level"`
	ResistanceLevel      float64     `json:"resistance_level"`
	HasSupportResistance bool        `json:"has_support_resistance"`
	DominantCycle        string      `json:"dominant_cycle"`
	PatternType          PatternType `json:"pattern_type"`
	DataPoints           int         `json:"data_points"`
}

// Classify runs every series statistic once over values and assembles the
// resulting pattern. timestamps may be nil. An empty series yields a zero
// pattern.
func Classify(values []float64, timestamps []time.Time) EnhancedTrendPattern {
	if len(values) == 0 {
		return EnhancedTrendPattern{PatternType: TypeConsolidation}
	}

	p := EnhancedTrendPattern{
		Momentum:            trend.Momentum(values),
		Volatility:          trend.Volatility(values),
		TrendStrength:       trend.TrendStrength(values),
		BreakoutProbability: trend.BreakoutProbability(values),
		ReversalProbability: trend.ReversalProbability(values),
		Seasonality:         trend.Seasonality(values, timestamps),
		DataPoints:          len(values),
	}

	if bands, ok := trend.SupportResistance(values); ok {
		p.SupportLevel = bands.Support
		p.ResistanceLevel = bands.Resistance
		p.HasSupportResistance = true
	}

	if cycle, ok := trend.DominantCycle(values); ok {
		p.DominantCycle = fmt.Sprintf("%.1f periods", cycle.Period)
	}

	p.ConfidenceScore = ConfidenceScore(p.Momentum, p.Volatility, p.TrendStrength, p.Seasonality)
	p.PatternType = patternTypeOf(p)

	return p
}

// ConfidenceScore averages momentum stability, low volatility, trend
// strength and seasonality into [0,1].
func ConfidenceScore(momentum, volatility, trendStrength, seasonality float64) float64 {
	momentumFactor := 0.5
	if math.Abs(momentum) < stableMomentum {
		momentumFactor = 1.0
	}

	volatilityFactor := 0.5
	if volatility < lowVolatility {
		volatilityFactor = 1.0
	}

	seasonalityFactor := seasonality
	if seasonality > seasonalFactorCutoff {
		seasonalityFactor = 1.0
	}

	score := (momentumFactor + volatilityFactor + unit(trendStrength) + unit(seasonalityFactor)) / 4.0
	return unit(score)
}

// IsSignificant reports a confident, strongly trending series.
func (p EnhancedTrendPattern) IsSignificant() bool {
	return p.ConfidenceScore >= significantConfidence && p.TrendStrength >= significantStrength
}

// IsBreakoutCandidate reports a strong recent surge on a calm series.
func (p EnhancedTrendPattern) IsBreakoutCandidate() bool {
	return p.BreakoutProbability > candidateProbability && p.Volatility < lowVolatility
}

// IsReversalCandidate reports a strong recent drop without a dominant trend.
func (p EnhancedTrendPattern) IsReversalCandidate() bool {
	return p.ReversalProbability > candidateProbability && p.TrendStrength < weakTrend
}

// RecommendedAction resolves the first matching rule of a fixed ladder.
func (p EnhancedTrendPattern) RecommendedAction() Action {
	switch {
	case p.IsBreakoutCandidate():
		return ActionMonitorBreakout
	case p.IsReversalCandidate():
		return ActionPrepareReversal
	case p.Seasonality > seasonalThreshold:
		return ActionFollowSeasonal
	case p.TrendStrength > strongTrend && p.ConfidenceScore > strongConfidence:
		return ActionContinueTrend
	case p.Volatility > highVolatility:
		return ActionVolatilityCaution
	default:
		return ActionMaintainStrategy
	}
}

// Finite reports whether every numeric feature is a finite number.
func (p EnhancedTrendPattern) Finite() bool {
	for _, v := range []float64{
		p.Momentum, p.Volatility, p.TrendStrength, p.BreakoutProbability,
		p.ReversalProbability, p.Seasonality, p.ConfidenceScore,
		p.SupportLevel, p.ResistanceLevel,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func patternTypeOf(p EnhancedTrendPattern) PatternType {
	switch {
	case p.BreakoutProbability > candidateProbability:
		return TypeBreakout
	case p.ReversalProbability > candidateProbability:
		return TypeReversal
	case p.Seasonality > seasonalThreshold:
		if p.Momentum < 0 {
			return TypeSeasonalTrough
		}
		return TypeSeasonalPeak
	case p.TrendStrength > continuationStrength:
		return TypeContinuation
	default:
		return TypeConsolidation
	}
}

func unit(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
