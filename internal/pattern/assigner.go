package pattern

import "math"

// DefaultMinDataPoints is the series length below which a series cannot be
// assigned a shape.
const DefaultMinDataPoints = 10

// Shape thresholds relative to the first observation.
const (
	surgeRatio    = 1.5
	collapseRatio = 0.5
)

// VariantAssigner picks a TrendPattern for a series given its features. It
// is the default rule used by ingestion; callers with more context may use
// their own.
type VariantAssigner struct {
	MinDataPoints int
}

// NewVariantAssigner returns an assigner with DefaultMinDataPoints.
func NewVariantAssigner() *VariantAssigner {
	return &VariantAssigner{MinDataPoints: DefaultMinDataPoints}
}

// Assign returns the variant for values whose features are p.
func (a *VariantAssigner) Assign(values []float64, p EnhancedTrendPattern) TrendPattern {
	minPoints := a.MinDataPoints
	if minPoints <= 0 {
		minPoints = DefaultMinDataPoints
	}

	if len(values) < minPoints {
		return InsufficientData
	}
	if !p.Finite() {
		return Error
	}

	switch {
	case p.IsBreakoutCandidate():
		return Breakout
	case p.IsReversalCandidate():
		return Reversal
	case p.Seasonality > seasonalThreshold:
		return Seasonal
	}

	return shapeOf(values)
}

// shapeOf classifies by comparing the last observation with the first and
// with the peak.
func shapeOf(values []float64) TrendPattern {
	first := values[0]
	last := values[len(values)-1]
	peak := math.Inf(-1)
	for _, v := range values {
		if v > peak {
			peak = v
		}
	}

	switch {
	case last > first*surgeRatio:
		return VolatileRise
	case last < first*collapseRatio:
		return VolatileDecline
	case peak > last*surgeRatio && peak > first*surgeRatio:
		return VolatileRise
	case last > first:
		return SteadyRise
	case last < first:
		return SteadyDecline
	default:
		return Consolidation
	}
}
