package pattern

import "strings"

// TrendPattern is the discrete shape assigned to a series.
type TrendPattern string

const (
	SteadyRise       TrendPattern = "STEADY_RISE"
	SteadyDecline    TrendPattern = "STEADY_DECLINE"
	VolatileRise     TrendPattern = "VOLATILE_RISE"
	VolatileDecline  TrendPattern = "VOLATILE_DECLINE"
	Consolidation    TrendPattern = "CONSOLIDATION"
	Breakout         TrendPattern = "BREAKOUT"
	Reversal         TrendPattern = "REVERSAL"
	Seasonal         TrendPattern = "SEASONAL"
	InsufficientData TrendPattern = "INSUFFICIENT_DATA"
	Error            TrendPattern = "ERROR"
	Undefined        TrendPattern = "UNDEFINED"
)

// Cadence is how often content following a pattern should be refreshed.
type Cadence string

const (
	CadenceDaily      Cadence = "DAILY"
	CadenceWeekly     Cadence = "WEEKLY"
	CadenceMonthly    Cadence = "MONTHLY"
	CadenceSeasonally Cadence = "SEASONALLY"
	CadenceAsNeeded   Cadence = "AS_NEEDED"
)

// Metadata is the static guidance attached to a TrendPattern.
type Metadata struct {
	Strategy        string  `json:"recommended_strategy"`
	ConfidenceLevel float64 `json:"confidence_level"`
	UpdateCadence   Cadence `json:"update_frequency"`
}

var allPatterns = []TrendPattern{
	SteadyRise,
	SteadyDecline,
	VolatileRise,
	VolatileDecline,
	Consolidation,
	Breakout,
	Reversal,
	Seasonal,
	InsufficientData,
	Error,
	Undefined,
}

var metadataTable = map[TrendPattern]Metadata{
	SteadyRise: {
		Strategy:        "Capitalize on growing interest with in-depth content",
		ConfidenceLevel: 0.9,
		UpdateCadence:   CadenceWeekly,
	},
	SteadyDecline: {
		Strategy:        "Focus on differentiation and unique angles",
		ConfidenceLevel: 0.9,
		UpdateCadence:   CadenceMonthly,
	},
	VolatileRise: {
		Strategy:        "Create timely, responsive content with regular updates",
		ConfidenceLevel: 0.6,
		UpdateCadence:   CadenceDaily,
	},
	VolatileDecline: {
		Strategy:        "Monitor closely and prepare pivot strategies",
		ConfidenceLevel: 0.6,
		UpdateCadence:   CadenceDaily,
	},
	Consolidation: {
		Strategy:        "Build foundational content and establish authority",
		ConfidenceLevel: 0.8,
		UpdateCadence:   CadenceMonthly,
	},
	Breakout: {
		Strategy:        "Rapidly deploy targeted content to capture momentum",
		ConfidenceLevel: 0.7,
		UpdateCadence:   CadenceDaily,
	},
	Reversal: {
		Strategy:        "Adapt content strategy to align with new direction",
		ConfidenceLevel: 0.7,
		UpdateCadence:   CadenceWeekly,
	},
	Seasonal: {
		Strategy:        "Create content that aligns with seasonal trends and fluctuations",
		ConfidenceLevel: 0.85,
		UpdateCadence:   CadenceSeasonally,
	},
	InsufficientData: {
		Strategy:        "Gather more data before making content decisions",
		ConfidenceLevel: 0.2,
		UpdateCadence:   CadenceAsNeeded,
	},
	Error: {
		Strategy:        "Review and resolve errors before making content decisions",
		ConfidenceLevel: 0.0,
		UpdateCadence:   CadenceAsNeeded,
	},
	Undefined: {
		Strategy:        "Continue monitoring and gather more data",
		ConfidenceLevel: 0.4,
		UpdateCadence:   CadenceAsNeeded,
	},
}

// AllPatterns returns every variant in declaration order.
func AllPatterns() []TrendPattern {
	out := make([]TrendPattern, len(allPatterns))
	copy(out, allPatterns)
	return out
}

// ParseTrendPattern maps a name such as "steady-rise" or "STEADY_RISE" to
// its variant. Unknown names map to Undefined.
func ParseTrendPattern(name string) TrendPattern {
	normalized := strings.ToUpper(strings.TrimSpace(name))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)

	p := TrendPattern(normalized)
	if p.IsValid() {
		return p
	}
	return Undefined
}

// IsValid reports whether p is one of the known variants.
func (p TrendPattern) IsValid() bool {
	_, ok := metadataTable[p]
	return ok
}

// Metadata returns the static guidance for p. Unknown values get the
// Undefined entry.
func (p TrendPattern) Metadata() Metadata {
	if m, ok := metadataTable[p]; ok {
		return m
	}
	return metadataTable[Undefined]
}

func (p TrendPattern) RecommendedStrategy() string {
	return p.Metadata().Strategy
}

func (p TrendPattern) ConfidenceLevel() float64 {
	return p.Metadata().ConfidenceLevel
}

func (p TrendPattern) UpdateCadence() Cadence {
	return p.Metadata().UpdateCadence
}

func (p TrendPattern) String() string {
	return string(p)
}
