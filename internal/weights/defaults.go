package weights

// Built-in metric names.
const (
	MetricTrend      = "trend"
	MetricSentiment  = "sentiment"
	MetricEngagement = "engagement"
)

// FallbackContentType supplies the defaults for unknown content types and
// unknown metrics.
const FallbackContentType = "blog"

// Smoothing factors for blending a reported observation into the current
// weight.
const (
	retainFactor = 0.7
	learnFactor  = 0.3
)

var defaultWeights = map[string]map[string]float64{
	"blog": {
		MetricTrend:      0.4,
		MetricSentiment:  0.3,
		MetricEngagement: 0.3,
	},
	"social": {
		MetricTrend:      0.5,
		MetricSentiment:  0.3,
		MetricEngagement: 0.2,
	},
	"news": {
		MetricTrend:      0.6,
		MetricSentiment:  0.2,
		MetricEngagement: 0.2,
	},
}

// DefaultWeights returns a copy of the built-in vector for contentType,
// falling back to the blog vector for unknown types.
func DefaultWeights(contentType string) map[string]float64 {
	defaults, ok := defaultWeights[contentType]
	if !ok {
		defaults = defaultWeights[FallbackContentType]
	}
	return copyWeights(defaults)
}

// KnownContentType reports whether contentType has its own built-in vector.
func KnownContentType(contentType string) bool {
	_, ok := defaultWeights[contentType]
	return ok
}

// defaultMetricWeight is the starting weight for a metric that has no entry
// yet in a profile.
func defaultMetricWeight(contentType, metric string) float64 {
	if w, ok := defaultWeights[contentType][metric]; ok {
		return w
	}
	// unknown metrics start at zero
	return defaultWeights[FallbackContentType][metric]
}

func copyWeights(src map[string]float64) map[string]float64 {
	dst := make(map[string]float64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func copyCounts(src map[string]int64) map[string]int64 {
	dst := make(map[string]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
