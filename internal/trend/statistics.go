// Package trend computes statistical features over an ordered series of
// observations. Every function is total: short or degenerate input yields a
// neutral default instead of an error.
package trend

import (
	"math"
	"sort"
	"time"

	"github.com/cinar/indicator/v2/helper"
	indtrend "github.com/cinar/indicator/v2/trend"
)

const (
	// RecentWindow is the number of trailing observations compared against
	// the rest of the series by BreakoutProbability and ReversalProbability.
	RecentWindow = 5

	// SeasonalLag is the autocorrelation lag used as a weekly proxy.
	SeasonalLag = 7

	// MinSeasonalPoints is the minimum series length for Seasonality.
	MinSeasonalPoints = 30

	// MinBandPoints is the minimum series length for SupportResistance.
	MinBandPoints = 10
)

// Momentum returns the relative change between the last two valid
// observations. NaN entries are treated as missing.
func Momentum(values []float64) float64 {
	valid := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			valid = append(valid, v)
		}
	}

	if len(valid) < 2 {
		return 0.0
	}

	recent := valid[len(valid)-1]
	previous := valid[len(valid)-2]
	if previous == 0 {
		return 0.0
	}

	return (recent - previous) / previous
}

// Volatility returns the sample standard deviation of values.
func Volatility(values []float64) float64 {
	if len(values) < 2 {
		return 0.0
	}

	m := mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}

	return math.Sqrt(sum / float64(len(values)-1))
}

// TrendStrength returns the OLS slope of value against index mapped into
// [0,1) by |slope| / (1 + |slope|).
func TrendStrength(values []float64) float64 {
	slope, ok := Slope(values)
	if !ok {
		return 0.0
	}

	abs := math.Abs(slope)
	return abs / (1 + abs)
}

// Slope returns the ordinary least squares slope of value against index.
// ok is false when fewer than two values are given.
func Slope(values []float64) (slope float64, ok bool) {
	n := len(values)
	if n < 2 {
		return 0, false
	}

	var sumX, sumY, sumXY, sumX2 float64
	for i, v := range values {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumX2 += x * x
	}

	fn := float64(n)
	denominator := fn*sumX2 - sumX*sumX
	if denominator == 0 {
		return 0, false
	}

	return (fn*sumXY - sumX*sumY) / denominator, true
}

// BreakoutProbability measures how far the mean of the last RecentWindow
// observations sits above the mean of everything before them.
func BreakoutProbability(values []float64) float64 {
	recent, historical, ok := windowMeans(values)
	if !ok || historical == 0 || recent <= historical {
		return 0.0
	}

	return clamp01((recent - historical) / historical)
}

// ReversalProbability is the mirror of BreakoutProbability: it triggers when
// the recent mean falls below the historical mean.
func ReversalProbability(values []float64) float64 {
	recent, historical, ok := windowMeans(values)
	if !ok || historical == 0 || recent >= historical {
		return 0.0
	}

	return clamp01((historical - recent) / historical)
}

// Seasonality returns the lag-7 autocorrelation normalized by the population
// variance, floored at zero. When timestamps are supplied they must also
// contain at least MinSeasonalPoints entries.
func Seasonality(values []float64, timestamps []time.Time) float64 {
	if len(values) < MinSeasonalPoints {
		return 0.0
	}
	if timestamps != nil && len(timestamps) < MinSeasonalPoints {
		return 0.0
	}

	m := mean(values)
	sumSquared := 0.0
	for _, v := range values {
		d := v - m
		sumSquared += d * d
	}

	variance := sumSquared / float64(len(values))
	if variance == 0 {
		return 0.0
	}

	autoCorr := 0.0
	for i := SeasonalLag; i < len(values); i++ {
		autoCorr += (values[i] - m) * (values[i-SeasonalLag] - m)
	}
	autoCorr /= float64(len(values)-SeasonalLag) * variance

	return clamp01(autoCorr)
}

// Bands holds the support and resistance levels of a series.
type Bands struct {
	Support    float64
	Resistance float64
}

// SupportResistance returns the 25th and 75th percentile of the sorted
// values (index n/4 and 3n/4). ok is false when fewer than MinBandPoints
// observations are given; callers must treat the levels as not computed.
func SupportResistance(values []float64) (Bands, bool) {
	if len(values) < MinBandPoints {
		return Bands{}, false
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := len(sorted)
	return Bands{
		Support:    sorted[n/4],
		Resistance: sorted[3*n/4],
	}, true
}

// windowMeans splits values into the trailing RecentWindow observations and
// the history before them, returning both means.
func windowMeans(values []float64) (recent, historical float64, ok bool) {
	if len(values) < RecentWindow {
		return 0, 0, false
	}

	split := len(values) - RecentWindow
	return smaMean(values[split:]), smaMean(values[:split]), true
}

// smaMean averages a whole window with a single-period SMA pass.
func smaMean(window []float64) float64 {
	if len(window) == 0 {
		return 0
	}

	sma := indtrend.NewSmaWithPeriod[float64](len(window))
	result := helper.ChanToSlice(sma.Compute(helper.SliceToChan(window)))
	if len(result) == 0 {
		return mean(window)
	}

	return result[len(result)-1]
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0.0
	}
	if v > 1 {
		return 1.0
	}
	return v
}
