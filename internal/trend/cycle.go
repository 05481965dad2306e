package trend

import (
	"math"
	"math/cmplx"
)

const (
	// MinCyclePoints is the minimum series length for DominantCycle.
	MinCyclePoints = 10

	minPaddedLength = 32

	spectralNoiseFloor = 1e-9
)

// Cycle describes the strongest periodic component of a series.
type Cycle struct {
	// Period is the cycle length in observations.
	Period float64
	// Strength is the share of spectral magnitude carried by the dominant
	// frequency and its immediate neighbours, in [0,1].
	Strength float64
}

// DominantCycle pads the series to a power of two (at least 32) with its last
// value, runs a discrete Fourier transform and reports the strongest non-DC
// frequency as a period. ok is false for fewer than MinCyclePoints values or
// a flat spectrum.
func DominantCycle(values []float64) (Cycle, bool) {
	if len(values) < MinCyclePoints {
		return Cycle{}, false
	}

	n := minPaddedLength
	for n < len(values) {
		n *= 2
	}

	padded := make([]float64, n)
	copy(padded, values)
	last := values[len(values)-1]
	for i := len(values); i < n; i++ {
		padded[i] = last
	}

	magnitudes := spectrum(padded)

	dominant := 0
	maxMagnitude := 0.0
	for k := 1; k < n/2; k++ {
		if magnitudes[k] > maxMagnitude {
			maxMagnitude = magnitudes[k]
			dominant = k
		}
	}
	// rounding noise on a flat series is not a cycle
	if dominant == 0 || maxMagnitude <= spectralNoiseFloor*(magnitudes[0]+1) {
		return Cycle{}, false
	}

	total, seasonal := 0.0, 0.0
	for k := 1; k < n/2; k++ {
		total += magnitudes[k]
		if k-dominant <= 1 && dominant-k <= 1 {
			seasonal += magnitudes[k]
		}
	}

	strength := 0.0
	if total > 0 {
		strength = seasonal / total
	}

	return Cycle{
		Period:   float64(n) / float64(dominant),
		Strength: clamp01(strength),
	}, true
}

// spectrum returns |X[k]| for k in [0, n/2) of the forward DFT.
func spectrum(x []float64) []float64 {
	n := len(x)
	out := make([]float64, n/2)
	for k := range out {
		var sum complex128
		for t, v := range x {
			angle := -2 * math.Pi * float64(k) * float64(t) / float64(n)
			sum += complex(v, 0) * cmplx.Exp(complex(0, angle))
		}
		out[k] = cmplx.Abs(sum)
	}
	return out
}
