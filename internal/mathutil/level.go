package mathutil

import "math"

// PowerDB converts a mean-square power level to decibels, flooring the input
// at 1e-6 (−60 dB) so silence stays finite.
func PowerDB(level float64) float64 {
	return dbPowerFactor * math.Log10(math.Max(powerFloor, level))
}

// MagnitudeDB converts a linear magnitude to decibels.
func MagnitudeDB(magnitude float64) float64 {
	const minMagnitude = 1e-10
	if magnitude < minMagnitude {
		magnitude = minMagnitude
	}
	return dbMagnitudeFac * math.Log10(magnitude)
}

// Clamp limits v to [lo, hi]. NaN clamps to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Min(hi, math.Max(lo, v))
}
