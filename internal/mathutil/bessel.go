// Package mathutil provides the numeric helpers used by filter design.
package mathutil

import "math"

// BesselI0 computes the modified Bessel function of the first kind, order zero.
// It is used to evaluate the Kaiser window.
//
// Polynomial approximation for |x| < 3.75, exponentially scaled asymptotic
// expansion above. Relative error is below 2e-7 across the range.
func BesselI0(x float64) float64 {
	ax := math.Abs(x)

	if ax < besselSmallArgThreshold {
		t := x / besselSmallArgThreshold
		t *= t
		return 1.0 + t*(besselI0Coeff1+t*(besselI0Coeff2+t*(besselI0Coeff3+
			t*(besselI0Coeff4+t*(besselI0Coeff5+t*besselI0Coeff6)))))
	}

	t := besselSmallArgThreshold / ax
	poly := besselI0AsympCoeff0 + t*(besselI0AsympCoeff1+t*(besselI0AsympCoeff2+
		t*(besselI0AsympCoeff3+t*(besselI0AsympCoeff4+t*(besselI0AsympCoeff5+
			t*(besselI0AsympCoeff6+t*(besselI0AsympCoeff7+t*besselI0AsympCoeff8)))))))

	return math.Exp(ax) * poly / math.Sqrt(ax)
}

// KaiserBeta returns the Kaiser window β for a stopband attenuation in dB.
//
//   - att > 50:        β = 0.1102 · (att − 8.7)
//   - 21 ≤ att ≤ 50:   β = 0.5842 · (att − 21)^0.4 + 0.07886 · (att − 21)
//   - att < 21:        β = 0 (rectangular)
func KaiserBeta(attenuation float64) float64 {
	switch {
	case attenuation > kaiserAttHigh:
		return kaiserBetaHighCoeff * (attenuation - kaiserBetaHighOffset)
	case attenuation >= kaiserAttMedium:
		delta := attenuation - kaiserAttMedium
		return kaiserBetaMediumCoeff1*math.Pow(delta, kaiserBetaMediumPower) + kaiserBetaMediumCoeff2*delta
	default:
		return 0
	}
}
