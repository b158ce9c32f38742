package filter

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/tphakala/go-sdr-receiver/internal/mathutil"
)

// Frequency response defaults
const defaultResponsePoints = 512

// FilterResponse holds the frequency response of a filter from DC to
// Nyquist.
type FilterResponse struct {
	Frequencies []float64 // Hz
	Magnitude   []float64 // linear
	Phase       []float64 // radians
}

// MagnitudeDB returns the magnitude response in dB.
func (r FilterResponse) MagnitudeDB() []float64 {
	db := make([]float64, len(r.Magnitude))
	for i, m := range r.Magnitude {
		db[i] = mathutil.MagnitudeDB(m)
	}
	return db
}

// ComputeFrequencyResponse evaluates coeffs at sample rate fs with at least
// numPoints bins between DC and Nyquist.
func ComputeFrequencyResponse(coeffs []float64, fs float64, numPoints int) FilterResponse {
	if numPoints <= 0 {
		numPoints = defaultResponsePoints
	}

	size := max(2*numPoints, len(coeffs))
	padded := make([]float64, size)
	copy(padded, coeffs)

	fft := fourier.NewFFT(size)
	spectrum := fft.Coefficients(nil, padded)

	response := FilterResponse{
		Frequencies: make([]float64, len(spectrum)),
		Magnitude:   make([]float64, len(spectrum)),
		Phase:       make([]float64, len(spectrum)),
	}
	for k, c := range spectrum {
		response.Frequencies[k] = fft.Freq(k) * fs
		response.Magnitude[k] = cmplx.Abs(c)
		response.Phase[k] = cmplx.Phase(c)
	}
	return response
}

// MagnitudeAt evaluates |H(f)| of coeffs at a single frequency in Hz.
func MagnitudeAt(coeffs []float64, freq, fs float64) float64 {
	omega := 2 * math.Pi * freq / fs
	var re, im float64
	for n, h := range coeffs {
		re += h * math.Cos(omega*float64(n))
		im -= h * math.Sin(omega*float64(n))
	}
	return math.Hypot(re, im)
}
