package testutil

import (
	"math"
	"math/cmplx"
)

// ComplexTone returns n samples of exp(j·2π·freq·t) at sample rate fs.
func ComplexTone(n int, freq, fs float64) []complex64 {
	out := make([]complex64, n)
	w := 2 * math.Pi * freq / fs
	for i := range out {
		out[i] = complex64(cmplx.Rect(1, w*float64(i)))
	}
	return out
}

// AMSignal returns a complex AM carrier at carrier Hz, modulated by a sine of
// tone Hz with the given depth.
func AMSignal(n int, carrier, tone, depth, fs float64) []complex64 {
	out := make([]complex64, n)
	wc := 2 * math.Pi * carrier / fs
	wm := 2 * math.Pi * tone / fs
	for i := range out {
		env := 1 + depth*math.Sin(wm*float64(i))
		out[i] = complex64(cmplx.Rect(0.5*env, wc*float64(i)))
	}
	return out
}

// MeanPower returns the mean |x|² of a complex slice.
func MeanPower(s []complex64) float64 {
	if len(s) == 0 {
		return 0
	}
	var acc float64
	for _, v := range s {
		re, im := float64(real(v)), float64(imag(v))
		acc += re*re + im*im
	}
	return acc / float64(len(s))
}

// RMS returns the root mean square of a real slice.
func RMS(s []float32) float64 {
	if len(s) == 0 {
		return 0
	}
	var acc float64
	for _, v := range s {
		acc += float64(v) * float64(v)
	}
	return math.Sqrt(acc / float64(len(s)))
}
