// Package filter provides FIR design for the channel filter cascade and the
// polyphase fractional resampler.
package filter

import (
	"fmt"
	"math"
	"strings"

	"github.com/tphakala/go-sdr-receiver/internal/errs"
	"github.com/tphakala/go-sdr-receiver/internal/mathutil"
)

const (
	// Window normalization
	windowNormalizationFactor = 2.0

	// Hamming: 0.54 − 0.46·cos(2πn/(N−1))
	hammingA0 = 0.54
	hammingA1 = 0.46

	// Blackman: 0.42 − 0.5·cos(2πn/(N−1)) + 0.08·cos(4πn/(N−1))
	blackmanA0 = 0.42
	blackmanA1 = 0.5
	blackmanA2 = 0.08

	// Stopband target used to size and shape Kaiser windows.
	defaultKaiserAttenuation = 80.0
)

// Window selects the taper applied to the windowed-sinc prototype.
type Window int

const (
	// WindowHamming is the default taper (≈53 dB stopband).
	WindowHamming Window = iota
	// WindowBlackman trades a wider transition for ≈74 dB stopband.
	WindowBlackman
	// WindowKaiser is sized for an 80 dB stopband.
	WindowKaiser
)

// String returns the window name.
func (w Window) String() string {
	switch w {
	case WindowHamming:
		return "hamming"
	case WindowBlackman:
		return "blackman"
	case WindowKaiser:
		return "kaiser"
	default:
		return "unknown"
	}
}

// ParseWindow converts a window name to a Window. The empty string selects
// Hamming.
func ParseWindow(s string) (Window, error) {
	switch strings.ToLower(s) {
	case "", "hamming":
		return WindowHamming, nil
	case "blackman":
		return WindowBlackman, nil
	case "kaiser":
		return WindowKaiser, nil
	default:
		return WindowHamming, fmt.Errorf("%w: unknown window %q", errs.ErrInvalidArgument, s)
	}
}

// Length returns the tap count this window needs for a transition width tw
// at sample rate fs.
func (w Window) Length(fs, tw float64) int {
	switch w {
	case WindowBlackman:
		return mathutil.BlackmanLength(fs, tw)
	case WindowKaiser:
		return mathutil.KaiserLength(defaultKaiserAttenuation, fs, tw)
	default:
		return mathutil.HammingLength(fs, tw)
	}
}

// Coefficients returns the window of the given length. The window is
// symmetric: w[i] = w[length-1-i].
func (w Window) Coefficients(length int) []float64 {
	if length < 1 {
		return []float64{}
	}
	if length == 1 {
		return []float64{1}
	}

	switch w {
	case WindowKaiser:
		return KaiserWindow(length, mathutil.KaiserBeta(defaultKaiserAttenuation))
	case WindowBlackman:
		return cosineWindow(length, blackmanA0, blackmanA1, blackmanA2)
	default:
		return cosineWindow(length, hammingA0, hammingA1, 0)
	}
}

func cosineWindow(length int, a0, a1, a2 float64) []float64 {
	window := make([]float64, length)
	m := float64(length - 1)
	for n := range length {
		x := 2 * math.Pi * float64(n) / m
		window[n] = a0 - a1*math.Cos(x) + a2*math.Cos(2*x)
	}
	return window
}

// KaiserWindow generates a Kaiser window of the specified length and β.
//
//	w[n] = I₀(β·sqrt(1 − ((n − α)/α)²)) / I₀(β),  α = (N−1)/2
func KaiserWindow(length int, beta float64) []float64 {
	if length < 1 {
		return []float64{}
	}
	if length == 1 {
		return []float64{1}
	}

	window := make([]float64, length)
	alpha := float64(length-1) / windowNormalizationFactor
	i0Beta := mathutil.BesselI0(beta)

	for n := range length {
		x := (float64(n) - alpha) / alpha
		window[n] = mathutil.BesselI0(beta*math.Sqrt(math.Max(0, 1.0-x*x))) / i0Beta
	}

	return window
}
