package engine

import (
	"math"

	"github.com/racerxdl/segdsp/dsp"
)

// QuadratureDemod recovers frequency modulation as gain·arg(x[n]·conj(x[n-1])).
type QuadratureDemod struct {
	gain    float64
	last    complex64
	history []complex64
}

// NewQuadratureDemod creates an FM discriminator. For a deviation of dev Hz
// at sample rate fs, a gain of fs/(2π·dev) maps full deviation to ±1.
func NewQuadratureDemod(gain float64) *QuadratureDemod {
	return &QuadratureDemod{gain: gain}
}

// FMGain returns the discriminator gain mapping ±deviation to ±1.
func FMGain(sampleRate, deviation float64) float64 {
	return sampleRate / (twoPi * deviation)
}

// Process demodulates input.
func (q *QuadratureDemod) Process(input []complex64) []float32 {
	out := make([]float32, len(input))
	if len(input) == 0 {
		return out
	}

	q.history = append(append(q.history[:0], q.last), input...)
	products := dsp.MultiplyConjugate(q.history[1:], q.history, len(input))
	for i, d := range products {
		out[i] = float32(q.gain * math.Atan2(float64(imag(d)), float64(real(d))))
	}
	q.last = input[len(input)-1]
	return out
}

// Reset clears the previous sample.
func (q *QuadratureDemod) Reset() { q.last = 0 }

// Magnitude returns |x| for each sample.
func Magnitude(input []complex64) []float32 {
	out := make([]float32, len(input))
	for i, v := range input {
		out[i] = float32(math.Hypot(float64(real(v)), float64(imag(v))))
	}
	return out
}

// RealPart returns the in-phase component of each sample.
func RealPart(input []complex64) []float32 {
	out := make([]float32, len(input))
	for i, v := range input {
		out[i] = real(v)
	}
	return out
}

// DCBlocker removes the DC component with a one-pole high-pass filter:
// y[n] = x[n] − x[n−1] + pole·y[n−1].
type DCBlocker struct {
	pole   float32
	x1, y1 float32
}

// NewDCBlocker creates a DC blocker; a pole of 0 selects the default.
func NewDCBlocker(pole float32) *DCBlocker {
	if pole <= 0 || pole >= 1 {
		pole = defaultDCBlockPole
	}
	return &DCBlocker{pole: pole}
}

// Process filters samples in place.
func (d *DCBlocker) Process(samples []float32) {
	x1, y1 := d.x1, d.y1
	for i, x := range samples {
		y := x - x1 + d.pole*y1
		samples[i] = y
		x1, y1 = x, y
	}
	d.x1, d.y1 = x1, y1
}

// Reset clears the filter state.
func (d *DCBlocker) Reset() { d.x1, d.y1 = 0, 0 }

// Deemphasis is the one-pole low-pass FM de-emphasis network.
type Deemphasis struct {
	alpha float32
	y1    float32
}

// NewDeemphasis creates a de-emphasis filter with time constant tau seconds
// at sampleRate Hz.
func NewDeemphasis(sampleRate, tau float64) *Deemphasis {
	return &Deemphasis{alpha: float32(1 - math.Exp(-1/(sampleRate*tau)))}
}

// Process filters samples in place.
func (d *Deemphasis) Process(samples []float32) {
	y := d.y1
	for i, x := range samples {
		y += d.alpha * (x - y)
		samples[i] = y
	}
	d.y1 = y
}

// Reset clears the filter state.
func (d *Deemphasis) Reset() { d.y1 = 0 }
