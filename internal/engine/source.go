package engine

import (
	"math"
	"math/cmplx"
)

// SignalSource is a complex sinusoidal oscillator. Frequency and sampling
// frequency may be changed while it runs; the phase stays continuous.
type SignalSource struct {
	samplingFreq *atomicFloat
	frequency    *atomicFloat
	amplitude    float64
	phase        float64
}

// NewSignalSource creates an oscillator at frequency Hz sampled at
// samplingFreq Hz.
func NewSignalSource(samplingFreq, frequency, amplitude float64) *SignalSource {
	return &SignalSource{
		samplingFreq: newAtomicFloat(samplingFreq),
		frequency:    newAtomicFloat(frequency),
		amplitude:    amplitude,
	}
}

// SetFrequency sets the oscillator frequency in Hz.
func (s *SignalSource) SetFrequency(hz float64) { s.frequency.Store(hz) }

// Frequency returns the oscillator frequency in Hz.
func (s *SignalSource) Frequency() float64 { return s.frequency.Load() }

// SetSamplingFreq sets the sample rate in Hz.
func (s *SignalSource) SetSamplingFreq(hz float64) { s.samplingFreq.Store(hz) }

// SamplingFreq returns the sample rate in Hz.
func (s *SignalSource) SamplingFreq() float64 { return s.samplingFreq.Load() }

// Work fills dst with the next len(dst) samples.
func (s *SignalSource) Work(dst []complex64) {
	fs := s.samplingFreq.Load()
	if fs <= 0 {
		clear(dst)
		return
	}
	step := twoPi * s.frequency.Load() / fs
	for i := range dst {
		dst[i] = complex64(cmplx.Rect(s.amplitude, s.phase))
		s.phase = math.Remainder(s.phase+step, twoPi)
	}
}

// Multiply writes the element-wise product a·b into dst. All slices must
// have the same length.
func Multiply(dst, a, b []complex64) {
	for i := range dst {
		dst[i] = a[i] * b[i]
	}
}

// MultiplyConst scales a real stream by a constant that can be changed
// while it runs.
type MultiplyConst struct {
	k *atomicFloat
}

// NewMultiplyConst creates a scalar multiplier.
func NewMultiplyConst(k float64) *MultiplyConst {
	return &MultiplyConst{k: newAtomicFloat(k)}
}

// SetK sets the multiplier.
func (m *MultiplyConst) SetK(k float64) { m.k.Store(k) }

// K returns the multiplier.
func (m *MultiplyConst) K() float64 { return m.k.Load() }

// Process writes src·k into dst; dst must be at least as long as src.
func (m *MultiplyConst) Process(dst, src []float32) {
	k := float32(m.k.Load())
	for i, v := range src {
		dst[i] = v * k
	}
}

// PowerProbe tracks the exponentially averaged mean square of a real
// stream. Level may be read from any goroutine.
type PowerProbe struct {
	alpha float64
	avg   float64
	level *atomicFloat
}

// NewPowerProbe creates a probe with smoothing factor alpha in (0, 1].
func NewPowerProbe(alpha float64) *PowerProbe {
	return &PowerProbe{alpha: alpha, level: newAtomicFloat(0)}
}

// Process feeds samples into the average.
func (p *PowerProbe) Process(samples []float32) {
	if len(samples) == 0 {
		return
	}
	avg := p.avg
	for _, v := range samples {
		x := float64(v)
		avg += p.alpha * (x*x - avg)
	}
	p.avg = avg
	p.level.Store(avg)
}

// Level returns the current mean-square level.
func (p *PowerProbe) Level() float64 { return p.level.Load() }

// Reset zeroes the average.
func (p *PowerProbe) Reset() {
	p.avg = 0
	p.level.Store(0)
}
