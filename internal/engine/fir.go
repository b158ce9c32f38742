// Package engine provides the streaming blocks a receiver graph is built
// from: decimating and frequency-translating FIR filters, the polyphase
// fractional resampler, an oscillator, mixers, gain stages, a power probe and
// demodulation primitives.
//
// Blocks keep the history they need between Process calls, so a stream may
// be fed in arbitrarily sized chunks. Runtime parameters (frequency, gain)
// are atomics and may be changed while another goroutine is processing.
package engine

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/tphakala/go-sdr-receiver/internal/errs"
	"github.com/tphakala/go-sdr-receiver/internal/simdops"
)

// FIRDecimator filters complex samples with real taps and keeps every
// decimation-th output.
type FIRDecimator struct {
	taps       []float32 // time-reversed for the dot product
	numTaps    int
	decimation int

	// Pending input split into I and Q planes. The first numTaps-1 samples
	// are history from the previous call.
	histI, histQ []float32
	offset       int // start of the next output window in hist

	conv           *FFTConvolver
	planeI, planeQ []float64
	outI, outQ     []float64

	ops *simdops.Ops[float32]
}

// NewFIRDecimator creates a decimating filter. Decimation 1 is a plain FIR;
// long decimation-1 filters run through FFT convolution.
func NewFIRDecimator(taps []float64, decimation int) (*FIRDecimator, error) {
	if len(taps) == 0 {
		return nil, fmt.Errorf("%w: FIR needs at least one tap", errs.ErrInvalidArgument)
	}
	if decimation < 1 {
		return nil, fmt.Errorf("%w: decimation %d must be at least 1", errs.ErrInvalidArgument, decimation)
	}

	n := len(taps)
	reversed := make([]float32, n)
	for i := range n {
		reversed[i] = float32(taps[n-1-i])
	}

	f := &FIRDecimator{
		taps:       reversed,
		numTaps:    n,
		decimation: decimation,
		ops:        simdops.For[float32](),
	}
	f.Reset()

	if decimation == 1 && n >= minKernelForFFT {
		kernel := make([]float64, n)
		for i, c := range reversed {
			kernel[i] = float64(c)
		}
		f.conv = NewFFTConvolver(kernel)
	}

	return f, nil
}

// Process filters input and returns the decimated output.
func (f *FIRDecimator) Process(input []complex64) ([]complex64, error) {
	for _, v := range input {
		f.histI = append(f.histI, real(v))
		f.histQ = append(f.histQ, imag(v))
	}

	var (
		out []complex64
		pos int
	)
	if f.conv != nil {
		out, pos = f.processFFT()
	} else {
		out, pos = f.processDirect()
	}

	f.compact(pos)
	return out, nil
}

func (f *FIRDecimator) processDirect() ([]complex64, int) {
	pos := f.offset
	avail := len(f.histI) - f.numTaps
	if avail < pos {
		return nil, pos
	}

	out := make([]complex64, 0, (avail-pos)/f.decimation+1)
	for ; pos <= avail; pos += f.decimation {
		i := f.ops.DotProductUnsafe(f.histI[pos:pos+f.numTaps], f.taps)
		q := f.ops.DotProductUnsafe(f.histQ[pos:pos+f.numTaps], f.taps)
		out = append(out, complex(i, q))
	}
	return out, pos
}

func (f *FIRDecimator) processFFT() ([]complex64, int) {
	count := len(f.histI) - f.numTaps + 1
	if count <= 0 {
		return nil, 0
	}

	f.planeI = toFloat64(f.planeI, f.histI)
	f.planeQ = toFloat64(f.planeQ, f.histQ)
	f.outI = resize(f.outI, count)
	f.outQ = resize(f.outQ, count)
	f.conv.Convolve(f.outI, f.planeI)
	f.conv.Convolve(f.outQ, f.planeQ)

	out := make([]complex64, count)
	for i := range out {
		out[i] = complex(float32(f.outI[i]), float32(f.outQ[i]))
	}
	return out, count
}

// compact drops samples no future window needs.
func (f *FIRDecimator) compact(pos int) {
	drop := min(pos, len(f.histI))
	f.offset = pos - drop
	f.histI = append(f.histI[:0], f.histI[drop:]...)
	f.histQ = append(f.histQ[:0], f.histQ[drop:]...)
}

// Reset clears the filter history.
func (f *FIRDecimator) Reset() {
	f.histI = make([]float32, f.numTaps-1)
	f.histQ = make([]float32, f.numTaps-1)
	f.offset = 0
}

// Decimation returns the decimation factor.
func (f *FIRDecimator) Decimation() int { return f.decimation }

// Taps returns a copy of the filter taps in natural order.
func (f *FIRDecimator) Taps() []float64 {
	out := make([]float64, f.numTaps)
	for i, c := range f.taps {
		out[f.numTaps-1-i] = float64(c)
	}
	return out
}

// UsesFFT reports whether the filter runs through the FFT convolver.
func (f *FIRDecimator) UsesFFT() bool { return f.conv != nil }

// GetRatio returns 1/decimation.
func (f *FIRDecimator) GetRatio() float64 { return 1 / float64(f.decimation) }

// GetLatency returns the group delay in input samples.
func (f *FIRDecimator) GetLatency() int { return (f.numTaps - 1) / latencyDivisor }

// GetFilterLength returns the number of taps.
func (f *FIRDecimator) GetFilterLength() int { return f.numTaps }

// FreqXlatingFIR shifts a channel at centerFreq down to baseband, then
// filters and decimates it. The center frequency may be retuned at any time.
type FreqXlatingFIR struct {
	*FIRDecimator

	sampleRate float64
	centerFreq *atomicFloat
	phase      float64 // rotator phase in radians

	mixed []complex64
}

// NewFreqXlatingFIR creates a frequency-translating decimating filter
// running at sampleRate.
func NewFreqXlatingFIR(taps []float64, decimation int, centerFreq, sampleRate float64) (*FreqXlatingFIR, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %g must be positive", errs.ErrInvalidArgument, sampleRate)
	}
	fir, err := NewFIRDecimator(taps, decimation)
	if err != nil {
		return nil, err
	}
	return &FreqXlatingFIR{
		FIRDecimator: fir,
		sampleRate:   sampleRate,
		centerFreq:   newAtomicFloat(centerFreq),
	}, nil
}

// SetCenterFreq retunes the translation offset in Hz.
func (x *FreqXlatingFIR) SetCenterFreq(hz float64) { x.centerFreq.Store(hz) }

// CenterFreq returns the translation offset in Hz.
func (x *FreqXlatingFIR) CenterFreq() float64 { return x.centerFreq.Load() }

// Process mixes input by −centerFreq and filters the result.
func (x *FreqXlatingFIR) Process(input []complex64) ([]complex64, error) {
	step := -twoPi * x.centerFreq.Load() / x.sampleRate

	x.mixed = resize(x.mixed, len(input))
	for i, v := range input {
		x.mixed[i] = v * complex64(cmplx.Rect(1, x.phase))
		x.phase = math.Remainder(x.phase+step, twoPi)
	}
	return x.FIRDecimator.Process(x.mixed)
}

// Reset clears the filter history and the rotator phase.
func (x *FreqXlatingFIR) Reset() {
	x.FIRDecimator.Reset()
	x.phase = 0
}

func toFloat64(dst []float64, src []float32) []float64 {
	dst = resize(dst, len(src))
	for i, v := range src {
		dst[i] = float64(v)
	}
	return dst
}

func resize[T any](s []T, n int) []T {
	if cap(s) < n {
		return make([]T, n)
	}
	return s[:n]
}
