package engine

import (
	"fmt"
	"math"

	"github.com/tphakala/go-sdr-receiver/internal/errs"
	"github.com/tphakala/go-sdr-receiver/internal/filter"
	"github.com/tphakala/go-sdr-receiver/internal/simdops"
)

// polyBank is a polyphase filter bank laid out for streaming: per-phase taps
// and deltas time-reversed in float32, plus the phase step per output.
type polyBank struct {
	taps   [][]float32
	deltas [][]float32

	numPhases    int
	tapsPerPhase int
	totalTaps    int

	ratio float64
	step  float64 // phases advanced per output sample
}

func newPolyBank(ratio float64) (*polyBank, error) {
	if ratio <= 0 || math.IsInf(ratio, 0) || math.IsNaN(ratio) {
		return nil, fmt.Errorf("%w: resampling ratio %g must be positive and finite", errs.ErrInvalidArgument, ratio)
	}

	pfb, err := filter.DesignArbResamplerBank(ratio, filter.DefaultNumPhases)
	if err != nil {
		return nil, err
	}

	b := &polyBank{
		taps:         make([][]float32, pfb.NumPhases),
		deltas:       make([][]float32, pfb.NumPhases),
		numPhases:    pfb.NumPhases,
		tapsPerPhase: pfb.TapsPerPhase,
		totalTaps:    pfb.TotalTaps,
		ratio:        ratio,
		step:         float64(pfb.NumPhases) / ratio,
	}
	for p := range pfb.NumPhases {
		b.taps[p] = reverse32(pfb.Taps[p])
		b.deltas[p] = reverse32(pfb.Deltas[p])
	}
	return b, nil
}

func reverse32(src []float64) []float32 {
	out := make([]float32, len(src))
	for i, v := range src {
		out[len(src)-1-i] = float32(v)
	}
	return out
}

// phaseCursor tracks the output position: pos is the start of the input
// window whose newest sample the current output follows, acc the phase
// position in [0, numPhases).
type phaseCursor struct {
	pos int
	acc float64
}

func (c *phaseCursor) split() (phase int, frac float32) {
	phase = int(c.acc)
	return phase, float32(c.acc - float64(phase))
}

func (c *phaseCursor) advance(b *polyBank) {
	c.acc += b.step
	whole := math.Floor(c.acc / float64(b.numPhases))
	c.acc -= whole * float64(b.numPhases)
	c.pos += int(whole)
	if c.acc >= float64(b.numPhases) {
		c.acc -= float64(b.numPhases)
		c.pos++
	}
	c.acc = max(c.acc, 0)
}

// drop discards consumed input from the front of the history and rebases
// the cursor.
func (c *phaseCursor) drop(histLen int) int {
	n := min(c.pos, histLen)
	c.pos -= n
	return n
}

func (b *polyBank) latency() int {
	return int(math.Round(float64(b.totalTaps-1) / latencyDivisor / float64(b.numPhases)))
}

func (b *polyBank) outputCapacity(inputLen int) int {
	return int(float64(inputLen)*b.ratio) + 2
}

// ArbResampler changes the rate of a complex stream by an arbitrary ratio
// with a 32-phase polyphase filter bank and linear interpolation between
// adjacent phases.
type ArbResampler struct {
	bank         *polyBank
	cur          phaseCursor
	histI, histQ []float32
	ops          *simdops.Ops[float32]
}

// NewArbResampler creates a resampler producing ratio output samples per
// input sample.
func NewArbResampler(ratio float64) (*ArbResampler, error) {
	bank, err := newPolyBank(ratio)
	if err != nil {
		return nil, err
	}
	r := &ArbResampler{bank: bank, ops: simdops.For[float32]()}
	r.Reset()
	return r, nil
}

// Process resamples input.
func (r *ArbResampler) Process(input []complex64) ([]complex64, error) {
	for _, v := range input {
		r.histI = append(r.histI, real(v))
		r.histQ = append(r.histQ, imag(v))
	}

	t := r.bank.tapsPerPhase
	out := make([]complex64, 0, r.bank.outputCapacity(len(input)))
	for r.cur.pos+t <= len(r.histI) {
		p, frac := r.cur.split()
		wI := r.histI[r.cur.pos : r.cur.pos+t]
		wQ := r.histQ[r.cur.pos : r.cur.pos+t]

		i := r.ops.DotProductUnsafe(wI, r.bank.taps[p]) + frac*r.ops.DotProductUnsafe(wI, r.bank.deltas[p])
		q := r.ops.DotProductUnsafe(wQ, r.bank.taps[p]) + frac*r.ops.DotProductUnsafe(wQ, r.bank.deltas[p])
		out = append(out, complex(i, q))

		r.cur.advance(r.bank)
	}

	n := r.cur.drop(len(r.histI))
	r.histI = append(r.histI[:0], r.histI[n:]...)
	r.histQ = append(r.histQ[:0], r.histQ[n:]...)
	return out, nil
}

// Reset clears history and phase.
func (r *ArbResampler) Reset() {
	r.histI = make([]float32, r.bank.tapsPerPhase-1)
	r.histQ = make([]float32, r.bank.tapsPerPhase-1)
	r.cur = phaseCursor{}
}

// Ratio returns the output/input rate ratio.
func (r *ArbResampler) Ratio() float64 { return r.bank.ratio }

// NumPhases returns the filter bank size.
func (r *ArbResampler) NumPhases() int { return r.bank.numPhases }

// GetRatio returns the output/input rate ratio.
func (r *ArbResampler) GetRatio() float64 { return r.bank.ratio }

// GetLatency returns the group delay in input samples.
func (r *ArbResampler) GetLatency() int { return r.bank.latency() }

// GetFilterLength returns the prototype filter length.
func (r *ArbResampler) GetFilterLength() int { return r.bank.totalTaps }

// ArbResamplerReal is ArbResampler for a real float32 stream such as
// demodulated audio.
type ArbResamplerReal struct {
	bank *polyBank
	cur  phaseCursor
	hist []float32
	ops  *simdops.Ops[float32]
}

// NewArbResamplerReal creates a real-valued resampler.
func NewArbResamplerReal(ratio float64) (*ArbResamplerReal, error) {
	bank, err := newPolyBank(ratio)
	if err != nil {
		return nil, err
	}
	r := &ArbResamplerReal{bank: bank, ops: simdops.For[float32]()}
	r.Reset()
	return r, nil
}

// Process resamples input.
func (r *ArbResamplerReal) Process(input []float32) []float32 {
	r.hist = append(r.hist, input...)

	t := r.bank.tapsPerPhase
	out := make([]float32, 0, r.bank.outputCapacity(len(input)))
	for r.cur.pos+t <= len(r.hist) {
		p, frac := r.cur.split()
		w := r.hist[r.cur.pos : r.cur.pos+t]
		out = append(out, r.ops.DotProductUnsafe(w, r.bank.taps[p])+frac*r.ops.DotProductUnsafe(w, r.bank.deltas[p]))
		r.cur.advance(r.bank)
	}

	n := r.cur.drop(len(r.hist))
	r.hist = append(r.hist[:0], r.hist[n:]...)
	return out
}

// Reset clears history and phase.
func (r *ArbResamplerReal) Reset() {
	r.hist = make([]float32, r.bank.tapsPerPhase-1)
	r.cur = phaseCursor{}
}

// Ratio returns the output/input rate ratio.
func (r *ArbResamplerReal) Ratio() float64 { return r.bank.ratio }

// GetLatency returns the group delay in input samples.
func (r *ArbResamplerReal) GetLatency() int { return r.bank.latency() }
