package filter

import (
	"fmt"

	"github.com/tphakala/go-sdr-receiver/internal/errs"
)

const (
	// DefaultNumPhases is the filter bank size of the fractional resampler.
	DefaultNumPhases = 32

	minNumPhases = 2
	maxNumPhases = 8192

	// Prototype band edges as fractions of the (clamped) resampling ratio,
	// relative to the phase rate.
	arbCutoffFactor     = 0.4
	arbTransitionFactor = 0.2
)

// PolyphaseFilterBank is a polyphase decomposition of a prototype low-pass
// filter with linear interpolation between adjacent phases.
//
// Phase p holds taps proto[t*NumPhases + p]. The coefficient for tap t at
// fractional position p+frac is Taps[p][t] + frac*Deltas[p][t], where the
// delta of the last phase reaches into phase 0 of the following tap.
type PolyphaseFilterBank struct {
	// Taps[phase][tap] are the prototype coefficients of each branch.
	Taps [][]float64

	// Deltas[phase][tap] are the differences to the next branch.
	Deltas [][]float64

	// NumPhases is the number of polyphase branches.
	NumPhases int

	// TapsPerPhase is the number of taps in each branch.
	TapsPerPhase int

	// TotalTaps is the prototype length before decomposition.
	TotalTaps int

	// Cutoff is the prototype cutoff relative to the phase rate.
	Cutoff float64
}

// DesignArbResamplerBank designs the filter bank for resampling by ratio
// (output rate / input rate).
//
// The prototype runs at numPhases times the input rate with cutoff 0.4·r and
// transition 0.2·r, r = min(ratio, 1), so upsampling keeps the input band
// while downsampling rejects what would alias at the output. Its DC gain is
// numPhases, giving each branch unity DC gain.
func DesignArbResamplerBank(ratio float64, numPhases int) (*PolyphaseFilterBank, error) {
	if ratio <= 0 {
		return nil, fmt.Errorf("%w: resampling ratio %g must be positive", errs.ErrInvalidArgument, ratio)
	}
	if numPhases < minNumPhases || numPhases > maxNumPhases {
		return nil, fmt.Errorf("%w: number of phases %d out of range [%d, %d]",
			errs.ErrInvalidArgument, numPhases, minNumPhases, maxNumPhases)
	}

	r := min(ratio, 1.0)
	n := float64(numPhases)
	cutoff := arbCutoffFactor * r
	prototype, err := LowPass(n, n, cutoff, arbTransitionFactor*r, WindowHamming)
	if err != nil {
		return nil, fmt.Errorf("arbitrary resampler prototype: %w", err)
	}

	pfb := &PolyphaseFilterBank{
		NumPhases: numPhases,
		TotalTaps: len(prototype),
		Cutoff:    cutoff / n,
	}
	pfb.TapsPerPhase = (pfb.TotalTaps + numPhases - 1) / numPhases
	pfb.Taps, pfb.Deltas = decomposePolyphase(prototype, numPhases, pfb.TapsPerPhase)

	return pfb, nil
}

func decomposePolyphase(prototype []float64, numPhases, tapsPerPhase int) (taps, deltas [][]float64) {
	protoCoeff := func(phase, tap int) float64 {
		idx := tap*numPhases + phase
		if idx < 0 || idx >= len(prototype) {
			return 0.0
		}
		return prototype[idx]
	}

	taps = make([][]float64, numPhases)
	deltas = make([][]float64, numPhases)
	for phase := range numPhases {
		taps[phase] = make([]float64, tapsPerPhase)
		deltas[phase] = make([]float64, tapsPerPhase)
		for tap := range tapsPerPhase {
			f0 := protoCoeff(phase, tap)
			taps[phase][tap] = f0
			deltas[phase][tap] = protoCoeff(phase+1, tap) - f0
		}
	}
	return taps, deltas
}

// GetCoefficient returns the interpolated coefficient for a tap at integer
// phase and fractional position frac in [0, 1).
func (pfb *PolyphaseFilterBank) GetCoefficient(tap, phase int, frac float64) float64 {
	return pfb.Taps[phase][tap] + frac*pfb.Deltas[phase][tap]
}

// PhaseGain returns the DC gain of one branch.
func (pfb *PolyphaseFilterBank) PhaseGain(phase int) float64 {
	var sum float64
	for _, c := range pfb.Taps[phase] {
		sum += c
	}
	return sum
}
