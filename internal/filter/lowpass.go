package filter

import (
	"fmt"
	"math"

	"github.com/tphakala/go-sdr-receiver/internal/errs"
	"github.com/tphakala/go-sdr-receiver/internal/simdops"
)

// Sinc evaluation
const sincZeroThreshold = 1e-12

// LowPass designs a linear-phase windowed-sinc low-pass filter.
//
// Parameters are in Hz: fs is the sample rate the taps run at, cutoff the
// −6 dB point and tw the transition width that sizes the filter. The taps are
// scaled so the DC response equals gain.
func LowPass(gain, fs, cutoff, tw float64, window Window) ([]float64, error) {
	switch {
	case fs <= 0:
		return nil, fmt.Errorf("%w: sample rate %g must be positive", errs.ErrInvalidArgument, fs)
	case cutoff <= 0 || cutoff > fs/windowNormalizationFactor:
		return nil, fmt.Errorf("%w: cutoff %g outside (0, %g]", errs.ErrInvalidArgument, cutoff, fs/windowNormalizationFactor)
	case tw <= 0:
		return nil, fmt.Errorf("%w: transition width %g must be positive", errs.ErrInvalidArgument, tw)
	case gain <= 0:
		return nil, fmt.Errorf("%w: gain %g must be positive", errs.ErrInvalidArgument, gain)
	}

	numTaps := window.Length(fs, tw)
	w := window.Coefficients(numTaps)
	taps := make([]float64, numTaps)

	center := (numTaps - 1) / 2
	fwT0 := 2 * math.Pi * cutoff / fs

	for i := range numTaps {
		n := float64(i - center)
		if math.Abs(n) < sincZeroThreshold {
			taps[i] = fwT0 / math.Pi * w[i]
		} else {
			taps[i] = math.Sin(n*fwT0) / (n * math.Pi) * w[i]
		}
	}

	ops := simdops.For[float64]()
	if sum := ops.Sum(taps); math.Abs(sum) > sincZeroThreshold {
		ops.Scale(taps, taps, gain/sum)
	}

	return taps, nil
}
