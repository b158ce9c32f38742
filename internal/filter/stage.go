package filter

import (
	"fmt"

	"github.com/tphakala/go-sdr-receiver/internal/errs"
	"github.com/tphakala/go-sdr-receiver/internal/pipeline"
)

// StageDesign describes one cascade stage to the designer.
type StageDesign struct {
	// InputRate is the sample rate the stage's taps run at, in Hz.
	InputRate float64

	// Role places the stage in the cascade.
	Role pipeline.Role

	// Cutoff and Transition are the requested passband edge and transition
	// width of the whole channel filter, in Hz.
	Cutoff     float64
	Transition float64

	// NextRate is this stage's output rate (InputRate / decimation).
	NextRate float64

	// Window selects the taper; the zero value is Hamming.
	Window Window
}

// StageBand returns the cutoff and transition width a stage is designed with.
//
// The last stage realizes the requested filter as is. Earlier stages only
// have to keep the passband clear of aliasing at the next stage's Nyquist
// limit, so their guard band is centered between the inner passband edge
// and that limit.
func StageBand(d StageDesign) (cutoff, transition float64, err error) {
	if d.Role.IsLast() {
		return d.Cutoff, d.Transition, nil
	}

	inner := d.Cutoff - d.Transition/2
	limit := d.NextRate / 2
	if limit <= inner {
		return 0, 0, fmt.Errorf("%w: stage %g Hz -> %g Hz has Nyquist limit %g Hz at or below passband edge %g Hz",
			errs.ErrInfeasibleFilterPlan, d.InputRate, d.NextRate, limit, inner)
	}

	return (inner + limit) / 2, limit - inner, nil
}

// DesignStage computes unity-gain low-pass taps for one cascade stage.
func DesignStage(d StageDesign) ([]float64, error) {
	if d.InputRate <= 0 || d.NextRate <= 0 {
		return nil, fmt.Errorf("%w: stage rates %g -> %g must be positive", errs.ErrInvalidArgument, d.InputRate, d.NextRate)
	}

	cutoff, transition, err := StageBand(d)
	if err != nil {
		return nil, err
	}

	taps, err := LowPass(1.0, d.InputRate, cutoff, transition, d.Window)
	if err != nil {
		return nil, fmt.Errorf("%s stage at %g Hz: %w", d.Role, d.InputRate, err)
	}
	return taps, nil
}
