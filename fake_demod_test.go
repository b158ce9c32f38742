package receiver

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"
	"sync/atomic"
)

// fakeDemod is a demodulator whose audio is the real part of its input.
type fakeDemod struct {
	mu      sync.Mutex
	mode    string
	inPlace []string
	halfBW  float64
	ctx     DemodContext
	params  DemodParams

	squelch      float64
	deviation    float64
	hasDeviation bool
	audioFilter  bool

	// rebuildOnReplay makes ApplyState request a rebuild, as a setter for a
	// construction-time field does.
	rebuildOnReplay bool
	replayRebuildErr error

	lastInput []complex64
}

func (d *fakeDemod) Process(iq []complex64) (left, right []float32, err error) {
	d.mu.Lock()
	d.lastInput = slices.Clone(iq)
	d.mu.Unlock()

	left = make([]float32, len(iq))
	right = make([]float32, len(iq))
	for i, v := range iq {
		left[i] = real(v)
		right[i] = real(v)
	}
	return left, right, nil
}

func (d *fakeDemod) input() []complex64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastInput
}

func (d *fakeDemod) Mode() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode
}

func (d *fakeDemod) CanSetMode(mode string) bool {
	return slices.Contains(d.inPlace, mode)
}

func (d *fakeDemod) SetMode(mode string) error {
	if !d.CanSetMode(mode) {
		return fmt.Errorf("%w: %s", ErrUnknownMode, mode)
	}
	d.mu.Lock()
	d.mode = mode
	d.mu.Unlock()
	return nil
}

func (d *fakeDemod) HalfBandwidth() float64 { return d.halfBW }

func (d *fakeDemod) State() DemodState {
	s := DemodState{Squelch: Float(d.squelch), AudioFilter: Bool(d.audioFilter)}
	if d.hasDeviation {
		s.Deviation = Float(d.deviation)
	}
	return s
}

func (d *fakeDemod) ApplyState(s DemodState) error {
	var errs []error
	if s.Squelch != nil {
		if math.IsNaN(*s.Squelch) {
			errs = append(errs, fmt.Errorf("%w: squelch is NaN", ErrStateReplayMismatch))
		} else {
			d.squelch = *s.Squelch
		}
	}
	if s.Deviation != nil && d.hasDeviation {
		d.deviation = *s.Deviation
	}
	if d.rebuildOnReplay {
		d.replayRebuildErr = d.ctx.RebuildMe()
	}
	return errors.Join(errs...)
}

func (d *fakeDemod) Reset() {}

// fakeModes builds a registry of fake demodulators and counts constructions.
type fakeModes struct {
	reg    *Registry
	builds atomic.Int64
	fail   atomic.Bool

	// minInputRate makes construction fail below this input rate.
	minInputRate float64

	rebuildOnReplay bool
}

const (
	fakeHalfBandwidth    = 5000.0
	fakeSSBHalfBandwidth = 3000.0
	fakeNFMDeviation     = 5000.0
)

func newFakeModes() *fakeModes {
	m := &fakeModes{reg: NewRegistry()}
	err := m.reg.Register(
		ModeDef{Mode: "AM", Label: "AM", New: m.constructor(nil, false), Available: true},
		ModeDef{Mode: "NFM", Label: "Narrow FM", New: m.constructor(nil, true), Available: true},
		ModeDef{Mode: "USB", Label: "USB", New: m.constructor([]string{"USB", "LSB"}, false), Available: true},
		ModeDef{Mode: "LSB", Label: "LSB", New: m.constructor([]string{"USB", "LSB"}, false), Available: true},
		ModeDef{Mode: "DRM", Label: "DRM", New: m.constructor(nil, false), Available: false},
	)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *fakeModes) constructor(inPlace []string, fm bool) Constructor {
	return func(p DemodParams) (Demodulator, error) {
		if m.fail.Load() {
			return nil, errors.New("construction failed")
		}
		if p.InputRate < m.minInputRate {
			return nil, fmt.Errorf("%w: input rate %g too low", ErrInvalidArgument, p.InputRate)
		}
		m.builds.Add(1)

		d := &fakeDemod{
			mode:            p.Mode,
			inPlace:         inPlace,
			halfBW:          fakeHalfBandwidth,
			ctx:             p.Context,
			params:          p,
			hasDeviation:    fm,
			rebuildOnReplay: m.rebuildOnReplay,
		}
		if inPlace != nil {
			d.halfBW = fakeSSBHalfBandwidth
		}
		if fm {
			d.deviation = fakeNFMDeviation
		}
		if p.Init.AudioFilter != nil {
			d.audioFilter = *p.Init.AudioFilter
		}
		return d, nil
	}
}
