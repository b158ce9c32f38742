package demod

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	receiver "github.com/tphakala/go-sdr-receiver"
	"github.com/tphakala/go-sdr-receiver/internal/engine"
)

// NFM is a narrowband FM demodulator with settable deviation.
type NFM struct {
	singleMode
	*front
	deviation *param
	quad      *engine.QuadratureDemod
	lowpass   *engine.Deemphasis
}

// NewNFM builds a narrowband FM demodulator.
func NewNFM(p receiver.DemodParams) (receiver.Demodulator, error) {
	f, err := newFront(p, nfmShape(nfmDefaultDeviation))
	if err != nil {
		return nil, err
	}
	rate := f.channelRate()
	return &NFM{
		singleMode: ModeNFM,
		front:      f,
		deviation:  newParam(nfmDefaultDeviation),
		quad:       engine.NewQuadratureDemod(engine.FMGain(rate, nfmDefaultDeviation)),
		lowpass:    engine.NewDeemphasis(rate, 1/(2*math.Pi*nfmAudioCorner)),
	}, nil
}

func nfmShape(deviation float64) channelShape {
	return channelShape{
		rate:       nfmChannelRate,
		cutoff:     deviation + nfmAudioBandwidth,
		transition: nfmTransition,
	}
}

func (d *NFM) Process(iq []complex64) (left, right []float32, err error) {
	ch, err := d.filter().Process(iq)
	if err != nil {
		return nil, nil, err
	}
	audio := d.quad.Process(ch)
	d.lowpass.Process(audio)
	if d.muted(ch) {
		clear(audio)
	}
	left, right = d.output(audio)
	return left, right, nil
}

// SetDeviation changes the peak deviation, redesigning the channel filter
// for the wider or narrower passband. The new filter is swapped in with
// streaming stopped.
func (d *NFM) SetDeviation(hz float64) error {
	if !(hz > 0) || math.IsInf(hz, 0) {
		return fmt.Errorf("%w: deviation %g", receiver.ErrInvalidArgument, hz)
	}
	if hz == d.deviation.Load() {
		return nil
	}

	ch, err := d.buildChannel(nfmShape(hz))
	if err != nil {
		return err
	}
	quad := engine.NewQuadratureDemod(engine.FMGain(ch.OutputRate(), hz))

	d.ctx.Lock()
	d.channel.Store(ch)
	d.quad = quad
	d.deviation.Store(hz)
	d.ctx.Unlock()

	d.ctx.Revalidate()
	return nil
}

// Deviation returns the peak deviation in Hz.
func (d *NFM) Deviation() float64 { return d.deviation.Load() }

func (d *NFM) HalfBandwidth() float64 { return d.deviation.Load() + nfmAudioBandwidth }

func (d *NFM) State() receiver.DemodState {
	s := d.state()
	s.Deviation = receiver.Float(d.deviation.Load())
	return s
}

func (d *NFM) ApplyState(s receiver.DemodState) error {
	errs := []error{d.applyCommon(s)}
	if s.Deviation != nil {
		if err := d.SetDeviation(*s.Deviation); err != nil {
			errs = append(errs, mismatch("deviation", err))
		}
	}
	return errors.Join(errs...)
}

func (d *NFM) Reset() {
	d.reset()
	d.quad.Reset()
	d.lowpass.Reset()
}

// WFM is a broadcast FM demodulator with 75 µs de-emphasis.
type WFM struct {
	singleMode
	*front
	quad    *engine.QuadratureDemod
	deemph  *engine.Deemphasis
	lowpass *engine.Deemphasis // nil without the audio filter

	// audioFilter is fixed at construction; requested is the value the next
	// build will use.
	audioFilter bool
	requested   atomic.Bool
}

// NewWFM builds a broadcast FM demodulator. The audio filter setting is
// taken from p.Init.
func NewWFM(p receiver.DemodParams) (receiver.Demodulator, error) {
	f, err := newFront(p, channelShape{rate: wfmChannelRate, cutoff: wfmCutoff, transition: wfmTransition})
	if err != nil {
		return nil, err
	}
	rate := f.channelRate()

	d := &WFM{
		singleMode: ModeWFM,
		front:      f,
		quad:       engine.NewQuadratureDemod(engine.FMGain(rate, wfmDeviation)),
		deemph:     engine.NewDeemphasis(rate, engine.DeemphasisTau),
	}
	if p.Init.AudioFilter != nil && *p.Init.AudioFilter {
		d.audioFilter = true
		d.lowpass = engine.NewDeemphasis(rate, 1/(2*math.Pi*wfmAudioCorner))
	}
	d.requested.Store(d.audioFilter)
	return d, nil
}

func (d *WFM) Process(iq []complex64) (left, right []float32, err error) {
	ch, err := d.filter().Process(iq)
	if err != nil {
		return nil, nil, err
	}
	audio := d.quad.Process(ch)
	d.deemph.Process(audio)
	if d.lowpass != nil {
		d.lowpass.Process(audio)
	}
	if d.muted(ch) {
		clear(audio)
	}
	left, right = d.output(audio)
	return left, right, nil
}

// SetAudioFilter selects the audio low-pass. The filter is part of the
// demodulator's structure, so a change asks the receiver for a rebuild.
func (d *WFM) SetAudioFilter(enabled bool) error {
	prev := d.requested.Swap(enabled)
	if enabled == d.audioFilter {
		return nil
	}
	if err := d.ctx.RebuildMe(); err != nil {
		d.requested.Store(prev)
		return err
	}
	return nil
}

// AudioFilter reports whether this instance applies the audio low-pass.
func (d *WFM) AudioFilter() bool { return d.audioFilter }

func (d *WFM) HalfBandwidth() float64 { return wfmHalfBandwidth }

func (d *WFM) State() receiver.DemodState {
	s := d.state()
	s.AudioFilter = receiver.Bool(d.requested.Load())
	return s
}

func (d *WFM) ApplyState(s receiver.DemodState) error {
	errs := []error{d.applyCommon(s)}
	if s.AudioFilter != nil {
		if err := d.SetAudioFilter(*s.AudioFilter); err != nil {
			errs = append(errs, mismatch("audio_filter", err))
		}
	}
	return errors.Join(errs...)
}

func (d *WFM) Reset() {
	d.reset()
	d.quad.Reset()
	d.deemph.Reset()
	if d.lowpass != nil {
		d.lowpass.Reset()
	}
}
