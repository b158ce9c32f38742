package demod

import (
	"fmt"
	"sync/atomic"

	receiver "github.com/tphakala/go-sdr-receiver"
	"github.com/tphakala/go-sdr-receiver/internal/engine"
)

// SSB demodulates either sideband. The channel filter is centered on the
// selected sideband and a beat oscillator at the same offset shifts it back
// to audio, so switching sidebands is a retune of both.
type SSB struct {
	*front
	lower atomic.Bool
	bfo   *engine.SignalSource
	mixed []complex64
}

// NewSSB builds a USB or LSB demodulator.
func NewSSB(p receiver.DemodParams) (receiver.Demodulator, error) {
	offset, err := sidebandOffset(p.Mode)
	if err != nil {
		return nil, err
	}
	f, err := newFront(p, channelShape{
		rate:       ssbChannelRate,
		cutoff:     ssbCutoff,
		transition: ssbTransition,
		center:     offset,
	})
	if err != nil {
		return nil, err
	}

	d := &SSB{
		front: f,
		bfo:   engine.NewSignalSource(f.channelRate(), offset, 1),
	}
	d.lower.Store(p.Mode == ModeLSB)
	return d, nil
}

func sidebandOffset(mode string) (float64, error) {
	switch mode {
	case ModeUSB:
		return ssbSidebandOffset, nil
	case ModeLSB:
		return -ssbSidebandOffset, nil
	default:
		return 0, fmt.Errorf("%w: %q is not a sideband", receiver.ErrUnknownMode, mode)
	}
}

func (d *SSB) Process(iq []complex64) (left, right []float32, err error) {
	ch, err := d.filter().Process(iq)
	if err != nil {
		return nil, nil, err
	}

	if cap(d.mixed) < len(ch) {
		d.mixed = make([]complex64, len(ch))
	}
	bfo := d.mixed[:len(ch)]
	d.bfo.Work(bfo)
	engine.Multiply(bfo, ch, bfo)

	audio := engine.RealPart(bfo)
	if d.muted(ch) {
		clear(audio)
	}
	left, right = d.output(audio)
	return left, right, nil
}

func (d *SSB) Mode() string {
	if d.lower.Load() {
		return ModeLSB
	}
	return ModeUSB
}

func (d *SSB) CanSetMode(mode string) bool {
	return mode == ModeUSB || mode == ModeLSB
}

// SetMode switches sideband by retuning the channel filter and the beat
// oscillator.
func (d *SSB) SetMode(mode string) error {
	offset, err := sidebandOffset(mode)
	if err != nil {
		return err
	}
	d.filter().SetCenterFreq(offset)
	d.bfo.SetFrequency(offset)
	d.lower.Store(mode == ModeLSB)
	return nil
}

func (d *SSB) HalfBandwidth() float64 { return ssbHalfBandwidth }

func (d *SSB) State() receiver.DemodState { return d.state() }

func (d *SSB) ApplyState(s receiver.DemodState) error { return d.applyCommon(s) }

func (d *SSB) Reset() { d.reset() }
