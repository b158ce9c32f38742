package demod

import (
	receiver "github.com/tphakala/go-sdr-receiver"
	"github.com/tphakala/go-sdr-receiver/internal/engine"
)

// AM is an envelope detector behind a 16 kHz channel.
type AM struct {
	singleMode
	*front
	dc *engine.DCBlocker
}

// NewAM builds an AM demodulator.
func NewAM(p receiver.DemodParams) (receiver.Demodulator, error) {
	f, err := newFront(p, channelShape{rate: amChannelRate, cutoff: amCutoff, transition: amTransition})
	if err != nil {
		return nil, err
	}
	return &AM{singleMode: ModeAM, front: f, dc: engine.NewDCBlocker(0)}, nil
}

func (d *AM) Process(iq []complex64) (left, right []float32, err error) {
	ch, err := d.filter().Process(iq)
	if err != nil {
		return nil, nil, err
	}
	audio := engine.Magnitude(ch)
	d.dc.Process(audio)
	if d.muted(ch) {
		clear(audio)
	}
	left, right = d.output(audio)
	return left, right, nil
}

func (d *AM) HalfBandwidth() float64 { return amHalfBandwidth }

func (d *AM) State() receiver.DemodState { return d.state() }

func (d *AM) ApplyState(s receiver.DemodState) error { return d.applyCommon(s) }

func (d *AM) Reset() {
	d.reset()
	d.dc.Reset()
}
