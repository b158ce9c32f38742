package demod

import (
	"fmt"
	"math"
	"slices"
	"sync/atomic"

	receiver "github.com/tphakala/go-sdr-receiver"
	"github.com/tphakala/go-sdr-receiver/internal/channel"
	"github.com/tphakala/go-sdr-receiver/internal/engine"
	"github.com/tphakala/go-sdr-receiver/internal/mathutil"
)

// param is a float64 setting written by the control path and read while
// streaming.
type param struct{ bits atomic.Uint64 }

func newParam(v float64) *param {
	p := &param{}
	p.Store(v)
	return p
}

func (p *param) Load() float64   { return math.Float64frombits(p.bits.Load()) }
func (p *param) Store(v float64) { p.bits.Store(math.Float64bits(v)) }

// front is the part every demodulator shares: the channel filter, the
// squelch and the resampler from the channel rate to the audio rate.
type front struct {
	ctx       receiver.DemodContext
	inputRate float64
	audioRate float64

	// channel is replaced under the context lock when its passband changes
	// and may be read from the control path at any time.
	channel atomic.Pointer[channel.Filter]
	audio   *engine.ArbResamplerReal
	squelch *param
}

type channelShape struct {
	rate       float64
	cutoff     float64
	transition float64
	center     float64
}

func newFront(p receiver.DemodParams, shape channelShape) (*front, error) {
	if p.InputRate <= 0 || p.AudioRate <= 0 {
		return nil, fmt.Errorf("%w: rates %g -> %g must be positive", receiver.ErrInvalidArgument, p.InputRate, p.AudioRate)
	}
	if p.Context == nil {
		return nil, fmt.Errorf("%w: demodulator context is required", receiver.ErrInvalidArgument)
	}

	f := &front{
		ctx:       p.Context,
		inputRate: p.InputRate,
		audioRate: p.AudioRate,
		squelch:   newParam(defaultSquelchDB),
	}

	ch, err := f.buildChannel(shape)
	if err != nil {
		return nil, err
	}
	f.channel.Store(ch)

	if ratio := p.AudioRate / ch.OutputRate(); ratio != 1 {
		f.audio, err = engine.NewArbResamplerReal(ratio)
		if err != nil {
			return nil, err
		}
	}
	return f, nil
}

// buildChannel designs a channel filter, bounding the channel rate to the
// input rate.
func (f *front) buildChannel(shape channelShape) (*channel.Filter, error) {
	ch, err := channel.New(channel.Config{
		InputRate:  f.inputRate,
		OutputRate: min(shape.rate, f.inputRate),
		Cutoff:     shape.cutoff,
		Transition: shape.transition,
		CenterFreq: shape.center,
	})
	if err != nil {
		return nil, fmt.Errorf("channel filter: %w", err)
	}

	receiver.Logger().Debug("channel filter designed",
		"input_rate", f.inputRate,
		"channel_rate", ch.OutputRate(),
		"decimations", ch.Decimations(),
		"cutoff", shape.cutoff)
	return ch, nil
}

func (f *front) filter() *channel.Filter {
	return f.channel.Load()
}

// channelRate returns the sample rate the channel filter produces.
func (f *front) channelRate() float64 {
	return f.filter().OutputRate()
}

// muted reports whether the channel block is below the squelch level.
func (f *front) muted(ch []complex64) bool {
	if len(ch) == 0 {
		return false
	}
	var sum float64
	for _, v := range ch {
		re, im := float64(real(v)), float64(imag(v))
		sum += re*re + im*im
	}
	return mathutil.PowerDB(sum/float64(len(ch))) < f.squelch.Load()
}

// output resamples mono audio to the audio rate and duplicates it to both
// channels.
func (f *front) output(mono []float32) (left, right []float32) {
	if f.audio != nil {
		mono = f.audio.Process(mono)
	}
	return mono, slices.Clone(mono)
}

func (f *front) reset() {
	f.filter().Reset()
	if f.audio != nil {
		f.audio.Reset()
	}
}

// SetSquelch sets the squelch level in dB.
func (f *front) SetSquelch(db float64) error {
	if math.IsNaN(db) || math.IsInf(db, 0) {
		return fmt.Errorf("%w: squelch %g", receiver.ErrInvalidArgument, db)
	}
	f.squelch.Store(db)
	return nil
}

// Squelch returns the squelch level in dB.
func (f *front) Squelch() float64 {
	return f.squelch.Load()
}

// ChannelRate returns the channel filter's output rate.
func (f *front) ChannelRate() float64 {
	return f.channelRate()
}

// Decimations returns the channel filter's stage decimations.
func (f *front) Decimations() []int {
	return f.filter().Decimations()
}

func (f *front) state() receiver.DemodState {
	return receiver.DemodState{
		Version: receiver.CurrentStateVersion,
		Squelch: receiver.Float(f.squelch.Load()),
	}
}

// applyCommon replays the shared settings.
func (f *front) applyCommon(s receiver.DemodState) error {
	if s.Squelch == nil {
		return nil
	}
	if err := f.SetSquelch(*s.Squelch); err != nil {
		return mismatch("squelch", err)
	}
	return nil
}

func mismatch(field string, err error) error {
	return fmt.Errorf("%w: %s: %w", receiver.ErrStateReplayMismatch, field, err)
}

// singleMode implements the mode methods of a demodulator serving one mode.
type singleMode string

func (m singleMode) Mode() string { return string(m) }

func (m singleMode) CanSetMode(mode string) bool { return mode == string(m) }

func (m singleMode) SetMode(mode string) error {
	if mode != string(m) {
		return fmt.Errorf("%w: %s demodulator cannot switch to %q", receiver.ErrUnknownMode, string(m), mode)
	}
	return nil
}
