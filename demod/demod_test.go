package demod

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	receiver "github.com/tphakala/go-sdr-receiver"
	"github.com/tphakala/go-sdr-receiver/internal/engine"
	"github.com/tphakala/go-sdr-receiver/internal/flowgraph"
	"github.com/tphakala/go-sdr-receiver/internal/testutil"
)

const (
	testInputRate = 240000
	testAudioRate = 48000
	testTone      = 1000.0

	// analysisSamples covers a whole number of test tone periods at the
	// audio rate.
	analysisSamples = 4800

	// Blocks of 0.25 s at the input rate.
	testBlock = testInputRate / 4
)

// toneLevel returns the amplitude of the freq component of x.
func toneLevel(x []float32, freq, fs float64) float64 {
	var acc complex128
	w := 2 * math.Pi * freq / fs
	for i, v := range x {
		acc += complex(float64(v), 0) * cmplx.Rect(1, -w*float64(i))
	}
	return 2 * cmplx.Abs(acc) / float64(len(x))
}

// fmSignal returns a complex FM carrier at carrier Hz modulated by a cosine
// of tone Hz with peak deviation dev.
func fmSignal(n int, carrier, tone, dev, fs float64) []complex64 {
	out := make([]complex64, n)
	var phase float64
	for i := range out {
		inst := carrier + dev*math.Cos(2*math.Pi*tone*float64(i)/fs)
		phase += 2 * math.Pi * inst / fs
		out[i] = complex64(cmplx.Rect(1, phase))
	}
	return out
}

// nopContext satisfies receiver.DemodContext for standalone demodulators.
type nopContext struct {
	rebuilds int
}

func (c *nopContext) RebuildMe() error { c.rebuilds++; return nil }
func (c *nopContext) Lock()            {}
func (c *nopContext) Unlock()          {}
func (c *nopContext) Revalidate()      {}

func params(mode string, inputRate float64) receiver.DemodParams {
	return receiver.DemodParams{
		Mode:      mode,
		InputRate: inputRate,
		AudioRate: testAudioRate,
		Context:   &nopContext{},
	}
}

// run feeds signal through d in blocks and returns the left output.
func run(t *testing.T, d receiver.Demodulator, signal []complex64) []float32 {
	t.Helper()

	var out []float32
	for start := 0; start < len(signal); start += testBlock {
		end := min(start+testBlock, len(signal))
		left, right, err := d.Process(signal[start:end])
		require.NoError(t, err)
		require.Equal(t, left, right)
		if len(left) > 0 {
			assert.NotSame(t, &left[0], &right[0], "channels must not share storage")
		}
		out = append(out, left...)
	}
	return out
}

func tail(t *testing.T, x []float32, n int) []float32 {
	t.Helper()
	require.GreaterOrEqual(t, len(x), n)
	return x[len(x)-n:]
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()
	assert.Equal(t, []string{ModeAM, ModeNFM, ModeWFM, ModeUSB, ModeLSB}, reg.Modes())

	def, ok := reg.Lookup(ModeWFM)
	require.True(t, ok)
	assert.Equal(t, "Broadcast FM", def.Label)

	require.ErrorIs(t, Register(reg), receiver.ErrInvalidArgument, "modes are already registered")
}

func TestNew_InvalidParams(t *testing.T) {
	constructors := map[string]receiver.Constructor{
		ModeAM: NewAM, ModeNFM: NewNFM, ModeWFM: NewWFM, ModeUSB: NewSSB,
	}
	for mode, newFn := range constructors {
		t.Run(mode, func(t *testing.T) {
			p := params(mode, 0)
			_, err := newFn(p)
			require.ErrorIs(t, err, receiver.ErrInvalidArgument)

			p = params(mode, testInputRate)
			p.Context = nil
			_, err = newFn(p)
			require.ErrorIs(t, err, receiver.ErrInvalidArgument)
		})
	}

	_, err := NewSSB(params(ModeAM, testInputRate))
	require.ErrorIs(t, err, receiver.ErrUnknownMode)
}

func TestAM_RecoversTone(t *testing.T) {
	const depth = 0.5

	d, err := NewAM(params(ModeAM, testInputRate))
	require.NoError(t, err)
	am := d.(*AM)
	assert.Equal(t, amChannelRate, am.ChannelRate())
	assert.Equal(t, []int{5, 3}, am.Decimations())

	out := run(t, d, testutil.AMSignal(testInputRate, 0, testTone, depth, testInputRate))
	assert.InDelta(t, testAudioRate, len(out), 64, "one second of input yields one second of audio")

	audio := tail(t, out, analysisSamples)
	assert.InDelta(t, 0.5*depth, toneLevel(audio, testTone, testAudioRate), 0.05)
	assert.Less(t, toneLevel(audio, 3*testTone, testAudioRate), 0.02)
}

func TestAM_RejectsOutOfChannel(t *testing.T) {
	d, err := NewAM(params(ModeAM, testInputRate))
	require.NoError(t, err)

	// An AM station 40 kHz away is outside the 5 kHz channel.
	out := run(t, d, testutil.AMSignal(testInputRate, 40000, testTone, 0.5, testInputRate))
	assert.Less(t, testutil.RMS(tail(t, out, analysisSamples)), 0.01)
}

func TestSquelch(t *testing.T) {
	tests := []struct {
		name      string
		squelchDB float64
		wantMuted bool
	}{
		{"default is open", defaultSquelchDB, false},
		{"below signal", -30, false},
		{"above signal", -10, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewAM(params(ModeAM, testInputRate))
			require.NoError(t, err)
			require.NoError(t, d.ApplyState(receiver.DemodState{Squelch: receiver.Float(tt.squelchDB)}))

			// Carrier power is about -20 dB.
			signal := testutil.AMSignal(testInputRate/2, 0, testTone, 0.5, testInputRate)
			for i := range signal {
				signal[i] *= 0.2
			}
			out := tail(t, run(t, d, signal), analysisSamples)
			if tt.wantMuted {
				assert.Zero(t, testutil.RMS(out))
			} else {
				assert.Greater(t, testutil.RMS(out), 0.01)
			}
		})
	}
}

func TestApplyState_Mismatch(t *testing.T) {
	d, err := NewNFM(params(ModeNFM, testInputRate))
	require.NoError(t, err)

	err = d.ApplyState(receiver.DemodState{
		Squelch:   receiver.Float(math.Inf(1)),
		Deviation: receiver.Float(2500),
	})
	require.ErrorIs(t, err, receiver.ErrStateReplayMismatch)

	s := d.State()
	assert.Equal(t, defaultSquelchDB, *s.Squelch, "rejected field keeps its default")
	assert.Equal(t, 2500.0, *s.Deviation, "valid fields are still applied")
}

func TestNFM_RecoversTone(t *testing.T) {
	const sigDeviation = 2500.0

	d, err := NewNFM(params(ModeNFM, testInputRate))
	require.NoError(t, err)
	assert.Equal(t, nfmDefaultDeviation+nfmAudioBandwidth, d.HalfBandwidth())

	out := run(t, d, fmSignal(testInputRate, 0, testTone, sigDeviation, testInputRate))
	audio := tail(t, out, analysisSamples)

	// Full deviation maps to 1; the audio low-pass takes a few percent at 1 kHz.
	assert.InDelta(t, sigDeviation/nfmDefaultDeviation, toneLevel(audio, testTone, testAudioRate), 0.05)
}

func TestNFM_SetDeviation(t *testing.T) {
	ctx := &lockCountingContext{}
	p := params(ModeNFM, testInputRate)
	p.Context = ctx

	d, err := NewNFM(p)
	require.NoError(t, err)
	nfm := d.(*NFM)

	require.NoError(t, nfm.SetDeviation(8000))
	assert.Equal(t, 8000.0, nfm.Deviation())
	assert.Equal(t, 11000.0, nfm.HalfBandwidth())
	assert.Equal(t, 1, ctx.locks, "channel filter swapped under the lock")
	assert.Equal(t, 1, ctx.revalidations)

	require.NoError(t, nfm.SetDeviation(8000))
	assert.Equal(t, 1, ctx.locks, "unchanged deviation is a no-op")

	for _, bad := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		require.ErrorIs(t, nfm.SetDeviation(bad), receiver.ErrInvalidArgument)
	}
	assert.Equal(t, 8000.0, nfm.Deviation())
}

func TestNFM_ChannelReadableDuringSetDeviation(t *testing.T) {
	d, err := NewNFM(params(ModeNFM, testInputRate))
	require.NoError(t, err)
	nfm := d.(*NFM)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, dev := range []float64{6000, 7000, 8000, 9000} {
			assert.NoError(t, nfm.SetDeviation(dev))
		}
	}()

	for {
		select {
		case <-done:
			assert.Equal(t, 9000.0, nfm.Deviation())
			assert.Equal(t, float64(nfmChannelRate), nfm.ChannelRate())
			return
		default:
			assert.Equal(t, float64(nfmChannelRate), nfm.ChannelRate())
			assert.NotEmpty(t, nfm.Decimations())
		}
	}
}

type lockCountingContext struct {
	nopContext
	locks         int
	revalidations int
}

func (c *lockCountingContext) Lock()       { c.locks++ }
func (c *lockCountingContext) Revalidate() { c.revalidations++ }

func TestWFM_AudioFilterIsInitOnly(t *testing.T) {
	ctx := &nopContext{}
	p := params(ModeWFM, 4*wfmChannelRate)
	p.Context = ctx

	d, err := NewWFM(p)
	require.NoError(t, err)
	wfm := d.(*WFM)
	assert.False(t, wfm.AudioFilter())
	assert.Equal(t, []int{2, 2}, wfm.Decimations())

	require.NoError(t, wfm.SetAudioFilter(false))
	assert.Zero(t, ctx.rebuilds)

	require.NoError(t, wfm.SetAudioFilter(true))
	assert.Equal(t, 1, ctx.rebuilds)
	assert.False(t, wfm.AudioFilter(), "structure changes only through a rebuild")
	assert.True(t, *wfm.State().AudioFilter, "state carries the requested value")

	p.Init = receiver.DemodState{AudioFilter: receiver.Bool(true)}
	d, err = NewWFM(p)
	require.NoError(t, err)
	assert.True(t, d.(*WFM).AudioFilter())
}

func TestWFM_RecoversTone(t *testing.T) {
	const (
		inputRate    = 4 * wfmChannelRate
		sigDeviation = 37500.0
	)

	d, err := NewWFM(params(ModeWFM, inputRate))
	require.NoError(t, err)

	out := run(t, d, fmSignal(inputRate/2, 0, testTone, sigDeviation, inputRate))
	audio := tail(t, out, analysisSamples)

	corner := 1 / (2 * math.Pi * engine.DeemphasisTau)
	deemphasis := 1 / math.Hypot(1, testTone/corner)
	assert.InDelta(t, sigDeviation/wfmDeviation*deemphasis, toneLevel(audio, testTone, testAudioRate), 0.03)
}

func TestWFM_InputTooNarrow(t *testing.T) {
	_, err := NewWFM(params(ModeWFM, testAudioRate))
	require.ErrorIs(t, err, receiver.ErrInvalidArgument)
}

func TestSSB_Sidebands(t *testing.T) {
	upper := testutil.ComplexTone(testInputRate/2, testTone, testInputRate)
	lower := testutil.ComplexTone(testInputRate/2, -testTone, testInputRate)

	tests := []struct {
		name   string
		mode   string
		signal []complex64
		want   float64
	}{
		{"usb passes upper", ModeUSB, upper, 1},
		{"usb rejects lower", ModeUSB, lower, 0},
		{"lsb passes lower", ModeLSB, lower, 1},
		{"lsb rejects upper", ModeLSB, upper, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewSSB(params(tt.mode, testInputRate))
			require.NoError(t, err)
			assert.Equal(t, tt.mode, d.Mode())

			audio := tail(t, run(t, d, tt.signal), analysisSamples)
			assert.InDelta(t, tt.want, toneLevel(audio, testTone, testAudioRate), 0.1)
		})
	}
}

func TestSSB_SetModeInPlace(t *testing.T) {
	d, err := NewSSB(params(ModeUSB, testInputRate))
	require.NoError(t, err)
	ssb := d.(*SSB)

	assert.True(t, d.CanSetMode(ModeLSB))
	assert.False(t, d.CanSetMode(ModeAM))

	require.NoError(t, d.SetMode(ModeLSB))
	assert.Equal(t, ModeLSB, d.Mode())
	assert.Equal(t, -ssbSidebandOffset, ssb.filter().CenterFreq())

	require.ErrorIs(t, d.SetMode(ModeWFM), receiver.ErrUnknownMode)
	assert.Equal(t, ModeLSB, d.Mode())

	d.Reset()
	audio := tail(t, run(t, d, testutil.ComplexTone(testInputRate/2, -testTone, testInputRate)), analysisSamples)
	assert.InDelta(t, 1, toneLevel(audio, testTone, testAudioRate), 0.1)
}

func TestSingleMode(t *testing.T) {
	d, err := NewAM(params(ModeAM, testInputRate))
	require.NoError(t, err)

	assert.Equal(t, ModeAM, d.Mode())
	assert.True(t, d.CanSetMode(ModeAM))
	assert.False(t, d.CanSetMode(ModeNFM))
	require.NoError(t, d.SetMode(ModeAM))
	require.ErrorIs(t, d.SetMode(ModeNFM), receiver.ErrUnknownMode)
}

// Receiver-level behavior with the built-in demodulators.
func TestReceiver_ModeChanges(t *testing.T) {
	rec := flowgraph.NewRecorder()
	eng := flowgraph.NewEngine(flowgraph.WithRecorder(rec))

	cfg := receiver.DefaultConfig()
	cfg.Mode = ModeNFM
	cfg.InputRate = 4 * wfmChannelRate
	cfg.InputCenterFreq = 100e6
	cfg.RecFreq = 100e6
	cfg.State = receiver.DemodState{Squelch: receiver.Float(-45)}

	r, err := receiver.New(cfg, NewRegistry(), eng, receiver.WithRecorder(rec))
	require.NoError(t, err)

	process := func() {
		t.Helper()
		require.NoError(t, eng.Do(func() error {
			_, _, err := r.Process(make([]complex64, 4096))
			return err
		}))
	}
	process()

	require.NoError(t, r.SetMode(ModeWFM))
	wfm, ok := r.Demodulator().(*WFM)
	require.True(t, ok)
	assert.Equal(t, -45.0, wfm.Squelch(), "squelch survives the rebuild")
	process()

	rec.Reset()
	require.NoError(t, wfm.SetAudioFilter(true))
	rebuilt, ok := r.Demodulator().(*WFM)
	require.True(t, ok)
	assert.NotSame(t, wfm, rebuilt)
	assert.True(t, rebuilt.AudioFilter())
	assert.Equal(t, -45.0, rebuilt.Squelch())
	assert.Equal(t, "lock", rec.Events()[0])
	assert.Equal(t, "unlock", rec.Events()[len(rec.Events())-1])

	// The replaced instance can no longer rebuild.
	require.ErrorIs(t, wfm.SetAudioFilter(true), receiver.ErrFacetDisabled)
	process()

	require.NoError(t, r.SetMode(ModeUSB))
	usb := r.Demodulator()
	require.NoError(t, r.SetMode(ModeLSB))
	assert.Same(t, usb, r.Demodulator())
	assert.Equal(t, ModeLSB, usb.Mode())
	process()

	assert.True(t, r.IsValid())
	r.SetRecFreq(100e6 + float64(cfg.InputRate)/2)
	assert.False(t, r.IsValid())
	assert.Equal(t, 0.0, r.AudioPower())
}
