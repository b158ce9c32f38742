package receiver

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/tphakala/go-sdr-receiver/internal/engine"
	"github.com/tphakala/go-sdr-receiver/internal/flowgraph"
	"github.com/tphakala/go-sdr-receiver/internal/mathutil"
)

// Block names in the receiver graph.
const (
	blockInput       = "input"
	blockOutput      = "output"
	blockOscillator  = "oscillator"
	blockMixer       = "mixer"
	blockDemodulator = "demodulator"
	blockGainLeft    = "audio_gain_l"
	blockGainRight   = "audio_gain_r"
	blockProbe       = "probe"
)

// Receiver tunes one channel out of a complex IQ stream and demodulates it
// to stereo audio. The demodulator is replaced atomically on mode changes
// the current one cannot handle in place.
type Receiver struct {
	mu sync.Mutex // serializes control operations

	ctx   Context
	reg   *Registry
	graph *flowgraph.Graph

	inputRate       int
	inputCenterFreq float64
	recFreq         float64
	audioRate       int
	audioGain       float64
	audioPan        float64
	mode            string

	// Swapped under ctx's lock.
	demod Demodulator
	facet *demodContext

	osc   *engine.SignalSource
	gainL *engine.MultiplyConst
	gainR *engine.MultiplyConst
	probe *engine.PowerProbe

	oscBuf []complex64
	mixBuf []complex64
}

// Option configures a Receiver.
type Option func(*Receiver)

// WithRecorder logs graph rewiring to rec.
func WithRecorder(rec *flowgraph.Recorder) Option {
	return func(r *Receiver) { r.graph = flowgraph.NewGraph(rec) }
}

// New builds a receiver and its first demodulator and wires the graph.
func New(cfg *Config, reg *Registry, ctx Context, opts ...Option) (*Receiver, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if reg == nil || ctx == nil {
		return nil, fmt.Errorf("%w: registry and context are required", ErrInvalidConfig)
	}

	r := &Receiver{
		ctx:             ctx,
		reg:             reg,
		graph:           flowgraph.NewGraph(nil),
		inputRate:       cfg.InputRate,
		inputCenterFreq: cfg.InputCenterFreq,
		recFreq:         cfg.RecFreq,
		audioRate:       cfg.AudioRate,
		audioGain:       mathutil.Clamp(cfg.AudioGain, minAudioGain, maxAudioGain),
		audioPan:        mathutil.Clamp(cfg.AudioPan, minAudioPan, maxAudioPan),
		osc:             engine.NewSignalSource(float64(cfg.InputRate), cfg.InputCenterFreq-cfg.RecFreq, oscillatorAmplitude),
		gainL:           engine.NewMultiplyConst(0),
		gainR:           engine.NewMultiplyConst(0),
		probe:           engine.NewPowerProbe(probeAlphaNumerator / float64(cfg.AudioRate)),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.updateGains()

	d, facet, err := r.build(cfg.Mode, cfg.State)
	if err != nil {
		return nil, err
	}
	if err := r.swap(d, facet, cfg.Mode); err != nil {
		return nil, err
	}

	Logger().Info("receiver ready", "mode", cfg.Mode, "input_rate", r.inputRate, "audio_rate", r.audioRate)
	return r, nil
}

// Mode returns the current mode.
func (r *Receiver) Mode() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode
}

// AvailableModes returns the modes SetMode accepts.
func (r *Receiver) AvailableModes() []string {
	return r.reg.Modes()
}

// SetMode switches mode, in place when the demodulator supports it and by
// rebuilding otherwise. On error the receiver keeps its previous mode and
// demodulator.
func (r *Receiver) SetMode(mode string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.demod.CanSetMode(mode) {
		if _, ok := r.reg.Lookup(mode); !ok {
			return fmt.Errorf("%w: %q", ErrUnknownMode, mode)
		}
		if err := r.demod.SetMode(mode); err != nil {
			return err
		}
		r.mode = mode
		Logger().Debug("mode changed in place", "mode", mode)
		return nil
	}
	return r.rebuildLocked(mode)
}

// Rebuild replaces the demodulator with a new one for mode, carrying its
// settings over. An empty mode rebuilds the current mode.
func (r *Receiver) Rebuild(mode string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rebuildLocked(mode)
}

// rebuildFor serves RebuildMe from a demodulator's context. Requests from
// a context that stopped being current while waiting are refused.
func (r *Receiver) rebuildFor(c *demodContext) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.facet != c {
		return fmt.Errorf("%w: %s demodulator was replaced", ErrFacetDisabled, c.mode)
	}
	return r.rebuildLocked("")
}

func (r *Receiver) rebuildLocked(mode string) error {
	if mode == "" {
		mode = r.mode
	}

	d, facet, err := r.build(mode, r.demod.State())
	if err != nil {
		return err
	}
	return r.swap(d, facet, mode)
}

// build constructs and configures a demodulator without touching the graph.
func (r *Receiver) build(mode string, state DemodState) (Demodulator, *demodContext, error) {
	def, ok := r.reg.Lookup(mode)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	state, err := state.Migrate()
	if err != nil {
		Logger().Warn("discarding saved demodulator settings", "mode", mode, "err", err)
		state = DemodState{Version: CurrentStateVersion}
	}

	facet := newDemodContext(r, mode)
	d, err := def.New(DemodParams{
		Mode:      mode,
		InputRate: float64(r.inputRate),
		AudioRate: float64(r.audioRate),
		Context:   facet,
		Init:      state.InitOnly(),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("build %s demodulator: %w", mode, err)
	}

	if err := d.ApplyState(state); err != nil {
		if !errors.Is(err, ErrStateReplayMismatch) {
			return nil, nil, fmt.Errorf("configure %s demodulator: %w", mode, err)
		}
		Logger().Warn("some demodulator settings kept their defaults", "mode", mode, "err", err)
	}
	return d, facet, nil
}

// swap wires d into the graph in place of the current demodulator.
func (r *Receiver) swap(d Demodulator, facet *demodContext, mode string) error {
	facet.enable()
	prev := r.facet

	err := r.connect(func() {
		r.demod, r.facet = d, facet
	})
	if err != nil {
		facet.retire()
		return err
	}
	if prev != nil {
		prev.retire()
	}
	r.mode = mode

	Logger().Debug("demodulator connected", "mode", mode, "half_bandwidth", d.HalfBandwidth())
	return nil
}

// connect rewires the graph and runs install while streaming is stopped.
func (r *Receiver) connect(install func()) error {
	r.ctx.Lock()
	defer r.ctx.Unlock()

	if err := r.graph.Replace(r.wiring()...); err != nil {
		return err
	}
	install()
	return nil
}

func (r *Receiver) wiring() [][]flowgraph.Endpoint {
	p := flowgraph.Port
	return [][]flowgraph.Endpoint{
		{p(blockOscillator, 0), p(blockMixer, 1)},
		{p(blockInput, 0), p(blockMixer, 0), p(blockDemodulator, 0)},
		{p(blockDemodulator, leftChannel), p(blockGainLeft, 0), p(blockOutput, leftChannel)},
		{p(blockDemodulator, rightChannel), p(blockGainRight, 0), p(blockOutput, rightChannel)},
		{p(blockDemodulator, leftChannel), p(blockProbe, 0)},
	}
}

func (r *Receiver) requiredEdges() []flowgraph.Edge {
	var edges []flowgraph.Edge
	for _, chain := range r.wiring() {
		for i := 1; i < len(chain); i++ {
			edges = append(edges, flowgraph.Edge{From: chain[i-1], To: chain[i]})
		}
	}
	return edges
}

// Edges returns the current graph edges.
func (r *Receiver) Edges() []flowgraph.Edge {
	return r.graph.Edges()
}

// SetInputRate changes the input sample rate and rebuilds the demodulator.
// On failure the previous rate stays in effect.
func (r *Receiver) SetInputRate(rate int) error {
	if rate <= 0 {
		return fmt.Errorf("%w: input rate %d", ErrInvalidArgument, rate)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if rate == r.inputRate {
		return nil
	}

	prev := r.inputRate
	r.inputRate = rate
	r.osc.SetSamplingFreq(float64(rate))

	if err := r.rebuildLocked(""); err != nil {
		r.inputRate = prev
		r.osc.SetSamplingFreq(float64(prev))
		return err
	}
	return nil
}

// InputRate returns the input sample rate.
func (r *Receiver) InputRate() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inputRate
}

// AudioRate returns the output sample rate.
func (r *Receiver) AudioRate() int {
	return r.audioRate
}

// SetInputCenterFreq records a new input center frequency and retunes the
// oscillator. The caller revalidates.
func (r *Receiver) SetInputCenterFreq(hz float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.inputCenterFreq = hz
	r.retune()
}

// InputCenterFreq returns the input center frequency.
func (r *Receiver) InputCenterFreq() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inputCenterFreq
}

// SetRecFreq tunes to hz and revalidates.
func (r *Receiver) SetRecFreq(hz float64) {
	r.mu.Lock()
	r.recFreq = hz
	r.retune()
	r.mu.Unlock()

	r.ctx.Revalidate()
}

// RecFreq returns the receive frequency.
func (r *Receiver) RecFreq() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recFreq
}

func (r *Receiver) retune() {
	r.osc.SetFrequency(r.inputCenterFreq - r.recFreq)
}

// OscillatorFreq returns the mixer oscillator frequency.
func (r *Receiver) OscillatorFreq() float64 {
	return r.osc.Frequency()
}

// SetAudioGain sets the overall gain, clamped to [0.001, 100].
func (r *Receiver) SetAudioGain(gain float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.audioGain = mathutil.Clamp(gain, minAudioGain, maxAudioGain)
	r.updateGains()
}

// AudioGain returns the overall gain.
func (r *Receiver) AudioGain() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.audioGain
}

// SetAudioPan sets the stereo pan, clamped to [-1, 1]. Negative pans left.
func (r *Receiver) SetAudioPan(pan float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.audioPan = mathutil.Clamp(pan, minAudioPan, maxAudioPan)
	r.updateGains()
}

// AudioPan returns the stereo pan.
func (r *Receiver) AudioPan() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.audioPan
}

func (r *Receiver) updateGains() {
	r.gainL.SetK(r.audioGain * (1 - r.audioPan))
	r.gainR.SetK(r.audioGain * (1 + r.audioPan))
}

// ChannelGains returns the multipliers applied to the left and right outputs.
func (r *Receiver) ChannelGains() (left, right float64) {
	return r.gainL.K(), r.gainR.K()
}

// IsValid reports whether the demodulator's band fits inside the input band
// at the current tuning.
func (r *Receiver) IsValid() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.validLocked()
}

func (r *Receiver) validLocked() bool {
	if r.demod == nil {
		return false
	}
	room := float64(r.inputRate)/2 - math.Abs(r.recFreq-r.inputCenterFreq)
	return room >= r.demod.HalfBandwidth()
}

// AudioPower returns the demodulated audio level in dB, or exactly 0 when
// the receiver is not valid.
func (r *Receiver) AudioPower() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.validLocked() {
		return 0
	}
	return mathutil.PowerDB(r.probe.Level())
}

// Demodulator returns the current demodulator.
func (r *Receiver) Demodulator() Demodulator {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.demod
}

// State returns the current demodulator's settings.
func (r *Receiver) State() DemodState {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.demod.State()
	s.Version = CurrentStateVersion
	return s
}

// Process runs one block of input IQ through the receiver. It must be called
// with the Context lock held, as flowgraph.Engine.Do does.
func (r *Receiver) Process(iq []complex64) (left, right []float32, err error) {
	if missing := r.graph.Missing(r.requiredEdges()...); len(missing) > 0 {
		return nil, nil, fmt.Errorf("%w: missing %s", ErrNotConnected, missing[0])
	}

	r.oscBuf = resize(r.oscBuf, len(iq))
	r.mixBuf = resize(r.mixBuf, len(iq))
	r.osc.Work(r.oscBuf)
	engine.Multiply(r.mixBuf, iq, r.oscBuf)

	dl, dr, err := r.demod.Process(r.mixBuf)
	if err != nil {
		return nil, nil, fmt.Errorf("demodulate: %w", err)
	}
	r.probe.Process(dl)

	left = make([]float32, len(dl))
	right = make([]float32, len(dr))
	r.gainL.Process(left, dl)
	r.gainR.Process(right, dr)
	return left, right, nil
}

// Reset clears streaming history in every block.
func (r *Receiver) Reset() {
	r.ctx.Lock()
	defer r.ctx.Unlock()

	r.demod.Reset()
	r.probe.Reset()
}

func resize[T any](buf []T, n int) []T {
	if cap(buf) < n {
		return make([]T, n)
	}
	return buf[:n]
}
