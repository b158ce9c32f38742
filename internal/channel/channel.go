// Package channel builds the multistage channel filter: a cascade of
// decimating FIR stages, the first of which also translates the channel to
// baseband, followed by a fractional resampler when the integer stages do
// not land exactly on the output rate.
package channel

import (
	"fmt"

	"github.com/tphakala/go-sdr-receiver/internal/errs"
	"github.com/tphakala/go-sdr-receiver/internal/engine"
	"github.com/tphakala/go-sdr-receiver/internal/filter"
	"github.com/tphakala/go-sdr-receiver/internal/pipeline"
)

// Config describes a channel filter.
type Config struct {
	// InputRate and OutputRate are in samples per second.
	InputRate  float64
	OutputRate float64

	// Cutoff and Transition define the channel passband in Hz.
	Cutoff     float64
	Transition float64

	// CenterFreq is the initial translation offset in Hz.
	CenterFreq float64

	// Window selects the stage taper; the zero value is Hamming.
	Window filter.Window
}

// Validate checks that the configuration can be planned.
func (c *Config) Validate() error {
	if c.InputRate <= 0 || c.OutputRate <= 0 {
		return fmt.Errorf("%w: rates %g -> %g must be positive", errs.ErrInvalidArgument, c.InputRate, c.OutputRate)
	}
	if c.Cutoff <= 0 || c.Transition <= 0 {
		return fmt.Errorf("%w: cutoff %g and transition %g must be positive", errs.ErrInvalidArgument, c.Cutoff, c.Transition)
	}
	return nil
}

// Filter is a built channel filter cascade.
type Filter struct {
	cfg       Config
	plan      *pipeline.Plan
	first     *engine.FreqXlatingFIR
	stages    []*engine.FIRDecimator
	resampler *engine.ArbResampler
	chain     *pipeline.Chain
}

// New plans and designs the cascade. Any planning or design error aborts
// construction.
func New(cfg Config) (*Filter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	plan, err := pipeline.PlanDecimation(cfg.InputRate, cfg.OutputRate)
	if err != nil {
		return nil, err
	}

	f := &Filter{
		cfg:    cfg,
		plan:   plan,
		stages: make([]*engine.FIRDecimator, 0, len(plan.Stages)),
	}
	chain := make([]pipeline.Stage, 0, len(plan.Stages)+1)

	for _, st := range plan.Stages {
		taps, err := filter.DesignStage(filter.StageDesign{
			InputRate:  st.InputRate,
			Role:       st.Role,
			Cutoff:     cfg.Cutoff,
			Transition: cfg.Transition,
			NextRate:   st.OutputRate,
			Window:     cfg.Window,
		})
		if err != nil {
			return nil, fmt.Errorf("stage %d: %w", st.Index, err)
		}

		if st.Role.IsFirst() {
			xl, err := engine.NewFreqXlatingFIR(taps, st.Decimation, cfg.CenterFreq, st.InputRate)
			if err != nil {
				return nil, fmt.Errorf("stage %d: %w", st.Index, err)
			}
			f.first = xl
			f.stages = append(f.stages, xl.FIRDecimator)
			chain = append(chain, xl)
			continue
		}

		fir, err := engine.NewFIRDecimator(taps, st.Decimation)
		if err != nil {
			return nil, fmt.Errorf("stage %d: %w", st.Index, err)
		}
		f.stages = append(f.stages, fir)
		chain = append(chain, fir)
	}

	if plan.NeedsResampler() {
		r, err := engine.NewArbResampler(plan.ResidualRatio())
		if err != nil {
			return nil, fmt.Errorf("resampler: %w", err)
		}
		f.resampler = r
		chain = append(chain, r)
	}

	f.chain = pipeline.NewChain(chain...)
	return f, nil
}

// Process filters a block of input samples.
func (f *Filter) Process(input []complex64) ([]complex64, error) {
	return f.chain.Process(input)
}

// Reset clears all stage history.
func (f *Filter) Reset() {
	f.chain.Reset()
}

// SetCenterFreq retunes the first stage's translation offset. It does not
// rebuild anything and is safe while Process runs on another goroutine.
func (f *Filter) SetCenterFreq(hz float64) {
	f.first.SetCenterFreq(hz)
}

// CenterFreq returns the translation offset in Hz.
func (f *Filter) CenterFreq() float64 {
	return f.first.CenterFreq()
}

// Stages returns the stage plan.
func (f *Filter) Stages() []pipeline.StageSpec {
	return f.plan.Stages
}

// Decimations returns the per-stage decimation factors.
func (f *Filter) Decimations() []int {
	return f.plan.Decimations()
}

// StageTaps returns the taps of stage i.
func (f *Filter) StageTaps(i int) []float64 {
	return f.stages[i].Taps()
}

// ResamplerRatio returns the fractional resampler's ratio and whether the
// cascade has one.
func (f *Filter) ResamplerRatio() (float64, bool) {
	if f.resampler == nil {
		return 0, false
	}
	return f.resampler.Ratio(), true
}

// InputRate returns the input sample rate.
func (f *Filter) InputRate() float64 {
	return f.cfg.InputRate
}

// OutputRate returns the output sample rate.
func (f *Filter) OutputRate() float64 {
	return f.cfg.OutputRate
}

// Latency returns the cascade group delay in input samples.
func (f *Filter) Latency() int {
	return f.chain.GetLatency()
}
