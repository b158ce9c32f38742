// Package pipeline plans the channel filter cascade: it splits the integer
// part of a rate change into prime decimation stages, tags each stage with
// its role, and chains the resulting streaming stages.
package pipeline

import (
	"fmt"
	"math"

	"github.com/tphakala/go-sdr-receiver/internal/errs"
)

// Stage is a streaming complex-sample block in the cascade.
type Stage interface {
	// Process transforms input samples to output samples. History needed by
	// the next call is kept internally.
	Process(input []complex64) ([]complex64, error)

	// Reset clears internal state.
	Reset()

	// GetRatio returns the stage's rate change (output/input).
	GetRatio() float64

	// GetLatency returns the group delay in input samples.
	GetLatency() int

	// GetFilterLength returns the filter length (0 if not applicable).
	GetFilterLength() int
}

// Role places a stage in the cascade. The first stage also performs
// frequency translation; the last stage realizes the requested passband.
// A single-stage cascade is both first and last.
type Role uint8

const (
	// RoleFirst is the stage fed by the cascade input.
	RoleFirst Role = 1 << iota
	// RoleLast is the stage feeding the cascade output or resampler.
	RoleLast
)

// RoleIntermediate is neither first nor last.
const RoleIntermediate Role = 0

// IsFirst reports whether the stage is fed by the cascade input.
func (r Role) IsFirst() bool { return r&RoleFirst != 0 }

// IsLast reports whether the stage is the final decimating stage.
func (r Role) IsLast() bool { return r&RoleLast != 0 }

// String returns the role name.
func (r Role) String() string {
	switch {
	case r.IsFirst() && r.IsLast():
		return "only"
	case r.IsFirst():
		return "first"
	case r.IsLast():
		return "last"
	default:
		return "intermediate"
	}
}

// StageSpec describes one decimating stage of a plan.
type StageSpec struct {
	Index      int
	Role       Role
	Decimation int
	InputRate  float64 // Hz
	OutputRate float64 // Hz
}

// Plan is the decimation plan for one input/output rate pair.
type Plan struct {
	InputRate  float64
	OutputRate float64
	Stages     []StageSpec
}

// Factorize returns the prime factors of n in non-decreasing order by
// smallest-divisor trial division. Factorize(1) returns an empty slice.
func Factorize(n int) ([]int, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: cannot factorize %d", errs.ErrInvalidArgument, n)
	}

	factors := make([]int, 0, defaultStageCapacity)
	for n > 1 {
		found := false
		for d := smallestFactor; d < n/scanDivisor+1; d++ {
			if n%d == 0 {
				factors = append(factors, d)
				n /= d
				found = true
				break
			}
		}
		if !found {
			factors = append(factors, n)
			break
		}
	}
	return factors, nil
}

// TotalDecimation returns max(1, floor(input/output)).
func TotalDecimation(inputRate, outputRate float64) (int, error) {
	if inputRate <= 0 || outputRate <= 0 || math.IsNaN(inputRate) || math.IsNaN(outputRate) {
		return 0, fmt.Errorf("%w: rates %g -> %g must be positive", errs.ErrInvalidArgument, inputRate, outputRate)
	}
	return max(minDecimation, int(math.Floor(inputRate/outputRate))), nil
}

// Decimations returns the per-stage decimation factors for a total
// decimation, largest first. The result is never empty.
func Decimations(total int) ([]int, error) {
	factors, err := Factorize(total)
	if err != nil {
		return nil, err
	}
	if len(factors) == 0 {
		return []int{minDecimation}, nil
	}

	for i, j := 0, len(factors)-1; i < j; i, j = i+1, j-1 {
		factors[i], factors[j] = factors[j], factors[i]
	}
	return factors, nil
}

// PlanDecimation builds the stage plan for converting inputRate to
// outputRate. When outputRate exceeds inputRate the plan is a single
// decimation-1 stage and the whole rate increase is left to the resampler.
func PlanDecimation(inputRate, outputRate float64) (*Plan, error) {
	total, err := TotalDecimation(inputRate, outputRate)
	if err != nil {
		return nil, err
	}

	decimations, err := Decimations(total)
	if err != nil {
		return nil, err
	}

	p := &Plan{
		InputRate:  inputRate,
		OutputRate: outputRate,
		Stages:     make([]StageSpec, 0, len(decimations)),
	}

	rate := inputRate
	last := len(decimations) - 1
	for i, d := range decimations {
		role := RoleIntermediate
		if i == 0 {
			role |= RoleFirst
		}
		if i == last {
			role |= RoleLast
		}

		next := rate / float64(d)
		p.Stages = append(p.Stages, StageSpec{
			Index:      i,
			Role:       role,
			Decimation: d,
			InputRate:  rate,
			OutputRate: next,
		})
		rate = next
	}

	return p, nil
}

// Decimations returns the per-stage decimation factors.
func (p *Plan) Decimations() []int {
	out := make([]int, len(p.Stages))
	for i, s := range p.Stages {
		out[i] = s.Decimation
	}
	return out
}

// FinalRate returns the output rate of the last decimating stage.
func (p *Plan) FinalRate() float64 {
	return p.Stages[len(p.Stages)-1].OutputRate
}

// NeedsResampler reports whether the stages stop short of the output rate.
// The comparison is exact.
func (p *Plan) NeedsResampler() bool {
	return p.FinalRate() != p.OutputRate
}

// ResidualRatio returns the rate change left for the fractional resampler.
func (p *Plan) ResidualRatio() float64 {
	return p.OutputRate / p.FinalRate()
}

// Chain runs stages in sequence.
type Chain struct {
	stages []Stage
}

// NewChain creates a chain over the given stages.
func NewChain(stages ...Stage) *Chain {
	return &Chain{stages: stages}
}

// Process streams input through every stage.
func (c *Chain) Process(input []complex64) ([]complex64, error) {
	data := input
	for i, s := range c.stages {
		out, err := s.Process(data)
		if err != nil {
			return nil, fmt.Errorf("stage %d: %w", i, err)
		}
		data = out
	}
	return data, nil
}

// Reset clears the state of every stage.
func (c *Chain) Reset() {
	for _, s := range c.stages {
		s.Reset()
	}
}

// Stages returns the chained stages.
func (c *Chain) Stages() []Stage {
	return c.stages
}

// GetRatio returns the combined rate change.
func (c *Chain) GetRatio() float64 {
	ratio := 1.0
	for _, s := range c.stages {
		ratio *= s.GetRatio()
	}
	return ratio
}

// GetLatency returns the combined group delay in chain input samples.
func (c *Chain) GetLatency() int {
	total := 0.0
	cumulativeRatio := 1.0
	for _, s := range c.stages {
		total += float64(s.GetLatency()) / cumulativeRatio
		cumulativeRatio *= s.GetRatio()
	}
	return int(math.Round(total))
}
