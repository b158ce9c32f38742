// Package errs holds the sentinel errors shared by the internal DSP packages.
// The root package re-exports them so callers never import this package.
package errs

import "errors"

var (
	// ErrInvalidArgument indicates a non-positive rate, ratio or filter parameter.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInfeasibleFilterPlan indicates that an intermediate cascade stage cannot
	// pass the requested passband below the next stage's Nyquist limit.
	ErrInfeasibleFilterPlan = errors.New("infeasible filter plan")

	// ErrUnknownMode indicates a mode identifier absent from the registry.
	ErrUnknownMode = errors.New("unknown mode")

	// ErrStateReplayMismatch indicates serialized demodulator state that does not
	// fit the demodulator it is replayed onto.
	ErrStateReplayMismatch = errors.New("state replay mismatch")

	// ErrInvalidConfig indicates invalid receiver configuration.
	ErrInvalidConfig = errors.New("invalid receiver configuration")

	// ErrFacetDisabled indicates a demodulator context used outside its enabled window.
	ErrFacetDisabled = errors.New("demodulator context disabled")
)
