package receiver

import (
	"errors"

	"github.com/tphakala/go-sdr-receiver/internal/errs"
)

// Error types.
var (
	// ErrInvalidArgument indicates a non-positive rate or ratio, or another
	// argument outside its domain.
	ErrInvalidArgument = errs.ErrInvalidArgument

	// ErrInfeasibleFilterPlan indicates the requested passband cannot survive
	// decimation to an intermediate stage's Nyquist limit.
	ErrInfeasibleFilterPlan = errs.ErrInfeasibleFilterPlan

	// ErrUnknownMode indicates a mode absent from the registry.
	ErrUnknownMode = errs.ErrUnknownMode

	// ErrStateReplayMismatch indicates saved settings that cannot be applied
	// to a demodulator. Receivers recover by keeping defaults.
	ErrStateReplayMismatch = errs.ErrStateReplayMismatch

	// ErrInvalidConfig indicates an invalid receiver configuration.
	ErrInvalidConfig = errs.ErrInvalidConfig

	// ErrFacetDisabled indicates a request through the context of a
	// demodulator that has been replaced.
	ErrFacetDisabled = errs.ErrFacetDisabled

	// ErrNotConnected indicates processing was attempted on a receiver whose
	// graph is not fully wired.
	ErrNotConnected = errors.New("receiver graph not connected")
)
