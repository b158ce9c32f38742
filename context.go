package receiver

import (
	"fmt"
	"sync/atomic"
)

type facetState int32

const (
	facetReplaying facetState = iota
	facetActive
	facetRetired
)

func (s facetState) String() string {
	switch s {
	case facetReplaying:
		return "replaying"
	case facetActive:
		return "active"
	case facetRetired:
		return "retired"
	default:
		return fmt.Sprintf("facetState(%d)", int32(s))
	}
}

// demodContext is the DemodContext a Receiver hands to each demodulator it
// builds. It starts in replay, so rebuild requests raised while saved
// settings are applied are dropped, becomes active once the demodulator is
// wired in, and is retired when the demodulator is replaced.
type demodContext struct {
	r     *Receiver
	mode  string
	state atomic.Int32
}

func newDemodContext(r *Receiver, mode string) *demodContext {
	return &demodContext{r: r, mode: mode}
}

func (c *demodContext) current() facetState {
	return facetState(c.state.Load())
}

func (c *demodContext) enable() { c.state.Store(int32(facetActive)) }
func (c *demodContext) retire() { c.state.Store(int32(facetRetired)) }

func (c *demodContext) RebuildMe() error {
	switch c.current() {
	case facetReplaying:
		Logger().Debug("rebuild request during state replay suppressed", "mode", c.mode)
		return nil
	case facetRetired:
		return fmt.Errorf("%w: %s demodulator was replaced", ErrFacetDisabled, c.mode)
	}
	return c.r.rebuildFor(c)
}

func (c *demodContext) Lock()   { c.r.ctx.Lock() }
func (c *demodContext) Unlock() { c.r.ctx.Unlock() }

func (c *demodContext) Revalidate() {
	if c.current() == facetActive {
		c.r.ctx.Revalidate()
	}
}
