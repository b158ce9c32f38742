package engine

import (
	"math"
	"sync/atomic"
)

// atomicFloat is a float64 that can be written by the control path while a
// streaming block reads it.
type atomicFloat struct {
	bits atomic.Uint64
}

func newAtomicFloat(v float64) *atomicFloat {
	a := &atomicFloat{}
	a.Store(v)
	return a
}

func (a *atomicFloat) Load() float64 {
	return math.Float64frombits(a.bits.Load())
}

func (a *atomicFloat) Store(v float64) {
	a.bits.Store(math.Float64bits(v))
}
