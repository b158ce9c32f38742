// Package simdops dispatches the vector kernels used by the streaming
// primitives to github.com/tphakala/simd for float32 and float64 planes.
package simdops

import (
	"github.com/tphakala/simd/cpu"
	"github.com/tphakala/simd/f32"
	"github.com/tphakala/simd/f64"
)

// Float is the type constraint for supported sample planes.
type Float interface {
	float32 | float64
}

// Ops is a table of SIMD kernels for element type F.
type Ops[F Float] struct {
	// DotProductUnsafe computes Σ a[i]·b[i]; the slices must have equal length.
	DotProductUnsafe func(a, b []F) F

	// ConvolveValid writes the valid correlation of signal with kernel into dst
	// (len(dst) >= len(signal)-len(kernel)+1).
	ConvolveValid func(dst, signal, kernel []F)

	// Sum returns the sum of all elements.
	Sum func(a []F) F

	// Scale computes dst[i] = a[i] · s.
	Scale func(dst, a []F, s F)
}

var (
	ops32 = Ops[float32]{
		DotProductUnsafe: f32.DotProductUnsafe,
		ConvolveValid:    f32.ConvolveValid,
		Sum:              f32.Sum,
		Scale:            f32.Scale,
	}
	ops64 = Ops[float64]{
		DotProductUnsafe: f64.DotProductUnsafe,
		ConvolveValid:    f64.ConvolveValid,
		Sum:              f64.Sum,
		Scale:            f64.Scale,
	}
)

// For returns the kernel table for F. The type switch runs once per caller,
// never in a sample loop.
func For[F Float]() *Ops[F] {
	var zero F
	switch any(zero).(type) {
	case float32:
		if ops, ok := any(&ops32).(*Ops[F]); ok {
			return ops
		}
	case float64:
		if ops, ok := any(&ops64).(*Ops[F]); ok {
			return ops
		}
	}
	panic("simdops: unsupported float type")
}

// Info describes the instruction set the kernels dispatch to.
func Info() string {
	return cpu.Info()
}
