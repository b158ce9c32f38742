package engine

import (
	"github.com/tphakala/simd/c128"
	"github.com/tphakala/simd/f64"
	"gonum.org/v1/gonum/dsp/fourier"
)

// FFTConvolver computes the valid correlation of a signal with a fixed
// kernel by overlap-save, for kernels too long for direct dot products.
//
// Each FFT block of fftSize samples yields fftSize-kernelLen+1 valid
// outputs; the first kernelLen-1 samples of every inverse transform are
// circular wrap and are discarded.
type FFTConvolver struct {
	fft       *fourier.FFT
	fftSize   int
	blockSize int

	kernelFFT []complex128
	kernelLen int
	scale     float64 // gonum's inverse transform is unnormalized

	block    []float64
	spectrum []complex128
	product  []complex128
	inverse  []float64
}

// NewFFTConvolver transforms kernel once for reuse. It returns nil for an
// empty kernel.
func NewFFTConvolver(kernel []float64) *FFTConvolver {
	kernelLen := len(kernel)
	if kernelLen == 0 {
		return nil
	}

	fftSize := defaultFFTBlockSize
	for fftSize < 2*kernelLen {
		fftSize *= 2
	}

	fft := fourier.NewFFT(fftSize)

	// Circular convolution with the time-reversed kernel is correlation
	// with the kernel itself.
	reversed := make([]float64, fftSize)
	for i := range kernelLen {
		reversed[i] = kernel[kernelLen-1-i]
	}

	bins := fftSize/fftHermitianDivisor + 1
	return &FFTConvolver{
		fft:       fft,
		fftSize:   fftSize,
		blockSize: fftSize - kernelLen + 1,
		kernelFFT: fft.Coefficients(nil, reversed),
		kernelLen: kernelLen,
		scale:     1.0 / float64(fftSize),
		block:     make([]float64, fftSize),
		spectrum:  make([]complex128, bins),
		product:   make([]complex128, bins),
		inverse:   make([]float64, fftSize),
	}
}

// KernelLen returns the kernel length.
func (c *FFTConvolver) KernelLen() int {
	return c.kernelLen
}

// Convolve writes dst[i] = Σ_k signal[i+k]·kernel[k] for every i where the
// kernel fits inside signal. dst must hold len(signal)-kernelLen+1 values.
func (c *FFTConvolver) Convolve(dst, signal []float64) {
	outputLen := len(signal) - c.kernelLen + 1
	if outputLen <= 0 || len(dst) < outputLen {
		return
	}

	overlap := c.kernelLen - 1
	for outIdx := 0; outIdx < outputLen; {
		clear(c.block)
		end := min(outIdx+c.fftSize, len(signal))
		copy(c.block, signal[outIdx:end])

		c.spectrum = c.fft.Coefficients(c.spectrum, c.block)
		c128.Mul(c.product, c.spectrum, c.kernelFFT)
		c.inverse = c.fft.Sequence(c.inverse, c.product)
		f64.Scale(c.inverse, c.inverse, c.scale)

		valid := min(c.blockSize, outputLen-outIdx)
		copy(dst[outIdx:outIdx+valid], c.inverse[overlap:overlap+valid])
		outIdx += valid
	}
}
