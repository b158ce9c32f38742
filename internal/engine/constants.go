package engine

// FFT convolution
const (
	// Kernels at least this long run through the overlap-save convolver on
	// decimation-1 stages. Below it the SIMD dot product is faster.
	minKernelForFFT = 400

	// Smallest FFT block (power of 2).
	defaultFFTBlockSize = 512

	// A real FFT of size N has N/2 + 1 unique complex coefficients.
	fftHermitianDivisor = 2
)

// Group delay of a symmetric FIR is (N-1)/2 samples.
const latencyDivisor = 2

// Oscillator phase wraps at 2π.
const twoPi = 6.283185307179586

// Demodulation
const (
	// DC blocker pole; cutoff ≈ (1-pole)·fs/2π.
	defaultDCBlockPole = 0.995

	// FM de-emphasis time constant in seconds.
	DeemphasisTau = 75e-6
)
