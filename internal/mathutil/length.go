package mathutil

import "math"

// KaiserLength estimates the Kaiser-windowed FIR length reaching attenuation
// (dB) with a transition width tw at sample rate fs. The result is odd.
func KaiserLength(attenuation, fs, tw float64) int {
	if fs <= 0 || tw <= 0 {
		return minFilterLength
	}
	n := (attenuation - kaiserLengthOffset) / (kaiserLengthMultiplier * tw / fs)
	return oddBounded(int(math.Ceil(n)) + 1)
}

// HammingLength estimates the Hamming-windowed FIR length for a transition
// width tw at sample rate fs (about 53 dB of stopband attenuation).
func HammingLength(fs, tw float64) int {
	return windowLength(hammingTapFactor, fs, tw)
}

// BlackmanLength estimates the Blackman-windowed FIR length for a transition
// width tw at sample rate fs (about 74 dB of stopband attenuation).
func BlackmanLength(fs, tw float64) int {
	return windowLength(blackmanTapFactor, fs, tw)
}

func windowLength(factor, fs, tw float64) int {
	if fs <= 0 || tw <= 0 {
		return minFilterLength
	}
	return oddBounded(int(factor * fs / (tapDivisor * tw)))
}

// oddBounded rounds n up to the next odd value and clamps it to the supported range.
func oddBounded(n int) int {
	if n%2 == 0 {
		n++
	}
	if n < minFilterLength {
		n = minFilterLength
	}
	if n > maxFilterLength {
		n = maxFilterLength
	}
	return n
}
