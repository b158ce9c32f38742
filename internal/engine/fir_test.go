package engine

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-sdr-receiver/internal/errs"
	"github.com/tphakala/go-sdr-receiver/internal/filter"
	"github.com/tphakala/go-sdr-receiver/internal/testutil"
)

const (
	testRate192k = 192000.0
	testRate48k  = 48000.0
	testCutoff   = 5000.0
	testTW       = 2000.0

	sampleTolerance = 1e-5
	settleSamples   = 512
)

func designTaps(t *testing.T, fs, cutoff, tw float64) []float64 {
	t.Helper()
	taps, err := filter.LowPass(1.0, fs, cutoff, tw, filter.WindowHamming)
	require.NoError(t, err)
	return taps
}

// directFIR is the reference y[n] = Σ h[k]·x[n−k] with zero history.
func directFIR(taps []float64, x []complex64) []complex64 {
	out := make([]complex64, len(x))
	for n := range x {
		var acc complex128
		for k, h := range taps {
			if n-k < 0 {
				break
			}
			acc += complex(h, 0) * complex128(x[n-k])
		}
		out[n] = complex64(acc)
	}
	return out
}

func assertComplexClose(t *testing.T, want, got []complex64, tol float64) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		if !assert.InDelta(t, 0, cmplx.Abs(complex128(want[i]-got[i])), tol, "sample %d", i) {
			return
		}
	}
}

func TestFIRDecimator_ImpulseResponse(t *testing.T) {
	taps := []float64{0.1, 0.2, 0.4, 0.2, 0.1}
	fir, err := NewFIRDecimator(taps, 1)
	require.NoError(t, err)

	impulse := make([]complex64, 8)
	impulse[0] = 1
	out, err := fir.Process(impulse)
	require.NoError(t, err)

	require.Len(t, out, len(impulse))
	for i, h := range taps {
		assert.InDelta(t, h, real(out[i]), sampleTolerance)
	}
	for i := len(taps); i < len(out); i++ {
		assert.InDelta(t, 0, real(out[i]), sampleTolerance)
	}
	assert.InDeltaSlice(t, taps, fir.Taps(), sampleTolerance)
}

func TestFIRDecimator_MatchesDirectAndDecimates(t *testing.T) {
	taps := designTaps(t, testRate192k, testCutoff, testTW)
	input := testutil.ComplexTone(4000, 1000, testRate192k)
	want := directFIR(taps, input)

	for _, decim := range []int{1, 2, 3, 4} {
		fir, err := NewFIRDecimator(taps, decim)
		require.NoError(t, err)

		got, err := fir.Process(input)
		require.NoError(t, err)

		var expected []complex64
		for i := 0; i < len(want); i += decim {
			expected = append(expected, want[i])
		}
		assertComplexClose(t, expected, got, sampleTolerance)
		assert.InDelta(t, 1/float64(decim), fir.GetRatio(), 1e-15)
	}
}

func TestFIRDecimator_ChunkingInvariant(t *testing.T) {
	taps := designTaps(t, testRate192k, testCutoff, testTW)
	input := testutil.ComplexTone(3001, 2500, testRate192k)

	whole, err := NewFIRDecimator(taps, 3)
	require.NoError(t, err)
	want, err := whole.Process(input)
	require.NoError(t, err)

	chunked, err := NewFIRDecimator(taps, 3)
	require.NoError(t, err)
	var got []complex64
	for _, size := range []int{1, 7, 100, 2, 999, 1892} {
		out, err := chunked.Process(input[:size])
		require.NoError(t, err)
		got = append(got, out...)
		input = input[size:]
	}

	assertComplexClose(t, want, got, sampleTolerance)
}

func TestFIRDecimator_FFTPathMatchesDirect(t *testing.T) {
	// 53·192000/(22·1000) ≈ 462 taps, long enough for the FFT path.
	taps := designTaps(t, testRate192k, testCutoff, 1000)
	require.GreaterOrEqual(t, len(taps), minKernelForFFT)

	fir, err := NewFIRDecimator(taps, 1)
	require.NoError(t, err)
	require.True(t, fir.UsesFFT())

	input := testutil.ComplexTone(2500, 3000, testRate192k)
	want := directFIR(taps, input)

	var got []complex64
	for _, chunk := range [][]complex64{input[:700], input[700:1900], input[1900:]} {
		out, err := fir.Process(chunk)
		require.NoError(t, err)
		got = append(got, out...)
	}
	assertComplexClose(t, want, got, 1e-4)
}

func TestFIRDecimator_Reset(t *testing.T) {
	taps := []float64{0.25, 0.5, 0.25}
	fir, err := NewFIRDecimator(taps, 2)
	require.NoError(t, err)

	first, err := fir.Process([]complex64{1, 2, 3, 4, 5})
	require.NoError(t, err)

	fir.Reset()
	second, err := fir.Process([]complex64{1, 2, 3, 4, 5})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFIRDecimator_InvalidArguments(t *testing.T) {
	_, err := NewFIRDecimator(nil, 1)
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)

	_, err = NewFIRDecimator([]float64{1}, 0)
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)

	_, err = NewFreqXlatingFIR([]float64{1}, 1, 0, 0)
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestFIRDecimator_StageMetadata(t *testing.T) {
	taps := designTaps(t, testRate192k, testCutoff, testTW)
	fir, err := NewFIRDecimator(taps, 4)
	require.NoError(t, err)

	assert.Equal(t, len(taps), fir.GetFilterLength())
	assert.Equal(t, (len(taps)-1)/2, fir.GetLatency())
	assert.Equal(t, 4, fir.Decimation())
}

func TestFreqXlatingFIR_TranslatesToBaseband(t *testing.T) {
	const offset = 20000.0
	taps := designTaps(t, testRate192k, testCutoff, testTW)
	xl, err := NewFreqXlatingFIR(taps, 4, offset, testRate192k)
	require.NoError(t, err)

	out, err := xl.Process(testutil.ComplexTone(8192, offset, testRate192k))
	require.NoError(t, err)
	require.Len(t, out, 8192/4)

	steady := out[settleSamples/4:]
	for i, v := range steady {
		if !assert.InDelta(t, 1.0, cmplx.Abs(complex128(v)), 1e-3, "sample %d magnitude", i) {
			break
		}
	}
	// A baseband tone at DC has a constant phase.
	drift := cmplx.Phase(complex128(steady[len(steady)-1]) * cmplx.Conj(complex128(steady[0])))
	assert.InDelta(t, 0, drift, 1e-2)
}

func TestFreqXlatingFIR_RejectsOtherChannels(t *testing.T) {
	taps := designTaps(t, testRate192k, testCutoff, testTW)
	xl, err := NewFreqXlatingFIR(taps, 4, 20000, testRate192k)
	require.NoError(t, err)

	out, err := xl.Process(testutil.ComplexTone(8192, -30000, testRate192k))
	require.NoError(t, err)
	assert.Less(t, testutil.MeanPower(out[settleSamples/4:]), 1e-4)
}

func TestFreqXlatingFIR_Retune(t *testing.T) {
	taps := designTaps(t, testRate192k, testCutoff, testTW)
	xl, err := NewFreqXlatingFIR(taps, 4, 0, testRate192k)
	require.NoError(t, err)

	xl.SetCenterFreq(-30000)
	assert.InDelta(t, -30000.0, xl.CenterFreq(), 0)

	out, err := xl.Process(testutil.ComplexTone(8192, -30000, testRate192k))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, testutil.MeanPower(out[settleSamples/4:]), 1e-2)

	xl.Reset()
	assert.InDelta(t, 0, xl.phase, 0)
}

func TestFFTConvolver_MatchesDirect(t *testing.T) {
	kernel := make([]float64, 450)
	for i := range kernel {
		kernel[i] = math.Sin(float64(i)*0.1) / float64(i+1)
	}
	signal := make([]float64, 3000)
	for i := range signal {
		signal[i] = math.Cos(float64(i) * 0.037)
	}

	conv := NewFFTConvolver(kernel)
	require.NotNil(t, conv)
	assert.Equal(t, len(kernel), conv.KernelLen())

	got := make([]float64, len(signal)-len(kernel)+1)
	conv.Convolve(got, signal)

	for i := range got {
		var want float64
		for k, h := range kernel {
			want += signal[i+k] * h
		}
		if !assert.InDelta(t, want, got[i], 1e-9, "output %d", i) {
			break
		}
	}

	assert.Nil(t, NewFFTConvolver(nil))
}
