package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testNumPoints = 512

func TestComputeFrequencyResponse(t *testing.T) {
	taps, err := LowPass(1.0, testRate48k, testCutoff5k, testTransition2k, WindowHamming)
	require.NoError(t, err)

	resp := ComputeFrequencyResponse(taps, testRate48k, testNumPoints)

	require.Len(t, resp.Frequencies, testNumPoints+1)
	require.Len(t, resp.Magnitude, testNumPoints+1)
	require.Len(t, resp.Phase, testNumPoints+1)
	assert.InDelta(t, 0.0, resp.Frequencies[0], 1e-12)
	assert.InDelta(t, testRate48k/2, resp.Frequencies[testNumPoints], 1e-9)

	assert.InDelta(t, 1.0, resp.Magnitude[0], dcGainTolerance)

	// The FFT bins must agree with direct evaluation.
	for _, k := range []int{10, 100, 300} {
		direct := MagnitudeAt(taps, resp.Frequencies[k], testRate48k)
		assert.InDelta(t, direct, resp.Magnitude[k], 1e-9, "bin %d", k)
	}

	db := resp.MagnitudeDB()
	require.Len(t, db, len(resp.Magnitude))
	assert.InDelta(t, 0.0, db[0], 1e-6)
}

func TestComputeFrequencyResponse_DefaultPoints(t *testing.T) {
	resp := ComputeFrequencyResponse([]float64{1}, testRate48k, 0)
	assert.Len(t, resp.Magnitude, defaultResponsePoints+1)
	for _, m := range resp.Magnitude {
		assert.InDelta(t, 1.0, m, 1e-12)
	}
}
