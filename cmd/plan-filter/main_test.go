package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/tphakala/go-sdr-receiver/internal/channel"
	"github.com/tphakala/go-sdr-receiver/internal/errs"
	"github.com/tphakala/go-sdr-receiver/internal/filter"
)

const (
	passbandEdgeTolerance = 0.5   // dB
	hammingStopband       = -45.0 // dB, with margin
	dcGainTolerance       = 1e-6  // stage taps are stored as float32
)

func TestBuildReport(t *testing.T) {
	tests := []struct {
		name            string
		cfg             channel.Config
		wantDecimations []int
		wantResampler   bool
	}{
		{
			name:            "nfm from 2.4 MHz",
			cfg:             channel.Config{InputRate: 2400000, OutputRate: 48000, Cutoff: 8000, Transition: 2000},
			wantDecimations: []int{5, 5, 2},
		},
		{
			name:            "wfm from 1 MHz",
			cfg:             channel.Config{InputRate: 1000000, OutputRate: 192000, Cutoff: 80000, Transition: 20000},
			wantDecimations: []int{5},
			wantResampler:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := buildReport(tt.cfg)
			require.NoError(t, err)

			assert.Equal(t, tt.wantDecimations, r.Decimations)
			assert.Equal(t, tt.wantResampler, r.ResamplerRatio != 0)
			require.Len(t, r.Stages, len(tt.wantDecimations))
			assert.NotEmpty(t, r.SIMD)

			for _, s := range r.Stages {
				assert.Equal(t, 1, s.Taps%2, "stage %d taps", s.Index)
				assert.InDelta(t, 1, s.DCGain, dcGainTolerance)
				assert.Greater(t, s.PassbandDB, -passbandEdgeTolerance, "stage %d", s.Index)
				assert.Less(t, s.StopbandDB, hammingStopband, "stage %d", s.Index)
			}
			last := r.Stages[len(r.Stages)-1]
			assert.Equal(t, tt.cfg.Cutoff, last.Cutoff)
			assert.Equal(t, tt.cfg.Transition, last.Transition)
		})
	}
}

func TestBuildReport_Infeasible(t *testing.T) {
	// 96 kHz to 8 kHz plans [3 2 2]; the middle stage outputs 16 kHz, whose
	// 8 kHz Nyquist limit equals the 8 kHz inner passband edge.
	_, err := buildReport(channel.Config{InputRate: 96000, OutputRate: 8000, Cutoff: 9000, Transition: 2000})
	require.ErrorIs(t, err, errs.ErrInfeasibleFilterPlan)

	_, err = buildReport(channel.Config{InputRate: 192000, OutputRate: 48000, Cutoff: 20000, Transition: 10000})
	require.NoError(t, err, "inner edge 15 kHz stays below the 48 kHz intermediate limit")
}

func TestRun_Formats(t *testing.T) {
	var text bytes.Buffer
	require.NoError(t, run([]string{"--input-rate", "192000", "--output-rate", "48000", "--cutoff", "5000", "--transition", "2000"}, &text))
	assert.Contains(t, text.String(), "Decimations: [2 2]")
	assert.Contains(t, text.String(), "Stage 1 (last)")

	var out bytes.Buffer
	require.NoError(t, run([]string{
		"--input-rate", "192000", "--output-rate", "48000",
		"--cutoff", "5000", "--transition", "2000",
		"--window", "blackman", "--format", "yaml",
	}, &out))

	var r planReport
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &r))
	assert.Equal(t, filter.WindowBlackman.String(), r.Window)
	assert.Equal(t, []int{2, 2}, r.Decimations)

	require.Error(t, run([]string{"--format", "xml"}, &out))
	require.ErrorIs(t, run([]string{"--window", "triangle"}, &out), errs.ErrInvalidArgument)
}
