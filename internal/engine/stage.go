package engine

import "github.com/tphakala/go-sdr-receiver/internal/pipeline"

var (
	_ pipeline.Stage = (*FIRDecimator)(nil)
	_ pipeline.Stage = (*FreqXlatingFIR)(nil)
	_ pipeline.Stage = (*ArbResampler)(nil)
)
