package demod

// Mode identifiers.
const (
	ModeAM  = "AM"
	ModeNFM = "NFM"
	ModeWFM = "WFM"
	ModeUSB = "USB"
	ModeLSB = "LSB"
)

// AM
const (
	amChannelRate   = 16000.0
	amCutoff        = 5000.0
	amTransition    = 1000.0
	amHalfBandwidth = 5000.0
)

// Narrow FM
const (
	nfmChannelRate      = 48000.0
	nfmDefaultDeviation = 5000.0
	nfmAudioBandwidth   = 3000.0 // added to the deviation for the passband
	nfmTransition       = 2000.0
	nfmAudioCorner      = 4000.0 // one-pole audio low-pass, Hz
)

// Broadcast FM
const (
	wfmChannelRate   = 192000.0
	wfmCutoff        = 80000.0
	wfmTransition    = 20000.0
	wfmDeviation     = 75000.0
	wfmHalfBandwidth = 100000.0
	wfmAudioCorner   = 15000.0
)

// Single sideband
const (
	ssbChannelRate    = 8000.0
	ssbSidebandOffset = 1500.0 // center of the 0..3 kHz sideband
	ssbCutoff         = 1500.0
	ssbTransition     = 600.0
	ssbHalfBandwidth  = 3000.0
)

// Squelch levels are in dB of mean channel power. The default sits below
// the power floor, so the squelch starts open.
const defaultSquelchDB = -100.0
