package receiver

// Audio controls
const (
	minAudioGain = 0.001
	maxAudioGain = 100.0
	minAudioPan  = -1.0
	maxAudioPan  = 1.0

	defaultAudioGain = 0.25
	defaultAudioPan  = 0.0
)

// Rates
const (
	defaultAudioRate = 48000
	defaultInputRate = 2400000
	defaultMode      = "AM"
)

// The audio power probe averages over about a tenth of a second.
const probeAlphaNumerator = 10.0

// Oscillator amplitude
const oscillatorAmplitude = 1.0

// Stereo output ports
const (
	leftChannel  = 0
	rightChannel = 1
)
