package receiver

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// CurrentStateVersion is the DemodState layout written by this package.
const CurrentStateVersion = 1

// DemodState is the user-visible configuration of a demodulator, captured
// before a rebuild and replayed onto its replacement. Nil fields are unset
// and leave the demodulator's default in place.
//
// A demodulator ignores fields it has no setting for, so state survives a
// change to a mode that lacks some of them.
type DemodState struct {
	Version int `yaml:"version,omitempty"`

	// Squelch is the channel power threshold in dB below which audio is muted.
	Squelch *float64 `yaml:"squelch,omitempty"`

	// Deviation is the FM peak deviation in Hz.
	Deviation *float64 `yaml:"deviation,omitempty"`

	// AudioFilter enables the broadcast FM audio low-pass. It is fixed at
	// construction; changing it rebuilds the demodulator.
	AudioFilter *bool `yaml:"audio_filter,omitempty"`
}

// Float returns a pointer to v, for filling DemodState fields.
func Float(v float64) *float64 { return &v }

// Bool returns a pointer to v, for filling DemodState fields.
func Bool(v bool) *bool { return &v }

// Merge returns base with every field set in overlay taken from overlay.
func Merge(base, overlay DemodState) DemodState {
	out := base
	out.Version = max(base.Version, overlay.Version)
	if overlay.Squelch != nil {
		out.Squelch = Float(*overlay.Squelch)
	}
	if overlay.Deviation != nil {
		out.Deviation = Float(*overlay.Deviation)
	}
	if overlay.AudioFilter != nil {
		out.AudioFilter = Bool(*overlay.AudioFilter)
	}
	return out
}

// Migrate upgrades the state to CurrentStateVersion. Unversioned state is
// treated as version 1; newer versions are rejected.
func (s DemodState) Migrate() (DemodState, error) {
	switch {
	case s.Version < 0:
		return DemodState{}, fmt.Errorf("%w: negative state version %d", ErrStateReplayMismatch, s.Version)
	case s.Version > CurrentStateVersion:
		return DemodState{}, fmt.Errorf("%w: state version %d is newer than %d",
			ErrStateReplayMismatch, s.Version, CurrentStateVersion)
	}
	s.Version = CurrentStateVersion
	return s, nil
}

// InitOnly returns the fields a demodulator needs at construction time.
func (s DemodState) InitOnly() DemodState {
	return DemodState{Version: s.Version, AudioFilter: s.AudioFilter}
}

// IsZero reports whether no setting is present.
func (s DemodState) IsZero() bool {
	return s.Squelch == nil && s.Deviation == nil && s.AudioFilter == nil
}

// MarshalState encodes state as YAML.
func MarshalState(s DemodState) ([]byte, error) {
	return yaml.Marshal(s)
}

// UnmarshalState decodes YAML state. Unknown keys are dropped.
func UnmarshalState(data []byte) (DemodState, error) {
	var s DemodState
	if err := yaml.Unmarshal(data, &s); err != nil {
		return DemodState{}, fmt.Errorf("%w: %w", ErrStateReplayMismatch, err)
	}
	return s, nil
}
