package receiver

// Demodulator turns complex baseband centered on the receive frequency into
// stereo audio at the receiver's audio rate.
type Demodulator interface {
	// Process demodulates one block. left and right must not share storage
	// with each other.
	Process(iq []complex64) (left, right []float32, err error)

	// Mode returns the mode the demodulator is running.
	Mode() string

	// CanSetMode reports whether SetMode can switch to mode without a
	// rebuild.
	CanSetMode(mode string) bool

	// SetMode switches mode in place. It must not request a rebuild.
	SetMode(mode string) error

	// HalfBandwidth is the one-sided RF bandwidth the demodulator needs, in Hz.
	HalfBandwidth() float64

	// State captures the demodulator's settings.
	State() DemodState

	// ApplyState replays settings. Fields the demodulator has no setting for
	// are ignored. Values it cannot take are skipped and reported with
	// ErrStateReplayMismatch; the rest are still applied.
	ApplyState(s DemodState) error

	// Reset clears streaming history.
	Reset()
}

// Context is the execution engine as seen by a Receiver.
type Context interface {
	// Lock stops streaming so the graph can be rewired.
	Lock()
	Unlock()

	// Revalidate tells the engine the receiver's validity may have changed.
	Revalidate()
}

// DemodContext is a demodulator's handle to its receiver.
type DemodContext interface {
	// RebuildMe asks the receiver to rebuild the demodulator in its current
	// mode, for settings fixed at construction.
	RebuildMe() error

	Lock()
	Unlock()
	Revalidate()
}
