// Package receiver builds software-defined-radio receivers: a tunable
// oscillator and mixer feeding a demodulator whose channel filter is a
// multistage decimating FIR cascade, followed by stereo audio gain stages and
// a power probe.
//
// # Quick Start
//
// A Receiver runs inside an execution engine, seen through [Context]: a lock
// that keeps streaming out of the graph while it is rewired, plus a
// revalidation hook.
//
//	cfg := receiver.DefaultConfig()
//	cfg.Mode = "NFM"
//	cfg.InputRate = 2_400_000
//	cfg.InputCenterFreq = 145_000_000
//	cfg.RecFreq = 145_500_000
//
//	r, err := receiver.New(cfg, demod.NewRegistry(), engine)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	engine.Lock()
//	left, right, err := r.Process(iq)
//	engine.Unlock()
//
// # Reconfiguration
//
// Tuning, gain and pan are parameter updates that never touch the graph.
// Changing to a mode the current demodulator cannot handle in place, or
// changing the input rate, rebuilds the demodulator:
//
//  1. the current demodulator's settings are captured as a [DemodState];
//  2. a new demodulator is constructed for the mode and the settings are
//     replayed onto it while its [DemodContext] is in replay, so any rebuild
//     it requests is suppressed;
//  3. under the [Context] lock the graph is disconnected and rewired to the
//     new demodulator in one step.
//
// A failed rebuild leaves the previous demodulator connected.
//
// # Concurrency
//
// Control methods are serialized by the receiver. [Receiver.Process] must
// run while the execution engine holds the [Context] lock, which is the same
// lock the rewiring step takes.
package receiver
