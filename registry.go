package receiver

import (
	"fmt"
	"slices"
	"sync"
)

// DemodParams are the construction arguments of a demodulator.
type DemodParams struct {
	// Mode is the mode being built.
	Mode string

	// InputRate is the complex baseband rate fed to the demodulator, which is
	// the receiver's input rate.
	InputRate float64

	// AudioRate is the rate of both audio outputs.
	AudioRate float64

	// Context is the demodulator's handle back to its receiver.
	Context DemodContext

	// Init holds the settings that can only be applied at construction.
	Init DemodState
}

// Constructor builds a demodulator.
type Constructor func(p DemodParams) (Demodulator, error)

// ModeDef describes one selectable mode.
type ModeDef struct {
	Mode      string
	Label     string
	New       Constructor
	Available bool
}

// Registry maps mode identifiers to demodulator constructors.
type Registry struct {
	mu   sync.RWMutex
	defs []ModeDef
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds mode definitions. A duplicate mode, an empty mode or a
// missing constructor is rejected and nothing is added.
func (r *Registry) Register(defs ...ModeDef) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, def := range defs {
		if def.Mode == "" {
			return fmt.Errorf("%w: mode identifier is empty", ErrInvalidArgument)
		}
		if def.New == nil {
			return fmt.Errorf("%w: mode %q has no constructor", ErrInvalidArgument, def.Mode)
		}
		dup := func(d ModeDef) bool { return d.Mode == def.Mode }
		if slices.ContainsFunc(r.defs, dup) || slices.ContainsFunc(defs[:i], dup) {
			return fmt.Errorf("%w: mode %q registered twice", ErrInvalidArgument, def.Mode)
		}
	}
	r.defs = append(r.defs, defs...)
	return nil
}

// Lookup returns the available definition for mode.
func (r *Registry) Lookup(mode string) (ModeDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, def := range r.defs {
		if def.Mode == mode && def.Available {
			return def, true
		}
	}
	return ModeDef{}, false
}

// Available returns the available definitions in registration order.
func (r *Registry) Available() []ModeDef {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ModeDef, 0, len(r.defs))
	for _, def := range r.defs {
		if def.Available {
			out = append(out, def)
		}
	}
	return out
}

// Modes returns the available mode identifiers in registration order.
func (r *Registry) Modes() []string {
	defs := r.Available()
	modes := make([]string, len(defs))
	for i, def := range defs {
		modes[i] = def.Mode
	}
	return modes
}
