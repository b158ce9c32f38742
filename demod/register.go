// Package demod provides the built-in demodulators: AM, narrowband FM,
// broadcast FM and single sideband.
package demod

import receiver "github.com/tphakala/go-sdr-receiver"

// Modes lists the built-in modes.
var Modes = []receiver.ModeDef{
	{Mode: ModeAM, Label: "AM", New: NewAM, Available: true},
	{Mode: ModeNFM, Label: "Narrow FM", New: NewNFM, Available: true},
	{Mode: ModeWFM, Label: "Broadcast FM", New: NewWFM, Available: true},
	{Mode: ModeUSB, Label: "USB", New: NewSSB, Available: true},
	{Mode: ModeLSB, Label: "LSB", New: NewSSB, Available: true},
}

// Register adds the built-in modes to reg.
func Register(reg *receiver.Registry) error {
	return reg.Register(Modes...)
}

// NewRegistry returns a registry holding the built-in modes.
func NewRegistry() *receiver.Registry {
	reg := receiver.NewRegistry()
	if err := Register(reg); err != nil {
		// Modes holds distinct identifiers with constructors.
		panic(err)
	}
	return reg
}
