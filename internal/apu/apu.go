// Package apu is a placeholder for the NES Audio Processing Unit's register
// range. The machine's bus routes $4000-$4017 (outside the controller and
// OAMDMA ports) here; reads return 0 and writes are discarded, matching the
// behavior of an APU stub in the source this core is grounded on.
package apu

// APU stands in for the audio unit. It holds no state because it performs
// no synthesis; its job is only to make $4000-$4017 reads and writes
// harmless instead of hitting the cartridge or panicking.
type APU struct{}

// New returns a stub APU.
func New() *APU { return &APU{} }

// Read always returns 0, the open-bus value a real APU's write-only
// registers return.
func (a *APU) Read(addr uint16) uint8 { return 0 }

// Write discards the value.
func (a *APU) Write(addr uint16, value uint8) {}
