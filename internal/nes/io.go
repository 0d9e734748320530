package nes

// IO is the capability a host (a windowing frontend, a headless test
// harness, a movie player) provides to the machine: a video sink and the
// two standard controller ports.
type IO interface {
	// SetPixel delivers one decoded pixel of the frame currently being
	// drawn, at (row, col) in the 256x240 picture.
	SetPixel(row, col uint16, r, g, b uint8)

	// ControllerLatchChange is called only on a high-to-low or low-to-high
	// transition of the $4016 strobe bit, never on a repeated write of the
	// same value.
	ControllerLatchChange(strobeHigh bool)

	// ControllerPort1Read and ControllerPort2Read return the next bit (and
	// upper open-bus bits) a CPU read of $4016/$4017 should see.
	ControllerPort1Read() uint8
	ControllerPort2Read() uint8
}

// DummyIO discards video output and reports no buttons pressed. Useful for
// running the machine (e.g. nestest-style automation) without a frontend.
type DummyIO struct{}

func (DummyIO) SetPixel(row, col uint16, r, g, b uint8) {}
func (DummyIO) ControllerLatchChange(strobeHigh bool)   {}
func (DummyIO) ControllerPort1Read() uint8              { return 0 }
func (DummyIO) ControllerPort2Read() uint8              { return 0 }
