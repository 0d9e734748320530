// Package input implements standard NES controller ports: an 8-bit
// parallel-in/serial-out shift register latched by the CPU's $4016 strobe
// and read back one bit per $4016/$4017 access.
package input

// Buttons is a bitmask of the eight standard-controller buttons, ordered to
// match the order hardware shifts them out in: A, B, Select, Start, Up,
// Down, Left, Right from bit 0 up.
type Buttons uint8

const (
	ButtonA Buttons = 1 << iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
)

// StandardController models one standard controller pad: live button
// state, the strobe line's current level, and the shift register loaded
// from that state on the strobe's high-to-low edge.
type StandardController struct {
	buttons       Buttons
	strobeHigh    bool
	shiftRegister uint8
}

// New returns a controller with no buttons held.
func New() *StandardController {
	return &StandardController{}
}

// SetButtons replaces the live button state. It does not affect a read
// already in progress until the next strobe latches it.
func (c *StandardController) SetButtons(b Buttons) {
	c.buttons = b
}

// LatchChange is called on every edge of the $4016 strobe line. On the
// falling edge it snapshots the live buttons into the shift register,
// masking the two button combinations the physical D-pad cannot produce
// (Up+Down, Left+Right both held) by dropping the later-named button in
// the shift order.
func (c *StandardController) LatchChange(strobeHigh bool) {
	if !strobeHigh && c.strobeHigh {
		b := c.buttons
		if b&ButtonUp != 0 && b&ButtonDown != 0 {
			b &^= ButtonDown
		}
		if b&ButtonLeft != 0 && b&ButtonRight != 0 {
			b &^= ButtonRight
		}
		c.shiftRegister = uint8(b)
	}
	c.strobeHigh = strobeHigh
}

// Read returns the next bit a CPU read of this controller's port should
// see. While the strobe is held high the port continuously reports the A
// button's live state rather than shifting. Once the 8 button bits are
// exhausted, an official pad reports 1 forever.
func (c *StandardController) Read() uint8 {
	if c.strobeHigh {
		return uint8(c.buttons & ButtonA)
	}
	bit := c.shiftRegister & 1
	c.shiftRegister = (c.shiftRegister >> 1) | 0x80
	return bit
}

// Pair wires the two standard controller ports the machine's bus expects:
// port 1 is a real pad, port 2 defaults to not-connected (always reads 0,
// matching hardware with nothing plugged into the second port).
type Pair struct {
	Port1 *StandardController
	Port2 *StandardController
}

// NewPair returns a pair with a pad on port 1 and nothing on port 2.
func NewPair() *Pair {
	return &Pair{Port1: New()}
}

// ControllerLatchChange implements the strobe edge the machine reports,
// broadcasting it to every connected pad.
func (p *Pair) ControllerLatchChange(strobeHigh bool) {
	p.Port1.LatchChange(strobeHigh)
	if p.Port2 != nil {
		p.Port2.LatchChange(strobeHigh)
	}
}

func (p *Pair) ControllerPort1Read() uint8 {
	return p.Port1.Read()
}

func (p *Pair) ControllerPort2Read() uint8 {
	if p.Port2 == nil {
		return 0
	}
	return p.Port2.Read()
}
