package input

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func strobe(c *StandardController, high bool) { c.LatchChange(high) }

func TestReadSequenceMatchesStandardButtonOrder(t *testing.T) {
	c := New()
	c.SetButtons(ButtonA | ButtonStart | ButtonRight)

	strobe(c, true)
	strobe(c, false)

	expected := []uint8{1, 0, 0, 1, 0, 0, 0, 1} // A,B,Select,Start,Up,Down,Left,Right
	for i, want := range expected {
		require.Equal(t, want, c.Read(), "bit %d", i)
	}
}

func TestReadReturnsOnesAfterEighthBitOnOfficialPad(t *testing.T) {
	c := New()
	c.SetButtons(ButtonA)
	strobe(c, true)
	strobe(c, false)

	for i := 0; i < 8; i++ {
		c.Read()
	}
	for i := 0; i < 5; i++ {
		require.Equal(t, uint8(1), c.Read())
	}
}

func TestHeldStrobeAlwaysReportsLiveAButtonState(t *testing.T) {
	c := New()
	strobe(c, true)

	require.Equal(t, uint8(0), c.Read())
	c.SetButtons(ButtonA)
	require.Equal(t, uint8(1), c.Read())
	require.Equal(t, uint8(1), c.Read(), "strobe held high never advances the shift register")
}

func TestImpossibleUpDownComboDropsDown(t *testing.T) {
	c := New()
	c.SetButtons(ButtonUp | ButtonDown)
	strobe(c, true)
	strobe(c, false)

	for i := 0; i < 4; i++ {
		c.Read() // A,B,Select,Start
	}
	require.Equal(t, uint8(1), c.Read(), "Up")
	require.Equal(t, uint8(0), c.Read(), "Down masked out")
}

func TestImpossibleLeftRightComboDropsRight(t *testing.T) {
	c := New()
	c.SetButtons(ButtonLeft | ButtonRight)
	strobe(c, true)
	strobe(c, false)

	for i := 0; i < 6; i++ {
		c.Read() // A,B,Select,Start,Up,Down
	}
	require.Equal(t, uint8(1), c.Read(), "Left")
	require.Equal(t, uint8(0), c.Read(), "Right masked out")
}

func TestRepeatedStrobeLevelDoesNotResetAnInFlightRead(t *testing.T) {
	c := New()
	c.SetButtons(ButtonA | ButtonB)
	strobe(c, true)
	strobe(c, false)

	first := c.Read()
	c.SetButtons(0)  // a re-latch here would load all zeros
	strobe(c, false) // repeated low edge: no-op, caller (Machine) would not even call this
	second := c.Read()

	require.Equal(t, uint8(1), first)
	require.Equal(t, uint8(1), second)
}

func TestPairPort2DefaultsToNotConnected(t *testing.T) {
	p := NewPair()
	p.Port1.SetButtons(ButtonA)
	p.ControllerLatchChange(true)
	p.ControllerLatchChange(false)

	require.Equal(t, uint8(1), p.ControllerPort1Read())
	require.Equal(t, uint8(0), p.ControllerPort2Read())
}
