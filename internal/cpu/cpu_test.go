package cpu

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// flatBus is a 64KiB RAM-backed Bus used to drive the CPU in isolation,
// the way the original source's test suite pokes instructions directly
// into memory rather than depending on a full machine.
type flatBus struct {
	mem [65536]uint8
}

func (b *flatBus) Read(addr uint16) uint8  { return b.mem[addr] }
func (b *flatBus) Write(addr uint16, v uint8) { b.mem[addr] = v }

func (b *flatBus) loadProgram(addr uint16, bytes ...uint8) {
	for i, v := range bytes {
		b.mem[int(addr)+i] = v
	}
}

func (b *flatBus) setResetVector(addr uint16) {
	b.mem[0xFFFC] = uint8(addr & 0xFF)
	b.mem[0xFFFD] = uint8(addr >> 8)
}

// runReset ticks the CPU through its 7-cycle reset sequence.
func runReset(t *testing.T, c *CPU, bus Bus) {
	t.Helper()
	for i := 0; i < 7; i++ {
		c.Tick(bus)
	}
	require.True(t, c.IsAtInstruction())
}

// runInstruction ticks until the CPU returns to FetchOpcode, used after an
// instruction's opcode has already been fetched by an earlier step.
func runInstruction(t *testing.T, c *CPU, bus Bus) {
	t.Helper()
	c.Tick(bus)
	for !c.IsAtInstruction() {
		c.Tick(bus)
	}
}

func TestResetLoadsVectorAndStackPointer(t *testing.T) {
	bus := &flatBus{}
	bus.setResetVector(0x8000)

	c := New()
	runReset(t, c, bus)

	require.Equal(t, uint16(0x8000), c.PC)
	require.Equal(t, uint8(0xFD), c.SP)
}

func TestLDAImmediateSetsZeroAndNegativeFlags(t *testing.T) {
	bus := &flatBus{}
	bus.setResetVector(0x8000)
	bus.loadProgram(0x8000, 0xA9, 0x00, 0xA9, 0x80)

	c := New()
	runReset(t, c, bus)

	runInstruction(t, c, bus)
	require.Equal(t, uint8(0x00), c.A)
	require.True(t, c.GetFlag(FlagZ))
	require.False(t, c.GetFlag(FlagN))

	runInstruction(t, c, bus)
	require.Equal(t, uint8(0x80), c.A)
	require.False(t, c.GetFlag(FlagZ))
	require.True(t, c.GetFlag(FlagN))
}

func TestADCSetsCarryAndOverflow(t *testing.T) {
	bus := &flatBus{}
	bus.setResetVector(0x8000)
	// LDA #$7F; ADC #$01 -> overflow into negative, no carry
	bus.loadProgram(0x8000, 0xA9, 0x7F, 0x69, 0x01)

	c := New()
	runReset(t, c, bus)
	runInstruction(t, c, bus)
	runInstruction(t, c, bus)

	require.Equal(t, uint8(0x80), c.A)
	require.True(t, c.GetFlag(FlagV))
	require.True(t, c.GetFlag(FlagN))
	require.False(t, c.GetFlag(FlagC))
}

func TestStoreThenLoadRoundTrips(t *testing.T) {
	bus := &flatBus{}
	bus.setResetVector(0x8000)
	// LDA #$42; STA $10; LDX $10
	bus.loadProgram(0x8000, 0xA9, 0x42, 0x85, 0x10, 0xA6, 0x10)

	c := New()
	runReset(t, c, bus)
	runInstruction(t, c, bus)
	runInstruction(t, c, bus)
	runInstruction(t, c, bus)

	require.Equal(t, uint8(0x42), bus.mem[0x10])
	require.Equal(t, uint8(0x42), c.X)
}

func TestBranchTakenAcrossPageBoundaryCostsExtraCycle(t *testing.T) {
	bus := &flatBus{}
	bus.setResetVector(0x80F0)
	// Sits near the end of the page so the forward branch crosses into $8100+
	bus.loadProgram(0x80F0, 0x38)       // SEC
	bus.loadProgram(0x80F1, 0xB0, 0x10) // BCS +16 -> target 0x8103, a different page from PC after operand (0x80F3) -> crosses

	c := New()
	runReset(t, c, bus)
	runInstruction(t, c, bus) // SEC
	startCycles := c.Cycles
	runInstruction(t, c, bus) // BCS, taken
	require.Equal(t, uint16(0x8103), c.PC)
	require.Equal(t, uint64(4), c.Cycles-startCycles)
}

func TestJSRThenRTSRestoresPC(t *testing.T) {
	bus := &flatBus{}
	bus.setResetVector(0x8000)
	bus.loadProgram(0x8000, 0x20, 0x00, 0x90) // JSR $9000
	bus.loadProgram(0x9000, 0x60)             // RTS

	c := New()
	runReset(t, c, bus)
	runInstruction(t, c, bus) // JSR
	require.Equal(t, uint16(0x9000), c.PC)

	runInstruction(t, c, bus) // RTS
	require.Equal(t, uint16(0x8003), c.PC)
}

func TestNMIIsDetectedOneCycleAfterAssertion(t *testing.T) {
	bus := &flatBus{}
	bus.setResetVector(0x8000)
	bus.mem[0xFFFA] = 0x00
	bus.mem[0xFFFB] = 0x90 // NMI vector -> $9000
	bus.loadProgram(0x8000, 0xEA, 0xEA, 0xEA, 0xEA) // NOPs

	c := New()
	runReset(t, c, bus)

	c.SetNMI()
	// The edge isn't visible to FetchOpcode until PollInterrupts arms it.
	c.PollInterrupts()
	runInstruction(t, c, bus)

	require.Equal(t, uint16(0x9000), c.PC)
}

func TestIsWriteCycleTrueDuringStoreExecute(t *testing.T) {
	bus := &flatBus{}
	bus.setResetVector(0x8000)
	bus.loadProgram(0x8000, 0x85, 0x10) // STA $10

	c := New()
	runReset(t, c, bus)

	c.Tick(bus) // fetch opcode
	c.Tick(bus) // fetch zero page address -> ExecuteOnAddress(Write)
	require.True(t, c.IsWriteCycle())
	c.Tick(bus) // performs the write
	require.True(t, c.IsAtInstruction())
}

func TestUndocumentedLAXLoadsBothRegisters(t *testing.T) {
	bus := &flatBus{}
	bus.setResetVector(0x8000)
	bus.mem[0x10] = 0x55
	bus.loadProgram(0x8000, 0xA7, 0x10) // LAX $10 (zero page)

	c := New()
	runReset(t, c, bus)
	runInstruction(t, c, bus)

	require.Equal(t, uint8(0x55), c.A)
	require.Equal(t, uint8(0x55), c.X)
}
