package nes

import (
	"bytes"
	"testing"

	"github.com/cordite/nespipe/internal/cartridge"
	"github.com/stretchr/testify/require"
)

type stubIO struct {
	latchChanges []bool
	port1        uint8
	port2        uint8
}

func (s *stubIO) SetPixel(row, col uint16, r, g, b uint8) {}
func (s *stubIO) ControllerLatchChange(strobeHigh bool) {
	s.latchChanges = append(s.latchChanges, strobeHigh)
}
func (s *stubIO) ControllerPort1Read() uint8 { return s.port1 }
func (s *stubIO) ControllerPort2Read() uint8 { return s.port2 }

func nromCartridge(t *testing.T) cartridge.Mapper {
	t.Helper()
	var buf bytes.Buffer
	buf.Write([]byte{0x4E, 0x45, 0x53, 0x1A, 1, 1, 0, 0})
	buf.Write(make([]byte, 8))
	prg := make([]byte, 16384)
	for i := range prg {
		prg[i] = uint8(i)
	}
	// Reset vector $F000 points at JMP $F000, so a running CPU idles there.
	prg[0x3FFC], prg[0x3FFD] = 0x00, 0xF0
	copy(prg[0x3000:], []byte{0x4C, 0x00, 0xF0})
	buf.Write(prg)
	buf.Write(make([]byte, 8192))

	m, err := cartridge.New(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	return m
}

func TestRAMReadWriteMirrorsFourTimes(t *testing.T) {
	m := New(&stubIO{})

	m.Write(0x0042, 0x99)
	require.Equal(t, uint8(0x99), m.Read(0x0842))
	require.Equal(t, uint8(0x99), m.Read(0x1042))
	require.Equal(t, uint8(0x99), m.Read(0x1842))
}

func TestControllerLatchChangeFiresOnlyOnTransition(t *testing.T) {
	io := &stubIO{}
	m := New(io)

	m.Write(0x4016, 1)
	m.Write(0x4016, 1) // repeated high: no callback
	m.Write(0x4016, 0)
	m.Write(0x4016, 0) // repeated low: no callback

	require.Equal(t, []bool{true, false}, io.latchChanges)
}

func TestControllerPortReadsDelegateToIO(t *testing.T) {
	io := &stubIO{port1: 0x41, port2: 0x40}
	m := New(io)

	require.Equal(t, uint8(0x41), m.Read(0x4016))
	require.Equal(t, uint8(0x40), m.Read(0x4017))
}

func TestOAMDMATriggerStealsBusUntilTransferCompletes(t *testing.T) {
	m := New(&stubIO{})
	m.InsertCartridge(nromCartridge(t))
	m.Reset()

	for i := 0; i < 256; i++ {
		m.ram[0x0300+i] = uint8(i)
	}

	m.Write(0x4014, 0x03)
	require.True(t, m.DMA.Active())

	for i := 0; i < 2000 && m.DMA.Active(); i++ {
		m.Tick()
	}
	require.False(t, m.DMA.Active())
	m.PPU.RegWrite(m, 3, 255) // OAMADDR
	require.Equal(t, uint8(255), m.PPU.RegRead(m, 4)) // OAMDATA
}

func TestCartridgeIsReachableThroughCPUAddressSpace(t *testing.T) {
	m := New(&stubIO{})
	m.InsertCartridge(nromCartridge(t))

	require.Equal(t, uint8(0), m.Read(0x8000))
	require.Equal(t, uint8(1), m.Read(0x8001))
	require.Equal(t, m.Read(0x8000), m.Read(0xC000))
}

func TestAccessingUnimplementedAPURegionReturnsZero(t *testing.T) {
	m := New(&stubIO{})
	require.Equal(t, uint8(0), m.Read(0x4000))
	require.NotPanics(t, func() { m.Write(0x4000, 0xFF) })
}

func TestNoCartridgePanicsOnAccess(t *testing.T) {
	m := New(&stubIO{})
	require.Panics(t, func() { m.Read(0x8000) })
}

func TestStepCPUInstructionAdvancesAtLeastOneCycleAndReachesAnInstructionBoundary(t *testing.T) {
	m := New(&stubIO{})
	m.InsertCartridge(nromCartridge(t))
	m.Reset()

	ticks := m.StepCPUInstruction()
	require.Greater(t, ticks, 0)
	require.True(t, m.CPU.IsAtInstruction())
}

func TestStepFrameReachesFrameEnd(t *testing.T) {
	m := New(&stubIO{})
	m.InsertCartridge(nromCartridge(t))
	m.Reset()

	ticks := m.StepFrame()
	require.Greater(t, ticks, 0)
	require.True(t, m.PPU.IsAtFrameEnd())
}
