package ppu

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// stubBus is a minimal Bus backed by flat VRAM, used to drive the PPU in
// isolation the way a cartridge-free unit test would.
type stubBus struct {
	vram        [0x4000]uint8
	nmiTriggers int
	nmiSuppress int
	pixels      int
}

func (b *stubBus) PPURead(addr uint16) uint8         { return b.vram[addr%0x4000] }
func (b *stubBus) PPUWrite(addr uint16, value uint8) { b.vram[addr%0x4000] = value }
func (b *stubBus) TriggerNMI()                       { b.nmiTriggers++ }
func (b *stubBus) SuppressNMI()                      { b.nmiSuppress++ }
func (b *stubBus) SetPixel(row, col uint16, r, g, b2 uint8) { b.pixels++ }

func tickN(p *PPU, bus Bus, n int) {
	for i := 0; i < n; i++ {
		p.Tick(bus)
	}
}

func TestPPUADDRTwoWriteSequenceSetsV(t *testing.T) {
	bus := &stubBus{}
	p := New()

	p.RegWrite(bus, 6, 0x21)
	p.RegWrite(bus, 6, 0x08)

	require.Equal(t, uint16(0x2108), p.addrV)
}

func TestPPUDATAWriteIncrementsByOneByDefault(t *testing.T) {
	bus := &stubBus{}
	p := New()

	p.RegWrite(bus, 6, 0x20)
	p.RegWrite(bus, 6, 0x00)
	p.RegWrite(bus, 7, 0x42)

	require.Equal(t, uint8(0x42), bus.vram[0x2000])
	require.Equal(t, uint16(0x2001), p.addrV)
}

func TestPPUDATAWriteIncrementsBy32WhenCtrlSet(t *testing.T) {
	bus := &stubBus{}
	p := New()

	p.RegWrite(bus, 0, ctrlVRAMInc)
	p.RegWrite(bus, 6, 0x20)
	p.RegWrite(bus, 6, 0x00)
	p.RegWrite(bus, 7, 0x01)

	require.Equal(t, uint16(0x2020), p.addrV)
}

func TestPalettePairsMirrorBackdropEntries(t *testing.T) {
	bus := &stubBus{}
	p := New()

	p.RegWrite(bus, 6, 0x3F)
	p.RegWrite(bus, 6, 0x00)
	p.RegWrite(bus, 7, 0x16)

	require.Equal(t, uint8(0x16), p.cgram[cgramMirrorIdx(0x10)])
}

func TestPPUSTATUSReadClearsVBlankAndWriteToggle(t *testing.T) {
	bus := &stubBus{}
	p := New()
	p.latchW = true
	p.status |= statusVBlank

	v := p.RegRead(bus, 2)
	require.True(t, v&statusVBlank != 0)
	require.False(t, p.latchW)

	require.True(t, p.clearVBlank)
}

func TestOAMDATAByte2MaskedOnRead(t *testing.T) {
	bus := &stubBus{}
	p := New()
	p.oam[2] = 0xFF
	p.oamAddr = 2

	v := p.RegRead(bus, 4)
	require.Equal(t, uint8(0xE3), v)
}

func TestVBlankSetsAtScanline241Dot1AndTriggersNMI(t *testing.T) {
	bus := &stubBus{}
	p := New()
	p.RegWrite(bus, 0, ctrlNMI)
	p.scanline = 241
	p.dot = 1

	p.Tick(bus)

	require.Equal(t, uint16(241), p.scanline)
	require.Equal(t, uint16(2), p.dot)
	require.True(t, p.status&statusVBlank != 0)
	require.Equal(t, 1, bus.nmiTriggers)
}

func TestOddFrameSkipAdvancesDotAnExtraStepAtPreRender(t *testing.T) {
	bus := &stubBus{}
	p := New()
	p.mask = maskShowBG
	p.oddFrame = true
	p.scanline = 261
	p.dot = 338

	p.Tick(bus)
	require.True(t, p.performSkip)

	p.Tick(bus)
	require.Equal(t, uint16(0), p.scanline)
	require.Equal(t, uint16(0), p.dot)
}

func TestFrameAdvancesOneFullCycleOfDotsAndScanlines(t *testing.T) {
	bus := &stubBus{}
	p := New()

	startScanline, startDot := p.scanline, p.dot
	tickN(p, bus, 341*262)

	require.Equal(t, startScanline, p.scanline)
	require.Equal(t, startDot, p.dot)
}

func TestSpriteOverflowFlagSetsWhenNineSpritesOnScanline(t *testing.T) {
	bus := &stubBus{}
	p := New()
	p.mask = maskShowSprites

	for i := 0; i < 9; i++ {
		base := i * 4
		p.oam[base] = 10 // y in range for scanline 10
		p.oam[base+1] = 0
		p.oam[base+2] = 0
		p.oam[base+3] = 0
	}

	p.scanline = 10
	tickN(p, bus, 256)

	require.True(t, p.status&statusSpriteOverflow != 0)
}
