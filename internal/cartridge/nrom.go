package cartridge

import "fmt"

// nrom is mapper 0: fixed 16 KiB (mirrored) or 32 KiB PRG-ROM, fixed
// CHR-ROM or CHR-RAM, no bank switching.
type nrom struct {
	mirroring    MirrorMode
	prgROM       []uint8
	chr          []uint8
	chrIsRAM     bool
	prgRAM       []uint8
	mirrorPRGROM bool
}

func newNROM(rom *romFile) (*nrom, error) {
	if rom.fourScreen {
		return nil, fmt.Errorf("cartridge: NROM cannot use four-screen mirroring")
	}
	if len(rom.prgROM) != 16384 && len(rom.prgROM) != 32768 {
		return nil, fmt.Errorf("cartridge: badly sized PRG ROM for mapper 0: %d bytes", len(rom.prgROM))
	}
	if rom.chrROM != nil && len(rom.chrROM) != 8192 {
		return nil, fmt.Errorf("cartridge: badly sized CHR ROM for mapper 0: %d bytes", len(rom.chrROM))
	}

	chr, chrIsRAM := chrData(rom, 8192)

	return &nrom{
		mirroring:    rom.mirroring,
		prgROM:       rom.prgROM,
		chr:          chr,
		chrIsRAM:     chrIsRAM,
		prgRAM:       prgRAM(rom),
		mirrorPRGROM: len(rom.prgROM) == 16384,
	}, nil
}

func (m *nrom) ReadCPU(addr uint16) uint8 {
	switch {
	case addr >= 0x6000 && addr <= 0x7FFF:
		if m.prgRAM == nil {
			return 0
		}
		return m.prgRAM[addr-0x6000]
	case addr >= 0x8000:
		off := addr - 0x8000
		if m.mirrorPRGROM {
			off %= 0x4000
		}
		return m.prgROM[off]
	default:
		return 0
	}
}

func (m *nrom) WriteCPU(addr uint16, value uint8) {
	if addr >= 0x6000 && addr <= 0x7FFF && m.prgRAM != nil {
		m.prgRAM[addr-0x6000] = value
	}
}

func (m *nrom) ReadPPU(nametables *[0x800]uint8, addr uint16) uint8 {
	a := addr % 0x4000
	switch {
	case a <= 0x1FFF:
		return m.chr[a]
	case a <= 0x3FFF:
		return nametables[mirrorIndex(m.mirroring, a)]
	default:
		panic(fmt.Sprintf("cartridge: invalid PPU read address %04X", addr))
	}
}

func (m *nrom) WritePPU(nametables *[0x800]uint8, addr uint16, value uint8) {
	a := addr % 0x4000
	switch {
	case a <= 0x1FFF:
		if m.chrIsRAM {
			m.chr[a] = value
		}
	case a <= 0x3FFF:
		nametables[mirrorIndex(m.mirroring, a)] = value
	default:
		panic(fmt.Sprintf("cartridge: invalid PPU write address %04X", addr))
	}
}
