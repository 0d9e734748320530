package cartridge

import "fmt"

// uxrom is mapper 2: a bank-switched 16 KiB PRG window at $8000 with the
// last bank fixed at $C000, and CHR-RAM.
type uxrom struct {
	mirroring MirrorMode
	prgROM    []uint8
	bank      uint8
	chr       []uint8
	chrIsRAM  bool
	prgRAM    []uint8
}

func newUxROM(rom *romFile) (*uxrom, error) {
	if rom.fourScreen {
		return nil, fmt.Errorf("cartridge: UxROM cannot use four-screen mirroring")
	}
	banks := len(rom.prgROM) / 16384
	switch banks {
	case 1, 2, 4, 8, 16, 32, 64, 128:
	default:
		return nil, fmt.Errorf("cartridge: badly sized PRG ROM for mapper 2: %d banks", banks)
	}
	if rom.chrROM != nil && len(rom.chrROM) != 8192 {
		return nil, fmt.Errorf("cartridge: badly sized CHR ROM for mapper 2: %d bytes", len(rom.chrROM))
	}

	chr, chrIsRAM := chrData(rom, 8192)

	return &uxrom{
		mirroring: rom.mirroring,
		prgROM:    rom.prgROM,
		chr:       chr,
		chrIsRAM:  chrIsRAM,
		prgRAM:    prgRAM(rom),
	}, nil
}

func (m *uxrom) ReadCPU(addr uint16) uint8 {
	switch {
	case addr >= 0x6000 && addr <= 0x7FFF:
		if m.prgRAM == nil {
			return 0
		}
		return m.prgRAM[addr-0x6000]
	case addr >= 0x8000 && addr <= 0xBFFF:
		off := int(addr-0x8000) + int(m.bank)*16384
		return m.prgROM[off%len(m.prgROM)]
	case addr >= 0xC000:
		lastBank := len(m.prgROM)/16384 - 1
		off := int(addr-0xC000) + lastBank*16384
		return m.prgROM[off%len(m.prgROM)]
	default:
		return 0
	}
}

func (m *uxrom) WriteCPU(addr uint16, value uint8) {
	switch {
	case addr >= 0x6000 && addr <= 0x7FFF:
		if m.prgRAM != nil {
			m.prgRAM[addr-0x6000] = value
		}
	case addr >= 0x8000:
		m.bank = value
	}
}

func (m *uxrom) ReadPPU(nametables *[0x800]uint8, addr uint16) uint8 {
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

func (m *uxrom) WritePPU(nametables *[0x800]uint8, addr uint16, value uint8) {
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
