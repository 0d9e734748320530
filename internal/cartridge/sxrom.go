package cartridge

import "fmt"

const mmc1LoadRegInitial uint8 = 0b10000

// sxrom is mapper 1 (MMC1): a 5-bit serial shift register loaded one bit
// per CPU write (reset by any write with bit 7 set), applying to one of
// four internal registers on the fifth shift. Implements the common SNROM
// shape: 8 KiB CHR banked as one 8 KiB page or two 4 KiB pages, PRG banked
// as 32 KiB or as a fixed-plus-switched 16 KiB pair, runtime-selectable
// mirroring including the one-screen modes.
type sxrom struct {
	prgROM []uint8
	prgRAM []uint8
	chr    []uint8
	chrIsRAM bool

	loadReg   uint8
	control   uint8
	chrBank0  uint8
	chrBank1  uint8
	prgBank   uint8
}

func newSxROM(rom *romFile) (*sxrom, error) {
	prgBanks := len(rom.prgROM) / 16384
	switch prgBanks {
	case 2, 4, 8, 16, 32:
	default:
		return nil, fmt.Errorf("cartridge: badly sized PRG ROM for mapper 1: %d banks", prgBanks)
	}
	if rom.chrROM != nil {
		chrBanks := len(rom.chrROM) / 8192
		switch chrBanks {
		case 1, 2, 4, 8, 16:
		default:
			return nil, fmt.Errorf("cartridge: badly sized CHR ROM for mapper 1: %d banks", chrBanks)
		}
	}

	chr, chrIsRAM := chrData(rom, 0x2000)

	return &sxrom{
		prgROM:   rom.prgROM,
		prgRAM:   prgRAM(rom),
		chr:      chr,
		chrIsRAM: chrIsRAM,
		loadReg:  mmc1LoadRegInitial,
		control:  0b01100,
	}, nil
}

func (m *sxrom) mirrorMode() MirrorMode {
	switch m.control & 0b11 {
	case 0:
		return MirrorOneScreenLo
	case 1:
		return MirrorOneScreenHi
	case 2:
		return MirrorVertical
	default:
		return MirrorHorizontal
	}
}

func (m *sxrom) mappedCHRAddr(addr uint16) int {
	chrSize := len(m.chr)
	if m.control&0x10 == 0x10 {
		if addr < 0x1000 {
			return (int(m.chrBank0)*0x1000)%chrSize + int(addr)
		}
		return (int(m.chrBank1)*0x1000)%chrSize + int(addr-0x1000)
	}
	return (int(m.chrBank0&^1)*0x2000)%chrSize + int(addr)
}

func (m *sxrom) ReadCPU(addr uint16) uint8 {
	switch {
	case addr <= 0x5FFF:
		panic(fmt.Sprintf("cartridge: bad CPU read to cartridge space %04X", addr))
	case addr <= 0x7FFF:
		if m.prgRAM == nil {
			return 0
		}
		return m.prgRAM[addr-0x6000]
	default:
		controlH := m.control&8 == 8
		controlL := m.control&4 == 4
		bank := m.prgBank

		var selectedBank uint8
		var offset uint16
		switch {
		case controlH && controlL:
			if addr < 0xC000 {
				selectedBank, offset = bank, addr-0x8000
			} else {
				selectedBank, offset = 31, addr-0xC000
			}
		case controlH && !controlL:
			if addr < 0xC000 {
				selectedBank, offset = 0, addr-0x8000
			} else {
				selectedBank, offset = bank, addr-0xC000
			}
		default:
			selectedBank, offset = bank&0b11110, addr-0x8000
		}

		index := (int(selectedBank) << 14) | int(offset)
		return m.prgROM[index%len(m.prgROM)]
	}
}

func (m *sxrom) WriteCPU(addr uint16, value uint8) {
	switch {
	case addr <= 0x5FFF:
		panic(fmt.Sprintf("cartridge: bad CPU write to cartridge space %04X", addr))
	case addr <= 0x7FFF:
		if m.prgRAM != nil {
			m.prgRAM[addr-0x6000] = value
		}
	default:
		if value&0x80 == 0x80 {
			m.loadReg = mmc1LoadRegInitial
			return
		}

		old := m.loadReg
		next := (old >> 1) | ((value & 1) << 4)

		if old&1 == 1 {
			m.loadReg = mmc1LoadRegInitial
			switch {
			case addr <= 0x9FFF:
				m.control = next
			case addr <= 0xBFFF:
				m.chrBank0 = next
			case addr <= 0xDFFF:
				m.chrBank1 = next
			default:
				m.prgBank = next
			}
		} else {
			m.loadReg = next
		}
	}
}

func (m *sxrom) ReadPPU(nametables *[0x800]uint8, addr uint16) uint8 {
	switch {
	case addr <= 0x1FFF:
		return m.chr[m.mappedCHRAddr(addr)]
	case addr <= 0x3FFF:
		return nametables[mirrorIndex(m.mirrorMode(), addr)]
	default:
		panic(fmt.Sprintf("cartridge: invalid PPU read address %04X", addr))
	}
}

func (m *sxrom) WritePPU(nametables *[0x800]uint8, addr uint16, value uint8) {
	switch {
	case addr <= 0x1FFF:
		if m.chrIsRAM {
			m.chr[m.mappedCHRAddr(addr)] = value
		}
	case addr <= 0x3FFF:
		nametables[mirrorIndex(m.mirrorMode(), addr)] = value
	default:
		panic(fmt.Sprintf("cartridge: invalid PPU write address %04X", addr))
	}
}
