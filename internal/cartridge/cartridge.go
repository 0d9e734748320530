// Package cartridge implements iNES ROM loading and the mapper contract
// every cartridge shape (NROM, UxROM, SxROM/MMC1) satisfies.
package cartridge

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Mapper is the four-operation contract the machine drives a cartridge
// through. A mapper owns its PRG-ROM, CHR-ROM-or-RAM, and any PRG-RAM; the
// machine lends it the 2 KiB nametable RAM on every PPU access so mirroring
// stays the mapper's decision.
type Mapper interface {
	ReadCPU(addr uint16) uint8
	WriteCPU(addr uint16, value uint8)
	ReadPPU(nametables *[0x800]uint8, addr uint16) uint8
	WritePPU(nametables *[0x800]uint8, addr uint16, value uint8)
}

// MirrorMode selects how the mapper folds $2000-$2FFF addresses onto the
// 2 KiB of physical nametable RAM.
type MirrorMode uint8

const (
	MirrorHorizontal MirrorMode = iota
	MirrorVertical
	MirrorOneScreenLo
	MirrorOneScreenHi
)

// mirrorIndex resolves a PPU nametable address to its physical offset in
// the 2 KiB nametable RAM under the given mirroring mode.
func mirrorIndex(mode MirrorMode, addr uint16) int {
	a := addr
	for a >= 0x3000 {
		a -= 0x1000
	}

	var offset int
	switch {
	case a <= 0x23FF:
		offset = int(a) - 0x2000
	case a <= 0x27FF:
		offset = int(a) - 0x2400
	case a <= 0x2BFF:
		offset = int(a) - 0x2800
	case a <= 0x2FFF:
		offset = int(a) - 0x2C00
	default:
		panic(fmt.Sprintf("cartridge: address %04X not in nametable range", addr))
	}

	var base int
	switch mode {
	case MirrorOneScreenLo:
		base = 0
	case MirrorOneScreenHi:
		base = 0x400
	default:
		switch {
		case a <= 0x23FF:
			base = 0
		case a <= 0x27FF:
			if mode == MirrorVertical {
				base = 0x400
			}
		case a <= 0x2BFF:
			if mode == MirrorHorizontal {
				base = 0x400
			}
		default:
			base = 0x400
		}
	}
	return base + offset
}

var inesMagic = [4]uint8{0x4E, 0x45, 0x53, 0x1A}

type inesHeader struct {
	Magic      [4]uint8
	PRGROMSize uint8
	CHRROMSize uint8
	Flags6     uint8
	Flags7     uint8
	PRGRAMSize uint8
	TVSystem1  uint8
	TVSystem2  uint8
	Padding    [5]uint8
}

// romFile is the parsed, mapper-agnostic contents of an iNES file.
type romFile struct {
	mapperID  uint8
	prgROM    []uint8
	chrROM    []uint8 // nil means CHR-RAM
	hasPRGRAM bool
	mirroring MirrorMode
	fourScreen bool
}

// parseRomFile reads and validates an iNES header plus its PRG/CHR payload.
func parseRomFile(r io.Reader) (*romFile, error) {
	var header inesHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("cartridge: reading iNES header: %w", err)
	}

	if header.Magic != inesMagic {
		return nil, errors.New("cartridge: not an iNES file")
	}
	if header.PRGROMSize == 0 {
		return nil, errors.New("cartridge: PRG ROM size cannot be zero")
	}
	if header.Flags6&0x04 != 0 {
		return nil, errors.New("cartridge: trainer-equipped ROMs are not supported")
	}

	fourScreen := header.Flags6&0x08 != 0
	mirroring := MirrorHorizontal
	if header.Flags6&0x01 != 0 {
		mirroring = MirrorVertical
	}

	prgROM := make([]uint8, int(header.PRGROMSize)*16384)
	if _, err := io.ReadFull(r, prgROM); err != nil {
		return nil, fmt.Errorf("cartridge: reading PRG ROM: %w", err)
	}

	var chrROM []uint8
	if header.CHRROMSize > 0 {
		chrROM = make([]uint8, int(header.CHRROMSize)*8192)
		if _, err := io.ReadFull(r, chrROM); err != nil {
			return nil, fmt.Errorf("cartridge: reading CHR ROM: %w", err)
		}
	}

	mapperID := (header.Flags6 >> 4) | (header.Flags7 & 0xF0)

	return &romFile{
		mapperID:   mapperID,
		prgROM:     prgROM,
		chrROM:     chrROM,
		hasPRGRAM:  header.Flags6&0x02 != 0,
		mirroring:  mirroring,
		fourScreen: fourScreen,
	}, nil
}

// New parses an iNES ROM from r and constructs the mapper its header names.
// Mapper selection is a boundary operation: an unsupported mapper number or
// a cartridge shape the mapper can't represent (e.g. four-screen on NROM)
// is returned as an error, never a panic.
func New(r io.Reader) (Mapper, error) {
	rom, err := parseRomFile(r)
	if err != nil {
		return nil, err
	}

	switch rom.mapperID {
	case 0:
		return newNROM(rom)
	case 1:
		return newSxROM(rom)
	case 2:
		return newUxROM(rom)
	default:
		return nil, fmt.Errorf("cartridge: unsupported mapper %d", rom.mapperID)
	}
}

func chrData(rom *romFile, size int) ([]uint8, bool) {
	if rom.chrROM == nil {
		return make([]uint8, size), true
	}
	return rom.chrROM, false
}

func prgRAM(rom *romFile) []uint8 {
	if !rom.hasPRGRAM {
		return nil
	}
	return make([]uint8, 0x2000)
}
