// Package ppu implements a cycle-accurate (per-dot) NES 2C02 picture
// processing unit: background and sprite pipelines, scroll register
// formulas, the sprite-overflow hardware bug, and VBlank/NMI timing
// including its suppression windows.
package ppu

const (
	ctrlBase0          uint8 = 0x01
	ctrlBase1          uint8 = 0x02
	ctrlVRAMInc        uint8 = 0x04
	ctrlSpriteBank1000 uint8 = 0x08
	ctrlBGTableAddress uint8 = 0x10
	ctrlLargeSprites   uint8 = 0x20
	ctrlMasterSlave    uint8 = 0x40
	ctrlNMI            uint8 = 0x80
)

const (
	maskGreyscale      uint8 = 0x01
	maskBGLeftmost     uint8 = 0x02
	maskSpriteLeftmost uint8 = 0x04
	maskShowBG         uint8 = 0x08
	maskShowSprites    uint8 = 0x10
	maskEmphRed        uint8 = 0x20
	maskEmphGreen      uint8 = 0x40
	maskEmphBlue       uint8 = 0x80
)

const (
	statusSpriteOverflow uint8 = 0x20
	statusSprite0Hit     uint8 = 0x40
	statusVBlank         uint8 = 0x80
)

const (
	attrPaletteLow     uint8 = 0x01
	attrPaletteHigh    uint8 = 0x02
	attrPriorityBehind uint8 = 0x20
	attrFlipHoriz      uint8 = 0x40
	attrFlipVert       uint8 = 0x80
)

// Bus is the set of host callbacks the PPU needs: VRAM access routed through
// the cartridge's mirroring, the two NMI edges, and the pixel sink.
type Bus interface {
	PPURead(addr uint16) uint8
	PPUWrite(addr uint16, value uint8)
	TriggerNMI()
	SuppressNMI()
	SetPixel(row, col uint16, r, g, b uint8)
}

type spriteToRender struct {
	x           uint8
	lowPattern  uint8
	highPattern uint8
	attributes  uint8
}

// PPU holds all internal PPU state: palette and OAM RAM, the scanline/dot
// position, the external register latches, the v/t/x/w scroll registers,
// the background fetch pipeline's latches and shift registers, and the
// sprite evaluation/rendering state for the current scanline.
type PPU struct {
	cgram        [32]uint8
	oam          [256]uint8
	secondaryOAM [32]uint8

	scanline uint16
	dot      uint16
	oddFrame bool

	ctrl       uint8
	mask       uint8
	status     uint8
	oamAddr    uint8
	readBuffer uint8
	lastRead   uint8

	clearVBlank bool

	addrV  uint16
	addrT  uint16
	fineX  uint8
	latchW bool

	fetchAddr             uint16
	fetchedNametable      uint8
	fetchedAttributeTable uint8
	fetchedBGPatternLow   uint8
	fetchedBGPatternHigh  uint8
	atLatchL              uint8
	atLatchH              uint8

	bgHighShift uint16
	bgLowShift  uint16
	atShiftL    uint8
	atShiftH    uint8

	secondaryOAMAddr       uint8
	oamValueLatch          uint8
	spriteInRange          bool
	spriteEvaluationDone   bool
	spriteZeroNextScanline bool

	sprites                   [8]spriteToRender
	spriteZeroCurrentScanline bool
	numSprites                int

	performSkip bool
}

// New returns a PPU with all state zeroed, matching power-on.
func New() *PPU {
	return &PPU{}
}

// Reset clears PPUCTRL/PPUMASK and returns to dot 0 of scanline 0. The
// odd-frame latch's reset behavior is disputed on real hardware; this
// implementation clears it to false, the same choice the source takes.
func (p *PPU) Reset() {
	p.ctrl = 0
	p.mask = 0
	p.scanline = 0
	p.dot = 0
	p.oddFrame = false
}

// IsAtFrameEnd reports whether the PPU just finished producing a frame.
func (p *PPU) IsAtFrameEnd() bool {
	return p.dot == 1 && p.scanline == 241
}

func (p *PPU) isRendering() bool {
	return p.mask&maskShowBG != 0 || p.mask&maskShowSprites != 0
}

func (p *PPU) isRenderingScanline() bool {
	return p.scanline < 240 || p.scanline == 261
}

// RegWrite handles a CPU write to $2000-$2007 (reg already reduced mod 8).
func (p *PPU) RegWrite(bus Bus, reg uint8, value uint8) {
	p.lastRead = value
	switch reg {
	case 0:
		oldCtrl := p.ctrl
		newCtrl := value
		p.ctrl = newCtrl

		if oldCtrl&ctrlNMI == 0 && newCtrl&ctrlNMI != 0 &&
			p.status&statusVBlank != 0 &&
			!(p.scanline == 261 && p.dot == 1) {
			bus.TriggerNMI()
		}

		if oldCtrl&ctrlNMI != 0 && newCtrl&ctrlNMI == 0 &&
			p.scanline == 241 && (p.dot == 2 || p.dot == 3) {
			bus.SuppressNMI()
		}

		// t: ...BA.. ........ = d: ......BA
		p.addrT = (p.addrT & 0b1110011_11111111) | ((uint16(value) & 0b11) << 10)
	case 1:
		p.mask = value
	case 3:
		p.oamAddr = value
	case 4:
		if !(p.isRendering() && p.isRenderingScanline()) {
			p.oam[p.oamAddr] = value
			p.oamAddr++
		}
	case 5:
		if p.latchW {
			// t: CBA..HG FED..... = d: HGFEDCBA
			cba := (uint16(value) & 0b111) << 12
			hgfed := (uint16(value) &^ 0b111) << 2
			p.addrT = (p.addrT & 0b1100_00011111) | cba | hgfed
			p.latchW = false
		} else {
			// t: ....... ...HGFED = d: HGFED...
			p.addrT = (p.addrT &^ 0b11111) | (uint16(value) >> 3)
			p.fineX = value & 0b111
			p.latchW = true
		}
	case 6:
		if p.latchW {
			// t: ....... HGFEDCBA = d: HGFEDCBA
			p.addrT = (p.addrT &^ 0xFF) | uint16(value)
			p.addrV = p.addrT
			p.latchW = false
		} else {
			// t: .FEDCBA ........ = d: ..FEDCBA; t: X...... ........ = 0
			p.addrT = (p.addrT & 0xFF) | ((uint16(value) & 0b111111) << 8)
			p.latchW = true
		}
	case 7:
		v := p.addrV
		incr := uint16(1)
		if p.ctrl&ctrlVRAMInc != 0 {
			incr = 32
		}
		p.write(bus, v, value)
		p.addrV = (v + incr) % (1 << 15)
	}
}

// RegRead handles a CPU read of $2000-$2007 (reg already reduced mod 8).
func (p *PPU) RegRead(bus Bus, reg uint8) uint8 {
	switch reg {
	case 2:
		n := (p.lastRead & 0x1F) | p.status
		p.clearVBlank = true
		if p.scanline == 241 && (p.dot == 2 || p.dot == 3) {
			bus.SuppressNMI()
		}
		p.latchW = false
		p.lastRead = n
	case 4:
		addr := p.oamAddr
		v := p.oam[addr]
		// The three unimplemented bits of sprite byte 2 always read back as
		// 0 on PPU revisions that expose OAM through OAMDATA.
		if addr&0b11 == 2 {
			v &= 0xE3
		}
		p.lastRead = v
	case 7:
		v := p.addrV % 0x4000
		var n uint8
		if v < 0x3F00 {
			n = p.readBuffer
		} else {
			n = p.read(bus, v)
		}

		// The read buffer always latches from the underlying nametable
		// mirror, even for palette reads.
		p.readBuffer = bus.PPURead(v)

		incr := uint16(1)
		if p.ctrl&ctrlVRAMInc != 0 {
			incr = 32
		}
		p.addrV = (v + incr) % (1 << 15)
		p.lastRead = n
	}
	return p.lastRead
}

func (p *PPU) read(bus Bus, addr uint16) uint8 {
	a := addr % 0x4000
	switch {
	case a <= 0x3EFF:
		return bus.PPURead(a)
	case a <= 0x3FFF:
		idx := (a - 0x3F00) % 32
		v := p.cgram[cgramMirrorIdx(idx)]
		if p.mask&maskGreyscale != 0 {
			return v & 0x30
		}
		return v
	default:
		panic("ppu: read address out of range")
	}
}

func (p *PPU) write(bus Bus, addr uint16, value uint8) {
	a := addr % 0x4000
	switch {
	case a <= 0x3EFF:
		bus.PPUWrite(a, value)
	case a <= 0x3FFF:
		idx := (a - 0x3F00) % 32
		p.cgram[cgramMirrorIdx(idx)] = value
	default:
		panic("ppu: write address out of range")
	}
}

// cgramMirrorIdx folds the sprite-backdrop mirrors ($3F10/$14/$18/$1C) onto
// their background counterparts; failing to do so is the classic
// "black sky in Super Mario Bros." bug.
func cgramMirrorIdx(idx uint16) uint16 {
	switch idx {
	case 0x10, 0x14, 0x18, 0x1C:
		return idx - 0x10
	default:
		return idx
	}
}

func (p *PPU) getSpriteSize() uint16 {
	if p.ctrl&ctrlLargeSprites != 0 {
		return 16
	}
	return 8
}

// pixel emits the color for the current dot (if visible) and shifts the
// background registers. The documented pixel is output two dots after the
// fetch that feeds it; sprite-0 hit is evaluated here too.
func (p *PPU) pixel(bus Bus) {
	x := int32(p.dot) - 2

	if p.scanline < 240 && x >= 0 && x < 256 {
		ux := uint16(x)
		var bgPalette uint16
		if p.mask&maskShowBG != 0 && !(p.mask&maskBGLeftmost == 0 && ux < 8) {
			fx := p.fineX
			pattern := (((p.bgHighShift >> (15 - uint16(fx))) & 1) << 1) |
				((p.bgLowShift >> (15 - uint16(fx))) & 1)
			if pattern == 0 {
				bgPalette = 0
			} else {
				at := ((((p.atShiftH >> (7 - fx)) & 1) << 1) | ((p.atShiftL >> (7 - fx)) & 1))
				bgPalette = pattern | (uint16(at) << 2)
			}
		}

		var fgPalette uint16
		priorityBehind := true
		if p.scanline >= 1 && p.mask&maskShowSprites != 0 &&
			!(p.mask&maskSpriteLeftmost == 0 && ux < 8) {
			for i := p.numSprites - 1; i >= 0; i-- {
				spriteX := uint16(p.sprites[i].x)
				if spriteX <= ux && ux < spriteX+8 {
					offset := uint8(ux - spriteX)
					attr := p.sprites[i].attributes
					if attr&attrFlipHoriz != 0 {
						offset = 7 - offset
					}
					hs := p.sprites[i].highPattern
					ls := p.sprites[i].lowPattern
					spritePalette := uint16(((hs>>(7-offset))&1)<<1 | ((ls >> (7 - offset)) & 1))

					if spritePalette != 0 {
						if p.spriteZeroCurrentScanline && ux != 255 && bgPalette != 0 && i == 0 {
							p.status |= statusSprite0Hit
						}

						fgPalette = (uint16(attr)&3)<<2 | spritePalette
						fgPalette += 16
						priorityBehind = attr&attrPriorityBehind != 0
					}
				}
			}
		}

		var paletteIndex uint16
		if fgPalette != 0 && (bgPalette == 0 || !priorityBehind) {
			paletteIndex = fgPalette
		} else {
			paletteIndex = bgPalette
		}
		r, g, b := getRGB(p.read(bus, 0x3F00+paletteIndex))
		bus.SetPixel(p.scanline, ux, r, g, b)
	}

	p.bgLowShift <<= 1
	p.bgHighShift <<= 1
	p.atShiftL = (p.atShiftL << 1) | p.atLatchL
	p.atShiftH = (p.atShiftH << 1) | p.atLatchH
}

// Tick advances the PPU by exactly one dot: sprite evaluation/loading (on
// visible scanlines), background fetch and rendering, VBlank/NMI edges, and
// the dot/scanline/frame counters including the odd-frame skip.
func (p *PPU) Tick(bus Bus) {
	if p.isRendering() && p.dot == 257 {
		p.numSprites = 0
	}
	if p.isRendering() && p.scanline <= 239 {
		switch {
		case p.dot >= 1 && p.dot <= 256:
			p.performSpriteEvaluation()
		case p.dot >= 257 && p.dot <= 320:
			s := p.dot - 257
			spriteNo := int(s / 8)

			switch s % 8 {
			case 0, 1, 2, 3:
				// garbage nametable fetches; not modeled
			case 4:
				base := spriteNo * 4
				y := p.secondaryOAM[base]
				tileIndex := p.secondaryOAM[base+1]
				attributes := p.secondaryOAM[base+2]
				x := p.secondaryOAM[base+3]

				var addr uint16
				if p.getSpriteSize() == 16 {
					bank := uint16(0x0000)
					if tileIndex&1 == 1 {
						bank = 0x1000
					}
					tileno := (uint16(tileIndex) &^ 1) * 16
					addr = bank + tileno
				} else {
					base := uint16(0x0000)
					if p.ctrl&ctrlSpriteBank1000 != 0 {
						base = 0x1000
					}
					addr = base + uint16(tileIndex)*16
				}

				if y < 240 {
					yOffset := (p.scanline - uint16(y)) % p.getSpriteSize()
					if attributes&attrFlipVert != 0 {
						yOffset = p.getSpriteSize() - yOffset - 1
					}

					if yOffset > 8 {
						p.fetchAddr = addr + 16 + (yOffset - 8)
					} else {
						p.fetchAddr = addr + yOffset
					}

					p.sprites[spriteNo].x = x
					p.sprites[spriteNo].attributes = attributes

					p.numSprites = spriteNo + 1
				}
			case 5:
				p.sprites[spriteNo].lowPattern = p.read(bus, p.fetchAddr)
			case 6:
				p.fetchAddr += 8
			default:
				p.sprites[spriteNo].highPattern = p.read(bus, p.fetchAddr)
			}
		case p.dot == 321:
			p.spriteZeroCurrentScanline = p.spriteZeroNextScanline
		}
	}

	switch {
	case p.scanline <= 239 || p.scanline == 261:
		if p.scanline == 261 && p.dot == 0 {
			p.status &^= statusSpriteOverflow
		}
		if p.scanline == 261 && p.dot == 1 {
			p.status &^= statusVBlank | statusSprite0Hit
		}

		switch {
		case p.dot == 1 || p.dot == 321:
			p.fetchAddr = p.ntAddr()
		case (p.dot >= 2 && p.dot <= 255) || (p.dot >= 321 && p.dot <= 337):
			p.pixel(bus)
			switch p.dot % 8 {
			case 1:
				p.fetchAddr = p.ntAddr()
				p.reloadBGShift()
			case 2:
				p.fetchedNametable = p.read(bus, p.fetchAddr)
			case 3:
				p.fetchAddr = p.atAddr()
			case 4:
				at := p.read(bus, p.fetchAddr)
				v := p.addrV
				if v&0x40 == 0x40 {
					at >>= 4
				}
				if v&0x2 == 0x2 {
					at >>= 2
				}
				p.fetchedAttributeTable = at
			case 5:
				p.fetchAddr = p.bgAddr()
			case 6:
				p.fetchedBGPatternLow = p.read(bus, p.fetchAddr)
			case 7:
				p.fetchAddr += 8
			default:
				p.fetchedBGPatternHigh = p.read(bus, p.fetchAddr)
				p.hScroll()
			}
		case p.dot == 256:
			p.pixel(bus)
			p.fetchedBGPatternHigh = p.read(bus, p.fetchAddr)
			p.vScroll()
		case p.dot == 257:
			p.pixel(bus)
			p.reloadBGShift()
			p.hUpdate()
		case p.scanline == 261 && p.dot >= 280 && p.dot <= 304:
			p.vUpdate()
		case p.dot == 338 || p.dot == 340:
			p.read(bus, p.fetchAddr)
		}

		if p.isRendering() && p.dot >= 257 && p.dot <= 320 {
			p.oamAddr = 0
		}

		if p.scanline == 261 && p.dot == 338 && p.isRendering() && p.oddFrame {
			p.performSkip = true
		}
		if p.scanline == 261 && p.dot == 339 && p.performSkip {
			p.dot++
			p.performSkip = false
		}
	case p.scanline == 241:
		if p.dot == 1 && !p.clearVBlank {
			p.status |= statusVBlank
			if p.ctrl&ctrlNMI != 0 {
				bus.TriggerNMI()
			}
		}
	}

	if p.clearVBlank {
		p.status &^= statusVBlank
		p.clearVBlank = false
	}

	dot := p.dot + 1
	if dot > 340 {
		p.dot = dot % 341
		scanline := p.scanline + 1
		if scanline > 261 {
			p.scanline = scanline % 262
			p.oddFrame = !p.oddFrame
		} else {
			p.scanline = scanline
		}
	} else {
		p.dot = dot
	}
}

func (p *PPU) reloadBGShift() {
	p.bgLowShift = (p.bgLowShift & 0xFF00) | uint16(p.fetchedBGPatternLow)
	p.bgHighShift = (p.bgHighShift & 0xFF00) | uint16(p.fetchedBGPatternHigh)

	at := p.fetchedAttributeTable
	p.atLatchL = at & 1
	p.atLatchH = (at & 2) >> 1
}

func (p *PPU) ntAddr() uint16 {
	return 0x2000 | (p.addrV & 0xFFF)
}

func (p *PPU) atAddr() uint16 {
	v := p.addrV
	return 0x23C0 | (v & 0x0C00) | ((v >> 4) & 0x38) | ((v >> 2) & 0x07)
}

func (p *PPU) bgAddr() uint16 {
	base := uint16(0)
	if p.ctrl&ctrlBGTableAddress != 0 {
		base = 0x1000
	}
	return base + uint16(p.fetchedNametable)*16 + ((p.addrV & 0x7000) >> 12)
}

// hScroll is inc-hori(v): coarse-X increment with nametable wraparound.
func (p *PPU) hScroll() {
	if !p.isRendering() {
		return
	}
	v := p.addrV
	if v&0x001F == 31 {
		v &^= 0x001F
		v ^= 0x0400
	} else {
		v++
	}
	p.addrV = v
}

// vScroll is inc-vert(v): fine-Y increment with coarse-Y wraparound,
// including the 240-vs-256-row nametable-flip special case at y=29.
func (p *PPU) vScroll() {
	if !p.isRendering() {
		return
	}

	v := p.addrV

	if v&0x7000 != 0x7000 {
		v += 0x1000
	} else {
		v &^= 0x7000
		y := (v & 0x03E0) >> 5
		switch y {
		case 29:
			y = 0
			v ^= 0x0800
		case 31:
			y = 0
		default:
			y++
		}
		v = (v &^ 0x03E0) | (y << 5)
	}

	p.addrV = v
}

// hUpdate is hori(v) = hori(t).
func (p *PPU) hUpdate() {
	if !p.isRendering() {
		return
	}
	p.addrV = (p.addrV &^ 0x041F) | (p.addrT & 0x41F)
}

// vUpdate is vert(v) = vert(t).
func (p *PPU) vUpdate() {
	if !p.isRendering() {
		return
	}
	p.addrV = (p.addrV &^ 0x7BE0) | (p.addrT & 0x7BE0)
}

// performSpriteEvaluation reproduces the NESdev sprite-evaluation state
// machine, including the documented hardware bug where, once secondary OAM
// is full, each out-of-range sprite increments both n and m without carry
// while the overflow search goes on; setting the overflow flag ends the
// evaluation.
func (p *PPU) performSpriteEvaluation() {
	dot := p.dot
	switch {
	case dot == 0:
	case dot < 65:
		p.secondaryOAM[(dot-1)/2] = 0xFF
	case dot == 65:
		p.secondaryOAMAddr = 0
		p.spriteInRange = false
		p.spriteEvaluationDone = false
		p.oamValueLatch = p.oam[p.oamAddr]
	case dot <= 256:
		if dot%2 == 1 {
			p.oamValueLatch = p.oam[p.oamAddr]
			return
		}

		secondaryOAMAddr := p.secondaryOAMAddr
		spriteInRange := p.spriteInRange
		n := (p.oamAddr >> 2) & 0x3F
		m := p.oamAddr & 0b11
		value := p.oamValueLatch

		if p.spriteEvaluationDone {
			n++
		} else {
			scanline := p.scanline
			if !spriteInRange && scanline >= uint16(value) && scanline < uint16(value)+p.getSpriteSize() {
				spriteInRange = true
			}

			if dot == 66 {
				p.spriteZeroNextScanline = spriteInRange
			}

			if secondaryOAMAddr < 0x20 {
				p.secondaryOAM[secondaryOAMAddr] = value

				if spriteInRange {
					m++
					secondaryOAMAddr++

					if m == 4 {
						spriteInRange = false
						m = 0
						n = (n + 1) % 64
						if n == 0 {
							p.spriteEvaluationDone = true
						}
					}
				} else {
					n = (n + 1) % 64
					if n == 0 {
						p.spriteEvaluationDone = true
					}
				}
			} else {
				if spriteInRange {
					p.status |= statusSpriteOverflow
					p.spriteEvaluationDone = true
				} else {
					n = (n + 1) % 64
					if n == 0 {
						p.spriteEvaluationDone = true
					}
					m = (m + 1) % 4
				}
			}
		}

		p.spriteInRange = spriteInRange
		p.secondaryOAMAddr = secondaryOAMAddr
		p.oamAddr = n<<2 | m
	}
}
