// Package nes wires a CPU, PPU, DMA engine and cartridge into the NES's
// shared address space and drives them at master-clock granularity.
//
// The system clock runs at three times the CPU rate. Of every three master
// cycles the PPU ticks on all of them, the CPU (and DMA engine, which can
// steal the CPU's cycles) only on the first, and interrupt latches only
// resolve pending-to-armed on the second — giving NMI and IRQ detection
// their documented one-cycle delay relative to the event that raised them.
package nes

import (
	"fmt"

	"github.com/cordite/nespipe/internal/apu"
	"github.com/cordite/nespipe/internal/cartridge"
	"github.com/cordite/nespipe/internal/cpu"
	"github.com/cordite/nespipe/internal/dma"
	"github.com/cordite/nespipe/internal/ppu"
)

// cyclePhase is the machine's position within one CPU-rate triple of master
// cycles.
type cyclePhase uint8

const (
	phaseT1 cyclePhase = iota
	phaseT2
	phaseT3
)

// Machine owns every component of the system and is the sole bus each of
// them talks through.
type Machine struct {
	IO IO

	CPU       *cpu.CPU
	PPU       *ppu.PPU
	DMA       *dma.DMA
	APU       *apu.APU
	Cartridge cartridge.Mapper

	ram   [0x800]uint8
	vram  [0x800]uint8
	cycle cyclePhase

	controllerStrobeHigh bool
}

// notConnected is the cartridge installed before InsertCartridge is called.
// Accessing it is a programming error, matching real hardware's floating
// bus when the cartridge edge connector is empty.
type notConnected struct{}

func (notConnected) ReadCPU(addr uint16) uint8 {
	panic(fmt.Sprintf("nes: CPU access to %04X with no cartridge inserted", addr))
}
func (notConnected) WriteCPU(addr uint16, value uint8) {
	panic(fmt.Sprintf("nes: CPU access to %04X with no cartridge inserted", addr))
}
func (notConnected) ReadPPU(nametables *[0x800]uint8, addr uint16) uint8 {
	panic(fmt.Sprintf("nes: PPU access to %04X with no cartridge inserted", addr))
}
func (notConnected) WritePPU(nametables *[0x800]uint8, addr uint16, value uint8) {
	panic(fmt.Sprintf("nes: PPU access to %04X with no cartridge inserted", addr))
}

// New returns a machine with no cartridge inserted, in its power-on reset
// state.
func New(io IO) *Machine {
	return &Machine{
		IO:        io,
		CPU:       cpu.New(),
		PPU:       ppu.New(),
		DMA:       dma.New(),
		APU:       apu.New(),
		Cartridge: notConnected{},
		cycle:     phaseT1,
	}
}

// Reset re-enters the CPU reset sequence and resets the PPU and DMA engine.
// It does not clear RAM, matching real hardware.
func (m *Machine) Reset() {
	m.CPU.Reset()
	m.PPU.Reset()
	m.DMA.Reset()
}

// InsertCartridge installs a mapper. The machine does not reset itself;
// callers that want a clean boot should call Reset afterward.
func (m *Machine) InsertCartridge(c cartridge.Mapper) {
	m.Cartridge = c
}

// RemoveCartridge reverts to the floating-bus cartridge.
func (m *Machine) RemoveCartridge() {
	m.Cartridge = notConnected{}
}

// Tick advances the system by one master cycle.
func (m *Machine) Tick() {
	switch m.cycle {
	case phaseT1:
		m.performCPUCycle()
		m.PPU.Tick(m)
		m.cycle = phaseT2
	case phaseT2:
		m.CPU.PollInterrupts()
		m.PPU.Tick(m)
		m.cycle = phaseT3
	case phaseT3:
		m.PPU.Tick(m)
		m.cycle = phaseT1
	}
}

// performCPUCycle lets the DMA engine either run its own cycle or hand
// control back to the CPU, once per T1.
func (m *Machine) performCPUCycle() {
	if m.DMA.Tick(m) {
		m.CPU.Tick(m)
	}
}

// TickCPU advances the system through one full CPU-rate cycle: the current
// phase through to the next T1.
func (m *Machine) TickCPU() {
	m.Tick()
	for m.cycle != phaseT1 {
		m.Tick()
	}
}

// StepCPUInstruction runs until the CPU is about to fetch its next opcode,
// returning the number of CPU-rate cycles consumed (at least 1).
func (m *Machine) StepCPUInstruction() int {
	m.TickCPU()
	ticks := 1
	for !m.CPU.IsAtInstruction() {
		m.TickCPU()
		ticks++
	}
	return ticks
}

// StepFrame runs until the PPU has just completed a frame, returning the
// number of master cycles consumed.
func (m *Machine) StepFrame() int {
	m.Tick()
	ticks := 1
	for !m.PPU.IsAtFrameEnd() {
		m.Tick()
		ticks++
	}
	return ticks
}

// Read implements cpu.Bus, dma.Bus and the CPU side of the address map:
// 2 KiB internal RAM mirrored four times, PPU registers mirrored every 8
// bytes, the controller ports, an APU register range that is otherwise
// unimplemented, and the cartridge from $4020 up.
func (m *Machine) Read(addr uint16) uint8 {
	switch {
	case addr <= 0x1FFF:
		return m.ram[addr%0x800]
	case addr <= 0x3FFF:
		return m.PPU.RegRead(m, uint8((addr-0x2000)%8))
	case addr == 0x4016:
		return m.IO.ControllerPort1Read()
	case addr == 0x4017:
		return m.IO.ControllerPort2Read()
	case addr <= 0x4017:
		return m.APU.Read(addr)
	case addr <= 0x401F:
		panic(fmt.Sprintf("nes: read from CPU test region %04X", addr))
	default:
		return m.Cartridge.ReadCPU(addr)
	}
}

// Write implements cpu.Bus and dma.Bus, mirroring Read's address map plus
// the OAMDMA trigger at $4014 and strobe edge-detection at $4016.
func (m *Machine) Write(addr uint16, value uint8) {
	switch {
	case addr <= 0x1FFF:
		m.ram[addr%0x800] = value
	case addr <= 0x3FFF:
		m.PPU.RegWrite(m, uint8((addr-0x2000)%8), value)
	case addr == 0x4014:
		m.DMA.TriggerOAMDMA(value)
	case addr == 0x4016:
		strobeHigh := value&1 != 0
		if strobeHigh != m.controllerStrobeHigh {
			m.controllerStrobeHigh = strobeHigh
			m.IO.ControllerLatchChange(strobeHigh)
		}
	case addr <= 0x4017:
		m.APU.Write(addr, value)
	case addr <= 0x401F:
		panic(fmt.Sprintf("nes: write to CPU test region %04X", addr))
	default:
		m.Cartridge.WriteCPU(addr, value)
	}
}

// IsCPUWriteCycle implements dma.Bus.
func (m *Machine) IsCPUWriteCycle() bool {
	return m.CPU.IsWriteCycle()
}

// PPURead and PPUWrite implement ppu.Bus, delegating to the cartridge with
// the machine's 2 KiB of nametable RAM lent in so mirroring stays the
// mapper's decision.
func (m *Machine) PPURead(addr uint16) uint8 {
	return m.Cartridge.ReadPPU(&m.vram, addr)
}

func (m *Machine) PPUWrite(addr uint16, value uint8) {
	m.Cartridge.WritePPU(&m.vram, addr, value)
}

// TriggerNMI and SuppressNMI implement ppu.Bus.
func (m *Machine) TriggerNMI()  { m.CPU.SetNMI() }
func (m *Machine) SuppressNMI() { m.CPU.ClearNMI() }

// SetPixel implements ppu.Bus, forwarding the decoded pixel to the host.
func (m *Machine) SetPixel(row, col uint16, r, g, b uint8) {
	m.IO.SetPixel(row, col, r, g, b)
}
