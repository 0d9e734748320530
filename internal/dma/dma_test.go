package dma

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type stubBus struct {
	mem       [0x10000]uint8
	writeCyc  bool
	oamWrites []uint8
}

func (b *stubBus) Read(addr uint16) uint8 { return b.mem[addr] }
func (b *stubBus) Write(addr uint16, value uint8) {
	if addr == 0x2004 {
		b.oamWrites = append(b.oamWrites, value)
	}
	b.mem[addr] = value
}
func (b *stubBus) IsCPUWriteCycle() bool { return b.writeCyc }

func TestIdleAlwaysTicksCPU(t *testing.T) {
	bus := &stubBus{}
	d := New()
	require.True(t, d.Tick(bus))
	require.False(t, d.Active())
}

func TestEvenAlignedTransferTakes513Cycles(t *testing.T) {
	bus := &stubBus{}
	for i := 0; i < 256; i++ {
		bus.mem[0x0300+i] = uint8(i)
	}

	d := New()
	// Starting on an odd (write-phase) cycle needs no alignment dummy read:
	// 1 halt cycle + 512 alternating read/write cycles = 513 total.
	d.isOdd = true
	d.TriggerOAMDMA(0x03)

	cycles := 0
	for d.Active() {
		cpuTicks := d.Tick(bus)
		cycles++
		if cycles == 1 {
			require.False(t, cpuTicks)
		}
		if cycles > 600 {
			t.Fatal("DMA never completed")
		}
	}

	require.Equal(t, 513, cycles)
	require.Equal(t, 256, len(bus.oamWrites))
	require.Equal(t, uint8(0), bus.oamWrites[0])
	require.Equal(t, uint8(255), bus.oamWrites[255])
}

func TestUnalignedTransferTakes514CyclesForTheExtraDummyRead(t *testing.T) {
	bus := &stubBus{}
	d := New()
	d.isOdd = false // starting on a get/read-phase cycle needs a dummy read
	d.TriggerOAMDMA(0x04)

	cycles := 0
	for d.Active() {
		d.Tick(bus)
		cycles++
		if cycles > 600 {
			t.Fatal("DMA never completed")
		}
	}

	require.Equal(t, 514, cycles)
	require.Equal(t, 256, len(bus.oamWrites))
}

func TestRequestWaitsOutAnInFlightWriteCycle(t *testing.T) {
	bus := &stubBus{writeCyc: true}
	d := New()
	d.TriggerOAMDMA(0x02)

	require.True(t, d.Tick(bus)) // still mid-write, CPU keeps ticking
	require.True(t, d.Active())

	bus.writeCyc = false
	cycles := 1
	for d.Active() {
		d.Tick(bus)
		cycles++
		if cycles > 600 {
			t.Fatal("DMA never completed")
		}
	}
	require.Equal(t, 256, len(bus.oamWrites))
}
