package cpu

import "fmt"

func illegalOpcodeMessage(opcode uint8) string {
	return fmt.Sprintf("cpu: illegal opcode $%02X", opcode)
}

var interruptVectorLow = map[uint8]uint16{
	interruptBRK:   0xFFFE,
	interruptNMI:   0xFFFA,
	interruptIRQ:   0xFFFE,
	interruptReset: 0xFFFC,
}

var interruptVectorHigh = map[uint8]uint16{
	interruptBRK:   0xFFFF,
	interruptNMI:   0xFFFB,
	interruptIRQ:   0xFFFF,
	interruptReset: 0xFFFD,
}

// Tick advances the CPU by one micro-operation, performing at most one bus
// access. The caller (the machine/bus package) is responsible for calling
// PollInterrupts once per CPU cycle on a schedule independent of Tick,
// and for halting Tick calls while DMA owns the bus.
func (c *CPU) Tick(bus Bus) {
	c.Cycles++

	var next state

	switch c.st.kind {
	case stFetchOpcode:
		if c.irq != intIdle && c.GetFlag(FlagI) {
			c.irq = intIdle
		}
		switch {
		case c.nmi == intArmed:
			c.nmi = intIdle
			next = state{kind: stInt, interrupt: interruptNMI}
		case c.irq == intArmed:
			// Faithful to the reference implementation: entering IRQ
			// service cancels any NMI request still in pending-new.
			c.nmi = intIdle
			next = state{kind: stInt, interrupt: interruptIRQ}
		default:
			opcode := bus.Read(c.PC)
			c.PC++
			next = decodeOpcode(opcode)
		}

	case stImmediateR:
		operand := bus.Read(c.PC)
		c.PC++
		execReadOp(c, c.st.op, operand)
		next = state{kind: stFetchOpcode}

	case stZeroPage:
		addr := uint16(bus.Read(c.PC))
		c.PC++
		next = state{kind: stExecuteOnAddress, class: c.st.class, op: c.st.op, addr: addr}

	case stZeroPageX:
		base := bus.Read(c.PC)
		c.PC++
		addr := uint16(base + c.X)
		next = state{kind: stFakeThenActual, class: c.st.class, op: c.st.op, addr: uint16(base), addr2: addr}

	case stZeroPageY:
		base := bus.Read(c.PC)
		c.PC++
		addr := uint16(base + c.Y)
		next = state{kind: stFakeThenActual, class: c.st.class, op: c.st.op, addr: uint16(base), addr2: addr}

	case stFakeThenActual:
		bus.Read(c.st.addr)
		next = state{kind: stExecuteOnAddress, class: c.st.class, op: c.st.op, addr: c.st.addr2, val2: uint8(c.st.addr >> 8)}

	case stExecuteOnAddress:
		switch c.st.class {
		case opClassRead:
			val := bus.Read(c.st.addr)
			execReadOp(c, c.st.op, val)
			next = state{kind: stFetchOpcode}
		case opClassReadWrite:
			val := bus.Read(c.st.addr)
			nextVal := execReadWriteOp(c, c.st.op, val)
			next = state{kind: stWriteBackThenWrite, addr: c.st.addr, val: val, val2: nextVal}
		case opClassWrite:
			val := execWriteOp(c, c.st.op)
			bus.Write(c.st.addr, val)
			next = state{kind: stFetchOpcode}
		case opClassSH:
			val := execSHOp(c, c.st.op, c.st.val2)
			bus.Write(c.st.addr, val)
			next = state{kind: stFetchOpcode}
		}

	case stWriteBackThenWrite:
		bus.Write(c.st.addr, c.st.val)
		next = state{kind: stWrite, addr: c.st.addr, val: c.st.val2}

	case stWrite:
		bus.Write(c.st.addr, c.st.val)
		next = state{kind: stFetchOpcode}

	case stAbsolute:
		pc := c.PC
		low := bus.Read(pc)
		c.PC += 2
		next = state{kind: stAddLowHighNoPen, class: c.st.class, op: c.st.op, addr: pc + 1, val: low}

	case stAbsoluteX:
		pc := c.PC
		base := bus.Read(pc)
		c.PC += 2
		low := uint16(base) + uint16(c.X)
		next = state{kind: stAddLowHigh, class: c.st.class, op: c.st.op, addr: pc + 1, addr2: low}

	case stAbsoluteY:
		pc := c.PC
		base := bus.Read(pc)
		c.PC += 2
		low := uint16(base) + uint16(c.Y)
		next = state{kind: stAddLowHigh, class: c.st.class, op: c.st.op, addr: pc + 1, addr2: low}

	case stAddLowHighNoPen:
		high := bus.Read(c.st.addr)
		addr := uint16(high)<<8 | uint16(c.st.val)
		next = state{kind: stExecuteOnAddress, class: c.st.class, op: c.st.op, addr: addr, val2: high}

	case stAddLowHigh:
		high := bus.Read(c.st.addr)
		addr := uint16(high)<<8 | (c.st.addr2 & 0xFF)
		switch {
		case c.st.class == opClassSH:
			var realAddr uint16
			if c.st.addr2 > 0xFF {
				realAddr = uint16(execSHOp(c, c.st.op, high))<<8 | (c.st.addr2 & 0xFF)
			} else {
				realAddr = uint16(high)<<8 | (c.st.addr2 & 0xFF)
			}
			next = state{kind: stFakeThenActual, class: c.st.class, op: c.st.op, addr: addr, addr2: realAddr}
		case c.st.addr2 > 0xFF:
			next = state{kind: stFakeThenActual, class: c.st.class, op: c.st.op, addr: addr, addr2: addr + 0x100}
		case c.st.class == opClassRead:
			next = state{kind: stExecuteOnAddress, class: c.st.class, op: c.st.op, addr: addr, val2: high}
		default:
			next = state{kind: stFakeThenActual, class: c.st.class, op: c.st.op, addr: addr, addr2: addr}
		}

	case stIndexedIndirect:
		base := bus.Read(c.PC)
		c.PC++
		next = state{kind: stIndexedIndirect2, class: c.st.class, op: c.st.op, val: base}

	case stIndexedIndirect2:
		bus.Read(uint16(c.st.val))
		next = state{kind: stIndexedIndirect3, class: c.st.class, op: c.st.op, val: c.st.val}

	case stIndexedIndirect3:
		pointer := c.st.val + c.X
		low := bus.Read(uint16(pointer))
		next = state{kind: stAddLowHighNoPen, class: c.st.class, op: c.st.op, addr: uint16(pointer + 1), val: low}

	case stIndirectIndexed:
		base := bus.Read(c.PC)
		c.PC++
		next = state{kind: stIndirectIndexed2, class: c.st.class, op: c.st.op, val: base}

	case stIndirectIndexed2:
		low := uint16(bus.Read(uint16(c.st.val))) + uint16(c.Y)
		next = state{kind: stAddLowHigh, class: c.st.class, op: c.st.op, addr: uint16(c.st.val + 1), addr2: low}

	case stAccRW:
		bus.Read(c.PC)
		c.A = execReadWriteOp(c, c.st.op, c.A)
		next = state{kind: stFetchOpcode}

	case stRelative:
		offset := bus.Read(c.PC)
		c.PC++
		if execBranchOp(c, c.st.op) {
			next = state{kind: stRelative2, val: offset}
		} else {
			next = state{kind: stFetchOpcode}
		}

	case stRelative2:
		offset := c.st.val
		oldPC := c.PC
		var newPC uint16
		if int8(offset) >= 0 {
			newPC = oldPC + uint16(offset)
		} else {
			newPC = oldPC - (256 - uint16(offset))
		}
		c.PC = newPC
		if (oldPC >> 8) != (newPC >> 8) {
			addr := (oldPC & 0xFF00) | uint16(uint8(newPC&0xFF)+offset)
			next = state{kind: stRelative3, addr: addr}
		} else {
			next = state{kind: stFetchOpcode}
		}

	case stRelative3:
		bus.Read(c.st.addr)
		next = state{kind: stFetchOpcode}

	case stImplied:
		execImpliedOp(c, c.st.op)
		next = state{kind: stFetchOpcode}

	case stReset:
		bus.Read(c.PC)
		next = state{kind: stInt, interrupt: interruptReset}

	case stInt:
		pc := c.PC
		if c.st.interrupt == interruptBRK {
			pc++
			c.PC = pc
		}
		bus.Read(pc)
		next = state{kind: stInt2, interrupt: c.st.interrupt}

	case stInt2:
		pch := uint8(c.PC >> 8)
		addr := 0x100 | uint16(c.SP)
		if c.st.interrupt == interruptReset {
			bus.Read(addr)
		} else {
			bus.Write(addr, pch)
		}
		c.SP--
		next = state{kind: stInt3, interrupt: c.st.interrupt}

	case stInt3:
		pcl := uint8(c.PC & 0xFF)
		addr := 0x100 | uint16(c.SP)
		if c.st.interrupt == interruptReset {
			bus.Read(addr)
		} else {
			bus.Write(addr, pcl)
		}
		c.SP--

		switch {
		case c.st.interrupt == interruptBRK && c.nmi != intIdle:
			next = state{kind: stInt4, interrupt: interruptNMI, bFlag: true}
		case c.st.interrupt == interruptBRK && c.irq != intIdle:
			next = state{kind: stInt4, interrupt: interruptIRQ, bFlag: true}
		case c.st.interrupt == interruptBRK:
			next = state{kind: stInt4, interrupt: interruptBRK, bFlag: true}
		case c.st.interrupt == interruptIRQ && c.nmi != intIdle:
			next = state{kind: stInt4, interrupt: interruptNMI, bFlag: false}
		default:
			next = state{kind: stInt4, interrupt: c.st.interrupt, bFlag: false}
		}

	case stInt4:
		p := c.GetP() | 0x20
		if c.st.bFlag {
			p |= 0x10
		}
		addr := 0x100 | uint16(c.SP)
		if c.st.interrupt == interruptReset {
			bus.Read(addr)
		} else {
			bus.Write(addr, p)
		}
		c.SP--
		next = state{kind: stInt5, interrupt: c.st.interrupt}

	case stInt5:
		npcl := bus.Read(interruptVectorLow[c.st.interrupt])
		c.SetFlag(FlagI, true)
		next = state{kind: stInt6, interrupt: c.st.interrupt, val: npcl}

	case stInt6:
		npch := bus.Read(interruptVectorHigh[c.st.interrupt])
		c.PC = uint16(npch)<<8 | uint16(c.st.val)
		next = state{kind: stFetchOpcode}

	case stRTI:
		next = state{kind: stRTI2}
	case stRTI2:
		bus.Read(0x100 | uint16(c.SP))
		c.SP++
		next = state{kind: stRTI3}
	case stRTI3:
		p := (bus.Read(0x100|uint16(c.SP)) &^ FlagB) | Flag1
		c.SetP(p)
		c.SP++
		next = state{kind: stRTI4}
	case stRTI4:
		pcl := bus.Read(0x100 | uint16(c.SP))
		c.SP++
		next = state{kind: stRTI5, val: pcl}
	case stRTI5:
		pch := bus.Read(0x100 | uint16(c.SP))
		c.PC = uint16(pch)<<8 | uint16(c.st.val)
		next = state{kind: stFetchOpcode}

	case stRTS:
		next = state{kind: stRTS2}
	case stRTS2:
		bus.Read(0x100 | uint16(c.SP))
		c.SP++
		next = state{kind: stRTS3}
	case stRTS3:
		pcl := bus.Read(0x100 | uint16(c.SP))
		c.SP++
		next = state{kind: stRTS4, val: pcl}
	case stRTS4:
		pch := bus.Read(0x100 | uint16(c.SP))
		c.PC = uint16(pch)<<8 | uint16(c.st.val)
		next = state{kind: stRTS5}
	case stRTS5:
		bus.Read(c.PC)
		c.PC++
		next = state{kind: stFetchOpcode}

	case stPHP:
		next = state{kind: stPHPA, val: c.GetP() | 0x30}
	case stPHA:
		next = state{kind: stPHPA, val: c.A}
	case stPHPA:
		bus.Write(0x100|uint16(c.SP), c.st.val)
		c.SP--
		next = state{kind: stFetchOpcode}

	case stPLP:
		next = state{kind: stPLP2}
	case stPLP2:
		bus.Read(0x100 | uint16(c.SP))
		next = state{kind: stPLP3}
	case stPLP3:
		c.SP++
		p := (bus.Read(0x100|uint16(c.SP)) &^ FlagB) | Flag1
		c.SetP(p)
		next = state{kind: stFetchOpcode}

	case stPLA:
		next = state{kind: stPLA2}
	case stPLA2:
		bus.Read(0x100 | uint16(c.SP))
		next = state{kind: stPLA3}
	case stPLA3:
		c.SP++
		a := bus.Read(0x100 | uint16(c.SP))
		c.SetZN(a)
		c.A = a
		next = state{kind: stFetchOpcode}

	case stJSR:
		newPCL := bus.Read(c.PC)
		c.PC++
		next = state{kind: stJSR2, val: newPCL}
	case stJSR2:
		bus.Read(0x100 | uint16(c.SP))
		next = state{kind: stJSR3, val: c.st.val}
	case stJSR3:
		pch := uint8(c.PC >> 8)
		bus.Write(0x100|uint16(c.SP), pch)
		c.SP--
		next = state{kind: stJSR4, val: c.st.val}
	case stJSR4:
		pcl := uint8(c.PC & 0xFF)
		bus.Write(0x100|uint16(c.SP), pcl)
		c.SP--
		next = state{kind: stJSR5, val: c.st.val}
	case stJSR5:
		newPCH := bus.Read(c.PC)
		c.PC = uint16(newPCH)<<8 | uint16(c.st.val)
		next = state{kind: stFetchOpcode}

	case stJMPAbsolute:
		newPCL := bus.Read(c.PC)
		c.PC++
		next = state{kind: stJMPAbsolute2, val: newPCL}
	case stJMPAbsolute2:
		newPCH := bus.Read(c.PC)
		c.PC = uint16(newPCH)<<8 | uint16(c.st.val)
		next = state{kind: stFetchOpcode}

	case stJMPIndirect:
		ptrLow := bus.Read(c.PC)
		c.PC++
		next = state{kind: stJMPIndirect2, val: ptrLow}
	case stJMPIndirect2:
		ptrHigh := bus.Read(c.PC)
		pointer := uint16(ptrHigh)<<8 | uint16(c.st.val)
		next = state{kind: stJMPIndirect3, addr: pointer}
	case stJMPIndirect3:
		pcl := bus.Read(c.st.addr)
		next = state{kind: stJMPIndirect4, addr: c.st.addr, val: pcl}
	case stJMPIndirect4:
		ptrLow := uint8(c.st.addr & 0xFF)
		ptrHigh := uint8((c.st.addr & 0xFF00) >> 8)
		ptrPlus1 := uint16(ptrHigh)<<8 | uint16(ptrLow+1)
		pch := bus.Read(ptrPlus1)
		c.PC = uint16(pch)<<8 | uint16(c.st.val)
		next = state{kind: stFetchOpcode}

	default:
		panic(fmt.Sprintf("cpu: unhandled micro-state %d", c.st.kind))
	}

	c.st = next
}
