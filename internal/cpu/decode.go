package cpu

// stateKind discriminates the CPU's micro-operation. Rather than a
// large payload-carrying enum per state, every state shares one flat
// struct (see state below) and stateKind just selects which of its
// generic fields are meaningful for the current step.
type stateKind uint8

const (
	stFetchOpcode stateKind = iota
	stZeroPage
	stZeroPageX
	stZeroPageY
	stFakeThenActual
	stExecuteOnAddress
	stWriteBackThenWrite
	stWrite
	stAbsolute
	stAbsoluteX
	stAbsoluteY
	stAddLowHighNoPen
	stAddLowHigh
	stIndexedIndirect
	stIndexedIndirect2
	stIndexedIndirect3
	stIndirectIndexed
	stIndirectIndexed2
	stImmediateR
	stAccRW
	stRelative
	stRelative2
	stRelative3
	stImplied
	stReset
	stInt
	stInt2
	stInt3
	stInt4
	stInt5
	stInt6
	stRTI
	stRTI2
	stRTI3
	stRTI4
	stRTI5
	stRTS
	stRTS2
	stRTS3
	stRTS4
	stRTS5
	stPHA
	stPHP
	stPHPA
	stPLP
	stPLP2
	stPLP3
	stPLA
	stPLA2
	stPLA3
	stJSR
	stJSR2
	stJSR3
	stJSR4
	stJSR5
	stJMPAbsolute
	stJMPAbsolute2
	stJMPIndirect
	stJMPIndirect2
	stJMPIndirect3
	stJMPIndirect4

	// stIllegal marks an opcode slot nothing in init() claimed.
	stIllegal stateKind = 255
)

// opClass distinguishes which operation table `op` indexes into, mirroring
// the Rust source's Op::{Read,ReadWrite,Write,SH} wrapper.
type opClass uint8

const (
	opClassRead opClass = iota
	opClassReadWrite
	opClassWrite
	opClassSH
)

// Operation codes. Each belongs to exactly one opClass (or, for branch and
// implied operations, is only ever read through its own state kind), so a
// single byte namespace is shared across all of them without collision.
const (
	opADC uint8 = iota
	opAND
	opBIT
	opCMP
	opCPX
	opCPY
	opEOR
	opLDA
	opLDX
	opLDY
	opORA
	opSBC
	opReadNOP
	opLAX
	opANC
	opALR
	opARR
	opAXS

	opSTA
	opSTX
	opSTY
	opSAX

	opASL
	opDEC
	opINC
	opLSR
	opROL
	opROR
	opDCP
	opISC
	opSLO
	opRLA
	opSRE
	opRRA

	opCLC
	opCLD
	opCLI
	opCLV
	opDEX
	opDEY
	opINX
	opINY
	opImpliedNOP
	opSEC
	opSED
	opSEI
	opTAX
	opTAY
	opTSX
	opTXA
	opTXS
	opTYA

	opBCC
	opBCS
	opBEQ
	opBMI
	opBNE
	opBPL
	opBVC
	opBVS

	opSHY
	opSHX
)

const (
	interruptBRK uint8 = iota
	interruptNMI
	interruptIRQ
	interruptReset
)

// state is the CPU's single in-flight micro-operation. kind selects the
// transition in Tick; the remaining fields are generic scratch space reused
// across every kind of state, in place of a per-state payload type.
type state struct {
	kind      stateKind
	class     opClass
	op        uint8
	addr      uint16
	addr2     uint16
	val       uint8
	val2      uint8
	interrupt uint8
	bFlag     bool
}

type decodeEntry struct {
	kind  stateKind
	class opClass
	op    uint8
}

var opcodeTable [256]decodeEntry

func entry(kind stateKind, class opClass, op uint8) decodeEntry {
	return decodeEntry{kind: kind, class: class, op: op}
}

func init() {
	for i := range opcodeTable {
		opcodeTable[i] = decodeEntry{kind: stIllegal}
	}

	set := func(opcode uint8, e decodeEntry) { opcodeTable[opcode] = e }

	// ADC
	set(0x69, entry(stImmediateR, opClassRead, opADC))
	set(0x65, entry(stZeroPage, opClassRead, opADC))
	set(0x75, entry(stZeroPageX, opClassRead, opADC))
	set(0x6D, entry(stAbsolute, opClassRead, opADC))
	set(0x7D, entry(stAbsoluteX, opClassRead, opADC))
	set(0x79, entry(stAbsoluteY, opClassRead, opADC))
	set(0x61, entry(stIndexedIndirect, opClassRead, opADC))
	set(0x71, entry(stIndirectIndexed, opClassRead, opADC))
	// AND
	set(0x29, entry(stImmediateR, opClassRead, opAND))
	set(0x25, entry(stZeroPage, opClassRead, opAND))
	set(0x35, entry(stZeroPageX, opClassRead, opAND))
	set(0x2D, entry(stAbsolute, opClassRead, opAND))
	set(0x3D, entry(stAbsoluteX, opClassRead, opAND))
	set(0x39, entry(stAbsoluteY, opClassRead, opAND))
	set(0x21, entry(stIndexedIndirect, opClassRead, opAND))
	set(0x31, entry(stIndirectIndexed, opClassRead, opAND))
	// ASL
	set(0x0A, entry(stAccRW, opClassReadWrite, opASL))
	set(0x06, entry(stZeroPage, opClassReadWrite, opASL))
	set(0x16, entry(stZeroPageX, opClassReadWrite, opASL))
	set(0x0E, entry(stAbsolute, opClassReadWrite, opASL))
	set(0x1E, entry(stAbsoluteX, opClassReadWrite, opASL))
	// Branches
	set(0x90, entry(stRelative, 0, opBCC))
	set(0xB0, entry(stRelative, 0, opBCS))
	set(0xF0, entry(stRelative, 0, opBEQ))
	set(0x30, entry(stRelative, 0, opBMI))
	set(0xD0, entry(stRelative, 0, opBNE))
	set(0x10, entry(stRelative, 0, opBPL))
	set(0x50, entry(stRelative, 0, opBVC))
	set(0x70, entry(stRelative, 0, opBVS))
	// BIT
	set(0x24, entry(stZeroPage, opClassRead, opBIT))
	set(0x2C, entry(stAbsolute, opClassRead, opBIT))
	// BRK
	set(0x00, decodeEntry{kind: stInt, op: interruptBRK})
	// Flags
	set(0x18, entry(stImplied, 0, opCLC))
	set(0xD8, entry(stImplied, 0, opCLD))
	set(0x58, entry(stImplied, 0, opCLI))
	set(0xB8, entry(stImplied, 0, opCLV))
	set(0x38, entry(stImplied, 0, opSEC))
	set(0xF8, entry(stImplied, 0, opSED))
	set(0x78, entry(stImplied, 0, opSEI))
	// CMP
	set(0xC9, entry(stImmediateR, opClassRead, opCMP))
	set(0xC5, entry(stZeroPage, opClassRead, opCMP))
	set(0xD5, entry(stZeroPageX, opClassRead, opCMP))
	set(0xCD, entry(stAbsolute, opClassRead, opCMP))
	set(0xDD, entry(stAbsoluteX, opClassRead, opCMP))
	set(0xD9, entry(stAbsoluteY, opClassRead, opCMP))
	set(0xC1, entry(stIndexedIndirect, opClassRead, opCMP))
	set(0xD1, entry(stIndirectIndexed, opClassRead, opCMP))
	// CPX/CPY
	set(0xE0, entry(stImmediateR, opClassRead, opCPX))
	set(0xE4, entry(stZeroPage, opClassRead, opCPX))
	set(0xEC, entry(stAbsolute, opClassRead, opCPX))
	set(0xC0, entry(stImmediateR, opClassRead, opCPY))
	set(0xC4, entry(stZeroPage, opClassRead, opCPY))
	set(0xCC, entry(stAbsolute, opClassRead, opCPY))
	// DEC
	set(0xC6, entry(stZeroPage, opClassReadWrite, opDEC))
	set(0xD6, entry(stZeroPageX, opClassReadWrite, opDEC))
	set(0xCE, entry(stAbsolute, opClassReadWrite, opDEC))
	set(0xDE, entry(stAbsoluteX, opClassReadWrite, opDEC))
	set(0xCA, entry(stImplied, 0, opDEX))
	set(0x88, entry(stImplied, 0, opDEY))
	// EOR
	set(0x49, entry(stImmediateR, opClassRead, opEOR))
	set(0x45, entry(stZeroPage, opClassRead, opEOR))
	set(0x55, entry(stZeroPageX, opClassRead, opEOR))
	set(0x4D, entry(stAbsolute, opClassRead, opEOR))
	set(0x5D, entry(stAbsoluteX, opClassRead, opEOR))
	set(0x59, entry(stAbsoluteY, opClassRead, opEOR))
	set(0x41, entry(stIndexedIndirect, opClassRead, opEOR))
	set(0x51, entry(stIndirectIndexed, opClassRead, opEOR))
	// INC
	set(0xE6, entry(stZeroPage, opClassReadWrite, opINC))
	set(0xF6, entry(stZeroPageX, opClassReadWrite, opINC))
	set(0xEE, entry(stAbsolute, opClassReadWrite, opINC))
	set(0xFE, entry(stAbsoluteX, opClassReadWrite, opINC))
	set(0xE8, entry(stImplied, 0, opINX))
	set(0xC8, entry(stImplied, 0, opINY))
	// JMP/JSR
	set(0x4C, decodeEntry{kind: stJMPAbsolute})
	set(0x6C, decodeEntry{kind: stJMPIndirect})
	set(0x20, decodeEntry{kind: stJSR})
	// LDA
	set(0xA9, entry(stImmediateR, opClassRead, opLDA))
	set(0xA5, entry(stZeroPage, opClassRead, opLDA))
	set(0xB5, entry(stZeroPageX, opClassRead, opLDA))
	set(0xAD, entry(stAbsolute, opClassRead, opLDA))
	set(0xBD, entry(stAbsoluteX, opClassRead, opLDA))
	set(0xB9, entry(stAbsoluteY, opClassRead, opLDA))
	set(0xA1, entry(stIndexedIndirect, opClassRead, opLDA))
	set(0xB1, entry(stIndirectIndexed, opClassRead, opLDA))
	// LDX
	set(0xA2, entry(stImmediateR, opClassRead, opLDX))
	set(0xA6, entry(stZeroPage, opClassRead, opLDX))
	set(0xB6, entry(stZeroPageY, opClassRead, opLDX))
	set(0xAE, entry(stAbsolute, opClassRead, opLDX))
	set(0xBE, entry(stAbsoluteY, opClassRead, opLDX))
	// LDY
	set(0xA0, entry(stImmediateR, opClassRead, opLDY))
	set(0xA4, entry(stZeroPage, opClassRead, opLDY))
	set(0xB4, entry(stZeroPageX, opClassRead, opLDY))
	set(0xAC, entry(stAbsolute, opClassRead, opLDY))
	set(0xBC, entry(stAbsoluteX, opClassRead, opLDY))
	// LSR
	set(0x4A, entry(stAccRW, opClassReadWrite, opLSR))
	set(0x46, entry(stZeroPage, opClassReadWrite, opLSR))
	set(0x56, entry(stZeroPageX, opClassReadWrite, opLSR))
	set(0x4E, entry(stAbsolute, opClassReadWrite, opLSR))
	set(0x5E, entry(stAbsoluteX, opClassReadWrite, opLSR))
	// NOP
	set(0xEA, entry(stImplied, 0, opImpliedNOP))
	// ORA
	set(0x09, entry(stImmediateR, opClassRead, opORA))
	set(0x05, entry(stZeroPage, opClassRead, opORA))
	set(0x15, entry(stZeroPageX, opClassRead, opORA))
	set(0x0D, entry(stAbsolute, opClassRead, opORA))
	set(0x1D, entry(stAbsoluteX, opClassRead, opORA))
	set(0x19, entry(stAbsoluteY, opClassRead, opORA))
	set(0x01, entry(stIndexedIndirect, opClassRead, opORA))
	set(0x11, entry(stIndirectIndexed, opClassRead, opORA))
	// Stack ops
	set(0x48, decodeEntry{kind: stPHA})
	set(0x08, decodeEntry{kind: stPHP})
	set(0x68, decodeEntry{kind: stPLA})
	set(0x28, decodeEntry{kind: stPLP})
	// ROL/ROR
	set(0x2A, entry(stAccRW, opClassReadWrite, opROL))
	set(0x26, entry(stZeroPage, opClassReadWrite, opROL))
	set(0x36, entry(stZeroPageX, opClassReadWrite, opROL))
	set(0x2E, entry(stAbsolute, opClassReadWrite, opROL))
	set(0x3E, entry(stAbsoluteX, opClassReadWrite, opROL))
	set(0x6A, entry(stAccRW, opClassReadWrite, opROR))
	set(0x66, entry(stZeroPage, opClassReadWrite, opROR))
	set(0x76, entry(stZeroPageX, opClassReadWrite, opROR))
	set(0x6E, entry(stAbsolute, opClassReadWrite, opROR))
	set(0x7E, entry(stAbsoluteX, opClassReadWrite, opROR))
	// RTI/RTS
	set(0x40, decodeEntry{kind: stRTI})
	set(0x60, decodeEntry{kind: stRTS})
	// SBC
	set(0xE9, entry(stImmediateR, opClassRead, opSBC))
	set(0xE5, entry(stZeroPage, opClassRead, opSBC))
	set(0xF5, entry(stZeroPageX, opClassRead, opSBC))
	set(0xED, entry(stAbsolute, opClassRead, opSBC))
	set(0xFD, entry(stAbsoluteX, opClassRead, opSBC))
	set(0xF9, entry(stAbsoluteY, opClassRead, opSBC))
	set(0xE1, entry(stIndexedIndirect, opClassRead, opSBC))
	set(0xF1, entry(stIndirectIndexed, opClassRead, opSBC))
	// STA/STX/STY
	set(0x85, entry(stZeroPage, opClassWrite, opSTA))
	set(0x95, entry(stZeroPageX, opClassWrite, opSTA))
	set(0x8D, entry(stAbsolute, opClassWrite, opSTA))
	set(0x9D, entry(stAbsoluteX, opClassWrite, opSTA))
	set(0x99, entry(stAbsoluteY, opClassWrite, opSTA))
	set(0x81, entry(stIndexedIndirect, opClassWrite, opSTA))
	set(0x91, entry(stIndirectIndexed, opClassWrite, opSTA))
	set(0x86, entry(stZeroPage, opClassWrite, opSTX))
	set(0x96, entry(stZeroPageY, opClassWrite, opSTX))
	set(0x8E, entry(stAbsolute, opClassWrite, opSTX))
	set(0x84, entry(stZeroPage, opClassWrite, opSTY))
	set(0x94, entry(stZeroPageX, opClassWrite, opSTY))
	set(0x8C, entry(stAbsolute, opClassWrite, opSTY))
	// Register transfers
	set(0xAA, entry(stImplied, 0, opTAX))
	set(0xA8, entry(stImplied, 0, opTAY))
	set(0xBA, entry(stImplied, 0, opTSX))
	set(0x8A, entry(stImplied, 0, opTXA))
	set(0x9A, entry(stImplied, 0, opTXS))
	set(0x98, entry(stImplied, 0, opTYA))

	// Undocumented: NOPs
	for _, op := range []uint8{0x04, 0x44, 0x64} {
		set(op, entry(stZeroPage, opClassRead, opReadNOP))
	}
	set(0x0C, entry(stAbsolute, opClassRead, opReadNOP))
	for _, op := range []uint8{0x14, 0x34, 0x54, 0x74, 0xD4, 0xF4} {
		set(op, entry(stZeroPageX, opClassRead, opReadNOP))
	}
	for _, op := range []uint8{0x1A, 0x3A, 0x5A, 0x7A, 0xDA, 0xFA} {
		set(op, entry(stImplied, 0, opImpliedNOP))
	}
	for _, op := range []uint8{0x1C, 0x3C, 0x5C, 0x7C, 0xDC, 0xFC} {
		set(op, entry(stAbsoluteX, opClassRead, opReadNOP))
	}
	for _, op := range []uint8{0x80, 0x82, 0x89, 0xC2, 0xE2} {
		set(op, entry(stImmediateR, opClassRead, opReadNOP))
	}
	// LAX
	set(0xA3, entry(stIndexedIndirect, opClassRead, opLAX))
	set(0xA7, entry(stZeroPage, opClassRead, opLAX))
	set(0xAB, entry(stImmediateR, opClassRead, opLAX))
	set(0xAF, entry(stAbsolute, opClassRead, opLAX))
	set(0xB3, entry(stIndirectIndexed, opClassRead, opLAX))
	set(0xB7, entry(stZeroPageY, opClassRead, opLAX))
	set(0xBF, entry(stAbsoluteY, opClassRead, opLAX))
	// SAX
	set(0x83, entry(stIndexedIndirect, opClassWrite, opSAX))
	set(0x87, entry(stZeroPage, opClassWrite, opSAX))
	set(0x8F, entry(stAbsolute, opClassWrite, opSAX))
	set(0x97, entry(stZeroPageY, opClassWrite, opSAX))
	// Undocumented SBC
	set(0xEB, entry(stImmediateR, opClassRead, opSBC))
	// DCP
	set(0xC3, entry(stIndexedIndirect, opClassReadWrite, opDCP))
	set(0xC7, entry(stZeroPage, opClassReadWrite, opDCP))
	set(0xCF, entry(stAbsolute, opClassReadWrite, opDCP))
	set(0xD3, entry(stIndirectIndexed, opClassReadWrite, opDCP))
	set(0xD7, entry(stZeroPageX, opClassReadWrite, opDCP))
	set(0xDB, entry(stAbsoluteY, opClassReadWrite, opDCP))
	set(0xDF, entry(stAbsoluteX, opClassReadWrite, opDCP))
	// ISC
	set(0xE3, entry(stIndexedIndirect, opClassReadWrite, opISC))
	set(0xE7, entry(stZeroPage, opClassReadWrite, opISC))
	set(0xEF, entry(stAbsolute, opClassReadWrite, opISC))
	set(0xF3, entry(stIndirectIndexed, opClassReadWrite, opISC))
	set(0xF7, entry(stZeroPageX, opClassReadWrite, opISC))
	set(0xFB, entry(stAbsoluteY, opClassReadWrite, opISC))
	set(0xFF, entry(stAbsoluteX, opClassReadWrite, opISC))
	// SLO
	set(0x03, entry(stIndexedIndirect, opClassReadWrite, opSLO))
	set(0x07, entry(stZeroPage, opClassReadWrite, opSLO))
	set(0x0F, entry(stAbsolute, opClassReadWrite, opSLO))
	set(0x13, entry(stIndirectIndexed, opClassReadWrite, opSLO))
	set(0x17, entry(stZeroPageX, opClassReadWrite, opSLO))
	set(0x1B, entry(stAbsoluteY, opClassReadWrite, opSLO))
	set(0x1F, entry(stAbsoluteX, opClassReadWrite, opSLO))
	// RLA
	set(0x23, entry(stIndexedIndirect, opClassReadWrite, opRLA))
	set(0x27, entry(stZeroPage, opClassReadWrite, opRLA))
	set(0x2F, entry(stAbsolute, opClassReadWrite, opRLA))
	set(0x33, entry(stIndirectIndexed, opClassReadWrite, opRLA))
	set(0x37, entry(stZeroPageX, opClassReadWrite, opRLA))
	set(0x3B, entry(stAbsoluteY, opClassReadWrite, opRLA))
	set(0x3F, entry(stAbsoluteX, opClassReadWrite, opRLA))
	// SRE
	set(0x43, entry(stIndexedIndirect, opClassReadWrite, opSRE))
	set(0x47, entry(stZeroPage, opClassReadWrite, opSRE))
	set(0x4F, entry(stAbsolute, opClassReadWrite, opSRE))
	set(0x53, entry(stIndirectIndexed, opClassReadWrite, opSRE))
	set(0x57, entry(stZeroPageX, opClassReadWrite, opSRE))
	set(0x5B, entry(stAbsoluteY, opClassReadWrite, opSRE))
	set(0x5F, entry(stAbsoluteX, opClassReadWrite, opSRE))
	// RRA
	set(0x63, entry(stIndexedIndirect, opClassReadWrite, opRRA))
	set(0x67, entry(stZeroPage, opClassReadWrite, opRRA))
	set(0x6F, entry(stAbsolute, opClassReadWrite, opRRA))
	set(0x73, entry(stIndirectIndexed, opClassReadWrite, opRRA))
	set(0x77, entry(stZeroPageX, opClassReadWrite, opRRA))
	set(0x7B, entry(stAbsoluteY, opClassReadWrite, opRRA))
	set(0x7F, entry(stAbsoluteX, opClassReadWrite, opRRA))
	// ANC/ALR/ARR/AXS
	set(0x0B, entry(stImmediateR, opClassRead, opANC))
	set(0x2B, entry(stImmediateR, opClassRead, opANC))
	set(0x4B, entry(stImmediateR, opClassRead, opALR))
	set(0x6B, entry(stImmediateR, opClassRead, opARR))
	set(0xCB, entry(stImmediateR, opClassRead, opAXS))
	// SHY/SHX
	set(0x9C, entry(stAbsoluteX, opClassSH, opSHY))
	set(0x9E, entry(stAbsoluteY, opClassSH, opSHX))
}

// decodeOpcode resolves a fetched opcode byte to the initial micro-state
// of the instruction it begins. It panics on an opcode no legal or
// documented-undocumented instruction uses — the 6502 decode matrix this
// core implements is total over every other byte value.
func decodeOpcode(opcode uint8) state {
	e := opcodeTable[opcode]
	if e.kind == stIllegal {
		panic(illegalOpcodeMessage(opcode))
	}
	if e.kind == stInt {
		return state{kind: stInt, interrupt: e.op}
	}
	return state{kind: e.kind, class: e.class, op: e.op}
}

