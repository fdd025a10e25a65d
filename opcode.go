package chip8

import "fmt"

// OpCode is a 16-bit instruction word
type OpCode uint16

// Family is the high nibble, which selects the instruction group
func (op OpCode) Family() byte {
	return byte((op & 0xF000) >> 12)
}

// X is the register index in bits 8-11
func (op OpCode) X() byte {
	return byte((op & 0x0F00) >> 8)
}

// Y is the register index in bits 4-7
func (op OpCode) Y() byte {
	return byte((op & 0x00F0) >> 4)
}

// N is the lowest nibble
func (op OpCode) N() byte {
	return byte(op & 0x000F)
}

// KK is the lowest byte
func (op OpCode) KK() byte {
	return byte(op & 0x00FF)
}

// NNN is the 12-bit address
func (op OpCode) NNN() uint16 {
	return uint16(op & 0x0FFF)
}

func (op OpCode) String() string {
	return fmt.Sprintf("%04X", uint16(op))
}

// Op identifies a decoded instruction
type Op byte

const (
	OpUnknown Op = iota
	OpSys
	OpCls
	OpRet
	OpJp
	OpCall
	OpSeByte
	OpSneByte
	OpSeReg
	OpLdByte
	OpAddByte
	OpLdReg
	OpOr
	OpAnd
	OpXor
	OpAddReg
	OpSub
	OpShr
	OpSubn
	OpShl
	OpSneReg
	OpLdI
	OpJpV0
	OpRnd
	OpDrw
	OpSkp
	OpSknp
	OpLdVxDt
	OpLdVxK
	OpLdDtVx
	OpLdStVx
	OpAddI
	OpLdF
	OpLdB
	OpLdIVx
	OpLdVxI

	opCount
)

// Instruction is a decoded opcode
type Instruction struct {
	Op   Op
	Code OpCode
}

// Decode maps an instruction word to the instruction it encodes.
// Words that do not encode any instruction decode to OpUnknown.
func Decode(code OpCode) Instruction {
	return Instruction{Op: decodeOp(code), Code: code}
}

func decodeOp(code OpCode) Op {
	switch code.Family() {
	case 0x0:
		switch code {
		case 0x00E0:
			return OpCls
		case 0x00EE:
			return OpRet
		default:
			return OpSys
		}
	case 0x1:
		return OpJp
	case 0x2:
		return OpCall
	case 0x3:
		return OpSeByte
	case 0x4:
		return OpSneByte
	case 0x5:
		if code.N() == 0 {
			return OpSeReg
		}
	case 0x6:
		return OpLdByte
	case 0x7:
		return OpAddByte
	case 0x8:
		switch code.N() {
		case 0x0:
			return OpLdReg
		case 0x1:
			return OpOr
		case 0x2:
			return OpAnd
		case 0x3:
			return OpXor
		case 0x4:
			return OpAddReg
		case 0x5:
			return OpSub
		case 0x6:
			return OpShr
		case 0x7:
			return OpSubn
		case 0xE:
			return OpShl
		}
	case 0x9:
		if code.N() == 0 {
			return OpSneReg
		}
	case 0xA:
		return OpLdI
	case 0xB:
		return OpJpV0
	case 0xC:
		return OpRnd
	case 0xD:
		return OpDrw
	case 0xE:
		switch code.KK() {
		case 0x9E:
			return OpSkp
		case 0xA1:
			return OpSknp
		}
	case 0xF:
		switch code.KK() {
		case 0x07:
			return OpLdVxDt
		case 0x0A:
			return OpLdVxK
		case 0x15:
			return OpLdDtVx
		case 0x18:
			return OpLdStVx
		case 0x1E:
			return OpAddI
		case 0x29:
			return OpLdF
		case 0x33:
			return OpLdB
		case 0x55:
			return OpLdIVx
		case 0x65:
			return OpLdVxI
		}
	}

	return OpUnknown
}

// String disassembles the instruction using the usual mnemonics
func (ins Instruction) String() string {
	c := ins.Code
	x, y := c.X(), c.Y()

	switch ins.Op {
	case OpSys:
		return fmt.Sprintf("SYS 0x%03X", c.NNN())
	case OpCls:
		return "CLS"
	case OpRet:
		return "RET"
	case OpJp:
		return fmt.Sprintf("JP 0x%03X", c.NNN())
	case OpCall:
		return fmt.Sprintf("CALL 0x%03X", c.NNN())
	case OpSeByte:
		return fmt.Sprintf("SE V%X, 0x%02X", x, c.KK())
	case OpSneByte:
		return fmt.Sprintf("SNE V%X, 0x%02X", x, c.KK())
	case OpSeReg:
		return fmt.Sprintf("SE V%X, V%X", x, y)
	case OpLdByte:
		return fmt.Sprintf("LD V%X, 0x%02X", x, c.KK())
	case OpAddByte:
		return fmt.Sprintf("ADD V%X, 0x%02X", x, c.KK())
	case OpLdReg:
		return fmt.Sprintf("LD V%X, V%X", x, y)
	case OpOr:
		return fmt.Sprintf("OR V%X, V%X", x, y)
	case OpAnd:
		return fmt.Sprintf("AND V%X, V%X", x, y)
	case OpXor:
		return fmt.Sprintf("XOR V%X, V%X", x, y)
	case OpAddReg:
		return fmt.Sprintf("ADD V%X, V%X", x, y)
	case OpSub:
		return fmt.Sprintf("SUB V%X, V%X", x, y)
	case OpShr:
		return fmt.Sprintf("SHR V%X", x)
	case OpSubn:
		return fmt.Sprintf("SUBN V%X, V%X", x, y)
	case OpShl:
		return fmt.Sprintf("SHL V%X", x)
	case OpSneReg:
		return fmt.Sprintf("SNE V%X, V%X", x, y)
	case OpLdI:
		return fmt.Sprintf("LD I, 0x%03X", c.NNN())
	case OpJpV0:
		return fmt.Sprintf("JP V0, 0x%03X", c.NNN())
	case OpRnd:
		return fmt.Sprintf("RND V%X, 0x%02X", x, c.KK())
	case OpDrw:
		return fmt.Sprintf("DRW V%X, V%X, %d", x, y, c.N())
	case OpSkp:
		return fmt.Sprintf("SKP V%X", x)
	case OpSknp:
		return fmt.Sprintf("SKNP V%X", x)
	case OpLdVxDt:
		return fmt.Sprintf("LD V%X, DT", x)
	case OpLdVxK:
		return fmt.Sprintf("LD V%X, K", x)
	case OpLdDtVx:
		return fmt.Sprintf("LD DT, V%X", x)
	case OpLdStVx:
		return fmt.Sprintf("LD ST, V%X", x)
	case OpAddI:
		return fmt.Sprintf("ADD I, V%X", x)
	case OpLdF:
		return fmt.Sprintf("LD F, V%X", x)
	case OpLdB:
		return fmt.Sprintf("LD B, V%X", x)
	case OpLdIVx:
		return fmt.Sprintf("LD [I], V%X", x)
	case OpLdVxI:
		return fmt.Sprintf("LD V%X, [I]", x)
	}

	return fmt.Sprintf("DW 0x%04X", uint16(c))
}
