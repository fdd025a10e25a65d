package chip8

import "log/slog"

type handler func(cpu *Cpu, op OpCode) error

var handlers = [opCount]handler{
	OpSys:     opSys,
	OpCls:     opCls,
	OpRet:     opRet,
	OpJp:      opJp,
	OpCall:    opCall,
	OpSeByte:  opSeByte,
	OpSneByte: opSneByte,
	OpSeReg:   opSeReg,
	OpLdByte:  opLdByte,
	OpAddByte: opAddByte,
	OpLdReg:   opLdReg,
	OpOr:      opOr,
	OpAnd:     opAnd,
	OpXor:     opXor,
	OpAddReg:  opAddReg,
	OpSub:     opSub,
	OpShr:     opShr,
	OpSubn:    opSubn,
	OpShl:     opShl,
	OpSneReg:  opSneReg,
	OpLdI:     opLdI,
	OpJpV0:    opJpV0,
	OpRnd:     opRnd,
	OpDrw:     opDrw,
	OpSkp:     opSkp,
	OpSknp:    opSknp,
	OpLdVxDt:  opLdVxDt,
	OpLdVxK:   opLdVxK,
	OpLdDtVx:  opLdDtVx,
	OpLdStVx:  opLdStVx,
	OpAddI:    opAddI,
	OpLdF:     opLdF,
	OpLdB:     opLdB,
	OpLdIVx:   opLdIVx,
	OpLdVxI:   opLdVxI,
}

// SYS addr :: Jump to a machine code routine at nnn.
// Only used on the computers Chip-8 was originally implemented on; ignored
// unless a MachineRoutineInterpreter is installed.
func opSys(cpu *Cpu, op OpCode) error {
	if cpu.MachineRoutineInterpreter != nil {
		return cpu.MachineRoutineInterpreter(op, cpu)
	}

	cpu.logger.Debug("ignoring machine routine", slog.String("opcode", op.String()))

	return nil
}

// CLS :: Clear the display.
func opCls(cpu *Cpu, _ OpCode) error {
	cpu.screen.Clear()
	cpu.isScreenDirty = true

	return nil
}

// RET :: Return from a subroutine.
func opRet(cpu *Cpu, _ OpCode) error {
	if cpu.Sp == 0 {
		return ErrStackUnderflow
	}
	cpu.Sp--
	cpu.Pc = cpu.Stack[cpu.Sp]

	return nil
}

// JP addr :: Jump to location nnn.
func opJp(cpu *Cpu, op OpCode) error {
	cpu.Pc = op.NNN()

	return nil
}

// CALL addr :: Call subroutine at nnn.
func opCall(cpu *Cpu, op OpCode) error {
	if int(cpu.Sp) >= len(cpu.Stack) {
		return ErrStackOverflow
	}
	cpu.Stack[cpu.Sp] = cpu.Pc
	cpu.Sp++
	cpu.Pc = op.NNN()

	return nil
}

func (cpu *Cpu) skipIf(cond bool) {
	if cond {
		cpu.Pc += 2
	}
}

// SE Vx, byte :: Skip next instruction if Vx = kk.
func opSeByte(cpu *Cpu, op OpCode) error {
	cpu.skipIf(cpu.V[op.X()] == op.KK())

	return nil
}

// SNE Vx, byte :: Skip next instruction if Vx != kk.
func opSneByte(cpu *Cpu, op OpCode) error {
	cpu.skipIf(cpu.V[op.X()] != op.KK())

	return nil
}

// SE Vx, Vy :: Skip next instruction if Vx = Vy.
func opSeReg(cpu *Cpu, op OpCode) error {
	cpu.skipIf(cpu.V[op.X()] == cpu.V[op.Y()])

	return nil
}

// LD Vx, byte :: Set Vx = kk.
func opLdByte(cpu *Cpu, op OpCode) error {
	cpu.V[op.X()] = op.KK()

	return nil
}

// ADD Vx, byte :: Set Vx = Vx + kk.
func opAddByte(cpu *Cpu, op OpCode) error {
	x := op.X()
	r := uint16(cpu.V[x]) + uint16(op.KK())
	cpu.V[x] = byte(r)
	if cpu.quirks.Has(QuirkAddCarry) {
		cpu.V[0xF] = byte(r >> 8)
	}

	return nil
}

// LD Vx, Vy :: Set Vx = Vy.
func opLdReg(cpu *Cpu, op OpCode) error {
	cpu.V[op.X()] = cpu.V[op.Y()]

	return nil
}

// OR Vx, Vy :: Set Vx = Vx OR Vy.
func opOr(cpu *Cpu, op OpCode) error {
	cpu.V[op.X()] |= cpu.V[op.Y()]
	cpu.vfReset()

	return nil
}

// AND Vx, Vy :: Set Vx = Vx AND Vy.
func opAnd(cpu *Cpu, op OpCode) error {
	cpu.V[op.X()] &= cpu.V[op.Y()]
	cpu.vfReset()

	return nil
}

// XOR Vx, Vy :: Set Vx = Vx XOR Vy.
func opXor(cpu *Cpu, op OpCode) error {
	cpu.V[op.X()] ^= cpu.V[op.Y()]
	cpu.vfReset()

	return nil
}

func (cpu *Cpu) vfReset() {
	if cpu.quirks.Has(QuirkVfReset) {
		cpu.V[0xF] = 0
	}
}

// ADD Vx, Vy :: Set Vx = Vx + Vy, set VF = carry.
func opAddReg(cpu *Cpu, op OpCode) error {
	x, y := op.X(), op.Y()
	r := uint16(cpu.V[x]) + uint16(cpu.V[y])
	cpu.V[x] = byte(r)
	cpu.V[0xF] = byte(r >> 8)

	return nil
}

// SUB Vx, Vy :: Set Vx = Vx - Vy, set VF = Vx > Vy.
func opSub(cpu *Cpu, op OpCode) error {
	x, y := op.X(), op.Y()
	flag := cpu.V[x] > cpu.V[y]
	cpu.V[x] = cpu.V[x] - cpu.V[y]
	cpu.V[0xF] = bool2byte(flag)

	return nil
}

// SHR Vx {, Vy} :: Set Vx = Vx SHR 1.
func opShr(cpu *Cpu, op OpCode) error {
	x := op.X()
	if cpu.quirks.Has(QuirkShiftWithVy) {
		cpu.V[x] = cpu.V[op.Y()]
	}
	carry := cpu.V[x] & 0b00000001
	cpu.V[x] = cpu.V[x] >> 1
	cpu.V[0xF] = carry

	return nil
}

// SUBN Vx, Vy :: Set Vx = Vy - Vx, set VF = Vy > Vx.
func opSubn(cpu *Cpu, op OpCode) error {
	x, y := op.X(), op.Y()
	flag := cpu.V[y] > cpu.V[x]
	cpu.V[x] = cpu.V[y] - cpu.V[x]
	cpu.V[0xF] = bool2byte(flag)

	return nil
}

// SHL Vx {, Vy} :: Set Vx = Vx SHL 1.
func opShl(cpu *Cpu, op OpCode) error {
	x := op.X()
	if cpu.quirks.Has(QuirkShiftWithVy) {
		cpu.V[x] = cpu.V[op.Y()]
	}
	carry := (cpu.V[x] & 0b10000000) >> 7
	cpu.V[x] = cpu.V[x] << 1
	cpu.V[0xF] = carry

	return nil
}

// SNE Vx, Vy :: Skip next instruction if Vx != Vy.
func opSneReg(cpu *Cpu, op OpCode) error {
	cpu.skipIf(cpu.V[op.X()] != cpu.V[op.Y()])

	return nil
}

// LD I, addr :: Set I = nnn.
func opLdI(cpu *Cpu, op OpCode) error {
	cpu.I = op.NNN()

	return nil
}

// JP V0, addr :: Jump to location nnn + V0 (or xnn + Vx).
func opJpV0(cpu *Cpu, op OpCode) error {
	if cpu.quirks.Has(QuirkJumpUsesVx) {
		cpu.Pc = uint16(cpu.V[op.X()]) + op.NNN()
	} else {
		cpu.Pc = uint16(cpu.V[0]) + op.NNN()
	}

	return nil
}

// RND Vx, byte :: Set Vx = random byte AND kk.
func opRnd(cpu *Cpu, op OpCode) error {
	cpu.V[op.X()] = byte(cpu.rand.UintN(256)) & op.KK()

	return nil
}

// DRW Vx, Vy, nibble :: Display n-byte sprite starting at memory location I at (Vx, Vy), set VF = collision.
// Sprites are XORed onto the existing screen. If this causes any pixels to be
// erased, VF is set to 1, otherwise it is set to 0. Parts of the sprite
// outside the display wrap around to the opposite side.
func opDrw(cpu *Cpu, op OpCode) error {
	sprite, err := cpu.Memory.Slice(cpu.I, int(op.N()))
	if err != nil {
		return err
	}

	x, y := cpu.V[op.X()], cpu.V[op.Y()]
	cpu.V[0xF] = bool2byte(cpu.screen.drawSprite(x, y, sprite))
	cpu.isScreenDirty = true

	return nil
}

// SKP Vx :: Skip next instruction if key with the value of Vx is pressed.
func opSkp(cpu *Cpu, op OpCode) error {
	cpu.skipIf(cpu.Keys.IsPressed(cpu.V[op.X()]))

	return nil
}

// SKNP Vx :: Skip next instruction if key with the value of Vx is not pressed.
func opSknp(cpu *Cpu, op OpCode) error {
	cpu.skipIf(!cpu.Keys.IsPressed(cpu.V[op.X()]))

	return nil
}

// LD Vx, DT :: Set Vx = delay timer value.
func opLdVxDt(cpu *Cpu, op OpCode) error {
	cpu.V[op.X()] = cpu.Dt

	return nil
}

// LD Vx, K :: Wait for a key press, store the value of the key in Vx.
// Waiting is done by running the same instruction again on the next cycle.
func opLdVxK(cpu *Cpu, op OpCode) error {
	if k, pressed := cpu.Keys.FirstPressed(); pressed {
		cpu.V[op.X()] = k
	} else {
		cpu.Pc -= 2
	}

	return nil
}

// LD DT, Vx :: Set delay timer = Vx.
func opLdDtVx(cpu *Cpu, op OpCode) error {
	cpu.Dt = cpu.V[op.X()]

	return nil
}

// LD ST, Vx :: Set sound timer = Vx.
func opLdStVx(cpu *Cpu, op OpCode) error {
	cpu.St = cpu.V[op.X()]

	return nil
}

// ADD I, Vx :: Set I = I + Vx.
func opAddI(cpu *Cpu, op OpCode) error {
	cpu.I = cpu.I + uint16(cpu.V[op.X()])

	return nil
}

// LD F, Vx :: Set I = location of sprite for digit Vx.
func opLdF(cpu *Cpu, op OpCode) error {
	cpu.I = startOfFont + glyphSize*uint16(cpu.V[op.X()])

	return nil
}

// LD B, Vx :: Store BCD representation of Vx in memory locations I, I+1, and I+2.
func opLdB(cpu *Cpu, op OpCode) error {
	dst, err := cpu.Memory.Slice(cpu.I, 3)
	if err != nil {
		return err
	}

	v := cpu.V[op.X()]
	dst[0] = v / 100
	dst[1] = (v / 10) % 10
	dst[2] = v % 10

	return nil
}

// registerSpan is the number of registers moved by Fx55 and Fx65
func (cpu *Cpu) registerSpan(op OpCode) int {
	n := int(op.X())
	if cpu.quirks.Has(QuirkInclusiveLoadStore) {
		n++
	}

	return n
}

// LD [I], Vx :: Store registers V0 up to Vx in memory starting at location I.
func opLdIVx(cpu *Cpu, op OpCode) error {
	n := cpu.registerSpan(op)
	dst, err := cpu.Memory.Slice(cpu.I, n)
	if err != nil {
		return err
	}

	copy(dst, cpu.V[:n])
	if cpu.quirks.Has(QuirkMemoryMovesIndex) {
		cpu.I += uint16(n)
	}

	return nil
}

// LD Vx, [I] :: Read registers V0 up to Vx from memory starting at location I.
func opLdVxI(cpu *Cpu, op OpCode) error {
	n := cpu.registerSpan(op)
	src, err := cpu.Memory.Slice(cpu.I, n)
	if err != nil {
		return err
	}

	copy(cpu.V[:n], src)
	if cpu.quirks.Has(QuirkMemoryMovesIndex) {
		cpu.I += uint16(n)
	}

	return nil
}
