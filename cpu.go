package chip8

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
)

type ErrOpCodeUnknown struct {
	OpCode uint16
	Pc     uint16
}

func (err ErrOpCodeUnknown) Error() string {
	return fmt.Sprintf("unknown opcode=%04X at PC=0x%03X", err.OpCode, err.Pc)
}

var ErrStackUnderflow = errors.New("stack underflow: try to pop an empty stack")
var ErrStackOverflow = errors.New("stack overflow: try to push to a full stack")

// MachineRoutineInterpreter interpretes 0nnn instructions
type MachineRoutineInterpreter func(opCode OpCode, cpu *Cpu) error

// Chip-8 CPU
type Cpu struct {
	Memory *Memory
	// V 8-bit registers
	V [16]byte
	// I 16-bit register (12-bit usable)
	I uint16
	// Delay timer register
	Dt byte
	// Sound timer register
	St byte
	// Program counter
	Pc uint16
	// Stack pointer
	Sp byte
	// Stack
	Stack [16]uint16
	// OpCode is the last fetched instruction word
	OpCode OpCode

	// Keys is the keypad, written by the input collaborator between cycles
	Keys KeyboardState

	screen        Screen
	isScreenDirty bool

	quirks      Quirks
	frameTimers bool
	rand        *rand.Rand
	logger      *slog.Logger

	MachineRoutineInterpreter MachineRoutineInterpreter

	cycles    uint
	lastError error
}

type CpuConfig struct {
	// Memory to use instead of a new one
	Memory *Memory
	Quirks Quirks
	// Rand is the source for Cxkk. Each CPU gets its own when nil.
	Rand   *rand.Rand
	Logger *slog.Logger
	// FrameTimers stops Cycle from ticking the timers; the host calls TickTimers instead
	FrameTimers bool

	MachineRoutineInterpreter MachineRoutineInterpreter
}
type CpuConfigCb func(config *CpuConfig)

func NewCpu(configs ...CpuConfigCb) *Cpu {
	config := &CpuConfig{}
	for _, cb := range configs {
		cb(config)
	}

	if config.Memory == nil {
		config.Memory = NewMemory()
	}
	if config.Rand == nil {
		config.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	cpu := &Cpu{
		Memory: config.Memory,

		quirks:      config.Quirks,
		frameTimers: config.FrameTimers,
		rand:        config.Rand,
		logger:      config.Logger,

		MachineRoutineInterpreter: config.MachineRoutineInterpreter,
	}
	loadCharactersInto(cpu.Memory)
	cpu.Reset()

	return cpu
}

func (cpu *Cpu) Quirks() Quirks {
	return cpu.quirks
}

func (cpu *Cpu) SetQuirks(q Quirks) {
	cpu.quirks = q
}

func (cpu *Cpu) Cycles() uint {
	return cpu.cycles
}

func (cpu *Cpu) IsSoundTimerActive() bool {
	return cpu.St > 0
}

func (cpu *Cpu) IsDelayTimerActive() bool {
	return cpu.Dt > 0
}

// Screen returns the display buffer
func (cpu *Cpu) Screen() *Screen {
	return &cpu.screen
}

// LastError returns the error that halted the CPU, if any
func (cpu *Cpu) LastError() error {
	return cpu.lastError
}

// Reset puts the CPU back in its power-on state.
// Memory, and so the loaded program, is kept.
func (cpu *Cpu) Reset() {
	cpu.V = [16]byte{}
	cpu.I = 0
	cpu.Dt = 0
	cpu.St = 0
	cpu.Pc = startOfProgram
	cpu.Sp = 0
	cpu.Stack = [16]uint16{}
	cpu.OpCode = 0
	cpu.Keys = KeyboardState{}

	cpu.screen.Clear()
	cpu.isScreenDirty = true

	cpu.cycles = 0
	cpu.lastError = nil
}

// LoadProgram loads the program into memory and resets the CPU
func (cpu *Cpu) LoadProgram(program []byte) error {
	if err := cpu.Memory.LoadProgram(program); err != nil {
		return err
	}
	cpu.Reset()

	return nil
}

// LoadProgramFrom reads the whole program image from r and loads it
func (cpu *Cpu) LoadProgramFrom(r io.Reader) error {
	// One byte more than fits, so oversized images are detected without reading them whole
	program, err := io.ReadAll(io.LimitReader(r, MaxProgramSize+1))
	if err != nil {
		return fmt.Errorf("reading program: %w", err)
	}

	return cpu.LoadProgram(program)
}

// Cycle runs a single fetch-decode-execute iteration and ticks the timers.
// Once an instruction fails, the CPU halts: every call returns the same
// error until Reset or LoadProgram.
func (cpu *Cpu) Cycle() error {
	if cpu.lastError != nil {
		return cpu.lastError
	}

	if err := cpu.executeNextInstruction(); err != nil {
		cpu.lastError = err
		return err
	}
	cpu.cycles++

	if !cpu.frameTimers {
		cpu.TickTimers()
	}

	return nil
}

// TickTimers decrements both timers, stopping at zero
func (cpu *Cpu) TickTimers() {
	if cpu.Dt > 0 {
		cpu.Dt--
	}
	if cpu.St > 0 {
		cpu.St--
	}
}

func (cpu *Cpu) executeNextInstruction() error {
	hi, err := cpu.Memory.Read(cpu.Pc)
	if err != nil {
		return fmt.Errorf("fetching instruction: %w", err)
	}
	lo, err := cpu.Memory.Read(cpu.Pc + 1)
	if err != nil {
		return fmt.Errorf("fetching instruction: %w", err)
	}

	cpu.OpCode = OpCode(hi)<<8 | OpCode(lo)
	cpu.Pc += 2

	return cpu.executeInstruction(Decode(cpu.OpCode))
}

func (cpu *Cpu) executeInstruction(ins Instruction) error {
	if cpu.logger.Enabled(context.Background(), slog.LevelDebug) {
		cpu.logger.Debug(
			"exec",
			"pc", fmt.Sprintf("0x%03X", cpu.Pc-2),
			"opcode", ins.Code.String(),
			"instr", ins.String(),
		)
	}

	if ins.Op == OpUnknown {
		cpu.logger.Warn("ignoring instruction", slog.Any("error", ErrOpCodeUnknown{
			OpCode: uint16(ins.Code),
			Pc:     cpu.Pc - 2,
		}))
		return nil
	}

	return handlers[ins.Op](cpu, ins.Code)
}

func (cpu *Cpu) consumeScreenDirty() bool {
	dirty := cpu.isScreenDirty
	cpu.isScreenDirty = false

	return dirty
}

// CpuState is a copy of the registers of the CPU
type CpuState struct {
	OpCode OpCode
	Pc     uint16
	V      [16]byte
	I      uint16
	Sp     byte
	Stack  [16]uint16
	Dt     byte
	St     byte
	Keys   KeyboardState
	Cycles uint
}

func (cpu *Cpu) State() CpuState {
	return CpuState{
		OpCode: cpu.OpCode,
		Pc:     cpu.Pc,
		V:      cpu.V,
		I:      cpu.I,
		Sp:     cpu.Sp,
		Stack:  cpu.Stack,
		Dt:     cpu.Dt,
		St:     cpu.St,
		Keys:   cpu.Keys,
		Cycles: cpu.cycles,
	}
}

func bool2byte(b bool) byte {
	if b {
		return 1
	}

	return 0
}
