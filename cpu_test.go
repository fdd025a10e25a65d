package chip8_test

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/guslan/chip8"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestCpu(configs ...chip8.CpuConfigCb) *chip8.Cpu {
	return chip8.NewCpu(append([]chip8.CpuConfigCb{func(config *chip8.CpuConfig) {
		config.Logger = quietLogger
		config.Rand = rand.New(rand.NewPCG(1, 2))
	}}, configs...)...)
}

func runNCycles(cpu *chip8.Cpu, program []byte, n int) error {
	if err := cpu.LoadProgram(program); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		if err := cpu.Cycle(); err != nil {
			return err
		}
	}

	return nil
}

func mustRun(t *testing.T, cpu *chip8.Cpu, program []byte, n int) {
	t.Helper()

	if err := runNCycles(cpu, program, n); err != nil {
		t.Fatalf(`Cycle() returned an error %v`, err)
	}
}

func assertVxEq(t *testing.T, msg string, cpu *chip8.Cpu, x, kk byte) {
	t.Helper()

	if cpu.V[x] != kk {
		t.Fatalf(`%s: cpu.V[%X] = %d, expected %d`, msg, x, cpu.V[x], kk)
	}
}

func assertPcEq(t *testing.T, cpu *chip8.Cpu, pc uint16) {
	t.Helper()

	if cpu.Pc != pc {
		t.Fatalf(`cpu.Pc = 0x%03X, expected 0x%03X`, cpu.Pc, pc)
	}
}

func TestNewCpu(t *testing.T) {
	cpu := newTestCpu()

	assertPcEq(t, cpu, 0x200)
	if cpu.I != 0 || cpu.Sp != 0 || cpu.Dt != 0 || cpu.St != 0 {
		t.Fatalf(`registers not zeroed: I=%d Sp=%d Dt=%d St=%d`, cpu.I, cpu.Sp, cpu.Dt, cpu.St)
	}
	if diff := cmp.Diff([16]byte{}, cpu.V); diff != "" {
		t.Fatalf("V: (-want, +got)\n%s", diff)
	}

	font := chip8.Font()
	if diff := cmp.Diff(font[:], cpu.Memory[0x50:0xA0]); diff != "" {
		t.Fatalf("font: (-want, +got)\n%s", diff)
	}
	if diff := cmp.Diff(make([]byte, 0x50), cpu.Memory[:0x50]); diff != "" {
		t.Fatalf("reserved area: (-want, +got)\n%s", diff)
	}
	if !cpu.Screen().IsBlank() {
		t.Fatal(`screen is not blank`)
	}
}

func TestProgramLoading(t *testing.T) {
	tests := []struct {
		name    string
		rom     []byte
		wantErr bool
	}{
		{
			name:    "empty",
			rom:     []byte{},
			wantErr: false,
		},
		{
			name:    "fills memory",
			rom:     bytes.Repeat([]byte{0xAB}, 4096-0x200),
			wantErr: false,
		},
		{
			name:    "too big",
			rom:     make([]byte, 4096-0x200+1),
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cpu := newTestCpu()
			err := cpu.LoadProgram(tt.rom)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadProgram() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, chip8.ErrProgramDoesNotFitIntoMemory) {
					t.Fatalf("LoadProgram() error = %v, expected ErrProgramDoesNotFitIntoMemory", err)
				}
				return
			}
			if diff := cmp.Diff(tt.rom, cpu.Memory[0x200:0x200+len(tt.rom)]); diff != "" {
				t.Fatalf("program: (-want, +got)\n%s", diff)
			}
		})
	}
}

func TestFailedLoadKeepsState(t *testing.T) {
	cpu := newTestCpu()
	if err := cpu.LoadProgram([]byte{0x60, 0x01}); err != nil {
		t.Fatal(err)
	}
	before := cpu.Memory.Clone()

	if err := cpu.LoadProgram(make([]byte, 5000)); err == nil {
		t.Fatal(`expected an error`)
	}
	if !cpu.Memory.IsEqual(*before) {
		t.Fatal(`memory changed after a failed load`)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("disk on fire")
}

func TestLoadProgramFrom(t *testing.T) {
	cpu := newTestCpu()

	if err := cpu.LoadProgramFrom(bytes.NewReader([]byte{0x12, 0x34})); err != nil {
		t.Fatal(err)
	}
	if cpu.Memory[0x200] != 0x12 || cpu.Memory[0x201] != 0x34 {
		t.Fatalf(`program not loaded: %X %X`, cpu.Memory[0x200], cpu.Memory[0x201])
	}

	if err := cpu.LoadProgramFrom(failingReader{}); err == nil {
		t.Fatal(`expected a read error`)
	}
	if cpu.Memory[0x200] != 0x12 {
		t.Fatal(`memory changed after a failed read`)
	}

	err := cpu.LoadProgramFrom(bytes.NewReader(make([]byte, 4096)))
	if !errors.Is(err, chip8.ErrProgramDoesNotFitIntoMemory) {
		t.Fatalf(`LoadProgramFrom() error = %v, expected ErrProgramDoesNotFitIntoMemory`, err)
	}
}

func TestEndToEndAddition(t *testing.T) {
	cpu := newTestCpu()

	mustRun(t, cpu, []byte{
		0x60, 0x05,
		0x61, 0x03,
		0x80, 0x14,
	}, 3)

	assertVxEq(t, "V0", cpu, 0x0, 8)
	assertVxEq(t, "VF", cpu, 0xF, 0)
	assertPcEq(t, cpu, 0x206)
}

func TestConstantSetInstructions(t *testing.T) {
	for x := byte(0); x < 16; x++ {
		cpu := newTestCpu()
		for i := range cpu.V {
			cpu.V[i] = 0xEE
		}
		want := cpu.V
		want[x] = 0x42

		cpu.Pc = 0x200
		cpu.Memory[0x200] = 0x60 | x
		cpu.Memory[0x201] = 0x42
		if err := cpu.Cycle(); err != nil {
			t.Fatal(err)
		}

		if diff := cmp.Diff(want, cpu.V); diff != "" {
			t.Fatalf("6%Xkk: (-want, +got)\n%s", x, diff)
		}
	}
}

func TestAddByte(t *testing.T) {
	cpu := newTestCpu()

	mustRun(t, cpu, []byte{
		0x6F, 0x07,
		0x62, 0xFF,
		0x72, 0x03,
	}, 3)

	assertVxEq(t, "wraps", cpu, 0x2, 0x02)
	assertVxEq(t, "VF untouched", cpu, 0xF, 0x07)
}

func TestAddByteCarryQuirk(t *testing.T) {
	cpu := newTestCpu(func(config *chip8.CpuConfig) {
		config.Quirks = chip8.QuirkAddCarry
	})

	mustRun(t, cpu, []byte{
		0x62, 0xFF,
		0x72, 0x03,
	}, 2)

	assertVxEq(t, "wraps", cpu, 0x2, 0x02)
	assertVxEq(t, "carry", cpu, 0xF, 0x01)
}

func TestSimpleSkips(t *testing.T) {
	cpu := newTestCpu()

	program := []byte{
		// set v0 to 128
		0x60, 128,
		// set v1 to 16
		0x61, 16,
		// set v2 to 128
		0x62, 128,

		// if v0 == 128, do not set v3 to 1
		0x30, 128,
		0x63, 1,

		// if v0 == 16, do not set vA to 1
		0x30, 16,
		0x6A, 1,

		// if v0 != 128, do not set v4 to 1
		0x40, 128,
		0x64, 1,

		// if v0 != 16, do not set vB to 1
		0x40, 16,
		0x6B, 1,

		// if v0 == v1, do not set v5 to 1
		0x50, 0x10,
		0x65, 1,

		// if v0 == v2, do not set v6 to 1
		0x50, 0x20,
		0x66, 1,

		// if v0 != v1, do not set v7 to 1
		0x90, 0x10,
		0x67, 1,

		// if v0 != v2, do not set v8 to 1
		0x90, 0x20,
		0x68, 1,
	}
	mustRun(t, cpu, program, 15)

	assertVxEq(t, "SE Vx kk true", cpu, 0x3, 0x0)
	assertVxEq(t, "SE Vx kk false", cpu, 0xA, 0x1)
	assertVxEq(t, "SNE Vx kk true", cpu, 0xB, 0x0)
	assertVxEq(t, "SNE Vx kk false", cpu, 0x4, 0x1)
	assertVxEq(t, "SE Vx Vy true", cpu, 0x6, 0x0)
	assertVxEq(t, "SE Vx Vy false", cpu, 0x5, 0x1)
	assertVxEq(t, "SNE Vx Vy true", cpu, 0x7, 0x0)
	assertVxEq(t, "SNE Vx Vy false", cpu, 0x8, 0x1)
	assertPcEq(t, cpu, 0x200+uint16(len(program)))
}

func TestRegisterOperations(t *testing.T) {
	tests := []struct {
		name   string
		op     byte
		vx, vy byte
		want   byte
		wantVF byte
	}{
		{"LD", 0x0, 0x12, 0x34, 0x34, 0xAA},
		{"OR", 0x1, 0b1100, 0b1010, 0b1110, 0xAA},
		{"AND", 0x2, 0b1100, 0b1010, 0b1000, 0xAA},
		{"XOR", 0x3, 0b1100, 0b1010, 0b0110, 0xAA},
		{"ADD with carry", 0x4, 200, 100, 44, 1},
		{"ADD without carry", 0x4, 10, 10, 20, 0},
		{"SUB without borrow", 0x5, 10, 3, 7, 1},
		{"SUB with borrow", 0x5, 5, 10, 251, 0},
		{"SUB equal", 0x5, 7, 7, 0, 0},
		{"SHR odd", 0x6, 0b101, 0, 0b10, 1},
		{"SHR even", 0x6, 0b100, 0, 0b10, 0},
		{"SUBN without borrow", 0x7, 3, 10, 7, 1},
		{"SUBN with borrow", 0x7, 10, 5, 251, 0},
		{"SHL high bit", 0xE, 0b10000001, 0, 0b00000010, 1},
		{"SHL no high bit", 0xE, 0b01000001, 0, 0b10000010, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cpu := newTestCpu()

			mustRun(t, cpu, []byte{
				0x63, tt.vx,
				0x64, tt.vy,
				0x6F, 0xAA,
				0x83, 0x40 | tt.op,
			}, 4)

			assertVxEq(t, "Vx", cpu, 0x3, tt.want)
			assertVxEq(t, "Vy", cpu, 0x4, tt.vy)
			assertVxEq(t, "VF", cpu, 0xF, tt.wantVF)
		})
	}
}

func TestFlagIsWrittenLast(t *testing.T) {
	cpu := newTestCpu()

	// VF = 200; VF += 100
	mustRun(t, cpu, []byte{
		0x6F, 200,
		0x61, 100,
		0x8F, 0x14,
	}, 3)

	assertVxEq(t, "VF", cpu, 0xF, 1)
}

func TestShiftQuirk(t *testing.T) {
	cpu := newTestCpu(func(config *chip8.CpuConfig) {
		config.Quirks = chip8.QuirkShiftWithVy
	})

	mustRun(t, cpu, []byte{
		0x61, 0x00,
		0x62, 0b11,
		0x81, 0x26,
	}, 3)

	assertVxEq(t, "V1", cpu, 0x1, 0b1)
	assertVxEq(t, "VF", cpu, 0xF, 1)
}

func TestVfResetQuirk(t *testing.T) {
	cpu := newTestCpu(func(config *chip8.CpuConfig) {
		config.Quirks = chip8.QuirkVfReset
	})

	mustRun(t, cpu, []byte{
		0x6F, 0x09,
		0x81, 0x21,
	}, 2)

	assertVxEq(t, "VF", cpu, 0xF, 0)
}

func TestJumps(t *testing.T) {
	cpu := newTestCpu()

	mustRun(t, cpu, []byte{0x13, 0x45}, 1)
	assertPcEq(t, cpu, 0x345)

	mustRun(t, cpu, []byte{
		0x60, 0x10,
		0xB3, 0x00,
	}, 2)
	assertPcEq(t, cpu, 0x310)
}

func TestJumpUsesVxQuirk(t *testing.T) {
	cpu := newTestCpu(func(config *chip8.CpuConfig) {
		config.Quirks = chip8.QuirkJumpUsesVx
	})

	mustRun(t, cpu, []byte{
		0x60, 0x10,
		0x63, 0x02,
		0xB3, 0x00,
	}, 3)
	assertPcEq(t, cpu, 0x302)
}

func TestCallAndReturn(t *testing.T) {
	cpu := newTestCpu()

	program := []byte{
		// 0x200: call 0x206
		0x22, 0x06,
		// 0x202: set v1 to 1
		0x61, 0x01,
		// 0x204: loop
		0x12, 0x04,
		// 0x206: set v0 to 1 and return
		0x60, 0x01,
		0x00, 0xEE,
	}

	mustRun(t, cpu, program, 1)
	assertPcEq(t, cpu, 0x206)
	if cpu.Sp != 1 || cpu.Stack[0] != 0x202 {
		t.Fatalf(`stack: Sp=%d Stack[0]=0x%03X`, cpu.Sp, cpu.Stack[0])
	}

	for i := 0; i < 2; i++ {
		if err := cpu.Cycle(); err != nil {
			t.Fatal(err)
		}
	}
	assertPcEq(t, cpu, 0x202)
	if cpu.Sp != 0 {
		t.Fatalf(`cpu.Sp = %d, expected 0`, cpu.Sp)
	}

	mustRun(t, cpu, program, 5)
	assertVxEq(t, "V0", cpu, 0x0, 1)
	assertVxEq(t, "V1", cpu, 0x1, 1)
}

func TestStackErrors(t *testing.T) {
	cpu := newTestCpu()

	// call itself forever
	err := runNCycles(cpu, []byte{0x22, 0x00}, 17)
	if !errors.Is(err, chip8.ErrStackOverflow) {
		t.Fatalf(`expected a stack overflow, got %v`, err)
	}
	if cpu.Sp != 16 {
		t.Fatalf(`cpu.Sp = %d, expected 16`, cpu.Sp)
	}

	// the CPU stays halted
	if err := cpu.Cycle(); !errors.Is(err, chip8.ErrStackOverflow) {
		t.Fatalf(`expected the CPU to stay halted, got %v`, err)
	}

	err = runNCycles(cpu, []byte{0x00, 0xEE}, 1)
	if !errors.Is(err, chip8.ErrStackUnderflow) {
		t.Fatalf(`expected a stack underflow, got %v`, err)
	}
}

func TestIndexInstructions(t *testing.T) {
	cpu := newTestCpu()

	mustRun(t, cpu, []byte{
		0xA1, 0x23,
		0x60, 0x10,
		0xF0, 0x1E,
	}, 3)
	if cpu.I != 0x133 {
		t.Fatalf(`cpu.I = 0x%03X, expected 0x133`, cpu.I)
	}

	mustRun(t, cpu, []byte{
		0x60, 0x0A,
		0xF0, 0x29,
	}, 2)
	if cpu.I != 0x50+5*0xA {
		t.Fatalf(`cpu.I = 0x%03X, expected 0x%03X`, cpu.I, 0x50+5*0xA)
	}
}

func TestAddIndexDoesNotWrapAt12Bits(t *testing.T) {
	cpu := newTestCpu()

	mustRun(t, cpu, []byte{
		0xAF, 0xFF,
		0x60, 0x02,
		0xF0, 0x1E,
	}, 3)
	if cpu.I != 0x1001 {
		t.Fatalf(`cpu.I = 0x%04X, expected 0x1001`, cpu.I)
	}
	assertVxEq(t, "VF", cpu, 0xF, 0)
}

func TestBCD(t *testing.T) {
	tests := []struct {
		value byte
		want  []byte
	}{
		{0, []byte{0, 0, 0}},
		{7, []byte{0, 0, 7}},
		{42, []byte{0, 4, 2}},
		{109, []byte{1, 0, 9}},
		{255, []byte{2, 5, 5}},
	}
	for _, tt := range tests {
		cpu := newTestCpu()
		mustRun(t, cpu, []byte{
			0xA3, 0x00,
			0x65, tt.value,
			0xF5, 0x33,
		}, 3)

		if diff := cmp.Diff(tt.want, cpu.Memory[0x300:0x303]); diff != "" {
			t.Fatalf("BCD of %d: (-want, +got)\n%s", tt.value, diff)
		}
	}
}

func TestStoreAndLoadRegisters(t *testing.T) {
	cpu := newTestCpu()

	mustRun(t, cpu, []byte{
		0x60, 0x11,
		0x61, 0x22,
		0x62, 0x33,
		0x63, 0x44,
		0xA4, 0x00,
		// store V0..V2
		0xF3, 0x55,
	}, 6)

	if diff := cmp.Diff([]byte{0x11, 0x22, 0x33, 0x00}, cpu.Memory[0x400:0x404]); diff != "" {
		t.Fatalf("Fx55 stores V0..V(x-1): (-want, +got)\n%s", diff)
	}
	if cpu.I != 0x400 {
		t.Fatalf(`cpu.I = 0x%03X, expected 0x400`, cpu.I)
	}

	want := cpu.V
	for i := 0; i < 4; i++ {
		cpu.V[i] = 0
	}
	cpu.V[3] = 0x44
	cpu.Pc = 0x200
	cpu.Memory[0x200] = 0xF3
	cpu.Memory[0x201] = 0x65
	if err := cpu.Cycle(); err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(want, cpu.V); diff != "" {
		t.Fatalf("Fx65 round trip: (-want, +got)\n%s", diff)
	}
}

func TestInclusiveLoadStoreQuirk(t *testing.T) {
	cpu := newTestCpu(func(config *chip8.CpuConfig) {
		config.Quirks = chip8.QuirkInclusiveLoadStore | chip8.QuirkMemoryMovesIndex
	})

	mustRun(t, cpu, []byte{
		0x60, 0x11,
		0x61, 0x22,
		0xA4, 0x00,
		0xF1, 0x55,
	}, 4)

	if diff := cmp.Diff([]byte{0x11, 0x22}, cpu.Memory[0x400:0x402]); diff != "" {
		t.Fatalf("Fx55 stores V0..Vx: (-want, +got)\n%s", diff)
	}
	if cpu.I != 0x402 {
		t.Fatalf(`cpu.I = 0x%03X, expected 0x402`, cpu.I)
	}
}

func TestMemoryOutOfBounds(t *testing.T) {
	tests := []struct {
		name    string
		program []byte
	}{
		{"store past the end", []byte{0xAF, 0xFE, 0xF3, 0x55}},
		{"BCD past the end", []byte{0xAF, 0xFE, 0xF0, 0x33}},
		{"sprite past the end", []byte{0xAF, 0xFF, 0xD0, 0x02}},
		{"load past the end", []byte{0xAF, 0xFF, 0xF2, 0x65}},
		{"fetch past the end", []byte{0x1F, 0xFF}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cpu := newTestCpu()
			err := runNCycles(cpu, tt.program, 3)
			if !errors.Is(err, chip8.ErrMemoryOutOfBounds) {
				t.Fatalf(`expected ErrMemoryOutOfBounds, got %v`, err)
			}
		})
	}
}

func TestRandom(t *testing.T) {
	program := []byte{
		0xC0, 0x0F,
		0xC1, 0xF0,
		0xC2, 0x00,
		0xC3, 0xFF,
	}

	a := newTestCpu()
	mustRun(t, a, program, 4)
	b := newTestCpu()
	mustRun(t, b, program, 4)

	if a.V != b.V {
		t.Fatalf(`same seed gave different values: %v and %v`, a.V, b.V)
	}
	if a.V[0]&0xF0 != 0 || a.V[1]&0x0F != 0 {
		t.Fatalf(`random values not masked: V0=%X V1=%X`, a.V[0], a.V[1])
	}
	assertVxEq(t, "masked with 0", a, 0x2, 0)
}

func TestTimers(t *testing.T) {
	cpu := newTestCpu()

	mustRun(t, cpu, []byte{
		0x60, 0x03,
		0xF0, 0x15,
		0xF0, 0x18,
		0xF1, 0x07,
	}, 4)

	// two ticks happen between Fx15 and Fx07
	assertVxEq(t, "V1", cpu, 0x1, 1)
	if cpu.St != 1 {
		t.Fatalf(`cpu.St = %d, expected 1`, cpu.St)
	}
}

func TestTimerFloor(t *testing.T) {
	cpu := newTestCpu()
	program := []byte{0x12, 0x00}
	if err := cpu.LoadProgram(program); err != nil {
		t.Fatal(err)
	}
	cpu.Dt = 1
	cpu.St = 1

	for i := 0; i < 10; i++ {
		if err := cpu.Cycle(); err != nil {
			t.Fatal(err)
		}
		if cpu.Dt != 0 || cpu.St != 0 {
			t.Fatalf(`timers after %d cycles: Dt=%d St=%d`, i+1, cpu.Dt, cpu.St)
		}
	}
}

func TestFrameTimers(t *testing.T) {
	cpu := newTestCpu(func(config *chip8.CpuConfig) {
		config.FrameTimers = true
	})

	mustRun(t, cpu, []byte{
		0x60, 0x03,
		0xF0, 0x15,
		0x12, 0x04,
	}, 10)

	if cpu.Dt != 3 {
		t.Fatalf(`cpu.Dt = %d, expected 3`, cpu.Dt)
	}
	cpu.TickTimers()
	if cpu.Dt != 2 {
		t.Fatalf(`cpu.Dt = %d, expected 2`, cpu.Dt)
	}
}

func TestKeyInstructions(t *testing.T) {
	cpu := newTestCpu()

	program := []byte{
		0x60, 0x05,
		// skip if key 5 is down
		0xE0, 0x9E,
		0x61, 0x01,
		// skip if key 5 is up
		0xE0, 0xA1,
		0x62, 0x01,
	}
	if err := cpu.LoadProgram(program); err != nil {
		t.Fatal(err)
	}
	cpu.Keys[5] = true
	for i := 0; i < 4; i++ {
		if err := cpu.Cycle(); err != nil {
			t.Fatal(err)
		}
	}

	assertVxEq(t, "SKP taken", cpu, 0x1, 0)
	assertVxEq(t, "SKNP not taken", cpu, 0x2, 1)
}

func TestWaitForKey(t *testing.T) {
	cpu := newTestCpu()

	if err := cpu.LoadProgram([]byte{0xF3, 0x0A}); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 5; i++ {
		if err := cpu.Cycle(); err != nil {
			t.Fatal(err)
		}
		assertPcEq(t, cpu, 0x200)
	}

	cpu.Keys[0xC] = true
	cpu.Keys[0x9] = true
	if err := cpu.Cycle(); err != nil {
		t.Fatal(err)
	}
	assertPcEq(t, cpu, 0x202)
	assertVxEq(t, "lowest key down", cpu, 0x3, 0x9)
}

func TestUnknownOpcodeIsIgnored(t *testing.T) {
	logs := &bytes.Buffer{}
	cpu := newTestCpu(func(config *chip8.CpuConfig) {
		config.Logger = slog.New(slog.NewTextHandler(logs, nil))
	})

	mustRun(t, cpu, []byte{
		0xFF, 0xFF,
		0x80, 0x08,
		0xE0, 0x00,
		0x60, 0x01,
	}, 4)

	assertVxEq(t, "V0", cpu, 0x0, 1)
	assertPcEq(t, cpu, 0x208)
	if !bytes.Contains(logs.Bytes(), []byte("unknown opcode=FFFF")) {
		t.Fatalf(`unknown opcode not logged: %s`, logs.String())
	}
}

func TestMachineRoutineInterpreter(t *testing.T) {
	var called []chip8.OpCode
	cpu := newTestCpu(func(config *chip8.CpuConfig) {
		config.MachineRoutineInterpreter = func(op chip8.OpCode, cpu *chip8.Cpu) error {
			called = append(called, op)
			return nil
		}
	})

	mustRun(t, cpu, []byte{0x01, 0x23}, 1)

	if diff := cmp.Diff([]chip8.OpCode{0x0123}, called); diff != "" {
		t.Fatalf("routines: (-want, +got)\n%s", diff)
	}
}

func TestClearScreen(t *testing.T) {
	cpu := newTestCpu()

	mustRun(t, cpu, []byte{
		// draw the 8 glyph at 0,0 and at 60,30
		0x60, 0x08,
		0xF0, 0x29,
		0xD1, 0x15,
		0x61, 60,
		0x62, 30,
		0xD1, 0x25,
		0x00, 0xE0,
	}, 7)

	if diff := cmp.Diff(chip8.Screen{}, *cpu.Screen()); diff != "" {
		t.Fatalf("screen: (-want, +got)\n%s", diff)
	}
}

func TestDrawTwiceClears(t *testing.T) {
	cpu := newTestCpu()

	program := []byte{
		0x60, 0x0F,
		0xF0, 0x29,
		0x61, 10,
		0x62, 5,
		0xD1, 0x25,
	}
	mustRun(t, cpu, program, 5)
	assertVxEq(t, "first draw", cpu, 0xF, 0)
	// F glyph: 4 + 1 + 4 + 1 + 1 pixels
	if lit := cpu.Screen().Lit(); lit != 11 {
		t.Fatalf(`%d pixels lit, expected 11`, lit)
	}
	if cpu.Screen().Pixel(10, 5) != 1 || cpu.Screen().Pixel(14, 5) != 0 {
		t.Fatal(`glyph drawn at the wrong position`)
	}

	cpu.Pc = 0x208
	if err := cpu.Cycle(); err != nil {
		t.Fatal(err)
	}
	assertVxEq(t, "second draw", cpu, 0xF, 1)
	if !cpu.Screen().IsBlank() {
		t.Fatalf("screen is not blank:\n%s", cpu.Screen())
	}
}

func TestDrawWithoutCollisionClearsFlag(t *testing.T) {
	cpu := newTestCpu()

	program := []byte{
		0x6F, 0x01,
		0xA0, 0x50,
		0xD0, 0x05,
	}
	mustRun(t, cpu, program, 2)
	assertVxEq(t, "VF before the draw", cpu, 0xF, 1)

	if err := cpu.Cycle(); err != nil {
		t.Fatal(err)
	}
	assertVxEq(t, "VF after a draw on a blank screen", cpu, 0xF, 0)
	// 0 glyph: 4 + 2 + 2 + 2 + 4 pixels
	if lit := cpu.Screen().Lit(); lit != 14 {
		t.Fatalf(`%d pixels lit, expected 14`, lit)
	}
}

func TestDrawWrapsAround(t *testing.T) {
	cpu := newTestCpu()

	mustRun(t, cpu, []byte{
		0xA3, 0x00,
		// 62 + 64, 31 + 32: coordinates are taken modulo the screen size
		0x60, 126,
		0x61, 63,
		0xD0, 0x12,
	}, 4)
	// sprite: two rows of 0b11000011 at 0x300
	cpu.Memory[0x300] = 0b11000011
	cpu.Memory[0x301] = 0b11000011
	cpu.Pc = 0x206
	if err := cpu.Cycle(); err != nil {
		t.Fatal(err)
	}

	for _, p := range [][2]int{{62, 31}, {63, 31}, {4, 31}, {5, 31}, {62, 0}, {63, 0}, {4, 0}, {5, 0}} {
		if cpu.Screen().Pixel(p[0], p[1]) != 1 {
			t.Fatalf("pixel %v is off:\n%s", p, cpu.Screen())
		}
	}
	if lit := cpu.Screen().Lit(); lit != 8 {
		t.Fatalf(`%d pixels lit, expected 8`, lit)
	}
}

func TestResetKeepsProgram(t *testing.T) {
	cpu := newTestCpu()

	mustRun(t, cpu, []byte{
		0x60, 0x05,
		0x22, 0x00,
	}, 2)
	cpu.Reset()

	assertPcEq(t, cpu, 0x200)
	assertVxEq(t, "V0", cpu, 0x0, 0)
	if cpu.Sp != 0 || cpu.Cycles() != 0 {
		t.Fatalf(`Sp=%d Cycles=%d after reset`, cpu.Sp, cpu.Cycles())
	}
	if cpu.Memory[0x200] != 0x60 {
		t.Fatal(`program was lost`)
	}
}
