package chip8

import (
	"errors"
	"fmt"
	"strings"
)

var ErrProgramDoesNotFitIntoMemory = errors.New("the program does not fit into memory")
var ErrMemoryOutOfBounds = errors.New("memory access out of bounds")

const (
	MEMORY_SIZE = 4096

	startOfFont    = 0x050
	startOfProgram = 0x200

	// glyphSize is the number of bytes (rows) of each font character
	glyphSize = 5
)

// MaxProgramSize is the largest program image that fits in memory
const MaxProgramSize = MEMORY_SIZE - startOfProgram

// font holds the 4x5 sprites for the hexadecimal digits 0-F
var font = [16 * glyphSize]byte{
	// 0
	0xF0, 0x90, 0x90, 0x90, 0xF0,
	// 1
	0x20, 0x60, 0x20, 0x20, 0x70,
	// 2
	0xF0, 0x10, 0xF0, 0x80, 0xF0,
	// 3
	0xF0, 0x10, 0xF0, 0x10, 0xF0,
	// 4
	0x90, 0x90, 0xF0, 0x10, 0x10,
	// 5
	0xF0, 0x80, 0xF0, 0x10, 0xF0,
	// 6
	0xF0, 0x80, 0xF0, 0x90, 0xF0,
	// 7
	0xF0, 0x10, 0x20, 0x40, 0x40,
	// 8
	0xF0, 0x90, 0xF0, 0x90, 0xF0,
	// 9
	0xF0, 0x90, 0xF0, 0x10, 0xF0,
	// A
	0xF0, 0x90, 0xF0, 0x90, 0x90,
	// B
	0xE0, 0x90, 0xE0, 0x90, 0xE0,
	// C
	0xF0, 0x80, 0x80, 0x80, 0xF0,
	// D
	0xE0, 0x90, 0x90, 0x90, 0xE0,
	// E
	0xF0, 0x80, 0xF0, 0x80, 0xF0,
	// F
	0xF0, 0x80, 0xF0, 0x80, 0x80,
}

// Font returns a copy of the built-in font table
func Font() [16 * glyphSize]byte {
	return font
}

type Memory [MEMORY_SIZE]byte

// NewMemory creates a memory of 4096 bytes with the font loaded at 0x050
func NewMemory() *Memory {
	m := Memory([MEMORY_SIZE]byte{})
	loadCharactersInto(&m)

	return &m
}

func (mem Memory) Clone() *Memory {
	m := Memory([MEMORY_SIZE]byte{})

	copy(m[:], mem[:])

	return &m
}

func (mem Memory) String() string {
	sb := strings.Builder{}

	sb.WriteString("[ ")
	for _, b := range mem[:startOfProgram] {
		sb.WriteString(fmt.Sprintf("%X ", b))
	}
	sb.WriteString("]\n")
	sb.WriteString("[ ")
	for _, b := range mem[startOfProgram:] {
		sb.WriteString(fmt.Sprintf("%X ", b))
	}
	sb.WriteString("]")

	return sb.String()
}

func (mem Memory) IsEqual(other Memory) bool {
	return mem == other
}

// Read returns the byte at addr
func (mem *Memory) Read(addr uint16) (byte, error) {
	if int(addr) >= MEMORY_SIZE {
		return 0, outOfBounds(addr)
	}

	return mem[addr], nil
}

// Write stores b at addr
func (mem *Memory) Write(addr uint16, b byte) error {
	if int(addr) >= MEMORY_SIZE {
		return outOfBounds(addr)
	}

	mem[addr] = b

	return nil
}

// Slice returns the n bytes starting at addr.
// The returned slice aliases the memory.
func (mem *Memory) Slice(addr uint16, n int) ([]byte, error) {
	end := int(addr) + n
	if end > MEMORY_SIZE {
		return nil, outOfBounds(uint16(min(end-1, 0xFFFF)))
	}

	return mem[addr:end], nil
}

// LoadProgram loads the program at the appropriate location.
// Everything past the font is zeroed first, so a shorter program does not
// leave pieces of a previous one behind.
func (mem *Memory) LoadProgram(program []byte) error {
	if len(program) > MaxProgramSize {
		return ErrProgramDoesNotFitIntoMemory
	}

	clear(mem[:])
	loadCharactersInto(mem)
	copy(mem[startOfProgram:], program)

	return nil
}

func loadCharactersInto(mem *Memory) {
	copy(mem[startOfFont:], font[:])
}

func outOfBounds(addr uint16) error {
	return fmt.Errorf("%w: address=0x%04X", ErrMemoryOutOfBounds, addr)
}
