package chip8

import (
	"io"
	"os"
	"sync"
)

// Display abstraction for a display
type Display interface {
	// Boot initializes the component
	Boot() error
	// Render presents the screen. The screen must not be retained after returning.
	Render(*Screen) error
}

// DummyDisplay is a display that does nothing
type DummyDisplay struct {
}

func NewDummyDisplay() *DummyDisplay {
	return &DummyDisplay{}
}

func (d DummyDisplay) Boot() error {
	return nil
}

func (d DummyDisplay) Render(screen *Screen) error {
	return nil
}

// InMemoryDisplay keeps a copy of the last rendered frame
type InMemoryDisplay struct {
	mu      sync.RWMutex
	screen  Screen
	renders uint
}

func NewInMemoryDisplay() *InMemoryDisplay {
	return &InMemoryDisplay{}
}

// Boot implements Display.
func (d *InMemoryDisplay) Boot() error {
	return nil
}

// Render implements Display.
func (d *InMemoryDisplay) Render(screen *Screen) error {
	d.mu.Lock()
	d.screen = *screen
	d.renders++
	d.mu.Unlock()

	return nil
}

// Screen returns the last rendered frame
func (d *InMemoryDisplay) Screen() Screen {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.screen
}

// Renders returns how many frames were rendered
func (d *InMemoryDisplay) Renders() uint {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.renders
}

const ESC = 0x1B

// TerminalDisplay draws the screen with ANSI escape codes, two characters per pixel
type TerminalDisplay struct {
	terminal        io.Writer
	OnChar, OffChar string
}

func NewTerminalDisplay() *TerminalDisplay {
	return NewTerminalDisplayWithOutput(os.Stdout)
}

func NewTerminalDisplayWithOutput(out io.Writer) *TerminalDisplay {
	return &TerminalDisplay{
		terminal: out,
		OnChar:   "##",
		OffChar:  "  ",
	}
}

// Boot implements Display.
func (disp *TerminalDisplay) Boot() error {
	_, err := disp.terminal.Write([]byte{
		// Move cursor do start
		ESC, '[', '1', 'H',
		// clear the terminal
		ESC, '[', '0', 'J',
	})

	return err
}

// Render implements Display.
func (disp *TerminalDisplay) Render(screen *Screen) error {
	buff := make([]byte, 0, ScreenWidth*ScreenHeight*len(disp.OnChar)+3*ScreenHeight+4)
	buff = append(buff, ESC, '[', '1', 'H')
	for y := range screen {
		for _, px := range screen[y] {
			if px != 0 {
				buff = append(buff, disp.OnChar...)
			} else {
				buff = append(buff, disp.OffChar...)
			}
		}
		// the tty may be in raw mode, where a bare LF does not return the carriage
		buff = append(buff, '|', '\r', '\n')
	}

	_, err := disp.terminal.Write(buff)
	return err
}
