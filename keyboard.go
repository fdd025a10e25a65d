package chip8

import (
	"fmt"
	"sync"
)

// KeyboardState holds whether each of the 16 keys is down
type KeyboardState [16]bool

// FirstPressed returns the lowest key that is down
func (ks KeyboardState) FirstPressed() (byte, bool) {
	for k, down := range ks {
		if down {
			return byte(k), true
		}
	}

	return 0, false
}

// IsPressed reports whether k is down. Keys outside 0-F are never down.
func (ks KeyboardState) IsPressed(k byte) bool {
	if k > 15 {
		return false
	}

	return ks[k]
}

// Keyboard writes the state of the physical keys into the console keypad
type Keyboard interface {
	// Boot initializes the component
	Boot() error
	// Poll copies the current key state into ks
	Poll(ks *KeyboardState)
}

// InMemoryKeyboard is a keyboard whose keys are pressed programmatically.
// It is safe to Press and Release from a goroutine other than the one polling.
type InMemoryKeyboard struct {
	mu    sync.Mutex
	state KeyboardState
}

func NewInMemoryKeyboard() *InMemoryKeyboard {
	return &InMemoryKeyboard{}
}

// Boot implements Keyboard.
func (kb *InMemoryKeyboard) Boot() error {
	return nil
}

// Poll implements Keyboard.
func (kb *InMemoryKeyboard) Poll(ks *KeyboardState) {
	kb.mu.Lock()
	*ks = kb.state
	kb.mu.Unlock()
}

func (kb *InMemoryKeyboard) Get() KeyboardState {
	kb.mu.Lock()
	defer kb.mu.Unlock()

	return kb.state
}

// Set replaces the whole state
func (kb *InMemoryKeyboard) Set(ks KeyboardState) {
	kb.mu.Lock()
	kb.state = ks
	kb.mu.Unlock()
}

func (kb *InMemoryKeyboard) Press(k byte) {
	kb.setKey(k, true)
}

func (kb *InMemoryKeyboard) Release(k byte) {
	kb.setKey(k, false)
}

func (kb *InMemoryKeyboard) setKey(k byte, down bool) {
	if k > 15 {
		return
	}

	kb.mu.Lock()
	kb.state[k] = down
	kb.mu.Unlock()
}

// KeyboardLayout lists the physical key for each console key, from 0 to F
type KeyboardLayout [16]rune

// LayoutSequential maps the four leftmost keys of the top four letter
// rows to 0-F in reading order.
var LayoutSequential = KeyboardLayout{
	'1', '2', '3', '4',
	'q', 'w', 'e', 'r',
	'a', 's', 'd', 'f',
	'z', 'x', 'c', 'v',
}

// LayoutCosmac places the keys where the COSMAC VIP hex keypad had them:
//
//	1 2 3 C
//	4 5 6 D
//	7 8 9 E
//	A 0 B F
var LayoutCosmac = KeyboardLayout{
	'x',
	'1', '2', '3',
	'q', 'w', 'e',
	'a', 's', 'd',
	'z', 'c',
	'4', 'r', 'f', 'v',
}

var DefaultKeyboardLayout = LayoutSequential

// LookupMap returns the console key for each physical key of the layout
func LookupMap(layout KeyboardLayout) map[rune]byte {
	m := make(map[rune]byte, len(layout))
	for k, r := range layout {
		m[r] = byte(k)
	}

	return m
}

// ParseKeyboardLayout accepts "sequential", "cosmac" or a string of 16 characters
// giving the physical key for 0 through F.
func ParseKeyboardLayout(s string) (KeyboardLayout, error) {
	switch s {
	case "sequential", "":
		return LayoutSequential, nil
	case "cosmac":
		return LayoutCosmac, nil
	}

	runes := []rune(s)
	if len(runes) != 16 {
		return KeyboardLayout{}, fmt.Errorf("a keyboard layout needs 16 keys, got %d", len(runes))
	}

	var layout KeyboardLayout
	seen := make(map[rune]bool, 16)
	for i, r := range runes {
		if seen[r] {
			return KeyboardLayout{}, fmt.Errorf("key %q is used twice in the layout", r)
		}
		seen[r] = true
		layout[i] = r
	}

	return layout, nil
}
