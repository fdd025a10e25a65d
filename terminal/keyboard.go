// Package terminal reads the console keypad from a raw-mode tty.
//
// Terminals only report key presses, never releases, so every byte read
// keeps its key down for HoldFor. Auto-repeat of a held physical key keeps
// extending that window.
package terminal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
	"unicode"

	"github.com/guslan/chip8"
	"github.com/pkg/term"
)

const (
	DefaultPath    = "/dev/tty"
	DefaultHoldFor = 150 * time.Millisecond

	ctrlC = 0x03
)

type Keyboard struct {
	// Path of the tty to read from
	Path string
	// HoldFor is how long a key stays down after each byte read
	HoldFor time.Duration
	// OnInterrupt runs when Ctrl-C is read, since raw mode turns it into a plain byte
	OnInterrupt func()

	lookup map[rune]byte

	mu        sync.Mutex
	releaseAt [16]time.Time
	now       func() time.Time

	tty  *term.Term
	stop chan struct{}
	done chan struct{}
}

var _ chip8.Keyboard = (*Keyboard)(nil)

func NewKeyboard(layout chip8.KeyboardLayout) *Keyboard {
	lookup := chip8.LookupMap(layout)
	// Accept both cases for letters
	for r, k := range chip8.LookupMap(layout) {
		lookup[unicode.ToUpper(r)] = k
		lookup[unicode.ToLower(r)] = k
	}

	return &Keyboard{
		Path:    DefaultPath,
		HoldFor: DefaultHoldFor,
		lookup:  lookup,
		now:     time.Now,
	}
}

// Boot implements chip8.Keyboard. It puts the tty in raw mode and starts reading it.
func (kb *Keyboard) Boot() error {
	if kb.tty != nil {
		return nil
	}

	tty, err := term.Open(kb.Path, term.RawMode)
	if err != nil {
		return fmt.Errorf("opening %s: %w", kb.Path, err)
	}
	// Reads must return now and then so Close can stop the reader
	if err := tty.SetReadTimeout(100 * time.Millisecond); err != nil {
		tty.Restore()
		tty.Close()
		return fmt.Errorf("setting read timeout on %s: %w", kb.Path, err)
	}

	kb.tty = tty
	kb.stop = make(chan struct{})
	kb.done = make(chan struct{})
	go kb.read()

	return nil
}

func (kb *Keyboard) read() {
	defer close(kb.done)
	buf := make([]byte, 16)

	for {
		select {
		case <-kb.stop:
			return
		default:
		}

		n, err := kb.tty.Read(buf)
		for _, b := range buf[:n] {
			kb.Feed(b)
		}
		// a read timeout shows up as an empty read
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrDeadlineExceeded) {
			return
		}
	}
}

// Feed handles one byte read from the terminal
func (kb *Keyboard) Feed(b byte) {
	if b == ctrlC {
		if kb.OnInterrupt != nil {
			kb.OnInterrupt()
		}
		return
	}

	k, ok := kb.lookup[rune(b)]
	if !ok {
		return
	}

	kb.mu.Lock()
	kb.releaseAt[k] = kb.now().Add(kb.HoldFor)
	kb.mu.Unlock()
}

// Poll implements chip8.Keyboard.
func (kb *Keyboard) Poll(ks *chip8.KeyboardState) {
	kb.mu.Lock()
	defer kb.mu.Unlock()

	now := kb.now()
	for k := range ks {
		ks[k] = now.Before(kb.releaseAt[k])
	}
}

// Close stops reading and restores the tty
func (kb *Keyboard) Close() error {
	if kb.tty == nil {
		return nil
	}

	close(kb.stop)
	<-kb.done

	err := errors.Join(kb.tty.Restore(), kb.tty.Close())
	kb.tty = nil

	return err
}
