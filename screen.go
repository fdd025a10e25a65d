package chip8

import "strings"

const (
	ScreenWidth  = 64
	ScreenHeight = 32
)

// Screen representation.
// Each cell holds 0 (off) or 1 (on), indexed as Screen[y][x].
type Screen [ScreenHeight][ScreenWidth]byte

// Pixel returns the state of the pixel at x, y, wrapping out-of-range coordinates
func (s *Screen) Pixel(x, y int) byte {
	return s[wrap(y, ScreenHeight)][wrap(x, ScreenWidth)]
}

// Clear turns every pixel off
func (s *Screen) Clear() {
	*s = Screen{}
}

// IsBlank reports whether every pixel is off
func (s *Screen) IsBlank() bool {
	return *s == Screen{}
}

// Lit returns the number of pixels that are on
func (s *Screen) Lit() int {
	n := 0
	for y := range s {
		for x := range s[y] {
			n += int(s[y][x])
		}
	}

	return n
}

// Pack returns the screen as a bitmap, 8 pixels per byte, most significant bit first
func (s *Screen) Pack() []byte {
	buf := make([]byte, ScreenWidth*ScreenHeight/8)
	for y := range s {
		for x := range s[y] {
			if s[y][x] != 0 {
				t := y*ScreenWidth + x
				buf[t/8] |= 0b10000000 >> (t % 8)
			}
		}
	}

	return buf
}

// String renders the screen using '#' and '.'
func (s *Screen) String() string {
	sb := strings.Builder{}
	sb.Grow((ScreenWidth + 1) * ScreenHeight)
	for y := range s {
		for x := range s[y] {
			if s[y][x] != 0 {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}

	return sb.String()
}

// drawSprite XORs a sprite onto the screen at x, y.
// Sprites are 8 pixels wide and one row per byte. Pixels falling outside
// the screen wrap around to the opposite side.
// Returns whether any pixel was turned off.
func (s *Screen) drawSprite(x, y byte, sprite []byte) bool {
	collision := false
	x0 := int(x) % ScreenWidth
	y0 := int(y) % ScreenHeight

	for row, b := range sprite {
		py := (y0 + row) % ScreenHeight
		for bit := 0; bit < 8; bit++ {
			if (b>>(7-bit))&1 == 0 {
				continue
			}

			px := (x0 + bit) % ScreenWidth
			if s[py][px] == 1 {
				collision = true
			}
			s[py][px] ^= 1
		}
	}

	return collision
}

func wrap(v, size int) int {
	v %= size
	if v < 0 {
		v += size
	}

	return v
}
