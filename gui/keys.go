package gui

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/guslan/chip8"
)

// runeToKey maps the characters usable in a keyboard layout to raylib key codes
var runeToKey = map[rune]int32{
	'0': rl.KeyZero, '1': rl.KeyOne, '2': rl.KeyTwo, '3': rl.KeyThree, '4': rl.KeyFour,
	'5': rl.KeyFive, '6': rl.KeySix, '7': rl.KeySeven, '8': rl.KeyEight, '9': rl.KeyNine,

	'a': rl.KeyA, 'b': rl.KeyB, 'c': rl.KeyC, 'd': rl.KeyD, 'e': rl.KeyE, 'f': rl.KeyF,
	'g': rl.KeyG, 'h': rl.KeyH, 'i': rl.KeyI, 'j': rl.KeyJ, 'k': rl.KeyK, 'l': rl.KeyL,
	'm': rl.KeyM, 'n': rl.KeyN, 'o': rl.KeyO, 'p': rl.KeyP, 'q': rl.KeyQ, 'r': rl.KeyR,
	's': rl.KeyS, 't': rl.KeyT, 'u': rl.KeyU, 'v': rl.KeyV, 'w': rl.KeyW, 'x': rl.KeyX,
	'y': rl.KeyY, 'z': rl.KeyZ,

	',': rl.KeyComma, '.': rl.KeyPeriod, '/': rl.KeySlash, ';': rl.KeySemicolon,
	'-': rl.KeyMinus, '=': rl.KeyEqual, '[': rl.KeyLeftBracket, ']': rl.KeyRightBracket,
	' ': rl.KeySpace,
}

// keyLookupMap returns the console key for each raylib key code of the layout.
// Characters raylib has no key for are skipped.
func keyLookupMap(layout chip8.KeyboardLayout) map[int32]byte {
	m := make(map[int32]byte, len(layout))
	for r, k := range chip8.LookupMap(layout) {
		if code, ok := runeToKey[r]; ok {
			m[code] = k
		}
	}

	return m
}
