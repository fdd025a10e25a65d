package gui

import (
	"sync"
	"sync/atomic"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/guslan/chip8"
)

var ScreenBgColor = rl.Gold
var ScreenPixelColor = rl.Yellow
var BuzzerOnColor = rl.Orange
var BuzzerOffColor = rl.DarkGray

// frameBuffer receives the frames from the console goroutine.
// The UI loop reads it on every frame.
type frameBuffer struct {
	mu     sync.Mutex
	screen chip8.Screen
}

// Boot implements chip8.Display.
func (fb *frameBuffer) Boot() error {
	return nil
}

// Render implements chip8.Display.
func (fb *frameBuffer) Render(screen *chip8.Screen) error {
	fb.mu.Lock()
	fb.screen = *screen
	fb.mu.Unlock()

	return nil
}

func (fb *frameBuffer) get() chip8.Screen {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	return fb.screen
}

// buzzerLight shows the sound timer state in the toolbar
type buzzerLight struct {
	on atomic.Bool
}

// Boot implements chip8.Buzzer.
func (b *buzzerLight) Boot() error {
	return nil
}

// Play implements chip8.Buzzer.
func (b *buzzerLight) Play() {
	b.on.Store(true)
}

// Stop implements chip8.Buzzer.
func (b *buzzerLight) Stop() {
	b.on.Store(false)
}

func (app *App) drawScreen() {
	screen := app.screen.get()

	for y := range screen {
		for x, px := range screen[y] {
			color := ScreenBgColor
			if px > 0 {
				color = ScreenPixelColor
			}

			rl.DrawRectangle(
				ScreenPositionX+ScreenPixelSize*int32(x),
				ScreenPositionY+ScreenPixelSize*int32(y),
				ScreenPixelSize,
				ScreenPixelSize,
				color)
		}
	}
}

func (app *App) drawBuzzer(x, y int32) {
	color := BuzzerOffColor
	if app.buzzer.on.Load() {
		color = BuzzerOnColor
	}

	rl.DrawCircle(x+ToolbarBtnHeight/2, y+ToolbarBtnHeight/2, ToolbarBtnHeight/4, color)
}
