package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/guslan/chip8"
	"github.com/guslan/chip8/gui"
)

var logLevel = new(slog.LevelVar)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

func main() {
	autostart := flag.Bool("start", false, "Starts the console automatically if there is a program loaded (defaults = false).")
	debug := flag.Bool("debug", false, "Show debug information for the console (defaults = false).")
	initialSpeed := flag.Uint("speed", chip8.DefaultSpeed, fmt.Sprintf("The starting speed of the CPU in Hz. It has to be in the range [5, 700] (defaults = %d).", chip8.DefaultSpeed))
	cyclesPerFrame := flag.Uint("xframes", chip8.DefaultCyclesPerFrame, fmt.Sprintf("The number of cycles that run between each frame (defaults = %d).", chip8.DefaultCyclesPerFrame))
	layoutName := flag.String("layout", "sequential", `The keyboard layout: "sequential", "cosmac" or 16 characters for the keys 0 to F.`)
	quirks := flag.String("quirks", "", "Comma separated quirks: vfreset, shiftvy, jumpvx, memindex, addcarry, inclusive.")
	frameTimers := flag.Bool("frametimers", false, "Tick the timers at 60Hz instead of once per cycle.")

	flag.Parse()

	layout, err := chip8.ParseKeyboardLayout(*layoutName)
	if err != nil {
		log.Fatalln(err)
	}
	q, err := chip8.ParseQuirks(*quirks)
	if err != nil {
		log.Fatalln(err)
	}
	if *debug {
		logLevel.Set(slog.LevelDebug)
	}

	app := gui.NewApp(func(config *gui.AppConfig) {
		config.Speed = max(*initialSpeed, chip8.MinSpeed)
		config.UseDebugger = *debug
		config.CyclesPerFrame = *cyclesPerFrame
		config.Layout = layout
		config.Quirks = q
		config.FrameTimers = *frameTimers
	})

	if flag.NArg() > 0 {
		app.Load(flag.Arg(0))
	}

	app.Run(*autostart)
}
