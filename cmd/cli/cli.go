/*
 *   Copyright (c) 2024 Gustavo Lopez <git.gustavolopez.xyz@gmail.com>
 *   All rights reserved.
 */
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/guslan/chip8"
	"github.com/guslan/chip8/terminal"
	"golang.org/x/term"
)

var logLevel = new(slog.LevelVar)

// stderr shares the tty with the screen, so only errors are written there
func init() {
	logLevel.Set(slog.LevelError)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
}

// levelFor returns the lowest level logged. Without a log file anything
// below error would be drawn over the screen.
func levelFor(toFile, debug bool) slog.Level {
	switch {
	case !toFile:
		return slog.LevelError
	case debug:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// setupLogging points the default logger at path, if any. The returned
// function closes the log file.
func setupLogging(path string, debug bool) (func() error, error) {
	logLevel.Set(levelFor(path != "", debug))
	if path == "" {
		return func() error { return nil }, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening the log file: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: logLevel})))

	return f.Close, nil
}

func main() {
	speed := flag.Uint("speed", chip8.DefaultSpeed, fmt.Sprintf("The speed of the CPU in Hz. It has to be in the range [%d, %d] (defaults = %d).", chip8.MinSpeed, chip8.MaxSpeed, chip8.DefaultSpeed))
	cyclesPerFrame := flag.Uint("xframes", chip8.DefaultCyclesPerFrame, fmt.Sprintf("The number of cycles that run between each frame (defaults = %d).", chip8.DefaultCyclesPerFrame))
	layoutName := flag.String("layout", "sequential", `The keyboard layout: "sequential", "cosmac" or 16 characters for the keys 0 to F.`)
	quirks := flag.String("quirks", "", "Comma separated quirks: vfreset, shiftvy, jumpvx, memindex, addcarry, inclusive.")
	frameTimers := flag.Bool("frametimers", false, "Tick the timers at 60Hz instead of once per cycle.")
	logPath := flag.String("log", "", "Write the logs to this file. Without it only errors are logged, to stderr.")
	debug := flag.Bool("debug", false, "Log every instruction, needs -log (defaults = false).")
	flag.Parse()

	if flag.NArg() < 1 {
		log.Fatalln("must provide the path to a rom as an argument")
	}

	closeLog, err := setupLogging(*logPath, *debug)
	if err != nil {
		log.Fatalln(err)
	}

	err = run(flag.Arg(0), *speed, *cyclesPerFrame, *layoutName, *quirks, *frameTimers)
	closeLog()
	if err != nil {
		log.Fatalln(err)
	}
}

func run(romPath string, speed, cyclesPerFrame uint, layoutName, quirksList string, frameTimers bool) error {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return errors.New("the output is not a terminal")
	}
	if w, h, err := term.GetSize(fd); err == nil && (w < 2*chip8.ScreenWidth || h < chip8.ScreenHeight) {
		slog.Warn("The terminal is smaller than the screen",
			slog.Int("columns", w), slog.Int("rows", h),
			slog.Int("wantColumns", 2*chip8.ScreenWidth), slog.Int("wantRows", chip8.ScreenHeight))
	}

	layout, err := chip8.ParseKeyboardLayout(layoutName)
	if err != nil {
		return err
	}
	q, err := chip8.ParseQuirks(quirksList)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	kb := terminal.NewKeyboard(layout)
	kb.OnInterrupt = cancel
	defer kb.Close()

	cpu := chip8.NewCpu(func(config *chip8.CpuConfig) {
		config.Quirks = q
		config.FrameTimers = frameTimers
	})
	console := chip8.NewConsole(cpu, func(config *chip8.ConsoleConfig) {
		config.Display = chip8.NewTerminalDisplay()
		config.Keyboard = kb
		config.Speed = speed
		config.CyclesPerFrame = cyclesPerFrame
	})

	if err := console.LoadRom(romPath); err != nil {
		return err
	}
	if err := console.Boot(); err != nil {
		return err
	}

	return console.Loop(ctx)
}
