/*
 *   Copyright (c) 2024 Gustavo Lopez <git.gustavolopez.xyz@gmail.com>
 *   All rights reserved.
 */
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/guslan/chip8"
	"github.com/guslan/chip8/web"
)

var logLevel = new(slog.LevelVar)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

func main() {
	port := flag.Int("port", 9999, "The port of the server (default = 9999)")
	speed := flag.Uint("speed", chip8.DefaultSpeed, "Speed in cycles per second")
	cyclesPerFrame := flag.Uint("xframes", chip8.DefaultCyclesPerFrame, "The number of cycles that run between each frame")
	useDebugger := flag.Bool("debugger", true, "Serve the debugger socket at /debugger")
	static := flag.String("static", "", "Directory served at /")
	quirks := flag.String("quirks", "", "Comma separated quirks: vfreset, shiftvy, jumpvx, memindex, addcarry, inclusive.")
	frameTimers := flag.Bool("frametimers", false, "Tick the timers at 60Hz instead of once per cycle.")
	debug := flag.Bool("debug", false, "Log every instruction")
	flag.Parse()

	if flag.NArg() < 1 {
		log.Fatalln("must provide the path to a rom as an argument")
	}
	if *debug {
		logLevel.Set(slog.LevelDebug)
	}

	q, err := chip8.ParseQuirks(*quirks)
	if err != nil {
		log.Fatalln(err)
	}

	program, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatalln(err)
	}

	cpu := chip8.NewCpu(func(config *chip8.CpuConfig) {
		config.Quirks = q
		config.FrameTimers = *frameTimers
	})
	server := web.NewServer(cpu, func(config *web.ServerConfig) {
		config.Speed = *speed
		config.CyclesPerFrame = *cyclesPerFrame
		config.UseDebugger = *useDebugger
		config.StaticDir = *static
	})
	if err := server.LoadProgram(program); err != nil {
		log.Fatalln(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := server.Listen(ctx, *port); err != nil {
		log.Fatalln(err)
	}
}
