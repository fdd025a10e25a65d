package chip8

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

var ErrConsoleIsNotBooted = errors.New("the console has not been booted properly")

const (
	DefaultSpeed          uint = 500
	MaxSpeed              uint = 700
	MinSpeed              uint = 5
	DefaultCyclesPerFrame uint = 30

	// TimerFrequency is the rate of the delay and sound timers when they run on frame time
	TimerFrequency = 60
)

// Console drives a CPU against a display and a keyboard at a fixed speed.
// All methods are safe to call while Loop runs on another goroutine, except
// for adding hooks. Hooks run with the console locked and must not call back
// into it.
type Console struct {
	mu sync.Mutex

	cpu      *Cpu
	Display  Display
	Keyboard Keyboard
	Buzzer   Buzzer

	speedInHz      uint
	step           time.Duration
	cyclesPerFrame uint
	frames         uint
	lastTimerTick  time.Time

	isBooted     bool
	isPaused     atomic.Bool
	isBuzzing    bool
	pauseOnError bool

	logger *slog.Logger

	// Hooks that run before every cycle
	beforeCycleHooks []Hook
	// Hooks that run after every cycle
	afterCycleHooks []Hook
	// Hooks that run after every frame
	afterFrameHooks []Hook
	// Hooks that run after an error
	errorHooks []Hook
}

type ConsoleConfig struct {
	Display        Display
	Keyboard       Keyboard
	Buzzer         Buzzer
	Speed          uint
	CyclesPerFrame uint
	Logger         *slog.Logger
	// StartPaused leaves the console stopped until Start is called
	StartPaused bool
	// PauseOnError stops the console instead of ending Loop when the CPU halts
	PauseOnError bool
}
type ConsoleConfigCb func(config *ConsoleConfig)

func NewConsole(cpu *Cpu, configs ...ConsoleConfigCb) *Console {
	config := &ConsoleConfig{
		Display:        NewDummyDisplay(),
		Keyboard:       NewInMemoryKeyboard(),
		Buzzer:         NewDummyBuzzer(),
		Speed:          DefaultSpeed,
		CyclesPerFrame: DefaultCyclesPerFrame,
		Logger:         slog.Default(),
	}
	for _, cb := range configs {
		cb(config)
	}

	c := &Console{
		cpu:      cpu,
		Display:  config.Display,
		Keyboard: config.Keyboard,
		Buzzer:   config.Buzzer,
		logger:   config.Logger,

		pauseOnError: config.PauseOnError,
	}
	c.SetSpeedInHz(config.Speed)
	c.SetCyclesPerFrame(config.CyclesPerFrame)
	c.isPaused.Store(config.StartPaused)

	return c
}

// Cpu returns the console CPU. It must not be used while Loop is running.
func (c *Console) Cpu() *Cpu {
	return c.cpu
}

func (c *Console) IsRunning() bool {
	return !c.isPaused.Load()
}

// Start resumes the loop
func (c *Console) Start() {
	c.isPaused.Store(false)
}

// Stop pauses the loop. Step still runs single cycles.
func (c *Console) Stop() {
	c.isPaused.Store(true)
}

func (c *Console) SpeedInHz() uint {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.speedInHz
}

// SetSpeedInHz sets the number of cycles per second, clamped to [MinSpeed, MaxSpeed]
func (c *Console) SetSpeedInHz(inHz uint) {
	inHz = min(max(inHz, MinSpeed), MaxSpeed)

	c.mu.Lock()
	c.speedInHz = inHz
	c.step = time.Second / time.Duration(inHz)
	c.mu.Unlock()
}

func (c *Console) CyclesPerFrame() uint {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.cyclesPerFrame
}

// SetCyclesPerFrame sets how many cycles run between screen renders
func (c *Console) SetCyclesPerFrame(n uint) {
	c.mu.Lock()
	c.cyclesPerFrame = max(n, 1)
	c.mu.Unlock()
}

func (c *Console) Cycles() uint {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.cpu.Cycles()
}

func (c *Console) Frames() uint {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.frames
}

// Snapshot returns a copy of the CPU registers
func (c *Console) Snapshot() CpuState {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.cpu.State()
}

// Screen returns a copy of the display buffer
func (c *Console) Screen() Screen {
	c.mu.Lock()
	defer c.mu.Unlock()

	return *c.cpu.Screen()
}

// LastError returns the error that halted the CPU, if any
func (c *Console) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.cpu.LastError()
}

// Boot initializes all the components
// If the console was already booted, this method is a noop
func (c *Console) Boot() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isBooted {
		return nil
	}

	if err := c.Display.Boot(); err != nil {
		return err
	}

	if err := c.Keyboard.Boot(); err != nil {
		return err
	}

	if err := c.Buzzer.Boot(); err != nil {
		return err
	}

	c.isBooted = true

	return nil
}

// LoadProgram loads the program into memory and resets the CPU
func (c *Console) LoadProgram(program []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.cpu.LoadProgram(program); err != nil {
		return err
	}
	c.frames = 0

	return nil
}

// LoadRom reads the program at path and loads it
func (c *Console) LoadRom(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening rom: %w", err)
	}
	defer f.Close()

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.cpu.LoadProgramFrom(f); err != nil {
		return err
	}
	c.frames = 0
	c.logger.Info("Program loaded", slog.String("path", path))

	return nil
}

// Reset restarts the loaded program
func (c *Console) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cpu.Reset()
	c.frames = 0
	c.updateBuzzer()

	return c.render()
}

// LoopAtSpeed sets the speed and starts the loop
func (c *Console) LoopAtSpeed(ctx context.Context, speedInHz uint) error {
	c.SetSpeedInHz(speedInHz)
	return c.Loop(ctx)
}

// Loop runs cycles at the current speed until ctx is done or the CPU fails
func (c *Console) Loop(ctx context.Context) error {
	c.mu.Lock()
	booted := c.isBooted
	c.mu.Unlock()

	if !booted {
		return ErrConsoleIsNotBooted
	}

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		step, err := c.runNextCycle()
		if err != nil {
			return err
		}

		// Prevent the CPU from running faster than expected
		time.Sleep(max(step-time.Since(last), 0))
		last = time.Now()
	}
}

// Step runs a single cycle bypassing the pause state
func (c *Console) Step() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isBooted {
		return ErrConsoleIsNotBooted
	}

	if err := c.cycle(); err != nil {
		return err
	}

	return c.endFrame()
}

func (c *Console) runNextCycle() (time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isPaused.Load() {
		return c.step, nil
	}

	if err := c.cycle(); err != nil {
		if c.pauseOnError {
			c.isPaused.Store(true)
			return c.step, nil
		}
		return c.step, err
	}

	if c.cpu.Cycles()%c.cyclesPerFrame == 0 {
		if err := c.endFrame(); err != nil {
			return c.step, err
		}
	}

	return c.step, nil
}

// cycle polls the keyboard and runs one CPU cycle. c.mu must be held.
func (c *Console) cycle() error {
	c.Keyboard.Poll(&c.cpu.Keys)

	c.runHooks(c.beforeCycleHooks)
	if err := c.cpu.Cycle(); err != nil {
		c.runHooks(c.errorHooks)
		c.logger.Error("CPU halted", slog.Any("error", err), slog.String("pc", fmt.Sprintf("0x%03X", c.cpu.Pc)))
		return err
	}
	c.runHooks(c.afterCycleHooks)

	if c.cpu.frameTimers {
		now := time.Now()
		if c.lastTimerTick.IsZero() {
			c.lastTimerTick = now
		}
		interval := time.Second / TimerFrequency
		if behind := now.Sub(c.lastTimerTick); behind > c.step+interval {
			// the loop was stopped or stepped by hand, the gap counts as a single tick
			c.cpu.TickTimers()
			c.lastTimerTick = now
		}
		for now.Sub(c.lastTimerTick) >= interval {
			c.cpu.TickTimers()
			c.lastTimerTick = c.lastTimerTick.Add(interval)
		}
	}
	c.updateBuzzer()

	return nil
}

// endFrame renders the screen if it changed. c.mu must be held.
func (c *Console) endFrame() error {
	if c.cpu.consumeScreenDirty() {
		if err := c.render(); err != nil {
			c.runHooks(c.errorHooks)
			c.logger.Error("Rendering failed", slog.Any("error", err))
			return err
		}
	}

	c.frames++
	c.runHooks(c.afterFrameHooks)

	return nil
}

func (c *Console) render() error {
	return c.Display.Render(c.cpu.Screen())
}
