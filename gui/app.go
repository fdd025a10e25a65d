package gui

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/guslan/chip8"
)

const (
	ToolbarGap       = 5
	ToolbarBtnWidth  = 80
	ToolbarBtnHeight = 40
	ToolbarHeight    = 50
	ToolbarBtnOffset = ToolbarBtnWidth + ToolbarGap

	ScreenPixelSize = 15
	ScreenPositionX = 0
	ScreenPositionY = ToolbarHeight + 1

	MessageBarGap   = 5
	MessageBarHeigh = 30

	DebugPanelWidth = 230
	DebugFontSize   = 16
)

var MessageBarBgColor = rl.DarkGray
var MessageBarInfoColor = rl.SkyBlue
var MessageBarSuccessColor = rl.Lime
var MessageBarWarningColor = rl.Gold
var MessageBarErrorColor = rl.Red

type MessageType byte

const (
	MessageInfo MessageType = iota
	MessageSuccess
	MessageWarning
	MessageError
)

type message struct {
	text  string
	mType MessageType
}

type App struct {
	console  *chip8.Console
	keyboard *chip8.InMemoryKeyboard
	logger   *slog.Logger

	// Speed in Hz
	speed float32
	// Last frame rendered by the console
	screen frameBuffer
	buzzer buzzerLight

	keyboardLookupMap map[int32]byte

	useDebugger bool

	// Window width and height
	winW, winH int

	// Toolbar
	startBtn, stopBtn, stepBtn, restBtn bool

	loadedProgramPath string

	// Messages coming from the console goroutine
	messages         chan message
	lastMessage      string
	lastMessageColor rl.Color
}

type AppConfig struct {
	Speed          uint
	CyclesPerFrame uint
	UseDebugger    bool
	Layout         chip8.KeyboardLayout
	Quirks         chip8.Quirks
	FrameTimers    bool
	Logger         *slog.Logger
}
type AppConfigCb func(config *AppConfig)

func NewApp(configs ...AppConfigCb) *App {
	config := &AppConfig{
		Speed:          chip8.DefaultSpeed,
		CyclesPerFrame: chip8.DefaultCyclesPerFrame,
		Layout:         chip8.DefaultKeyboardLayout,
		Logger:         slog.Default(),
	}
	for _, cb := range configs {
		cb(config)
	}

	app := &App{
		keyboard:          chip8.NewInMemoryKeyboard(),
		logger:            config.Logger,
		speed:             float32(config.Speed),
		keyboardLookupMap: keyLookupMap(config.Layout),
		useDebugger:       config.UseDebugger,
		messages:          make(chan message, 8),
	}

	cpu := chip8.NewCpu(func(c *chip8.CpuConfig) {
		c.Quirks = config.Quirks
		c.FrameTimers = config.FrameTimers
		c.Logger = config.Logger
	})
	app.console = chip8.NewConsole(cpu, func(c *chip8.ConsoleConfig) {
		c.Display = &app.screen
		c.Keyboard = app.keyboard
		c.Buzzer = &app.buzzer
		c.Speed = config.Speed
		c.CyclesPerFrame = config.CyclesPerFrame
		c.Logger = config.Logger
		c.StartPaused = true
		c.PauseOnError = true
	})
	app.console.AddErrorHook(func(state chip8.CpuState) {
		app.postMessage(fmt.Sprintf("CPU halted at 0x%03X, reset to continue", state.Pc), MessageError)
	})

	app.updateWindowSize()

	return app
}

// Run starts the console on pause and the UI loop
func (app *App) Run(autostart bool) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := app.console.Boot(); err != nil {
		app.logger.Error("Error booting the console", slog.Any("error", err))
		return
	}
	go func() {
		app.logger.Info("starting CPU loop on pause")
		if err := app.console.Loop(ctx); err != nil {
			app.postMessage(err.Error(), MessageError)
			app.logger.Error("Console loop ended", slog.Any("error", err))
		}
	}()

	if autostart && app.hasProgramLoaded() {
		app.console.Start()
	}

	rl.InitWindow(int32(app.winW), int32(app.winH), "chip8")
	defer rl.CloseWindow()

	rl.SetTargetFPS(60)
	for !rl.WindowShouldClose() {
		rl.BeginDrawing()

		rl.ClearBackground(rl.Black)

		app.handleFileLoad()
		app.handleActions()
		app.handleKeyPress()
		app.updateCpuSpeed()
		app.drainMessages()

		// Sections get rendered from bottom to the top so that the toolbar is drawn over everything else
		app.drawMessageBar()
		app.drawScreen()
		if app.useDebugger {
			app.drawDebugPanel()
		}
		app.drawToolbar()

		rl.EndDrawing()
	}
}

func (app *App) Load(path string) {
	if err := app.console.LoadRom(path); err != nil {
		app.logger.Error("Error loading program", slog.String("path", path), slog.Any("error", err))
		app.showMessage(fmt.Sprintf("Could not load '%s': %v", filepath.Base(path), err), MessageError)
		return
	}

	app.loadedProgramPath = path
	app.showMessage(fmt.Sprintf("Program '%s' loaded", filepath.Base(path)), MessageInfo)
}

func (app *App) updateWindowSize() {
	app.winW = chip8.ScreenWidth * ScreenPixelSize
	if app.useDebugger {
		app.winW += DebugPanelWidth
	}
	app.winH = chip8.ScreenHeight*ScreenPixelSize + ToolbarHeight + MessageBarHeigh
	app.logger.Info("Updating window size", slog.Int("width", app.winW), slog.Int("height", app.winH))
}

func (app *App) handleFileLoad() {
	if rl.IsFileDropped() {
		files := rl.LoadDroppedFiles()
		defer rl.UnloadDroppedFiles()

		app.logger.Info("Files were dropped", "files", strings.Join(files, ","))

		if len(files) > 0 {
			app.Load(files[0])
			app.console.Start()
		}
	}
}

func (app *App) hasProgramLoaded() bool {
	return len(app.loadedProgramPath) > 0
}

func (app *App) handleActions() {
	if app.startBtn {
		if app.hasProgramLoaded() {
			app.console.Start()
			app.logger.Info("Starting the console")
		} else {
			app.showMessage("There is no program loaded", MessageError)
		}
	}
	if app.stopBtn {
		app.console.Stop()
		app.logger.Info("Stopping the console")
	}
	if app.restBtn {
		if err := app.console.Reset(); err != nil {
			app.showMessage(err.Error(), MessageError)
		} else {
			app.showMessage("Program reset", MessageInfo)
		}
		app.logger.Info("Resetting the program to the beginning")
	}
	if app.stepBtn {
		if err := app.console.Step(); err != nil {
			app.showMessage(err.Error(), MessageError)
		}
		app.logger.Info("Running a single cycle")
	}
}

func (app *App) handleKeyPress() {
	var ks chip8.KeyboardState
	for keyCode, key := range app.keyboardLookupMap {
		if rl.IsKeyDown(keyCode) {
			ks[key] = true
		}
	}
	app.keyboard.Set(ks)
}

func (app *App) updateCpuSpeed() {
	if hz := uint(app.speed); hz != app.console.SpeedInHz() {
		app.console.SetSpeedInHz(hz)
	}
}

const (
	MinSpeed = float32(chip8.MinSpeed)
	MaxSpeed = float32(chip8.MaxSpeed)
)

func (app *App) drawToolbar() {
	rl.DrawRectangle(0, 0, int32(rl.GetScreenWidth()), ToolbarHeight, rl.Gray)

	app.startBtn = gui.Button(
		rl.NewRectangle(ToolbarGap+ToolbarBtnOffset*0, ToolbarGap, ToolbarBtnWidth, ToolbarBtnHeight),
		gui.IconText(gui.ICON_PLAYER_PLAY, "Start"),
	)
	app.stopBtn = gui.Button(
		rl.NewRectangle(ToolbarGap+ToolbarBtnOffset*1, ToolbarGap, ToolbarBtnWidth, ToolbarBtnHeight),
		gui.IconText(gui.ICON_PLAYER_STOP, "Stop"),
	)
	app.stepBtn = gui.Button(
		rl.NewRectangle(ToolbarGap+ToolbarBtnOffset*2, ToolbarGap, ToolbarBtnWidth, ToolbarBtnHeight),
		gui.IconText(gui.ICON_PLAYER_NEXT, "Step"),
	)
	app.restBtn = gui.Button(
		rl.NewRectangle(ToolbarGap+ToolbarBtnOffset*3, ToolbarGap, ToolbarBtnWidth, ToolbarBtnHeight),
		gui.IconText(gui.ICON_ROTATE, "Reset"),
	)

	status := "Stopped"
	if app.console.IsRunning() {
		status = "Running"
	}
	gui.Label(
		rl.NewRectangle(ToolbarGap+ToolbarBtnOffset*4, ToolbarGap, ToolbarBtnWidth, ToolbarBtnHeight),
		status,
	)
	app.drawBuzzer(ToolbarGap+ToolbarBtnOffset*5, ToolbarGap)

	gui.Label(
		rl.NewRectangle(float32(app.winW)-ToolbarGap-150, 26, 50, 20),
		fmt.Sprintf("%.0f Hz", app.speed),
	)

	if gui.Button(
		rl.NewRectangle(float32(app.winW)-ToolbarGap-150+50, 26, 50, 20),
		gui.IconText(gui.ICON_ROTATE, ""),
	) {
		app.speed = float32(chip8.DefaultSpeed)
	}

	app.speed = gui.Slider(
		rl.NewRectangle(float32(app.winW)-ToolbarGap-150, ToolbarGap, 100, 20),
		"5 Hz", "700 Hz",
		app.speed,
		MinSpeed,
		MaxSpeed,
	)
}

// drawDebugPanel shows the registers next to the screen
func (app *App) drawDebugPanel() {
	state := app.console.Snapshot()
	x := int32(chip8.ScreenWidth*ScreenPixelSize + MessageBarGap)
	y := int32(ScreenPositionY + MessageBarGap)

	lines := []string{
		fmt.Sprintf("PC  0x%03X", state.Pc),
		fmt.Sprintf("OP  %s", chip8.Decode(state.OpCode)),
		fmt.Sprintf("I   0x%03X", state.I),
		fmt.Sprintf("SP  %d", state.Sp),
		fmt.Sprintf("DT  %d  ST %d", state.Dt, state.St),
		fmt.Sprintf("CYC %d", state.Cycles),
	}
	for r := 0; r < 16; r += 2 {
		lines = append(lines, fmt.Sprintf("V%X %02X   V%X %02X", r, state.V[r], r+1, state.V[r+1]))
	}

	rl.DrawRectangle(x-MessageBarGap, ScreenPositionY, DebugPanelWidth, chip8.ScreenHeight*ScreenPixelSize, rl.DarkGray)
	for _, line := range lines {
		rl.DrawText(line, x, y, DebugFontSize, rl.RayWhite)
		y += DebugFontSize + 4
	}
}

// postMessage is safe to call from the console goroutine
func (app *App) postMessage(msg string, mType MessageType) {
	select {
	case app.messages <- message{msg, mType}:
	default:
	}
}

func (app *App) drainMessages() {
	for {
		select {
		case m := <-app.messages:
			app.showMessage(m.text, m.mType)
		default:
			return
		}
	}
}

func (app *App) showMessage(msg string, mType MessageType) {
	app.lastMessage = msg
	switch mType {
	case MessageInfo:
		app.lastMessageColor = MessageBarInfoColor

	case MessageSuccess:
		app.lastMessageColor = MessageBarSuccessColor

	case MessageWarning:
		app.lastMessageColor = MessageBarWarningColor

	case MessageError:
		app.lastMessageColor = MessageBarErrorColor
	}
}

func (app *App) drawMessageBar() {
	rl.DrawRectangle(
		0,
		int32(app.winH)-MessageBarHeigh,
		int32(app.winW),
		MessageBarHeigh,
		MessageBarBgColor,
	)

	rl.DrawText(
		app.lastMessage,
		MessageBarGap,
		int32(app.winH)-MessageBarHeigh+MessageBarGap,
		16,
		app.lastMessageColor,
	)
}
