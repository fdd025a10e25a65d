package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/guslan/chip8"
)

// The control endpoints are called from pages served elsewhere
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Server struct {
	console  *chip8.Console
	keyboard *chip8.InMemoryKeyboard
	display  *WebsocketDisplay
	debugger *HttpDebugger

	mux    *http.ServeMux
	logger *slog.Logger
}

type ServerConfig struct {
	Speed          uint
	CyclesPerFrame uint
	UseDebugger    bool
	// StaticDir is served at / when set
	StaticDir string
	Logger    *slog.Logger
}
type ServerConfigCb func(config *ServerConfig)

// NewServer creates a paused console around cpu, driven over HTTP
func NewServer(cpu *chip8.Cpu, configs ...ServerConfigCb) *Server {
	config := &ServerConfig{
		Speed:          chip8.DefaultSpeed,
		CyclesPerFrame: chip8.DefaultCyclesPerFrame,
		UseDebugger:    false,
		Logger:         slog.Default(),
	}
	for _, cb := range configs {
		cb(config)
	}

	s := &Server{
		keyboard: chip8.NewInMemoryKeyboard(),
		display:  NewWebsocketDisplay(config.Logger),
		mux:      http.NewServeMux(),
		logger:   config.Logger,
	}
	s.console = chip8.NewConsole(cpu, func(c *chip8.ConsoleConfig) {
		c.Display = s.display
		c.Keyboard = s.keyboard
		c.Speed = config.Speed
		c.CyclesPerFrame = config.CyclesPerFrame
		c.Logger = config.Logger
		c.StartPaused = true
		c.PauseOnError = true
	})
	if config.UseDebugger {
		s.debugger = NewHttpDebugger(s.console, config.Logger)
	}

	s.routes(config.StaticDir)

	return s
}

func (server *Server) routes(staticDir string) {
	if staticDir != "" {
		server.mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	}

	server.mux.HandleFunc("/start", server.control("Starting", func() error {
		server.console.Start()
		return nil
	}))
	server.mux.HandleFunc("/stop", server.control("Stopping", func() error {
		server.console.Stop()
		return nil
	}))
	server.mux.HandleFunc("/reset", server.control("Stopping and resetting", func() error {
		server.console.Stop()
		return server.console.Reset()
	}))
	server.mux.HandleFunc("/step", server.control("Single cycle", server.console.Step))
	server.mux.HandleFunc("/state", server.control("", nil))
	server.mux.HandleFunc("/display", server.serveDisplay)
	server.mux.HandleFunc("/keys", server.serveKeys)
	if server.debugger != nil {
		server.mux.Handle("/debugger", server.debugger)
	}
}

// Console returns the console driven by the server
func (server *Server) Console() *chip8.Console {
	return server.console
}

// Keyboard returns the keypad fed by the /keys socket
func (server *Server) Keyboard() *chip8.InMemoryKeyboard {
	return server.keyboard
}

func (server *Server) Handler() http.Handler {
	return server.mux
}

func (server *Server) Speed(s uint) {
	server.console.SetSpeedInHz(s)
}

// LoadProgram loads the program into memory and sets the PC to the start-of-program address
func (server *Server) LoadProgram(program []byte) error {
	return server.console.LoadProgram(program)
}

func (server *Server) Boot() error {
	return server.console.Boot()
}

// Listen boots the console, runs it and serves HTTP until ctx is done
func (server *Server) Listen(ctx context.Context, port int) error {
	if err := server.Boot(); err != nil {
		return err
	}

	go func() {
		if err := server.console.Loop(ctx); err != nil {
			server.logger.Error("Console stopped", slog.Any("error", err))
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           server.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	server.logger.Info("Listening on port", slog.Int("port", port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// StateResponse is the body of the control endpoints
type StateResponse struct {
	Running bool   `json:"running"`
	Speed   uint   `json:"speed"`
	Frames  uint   `json:"frames"`
	Last    string `json:"last"`
	Error   string `json:"error,omitempty"`

	State chip8.CpuState `json:"state"`
}

func (server *Server) state() StateResponse {
	state := server.console.Snapshot()
	resp := StateResponse{
		Running: server.console.IsRunning(),
		Speed:   server.console.SpeedInHz(),
		Frames:  server.console.Frames(),
		Last:    chip8.Decode(state.OpCode).String(),
		State:   state,
	}
	if err := server.console.LastError(); err != nil {
		resp.Error = err.Error()
	}

	return resp
}

// control runs action and replies with the state of the console
func (server *Server) control(msg string, action func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Type")

		w.Header().Set("Cache-Control", "no-cache")

		if action != nil {
			server.logger.Info(msg)
			if err := action(); err != nil {
				server.logger.Error(msg, slog.Any("error", err))
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(server.state()); err != nil {
			server.logger.Error("Encoding state", slog.Any("error", err))
		}
	}
}

func (server *Server) serveDisplay(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		server.logger.Error("Upgrading display connection", slog.Any("error", err))
		return
	}
	defer conn.Close()

	server.logger.Info("Connecting to display", slog.String("remote", r.RemoteAddr))
	if err := server.display.attach(conn); err != nil {
		server.display.detach(conn)
		return
	}
	defer server.display.detach(conn)

	discardIncoming(conn)
	server.logger.Info("Disconnecting from display", slog.String("remote", r.RemoteAddr))
}

// serveKeys reads binary messages of [key, down] pairs
func (server *Server) serveKeys(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		server.logger.Error("Upgrading keys connection", slog.Any("error", err))
		return
	}
	defer conn.Close()

	server.logger.Info("Connecting keys", slog.String("remote", r.RemoteAddr))
	for {
		kind, msg, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if kind != websocket.BinaryMessage {
			continue
		}

		for i := 0; i+1 < len(msg); i += 2 {
			if msg[i+1] != 0 {
				server.keyboard.Press(msg[i])
			} else {
				server.keyboard.Release(msg[i])
			}
		}
	}

	// release everything the client was holding
	server.keyboard.Set(chip8.KeyboardState{})
	server.logger.Info("Disconnecting keys", slog.String("remote", r.RemoteAddr))
}

// discardIncoming reads until the peer goes away
func discardIncoming(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
