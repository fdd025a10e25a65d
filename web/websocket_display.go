package web

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/guslan/chip8"
)

// WebsocketDisplay sends every rendered frame to the connected sockets.
// Frames are binary messages of 256 bytes, one bit per pixel, see chip8.Screen.Pack.
type WebsocketDisplay struct {
	mu      sync.Mutex
	sockets map[*websocket.Conn]struct{}
	last    chip8.Screen
	logger  *slog.Logger
}

// writeWait bounds how long a frame may take to reach a client
const writeWait = time.Second

func NewWebsocketDisplay(logger *slog.Logger) *WebsocketDisplay {
	return &WebsocketDisplay{
		sockets: make(map[*websocket.Conn]struct{}),
		logger:  logger,
	}
}

// Boot implements Display.
func (d *WebsocketDisplay) Boot() error {
	return nil
}

// attach registers the socket and sends it the last frame
func (d *WebsocketDisplay) attach(conn *websocket.Conn) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.sockets[conn] = struct{}{}

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.BinaryMessage, d.last.Pack())
}

func (d *WebsocketDisplay) detach(conn *websocket.Conn) {
	d.mu.Lock()
	delete(d.sockets, conn)
	d.mu.Unlock()
}

// Clients returns the number of connected sockets
func (d *WebsocketDisplay) Clients() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.sockets)
}

// Render implements Display.
// A socket that fails to receive the frame is dropped; the console keeps running.
func (d *WebsocketDisplay) Render(screen *chip8.Screen) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.last = *screen
	if len(d.sockets) == 0 {
		return nil
	}

	frame := screen.Pack()
	for conn := range d.sockets {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			d.logger.Info("Dropping display", slog.String("remote", conn.RemoteAddr().String()), slog.Any("error", err))
			delete(d.sockets, conn)
			conn.Close()
		}
	}

	return nil
}
