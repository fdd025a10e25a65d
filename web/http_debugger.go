package web

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/guslan/chip8"
)

// eventBuffer is how many events a slow debugger client may fall behind before events are dropped
const eventBuffer = 64

type HttpDebugger struct {
	console *chip8.Console
	logger  *slog.Logger

	// SendEvery sends one event every SendEvery cycles
	SendEvery uint

	mu      sync.Mutex
	clients map[chan []byte]struct{}
}

// NewHttpDebugger creates a new debugger
// This method will pause the console, register the hooks and set CyclesPerFrame to 1
func NewHttpDebugger(console *chip8.Console, logger *slog.Logger) *HttpDebugger {
	d := &HttpDebugger{
		console:   console,
		logger:    logger,
		SendEvery: 1,
		clients:   make(map[chan []byte]struct{}),
	}

	console.AddAfterCycleHook(d.afterCycle)
	console.AddErrorHook(d.onError)
	console.SetCyclesPerFrame(1)
	console.Stop()

	return d
}

func (d *HttpDebugger) afterCycle(state chip8.CpuState) {
	if d.SendEvery > 1 && state.Cycles%d.SendEvery != 0 {
		return
	}

	d.broadcast(formatAsEvent(state))
}

func (d *HttpDebugger) onError(state chip8.CpuState) {
	d.broadcast(formatAsEvent(state))
}

// broadcast never blocks: the hooks run inside the console loop
func (d *HttpDebugger) broadcast(event []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for ch := range d.clients {
		select {
		case ch <- event:
		default:
		}
	}
}

func (d *HttpDebugger) subscribe() chan []byte {
	ch := make(chan []byte, eventBuffer)

	d.mu.Lock()
	d.clients[ch] = struct{}{}
	d.mu.Unlock()

	return ch
}

func (d *HttpDebugger) unsubscribe(ch chan []byte) {
	d.mu.Lock()
	delete(d.clients, ch)
	d.mu.Unlock()
}

func (d *HttpDebugger) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		d.logger.Error("Upgrading debugger connection", slog.Any("error", err))
		return
	}
	defer conn.Close()

	d.logger.Info("Connecting to debugger", slog.String("remote", r.RemoteAddr))
	events := d.subscribe()
	defer d.unsubscribe(events)

	if err := conn.WriteMessage(websocket.BinaryMessage, formatAsEvent(d.console.Snapshot())); err != nil {
		return
	}

	closed := make(chan struct{})
	go func() {
		discardIncoming(conn)
		close(closed)
	}()

	for {
		select {
		case event := <-events:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.BinaryMessage, event); err != nil {
				d.logger.Error("Error writing debugger message", slog.Any("error", err))
				return
			}
		case <-closed:
			d.logger.Info("Disconnecting from debugger", slog.String("remote", r.RemoteAddr))
			return
		}
	}
}

// formatAsEvent encodes the state as
//
//	opcode(2) pc(2) V0-VF(16) I(2) sp(1) stack(32) dt(1) st(1) width(1) height(1)
//
// with 16-bit values in big endian.
func formatAsEvent(state chip8.CpuState) []byte {
	buf := make([]byte, 0, 59)

	buf = append(buf, byte((state.OpCode&0xFF00)>>8))
	buf = append(buf, byte((state.OpCode&0x00FF)>>0))

	buf = append(buf, byte((state.Pc&0xFF00)>>8))
	buf = append(buf, byte((state.Pc&0x00FF)>>0))
	buf = append(buf, state.V[:]...)
	buf = append(buf, byte((state.I&0xFF00)>>8))
	buf = append(buf, byte((state.I&0x00FF)>>0))
	buf = append(buf, state.Sp)
	for _, b := range state.Stack {
		buf = append(buf, byte((b&0xFF00)>>8))
		buf = append(buf, byte((b&0x00FF)>>0))
	}
	buf = append(buf, state.Dt)
	buf = append(buf, state.St)
	buf = append(buf, chip8.ScreenWidth)
	buf = append(buf, chip8.ScreenHeight)

	return buf
}
