package http

import (
	"log"
	"sync"
	"time"

	"classroom-quiz/internal/domain"
	"classroom-quiz/internal/metrics"
	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// connection is the domain.Sink of one websocket. Events are queued on a bounded buffer
// drained by a single writer goroutine; a full buffer kicks the connection instead of
// blocking the room that is sending.
type connection struct {
	ws *websocket.Conn

	mu     sync.Mutex
	send   chan domain.Event
	closed bool
}

func newConnection(ws *websocket.Conn, buffer int) *connection {
	if buffer <= 0 {
		buffer = 64
	}
	return &connection{ws: ws, send: make(chan domain.Event, buffer)}
}

// Send implements domain.Sink.
func (c *connection) Send(ev domain.Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- ev:
		return true
	default:
		metrics.DroppedConnections.Inc()
		c.closeLocked()
		return false
	}
}

// close stops the writer after it has flushed what is already queued.
func (c *connection) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *connection) closeLocked() {
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// writePump is the only goroutine writing to the websocket. It closes the socket when the
// queue is closed or a write fails, which in turn ends the read loop.
func (c *connection) writePump(pingInterval time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteJSON(ev); err != nil {
				log.Printf("ws: write error: %v", err)
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}
