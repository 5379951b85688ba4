// Package realtime carries the websocket delivery channel for push
// notifications.
package realtime

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

var ErrConnClosed = errors.New("realtime: connection closed")

type frame struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// Conn wraps one websocket connection with a buffered outbound queue.
type Conn struct {
	id   string
	ws   *websocket.Conn
	send chan []byte
	done chan struct{}
}

func newConn(ws *websocket.Conn) *Conn {
	return &Conn{
		id:   uuid.NewString(),
		ws:   ws,
		send: make(chan []byte, 64),
		done: make(chan struct{}),
	}
}

func (c *Conn) ID() string { return c.id }

// Push queues an event frame for delivery. It fails fast when the
// connection is gone or the outbound queue is full.
func (c *Conn) Push(event string, payload any) error {
	data, err := json.Marshal(frame{Event: event, Payload: payload})
	if err != nil {
		return err
	}

	select {
	case <-c.done:
		return ErrConnClosed
	case c.send <- data:
		return nil
	default:
		return ErrConnClosed
	}
}

// writePump drains the outbound queue onto the wire and keeps the
// connection alive with pings. It owns all writes.
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// readPump discards inbound frames and unblocks on disconnect.
func (c *Conn) readPump(onClose func()) {
	defer func() {
		close(c.done)
		onClose()
		_ = c.ws.Close()
	}()

	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			return
		}
	}
}
