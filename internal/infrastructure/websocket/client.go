package websocket

import (
	"log"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Client represents one WebSocket connection. UserID is empty for
// anonymous connections.
type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte

	dropped atomic.Bool
}

// Drop marks the connection dead after a failed delivery and closes the
// transport so both pumps unwind on their own. The send channel is never
// closed; concurrent senders only ever see the flag. Safe to call from any
// goroutine, any number of times.
func (c *Client) Drop() {
	if c.dropped.CompareAndSwap(false, true) && c.Conn != nil {
		c.Conn.Close()
	}
}

// Dropped reports whether the connection has been marked dead.
func (c *Client) Dropped() bool {
	return c.dropped.Load()
}

// ReadPump reads frames from the connection and dispatches them to the
// manager. It runs until the transport drops; cleanup happens exactly once
// on exit.
func (c *Client) ReadPump(m *Manager) {
	defer func() {
		m.Deregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket: read error for user %q: %v", c.UserID, err)
			}
			break
		}

		m.HandleClientMessage(c, message)
	}
}

// WritePump drains the send channel onto the connection and keeps the
// transport alive with periodic pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("WebSocket: write error for user %q: %v", c.UserID, err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
