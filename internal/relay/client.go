package relay

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/muurk/anthemctl/internal/logging"
	"go.uber.org/zap"
)

// client is one WebSocket peer. All writes go through writePump.
type client struct {
	conn   *websocket.Conn
	remote string
	send   chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

func newClient(conn *websocket.Conn, remote string) *client {
	return &client{
		conn:   conn,
		remote: remote,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
}

// enqueue queues env for sending. It reports false when the client's
// buffer is full or the client is closed.
func (c *client) enqueue(env Envelope) bool {
	data, err := json.Marshal(env)
	if err != nil {
		logging.Error("Failed to marshal relay message",
			zap.String("type", env.Type),
			zap.Error(err),
		)
		return true
	}

	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// writePump sends queued messages and keep-alive pings.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
			logging.LogWebSocketMessage(c.remote, "sent", websocket.TextMessage, data)
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
