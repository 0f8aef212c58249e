package server

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pefman/cosmic-race/internal/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = time.Minute
	pingPeriod = 30 * time.Second
	outboxSize = 128
)

// wsConn owns one browser socket. Reads happen on the session goroutine,
// writes on writePump; Send never blocks the caller.
type wsConn struct {
	socket *websocket.Conn
	outbox chan models.WsMsg

	closeOnce sync.Once
	closed    chan struct{}
}

func newWSConn(socket *websocket.Conn) *wsConn {
	socket.SetReadLimit(4096)
	_ = socket.SetReadDeadline(time.Now().Add(pongWait))
	socket.SetPongHandler(func(string) error {
		return socket.SetReadDeadline(time.Now().Add(pongWait))
	})
	return &wsConn{
		socket: socket,
		outbox: make(chan models.WsMsg, outboxSize),
		closed: make(chan struct{}),
	}
}

// Send queues msg for the client. It reports false when the socket is gone
// or the client is too far behind.
func (c *wsConn) Send(msg models.WsMsg) bool {
	select {
	case <-c.closed:
		return false
	default:
	}
	select {
	case c.outbox <- msg:
		return true
	default:
		return false
	}
}

func (c *wsConn) Read() (models.ClientMsg, error) {
	var in models.ClientMsg
	err := c.socket.ReadJSON(&in)
	if err == nil {
		// any client traffic proves liveness
		_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
	}
	return in, err
}

func (c *wsConn) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.closed:
			return
		case msg := <-c.outbox:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteJSON(msg); err != nil {
				c.Close("write-failed")
				return
			}
		case <-ticker.C:
			if err := c.socket.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.Close("ping-failed")
				return
			}
		}
	}
}

// Close sends a close frame with reason and releases the socket. Safe to call repeatedly.
func (c *wsConn) Close(reason string) {
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.socket.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason),
			time.Now().Add(time.Second))
		_ = c.socket.Close()
	})
}
