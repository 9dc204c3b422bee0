package ws

import (
	"context"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeTimeout = 10 * time.Second
	maxFrameSize = 512 * 1024
)

// Conn wraps a raw websocket with write deadlines, a read limit and a
// cancellable lifetime.
type Conn struct {
	*websocket.Conn
	ctx    context.Context
	cancel context.CancelFunc
}

func NewConn(parent context.Context, conn *websocket.Conn) *Conn {
	ctx, cancel := context.WithCancel(parent)
	return &Conn{Conn: conn, ctx: ctx, cancel: cancel}
}

func (c *Conn) WriteMessage(data []byte) error {
	c.Conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.Conn.WriteMessage(websocket.TextMessage, data)
}

// ReadLoop feeds inbound frames to onMsg until the peer goes away. Cleanup
// runs when the loop breaks, abnormal closes included.
func (c *Conn) ReadLoop(onMsg func([]byte)) {
	defer c.Close()
	c.Conn.SetReadLimit(maxFrameSize)
	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				slog.Debug("ws conn - read loop - unexpected close", "err", err)
			}
			return
		}
		if len(data) > 0 {
			onMsg(data)
		}
	}
}

func (c *Conn) Close() {
	c.cancel()
	_ = c.Conn.Close()
}
