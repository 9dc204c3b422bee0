package ws

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

var (
	errClientClosed = errors.New("client closed")
	errSlowClient   = errors.New("send buffer full")
)

// Client is a live connection with a buffered outbound path. Writes are
// serialized through a single writer goroutine; a client that cannot drain
// its buffer is dropped rather than allowed to stall the dispatcher.
type Client struct {
	id     string
	userID string
	ctx    context.Context
	cancel context.CancelFunc
	conn   *Conn
	out    chan []byte
	once   sync.Once
}

// NewClient starts the writer goroutine. userID may be empty: the connection
// is then served but never enters the presence roster.
func NewClient(parent context.Context, conn *Conn, userID string) *Client {
	ctx, cancel := context.WithCancel(parent)
	c := &Client{
		id:     uuid.NewString(),
		userID: userID,
		ctx:    ctx,
		cancel: cancel,
		conn:   conn,
		out:    make(chan []byte, 256),
	}
	go c.writeLoop()
	return c
}

func (c *Client) ID() string     { return c.id }
func (c *Client) UserID() string { return c.userID }

func (c *Client) Send(ctx context.Context, data []byte) error {
	select {
	case <-c.ctx.Done():
		return errClientClosed
	default:
	}
	select {
	case c.out <- data:
		return nil
	case <-c.ctx.Done():
		return errClientClosed
	default:
		c.Close()
		return errSlowClient
	}
}

func (c *Client) Close() {
	c.once.Do(func() {
		c.cancel()
		c.conn.Close()
	})
}

func (c *Client) writeLoop() {
	defer c.Close()
	for {
		select {
		case <-c.ctx.Done():
			return
		case data := <-c.out:
			if err := c.conn.WriteMessage(data); err != nil {
				return
			}
		}
	}
}
