package ws

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"nhooyr.io/websocket"
)

const (
	clientSendBuffer = 32
	writeTimeout     = 10 * time.Second
)

// Client is one authenticated websocket connection. A user may hold several.
type Client struct {
	userID string
	conn   *websocket.Conn
	send   chan []byte

	mu     sync.Mutex
	closed bool
}

func newClient(userID string, conn *websocket.Conn) *Client {
	return &Client{userID: userID, conn: conn, send: make(chan []byte, clientSendBuffer)}
}

// Send queues a frame without blocking. A client that cannot keep up is
// dropped.
func (c *Client) Send(b []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- b:
		return true
	default:
		log.Warn().Str("user_id", c.userID).Msg("ws send buffer full, dropping client")
		c.closed = true
		close(c.send)
		return false
	}
}

func (c *Client) SendMessage(m ServerMessage) bool {
	b, err := EncodeServerMessage(m)
	if err != nil {
		log.Error().Err(err).Str("type", m.serverType()).Msg("ws encode failed")
		return false
	}
	return c.Send(b)
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// writeLoop drains the send channel until it is closed, then closes the
// connection so the read side unblocks.
func (c *Client) writeLoop(ctx context.Context) {
	defer c.conn.Close(websocket.StatusPolicyViolation, "send buffer overflow")
	for msg := range c.send {
		wctx, cancel := context.WithTimeout(ctx, writeTimeout)
		err := c.conn.Write(wctx, websocket.MessageText, msg)
		cancel()
		if err != nil {
			return
		}
	}
}
