package services

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// ErrChannelClosed is returned by Send after the channel has been closed.
var ErrChannelClosed = errors.New("channel closed")

const writeWait = 10 * time.Second

// Channel is one client's persistent connection: whole text messages in and
// out. The websocket implementation below is the production transport; tests
// drive clients through an in-memory implementation.
type Channel interface {
	Send(message []byte) error
	Receive() ([]byte, error)
	Connected() bool
	Close() error
}

type wsChannel struct {
	conn   *websocket.Conn
	mu     sync.Mutex // serializes writes, gorilla allows one writer at a time
	closed atomic.Bool
}

func NewWSChannel(conn *websocket.Conn) Channel {
	return &wsChannel{conn: conn}
}

func (c *wsChannel) Send(message []byte) error {
	if c.closed.Load() {
		return ErrChannelClosed
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, message)
}

func (c *wsChannel) Receive() ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrChannelClosed
	}
	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if messageType == websocket.TextMessage {
			return data, nil
		}
		// binary frames are not part of the protocol, skip them
	}
}

func (c *wsChannel) Connected() bool {
	return !c.closed.Load()
}

func (c *wsChannel) Close() error {
	if c.closed.CompareAndSwap(false, true) {
		return c.conn.Close()
	}
	return nil
}
