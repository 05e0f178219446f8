package realtime

import "sync"

// DefaultSendBuffer is the number of frames queued per connection before
// new frames are dropped.
const DefaultSendBuffer = 256

// Client is one live connection as seen by the Hub.
type Client struct {
	ID string
	// UserID is the authenticated identity of the connection, empty for anonymous ones.
	UserID string

	send   chan []byte
	mu     sync.Mutex
	closed bool
}

func NewClient(id, userID string, buffer int) *Client {
	if buffer <= 0 {
		buffer = DefaultSendBuffer
	}
	return &Client{
		ID:     id,
		UserID: userID,
		send:   make(chan []byte, buffer),
	}
}

// Send is drained by the connection writer. It is closed when the client
// leaves the hub.
func (c *Client) Send() <-chan []byte {
	return c.send
}

// enqueue never blocks; a full or closed queue drops the frame.
func (c *Client) enqueue(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
