package realtime

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// ErrChannelMismatch is reported when an authenticated connection announces
// an id other than its own.
var ErrChannelMismatch = errors.New("cannot join another user's channel")

// JoinPolicy decides which channel an announced id maps to.
type JoinPolicy struct {
	// RequireIdentity pins the channel to the connection's authenticated user id.
	RequireIdentity bool
}

// Resolve returns the channel a join announcement is allowed to enter.
func (p JoinPolicy) Resolve(c *Client, announced string) (string, error) {
	if !p.RequireIdentity {
		if announced == "" {
			return "", errors.New("empty channel name")
		}
		return announced, nil
	}
	if c.UserID == "" {
		return "", ErrChannelMismatch
	}
	if announced != "" && announced != c.UserID {
		return "", ErrChannelMismatch
	}
	return c.UserID, nil
}

// Serve runs the read and write loops of a websocket connection until it closes.
func (h *Hub) Serve(conn *websocket.Conn, c *Client, policy JoinPolicy) {
	h.Register(c)
	go h.writePump(conn, c)
	h.readPump(conn, c, policy)
}

func (h *Hub) readPump(conn *websocket.Conn, c *Client, policy JoinPolicy) {
	defer func() {
		h.Unregister(c)
		_ = conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[hub] Client %s read error: %v", c.ID, err)
			}
			return
		}
		h.handleInbound(c, data, policy)
	}
}

func (h *Hub) handleInbound(c *Client, data []byte, policy JoinPolicy) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		h.replyError(c, "Invalid message format")
		return
	}

	switch msg.Event {
	case EventJoin:
		var announced string
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &announced); err != nil {
				h.replyError(c, "join expects a user id string")
				return
			}
		}
		channel, err := policy.Resolve(c, announced)
		if err != nil {
			h.replyError(c, err.Error())
			return
		}
		h.Join(c, channel)
	default:
		h.replyError(c, "Unknown event: "+msg.Event)
	}
}

func (h *Hub) replyError(c *Client, message string) {
	frame, err := encodeFrame(EventError, map[string]string{"message": message})
	if err != nil {
		return
	}
	c.enqueue(frame)
}

func (h *Hub) writePump(conn *websocket.Conn, c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.Send():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Printf("[hub] Failed to send to client %s: %v", c.ID, err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
