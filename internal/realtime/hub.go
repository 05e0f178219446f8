package realtime

import (
	"context"
	"log"
	"sync"
	"time"
)

const relayPublishTimeout = 2 * time.Second

// Relay fans frames out to every process sharing the same hub topology.
type Relay interface {
	Publish(ctx context.Context, env Envelope) error
}

// Hub tracks live connections and the channels they joined. Delivery is
// best-effort: no acknowledgement, no replay for late joiners, and frames
// for a connection whose queue is full are dropped. Frames reach a single
// connection in the order they were published.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*Client]map[string]struct{} // client -> joined channels
	channels map[string]map[*Client]struct{} // channel -> members
	relay    Relay
	closed   bool
}

var _ Router = (*Hub)(nil)

// NewHub creates a hub. A nil relay keeps delivery in-process.
func NewHub(relay Relay) *Hub {
	return &Hub{
		clients:  make(map[*Client]map[string]struct{}),
		channels: make(map[string]map[*Client]struct{}),
		relay:    relay,
	}
}

// Register adds a connection. Registering after Close closes the client at once.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		c.close()
		return
	}
	if _, ok := h.clients[c]; !ok {
		h.clients[c] = make(map[string]struct{})
	}
	log.Printf("[hub] Client %s connected", c.ID)
}

// Unregister drops the connection and every channel membership it held.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	joined, ok := h.clients[c]
	if !ok {
		return
	}
	for channel := range joined {
		h.leaveLocked(c, channel)
	}
	delete(h.clients, c)
	c.close()
	log.Printf("[hub] Client %s disconnected", c.ID)
}

// Join adds the connection to a channel. Joining twice is a no-op.
// It reports false when the connection is not registered.
func (h *Hub) Join(c *Client, channel string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	joined, ok := h.clients[c]
	if !ok {
		return false
	}
	if _, already := joined[channel]; already {
		return true
	}
	joined[channel] = struct{}{}
	if h.channels[channel] == nil {
		h.channels[channel] = make(map[*Client]struct{})
	}
	h.channels[channel][c] = struct{}{}
	log.Printf("[hub] Client %s joined channel %s", c.ID, channel)
	return true
}

func (h *Hub) leaveLocked(c *Client, channel string) {
	members := h.channels[channel]
	if members == nil {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.channels, channel)
	}
}

// Broadcast delivers to every connection regardless of membership.
func (h *Hub) Broadcast(event string, payload any) {
	h.publish("", event, payload)
}

// SendToChannel delivers only to current members of the channel.
func (h *Hub) SendToChannel(channel, event string, payload any) {
	if channel == "" {
		return
	}
	h.publish(channel, event, payload)
}

func (h *Hub) publish(channel, event string, payload any) {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		log.Printf("[hub] Failed to encode %s event: %v", event, err)
		return
	}
	env := Envelope{Channel: channel, Frame: frame}

	if h.relay == nil {
		h.Deliver(env)
		return
	}

	// Local connections get the frame back through the relay subscription.
	// Delivering it here on failure could overtake frames still in flight.
	ctx, cancel := context.WithTimeout(context.Background(), relayPublishTimeout)
	defer cancel()
	if err := h.relay.Publish(ctx, env); err != nil {
		log.Printf("[hub] Relay publish failed, dropped %s event: %v", event, err)
	}
}

// Deliver hands an already encoded frame to local connections. The relay
// subscriber calls it for frames published by any instance.
func (h *Hub) Deliver(env Envelope) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if env.Channel == "" {
		for c := range h.clients {
			h.sendToClient(c, env.Frame)
		}
		return
	}
	for c := range h.channels[env.Channel] {
		h.sendToClient(c, env.Frame)
	}
}

func (h *Hub) sendToClient(c *Client, frame []byte) {
	if !c.enqueue(frame) {
		log.Printf("[hub] Dropped frame for client %s", c.ID)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ChannelSize returns the number of connections joined to a channel.
func (h *Hub) ChannelSize(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

// Close disconnects every client. The hub accepts no connections afterwards.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for c := range h.clients {
		c.close()
	}
	h.clients = make(map[*Client]map[string]struct{})
	h.channels = make(map[string]map[*Client]struct{})
	log.Println("[hub] Closed")
}
