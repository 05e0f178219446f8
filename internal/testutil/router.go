package testutil

import (
	"sync"

	"taskhub/internal/realtime"
)

// Delivery is one call recorded by RecordingRouter. Channel is empty for broadcasts.
type Delivery struct {
	Channel string
	Event   string
	Payload any
}

// RecordingRouter captures realtime deliveries instead of sending them.
type RecordingRouter struct {
	mu         sync.Mutex
	deliveries []Delivery
}

var _ realtime.Router = (*RecordingRouter)(nil)

func (r *RecordingRouter) Broadcast(event string, payload any) {
	r.record(Delivery{Event: event, Payload: payload})
}

func (r *RecordingRouter) SendToChannel(channel, event string, payload any) {
	r.record(Delivery{Channel: channel, Event: event, Payload: payload})
}

func (r *RecordingRouter) record(d Delivery) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries = append(r.deliveries, d)
}

// Deliveries returns a copy of everything recorded so far.
func (r *RecordingRouter) Deliveries() []Delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Delivery, len(r.deliveries))
	copy(out, r.deliveries)
	return out
}

// Events returns the event names in delivery order.
func (r *RecordingRouter) Events() []string {
	var out []string
	for _, d := range r.Deliveries() {
		out = append(out, d.Event)
	}
	return out
}

// ForChannel returns the deliveries addressed to a single channel.
func (r *RecordingRouter) ForChannel(channel string) []Delivery {
	var out []Delivery
	for _, d := range r.Deliveries() {
		if d.Channel == channel {
			out = append(out, d)
		}
	}
	return out
}
