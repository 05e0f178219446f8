package realtime

import "encoding/json"

// Server to client events.
const (
	EventTaskCreated  = "task_created"
	EventTaskUpdated  = "task_updated"
	EventTaskDeleted  = "task_deleted"
	EventTaskAssigned = "task_assigned"
	EventNotification = "notification"
	EventError        = "error"
)

// EventJoin is the only event a client sends.
const EventJoin = "join"

// Message is the JSON frame exchanged with clients.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Envelope is a frame addressed to one channel, or to everyone when Channel is empty.
type Envelope struct {
	Channel string          `json:"channel,omitempty"`
	Frame   json.RawMessage `json:"frame"`
}

// Router is the delivery surface used by publishers.
type Router interface {
	Broadcast(event string, payload any)
	SendToChannel(channel, event string, payload any)
}

func encodeFrame(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Event: event, Data: data})
}
