package ws

import (
	"encoding/json"

	"talent-split/internal/usecase"
)

// Publisher pushes engine events onto the hub. Fire-and-forget: a marshal
// failure or a full buffer loses the event, never the operation.
type Publisher struct {
	hub *Hub
}

func NewPublisher(hub *Hub) *Publisher {
	return &Publisher{hub: hub}
}

func (p *Publisher) Publish(evt usecase.Event) {
	if p == nil || p.hub == nil {
		return
	}
	b, err := json.Marshal(evt)
	if err != nil {
		return
	}
	p.hub.Broadcast(b)
}
