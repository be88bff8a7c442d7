package hub

import (
	"context"

	"tracking/internal/core/domain/model/order"
	"tracking/internal/core/ports"
)

var _ ports.EventPublisher = Publisher{}

// Publisher delivers lifecycle events to the order's live channel.
type Publisher struct {
	hub *Hub
}

func NewPublisher(h *Hub) Publisher {
	return Publisher{hub: h}
}

func (p Publisher) Publish(ctx context.Context, event order.Event) error {
	return p.hub.Publish(ctx, event.Order.ID, event.Name, event.Order)
}
