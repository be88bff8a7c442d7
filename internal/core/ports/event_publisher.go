package ports

import (
	"context"

	"tracking/internal/core/domain/model/order"
)

// EventPublisher hands a lifecycle event to the live channel of its order.
// Implementations must not block on subscribers; delivery is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, event order.Event) error
}
