// Package publisher combines event publishers.
package publisher

import (
	"context"
	"errors"

	"tracking/internal/core/domain/model/order"
	"tracking/internal/core/ports"
)

var _ ports.EventPublisher = Multi{}

// Multi hands every event to each publisher in turn. One failing publisher
// does not stop the others; their errors are joined.
type Multi []ports.EventPublisher

func (m Multi) Publish(ctx context.Context, event order.Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
