package queries

import (
	"context"
	"time"

	"tracking/internal/core/domain/model/order"
	"tracking/internal/core/ports"
	"tracking/internal/pkg/errs"
)

// DefaultStoreTimeout bounds a query when no timeout is configured.
const DefaultStoreTimeout = 5 * time.Second

// GetOrderQueryHandler reads one order. Any authenticated actor may read
// any order.
type GetOrderQueryHandler struct {
	repo    ports.OrderRepository
	timeout time.Duration
}

// NewGetOrderQueryHandler creates the handler. A non-positive timeout
// falls back to DefaultStoreTimeout.
func NewGetOrderQueryHandler(repo ports.OrderRepository, timeout time.Duration) GetOrderQueryHandler {
	return GetOrderQueryHandler{repo: repo, timeout: timeoutOrDefault(timeout)}
}

// Handle returns the order or an errs.ErrObjectNotFound error.
func (h GetOrderQueryHandler) Handle(ctx context.Context, query GetOrderQuery) (order.Snapshot, error) {
	if err := query.Validate(); err != nil {
		return order.Snapshot{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	o, err := h.repo.Get(ctx, query.OrderID())
	if err != nil {
		return order.Snapshot{}, readError(ctx, "get order", err)
	}
	return o.Snapshot(), nil
}

func timeoutOrDefault(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return DefaultStoreTimeout
	}
	return timeout
}

func readError(ctx context.Context, operation string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return errs.FromContext(operation, ctxErr)
	}
	return errs.FromContext(operation, err)
}
