package queries

import (
	"context"
	"time"

	"tracking/internal/core/domain/model/order"
	"tracking/internal/core/ports"
)

// ListOrdersQueryHandler reads orders newest first.
type ListOrdersQueryHandler struct {
	repo    ports.OrderRepository
	timeout time.Duration
}

func NewListOrdersQueryHandler(repo ports.OrderRepository, timeout time.Duration) ListOrdersQueryHandler {
	return ListOrdersQueryHandler{repo: repo, timeout: timeoutOrDefault(timeout)}
}

// Handle returns an empty, non-nil slice when nothing matches.
func (h ListOrdersQueryHandler) Handle(ctx context.Context, query ListOrdersQuery) ([]order.Snapshot, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	orders, err := h.repo.Find(ctx, query.Filter())
	if err != nil {
		return nil, readError(ctx, "find orders", err)
	}

	snapshots := make([]order.Snapshot, 0, len(orders))
	for _, o := range orders {
		snapshots = append(snapshots, o.Snapshot())
	}
	return snapshots, nil
}
