// Package ports defines the contracts between the order lifecycle core and
// its collaborators: storage, directories, identity and event publishing.
package ports

import (
	"context"

	"tracking/internal/core/domain/model/kernel"
	"tracking/internal/core/domain/model/order"
)

// Expectation is the predicate a conditional update is keyed on. The update
// only applies when the stored order still has Status and, when set,
// DeliveryPartner; Unassigned demands that no partner is stored.
type Expectation struct {
	Status          order.Status
	DeliveryPartner *kernel.ID
	Unassigned      bool
}

// OrderFilter narrows Find. Zero fields do not filter.
type OrderFilter struct {
	Status          *order.Status
	CustomerID      *kernel.ID
	DeliveryPartner *kernel.ID
	BranchID        *kernel.ID
	Limit           int
}

// OrderRepository is the order store. Every write after creation goes
// through UpdateIf; there is no unconditional update.
type OrderRepository interface {
	// Add persists a new order. The id must not exist yet.
	Add(ctx context.Context, aggregate *order.Order) error

	// Get loads an order by id. Missing orders yield errs.ErrObjectNotFound.
	Get(ctx context.Context, id kernel.ID) (*order.Order, error)

	// Find returns the orders matching filter, newest first.
	Find(ctx context.Context, filter OrderFilter) ([]*order.Order, error)

	// UpdateIf writes the aggregate's mutable fields (status, partner,
	// partner location, timestamps) only if the stored row still satisfies
	// expected. The check and the write are one atomic step; matched is
	// false when the predicate no longer holds.
	UpdateIf(ctx context.Context, aggregate *order.Order, expected Expectation) (matched bool, err error)

	// CountByStatus returns the number of orders per status.
	CountByStatus(ctx context.Context) (map[order.Status]int64, error)
}
