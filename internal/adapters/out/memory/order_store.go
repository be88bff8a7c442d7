package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"tracking/internal/core/domain/model/kernel"
	"tracking/internal/core/domain/model/order"
	"tracking/internal/core/ports"
	"tracking/internal/pkg/errs"
)

var _ ports.OrderRepository = &OrderStore{}

// OrderStore keeps orders as snapshots behind a single mutex. Every read
// restores a fresh aggregate, so callers never share state.
type OrderStore struct {
	mu     sync.Mutex
	orders map[kernel.ID]order.Snapshot
	// versions counts writes per order; rollbacks only undo their own write.
	versions map[kernel.ID]uint64
}

func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders:   make(map[kernel.ID]order.Snapshot),
		versions: make(map[kernel.ID]uint64),
	}
}

func (s *OrderStore) Add(ctx context.Context, aggregate *order.Order) error {
	_, err := s.add(ctx, aggregate)
	return err
}

func (s *OrderStore) add(ctx context.Context, aggregate *order.Order) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := aggregate.Validate(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[aggregate.ID()]; exists {
		return 0, errs.NewValueIsInvalidErrorWithCause("id", fmt.Errorf("order %s already exists", aggregate.ID()))
	}
	return s.write(aggregate.ID(), aggregate.Snapshot()), nil
}

func (s *OrderStore) Get(ctx context.Context, id kernel.ID) (*order.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	snapshot, ok := s.orders[id]
	s.mu.Unlock()

	if !ok {
		return nil, errs.NewObjectNotFoundError("order", id.String())
	}
	return order.RestoreOrder(snapshot)
}

func (s *OrderStore) Find(ctx context.Context, filter ports.OrderFilter) ([]*order.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	matched := make([]order.Snapshot, 0, len(s.orders))
	for _, snapshot := range s.orders {
		if matches(snapshot, filter) {
			matched = append(matched, snapshot)
		}
	}
	s.mu.Unlock()

	slices.SortFunc(matched, func(a, b order.Snapshot) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID.String(), a.ID.String())
	})
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}

	orders := make([]*order.Order, 0, len(matched))
	for _, snapshot := range matched {
		o, err := order.RestoreOrder(snapshot)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// UpdateIf compares and sets under the store mutex.
func (s *OrderStore) UpdateIf(ctx context.Context, aggregate *order.Order, expected ports.Expectation) (bool, error) {
	matched, _, err := s.updateIf(ctx, aggregate, expected)
	return matched, err
}

// updateIf also returns the replaced snapshot and the version it wrote.
func (s *OrderStore) updateIf(
	ctx context.Context,
	aggregate *order.Order,
	expected ports.Expectation,
) (bool, revision, error) {
	if err := ctx.Err(); err != nil {
		return false, revision{}, err
	}
	if err := aggregate.Validate(); err != nil {
		return false, revision{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.orders[aggregate.ID()]
	if !ok {
		return false, revision{}, errs.NewObjectNotFoundError("order", aggregate.ID().String())
	}
	if !satisfies(stored, expected) {
		return false, revision{}, nil
	}

	version := s.write(aggregate.ID(), aggregate.Snapshot())
	return true, revision{previous: &stored, version: version}, nil
}

func (s *OrderStore) CountByStatus(ctx context.Context) (map[order.Status]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[order.Status]int64)
	for _, snapshot := range s.orders {
		counts[snapshot.Status]++
	}
	return counts, nil
}

// revision describes one write: the snapshot it replaced (nil for an
// insert) and the version it produced.
type revision struct {
	previous *order.Snapshot
	version  uint64
}

// write must be called with mu held.
func (s *OrderStore) write(id kernel.ID, snapshot order.Snapshot) uint64 {
	s.orders[id] = snapshot
	s.versions[id]++
	return s.versions[id]
}

// revert undoes a write unless someone else wrote the order since.
func (s *OrderStore) revert(id kernel.ID, rev revision) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.versions[id] != rev.version {
		return
	}
	if rev.previous == nil {
		delete(s.orders, id)
		delete(s.versions, id)
		return
	}
	s.write(id, *rev.previous)
}

func satisfies(stored order.Snapshot, expected ports.Expectation) bool {
	if stored.Status != expected.Status {
		return false
	}
	if expected.Unassigned && stored.DeliveryPartnerID != nil {
		return false
	}
	if expected.DeliveryPartner != nil {
		if stored.DeliveryPartnerID == nil || !stored.DeliveryPartnerID.IsEqual(*expected.DeliveryPartner) {
			return false
		}
	}
	return true
}

func matches(s order.Snapshot, f ports.OrderFilter) bool {
	if f.Status != nil && s.Status != *f.Status {
		return false
	}
	if f.CustomerID != nil && !s.CustomerID.IsEqual(*f.CustomerID) {
		return false
	}
	if f.BranchID != nil && !s.BranchID.IsEqual(*f.BranchID) {
		return false
	}
	if f.DeliveryPartner != nil &&
		(s.DeliveryPartnerID == nil || !s.DeliveryPartnerID.IsEqual(*f.DeliveryPartner)) {
		return false
	}
	return true
}
