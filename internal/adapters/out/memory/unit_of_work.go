package memory

import (
	"context"
	"errors"

	"tracking/internal/core/domain/model/kernel"
	"tracking/internal/core/domain/model/order"
	"tracking/internal/core/ports"
)

var (
	ErrTransactionAlreadyStarted = errors.New("transaction already started")
	ErrNoActiveTransaction       = errors.New("no active transaction")
)

var (
	_ ports.UnitOfWork        = &UnitOfWork{}
	_ ports.UnitOfWorkFactory = &UnitOfWorkFactory{}
)

// UnitOfWorkFactory hands out units of work over a shared OrderStore.
type UnitOfWorkFactory struct {
	store *OrderStore
}

func NewUnitOfWorkFactory(store *OrderStore) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{store: store}
}

func (f *UnitOfWorkFactory) Create() ports.UnitOfWork {
	return &UnitOfWork{store: f.store}
}

// UnitOfWork applies writes to the store immediately and remembers what
// each of them replaced, so Rollback before Commit reverts them. Each write
// is atomic on its own; concurrent units of work are kept apart only by
// UpdateIf's predicate.
type UnitOfWork struct {
	store   *OrderStore
	active  bool
	written []written
}

type written struct {
	id  kernel.ID
	rev revision
}

func (u *UnitOfWork) Begin(_ context.Context) error {
	if u.active {
		return ErrTransactionAlreadyStarted
	}
	u.active = true
	u.written = nil
	return nil
}

func (u *UnitOfWork) Commit(_ context.Context) error {
	if !u.active {
		return ErrNoActiveTransaction
	}
	u.active = false
	u.written = nil
	return nil
}

// Rollback is a no-op after Commit, matching the deferred rollback in the
// command handlers.
func (u *UnitOfWork) Rollback(_ context.Context) error {
	if !u.active {
		return nil
	}
	for i := len(u.written) - 1; i >= 0; i-- {
		u.store.revert(u.written[i].id, u.written[i].rev)
	}
	u.active = false
	u.written = nil
	return nil
}

func (u *UnitOfWork) OrderRepository() ports.OrderRepository {
	return &trackedRepository{OrderStore: u.store, uow: u}
}

func (u *UnitOfWork) track(id kernel.ID, rev revision) {
	if u.active {
		u.written = append(u.written, written{id: id, rev: rev})
	}
}

// trackedRepository records every successful write with its unit of work.
type trackedRepository struct {
	*OrderStore
	uow *UnitOfWork
}

func (r *trackedRepository) Add(ctx context.Context, aggregate *order.Order) error {
	version, err := r.add(ctx, aggregate)
	if err != nil {
		return err
	}
	r.uow.track(aggregate.ID(), revision{version: version})
	return nil
}

func (r *trackedRepository) UpdateIf(ctx context.Context, aggregate *order.Order, expected ports.Expectation) (bool, error) {
	matched, rev, err := r.updateIf(ctx, aggregate, expected)
	if err != nil || !matched {
		return matched, err
	}
	r.uow.track(aggregate.ID(), rev)
	return true, nil
}
