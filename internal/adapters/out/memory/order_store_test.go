package memory_test

import (
	"testing"
	"time"

	"tracking/internal/adapters/out/memory"
	"tracking/internal/core/domain/model/kernel"
	"tracking/internal/core/domain/model/order"
	"tracking/internal/core/ports"
	"tracking/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func newOrder(t *testing.T, id, customer string, createdAt time.Time) *order.Order {
	t.Helper()
	loc, err := kernel.NewGeoLocation(12.9, 77.6, "Central")
	require.NoError(t, err)
	item, err := order.NewItem(kernel.MustParseID("p1"), "Milk", 1)
	require.NoError(t, err)
	o, err := order.NewOrder(
		kernel.MustParseID(id), kernel.MustParseID(customer), kernel.MustParseID("b1"),
		[]order.Item{item}, decimal.NewFromInt(10), loc, loc, createdAt)
	require.NoError(t, err)
	return o
}

func claim(t *testing.T, o *order.Order, partner string) {
	t.Helper()
	loc, err := kernel.NewGeoLocation(12.8, 77.5, "")
	require.NoError(t, err)
	require.NoError(t, o.Claim(kernel.MustParseID(partner), loc, testNow))
}

func TestOrderStore_AddGet(t *testing.T) {
	ctx := t.Context()
	store := memory.NewOrderStore()
	o := newOrder(t, "o1", "c1", testNow)

	require.NoError(t, store.Add(ctx, o))
	require.ErrorIs(t, store.Add(ctx, o), errs.ErrValueIsInvalid)

	got, err := store.Get(ctx, o.ID())
	require.NoError(t, err)
	assert.Equal(t, o.Snapshot(), got.Snapshot())

	_, err = store.Get(ctx, kernel.MustParseID("missing"))
	require.ErrorIs(t, err, errs.ErrObjectNotFound)
}

func TestOrderStore_UpdateIf(t *testing.T) {
	ctx := t.Context()
	store := memory.NewOrderStore()
	require.NoError(t, store.Add(ctx, newOrder(t, "o1", "c1", testNow)))
	d1 := kernel.MustParseID("d1")

	first, err := store.Get(ctx, kernel.MustParseID("o1"))
	require.NoError(t, err)
	second, err := store.Get(ctx, kernel.MustParseID("o1"))
	require.NoError(t, err)

	claim(t, first, "d1")
	claim(t, second, "d2")

	expect := ports.Expectation{Status: order.Available, Unassigned: true}
	matched, err := store.UpdateIf(ctx, first, expect)
	require.NoError(t, err)
	assert.True(t, matched)

	matched, err = store.UpdateIf(ctx, second, expect)
	require.NoError(t, err)
	assert.False(t, matched, "second claim must not overwrite the first")

	stored, err := store.Get(ctx, kernel.MustParseID("o1"))
	require.NoError(t, err)
	assert.True(t, stored.IsAssignedTo(d1))

	loc, err := kernel.NewGeoLocation(12.7, 77.4, "")
	require.NoError(t, err)
	require.NoError(t, stored.UpdateStatus(d1, order.Delivered, loc, testNow))

	d2 := kernel.MustParseID("d2")
	matched, err = store.UpdateIf(ctx, stored, ports.Expectation{Status: order.Confirmed, DeliveryPartner: &d2})
	require.NoError(t, err)
	assert.False(t, matched, "partner predicate must hold")

	matched, err = store.UpdateIf(ctx, stored, ports.Expectation{Status: order.Confirmed, DeliveryPartner: &d1})
	require.NoError(t, err)
	assert.True(t, matched)

	_, err = store.UpdateIf(ctx, newOrder(t, "o404", "c1", testNow), expect)
	require.ErrorIs(t, err, errs.ErrObjectNotFound)
}

func TestOrderStore_FindNewestFirst(t *testing.T) {
	ctx := t.Context()
	store := memory.NewOrderStore()
	require.NoError(t, store.Add(ctx, newOrder(t, "o1", "c1", testNow)))
	require.NoError(t, store.Add(ctx, newOrder(t, "o2", "c2", testNow.Add(time.Minute))))
	o3 := newOrder(t, "o3", "c1", testNow.Add(2*time.Minute))
	claim(t, o3, "d1")
	require.NoError(t, store.Add(ctx, o3))

	all, err := store.Find(ctx, ports.OrderFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"o3", "o2", "o1"}, ids(all))

	c1 := kernel.MustParseID("c1")
	byCustomer, err := store.Find(ctx, ports.OrderFilter{CustomerID: &c1})
	require.NoError(t, err)
	assert.Equal(t, []string{"o3", "o1"}, ids(byCustomer))

	available := order.Available
	byStatus, err := store.Find(ctx, ports.OrderFilter{Status: &available})
	require.NoError(t, err)
	assert.Equal(t, []string{"o2", "o1"}, ids(byStatus))

	d1 := kernel.MustParseID("d1")
	byPartner, err := store.Find(ctx, ports.OrderFilter{DeliveryPartner: &d1})
	require.NoError(t, err)
	assert.Equal(t, []string{"o3"}, ids(byPartner))

	limited, err := store.Find(ctx, ports.OrderFilter{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"o3"}, ids(limited))

	counts, err := store.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[order.Status]int64{order.Available: 2, order.Confirmed: 1}, counts)
}

func TestUnitOfWork_RollbackRevertsUncommittedWrites(t *testing.T) {
	ctx := t.Context()
	store := memory.NewOrderStore()
	require.NoError(t, store.Add(ctx, newOrder(t, "o1", "c1", testNow)))
	factory := memory.NewUnitOfWorkFactory(store)

	uow := factory.Create()
	require.NoError(t, uow.Begin(ctx))
	require.ErrorIs(t, uow.Begin(ctx), memory.ErrTransactionAlreadyStarted)

	repo := uow.OrderRepository()
	require.NoError(t, repo.Add(ctx, newOrder(t, "o2", "c1", testNow)))
	o1, err := repo.Get(ctx, kernel.MustParseID("o1"))
	require.NoError(t, err)
	claim(t, o1, "d1")
	matched, err := repo.UpdateIf(ctx, o1, ports.Expectation{Status: order.Available, Unassigned: true})
	require.NoError(t, err)
	require.True(t, matched)

	require.NoError(t, uow.Rollback(ctx))

	_, err = store.Get(ctx, kernel.MustParseID("o2"))
	require.ErrorIs(t, err, errs.ErrObjectNotFound)
	restored, err := store.Get(ctx, kernel.MustParseID("o1"))
	require.NoError(t, err)
	assert.Equal(t, order.Available, restored.Status())
}

func TestUnitOfWork_CommitKeepsWrites(t *testing.T) {
	ctx := t.Context()
	store := memory.NewOrderStore()
	uow := memory.NewUnitOfWorkFactory(store).Create()

	require.ErrorIs(t, uow.Commit(ctx), memory.ErrNoActiveTransaction)
	require.NoError(t, uow.Begin(ctx))
	require.NoError(t, uow.OrderRepository().Add(ctx, newOrder(t, "o1", "c1", testNow)))
	require.NoError(t, uow.Commit(ctx))
	require.NoError(t, uow.Rollback(ctx))

	_, err := store.Get(ctx, kernel.MustParseID("o1"))
	require.NoError(t, err)
}

func ids(orders []*order.Order) []string {
	out := make([]string, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.ID().String())
	}
	return out
}
