package orderrepo_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"tracking/internal/adapters/out/postgres/orderrepo"
	"tracking/internal/core/domain/model/kernel"
	"tracking/internal/core/domain/model/order"
	"tracking/internal/core/ports"
	"tracking/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func newSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(
		sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)),
		&gorm.Config{TranslateError: true, Logger: logger.Discard},
	)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&orderrepo.OrderDTO{}))
	return db
}

func newOrder(t *testing.T, id, customer string, createdAt time.Time) *order.Order {
	t.Helper()
	pickup, err := kernel.NewGeoLocation(12.9, 77.6, "Central")
	require.NoError(t, err)
	delivery, err := kernel.NewGeoLocation(12.8, 77.5, kernel.NoAddressProvided)
	require.NoError(t, err)
	item, err := order.NewItem(kernel.MustParseID("p1"), "Milk", 2)
	require.NoError(t, err)
	o, err := order.NewOrder(
		kernel.MustParseID(id), kernel.MustParseID(customer), kernel.MustParseID("b1"),
		[]order.Item{item}, decimal.RequireFromString("20.50"), pickup, delivery, createdAt)
	require.NoError(t, err)
	return o
}

func claim(t *testing.T, o *order.Order, partner string) {
	t.Helper()
	loc, err := kernel.NewGeoLocation(12.85, 77.55, "Gate 2")
	require.NoError(t, err)
	require.NoError(t, o.Claim(kernel.MustParseID(partner), loc, testNow.Add(time.Minute)))
}

func TestGormOrderRepository_AddAndGet(t *testing.T) {
	ctx := t.Context()
	repo := orderrepo.NewGormOrderRepository(newSQLite(t))

	o := newOrder(t, "o1", "c1", testNow)
	require.NoError(t, repo.Add(ctx, o))

	got, err := repo.Get(ctx, o.ID())
	require.NoError(t, err)

	want := o.Snapshot()
	have := got.Snapshot()
	assert.Equal(t, want.ID, have.ID)
	assert.Equal(t, want.Status, have.Status)
	assert.True(t, want.TotalPrice.Equal(have.TotalPrice))
	assert.Equal(t, want.Items, have.Items)
	assert.Equal(t, want.PickupLocation, have.PickupLocation)
	assert.Equal(t, want.DeliveryLocation, have.DeliveryLocation)
	assert.True(t, want.CreatedAt.Equal(have.CreatedAt))
	assert.Nil(t, have.DeliveryPartnerID)
	assert.Nil(t, have.DeliveryPersonLocation)

	err = repo.Add(ctx, newOrder(t, "o1", "c1", testNow))
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)

	_, err = repo.Get(ctx, kernel.MustParseID("o404"))
	require.ErrorIs(t, err, errs.ErrObjectNotFound)
}

func TestGormOrderRepository_UpdateIf(t *testing.T) {
	ctx := t.Context()
	repo := orderrepo.NewGormOrderRepository(newSQLite(t))
	require.NoError(t, repo.Add(ctx, newOrder(t, "o1", "c1", testNow)))

	first, err := repo.Get(ctx, kernel.MustParseID("o1"))
	require.NoError(t, err)
	second, err := repo.Get(ctx, kernel.MustParseID("o1"))
	require.NoError(t, err)
	claim(t, first, "d1")
	claim(t, second, "d2")

	unclaimed := ports.Expectation{Status: order.Available, Unassigned: true}
	matched, err := repo.UpdateIf(ctx, first, unclaimed)
	require.NoError(t, err)
	assert.True(t, matched)

	matched, err = repo.UpdateIf(ctx, second, unclaimed)
	require.NoError(t, err)
	assert.False(t, matched)

	stored, err := repo.Get(ctx, kernel.MustParseID("o1"))
	require.NoError(t, err)
	assert.Equal(t, order.Confirmed, stored.Status())
	require.NotNil(t, stored.DeliveryPartner())
	assert.Equal(t, "d1", stored.DeliveryPartner().String())
	require.NotNil(t, stored.DeliveryPersonLocation())
	assert.Equal(t, "Gate 2", stored.DeliveryPersonLocation().Address())

	d1 := kernel.MustParseID("d1")
	loc, err := kernel.NewGeoLocation(12.7, 77.4, "")
	require.NoError(t, err)
	require.NoError(t, stored.UpdateStatus(d1, order.Delivered, loc, testNow.Add(time.Hour)))

	d2 := kernel.MustParseID("d2")
	matched, err = repo.UpdateIf(ctx, stored, ports.Expectation{Status: order.Confirmed, DeliveryPartner: &d2})
	require.NoError(t, err)
	assert.False(t, matched)

	matched, err = repo.UpdateIf(ctx, stored, ports.Expectation{Status: order.Confirmed, DeliveryPartner: &d1})
	require.NoError(t, err)
	assert.True(t, matched)

	final, err := repo.Get(ctx, kernel.MustParseID("o1"))
	require.NoError(t, err)
	assert.Equal(t, order.Delivered, final.Status())

	_, err = repo.UpdateIf(ctx, newOrder(t, "o404", "c1", testNow), unclaimed)
	require.ErrorIs(t, err, errs.ErrObjectNotFound)
}

func TestGormOrderRepository_FindAndCount(t *testing.T) {
	ctx := t.Context()
	repo := orderrepo.NewGormOrderRepository(newSQLite(t))

	require.NoError(t, repo.Add(ctx, newOrder(t, "o1", "c1", testNow)))
	require.NoError(t, repo.Add(ctx, newOrder(t, "o2", "c2", testNow.Add(time.Minute))))
	o3 := newOrder(t, "o3", "c1", testNow.Add(2*time.Minute))
	claim(t, o3, "d1")
	require.NoError(t, repo.Add(ctx, o3))

	all, err := repo.Find(ctx, ports.OrderFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"o3", "o2", "o1"}, ids(all))

	c1 := kernel.MustParseID("c1")
	available := order.Available
	filtered, err := repo.Find(ctx, ports.OrderFilter{CustomerID: &c1, Status: &available})
	require.NoError(t, err)
	assert.Equal(t, []string{"o1"}, ids(filtered))

	d1 := kernel.MustParseID("d1")
	byPartner, err := repo.Find(ctx, ports.OrderFilter{DeliveryPartner: &d1})
	require.NoError(t, err)
	assert.Equal(t, []string{"o3"}, ids(byPartner))

	limited, err := repo.Find(ctx, ports.OrderFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[order.Status]int64{order.Available: 2, order.Confirmed: 1}, counts)
}

func TestGormOrderRepository_AddressOnlyDeliveryLocation(t *testing.T) {
	ctx := t.Context()
	db := newSQLite(t)
	repo := orderrepo.NewGormOrderRepository(db)

	pickup, err := kernel.NewGeoLocation(12.9, 77.6, "Central")
	require.NoError(t, err)
	item, err := order.NewItem(kernel.MustParseID("p1"), "Milk", 2)
	require.NoError(t, err)
	o, err := order.NewOrder(
		kernel.MustParseID("o1"), kernel.MustParseID("c2"), kernel.MustParseID("b1"),
		[]order.Item{item}, decimal.RequireFromString("20"), pickup,
		kernel.NewAddressOnlyLocation(kernel.NoAddressProvided), testNow)
	require.NoError(t, err)
	require.NoError(t, repo.Add(ctx, o))

	var nulls int64
	require.NoError(t, db.Model(&orderrepo.OrderDTO{}).
		Where("delivery_latitude IS NULL AND delivery_longitude IS NULL").Count(&nulls).Error)
	assert.Equal(t, int64(1), nulls)

	got, err := repo.Get(ctx, o.ID())
	require.NoError(t, err)
	assert.False(t, got.DeliveryLocation().HasCoordinates())
	assert.Equal(t, kernel.NoAddressProvided, got.DeliveryLocation().Address())
	assert.True(t, got.PickupLocation().HasCoordinates())
}

func TestGormOrderRepository_RejectsCorruptedRow(t *testing.T) {
	ctx := t.Context()
	db := newSQLite(t)
	repo := orderrepo.NewGormOrderRepository(db)
	require.NoError(t, repo.Add(ctx, newOrder(t, "o1", "c1", testNow)))

	require.NoError(t, db.Exec("UPDATE orders SET status = ? WHERE id = ?", "confirmed", "o1").Error)

	_, err := repo.Get(ctx, kernel.MustParseID("o1"))
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
}

func ids(orders []*order.Order) []string {
	out := make([]string, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.ID().String())
	}
	return out
}
