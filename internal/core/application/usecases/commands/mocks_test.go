package commands_test

import (
	"context"
	"testing"
	"time"

	"tracking/internal/core/application/usecases/commands"
	"tracking/internal/core/domain/model/actor"
	"tracking/internal/core/domain/model/catalog"
	"tracking/internal/core/domain/model/kernel"
	"tracking/internal/core/domain/model/order"
	"tracking/internal/core/ports"
	"tracking/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Get(ctx context.Context, id kernel.ID) (*order.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

func (m *MockOrderRepository) Find(ctx context.Context, filter ports.OrderFilter) ([]*order.Order, error) {
	args := m.Called(ctx, filter)
	orders, _ := args.Get(0).([]*order.Order)
	return orders, args.Error(1)
}

func (m *MockOrderRepository) UpdateIf(ctx context.Context, o *order.Order, expected ports.Expectation) (bool, error) {
	args := m.Called(ctx, o, expected)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) CountByStatus(_ context.Context) (map[order.Status]int64, error) {
	return nil, nil
}

type MockOrderUoW struct{ mock.Mock }

func (m *MockOrderUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
func (m *MockOrderUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
func (m *MockOrderUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrderUoW) OrderRepository() ports.OrderRepository {
	args := m.Called()
	return args.Get(0).(ports.OrderRepository)
}

type MockOrderUoWFactory struct{ mock.Mock }

func (m *MockOrderUoWFactory) Create() commands.OrderUoW {
	args := m.Called()
	return args.Get(0).(commands.OrderUoW)
}

type MockPublisher struct{ mock.Mock }

func (m *MockPublisher) Publish(ctx context.Context, event order.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// stubDirectory serves fixed records and reports everything else as missing.
type stubDirectory struct {
	customers map[string]actor.Customer
	partners  map[string]actor.DeliveryPartner
	branches  map[string]catalog.Branch
	products  map[string]catalog.Product
}

func (d stubDirectory) GetCustomer(_ context.Context, id kernel.ID) (actor.Customer, error) {
	c, ok := d.customers[id.String()]
	if !ok {
		return actor.Customer{}, errs.NewObjectNotFoundError("customer", id)
	}
	return c, nil
}

func (d stubDirectory) GetDeliveryPartner(_ context.Context, id kernel.ID) (actor.DeliveryPartner, error) {
	p, ok := d.partners[id.String()]
	if !ok {
		return actor.DeliveryPartner{}, errs.NewObjectNotFoundError("deliveryPartner", id)
	}
	return p, nil
}

func (d stubDirectory) GetBranch(_ context.Context, id kernel.ID) (catalog.Branch, error) {
	b, ok := d.branches[id.String()]
	if !ok {
		return catalog.Branch{}, errs.NewObjectNotFoundError("branch", id)
	}
	return b, nil
}

func (d stubDirectory) GetProducts(_ context.Context, ids []kernel.ID) (map[kernel.ID]catalog.Product, error) {
	found := make(map[kernel.ID]catalog.Product, len(ids))
	for _, id := range ids {
		if p, ok := d.products[id.String()]; ok {
			found[id] = p
		}
	}
	return found, nil
}

func mustLocation(t *testing.T, lat, long float64, address string) kernel.GeoLocation {
	t.Helper()
	loc, err := kernel.NewGeoLocation(lat, long, address)
	require.NoError(t, err)
	return loc
}

func mustItem(t *testing.T, productID string, count int) order.Item {
	t.Helper()
	item, err := order.NewItem(kernel.MustParseID(productID), "", count)
	require.NoError(t, err)
	return item
}

func ptr[T any](v T) *T { return &v }

// newDirectory has customer c1, branch b1, product p1 at 10, an activated
// partner d1, a second activated partner d2 and a deactivated partner d3.
func newDirectory(t *testing.T) stubDirectory {
	t.Helper()
	home := mustLocation(t, 12.8, 77.5, "")
	return stubDirectory{
		customers: map[string]actor.Customer{
			"c1": {ID: kernel.MustParseID("c1"), Name: "Asha", Address: "12 Lake Road", LiveLocation: &home},
			"c2": {ID: kernel.MustParseID("c2"), Name: "Dev"},
		},
		partners: map[string]actor.DeliveryPartner{
			"d1": {ID: kernel.MustParseID("d1"), Name: "Ravi", Activated: true},
			"d2": {ID: kernel.MustParseID("d2"), Name: "Meena", Activated: true},
			"d3": {ID: kernel.MustParseID("d3"), Name: "Kiran", Activated: false},
		},
		branches: map[string]catalog.Branch{
			"b1": {ID: kernel.MustParseID("b1"), Name: "Central", Location: mustLocation(t, 12.9, 77.6, "")},
		},
		products: map[string]catalog.Product{
			"p1": {ID: kernel.MustParseID("p1"), Name: "Milk", Price: decimal.NewFromInt(10)},
		},
	}
}

func newAvailableOrder(t *testing.T) *order.Order {
	t.Helper()
	o, err := order.NewOrder(
		kernel.MustParseID("o1"),
		kernel.MustParseID("c1"),
		kernel.MustParseID("b1"),
		[]order.Item{mustItem(t, "p1", 2)},
		decimal.NewFromInt(20),
		mustLocation(t, 12.9, 77.6, "Central"),
		mustLocation(t, 12.8, 77.5, "12 Lake Road"),
		testNow,
	)
	require.NoError(t, err)
	return o
}

func newConfirmedOrder(t *testing.T, partnerID string) *order.Order {
	t.Helper()
	o := newAvailableOrder(t)
	require.NoError(t, o.Claim(kernel.MustParseID(partnerID), mustLocation(t, 12.85, 77.55, ""), testNow))
	o.PullEvents()
	return o
}
