package order_test

import (
	"testing"
	"time"

	"tracking/internal/core/domain/model/kernel"
	"tracking/internal/core/domain/model/order"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

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

func newAvailableOrder(t *testing.T) *order.Order {
	t.Helper()
	o, err := order.NewOrder(
		kernel.NewID(),
		kernel.MustParseID("c1"),
		kernel.MustParseID("b1"),
		[]order.Item{mustItem(t, "p1", 2)},
		decimal.NewFromInt(20),
		mustLocation(t, 12.9, 77.6, "Branch"),
		mustLocation(t, 12.8, 77.5, kernel.NoAddressProvided),
		testNow,
	)
	require.NoError(t, err)
	return o
}

func newConfirmedOrder(t *testing.T, partnerID kernel.ID) *order.Order {
	t.Helper()
	o := newAvailableOrder(t)
	require.NoError(t, o.Claim(partnerID, mustLocation(t, 12.85, 77.55, ""), testNow.Add(time.Minute)))
	o.PullEvents()
	return o
}
