// Package catalog holds the read-only branch and product records the order
// lifecycle consults when an order is created.
package catalog

import (
	"tracking/internal/core/domain/model/kernel"

	"github.com/shopspring/decimal"
)

// Branch is a pickup point. Its location becomes the order's pickup location.
type Branch struct {
	ID       kernel.ID
	Name     string
	Location kernel.GeoLocation
}

// Product is a sellable item with its current unit price.
type Product struct {
	ID    kernel.ID
	Name  string
	Price decimal.Decimal
}
