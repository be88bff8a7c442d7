package order

import (
	"fmt"

	"tracking/internal/core/domain/model/kernel"
	"tracking/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

// PriceLookup returns the unit price of a product and whether it is known.
type PriceLookup func(productID kernel.ID) (decimal.Decimal, bool)

// ReconcileTotal checks that the items priced through lookup add up to total.
// It is applied once, when the order is created.
func ReconcileTotal(items []Item, lookup PriceLookup, total decimal.Decimal) error {
	sum := decimal.Zero
	for _, item := range items {
		price, ok := lookup(item.ProductID())
		if !ok {
			return errs.NewValueIsInvalidErrorWithCause(
				"items",
				fmt.Errorf("product %s is not in the catalog", item.ProductID()),
			)
		}
		sum = sum.Add(price.Mul(decimal.NewFromInt(int64(item.Count()))))
	}

	if !sum.Equal(total) {
		return errs.NewValueIsInvalidErrorWithCause(
			"totalPrice",
			fmt.Errorf("items add up to %s, got %s", sum.String(), total.String()),
		)
	}
	return nil
}
