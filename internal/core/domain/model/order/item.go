package order

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"tracking/internal/core/domain/model/kernel"
	"tracking/internal/pkg/errs"
	"tracking/internal/pkg/guard"
)

// ErrItemIsNotConstructed is returned for a zero-value Item.
var ErrItemIsNotConstructed = errors.New("Item must be created via NewItem constructor")

// Item is one ordered line: a product reference and a quantity.
type Item struct { //nolint:recvcheck //using for validation
	productID kernel.ID
	name      string
	count     int
	guard     guard.ConstructorGuard
}

// NewItem validates and builds an order line. name is the display name
// captured at ordering time and may be empty.
func NewItem(productID kernel.ID, name string, count int) (Item, error) {
	item := Item{
		name:  strings.TrimSpace(name),
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(item.setProductID(productID), item.setCount(count)); err != nil {
		return Item{}, err
	}

	return item, nil
}

func (i Item) Validate() error {
	return i.guard.Validate(ErrItemIsNotConstructed)
}

func (i Item) ProductID() kernel.ID {
	return i.productID
}

func (i Item) Name() string {
	return i.name
}

func (i Item) Count() int {
	return i.count
}

type itemJSON struct {
	ID    kernel.ID `json:"id"`
	Item  string    `json:"item,omitempty"`
	Count int       `json:"count"`
}

func (i Item) MarshalJSON() ([]byte, error) {
	return json.Marshal(itemJSON{ID: i.productID, Item: i.name, Count: i.count})
}

func (i *Item) setProductID(productID kernel.ID) error {
	if err := productID.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("item product id", err)
	}
	i.productID = productID
	return nil
}

func (i *Item) setCount(count int) error {
	if count <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("item count", fmt.Errorf("%d is not greater than 0", count))
	}
	i.count = count
	return nil
}
