package commands

import (
	"errors"
	"fmt"
	"slices"

	"tracking/internal/core/domain/model/kernel"
	"tracking/internal/core/domain/model/order"
	"tracking/internal/pkg/errs"
	"tracking/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var ErrCreateOrderCommandIsNotConstructed = errors.New(
	"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
)

// CreateOrderCommand represents a customer placing an order at a branch.
//
// Example:
//
//	item, _ := order.NewItem(kernel.MustParseID("p1"), "", 2)
//	cmd, err := NewCreateOrderCommand(customerID, branchID, []order.Item{item}, decimal.NewFromInt(20))
//	if err != nil {
//	    return fmt.Errorf("invalid order data: %w", err)
//	}
//
//	created, err := handler.Handle(ctx, cmd)
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	customerID kernel.ID
	branchID   kernel.ID
	items      []order.Item
	totalPrice decimal.Decimal
	orderID    *kernel.ID

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand validates the request shape. Catalog prices are
// checked later by the handler.
func NewCreateOrderCommand(
	customerID, branchID kernel.ID,
	items []order.Item,
	totalPrice decimal.Decimal,
) (CreateOrderCommand, error) {
	cmd := CreateOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setCustomerID(customerID),
		cmd.setBranchID(branchID),
		cmd.setItems(items),
		cmd.setTotalPrice(totalPrice),
	); err != nil {
		return CreateOrderCommand{}, err
	}

	return cmd, nil
}

func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

// WithOrderID returns a copy of the command that creates the order under
// id instead of a freshly generated one.
func (c CreateOrderCommand) WithOrderID(id kernel.ID) (CreateOrderCommand, error) {
	if err := c.Validate(); err != nil {
		return CreateOrderCommand{}, err
	}
	if err := id.Validate(); err != nil {
		return CreateOrderCommand{}, errs.NewValueIsRequiredErrorWithCause("orderId", err)
	}
	c.orderID = &id
	return c, nil
}

// OrderID returns the reserved order id, if any.
func (c CreateOrderCommand) OrderID() (kernel.ID, bool) {
	if c.orderID == nil {
		return kernel.ID{}, false
	}
	return *c.orderID, true
}

func (c CreateOrderCommand) CustomerID() kernel.ID {
	return c.customerID
}

func (c CreateOrderCommand) BranchID() kernel.ID {
	return c.branchID
}

func (c CreateOrderCommand) Items() []order.Item {
	return slices.Clone(c.items)
}

func (c CreateOrderCommand) TotalPrice() decimal.Decimal {
	return c.totalPrice
}

func (c *CreateOrderCommand) setCustomerID(id kernel.ID) error {
	if err := id.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("customer", err)
	}
	c.customerID = id
	return nil
}

func (c *CreateOrderCommand) setBranchID(id kernel.ID) error {
	if err := id.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("branch", err)
	}
	c.branchID = id
	return nil
}

func (c *CreateOrderCommand) setItems(items []order.Item) error {
	if len(items) == 0 {
		return errs.NewValueIsRequiredError("items")
	}
	for i, item := range items {
		if err := item.Validate(); err != nil {
			return errs.NewValueIsInvalidErrorWithCause(fmt.Sprintf("items[%d]", i), err)
		}
	}
	c.items = slices.Clone(items)
	return nil
}

func (c *CreateOrderCommand) setTotalPrice(total decimal.Decimal) error {
	if !total.IsPositive() {
		return errs.NewValueIsInvalidErrorWithCause(
			"totalPrice",
			fmt.Errorf("%s is not greater than 0", total.String()),
		)
	}
	c.totalPrice = total
	return nil
}
