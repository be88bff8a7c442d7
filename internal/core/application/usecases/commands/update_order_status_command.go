package commands

import (
	"errors"
	"fmt"

	"tracking/internal/core/domain/model/kernel"
	"tracking/internal/core/domain/model/order"
	"tracking/internal/pkg/errs"
	"tracking/internal/pkg/guard"
)

var ErrUpdateOrderStatusCommandIsNotConstructed = errors.New(
	"UpdateOrderStatusCommand must be created via NewUpdateOrderStatusCommand constructor",
)

// UpdateOrderStatusCommand represents the assigned delivery partner moving
// an order forward while reporting their position.
type UpdateOrderStatusCommand struct { //nolint:recvcheck //using for validation
	deliveryPartnerID kernel.ID
	orderID           kernel.ID
	status            order.Status
	location          kernel.GeoLocation

	guard guard.ConstructorGuard
}

// NewUpdateOrderStatusCommand accepts only confirmed, delivered and
// cancelled as target statuses.
func NewUpdateOrderStatusCommand(
	deliveryPartnerID, orderID kernel.ID,
	status string,
	latitude, longitude *float64,
	address string,
) (UpdateOrderStatusCommand, error) {
	cmd := UpdateOrderStatusCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setDeliveryPartnerID(deliveryPartnerID),
		cmd.setOrderID(orderID),
		cmd.setStatus(status),
		cmd.setLocation(latitude, longitude, address),
	); err != nil {
		return UpdateOrderStatusCommand{}, err
	}

	return cmd, nil
}

func (c UpdateOrderStatusCommand) Validate() error {
	return c.guard.Validate(ErrUpdateOrderStatusCommandIsNotConstructed)
}

func (c UpdateOrderStatusCommand) DeliveryPartnerID() kernel.ID {
	return c.deliveryPartnerID
}

func (c UpdateOrderStatusCommand) OrderID() kernel.ID {
	return c.orderID
}

func (c UpdateOrderStatusCommand) Status() order.Status {
	return c.status
}

func (c UpdateOrderStatusCommand) Location() kernel.GeoLocation {
	return c.location
}

func (c *UpdateOrderStatusCommand) setDeliveryPartnerID(id kernel.ID) error {
	if err := id.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("deliveryPartner", err)
	}
	c.deliveryPartnerID = id
	return nil
}

func (c *UpdateOrderStatusCommand) setOrderID(id kernel.ID) error {
	if err := id.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("orderId", err)
	}
	c.orderID = id
	return nil
}

func (c *UpdateOrderStatusCommand) setStatus(raw string) error {
	status := order.Status(raw)
	if !order.IsUpdateTarget(status) {
		return errs.NewValueIsInvalidErrorWithCause(
			"status",
			fmt.Errorf("%q must be one of confirmed, delivered, cancelled", raw),
		)
	}
	c.status = status
	return nil
}

func (c *UpdateOrderStatusCommand) setLocation(latitude, longitude *float64, address string) error {
	loc, err := kernel.GeoLocationFromOptional(latitude, longitude, address)
	if err != nil {
		return err
	}
	c.location = loc.WithDefaultAddress(kernel.NoAddressProvided)
	return nil
}
