package commands

import (
	"errors"

	"tracking/internal/core/domain/model/kernel"
	"tracking/internal/pkg/errs"
	"tracking/internal/pkg/guard"
)

var ErrClaimOrderCommandIsNotConstructed = errors.New(
	"ClaimOrderCommand must be created via NewClaimOrderCommand constructor",
)

// ClaimOrderCommand represents a delivery partner taking an available order.
// The partner's current location is mandatory; a request without both
// coordinates never reaches the store.
//
// Example:
//
//	lat, lng := 12.97, 77.59
//	cmd, err := NewClaimOrderCommand(partnerID, orderID, &lat, &lng, "")
//	if err != nil {
//	    return err // validation error, nothing changed
//	}
//	claimed, err := handler.Handle(ctx, cmd)
type ClaimOrderCommand struct { //nolint:recvcheck //using for validation
	deliveryPartnerID kernel.ID
	orderID           kernel.ID
	location          kernel.GeoLocation

	guard guard.ConstructorGuard
}

func NewClaimOrderCommand(
	deliveryPartnerID, orderID kernel.ID,
	latitude, longitude *float64,
	address string,
) (ClaimOrderCommand, error) {
	cmd := ClaimOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setDeliveryPartnerID(deliveryPartnerID),
		cmd.setOrderID(orderID),
		cmd.setLocation(latitude, longitude, address),
	); err != nil {
		return ClaimOrderCommand{}, err
	}

	return cmd, nil
}

func (c ClaimOrderCommand) Validate() error {
	return c.guard.Validate(ErrClaimOrderCommandIsNotConstructed)
}

func (c ClaimOrderCommand) DeliveryPartnerID() kernel.ID {
	return c.deliveryPartnerID
}

func (c ClaimOrderCommand) OrderID() kernel.ID {
	return c.orderID
}

func (c ClaimOrderCommand) Location() kernel.GeoLocation {
	return c.location
}

func (c *ClaimOrderCommand) setDeliveryPartnerID(id kernel.ID) error {
	if err := id.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("deliveryPartner", err)
	}
	c.deliveryPartnerID = id
	return nil
}

func (c *ClaimOrderCommand) setOrderID(id kernel.ID) error {
	if err := id.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("orderId", err)
	}
	c.orderID = id
	return nil
}

func (c *ClaimOrderCommand) setLocation(latitude, longitude *float64, address string) error {
	loc, err := kernel.GeoLocationFromOptional(latitude, longitude, address)
	if err != nil {
		return err
	}
	c.location = loc.WithDefaultAddress(kernel.NoAddressProvided)
	return nil
}
