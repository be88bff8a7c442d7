package order

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"tracking/internal/core/domain/model/kernel"
	"tracking/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order did not come from
	// NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder or RestoreOrder")
)

// Order is the aggregate root of the lifecycle. Its invariants:
//   - items is non-empty and totalPrice is positive
//   - deliveryPartner is unset while available and never changes once set
//   - the partner is assigned in the same step that confirms the order
//   - nothing leaves delivered or cancelled
//
// Fields are private; state changes only through Claim and UpdateStatus.
type Order struct {
	id         kernel.ID
	customerID kernel.ID
	branchID   kernel.ID
	items      []Item
	totalPrice decimal.Decimal
	status     Status

	deliveryPartnerID *kernel.ID

	pickupLocation         kernel.GeoLocation
	deliveryLocation       kernel.GeoLocation
	deliveryPersonLocation *kernel.GeoLocation

	createdAt   time.Time
	updatedAt   time.Time
	confirmedAt *time.Time
	deliveredAt *time.Time
	cancelledAt *time.Time

	events []Event

	isConstructed bool
}

// Snapshot is the complete, serializable state of an order. It is what
// repositories persist, what the API returns and what live channels carry.
type Snapshot struct {
	ID                     kernel.ID           `json:"id"`
	CustomerID             kernel.ID           `json:"customer"`
	BranchID               kernel.ID           `json:"branch"`
	Items                  []Item              `json:"items"`
	TotalPrice             decimal.Decimal     `json:"totalPrice"`
	Status                 Status              `json:"status"`
	DeliveryPartnerID      *kernel.ID          `json:"deliveryPartner,omitempty"`
	PickupLocation         kernel.GeoLocation  `json:"pickupLocation"`
	DeliveryLocation       kernel.GeoLocation  `json:"deliveryLocation"`
	DeliveryPersonLocation *kernel.GeoLocation `json:"deliveryPersonLocation,omitempty"`
	CreatedAt              time.Time           `json:"createdAt"`
	UpdatedAt              time.Time           `json:"updatedAt"`
	ConfirmedAt            *time.Time          `json:"confirmedAt,omitempty"`
	DeliveredAt            *time.Time          `json:"deliveredAt,omitempty"`
	CancelledAt            *time.Time          `json:"cancelledAt,omitempty"`
}

// NewOrder creates an order in the available status.
//
// pickup and delivery should already carry the "No address provided"
// fallback; NewOrder does not invent addresses.
//
// Example:
//
//	item, _ := order.NewItem(kernel.MustParseID("p1"), "Milk", 2)
//	o, err := order.NewOrder(kernel.NewID(), customerID, branchID,
//	    []order.Item{item}, decimal.NewFromInt(20), pickup, delivery, time.Now())
func NewOrder(
	id, customerID, branchID kernel.ID,
	items []Item,
	totalPrice decimal.Decimal,
	pickup, delivery kernel.GeoLocation,
	now time.Time,
) (*Order, error) {
	o := &Order{
		status:        Available,
		createdAt:     now.UTC(),
		updatedAt:     now.UTC(),
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setCustomerID(customerID),
		o.setBranchID(branchID),
		o.setItems(items),
		o.setTotalPrice(totalPrice),
		o.setPickupLocation(pickup),
		o.setDeliveryLocation(delivery),
	); err != nil {
		return nil, err
	}

	return o, nil
}

// RestoreOrder rebuilds an order from persisted state and re-checks the
// structural invariants, so corrupted rows are rejected on load.
func RestoreOrder(s Snapshot) (*Order, error) {
	o := &Order{
		createdAt:     s.CreatedAt,
		updatedAt:     s.UpdatedAt,
		confirmedAt:   copyTime(s.ConfirmedAt),
		deliveredAt:   copyTime(s.DeliveredAt),
		cancelledAt:   copyTime(s.CancelledAt),
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(s.ID),
		o.setCustomerID(s.CustomerID),
		o.setBranchID(s.BranchID),
		o.setItems(s.Items),
		o.setTotalPrice(s.TotalPrice),
		o.setPickupLocation(s.PickupLocation),
		o.setDeliveryLocation(s.DeliveryLocation),
		o.restoreStatus(s.Status, s.DeliveryPartnerID),
		o.restoreDeliveryPersonLocation(s.DeliveryPersonLocation),
	); err != nil {
		return nil, err
	}

	return o, nil
}

// Validate ensures the order went through a constructor.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

func (o *Order) ID() kernel.ID {
	return o.id
}

func (o *Order) CustomerID() kernel.ID {
	return o.customerID
}

func (o *Order) BranchID() kernel.ID {
	return o.branchID
}

// Items returns a copy of the order lines.
func (o *Order) Items() []Item {
	return slices.Clone(o.items)
}

func (o *Order) TotalPrice() decimal.Decimal {
	return o.totalPrice
}

func (o *Order) Status() Status {
	return o.status
}

// DeliveryPartner returns the assigned partner or nil while available.
func (o *Order) DeliveryPartner() *kernel.ID {
	if o.deliveryPartnerID == nil {
		return nil
	}
	id := *o.deliveryPartnerID
	return &id
}

func (o *Order) PickupLocation() kernel.GeoLocation {
	return o.pickupLocation
}

func (o *Order) DeliveryLocation() kernel.GeoLocation {
	return o.deliveryLocation
}

// DeliveryPersonLocation returns the last reported partner location, nil before the claim.
func (o *Order) DeliveryPersonLocation() *kernel.GeoLocation {
	if o.deliveryPersonLocation == nil {
		return nil
	}
	loc := *o.deliveryPersonLocation
	return &loc
}

func (o *Order) CreatedAt() time.Time {
	return o.createdAt
}

func (o *Order) UpdatedAt() time.Time {
	return o.updatedAt
}

// IsAssignedTo reports whether partnerID is the order's delivery partner.
func (o *Order) IsAssignedTo(partnerID kernel.ID) bool {
	return o.deliveryPartnerID != nil && o.deliveryPartnerID.IsEqual(partnerID)
}

// Snapshot returns a deep copy of the order state.
func (o *Order) Snapshot() Snapshot {
	return Snapshot{
		ID:                     o.id,
		CustomerID:             o.customerID,
		BranchID:               o.branchID,
		Items:                  slices.Clone(o.items),
		TotalPrice:             o.totalPrice,
		Status:                 o.status,
		DeliveryPartnerID:      o.DeliveryPartner(),
		PickupLocation:         o.pickupLocation,
		DeliveryLocation:       o.deliveryLocation,
		DeliveryPersonLocation: o.DeliveryPersonLocation(),
		CreatedAt:              o.createdAt,
		UpdatedAt:              o.updatedAt,
		ConfirmedAt:            copyTime(o.confirmedAt),
		DeliveredAt:            copyTime(o.deliveredAt),
		CancelledAt:            copyTime(o.cancelledAt),
	}
}

// Claim assigns the order to partnerID and confirms it in one step.
// It records an orderConfirmed event.
func (o *Order) Claim(partnerID kernel.ID, location kernel.GeoLocation, now time.Time) error {
	if err := errors.Join(partnerID.Validate(), location.Validate()); err != nil {
		return err
	}

	newStatus, err := o.status.Claim()
	if err != nil {
		return err
	}
	if o.deliveryPartnerID != nil {
		return errs.NewInvalidTransitionError(o.status.String(), newStatus.String(), "order already has a delivery partner")
	}

	at := now.UTC()
	o.status = newStatus
	o.deliveryPartnerID = &partnerID
	o.deliveryPersonLocation = &location
	o.confirmedAt = &at
	o.updatedAt = at

	o.record(EventOrderConfirmed)
	return nil
}

// UpdateStatus lets the assigned partner move the order to target while
// reporting their location. Ownership is checked before the transition
// rules, so a non-owner is always refused with Forbidden. It records a
// liveTrackingUpdate followed by an orderStatusUpdated event.
func (o *Order) UpdateStatus(partnerID kernel.ID, target Status, location kernel.GeoLocation, now time.Time) error {
	if err := errors.Join(partnerID.Validate(), location.Validate()); err != nil {
		return err
	}

	if !o.IsAssignedTo(partnerID) {
		return errs.NewForbiddenError("caller is not the order's delivery partner")
	}

	newStatus, err := o.status.TransitionTo(target)
	if err != nil {
		return err
	}

	at := now.UTC()
	o.status = newStatus
	o.deliveryPersonLocation = &location
	o.updatedAt = at
	switch newStatus {
	case Delivered:
		o.deliveredAt = &at
	case Cancelled:
		o.cancelledAt = &at
	case Available, Confirmed:
	}

	o.record(EventLiveTrackingUpdate)
	o.record(EventOrderStatusUpdated)
	return nil
}

// PullEvents returns the events recorded since the last call and clears them.
func (o *Order) PullEvents() []Event {
	events := o.events
	o.events = nil
	return events
}

func (o *Order) record(name EventName) {
	o.events = append(o.events, Event{Name: name, Order: o.Snapshot()})
}

func (o *Order) setID(id kernel.ID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setCustomerID(id kernel.ID) error {
	if err := id.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("customer", err)
	}
	o.customerID = id
	return nil
}

func (o *Order) setBranchID(id kernel.ID) error {
	if err := id.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("branch", err)
	}
	o.branchID = id
	return nil
}

func (o *Order) setItems(items []Item) error {
	if len(items) == 0 {
		return errs.NewValueIsRequiredError("items")
	}
	for i, item := range items {
		if err := item.Validate(); err != nil {
			return errs.NewValueIsInvalidErrorWithCause(fmt.Sprintf("items[%d]", i), err)
		}
	}
	o.items = slices.Clone(items)
	return nil
}

func (o *Order) setTotalPrice(total decimal.Decimal) error {
	if !total.IsPositive() {
		return errs.NewValueIsInvalidErrorWithCause(
			"totalPrice",
			fmt.Errorf("%s is not greater than 0", total.String()),
		)
	}
	o.totalPrice = total
	return nil
}

func (o *Order) setPickupLocation(loc kernel.GeoLocation) error {
	if err := loc.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("pickupLocation", err)
	}
	o.pickupLocation = loc
	return nil
}

func (o *Order) setDeliveryLocation(loc kernel.GeoLocation) error {
	if err := loc.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("deliveryLocation", err)
	}
	o.deliveryLocation = loc
	return nil
}

func (o *Order) restoreStatus(status Status, partnerID *kernel.ID) error {
	if err := status.Validate(); err != nil {
		return err
	}
	if err := status.ValidateCanHaveDeliveryPartner(partnerID != nil); err != nil {
		return err
	}
	if partnerID != nil {
		if err := partnerID.Validate(); err != nil {
			return err
		}
		id := *partnerID
		o.deliveryPartnerID = &id
	}
	o.status = status
	return nil
}

func (o *Order) restoreDeliveryPersonLocation(loc *kernel.GeoLocation) error {
	if loc == nil {
		return nil
	}
	if err := loc.Validate(); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("deliveryPersonLocation", err)
	}
	l := *loc
	o.deliveryPersonLocation = &l
	return nil
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
