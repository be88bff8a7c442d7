package order

import (
	"fmt"

	"tracking/internal/pkg/errs"
)

// Status is the lifecycle state of an order.
//
//	available ──claim──> confirmed ──┬──> delivered
//	                        │  ▲     └──> cancelled
//	                        └──┘ (location refresh)
type Status string

const (
	Available Status = "available"
	Confirmed Status = "confirmed"
	Delivered Status = "delivered"
	Cancelled Status = "cancelled"
)

// ParseStatus converts client or storage input into a Status.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if err := status.Validate(); err != nil {
		return "", err
	}
	return status, nil
}

// Validate rejects values outside the status domain.
func (s Status) Validate() error {
	switch s {
	case Available, Confirmed, Delivered, Cancelled:
		return nil
	}
	return errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not a valid status", string(s)))
}

func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether no transition may leave s.
func (s Status) IsTerminal() bool {
	return s == Delivered || s == Cancelled
}

// ValidateCanHaveDeliveryPartner checks the status/partner pairing:
// an available order has no partner, every other status has one.
func (s Status) ValidateCanHaveDeliveryPartner(assigned bool) error {
	if assigned && s == Available {
		return errs.NewValueIsInvalidErrorWithCause(
			"status",
			fmt.Errorf("%s is not a valid status to have a delivery partner", s),
		)
	}
	if !assigned && s != Available {
		return errs.NewValueIsInvalidErrorWithCause(
			"status",
			fmt.Errorf("%s is not a valid status to have no delivery partner", s),
		)
	}
	return nil
}

// Claim transitions available -> confirmed.
func (s Status) Claim() (Status, error) {
	if s != Available {
		return "", errs.NewInvalidTransitionError(s.String(), Confirmed.String(), "order is no longer available")
	}
	return Confirmed, nil
}

// IsUpdateTarget reports whether target may be requested through a status update.
func IsUpdateTarget(target Status) bool {
	return target == Confirmed || target == Delivered || target == Cancelled
}

// TransitionTo moves a claimed order to target. confirmed -> confirmed is
// accepted and only refreshes the delivery person's location.
func (s Status) TransitionTo(target Status) (Status, error) {
	if !IsUpdateTarget(target) {
		return "", errs.NewValueIsInvalidErrorWithCause(
			"status",
			fmt.Errorf("%q must be one of confirmed, delivered, cancelled", string(target)),
		)
	}
	switch {
	case s.IsTerminal():
		return "", errs.NewInvalidTransitionError(s.String(), target.String(), "order is already finalized")
	case s == Available:
		return "", errs.NewInvalidTransitionError(s.String(), target.String(), "order must be claimed first")
	case s != Confirmed:
		return "", errs.NewInvalidTransitionError(s.String(), target.String(), "unknown source status")
	}
	return target, nil
}
