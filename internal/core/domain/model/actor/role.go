package actor

import (
	"fmt"

	"tracking/internal/core/domain/model/kernel"
	"tracking/internal/pkg/errs"
)

// Role is the kind of actor behind a credential.
type Role string

const (
	RoleCustomer        Role = "Customer"
	RoleDeliveryPartner Role = "DeliveryPartner"
	RoleAdmin           Role = "Admin"
)

// ParseRole accepts only the three known roles; there is no default.
func ParseRole(s string) (Role, error) {
	role := Role(s)
	if err := role.Validate(); err != nil {
		return "", err
	}
	return role, nil
}

func (r Role) Validate() error {
	switch r {
	case RoleCustomer, RoleDeliveryPartner, RoleAdmin:
		return nil
	}
	return errs.NewValueIsInvalidErrorWithCause("role", fmt.Errorf("%q is not a known role", string(r)))
}

func (r Role) String() string {
	return string(r)
}

// Actor is the identity resolved from a request's credentials.
type Actor struct {
	ID   kernel.ID
	Role Role
}

// NewActor validates both parts of an identity.
func NewActor(id kernel.ID, role Role) (Actor, error) {
	if err := id.Validate(); err != nil {
		return Actor{}, err
	}
	if err := role.Validate(); err != nil {
		return Actor{}, err
	}
	return Actor{ID: id, Role: role}, nil
}

// Is reports whether the actor holds role.
func (a Actor) Is(role Role) bool {
	return a.Role == role
}

// Require returns Forbidden unless the actor holds role.
func (a Actor) Require(role Role) error {
	if a.Role != role {
		return errs.NewForbiddenError(fmt.Sprintf("%s role is required", role))
	}
	return nil
}
