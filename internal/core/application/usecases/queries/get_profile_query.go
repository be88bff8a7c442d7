package queries

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tracking/internal/core/domain/model/actor"
	"tracking/internal/core/ports"
	"tracking/internal/pkg/errs"
	"tracking/internal/pkg/guard"
)

var ErrGetProfileQueryIsNotConstructed = errors.New(
	"GetProfileQuery must be created via NewGetProfileQuery constructor",
)

// GetProfileQuery loads the directory record behind an authenticated actor.
type GetProfileQuery struct {
	actor actor.Actor
	guard guard.ConstructorGuard
}

func NewGetProfileQuery(a actor.Actor) (GetProfileQuery, error) {
	if err := errors.Join(a.ID.Validate(), a.Role.Validate()); err != nil {
		return GetProfileQuery{}, err
	}
	return GetProfileQuery{actor: a, guard: guard.NewConstructorGuard()}, nil
}

func (q GetProfileQuery) Validate() error {
	return q.guard.Validate(ErrGetProfileQueryIsNotConstructed)
}

func (q GetProfileQuery) Actor() actor.Actor {
	return q.actor
}

// GetProfileQueryHandler dispatches on the actor's role and reads the
// matching directory.
type GetProfileQueryHandler struct {
	customers ports.CustomerDirectory
	partners  ports.DeliveryPartnerDirectory
	admins    ports.AdminDirectory
	timeout   time.Duration
}

func NewGetProfileQueryHandler(
	customers ports.CustomerDirectory,
	partners ports.DeliveryPartnerDirectory,
	admins ports.AdminDirectory,
	timeout time.Duration,
) GetProfileQueryHandler {
	return GetProfileQueryHandler{
		customers: customers,
		partners:  partners,
		admins:    admins,
		timeout:   timeoutOrDefault(timeout),
	}
}

func (h GetProfileQueryHandler) Handle(ctx context.Context, query GetProfileQuery) (actor.Profile, error) {
	if err := query.Validate(); err != nil {
		return actor.Profile{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	a := query.Actor()
	profile := actor.Profile{Role: a.Role}

	switch a.Role {
	case actor.RoleCustomer:
		c, err := h.customers.GetCustomer(ctx, a.ID)
		if err != nil {
			return actor.Profile{}, readError(ctx, "get customer", err)
		}
		profile.Customer = &c
	case actor.RoleDeliveryPartner:
		p, err := h.partners.GetDeliveryPartner(ctx, a.ID)
		if err != nil {
			return actor.Profile{}, readError(ctx, "get delivery partner", err)
		}
		profile.DeliveryPartner = &p
	case actor.RoleAdmin:
		adm, err := h.admins.GetAdmin(ctx, a.ID)
		if err != nil {
			return actor.Profile{}, readError(ctx, "get admin", err)
		}
		profile.Admin = &adm
	default:
		return actor.Profile{}, errs.NewValueIsInvalidErrorWithCause("role", fmt.Errorf("%q is not a known role", a.Role))
	}

	return profile, nil
}
