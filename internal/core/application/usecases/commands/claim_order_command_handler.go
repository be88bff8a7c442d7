package commands

import (
	"context"
	"errors"

	"tracking/internal/core/domain/model/order"
	"tracking/internal/core/ports"
	"tracking/internal/pkg/errs"
)

// ClaimOrderCommandHandler assigns an available order to the calling
// delivery partner and confirms it in one conditional write. When several
// partners race for the same order exactly one write matches; the others
// get InvalidTransition.
//
// Example:
//
//	handler := NewClaimOrderCommandHandler(uowFactory, partners, publisher)
//	claimed, err := handler.Handle(ctx, cmd)
//	switch errs.KindOf(err) {
//	case errs.KindInvalidTransition:
//	    // someone else got it first
//	}
type ClaimOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	partners   ports.DeliveryPartnerDirectory
	publisher  ports.EventPublisher
	opts       handlerOptions
}

func NewClaimOrderCommandHandler(
	uowFactory OrderUoWFactory,
	partners ports.DeliveryPartnerDirectory,
	publisher ports.EventPublisher,
	opts ...Option,
) ClaimOrderCommandHandler {
	return ClaimOrderCommandHandler{
		uowFactory: uowFactory,
		partners:   partners,
		publisher:  publisher,
		opts:       buildOptions(opts),
	}
}

// Handle claims the order. An unknown or deactivated partner is Forbidden;
// a missing order is NotFound; an order that is no longer available is
// InvalidTransition. orderConfirmed is published after commit.
func (h ClaimOrderCommandHandler) Handle(ctx context.Context, cmd ClaimOrderCommand) (order.Snapshot, error) {
	if err := cmd.Validate(); err != nil {
		return order.Snapshot{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, h.opts.timeout)
	defer cancel()

	partner, err := h.partners.GetDeliveryPartner(ctx, cmd.DeliveryPartnerID())
	if errors.Is(err, errs.ErrObjectNotFound) {
		return order.Snapshot{}, errs.NewForbiddenErrorWithCause("delivery partner is not registered", err)
	}
	if err != nil {
		return order.Snapshot{}, storeError(ctx, "get delivery partner", err)
	}
	if !partner.Activated {
		return order.Snapshot{}, errs.NewForbiddenError("delivery partner is not activated")
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return order.Snapshot{}, storeError(ctx, "begin", err)
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.OrderRepository()
	claimed, err := repo.Get(ctx, cmd.OrderID())
	if err != nil {
		return order.Snapshot{}, storeError(ctx, "get order", err)
	}

	if err = claimed.Claim(partner.ID, cmd.Location(), h.opts.now()); err != nil {
		return order.Snapshot{}, err
	}

	matched, err := repo.UpdateIf(ctx, claimed, ports.Expectation{Status: order.Available, Unassigned: true})
	if err != nil {
		return order.Snapshot{}, storeError(ctx, "update order", err)
	}
	if !matched {
		return order.Snapshot{}, errs.NewInvalidTransitionError(
			order.Available.String(), order.Confirmed.String(), "order was claimed by another delivery partner")
	}

	if err = uow.Commit(ctx); err != nil {
		return order.Snapshot{}, storeError(ctx, "commit", err)
	}

	publishAll(context.WithoutCancel(ctx), h.publisher, h.opts.logger, claimed.PullEvents())
	return claimed.Snapshot(), nil
}
