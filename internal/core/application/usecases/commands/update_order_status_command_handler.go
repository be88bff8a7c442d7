package commands

import (
	"context"

	"tracking/internal/core/domain/model/order"
	"tracking/internal/core/ports"
	"tracking/internal/pkg/errs"
)

// UpdateOrderStatusCommandHandler applies a status update from the order's
// delivery partner. The write is conditional on the status that was read
// and on the caller still being the assigned partner, so a concurrent
// finalisation cannot be overwritten.
type UpdateOrderStatusCommandHandler struct {
	uowFactory OrderUoWFactory
	partners   ports.DeliveryPartnerDirectory
	publisher  ports.EventPublisher
	opts       handlerOptions
}

func NewUpdateOrderStatusCommandHandler(
	uowFactory OrderUoWFactory,
	partners ports.DeliveryPartnerDirectory,
	publisher ports.EventPublisher,
	opts ...Option,
) UpdateOrderStatusCommandHandler {
	return UpdateOrderStatusCommandHandler{
		uowFactory: uowFactory,
		partners:   partners,
		publisher:  publisher,
		opts:       buildOptions(opts),
	}
}

// Handle updates the order. An unknown partner or order is NotFound; a
// caller other than the assigned partner is Forbidden; a finalized order is
// InvalidTransition. liveTrackingUpdate and then orderStatusUpdated are
// published after commit.
func (h UpdateOrderStatusCommandHandler) Handle(ctx context.Context, cmd UpdateOrderStatusCommand) (order.Snapshot, error) {
	if err := cmd.Validate(); err != nil {
		return order.Snapshot{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, h.opts.timeout)
	defer cancel()

	partner, err := h.partners.GetDeliveryPartner(ctx, cmd.DeliveryPartnerID())
	if err != nil {
		return order.Snapshot{}, storeError(ctx, "get delivery partner", err)
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return order.Snapshot{}, storeError(ctx, "begin", err)
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.OrderRepository()
	updated, err := repo.Get(ctx, cmd.OrderID())
	if err != nil {
		return order.Snapshot{}, storeError(ctx, "get order", err)
	}

	expected := ports.Expectation{Status: updated.Status(), DeliveryPartner: updated.DeliveryPartner()}
	if err = updated.UpdateStatus(partner.ID, cmd.Status(), cmd.Location(), h.opts.now()); err != nil {
		return order.Snapshot{}, err
	}

	matched, err := repo.UpdateIf(ctx, updated, expected)
	if err != nil {
		return order.Snapshot{}, storeError(ctx, "update order", err)
	}
	if !matched {
		return order.Snapshot{}, errs.NewInvalidTransitionError(
			expected.Status.String(), cmd.Status().String(), "order was changed concurrently")
	}

	if err = uow.Commit(ctx); err != nil {
		return order.Snapshot{}, storeError(ctx, "commit", err)
	}

	publishAll(context.WithoutCancel(ctx), h.publisher, h.opts.logger, updated.PullEvents())
	return updated.Snapshot(), nil
}
