package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"tracking/internal/core/application/usecases/commands"
	"tracking/internal/core/application/usecases/queries"
	"tracking/internal/core/domain/model/kernel"
	"tracking/internal/core/domain/model/order"
	"tracking/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

const (
	idempotencyHeader = "Idempotency-Key"

	// A request that lost the key waits this long for the winner's order.
	idempotencyWait = 5 * time.Second
	idempotencyPoll = 25 * time.Millisecond
)

// CreateOrder handles POST /order.
func (s *Server) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	customer, err := actorFrom(c)
	if err != nil {
		return err
	}

	var req createOrderRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}

	branchID, err := kernel.ParseID(req.Branch)
	if err != nil {
		return errs.NewValueIsRequiredErrorWithCause("branch", err)
	}
	items, err := toItems(req.Items)
	if err != nil {
		return err
	}

	cmd, err := commands.NewCreateOrderCommand(customer.ID, branchID, items, req.TotalPrice)
	if err != nil {
		return err
	}

	key := strings.TrimSpace(c.Request().Header.Get(idempotencyHeader))
	created, err := s.createOnce(ctx, customer.ID, key, cmd)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, orderResponse{Message: msgOrderCreated, Order: created})
}

// ClaimOrder handles POST /order/:orderId/confirm.
func (s *Server) ClaimOrder(c echo.Context) error {
	partner, err := actorFrom(c)
	if err != nil {
		return err
	}
	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}

	var req claimOrderRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	loc := req.location()

	cmd, err := commands.NewClaimOrderCommand(partner.ID, orderID, loc.Latitude, loc.Longitude, loc.Address)
	if err != nil {
		return err
	}

	claimed, err := s.claimOrderHandler.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, orderResponse{Message: msgOrderConfirmed, Order: claimed})
}

// UpdateOrderStatus handles PATCH /order/:orderId/status.
func (s *Server) UpdateOrderStatus(c echo.Context) error {
	partner, err := actorFrom(c)
	if err != nil {
		return err
	}
	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}

	var req updateStatusRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	loc := req.location()

	cmd, err := commands.NewUpdateOrderStatusCommand(
		partner.ID, orderID, req.Status, loc.Latitude, loc.Longitude, loc.Address)
	if err != nil {
		return err
	}

	updated, err := s.updateStatusHandler.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, orderResponse{Message: msgOrderStatusUpdated, Order: updated})
}

// GetOrder handles GET /order/:orderId.
func (s *Server) GetOrder(c echo.Context) error {
	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}

	query, err := queries.NewGetOrderQuery(orderID)
	if err != nil {
		return err
	}

	found, err := s.getOrderHandler.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, orderResponse{Message: msgOrderFetched, Order: found})
}

// ListOrders handles GET /orders.
func (s *Server) ListOrders(c echo.Context) error {
	var req listOrdersRequest
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &req); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("query", err)
	}

	query, err := queries.NewListOrdersQuery(req.Status, req.CustomerID, req.DeliveryPartnerID, req.BranchID, req.Limit)
	if err != nil {
		return err
	}

	orders, err := s.listOrdersHandler.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}
	if orders == nil {
		orders = []order.Snapshot{}
	}

	return c.JSON(http.StatusOK, ordersResponse{Message: msgOrdersFetched, Orders: orders})
}

// GetProfile handles GET /me.
func (s *Server) GetProfile(c echo.Context) error {
	a, err := actorFrom(c)
	if err != nil {
		return err
	}

	query, err := queries.NewGetProfileQuery(a)
	if err != nil {
		return err
	}

	profile, err := s.getProfileHandler.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, profileResponse{Message: msgUserFetched, User: newUserView(profile)})
}

// ServeLiveChannel handles GET /ws/orders/:orderId. The handler blocks
// until the client disconnects.
func (s *Server) ServeLiveChannel(c echo.Context) error {
	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}

	if err := s.live.Serve(c.Response(), c.Request(), orderID); err != nil {
		s.logger.Debug().Err(err).Str("order_id", orderID.String()).Msg("websocket upgrade failed")
	}
	return nil
}

func orderIDParam(c echo.Context) (kernel.ID, error) {
	id, err := kernel.ParseID(c.Param("orderId"))
	if err != nil {
		return kernel.ID{}, errs.NewValueIsRequiredErrorWithCause("orderId", err)
	}
	return id, nil
}

func toItems(reqs []itemRequest) ([]order.Item, error) {
	items := make([]order.Item, 0, len(reqs))
	var joined []error
	for _, r := range reqs {
		productID, err := kernel.ParseID(r.ID)
		if err != nil {
			joined = append(joined, errs.NewValueIsRequiredErrorWithCause("items.id", err))
			continue
		}
		item, err := order.NewItem(productID, r.Item, r.Count)
		if err != nil {
			joined = append(joined, err)
			continue
		}
		items = append(items, item)
	}
	if err := errors.Join(joined...); err != nil {
		return nil, err
	}
	return items, nil
}

// createOnce creates at most one order per customer and Idempotency-Key.
// The key is claimed for a fresh order id before anything is written; a
// request that loses the claim returns the winner's order once it exists.
// Store failures are logged and the order is created without a claim.
func (s *Server) createOnce(
	ctx context.Context,
	customerID kernel.ID,
	key string,
	cmd commands.CreateOrderCommand,
) (order.Snapshot, error) {
	if s.idempotency == nil || key == "" {
		return s.createOrderHandler.Handle(ctx, cmd)
	}

	scope := customerID.String()
	orderID := kernel.NewID()
	deadline := time.Now().Add(idempotencyWait)
	for {
		winner, err := s.idempotency.Remember(ctx, scope, key, orderID)
		if err != nil {
			s.logger.Warn().Err(err).Str("customer_id", scope).Msg("idempotency claim failed")
			return s.createOrderHandler.Handle(ctx, cmd)
		}
		if winner.IsEqual(orderID) {
			return s.createClaimed(ctx, scope, key, orderID, cmd)
		}

		query, err := queries.NewGetOrderQuery(winner)
		if err != nil {
			return order.Snapshot{}, err
		}
		replayed, err := s.getOrderHandler.Handle(ctx, query)
		if err == nil {
			return replayed, nil
		}
		if !errors.Is(err, errs.ErrObjectNotFound) {
			return order.Snapshot{}, err
		}

		// the winner has not committed yet, or failed and released the key
		if time.Now().After(deadline) {
			return order.Snapshot{}, errs.NewUnavailableError(
				"idempotent create", errors.New("original request is still in progress"))
		}
		select {
		case <-ctx.Done():
			return order.Snapshot{}, errs.NewTimeoutError("idempotent create", ctx.Err())
		case <-time.After(idempotencyPoll):
		}
	}
}

// createClaimed creates the order under the id the key was claimed for and
// releases the key if the create fails.
func (s *Server) createClaimed(
	ctx context.Context,
	scope, key string,
	orderID kernel.ID,
	cmd commands.CreateOrderCommand,
) (order.Snapshot, error) {
	cmd, err := cmd.WithOrderID(orderID)
	if err != nil {
		return order.Snapshot{}, err
	}

	created, err := s.createOrderHandler.Handle(ctx, cmd)
	if err != nil {
		if forgetErr := s.idempotency.Forget(context.WithoutCancel(ctx), scope, key, orderID); forgetErr != nil {
			s.logger.Warn().Err(forgetErr).Str("order_id", orderID.String()).Msg("idempotency release failed")
		}
		return order.Snapshot{}, err
	}
	return created, nil
}
