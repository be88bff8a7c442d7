package commands

import (
	"context"

	"tracking/internal/core/domain/model/actor"
	"tracking/internal/core/domain/model/catalog"
	"tracking/internal/core/domain/model/kernel"
	"tracking/internal/core/domain/model/order"
	"tracking/internal/core/ports"

	"github.com/shopspring/decimal"
)

// CreateOrderCommandHandler places a new order in the available status.
// Pickup comes from the branch, delivery from the customer's stored
// location. No event is published: nobody can be subscribed to an order
// that did not exist.
//
// Example:
//
//	handler := NewCreateOrderCommandHandler(uowFactory, customers, branches, products)
//	created, err := handler.Handle(ctx, cmd)
//	if err != nil {
//	    return fmt.Errorf("order creation failed: %w", err)
//	}
type CreateOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	customers  ports.CustomerDirectory
	branches   ports.BranchDirectory
	products   ports.ProductCatalog
	newID      func() kernel.ID
	opts       handlerOptions
}

func NewCreateOrderCommandHandler(
	uowFactory OrderUoWFactory,
	customers ports.CustomerDirectory,
	branches ports.BranchDirectory,
	products ports.ProductCatalog,
	opts ...Option,
) CreateOrderCommandHandler {
	return CreateOrderCommandHandler{
		uowFactory: uowFactory,
		customers:  customers,
		branches:   branches,
		products:   products,
		newID:      kernel.NewID,
		opts:       buildOptions(opts),
	}
}

// Handle validates the order against the directories and the catalog and
// persists it. Customer or branch missing yields NotFound; an unknown
// product or a total that does not match the catalog yields a validation
// error.
func (h CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (order.Snapshot, error) {
	if err := cmd.Validate(); err != nil {
		return order.Snapshot{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, h.opts.timeout)
	defer cancel()

	customer, err := h.customers.GetCustomer(ctx, cmd.CustomerID())
	if err != nil {
		return order.Snapshot{}, storeError(ctx, "get customer", err)
	}
	branch, err := h.branches.GetBranch(ctx, cmd.BranchID())
	if err != nil {
		return order.Snapshot{}, storeError(ctx, "get branch", err)
	}

	items := cmd.Items()
	products, err := h.products.GetProducts(ctx, productIDs(items))
	if err != nil {
		return order.Snapshot{}, storeError(ctx, "get products", err)
	}

	lookup := func(id kernel.ID) (decimal.Decimal, bool) {
		p, ok := products[id]
		return p.Price, ok
	}
	if err = order.ReconcileTotal(items, lookup, cmd.TotalPrice()); err != nil {
		return order.Snapshot{}, err
	}

	items, err = withCatalogNames(items, products)
	if err != nil {
		return order.Snapshot{}, err
	}

	pickup := branch.Location.WithDefaultAddress(kernel.NoAddressProvided)
	delivery := deliveryLocation(customer)

	created, err := order.NewOrder(
		h.orderID(cmd), customer.ID, branch.ID,
		items, cmd.TotalPrice(),
		pickup, delivery,
		h.opts.now(),
	)
	if err != nil {
		return order.Snapshot{}, err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return order.Snapshot{}, storeError(ctx, "begin", err)
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.OrderRepository().Add(ctx, created); err != nil {
		return order.Snapshot{}, storeError(ctx, "add order", err)
	}

	if err = uow.Commit(ctx); err != nil {
		return order.Snapshot{}, storeError(ctx, "commit", err)
	}

	return created.Snapshot(), nil
}

// orderID returns the id the caller reserved for the order, or a new one.
func (h CreateOrderCommandHandler) orderID(cmd CreateOrderCommand) kernel.ID {
	if id, ok := cmd.OrderID(); ok {
		return id
	}
	return h.newID()
}

// deliveryLocation uses the customer's live location when one is stored and
// falls back to their address alone otherwise.
func deliveryLocation(customer actor.Customer) kernel.GeoLocation {
	loc := kernel.NewAddressOnlyLocation(customer.Address)
	if customer.LiveLocation != nil {
		loc = customer.LiveLocation.WithDefaultAddress(customer.Address)
	}
	return loc.WithDefaultAddress(kernel.NoAddressProvided)
}

func productIDs(items []order.Item) []kernel.ID {
	ids := make([]kernel.ID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID())
	}
	return ids
}

// withCatalogNames fills in display names the client left out.
func withCatalogNames(items []order.Item, products map[kernel.ID]catalog.Product) ([]order.Item, error) {
	named := make([]order.Item, 0, len(items))
	for _, item := range items {
		if item.Name() != "" {
			named = append(named, item)
			continue
		}
		n, err := order.NewItem(item.ProductID(), products[item.ProductID()].Name, item.Count())
		if err != nil {
			return nil, err
		}
		named = append(named, n)
	}
	return named, nil
}
