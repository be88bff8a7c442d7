package ports

import (
	"context"

	"tracking/internal/core/domain/model/actor"
	"tracking/internal/core/domain/model/catalog"
	"tracking/internal/core/domain/model/kernel"
)

// The directories are read-only from the lifecycle's point of view. Each Get
// returns errs.ErrObjectNotFound for an unknown id.
type (
	CustomerDirectory interface {
		GetCustomer(ctx context.Context, id kernel.ID) (actor.Customer, error)
	}

	DeliveryPartnerDirectory interface {
		GetDeliveryPartner(ctx context.Context, id kernel.ID) (actor.DeliveryPartner, error)
	}

	AdminDirectory interface {
		GetAdmin(ctx context.Context, id kernel.ID) (actor.Admin, error)
	}

	BranchDirectory interface {
		GetBranch(ctx context.Context, id kernel.ID) (catalog.Branch, error)
	}

	// ProductCatalog returns the known products among ids; unknown ids are
	// simply absent from the result.
	ProductCatalog interface {
		GetProducts(ctx context.Context, ids []kernel.ID) (map[kernel.ID]catalog.Product, error)
	}
)
