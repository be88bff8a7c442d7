package directoryrepo

import (
	"context"
	"errors"

	"tracking/internal/adapters/out/postgres/pgerrs"
	"tracking/internal/core/domain/model/actor"
	"tracking/internal/core/domain/model/catalog"
	"tracking/internal/core/domain/model/kernel"
	"tracking/internal/core/ports"
	"tracking/internal/pkg/errs"

	"gorm.io/gorm"
)

var (
	_ ports.CustomerDirectory        = &GormDirectory{}
	_ ports.DeliveryPartnerDirectory = &GormDirectory{}
	_ ports.AdminDirectory           = &GormDirectory{}
	_ ports.BranchDirectory          = &GormDirectory{}
	_ ports.ProductCatalog           = &GormDirectory{}
)

// GormDirectory implements every directory port over one connection pool.
type GormDirectory struct {
	db *gorm.DB
}

func NewGormDirectory(db *gorm.DB) *GormDirectory {
	return &GormDirectory{db: db}
}

func (d *GormDirectory) GetCustomer(ctx context.Context, id kernel.ID) (actor.Customer, error) {
	var dto CustomerDTO
	if err := d.first(ctx, &dto, "customer", id); err != nil {
		return actor.Customer{}, err
	}
	return dto.toDomain()
}

func (d *GormDirectory) GetDeliveryPartner(ctx context.Context, id kernel.ID) (actor.DeliveryPartner, error) {
	var dto DeliveryPartnerDTO
	if err := d.first(ctx, &dto, "deliveryPartner", id); err != nil {
		return actor.DeliveryPartner{}, err
	}
	return dto.toDomain()
}

func (d *GormDirectory) GetAdmin(ctx context.Context, id kernel.ID) (actor.Admin, error) {
	var dto AdminDTO
	if err := d.first(ctx, &dto, "admin", id); err != nil {
		return actor.Admin{}, err
	}
	return dto.toDomain()
}

func (d *GormDirectory) GetBranch(ctx context.Context, id kernel.ID) (catalog.Branch, error) {
	var dto BranchDTO
	if err := d.first(ctx, &dto, "branch", id); err != nil {
		return catalog.Branch{}, err
	}
	return dto.toDomain()
}

// GetProducts loads the requested products in one query. Unknown ids are
// left out of the result.
func (d *GormDirectory) GetProducts(ctx context.Context, ids []kernel.ID) (map[kernel.ID]catalog.Product, error) {
	products := make(map[kernel.ID]catalog.Product, len(ids))
	if len(ids) == 0 {
		return products, nil
	}

	raw := make([]string, 0, len(ids))
	for _, id := range ids {
		raw = append(raw, id.String())
	}

	var dtos []ProductDTO
	if err := d.db.WithContext(ctx).Where("id IN ?", raw).Find(&dtos).Error; err != nil {
		return nil, pgerrs.Translate("get products", err)
	}

	for _, dto := range dtos {
		p, err := dto.toDomain()
		if err != nil {
			return nil, err
		}
		products[p.ID] = p
	}
	return products, nil
}

func (d *GormDirectory) first(ctx context.Context, dst any, name string, id kernel.ID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	err := d.db.WithContext(ctx).First(dst, "id = ?", id.String()).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.NewObjectNotFoundError(name, id.String())
	}
	return pgerrs.Translate("get "+name, err)
}
