package orderrepo

import (
	"context"
	"errors"

	"tracking/internal/adapters/out/postgres/pgerrs"
	"tracking/internal/core/domain/model/kernel"
	"tracking/internal/core/domain/model/order"
	"tracking/internal/core/ports"
	"tracking/internal/pkg/errs"

	"gorm.io/gorm"
)

var _ ports.OrderRepository = &GormOrderRepository{}

// GormOrderRepository implements OrderRepository using GORM.
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a repository on db, which may be a
// transaction.
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Add inserts a new order.
func (r *GormOrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errs.NewValueIsInvalidErrorWithCause("id", err)
		}
		return pgerrs.Translate("add order", err)
	}
	return nil
}

// UpdateIf issues a single UPDATE whose WHERE clause carries the
// expectation; the affected row count tells whether it still held.
func (r *GormOrderRepository) UpdateIf(
	ctx context.Context,
	aggregate *order.Order,
	expected ports.Expectation,
) (bool, error) {
	if err := aggregate.Validate(); err != nil {
		return false, err
	}

	dto := fromDomain(aggregate)
	query := r.db.WithContext(ctx).
		Model(&OrderDTO{}).
		Where("id = ? AND status = ?", dto.ID, expected.Status.String())
	if expected.Unassigned {
		query = query.Where("delivery_partner_id IS NULL")
	}
	if expected.DeliveryPartner != nil {
		query = query.Where("delivery_partner_id = ?", expected.DeliveryPartner.String())
	}

	result := query.Updates(dto.mutableColumns())
	if result.Error != nil {
		return false, pgerrs.Translate("update order", result.Error)
	}

	if result.RowsAffected == 0 {
		exists, err := r.exists(ctx, dto.ID)
		if err != nil {
			return false, err
		}
		if !exists {
			return false, errs.NewObjectNotFoundError("order", dto.ID)
		}
		return false, nil
	}
	return true, nil
}

// Get retrieves an order by ID.
func (r *GormOrderRepository) Get(ctx context.Context, id kernel.ID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto OrderDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.String()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order", id.String())
		}
		return nil, pgerrs.Translate("get order", err)
	}

	return toDomain(dto)
}

// Find lists orders matching filter, newest first.
func (r *GormOrderRepository) Find(ctx context.Context, filter ports.OrderFilter) ([]*order.Order, error) {
	query := r.db.WithContext(ctx).Model(&OrderDTO{})
	if filter.Status != nil {
		query = query.Where("status = ?", filter.Status.String())
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", filter.CustomerID.String())
	}
	if filter.DeliveryPartner != nil {
		query = query.Where("delivery_partner_id = ?", filter.DeliveryPartner.String())
	}
	if filter.BranchID != nil {
		query = query.Where("branch_id = ?", filter.BranchID.String())
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var dtos []OrderDTO
	if err := query.Order("created_at DESC, id DESC").Find(&dtos).Error; err != nil {
		return nil, pgerrs.Translate("find orders", err)
	}

	orders := make([]*order.Order, 0, len(dtos))
	for _, dto := range dtos {
		o, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	return orders, nil
}

// CountByStatus groups orders by status.
func (r *GormOrderRepository) CountByStatus(ctx context.Context) (map[order.Status]int64, error) {
	var rows []struct {
		Status string
		Total  int64
	}
	err := r.db.WithContext(ctx).
		Model(&OrderDTO{}).
		Select("status, count(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, pgerrs.Translate("count orders", err)
	}

	counts := make(map[order.Status]int64, len(rows))
	for _, row := range rows {
		counts[order.Status(row.Status)] = row.Total
	}
	return counts, nil
}

func (r *GormOrderRepository) exists(ctx context.Context, id string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&OrderDTO{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, pgerrs.Translate("get order", err)
	}
	return n > 0, nil
}
