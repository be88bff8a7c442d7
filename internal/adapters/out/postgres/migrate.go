package postgres

import (
	"tracking/internal/adapters/out/postgres/directoryrepo"
	"tracking/internal/adapters/out/postgres/orderrepo"

	"gorm.io/gorm"
)

// Models lists every table the service owns or reads.
func Models() []any {
	return []any{
		&orderrepo.OrderDTO{},
		&directoryrepo.CustomerDTO{},
		&directoryrepo.DeliveryPartnerDTO{},
		&directoryrepo.AdminDTO{},
		&directoryrepo.BranchDTO{},
		&directoryrepo.ProductDTO{},
	}
}

// AutoMigrate creates or updates the schema.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
