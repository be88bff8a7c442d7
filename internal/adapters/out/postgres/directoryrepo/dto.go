// Package directoryrepo reads the customer, delivery partner, admin, branch
// and product tables. The lifecycle never writes them.
package directoryrepo

import (
	"tracking/internal/core/domain/model/actor"
	"tracking/internal/core/domain/model/catalog"
	"tracking/internal/core/domain/model/kernel"

	"github.com/shopspring/decimal"
)

type CustomerDTO struct {
	ID        string `gorm:"type:varchar(64);primaryKey"`
	Name      string
	Phone     string `gorm:"index"`
	Address   string
	Latitude  *float64
	Longitude *float64
}

func (CustomerDTO) TableName() string {
	return "customers"
}

type DeliveryPartnerDTO struct {
	ID        string `gorm:"type:varchar(64);primaryKey"`
	Name      string
	Email     string `gorm:"index"`
	Phone     string
	Activated bool
	BranchID  *string `gorm:"type:varchar(64);index"`
	Latitude  *float64
	Longitude *float64
	Address   string
}

func (DeliveryPartnerDTO) TableName() string {
	return "delivery_partners"
}

type AdminDTO struct {
	ID    string `gorm:"type:varchar(64);primaryKey"`
	Name  string
	Email string `gorm:"index"`
}

func (AdminDTO) TableName() string {
	return "admins"
}

type BranchDTO struct {
	ID        string `gorm:"type:varchar(64);primaryKey"`
	Name      string
	Latitude  float64
	Longitude float64
	Address   string
}

func (BranchDTO) TableName() string {
	return "branches"
}

type ProductDTO struct {
	ID    string `gorm:"type:varchar(64);primaryKey"`
	Name  string
	Price decimal.Decimal `gorm:"type:numeric(12,2);not null"`
}

func (ProductDTO) TableName() string {
	return "products"
}

func (dto CustomerDTO) toDomain() (actor.Customer, error) {
	id, err := kernel.ParseID(dto.ID)
	if err != nil {
		return actor.Customer{}, err
	}
	loc, err := optionalLocation(dto.Latitude, dto.Longitude, dto.Address)
	if err != nil {
		return actor.Customer{}, err
	}
	return actor.Customer{
		ID:           id,
		Name:         dto.Name,
		Phone:        dto.Phone,
		Address:      dto.Address,
		LiveLocation: loc,
	}, nil
}

func (dto DeliveryPartnerDTO) toDomain() (actor.DeliveryPartner, error) {
	id, err := kernel.ParseID(dto.ID)
	if err != nil {
		return actor.DeliveryPartner{}, err
	}
	loc, err := optionalLocation(dto.Latitude, dto.Longitude, dto.Address)
	if err != nil {
		return actor.DeliveryPartner{}, err
	}

	partner := actor.DeliveryPartner{
		ID:           id,
		Name:         dto.Name,
		Email:        dto.Email,
		Phone:        dto.Phone,
		Activated:    dto.Activated,
		LiveLocation: loc,
	}
	if dto.BranchID != nil {
		branchID, branchErr := kernel.ParseID(*dto.BranchID)
		if branchErr != nil {
			return actor.DeliveryPartner{}, branchErr
		}
		partner.BranchID = &branchID
	}
	return partner, nil
}

func (dto AdminDTO) toDomain() (actor.Admin, error) {
	id, err := kernel.ParseID(dto.ID)
	if err != nil {
		return actor.Admin{}, err
	}
	return actor.Admin{ID: id, Name: dto.Name, Email: dto.Email}, nil
}

func (dto BranchDTO) toDomain() (catalog.Branch, error) {
	id, err := kernel.ParseID(dto.ID)
	if err != nil {
		return catalog.Branch{}, err
	}
	loc, err := kernel.NewGeoLocation(dto.Latitude, dto.Longitude, dto.Address)
	if err != nil {
		return catalog.Branch{}, err
	}
	return catalog.Branch{ID: id, Name: dto.Name, Location: loc}, nil
}

func (dto ProductDTO) toDomain() (catalog.Product, error) {
	id, err := kernel.ParseID(dto.ID)
	if err != nil {
		return catalog.Product{}, err
	}
	return catalog.Product{ID: id, Name: dto.Name, Price: dto.Price}, nil
}

func optionalLocation(lat, lng *float64, address string) (*kernel.GeoLocation, error) {
	if lat == nil || lng == nil {
		return nil, nil
	}
	loc, err := kernel.NewGeoLocation(*lat, *lng, address)
	if err != nil {
		return nil, err
	}
	return &loc, nil
}
