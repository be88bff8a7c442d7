// Package orderrepo persists the order aggregate with GORM and maps between
// the aggregate and its table row.
package orderrepo

import (
	"time"

	"tracking/internal/core/domain/model/kernel"
	"tracking/internal/core/domain/model/order"

	"github.com/shopspring/decimal"
)

// OrderDTO is the orders table row. Items are stored as a JSON document;
// the delivery person location columns are null until the order is claimed.
type OrderDTO struct {
	ID                string          `gorm:"type:varchar(64);primaryKey"`
	CustomerID        string          `gorm:"type:varchar(64);not null;index"`
	BranchID          string          `gorm:"type:varchar(64);not null;index"`
	Items             []ItemDTO       `gorm:"serializer:json;type:text;not null"`
	TotalPrice        decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Status            string          `gorm:"type:varchar(16);not null;index"`
	DeliveryPartnerID *string         `gorm:"type:varchar(64);index"`

	Pickup   LocationDTO `gorm:"embedded;embeddedPrefix:pickup_"`
	Delivery LocationDTO `gorm:"embedded;embeddedPrefix:delivery_"`

	DeliveryPersonLatitude  *float64
	DeliveryPersonLongitude *float64
	DeliveryPersonAddress   *string

	CreatedAt   time.Time `gorm:"not null;index;autoCreateTime:false"`
	UpdatedAt   time.Time `gorm:"not null;autoUpdateTime:false"`
	ConfirmedAt *time.Time
	DeliveredAt *time.Time
	CancelledAt *time.Time
}

func (OrderDTO) TableName() string {
	return "orders"
}

// LocationDTO is an embedded coordinate pair with its address. Coordinates
// are NULL for address-only locations.
type LocationDTO struct {
	Latitude  *float64
	Longitude *float64
	Address   string
}

// ItemDTO is one element of the items JSON document.
type ItemDTO struct {
	ProductID string `json:"id"`
	Name      string `json:"item,omitempty"`
	Count     int    `json:"count"`
}

func fromDomain(o *order.Order) OrderDTO {
	s := o.Snapshot()

	items := make([]ItemDTO, 0, len(s.Items))
	for _, item := range s.Items {
		items = append(items, ItemDTO{
			ProductID: item.ProductID().String(),
			Name:      item.Name(),
			Count:     item.Count(),
		})
	}

	dto := OrderDTO{
		ID:          s.ID.String(),
		CustomerID:  s.CustomerID.String(),
		BranchID:    s.BranchID.String(),
		Items:       items,
		TotalPrice:  s.TotalPrice,
		Status:      s.Status.String(),
		Pickup:      locationFromDomain(s.PickupLocation),
		Delivery:    locationFromDomain(s.DeliveryLocation),
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
		ConfirmedAt: s.ConfirmedAt,
		DeliveredAt: s.DeliveredAt,
		CancelledAt: s.CancelledAt,
	}

	if s.DeliveryPartnerID != nil {
		id := s.DeliveryPartnerID.String()
		dto.DeliveryPartnerID = &id
	}
	if loc := s.DeliveryPersonLocation; loc != nil {
		lat, lng, addr := loc.Latitude(), loc.Longitude(), loc.Address()
		dto.DeliveryPersonLatitude = &lat
		dto.DeliveryPersonLongitude = &lng
		dto.DeliveryPersonAddress = &addr
	}

	return dto
}

// mutableColumns lists what a conditional update writes. Nil pointers are
// kept so that cleared columns are written as NULL.
func (dto OrderDTO) mutableColumns() map[string]any {
	return map[string]any{
		"status":                    dto.Status,
		"delivery_partner_id":       dto.DeliveryPartnerID,
		"delivery_person_latitude":  dto.DeliveryPersonLatitude,
		"delivery_person_longitude": dto.DeliveryPersonLongitude,
		"delivery_person_address":   dto.DeliveryPersonAddress,
		"updated_at":                dto.UpdatedAt,
		"confirmed_at":              dto.ConfirmedAt,
		"delivered_at":              dto.DeliveredAt,
		"cancelled_at":              dto.CancelledAt,
	}
}

// toDomain rebuilds the aggregate through RestoreOrder, which re-checks the
// status and partner invariants.
func toDomain(dto OrderDTO) (*order.Order, error) {
	ids, err := parseIDs(dto.ID, dto.CustomerID, dto.BranchID)
	if err != nil {
		return nil, err
	}

	items := make([]order.Item, 0, len(dto.Items))
	for _, item := range dto.Items {
		productID, idErr := kernel.ParseID(item.ProductID)
		if idErr != nil {
			return nil, idErr
		}
		restored, itemErr := order.NewItem(productID, item.Name, item.Count)
		if itemErr != nil {
			return nil, itemErr
		}
		items = append(items, restored)
	}

	pickup, err := dto.Pickup.toDomain()
	if err != nil {
		return nil, err
	}
	delivery, err := dto.Delivery.toDomain()
	if err != nil {
		return nil, err
	}

	s := order.Snapshot{
		ID:               ids[0],
		CustomerID:       ids[1],
		BranchID:         ids[2],
		Items:            items,
		TotalPrice:       dto.TotalPrice,
		Status:           order.Status(dto.Status),
		PickupLocation:   pickup,
		DeliveryLocation: delivery,
		CreatedAt:        dto.CreatedAt.UTC(),
		UpdatedAt:        dto.UpdatedAt.UTC(),
		ConfirmedAt:      utc(dto.ConfirmedAt),
		DeliveredAt:      utc(dto.DeliveredAt),
		CancelledAt:      utc(dto.CancelledAt),
	}

	if dto.DeliveryPartnerID != nil {
		partnerID, idErr := kernel.ParseID(*dto.DeliveryPartnerID)
		if idErr != nil {
			return nil, idErr
		}
		s.DeliveryPartnerID = &partnerID
	}

	if dto.DeliveryPersonLatitude != nil && dto.DeliveryPersonLongitude != nil {
		var address string
		if dto.DeliveryPersonAddress != nil {
			address = *dto.DeliveryPersonAddress
		}
		loc, locErr := kernel.NewGeoLocation(*dto.DeliveryPersonLatitude, *dto.DeliveryPersonLongitude, address)
		if locErr != nil {
			return nil, locErr
		}
		s.DeliveryPersonLocation = &loc
	}

	return order.RestoreOrder(s)
}

func locationFromDomain(loc kernel.GeoLocation) LocationDTO {
	dto := LocationDTO{Address: loc.Address()}
	if loc.HasCoordinates() {
		lat, lng := loc.Latitude(), loc.Longitude()
		dto.Latitude, dto.Longitude = &lat, &lng
	}
	return dto
}

func (l LocationDTO) toDomain() (kernel.GeoLocation, error) {
	if l.Latitude == nil || l.Longitude == nil {
		return kernel.NewAddressOnlyLocation(l.Address), nil
	}
	return kernel.NewGeoLocation(*l.Latitude, *l.Longitude, l.Address)
}

func parseIDs(raw ...string) ([]kernel.ID, error) {
	ids := make([]kernel.ID, 0, len(raw))
	for _, r := range raw {
		id, err := kernel.ParseID(r)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
