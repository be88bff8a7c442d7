package http

import (
	"tracking/internal/core/domain/model/actor"
	"tracking/internal/core/domain/model/kernel"
	"tracking/internal/core/domain/model/order"
)

const (
	msgOrderCreated       = "Order created successfully"
	msgOrderConfirmed     = "Order confirmed successfully"
	msgOrderStatusUpdated = "Order status updated successfully"
	msgOrderFetched       = "Order fetched successfully"
	msgOrdersFetched      = "Orders fetched successfully"
	msgUserFetched        = "User fetched successfully"
)

type orderResponse struct {
	Message string         `json:"message"`
	Order   order.Snapshot `json:"order"`
}

type ordersResponse struct {
	Message string           `json:"message"`
	Orders  []order.Snapshot `json:"orders"`
}

type userView struct {
	ID           kernel.ID           `json:"id"`
	Role         actor.Role          `json:"role"`
	Name         string              `json:"name,omitempty"`
	Email        string              `json:"email,omitempty"`
	Phone        string              `json:"phone,omitempty"`
	Address      string              `json:"address,omitempty"`
	Activated    *bool               `json:"isActivated,omitempty"`
	BranchID     *kernel.ID          `json:"branch,omitempty"`
	LiveLocation *kernel.GeoLocation `json:"liveLocation,omitempty"`
}

type profileResponse struct {
	Message string   `json:"message"`
	User    userView `json:"user"`
}

func newUserView(p actor.Profile) userView {
	v := userView{Role: p.Role}
	switch {
	case p.Customer != nil:
		v.ID = p.Customer.ID
		v.Name = p.Customer.Name
		v.Phone = p.Customer.Phone
		v.Address = p.Customer.Address
		v.LiveLocation = p.Customer.LiveLocation
	case p.DeliveryPartner != nil:
		activated := p.DeliveryPartner.Activated
		v.ID = p.DeliveryPartner.ID
		v.Name = p.DeliveryPartner.Name
		v.Email = p.DeliveryPartner.Email
		v.Phone = p.DeliveryPartner.Phone
		v.Activated = &activated
		v.BranchID = p.DeliveryPartner.BranchID
		v.LiveLocation = p.DeliveryPartner.LiveLocation
	case p.Admin != nil:
		v.ID = p.Admin.ID
		v.Name = p.Admin.Name
		v.Email = p.Admin.Email
	}
	return v
}
