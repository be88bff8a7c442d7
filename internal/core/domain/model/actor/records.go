package actor

import "tracking/internal/core/domain/model/kernel"

// Customer is a directory record for a customer account.
type Customer struct {
	ID           kernel.ID
	Name         string
	Phone        string
	Address      string
	LiveLocation *kernel.GeoLocation
}

// DeliveryPartner is a directory record for a delivery partner account.
// Only activated partners may claim orders.
type DeliveryPartner struct {
	ID           kernel.ID
	Name         string
	Email        string
	Phone        string
	Activated    bool
	BranchID     *kernel.ID
	LiveLocation *kernel.GeoLocation
}

// Admin is a directory record for an administrator.
type Admin struct {
	ID    kernel.ID
	Name  string
	Email string
}

// Profile is the record behind an actor. Exactly one of the pointers is set,
// matching Role.
type Profile struct {
	Role            Role
	Customer        *Customer
	DeliveryPartner *DeliveryPartner
	Admin           *Admin
}
