package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"tracking/internal/core/domain/model/actor"
	"tracking/internal/core/domain/model/catalog"
	"tracking/internal/core/domain/model/kernel"
	"tracking/internal/core/ports"
	"tracking/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

var (
	_ ports.CustomerDirectory        = &Directory{}
	_ ports.DeliveryPartnerDirectory = &Directory{}
	_ ports.AdminDirectory           = &Directory{}
	_ ports.BranchDirectory          = &Directory{}
	_ ports.ProductCatalog           = &Directory{}
)

// Directory serves every read-only directory from memory.
type Directory struct {
	mu        sync.RWMutex
	customers map[kernel.ID]actor.Customer
	partners  map[kernel.ID]actor.DeliveryPartner
	admins    map[kernel.ID]actor.Admin
	branches  map[kernel.ID]catalog.Branch
	products  map[kernel.ID]catalog.Product
}

func NewDirectory() *Directory {
	return &Directory{
		customers: make(map[kernel.ID]actor.Customer),
		partners:  make(map[kernel.ID]actor.DeliveryPartner),
		admins:    make(map[kernel.ID]actor.Admin),
		branches:  make(map[kernel.ID]catalog.Branch),
		products:  make(map[kernel.ID]catalog.Product),
	}
}

func (d *Directory) PutCustomer(c actor.Customer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.customers[c.ID] = c
}

func (d *Directory) PutDeliveryPartner(p actor.DeliveryPartner) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.partners[p.ID] = p
}

func (d *Directory) PutAdmin(a actor.Admin) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.admins[a.ID] = a
}

func (d *Directory) PutBranch(b catalog.Branch) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.branches[b.ID] = b
}

func (d *Directory) PutProduct(p catalog.Product) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.products[p.ID] = p
}

func (d *Directory) GetCustomer(_ context.Context, id kernel.ID) (actor.Customer, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.customers[id]
	if !ok {
		return actor.Customer{}, errs.NewObjectNotFoundError("customer", id.String())
	}
	return c, nil
}

func (d *Directory) GetDeliveryPartner(_ context.Context, id kernel.ID) (actor.DeliveryPartner, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.partners[id]
	if !ok {
		return actor.DeliveryPartner{}, errs.NewObjectNotFoundError("deliveryPartner", id.String())
	}
	return p, nil
}

func (d *Directory) GetAdmin(_ context.Context, id kernel.ID) (actor.Admin, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	a, ok := d.admins[id]
	if !ok {
		return actor.Admin{}, errs.NewObjectNotFoundError("admin", id.String())
	}
	return a, nil
}

func (d *Directory) GetBranch(_ context.Context, id kernel.ID) (catalog.Branch, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	b, ok := d.branches[id]
	if !ok {
		return catalog.Branch{}, errs.NewObjectNotFoundError("branch", id.String())
	}
	return b, nil
}

func (d *Directory) GetProducts(_ context.Context, ids []kernel.ID) (map[kernel.ID]catalog.Product, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	found := make(map[kernel.ID]catalog.Product, len(ids))
	for _, id := range ids {
		if p, ok := d.products[id]; ok {
			found[id] = p
		}
	}
	return found, nil
}

type seedLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
}

// Seed is the JSON document accepted by LoadSeed.
type Seed struct {
	Customers []struct {
		ID       string        `json:"id"`
		Name     string        `json:"name"`
		Phone    string        `json:"phone"`
		Address  string        `json:"address"`
		Location *seedLocation `json:"liveLocation"`
	} `json:"customers"`
	DeliveryPartners []struct {
		ID        string        `json:"id"`
		Name      string        `json:"name"`
		Email     string        `json:"email"`
		Phone     string        `json:"phone"`
		Activated bool          `json:"activated"`
		Branch    string        `json:"branch"`
		Location  *seedLocation `json:"liveLocation"`
	} `json:"deliveryPartners"`
	Admins []struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"admins"`
	Branches []struct {
		ID       string       `json:"id"`
		Name     string       `json:"name"`
		Location seedLocation `json:"location"`
	} `json:"branches"`
	Products []struct {
		ID    string          `json:"id"`
		Name  string          `json:"name"`
		Price decimal.Decimal `json:"price"`
	} `json:"products"`
}

// LoadSeed reads a JSON seed document into the directory.
func (d *Directory) LoadSeed(r io.Reader) error {
	var seed Seed
	if err := json.NewDecoder(r).Decode(&seed); err != nil {
		return fmt.Errorf("decode directory seed: %w", err)
	}

	for _, c := range seed.Customers {
		id, err := kernel.ParseID(c.ID)
		if err != nil {
			return fmt.Errorf("customer %q: %w", c.ID, err)
		}
		loc, err := optionalLocation(c.Location)
		if err != nil {
			return fmt.Errorf("customer %q: %w", c.ID, err)
		}
		d.PutCustomer(actor.Customer{ID: id, Name: c.Name, Phone: c.Phone, Address: c.Address, LiveLocation: loc})
	}

	for _, p := range seed.DeliveryPartners {
		id, err := kernel.ParseID(p.ID)
		if err != nil {
			return fmt.Errorf("delivery partner %q: %w", p.ID, err)
		}
		loc, err := optionalLocation(p.Location)
		if err != nil {
			return fmt.Errorf("delivery partner %q: %w", p.ID, err)
		}
		partner := actor.DeliveryPartner{
			ID: id, Name: p.Name, Email: p.Email, Phone: p.Phone,
			Activated: p.Activated, LiveLocation: loc,
		}
		if p.Branch != "" {
			branchID, err := kernel.ParseID(p.Branch)
			if err != nil {
				return fmt.Errorf("delivery partner %q: %w", p.ID, err)
			}
			partner.BranchID = &branchID
		}
		d.PutDeliveryPartner(partner)
	}

	for _, a := range seed.Admins {
		id, err := kernel.ParseID(a.ID)
		if err != nil {
			return fmt.Errorf("admin %q: %w", a.ID, err)
		}
		d.PutAdmin(actor.Admin{ID: id, Name: a.Name, Email: a.Email})
	}

	for _, b := range seed.Branches {
		id, err := kernel.ParseID(b.ID)
		if err != nil {
			return fmt.Errorf("branch %q: %w", b.ID, err)
		}
		loc, err := kernel.NewGeoLocation(b.Location.Latitude, b.Location.Longitude, b.Location.Address)
		if err != nil {
			return fmt.Errorf("branch %q: %w", b.ID, err)
		}
		d.PutBranch(catalog.Branch{ID: id, Name: b.Name, Location: loc})
	}

	for _, p := range seed.Products {
		id, err := kernel.ParseID(p.ID)
		if err != nil {
			return fmt.Errorf("product %q: %w", p.ID, err)
		}
		d.PutProduct(catalog.Product{ID: id, Name: p.Name, Price: p.Price})
	}

	return nil
}

func optionalLocation(l *seedLocation) (*kernel.GeoLocation, error) {
	if l == nil {
		return nil, nil
	}
	loc, err := kernel.NewGeoLocation(l.Latitude, l.Longitude, l.Address)
	if err != nil {
		return nil, err
	}
	return &loc, nil
}
