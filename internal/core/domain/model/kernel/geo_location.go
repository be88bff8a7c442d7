package kernel

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"tracking/internal/pkg/errs"
	"tracking/internal/pkg/guard"
)

const (
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0

	// NoAddressProvided replaces a missing address on pickup and delivery locations.
	NoAddressProvided = "No address provided"
)

// ErrGeoLocationIsNotConstructed is returned when a GeoLocation did not come from NewGeoLocation.
var ErrGeoLocationIsNotConstructed = errs.NewValueIsRequiredError(
	"location must be created via NewGeoLocation")

// GeoLocation is a point on the map with an optional human readable address.
// A location built by NewAddressOnlyLocation carries an address but no
// coordinates. It is an immutable value object; the zero value is invalid.
//
// Example:
//
//	loc, err := kernel.NewGeoLocation(12.9716, 77.5946, "MG Road")
//	if err != nil {
//	    return err
//	}
type GeoLocation struct { //nolint:recvcheck //using for validation
	latitude       float64
	longitude      float64
	hasCoordinates bool
	address        string
	guard          guard.ConstructorGuard
}

// NewGeoLocation validates the coordinates and builds a GeoLocation.
func NewGeoLocation(latitude, longitude float64, address string) (GeoLocation, error) {
	loc := GeoLocation{
		hasCoordinates: true,
		address:        strings.TrimSpace(address),
		guard:          guard.NewConstructorGuard(),
	}

	if err := errors.Join(loc.setLatitude(latitude), loc.setLongitude(longitude)); err != nil {
		return GeoLocation{}, err
	}

	return loc, nil
}

// NewAddressOnlyLocation builds a location for a place whose coordinates
// are unknown, such as a customer who never shared a live location.
func NewAddressOnlyLocation(address string) GeoLocation {
	return GeoLocation{
		address: strings.TrimSpace(address),
		guard:   guard.NewConstructorGuard(),
	}
}

// GeoLocationFromOptional builds a GeoLocation from client input where either
// coordinate may be absent. Both coordinates are required.
func GeoLocationFromOptional(latitude, longitude *float64, address string) (GeoLocation, error) {
	var missing []error
	if latitude == nil {
		missing = append(missing, errs.NewValueIsRequiredError("latitude"))
	}
	if longitude == nil {
		missing = append(missing, errs.NewValueIsRequiredError("longitude"))
	}
	if len(missing) > 0 {
		return GeoLocation{}, errors.Join(missing...)
	}
	return NewGeoLocation(*latitude, *longitude, address)
}

// WithDefaultAddress returns a copy whose empty address is replaced by fallback.
func (l GeoLocation) WithDefaultAddress(fallback string) GeoLocation {
	if l.address == "" {
		l.address = fallback
	}
	return l
}

// Validate checks that the location was built by a constructor.
func (l GeoLocation) Validate() error {
	return l.guard.Validate(ErrGeoLocationIsNotConstructed)
}

// HasCoordinates reports whether latitude and longitude are known.
func (l GeoLocation) HasCoordinates() bool {
	return l.hasCoordinates
}

func (l GeoLocation) Latitude() float64 {
	return l.latitude
}

func (l GeoLocation) Longitude() float64 {
	return l.longitude
}

func (l GeoLocation) Address() string {
	return l.address
}

func (l GeoLocation) String() string {
	if !l.hasCoordinates {
		return fmt.Sprintf("GeoLocation(%q)", l.address)
	}
	return fmt.Sprintf("GeoLocation(%.6f,%.6f)", l.latitude, l.longitude)
}

func (l *GeoLocation) setLatitude(latitude float64) error {
	if math.IsNaN(latitude) || latitude < MinLatitude || latitude > MaxLatitude {
		return errs.NewValueIsOutOfRangeError("latitude", latitude, MinLatitude, MaxLatitude)
	}
	l.latitude = latitude
	return nil
}

func (l *GeoLocation) setLongitude(longitude float64) error {
	if math.IsNaN(longitude) || longitude < MinLongitude || longitude > MaxLongitude {
		return errs.NewValueIsOutOfRangeError("longitude", longitude, MinLongitude, MaxLongitude)
	}
	l.longitude = longitude
	return nil
}

type geoLocationJSON struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Address   string   `json:"address"`
}

// MarshalJSON encodes the location as {"latitude", "longitude", "address"}.
// Coordinates are omitted for an address-only location.
func (l GeoLocation) MarshalJSON() ([]byte, error) {
	out := geoLocationJSON{Address: l.address}
	if l.hasCoordinates {
		lat, lng := l.latitude, l.longitude
		out.Latitude, out.Longitude = &lat, &lng
	}
	return json.Marshal(out)
}
