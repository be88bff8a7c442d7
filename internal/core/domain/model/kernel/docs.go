// Package kernel provides the value objects shared by the order lifecycle
// domain model.
//
// The package includes:
//   - ID: an opaque, non-empty identifier for orders and directory records
//   - GeoLocation: a latitude/longitude pair with a free-text address
//
// Both are immutable; the zero value of each is invalid and fails Validate.
package kernel
