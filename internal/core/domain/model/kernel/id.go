package kernel

import (
	"strings"

	"tracking/internal/pkg/errs"

	"github.com/google/uuid"
)

// ErrIDIsNotConstructed is returned when validating a zero-value ID.
var ErrIDIsNotConstructed = errs.NewValueIsRequiredError("ID must be created via NewID or ParseID")

// maxIDLength bounds identifiers coming from clients and storage.
const maxIDLength = 64

// ID is an opaque identifier. Orders receive random UUIDs via NewID; directory
// records (customers, branches, products) keep whatever key their store uses,
// so ParseID only requires a trimmed, non-empty value.
//
// Example:
//
//	orderID := kernel.NewID()
//	branchID, err := kernel.ParseID("b1")
//	if err != nil {
//	    return err
//	}
type ID struct {
	value string
}

// NewID generates a new random identifier.
func NewID() ID {
	return ID{value: uuid.NewString()}
}

// ParseID builds an ID from its string form.
func ParseID(s string) (ID, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return ID{}, errs.NewValueIsRequiredError("id")
	}
	if len(trimmed) > maxIDLength {
		return ID{}, errs.NewValueIsOutOfRangeError("id length", len(trimmed), 1, maxIDLength)
	}
	return ID{value: trimmed}, nil
}

// MustParseID is ParseID for literals known to be valid; it panics otherwise.
func MustParseID(s string) ID {
	id, err := ParseID(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (id ID) String() string {
	return id.value
}

// IsEqual reports whether both identifiers hold the same value.
func (id ID) IsEqual(other ID) bool {
	return id.value == other.value
}

// IsZero reports whether id is the zero value.
func (id ID) IsZero() bool {
	return id.value == ""
}

// Validate returns ErrIDIsNotConstructed for the zero value.
func (id ID) Validate() error {
	if id.IsZero() {
		return ErrIDIsNotConstructed
	}
	return nil
}

// MarshalText encodes the ID as its string value.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.value), nil
}
