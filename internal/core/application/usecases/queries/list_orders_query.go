package queries

import (
	"errors"

	"tracking/internal/core/domain/model/kernel"
	"tracking/internal/core/domain/model/order"
	"tracking/internal/core/ports"
	"tracking/internal/pkg/errs"
	"tracking/internal/pkg/guard"
)

// MaxListLimit caps the number of orders a single list returns.
const MaxListLimit = 500

var ErrListOrdersQueryIsNotConstructed = errors.New(
	"ListOrdersQuery must be created via NewListOrdersQuery constructor",
)

// ListOrdersQuery lists orders, optionally narrowed by status, customer,
// delivery partner and branch. Empty strings do not filter.
type ListOrdersQuery struct {
	filter ports.OrderFilter
	guard  guard.ConstructorGuard
}

func NewListOrdersQuery(status, customerID, deliveryPartnerID, branchID string, limit int) (ListOrdersQuery, error) {
	q := ListOrdersQuery{guard: guard.NewConstructorGuard()}

	var statusErr error
	if status != "" {
		s, err := order.ParseStatus(status)
		statusErr = err
		q.filter.Status = &s
	}

	if err := errors.Join(
		statusErr,
		optionalID("customer", customerID, &q.filter.CustomerID),
		optionalID("deliveryPartner", deliveryPartnerID, &q.filter.DeliveryPartner),
		optionalID("branch", branchID, &q.filter.BranchID),
		q.setLimit(limit),
	); err != nil {
		return ListOrdersQuery{}, err
	}

	return q, nil
}

func (q ListOrdersQuery) Validate() error {
	return q.guard.Validate(ErrListOrdersQueryIsNotConstructed)
}

func (q ListOrdersQuery) Filter() ports.OrderFilter {
	return q.filter
}

func (q *ListOrdersQuery) setLimit(limit int) error {
	switch {
	case limit == 0:
		q.filter.Limit = MaxListLimit
	case limit < 0 || limit > MaxListLimit:
		return errs.NewValueIsOutOfRangeError("limit", limit, 1, MaxListLimit)
	default:
		q.filter.Limit = limit
	}
	return nil
}

func optionalID(name, raw string, dst **kernel.ID) error {
	if raw == "" {
		return nil
	}
	id, err := kernel.ParseID(raw)
	if err != nil {
		return errs.NewValueIsInvalidErrorWithCause(name, err)
	}
	*dst = &id
	return nil
}
