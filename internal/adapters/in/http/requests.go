package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"tracking/internal/pkg/errs"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type itemRequest struct {
	ID    string `json:"id" validate:"required"`
	Item  string `json:"item"`
	Count int    `json:"count" validate:"required,min=1"`
}

type createOrderRequest struct {
	Items      []itemRequest   `json:"items" validate:"required,min=1,dive"`
	Branch     string          `json:"branch" validate:"required"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

type locationRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Address   string   `json:"address"`
}

// locationBody accepts the reported position under either name clients use.
type locationBody struct {
	CurrentLocation        *locationRequest `json:"currentLocation"`
	DeliveryPersonLocation *locationRequest `json:"deliveryPersonLocation"`
}

func (b locationBody) location() locationRequest {
	switch {
	case b.CurrentLocation != nil:
		return *b.CurrentLocation
	case b.DeliveryPersonLocation != nil:
		return *b.DeliveryPersonLocation
	}
	return locationRequest{}
}

type claimOrderRequest struct {
	locationBody
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
	locationBody
}

type listOrdersRequest struct {
	Status            string `query:"status"`
	CustomerID        string `query:"customerId"`
	DeliveryPartnerID string `query:"deliveryPartnerId"`
	BranchID          string `query:"branchId"`
	Limit             int    `query:"limit"`
}

// requestValidator plugs validator/v10 into echo.Context.Validate and
// reports failures as validation errors keyed by json field name.
type requestValidator struct {
	validate *validator.Validate
}

func newRequestValidator() *requestValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	return &requestValidator{validate: v}
}

func (rv *requestValidator) Validate(i any) error {
	err := rv.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errs.NewValueIsInvalidErrorWithCause("request", err)
	}

	joined := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := fieldPath(fe)
		if fe.Tag() == "required" {
			joined = append(joined, errs.NewValueIsRequiredError(field))
			continue
		}
		joined = append(joined, errs.NewValueIsInvalidErrorWithCause(field, errors.New(validationMessage(fe))))
	}
	return errors.Join(joined...)
}

// fieldPath drops the root struct name, e.g. "items[0].count".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	}
	return "is invalid"
}

// decodeBody reads a JSON body into dst and validates it. An empty body
// decodes as the zero value so missing fields surface as validation errors.
func decodeBody(c echo.Context, dst any) error {
	body := c.Request().Body
	defer func() {
		_, _ = io.Copy(io.Discard, body)
	}()

	if err := json.NewDecoder(body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return errs.NewValueIsInvalidErrorWithCause("request body", err)
	}
	return c.Validate(dst)
}
