// Package pgerrs maps driver failures onto the lifecycle error kinds, so a
// database outage surfaces as Unavailable and a slow query as Timeout.
package pgerrs

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"tracking/internal/pkg/errs"
)

// Translate classifies err for operation. Errors that are not about
// reaching the database are returned unchanged.
func Translate(operation string, err error) error {
	var (
		connectErr *pgconn.ConnectError
		netErr     net.Error
	)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded), pgconn.Timeout(err):
		return errs.NewTimeoutError(operation, err)
	case errors.Is(err, context.Canceled):
		return errs.NewUnavailableError(operation, err)
	case errors.As(err, &connectErr),
		errors.Is(err, driver.ErrBadConn),
		errors.Is(err, gorm.ErrInvalidDB):
		return errs.NewUnavailableError(operation, err)
	case errors.As(err, &netErr):
		if netErr.Timeout() {
			return errs.NewTimeoutError(operation, err)
		}
		return errs.NewUnavailableError(operation, err)
	}
	return err
}
