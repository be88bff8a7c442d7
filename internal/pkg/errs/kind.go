package errs

import (
	"context"
	"errors"
)

// Kind is the coarse classification of an error surfaced to callers.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindInvalidTransition
	KindUnavailable
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindUnauthenticated:
		return "Unauthenticated"
	case KindForbidden:
		return "Forbidden"
	case KindNotFound:
		return "NotFound"
	case KindInvalidTransition:
		return "InvalidTransition"
	case KindUnavailable:
		return "Unavailable"
	case KindTimeout:
		return "Timeout"
	case KindInternal:
		return "Internal"
	}
	return "Internal"
}

// KindOf classifies err. Unknown errors are KindInternal; a nil error is too,
// so callers must check for nil first.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, ErrUnavailable):
		return KindUnavailable
	case errors.Is(err, ErrUnauthenticated):
		return KindUnauthenticated
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrObjectNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidTransition):
		return KindInvalidTransition
	case errors.Is(err, ErrValueIsInvalid),
		errors.Is(err, ErrValueIsRequired),
		errors.Is(err, ErrValueIsOutOfRange):
		return KindValidation
	}
	return KindInternal
}

// FromContext converts a context failure into a DependencyError for operation.
// Other errors are returned unchanged.
func FromContext(operation string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return NewTimeoutError(operation, err)
	case errors.Is(err, context.Canceled):
		return NewUnavailableError(operation, err)
	}
	return err
}
