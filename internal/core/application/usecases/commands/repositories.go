// Package commands contains business operations that modify order state.
// Every command follows the same pattern: constructor validation, a unit of
// work around the store, a conditional write, and event publication after
// commit.
package commands

import (
	"context"
	"time"

	"tracking/internal/core/domain/model/order"
	"tracking/internal/core/ports"
	"tracking/internal/pkg/errs"

	"github.com/rs/zerolog"
)

// Unit of Work aliases keep handler signatures short.
type (
	// OrderUoW manages the transaction for a single order command.
	//
	// Example:
	//   uow := factory.Create()
	//   err := uow.Begin(ctx)
	//   defer uow.Rollback(ctx)
	//
	//   repo := uow.OrderRepository()
	//   // ... perform operations
	//
	//   err = uow.Commit(ctx)
	OrderUoW = ports.UnitOfWork

	// OrderUoWFactory creates new order unit of work instances.
	OrderUoWFactory = ports.UnitOfWorkFactory
)

// DefaultStoreTimeout bounds a command when no timeout is configured.
const DefaultStoreTimeout = 5 * time.Second

// Option tunes a command handler.
type Option func(*handlerOptions)

type handlerOptions struct {
	timeout time.Duration
	now     func() time.Time
	logger  zerolog.Logger
}

func defaultOptions() handlerOptions {
	return handlerOptions{
		timeout: DefaultStoreTimeout,
		now:     time.Now,
		logger:  zerolog.Nop(),
	}
}

func buildOptions(opts []Option) handlerOptions {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithTimeout bounds every store interaction of the handler. Non-positive
// values keep the default.
func WithTimeout(timeout time.Duration) Option {
	return func(o *handlerOptions) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *handlerOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets the logger used for swallowed publish failures.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *handlerOptions) {
		o.logger = logger
	}
}

// storeError turns an expired or cancelled context into a dependency error
// so that a slow store surfaces as Timeout rather than an opaque failure.
func storeError(ctx context.Context, operation string, err error) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return errs.FromContext(operation, ctxErr)
	}
	return errs.FromContext(operation, err)
}

// publishAll hands events to the publisher. Failures are logged and never
// reach the caller: the state change is already committed.
func publishAll(ctx context.Context, publisher ports.EventPublisher, logger zerolog.Logger, events []order.Event) {
	if publisher == nil {
		return
	}
	for _, event := range events {
		if err := publisher.Publish(ctx, event); err != nil {
			logger.Warn().
				Err(err).
				Str("order_id", event.Order.ID.String()).
				Str("event", event.Name.String()).
				Msg("failed to publish order event")
		}
	}
}
