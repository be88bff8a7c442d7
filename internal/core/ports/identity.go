package ports

import (
	"context"

	"tracking/internal/core/domain/model/actor"
)

// IdentityGateway resolves bearer credentials into an actor. Invalid or
// missing credentials yield errs.ErrUnauthenticated.
type IdentityGateway interface {
	Authenticate(ctx context.Context, token string) (actor.Actor, error)
}
