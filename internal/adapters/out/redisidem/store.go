// Package redisidem remembers which order a customer's Idempotency-Key
// created, so a retried create returns the same order.
package redisidem

import (
	"context"
	"errors"
	"strings"
	"time"

	"tracking/internal/core/domain/model/kernel"
	"tracking/internal/pkg/errs"

	"github.com/redis/go-redis/v9"
)

const (
	keyNamespace = "tracking"
	keyPrefix    = "idempotency"

	DefaultTTL = 24 * time.Hour

	claimAttempts = 3
)

type cmdable interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type Store struct {
	client cmdable
	ttl    time.Duration
}

// New wraps client. Non-positive ttl falls back to DefaultTTL.
func New(client redis.Cmdable, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{client: client, ttl: ttl}
}

// Lookup returns the order recorded for key within scope.
func (s *Store) Lookup(ctx context.Context, scope, key string) (kernel.ID, bool, error) {
	raw, err := s.client.Get(ctx, s.key(scope, key)).Result()
	if errors.Is(err, redis.Nil) {
		return kernel.ID{}, false, nil
	}
	if err != nil {
		return kernel.ID{}, false, errs.NewUnavailableError("idempotency lookup", err)
	}

	id, err := kernel.ParseID(raw)
	if err != nil {
		return kernel.ID{}, false, err
	}
	return id, true, nil
}

// Remember records orderID for key unless another request already did.
// It returns the order id that ends up stored.
func (s *Store) Remember(ctx context.Context, scope, key string, orderID kernel.ID) (kernel.ID, error) {
	for range claimAttempts {
		stored, err := s.client.SetNX(ctx, s.key(scope, key), orderID.String(), s.ttl).Result()
		if err != nil {
			return kernel.ID{}, errs.NewUnavailableError("idempotency remember", err)
		}
		if stored {
			return orderID, nil
		}

		existing, found, err := s.Lookup(ctx, scope, key)
		if err != nil {
			return kernel.ID{}, err
		}
		if found {
			return existing, nil
		}
		// released between SetNX and Get; claim again
	}
	return kernel.ID{}, errs.NewUnavailableError("idempotency remember", errors.New("key keeps changing owner"))
}

// Forget releases key if it still records orderID, so a failed create can
// be retried with the same key.
func (s *Store) Forget(ctx context.Context, scope, key string, orderID kernel.ID) error {
	existing, found, err := s.Lookup(ctx, scope, key)
	if err != nil {
		return err
	}
	if !found || !existing.IsEqual(orderID) {
		return nil
	}

	if err := s.client.Del(ctx, s.key(scope, key)).Err(); err != nil {
		return errs.NewUnavailableError("idempotency forget", err)
	}
	return nil
}

func (s *Store) key(scope, key string) string {
	return strings.Join([]string{keyNamespace, keyPrefix, scope, key}, ":")
}
