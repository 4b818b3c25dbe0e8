// Package token issues and redeems single-use download tickets.
//
// Tickets live in an external key-value store whose native TTL handles
// expiry, so no sweeper runs. Single use comes from the store's atomic
// delete: of any number of concurrent redeemers, exactly one observes the
// delete succeed and everyone else sees the ticket as expired.
package token

import (
	"context"
	"errors"
	"time"
)

// ErrTokenNotFound is returned by Store.Get when the key is absent, whether
// it never existed, expired, or was already consumed. The three cases are
// indistinguishable on purpose.
var ErrTokenNotFound = errors.New("token not found")

// Store is the key-value backend holding ticket payloads.
type Store interface {
	// Put stores value under key with the given time to live.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get returns the value stored under key, or ErrTokenNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Del removes key and reports whether this call removed it. When several
	// callers race, exactly one gets true.
	Del(ctx context.Context, key string) (bool, error)

	// Close releases the backend.
	Close() error
}
