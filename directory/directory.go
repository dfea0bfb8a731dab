// Package directory is a thin typed adapter over the shared KV store,
// exposing only the primitives the session directory and tailgator sets
// need: set-with-expiry, get, delete, set membership, and an atomic
// composite of the two.
package directory

import (
	"context"
	"time"
)

// Client is the Directory Client seam. All operations propagate store
// errors unchanged; callers decide whether to surface them to clients or
// only to an internal error channel.
type Client interface {
	// Put sets key to value with the given TTL.
	Put(ctx context.Context, key string, ttl time.Duration, value string) error

	// Get returns the value stored at key, and false if key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Add appends member to the set at setKey.
	Add(ctx context.Context, setKey string, member string) error

	// Members lists every member of the set at setKey.
	Members(ctx context.Context, setKey string) ([]string, error)

	// PutAndMembers atomically sets key to value with the given TTL and
	// reads the members of setKey in a single round trip.
	PutAndMembers(ctx context.Context, key string, ttl time.Duration, value string, setKey string) (members []string, err error)
}
