package interfaces

import (
	"context"

	"prosorter/domain/entities"
)

// KeyValueStore is the storage substrate for the coin ledger, the enrollment
// counter, and small configuration values. Implementations must provide an
// atomic conditional write: Update applies fn to the current value and
// commits the result only if no concurrent writer touched the key, retrying
// internally a bounded number of times before giving up with
// entities.ErrConflictRetryExhausted.
type KeyValueStore interface {
	// Get returns the value at key, or entities.ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put unconditionally overwrites the value at key.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes the key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Update atomically replaces the value at key with fn(old). fn receives
	// nil when the key does not exist. An error from fn aborts the update
	// and is returned verbatim.
	Update(ctx context.Context, key string, fn func(old []byte) ([]byte, error)) error

	// Increment atomically increments the integer counter at key and
	// returns the new value. Missing keys start at zero.
	Increment(ctx context.Context, key string) (int64, error)
}

// ActivityRepository is the append-only audit trail.
type ActivityRepository interface {
	// Append records an entry and returns its assigned ID. The entry's
	// timestamp is taken as given; the core never generates identity.
	Append(ctx context.Context, entry *entities.ActivityEntry) (int64, error)

	// Query returns matching entries newest first (timestamp desc, ID desc
	// on ties).
	Query(ctx context.Context, filter entities.ActivityFilter) ([]*entities.ActivityEntry, error)

	// Clear irreversibly deletes all entries and returns the number removed.
	Clear(ctx context.Context) (int64, error)
}
