package recordfsm

import "context"

// Store is the persistence collaborator a Repository writes through. The
// ConditionalUpdate contract carries the optimistic concurrency guard: it
// must be a single atomic write, not a read-then-write sequence, or the
// lost-update window this package exists to close reopens between the two
// round trips.
//
// Implementations map recordfsm.ErrNotFound and recordfsm.ErrDuplicateKey
// onto their driver-level failures.
type Store interface {
	// Insert creates the stored record under key, failing with
	// ErrDuplicateKey if the key is already present.
	Insert(ctx context.Context, key string, values map[string]any) error

	// Load returns the stored column values for key, or ErrNotFound.
	Load(ctx context.Context, key string) (map[string]any, error)

	// ConditionalUpdate atomically applies update to the stored record only
	// if every expected column still holds its expected value, returning the
	// number of rows written: 1 on success, 0 when the precondition no
	// longer holds (or the row is gone). On 0 storage must be untouched.
	ConditionalUpdate(ctx context.Context, key string, expected, update map[string]any) (int64, error)

	// Delete removes the stored record, or returns ErrNotFound.
	Delete(ctx context.Context, key string) error
}
