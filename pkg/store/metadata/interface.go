package metadata

import "context"

// Keys used by the sync engine.
const (
	// KeyLastSyncedAt stores the last successful sync time as RFC 3339.
	KeyLastSyncedAt = "last_synced_at"
)

// Repository is a small key/value store for sync bookkeeping that must
// survive restarts alongside the notes.
type Repository interface {
	// Get returns the stored value, or (nil, nil) when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores or replaces a value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes a key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// Clear removes everything. Used at session teardown.
	Clear(ctx context.Context) error
}
