package notes

import (
	"context"
	"time"
)

type Repository interface {
	// ListSince returns the user's notes that are not soft-deleted,
	// optionally limited to those updated after since, newest first.
	ListSince(ctx context.Context, userID string, since *time.Time) ([]Note, error)

	// Get returns a note by id regardless of owner or deletion state;
	// callers enforce ownership.
	Get(ctx context.Context, id string) (*Note, error)

	// Insert stores a new note row.
	Insert(ctx context.Context, n *Note) error

	// Update replaces a stored note's content fields.
	Update(ctx context.Context, n *Note) error

	// SoftDelete stamps deleted_at on the user's note.
	SoftDelete(ctx context.Context, id, userID string, at time.Time) error
}
