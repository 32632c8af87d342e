package queue

import (
	"context"
	"time"

	"github.com/offnote/offnote/pkg/models"
)

// Repository is the persisted outbound sync queue. It survives process
// restarts; draining resumes from whatever rows are left. Only the sync
// engine reads or mutates it.
type Repository interface {
	// Enqueue records a pending operation for a note. Any existing item for
	// the same note id is replaced and the item moves to the tail.
	Enqueue(ctx context.Context, noteID string, op models.SyncOp, at time.Time) error

	// Next returns the oldest item without removing it, or nil when the
	// queue is empty. Items are removed only after successful delivery.
	Next(ctx context.Context) (*models.QueueItem, error)

	// Remove deletes the item for a note id after it was applied remotely.
	// The enqueue timestamp must match: an item re-enqueued while the push
	// was in flight is a different pending edit and stays queued.
	Remove(ctx context.Context, noteID string, enqueuedAt time.Time) error

	// Items returns all pending items in FIFO order.
	Items(ctx context.Context) ([]models.QueueItem, error)

	// Len reports the number of pending items.
	Len(ctx context.Context) (int, error)

	// Clear drops every pending item. Used at session teardown.
	Clear(ctx context.Context) error
}
