package models

import "time"

// SyncOp is the kind of a pending outbound operation.
type SyncOp string

const (
	// SyncOpUpsert pushes the full current note state to the remote.
	SyncOpUpsert SyncOp = "upsert"

	// SyncOpDelete pushes a soft-delete marker to the remote.
	SyncOpDelete SyncOp = "delete"
)

// QueueItem is a pending outbound mutation. At most one item exists per note
// id; re-enqueueing replaces the previous item and moves it to the tail.
type QueueItem struct {
	NoteID     string
	Op         SyncOp
	EnqueuedAt time.Time
}
