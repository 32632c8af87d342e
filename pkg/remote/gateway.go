// Package remote abstracts the backend the sync engine talks to: fetch,
// idempotent upsert, soft delete, and a push channel of change events.
package remote

import (
	"context"
	"time"

	"github.com/offnote/offnote/pkg/models"
)

// ChangeHandlers receive inbound realtime events. Insert and update carry the
// full changed record; delete carries only the note id. Handlers run on the
// subscription's read loop and must not block for long.
type ChangeHandlers struct {
	OnInsert func(n models.Note)
	OnUpdate func(n models.Note)
	OnDelete func(noteID string)
}

// Subscription is one logical change-feed channel for a session's lifetime.
type Subscription interface {
	// Close tears the channel down. Safe to call more than once.
	Close() error
}

// Gateway is the remote side of the sync protocol.
type Gateway interface {
	// Available reports whether remote credentials are configured. When
	// false every other method returns ErrNotConfigured and the engine
	// operates local-only.
	Available() bool

	// FetchNotesSince returns the user's notes that are not soft-deleted,
	// optionally limited to those updated after since.
	FetchNotesSince(ctx context.Context, userID string, since *time.Time) ([]models.Note, error)

	// UpsertNote creates or fully replaces the remote record by id.
	// Idempotent: pushing the same state twice is a no-op.
	UpsertNote(ctx context.Context, userID string, n models.Note) (*models.Note, error)

	// SoftDeleteNote marks the remote record deleted without removing it.
	SoftDeleteNote(ctx context.Context, noteID, userID string) error

	// SubscribeChanges opens the realtime change feed for the user.
	// Reconnection after a transient drop is the gateway's responsibility.
	SubscribeChanges(ctx context.Context, userID string, h ChangeHandlers) (Subscription, error)
}

// Disabled returns a Gateway with no credentials: Available is false and all
// operations fail with ErrNotConfigured.
func Disabled() Gateway {
	return disabledGateway{}
}

type disabledGateway struct{}

func (disabledGateway) Available() bool { return false }

func (disabledGateway) FetchNotesSince(context.Context, string, *time.Time) ([]models.Note, error) {
	return nil, ErrNotConfigured
}

func (disabledGateway) UpsertNote(context.Context, string, models.Note) (*models.Note, error) {
	return nil, ErrNotConfigured
}

func (disabledGateway) SoftDeleteNote(context.Context, string, string) error {
	return ErrNotConfigured
}

func (disabledGateway) SubscribeChanges(context.Context, string, ChangeHandlers) (Subscription, error) {
	return nil, ErrNotConfigured
}
