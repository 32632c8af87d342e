package notes

import (
	"context"
	"errors"
	"time"

	"github.com/offnote/offnote/internal/server/shared"
)

// EventPublisher receives note change notifications for fan-out to the
// owner's live connections. Implementations must not block.
type EventPublisher interface {
	NoteUpserted(userID string, n Note, created bool)
	NoteDeleted(userID, noteID string)
}

// NopPublisher discards events.
type NopPublisher struct{}

func (NopPublisher) NoteUpserted(string, Note, bool) {}
func (NopPublisher) NoteDeleted(string, string)      {}

type Service struct {
	repo   Repository
	events EventPublisher
	now    func() time.Time
}

func NewService(repo Repository, events EventPublisher) *Service {
	if events == nil {
		events = NopPublisher{}
	}
	return &Service{repo: repo, events: events, now: time.Now}
}

// List returns the user's live notes, optionally only those updated after
// since.
func (s *Service) List(ctx context.Context, userID string, since *time.Time) ([]Note, error) {
	return s.repo.ListSince(ctx, userID, since)
}

// Upsert creates or fully replaces the note by id. The operation is
// idempotent. A note owned by another user is never touched; that case is
// forbidden, not a new insert, so a client cannot hijack a foreign id.
func (s *Service) Upsert(ctx context.Context, userID string, n *Note) (*Note, error) {
	if n.ID == "" {
		return nil, shared.ErrorValidation
	}
	n.UserID = userID

	now := s.now().UTC()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = now
	}

	existing, err := s.repo.Get(ctx, n.ID)
	switch {
	case errors.Is(err, shared.ErrorNotFound):
		if err := s.repo.Insert(ctx, n); err != nil {
			return nil, shared.ErrorInternal
		}
		s.events.NoteUpserted(userID, *n, true)
		return n, nil

	case err != nil:
		return nil, shared.ErrorInternal

	case existing.UserID != userID:
		return nil, shared.ErrorForbidden

	default:
		// Replaying a delete-then-upsert revives the row; Update clears
		// deleted_at.
		n.CreatedAt = existing.CreatedAt
		if err := s.repo.Update(ctx, n); err != nil {
			return nil, shared.ErrorInternal
		}
		s.events.NoteUpserted(userID, *n, false)
		return n, nil
	}
}

// Delete soft-deletes the user's note. Deleting an already-deleted or unknown
// note is a no-op so the client's at-least-once queue can replay safely.
func (s *Service) Delete(ctx context.Context, userID, noteID string) error {
	if noteID == "" {
		return shared.ErrorValidation
	}

	err := s.repo.SoftDelete(ctx, noteID, userID, s.now().UTC())
	if errors.Is(err, shared.ErrorNotFound) {
		return nil
	}
	if err != nil {
		return shared.ErrorInternal
	}

	s.events.NoteDeleted(userID, noteID)
	return nil
}
