// Package services contains the application-facing note operations. Every
// mutation recomputes derived metadata, keeps the tag ledger consistent in
// the same transaction, and reports the change to the sync layer.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/offnote/offnote/pkg/dbx"
	"github.com/offnote/offnote/pkg/ledger"
	"github.com/offnote/offnote/pkg/logging"
	"github.com/offnote/offnote/pkg/models"
	"github.com/offnote/offnote/pkg/store/notes"
	"github.com/offnote/offnote/pkg/store/tags"
)

// Notifier receives local mutations the sync layer should push out. The sync
// engine implements it; NopNotifier serves purely local setups.
type Notifier interface {
	// NoteUpserted marks a note as created or changed locally.
	NoteUpserted(ctx context.Context, noteID string)

	// NoteDeleted marks a note as permanently deleted locally.
	NoteDeleted(ctx context.Context, noteID string)
}

// NopNotifier ignores all notifications.
type NopNotifier struct{}

func (NopNotifier) NoteUpserted(context.Context, string) {}
func (NopNotifier) NoteDeleted(context.Context, string)  {}

// CreateInput carries the authored fields of a new note.
type CreateInput struct {
	Title     string
	Content   string
	PlainText string
	Tags      []string
}

// UpdateInput is a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Title      *string
	Content    *string
	PlainText  *string
	Tags       *[]string
	IsPinned   *bool
	IsArchived *bool
}

// NoteService implements note CRUD over the local store.
type NoteService struct {
	db     *sql.DB
	log    logging.Logger
	notify Notifier
	now    func() time.Time
}

func NewNoteService(db *sql.DB, log logging.Logger, notify Notifier) *NoteService {
	if notify == nil {
		notify = NopNotifier{}
	}
	return &NoteService{db: db, log: log, notify: notify, now: time.Now}
}

// Create stores a new note and registers its tags.
func (s *NoteService) Create(ctx context.Context, in CreateInput) (*models.Note, error) {
	now := s.now().UTC()
	title := in.Title
	if title == "" {
		title = models.DefaultTitle
	}

	n := &models.Note{
		ID:        uuid.NewString(),
		Title:     title,
		Content:   in.Content,
		PlainText: in.PlainText,
		Tags:      models.NormalizeTagSet(in.Tags),
		Metadata:  models.ComputeMetadata(in.PlainText),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := notes.NewSQLiteRepository(tx).CreateOrUpdate(ctx, n); err != nil {
			return err
		}
		return ledger.New(tags.NewSQLiteRepository(tx)).NoteCreated(ctx, n.Tags)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}

	s.notify.NoteUpserted(ctx, n.ID)
	return n, nil
}

// Update applies a partial update, bumping UpdatedAt and adjusting tag counts
// when the tag set changed.
func (s *NoteService) Update(ctx context.Context, id string, in UpdateInput) (*models.Note, error) {
	var updated *models.Note

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := notes.NewSQLiteRepository(tx)
		n, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		oldTags := n.Tags
		if in.Title != nil {
			n.Title = *in.Title
		}
		if in.Content != nil {
			n.Content = *in.Content
		}
		if in.PlainText != nil {
			n.PlainText = *in.PlainText
			n.Metadata = models.ComputeMetadata(n.PlainText)
		}
		if in.Tags != nil {
			n.Tags = models.NormalizeTagSet(*in.Tags)
		}
		if in.IsPinned != nil {
			n.IsPinned = *in.IsPinned
		}
		if in.IsArchived != nil {
			n.IsArchived = *in.IsArchived
		}
		n.Touch(s.now())

		if err := repo.CreateOrUpdate(ctx, n); err != nil {
			return err
		}
		if in.Tags != nil {
			if err := ledger.New(tags.NewSQLiteRepository(tx)).Apply(ctx, oldTags, n.Tags); err != nil {
				return err
			}
		}
		updated = n
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update note: %w", err)
	}

	s.notify.NoteUpserted(ctx, id)
	return updated, nil
}

// Trash soft-deletes a note. Tag counts are intentionally untouched; a
// trashed note still counts toward its tags.
func (s *NoteService) Trash(ctx context.Context, id string) error {
	return s.setTrashed(ctx, id, true)
}

// Restore brings a note back from the trash.
func (s *NoteService) Restore(ctx context.Context, id string) error {
	return s.setTrashed(ctx, id, false)
}

func (s *NoteService) setTrashed(ctx context.Context, id string, trashed bool) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := notes.NewSQLiteRepository(tx)
		n, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		n.IsTrashed = trashed
		if trashed {
			at := s.now().UTC()
			n.TrashedAt = &at
		} else {
			n.TrashedAt = nil
		}
		n.Touch(s.now())
		return repo.CreateOrUpdate(ctx, n)
	})
	if err != nil {
		return fmt.Errorf("failed to set trashed=%v: %w", trashed, err)
	}

	s.notify.NoteUpserted(ctx, id)
	return nil
}

// Delete removes a note permanently and releases its tag counts.
func (s *NoteService) Delete(ctx context.Context, id string) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := notes.NewSQLiteRepository(tx)
		n, err := repo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, notes.ErrNotFound) {
				return nil
			}
			return err
		}
		if err := repo.DeleteByID(ctx, id); err != nil {
			return err
		}
		return ledger.New(tags.NewSQLiteRepository(tx)).NoteDeleted(ctx, n.Tags)
	})
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}

	s.notify.NoteDeleted(ctx, id)
	return nil
}

// TogglePin flips the pinned flag.
func (s *NoteService) TogglePin(ctx context.Context, id string) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := notes.NewSQLiteRepository(tx)
		n, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		n.IsPinned = !n.IsPinned
		n.Touch(s.now())
		return repo.CreateOrUpdate(ctx, n)
	})
	if err != nil {
		return fmt.Errorf("failed to toggle pin: %w", err)
	}

	s.notify.NoteUpserted(ctx, id)
	return nil
}

// Get returns a single note.
func (s *NoteService) Get(ctx context.Context, id string) (*models.Note, error) {
	return notes.NewSQLiteRepository(s.db).GetByID(ctx, id)
}

// List returns notes matching the filter, newest updated first.
func (s *NoteService) List(ctx context.Context, f notes.Filter) ([]models.Note, error) {
	return notes.NewSQLiteRepository(s.db).List(ctx, f)
}

// Tags returns all tags with their usage counts.
func (s *NoteService) Tags(ctx context.Context) ([]models.Tag, error) {
	return tags.NewSQLiteRepository(s.db).List(ctx)
}
