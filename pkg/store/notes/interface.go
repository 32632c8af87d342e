package notes

import (
	"context"
	"errors"

	"github.com/offnote/offnote/pkg/models"
)

// ErrNotFound is returned when no note exists with the requested id.
var ErrNotFound = errors.New("note not found")

// Filter selects notes for listing. Zero value lists all active notes.
// Trashed and archived notes are excluded unless explicitly requested,
// matching the application's visibility rules.
type Filter struct {
	// Tag restricts the result to notes carrying this tag (normalized).
	Tag string

	// Search is a case-insensitive substring match over title and plain text.
	Search string

	ShowArchived bool
	ShowTrashed  bool
}

// Repository describes the local note collection. Single-record operations
// are atomic; cross-record invariants (tag counts) are the caller's job.
type Repository interface {
	// GetByID returns a note or ErrNotFound.
	GetByID(ctx context.Context, id string) (*models.Note, error)

	// GetAll returns every stored note, including trashed and archived ones.
	GetAll(ctx context.Context) ([]models.Note, error)

	// List returns notes matching the filter, newest updated first.
	List(ctx context.Context, f Filter) ([]models.Note, error)

	// CreateOrUpdate inserts a new note or replaces the stored row by id.
	CreateOrUpdate(ctx context.Context, n *models.Note) error

	// DeleteByID removes a note permanently. Missing ids are not an error.
	DeleteByID(ctx context.Context, id string) error

	// ReplaceAll swaps the entire collection for the given set. Used by the
	// reconciliation pass so the UI observes a single update.
	ReplaceAll(ctx context.Context, ns []models.Note) error
}
