// Package models defines the client-side data model shared by the local
// store, the sync engine, and the remote gateway.
package models

import (
	"slices"
	"strings"
	"time"
)

// DefaultTitle is shown for notes saved without a title.
const DefaultTitle = "Untitled"

// NoteMetadata holds values derived from the plain-text projection of a note.
// It is recomputed on every content change, never authored directly.
type NoteMetadata struct {
	// WordCount is the number of whitespace-separated words in PlainText.
	WordCount int

	// CharCount is the number of characters in PlainText.
	CharCount int

	// ReadingTime is the estimated reading time in minutes.
	ReadingTime int
}

// Note is a user-authored document persisted locally and synchronized with
// the remote store. UpdatedAt drives last-writer-wins conflict resolution and
// must be bumped on every mutation.
type Note struct {
	// ID is a globally unique identifier, stable across local and remote.
	ID string

	// Title may be empty; use DisplayTitle for presentation.
	Title string

	// Content is the serialized rich document.
	Content string

	// PlainText is the derived plain-text projection used for search and
	// metadata computation.
	PlainText string

	// Tags holds case-normalized tag names. Order is not significant.
	Tags []string

	IsPinned   bool
	IsArchived bool

	// IsTrashed marks a soft-deleted note. Trashed notes keep counting
	// toward their tags until permanently deleted.
	IsTrashed bool

	// TrashedAt is set only while IsTrashed is true.
	TrashedAt *time.Time

	Metadata NoteMetadata

	// CreatedAt is immutable after creation. UTC.
	CreatedAt time.Time

	// UpdatedAt is the last modification time in UTC.
	UpdatedAt time.Time
}

// DisplayTitle returns the title or the "Untitled" placeholder.
func (n *Note) DisplayTitle() string {
	if strings.TrimSpace(n.Title) == "" {
		return DefaultTitle
	}
	return n.Title
}

// HasTag reports whether the note carries the given tag, comparing by the
// normalized name.
func (n *Note) HasTag(name string) bool {
	return slices.Contains(n.Tags, NormalizeTagName(name))
}

// Touch bumps UpdatedAt to now (UTC).
func (n *Note) Touch(now time.Time) {
	n.UpdatedAt = now.UTC()
}
