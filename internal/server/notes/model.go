package notes

import (
	"encoding/json"
	"time"
)

// Note is the server-side note row. Tags and Metadata are stored as jsonb;
// Metadata travels opaque, the server never interprets it. DeletedAt is the
// soft-delete marker: deleted rows stay for tombstone queries but are
// excluded from fetches.
type Note struct {
	ID         string
	UserID     string
	Title      string
	Content    string
	PlainText  string
	Tags       []string
	IsPinned   bool
	IsArchived bool
	IsTrashed  bool
	TrashedAt  *time.Time
	Metadata   json.RawMessage
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  *time.Time
}
