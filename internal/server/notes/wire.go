package notes

import (
	"encoding/json"
	"time"
)

// WireNote is the JSON shape notes take on the wire, shared by the REST
// handlers and the change feed. Top-level fields are snake_case; the
// metadata blob passes through untouched.
type WireNote struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id,omitempty"`
	Title      string          `json:"title"`
	Content    string          `json:"content"`
	PlainText  string          `json:"plain_text"`
	Tags       []string        `json:"tags"`
	IsPinned   bool            `json:"is_pinned"`
	IsArchived bool            `json:"is_archived"`
	IsTrashed  bool            `json:"is_trashed"`
	TrashedAt  *string         `json:"trashed_at,omitempty"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	CreatedAt  string          `json:"created_at"`
	UpdatedAt  string          `json:"updated_at"`
}

// ChangeEvent is the envelope pushed over the change feed. Insert and update
// carry the full record; delete carries only the id.
type ChangeEvent struct {
	Type   string    `json:"type"`
	ID     string    `json:"id,omitempty"`
	Record *WireNote `json:"record,omitempty"`
}

const (
	EventInsert = "insert"
	EventUpdate = "update"
	EventDelete = "delete"
)

// ToWire converts a stored note to its wire shape.
func ToWire(n Note) WireNote {
	w := WireNote{
		ID:         n.ID,
		UserID:     n.UserID,
		Title:      n.Title,
		Content:    n.Content,
		PlainText:  n.PlainText,
		Tags:       n.Tags,
		IsPinned:   n.IsPinned,
		IsArchived: n.IsArchived,
		IsTrashed:  n.IsTrashed,
		Metadata:   n.Metadata,
		CreatedAt:  n.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:  n.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if w.Tags == nil {
		w.Tags = []string{}
	}
	if n.TrashedAt != nil {
		s := n.TrashedAt.UTC().Format(time.RFC3339Nano)
		w.TrashedAt = &s
	}
	return w
}

// FromWire converts an inbound record to the stored shape. Zero timestamps
// are left for the service to default.
func FromWire(w WireNote) (Note, error) {
	n := Note{
		ID:         w.ID,
		Title:      w.Title,
		Content:    w.Content,
		PlainText:  w.PlainText,
		Tags:       w.Tags,
		IsPinned:   w.IsPinned,
		IsArchived: w.IsArchived,
		IsTrashed:  w.IsTrashed,
		Metadata:   w.Metadata,
	}

	var err error
	if w.CreatedAt != "" {
		if n.CreatedAt, err = time.Parse(time.RFC3339Nano, w.CreatedAt); err != nil {
			return Note{}, err
		}
	}
	if w.UpdatedAt != "" {
		if n.UpdatedAt, err = time.Parse(time.RFC3339Nano, w.UpdatedAt); err != nil {
			return Note{}, err
		}
	}
	if w.TrashedAt != nil && *w.TrashedAt != "" {
		t, err := time.Parse(time.RFC3339Nano, *w.TrashedAt)
		if err != nil {
			return Note{}, err
		}
		n.TrashedAt = &t
	}

	return n, nil
}
