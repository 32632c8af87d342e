package remote

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/offnote/offnote/pkg/models"
)

// noteRecord is the wire shape of a note. Top-level fields are snake_case;
// the metadata blob keeps its own camelCase keys and travels opaque to the
// server. Timestamps are RFC 3339.
type noteRecord struct {
	ID         string        `json:"id"`
	UserID     string        `json:"user_id,omitempty"`
	Title      string        `json:"title"`
	Content    string        `json:"content"`
	PlainText  string        `json:"plain_text"`
	Tags       []string      `json:"tags"`
	IsPinned   bool          `json:"is_pinned"`
	IsArchived bool          `json:"is_archived"`
	IsTrashed  bool          `json:"is_trashed"`
	TrashedAt  *string       `json:"trashed_at,omitempty"`
	Metadata   *wireMetadata `json:"metadata,omitempty"`
	CreatedAt  string        `json:"created_at"`
	UpdatedAt  string        `json:"updated_at"`
	DeletedAt  *string       `json:"deleted_at,omitempty"`
}

type wireMetadata struct {
	WordCount   int `json:"wordCount"`
	CharCount   int `json:"charCount"`
	ReadingTime int `json:"readingTime"`
}

// changeEvent is the envelope pushed over the change feed. Insert and update
// carry the full record; delete carries only the id.
type changeEvent struct {
	Type   string          `json:"type"`
	ID     string          `json:"id,omitempty"`
	Record json.RawMessage `json:"record,omitempty"`
}

const (
	eventInsert = "insert"
	eventUpdate = "update"
	eventDelete = "delete"
)

func encodeNote(userID string, n models.Note) noteRecord {
	r := noteRecord{
		ID:         n.ID,
		UserID:     userID,
		Title:      n.Title,
		Content:    n.Content,
		PlainText:  n.PlainText,
		Tags:       n.Tags,
		IsPinned:   n.IsPinned,
		IsArchived: n.IsArchived,
		IsTrashed:  n.IsTrashed,
		Metadata: &wireMetadata{
			WordCount:   n.Metadata.WordCount,
			CharCount:   n.Metadata.CharCount,
			ReadingTime: n.Metadata.ReadingTime,
		},
		CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: n.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
	if n.TrashedAt != nil {
		s := n.TrashedAt.UTC().Format(time.RFC3339Nano)
		r.TrashedAt = &s
	}
	return r
}

// decodeNote maps a wire record to the local model, defaulting what older or
// partial records may omit: nil tags become an empty set, a missing metadata
// blob is recomputed from the text, and a missing updated_at falls back to
// created_at.
func decodeNote(r noteRecord) (models.Note, error) {
	if r.ID == "" {
		return models.Note{}, fmt.Errorf("%w: record has no id", ErrMalformedPayload)
	}

	createdAt, err := parseWireTime(r.CreatedAt)
	if err != nil {
		return models.Note{}, fmt.Errorf("%w: bad created_at %q", ErrMalformedPayload, r.CreatedAt)
	}

	updatedAt := createdAt
	if r.UpdatedAt != "" {
		updatedAt, err = parseWireTime(r.UpdatedAt)
		if err != nil {
			return models.Note{}, fmt.Errorf("%w: bad updated_at %q", ErrMalformedPayload, r.UpdatedAt)
		}
	}

	n := models.Note{
		ID:         r.ID,
		Title:      r.Title,
		Content:    r.Content,
		PlainText:  r.PlainText,
		Tags:       models.NormalizeTagSet(r.Tags),
		IsPinned:   r.IsPinned,
		IsArchived: r.IsArchived,
		IsTrashed:  r.IsTrashed,
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
	}

	if r.TrashedAt != nil && *r.TrashedAt != "" {
		t, err := parseWireTime(*r.TrashedAt)
		if err != nil {
			return models.Note{}, fmt.Errorf("%w: bad trashed_at %q", ErrMalformedPayload, *r.TrashedAt)
		}
		n.TrashedAt = &t
	}

	if r.Metadata != nil {
		n.Metadata = models.NoteMetadata{
			WordCount:   r.Metadata.WordCount,
			CharCount:   r.Metadata.CharCount,
			ReadingTime: r.Metadata.ReadingTime,
		}
	} else {
		n.Metadata = models.ComputeMetadata(n.PlainText)
	}

	return n, nil
}

func parseWireTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
