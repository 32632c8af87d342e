package notes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/offnote/offnote/pkg/dbx"
	"github.com/offnote/offnote/pkg/models"
)

// SQLiteRepository implements Repository over a dbx.DBTX, so it can run
// against either the database or an open transaction.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const noteColumns = `id, title, content, plain_text, tags, is_pinned, is_archived, is_trashed,
	trashed_at, word_count, char_count, reading_time, created_at, updated_at`

func (r *SQLiteRepository) CreateOrUpdate(ctx context.Context, n *models.Note) error {
	tags, err := json.Marshal(models.NormalizeTagSet(n.Tags))
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	query := `INSERT INTO notes (` + noteColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			plain_text = excluded.plain_text,
			tags = excluded.tags,
			is_pinned = excluded.is_pinned,
			is_archived = excluded.is_archived,
			is_trashed = excluded.is_trashed,
			trashed_at = excluded.trashed_at,
			word_count = excluded.word_count,
			char_count = excluded.char_count,
			reading_time = excluded.reading_time,
			updated_at = excluded.updated_at
	`
	_, err = r.db.ExecContext(ctx, query,
		n.ID, n.Title, n.Content, n.PlainText, string(tags),
		n.IsPinned, n.IsArchived, n.IsTrashed, millisPtr(n.TrashedAt),
		n.Metadata.WordCount, n.Metadata.CharCount, n.Metadata.ReadingTime,
		n.CreatedAt.UnixMilli(), n.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to upsert note: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Note, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = ?`, id)
	n, err := scanNote(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get note: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.Note, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+noteColumns+` FROM notes ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to select notes: %w", err)
	}
	defer rows.Close()
	return collectNotes(rows)
}

func (r *SQLiteRepository) List(ctx context.Context, f Filter) ([]models.Note, error) {
	var where []string
	var args []any
	if !f.ShowTrashed {
		where = append(where, "is_trashed = 0")
	}
	if !f.ShowArchived {
		where = append(where, "is_archived = 0")
	}

	query := `SELECT ` + noteColumns + ` FROM notes`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY updated_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select notes: %w", err)
	}
	defer rows.Close()

	all, err := collectNotes(rows)
	if err != nil {
		return nil, err
	}

	// Tag membership and substring search are applied here; tags live in a
	// JSON column and the search spans two fields.
	tag := models.NormalizeTagName(f.Tag)
	search := strings.ToLower(f.Search)
	result := make([]models.Note, 0, len(all))
	for _, n := range all {
		if tag != "" && !n.HasTag(tag) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(n.Title), search) &&
			!strings.Contains(strings.ToLower(n.PlainText), search) {
			continue
		}
		result = append(result, n)
	}
	return result, nil
}

func (r *SQLiteRepository) DeleteByID(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ReplaceAll(ctx context.Context, ns []models.Note) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM notes`); err != nil {
		return fmt.Errorf("failed to clear notes: %w", err)
	}
	for i := range ns {
		if err := r.CreateOrUpdate(ctx, &ns[i]); err != nil {
			return err
		}
	}
	return nil
}

func millisPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}

func scanNote(scan func(dest ...any) error) (*models.Note, error) {
	var (
		n         models.Note
		tags      string
		trashedAt sql.NullInt64
		createdAt int64
		updatedAt int64
	)
	err := scan(&n.ID, &n.Title, &n.Content, &n.PlainText, &tags,
		&n.IsPinned, &n.IsArchived, &n.IsTrashed, &trashedAt,
		&n.Metadata.WordCount, &n.Metadata.CharCount, &n.Metadata.ReadingTime,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &n.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}
	if n.Tags == nil {
		n.Tags = []string{}
	}
	if trashedAt.Valid {
		t := time.UnixMilli(trashedAt.Int64).UTC()
		n.TrashedAt = &t
	}
	n.CreatedAt = time.UnixMilli(createdAt).UTC()
	n.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &n, nil
}

func collectNotes(rows *sql.Rows) ([]models.Note, error) {
	var result []models.Note
	for rows.Next() {
		n, err := scanNote(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note row: %w", err)
		}
		result = append(result, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate note rows: %w", err)
	}
	return result, nil
}
