package notes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/offnote/offnote/internal/server/shared"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) (*PostgresRepository, error) {
	return &PostgresRepository{db: db}, nil
}

const noteColumns = `id, user_id, title, content, plain_text, tags, is_pinned,
	is_archived, is_trashed, trashed_at, metadata, created_at, updated_at, deleted_at`

func (r *PostgresRepository) ListSince(ctx context.Context, userID string, since *time.Time) ([]Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes
		 WHERE user_id = $1 AND deleted_at IS NULL`
	args := []any{userID}

	if since != nil {
		query += ` AND updated_at > $2`
		args = append(args, *since)
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}
	defer rows.Close()

	var out []Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %v", err)
	}

	return out, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE id = $1`

	n, err := scanNote(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.ErrorNotFound
		}
		return nil, err
	}

	return n, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, n *Note) error {
	query :=
		`INSERT INTO notes (id, user_id, title, content, plain_text, tags, is_pinned,
			is_archived, is_trashed, trashed_at, metadata, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 `

	tags, metadata, err := encodeJSONFields(n)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query,
		n.ID, n.UserID, n.Title, n.Content, n.PlainText, tags, n.IsPinned,
		n.IsArchived, n.IsTrashed, n.TrashedAt, metadata, n.CreatedAt, n.UpdatedAt)

	if err != nil {
		return fmt.Errorf("error performing sql request: %v", err)
	}

	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, n *Note) error {
	query :=
		`UPDATE notes
		 SET title = $2, content = $3, plain_text = $4, tags = $5, is_pinned = $6,
			 is_archived = $7, is_trashed = $8, trashed_at = $9, metadata = $10,
			 updated_at = $11, deleted_at = NULL
		 WHERE id = $1
		 `

	tags, metadata, err := encodeJSONFields(n)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, query,
		n.ID, n.Title, n.Content, n.PlainText, tags, n.IsPinned,
		n.IsArchived, n.IsTrashed, n.TrashedAt, metadata, n.UpdatedAt)

	if err != nil {
		return fmt.Errorf("error performing sql request: %v", err)
	}

	if count, err := res.RowsAffected(); err == nil && count == 0 {
		return shared.ErrorNotFound
	}

	return nil
}

func (r *PostgresRepository) SoftDelete(ctx context.Context, id, userID string, at time.Time) error {
	query :=
		`UPDATE notes SET deleted_at = $3, updated_at = $3
		 WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
		 `

	res, err := r.db.ExecContext(ctx, query, id, userID, at)
	if err != nil {
		return fmt.Errorf("error performing sql request: %v", err)
	}

	if count, err := res.RowsAffected(); err == nil && count == 0 {
		return shared.ErrorNotFound
	}

	return nil
}

func encodeJSONFields(n *Note) (tags, metadata []byte, err error) {
	t := n.Tags
	if t == nil {
		t = []string{}
	}
	tags, err = json.Marshal(t)
	if err != nil {
		return nil, nil, fmt.Errorf("error encoding tags: %v", err)
	}

	metadata = n.Metadata
	if len(metadata) == 0 {
		metadata = []byte("{}")
	}

	return tags, metadata, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (*Note, error) {
	var (
		n       Note
		tagsRaw []byte
	)

	err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.PlainText, &tagsRaw,
		&n.IsPinned, &n.IsArchived, &n.IsTrashed, &n.TrashedAt, &n.Metadata,
		&n.CreatedAt, &n.UpdatedAt, &n.DeletedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("error scanning row: %v", err)
	}

	if len(tagsRaw) > 0 {
		if err := json.Unmarshal(tagsRaw, &n.Tags); err != nil {
			return nil, fmt.Errorf("error decoding tags: %v", err)
		}
	}

	return &n, nil
}
