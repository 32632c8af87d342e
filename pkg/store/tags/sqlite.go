package tags

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/offnote/offnote/pkg/dbx"
	"github.com/offnote/offnote/pkg/models"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) GetByName(ctx context.Context, name string) (*models.Tag, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, color, note_count, created_at FROM tags WHERE name = ?`,
		models.NormalizeTagName(name))

	var t models.Tag
	var createdAt int64
	err := row.Scan(&t.ID, &t.Name, &t.Color, &t.NoteCount, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tag %q: %w", name, err)
	}
	t.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &t, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.Tag, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, color, note_count, created_at FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to select tags: %w", err)
	}
	defer rows.Close()

	var result []models.Tag
	for rows.Next() {
		var t models.Tag
		var createdAt int64
		if err := rows.Scan(&t.ID, &t.Name, &t.Color, &t.NoteCount, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan tag row: %w", err)
		}
		t.CreatedAt = time.UnixMilli(createdAt).UTC()
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tag rows: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Insert(ctx context.Context, t *models.Tag) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tags (id, name, color, note_count, created_at) VALUES (?, ?, ?, ?, ?)`,
		t.ID, models.NormalizeTagName(t.Name), t.Color, t.NoteCount, t.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert tag: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) SetCount(ctx context.Context, id string, count int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE tags SET note_count = ? WHERE id = ?`, count, id)
	if err != nil {
		return fmt.Errorf("failed to update tag count: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteByID(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM tags`); err != nil {
		return fmt.Errorf("failed to clear tags: %w", err)
	}
	return nil
}
