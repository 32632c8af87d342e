package queue

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

// Enqueue upserts by note id. The enqueued_at bump is what moves a
// re-enqueued note to the tail; ordering reads sort by it.
func (r *SQLiteRepository) Enqueue(ctx context.Context, noteID string, op models.SyncOp, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sync_queue (note_id, op, enqueued_at) VALUES (?, ?, ?)
		ON CONFLICT(note_id) DO UPDATE SET op = excluded.op, enqueued_at = excluded.enqueued_at
	`, noteID, string(op), at.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to enqueue %s for note %s: %w", op, noteID, err)
	}
	return nil
}

func (r *SQLiteRepository) Next(ctx context.Context) (*models.QueueItem, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT note_id, op, enqueued_at FROM sync_queue ORDER BY enqueued_at, rowid LIMIT 1`)

	item, err := scanItem(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read queue head: %w", err)
	}
	return item, nil
}

// Remove deletes the item only if it still carries the given enqueue
// timestamp; a re-enqueue in the meantime leaves the newer item in place.
func (r *SQLiteRepository) Remove(ctx context.Context, noteID string, enqueuedAt time.Time) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM sync_queue WHERE note_id = ? AND enqueued_at = ?`,
		noteID, enqueuedAt.UnixNano()); err != nil {
		return fmt.Errorf("failed to remove queue item: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Items(ctx context.Context) ([]models.QueueItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT note_id, op, enqueued_at FROM sync_queue ORDER BY enqueued_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to select queue items: %w", err)
	}
	defer rows.Close()

	var result []models.QueueItem
	for rows.Next() {
		item, err := scanItem(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan queue row: %w", err)
		}
		result = append(result, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate queue rows: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Len(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sync_queue`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count queue items: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sync_queue`); err != nil {
		return fmt.Errorf("failed to clear queue: %w", err)
	}
	return nil
}

func scanItem(scan func(dest ...any) error) (*models.QueueItem, error) {
	var (
		item models.QueueItem
		op   string
		at   int64
	)
	if err := scan(&item.NoteID, &op, &at); err != nil {
		return nil, err
	}
	item.Op = models.SyncOp(op)
	item.EnqueuedAt = time.Unix(0, at).UTC()
	return &item, nil
}
