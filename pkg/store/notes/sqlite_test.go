package notes

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/offnote/offnote/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE notes (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL DEFAULT '',
  content TEXT NOT NULL DEFAULT '',
  plain_text TEXT NOT NULL DEFAULT '',
  tags TEXT NOT NULL DEFAULT '[]',
  is_pinned INTEGER NOT NULL DEFAULT 0,
  is_archived INTEGER NOT NULL DEFAULT 0,
  is_trashed INTEGER NOT NULL DEFAULT 0,
  trashed_at INTEGER,
  word_count INTEGER NOT NULL DEFAULT 0,
  char_count INTEGER NOT NULL DEFAULT 0,
  reading_time INTEGER NOT NULL DEFAULT 0,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL
);
`)
	require.NoError(t, err)
	return db
}

func sampleNote(id string, updated time.Time) *models.Note {
	return &models.Note{
		ID:        id,
		Title:     "Title " + id,
		Content:   `{"doc":[]}`,
		PlainText: "some plain text",
		Tags:      []string{"work"},
		Metadata:  models.ComputeMetadata("some plain text"),
		CreatedAt: updated.Add(-time.Hour),
		UpdatedAt: updated,
	}
}

func TestCreateOrUpdate_InsertThenUpdate(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	n := sampleNote("n1", now)
	require.NoError(t, r.CreateOrUpdate(ctx, n))

	got, err := r.GetByID(ctx, "n1")
	require.NoError(t, err)
	assert.Equal(t, "Title n1", got.Title)
	assert.Equal(t, []string{"work"}, got.Tags)
	assert.Equal(t, now, got.UpdatedAt)

	n.Title = "Renamed"
	n.Tags = []string{"work", "Ideas"}
	require.NoError(t, r.CreateOrUpdate(ctx, n))

	got, err = r.GetByID(ctx, "n1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	// tag names are normalized on write
	assert.Equal(t, []string{"work", "ideas"}, got.Tags)
}

func TestGetByID_NotFound(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)

	_, err := r.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList_Filters(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	active := sampleNote("active", now)
	archived := sampleNote("archived", now.Add(-time.Minute))
	archived.IsArchived = true
	trashed := sampleNote("trashed", now.Add(-2*time.Minute))
	trashed.IsTrashed = true
	tagged := sampleNote("tagged", now.Add(-3*time.Minute))
	tagged.Tags = []string{"home"}
	tagged.PlainText = "the grocery list"

	for _, n := range []*models.Note{active, archived, trashed, tagged} {
		require.NoError(t, r.CreateOrUpdate(ctx, n))
	}

	got, err := r.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"active", "tagged"}, ids(got))

	got, err = r.List(ctx, Filter{ShowArchived: true, ShowTrashed: true})
	require.NoError(t, err)
	assert.Len(t, got, 4)

	got, err = r.List(ctx, Filter{Tag: "Home"})
	require.NoError(t, err)
	assert.Equal(t, []string{"tagged"}, ids(got))

	got, err = r.List(ctx, Filter{Search: "GROCERY"})
	require.NoError(t, err)
	assert.Equal(t, []string{"tagged"}, ids(got))
}

func TestReplaceAll(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, r.CreateOrUpdate(ctx, sampleNote("old1", now)))
	require.NoError(t, r.CreateOrUpdate(ctx, sampleNote("old2", now)))

	merged := []models.Note{*sampleNote("new1", now), *sampleNote("old1", now)}
	require.NoError(t, r.ReplaceAll(ctx, merged))

	got, err := r.GetAll(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"new1", "old1"}, ids(got))
}

func TestDeleteByID_MissingIsNoError(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	assert.NoError(t, r.DeleteByID(context.Background(), "missing"))
}

func TestGetAll_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT").WillReturnError(sql.ErrConnDone)

	r := NewSQLiteRepository(db)
	_, err = r.GetAll(context.Background())
	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func ids(ns []models.Note) []string {
	out := make([]string, 0, len(ns))
	for _, n := range ns {
		out = append(out, n.ID)
	}
	return out
}
