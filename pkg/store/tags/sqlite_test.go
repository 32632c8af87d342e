package tags

import (
	"context"
	"database/sql"
	"testing"
	"time"

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
CREATE TABLE tags (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  color TEXT NOT NULL,
  note_count INTEGER NOT NULL DEFAULT 0,
  created_at INTEGER NOT NULL
);
`)
	require.NoError(t, err)
	return db
}

func TestInsertAndGetByName(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	tag := &models.Tag{
		ID:        "t1",
		Name:      "Work",
		Color:     models.DefaultTagColor,
		NoteCount: 1,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, r.Insert(ctx, tag))

	// lookups normalize the name
	got, err := r.GetByName(ctx, "  WORK ")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "work", got.Name)
	assert.Equal(t, 1, got.NoteCount)
}

func TestGetByName_Missing(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)

	got, err := r.GetByName(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSetCount(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Insert(ctx, &models.Tag{ID: "t1", Name: "work", Color: "#fff", NoteCount: 1, CreatedAt: time.Now()}))
	require.NoError(t, r.SetCount(ctx, "t1", 5))

	got, err := r.GetByName(ctx, "work")
	require.NoError(t, err)
	assert.Equal(t, 5, got.NoteCount)

	assert.ErrorIs(t, r.SetCount(ctx, "missing", 1), ErrNotFound)
}

func TestDeleteAndClear(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Insert(ctx, &models.Tag{ID: "t1", Name: "a", Color: "#fff", CreatedAt: time.Now()}))
	require.NoError(t, r.Insert(ctx, &models.Tag{ID: "t2", Name: "b", Color: "#fff", CreatedAt: time.Now()}))

	require.NoError(t, r.DeleteByID(ctx, "t1"))
	list, err := r.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, r.Clear(ctx))
	list, err = r.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
