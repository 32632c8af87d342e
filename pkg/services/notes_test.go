package services

import (
	"context"
	"sync"
	"testing"

	"github.com/offnote/offnote/pkg/logging"
	"github.com/offnote/offnote/pkg/store"
	"github.com/offnote/offnote/pkg/store/notes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu       sync.Mutex
	upserted []string
	deleted  []string
}

func (r *recordingNotifier) NoteUpserted(_ context.Context, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserted = append(r.upserted, id)
}

func (r *recordingNotifier) NoteDeleted(_ context.Context, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, id)
}

func setupService(t *testing.T) (*NoteService, *store.Store, *recordingNotifier) {
	t.Helper()
	st, err := store.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	notifier := &recordingNotifier{}
	svc := NewNoteService(st.DB, logging.NewNop(), notifier)
	return svc, st, notifier
}

func tagCount(t *testing.T, st *store.Store, name string) int {
	t.Helper()
	tag, err := st.Tags.GetByName(context.Background(), name)
	require.NoError(t, err)
	if tag == nil {
		return 0
	}
	return tag.NoteCount
}

func TestCreate_DerivesMetadataAndTags(t *testing.T) {
	svc, st, notifier := setupService(t)
	ctx := context.Background()

	n, err := svc.Create(ctx, CreateInput{
		Title:     "",
		Content:   `{"doc":[]}`,
		PlainText: "hello world from a test",
		Tags:      []string{"Work", "work", "ideas"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Untitled", n.Title)
	assert.Equal(t, []string{"work", "ideas"}, n.Tags)
	assert.Equal(t, 5, n.Metadata.WordCount)
	assert.Equal(t, 1, n.Metadata.ReadingTime)
	assert.Equal(t, n.CreatedAt, n.UpdatedAt)

	assert.Equal(t, 1, tagCount(t, st, "work"))
	assert.Equal(t, 1, tagCount(t, st, "ideas"))
	assert.Equal(t, []string{n.ID}, notifier.upserted)
}

func TestUpdate_TagChangeAdjustsLedger(t *testing.T) {
	svc, st, _ := setupService(t)
	ctx := context.Background()

	n, err := svc.Create(ctx, CreateInput{Title: "a", PlainText: "x", Tags: []string{"work", "ideas"}})
	require.NoError(t, err)

	newTags := []string{"work", "home"}
	updated, err := svc.Update(ctx, n.ID, UpdateInput{Tags: &newTags})
	require.NoError(t, err)

	assert.Equal(t, []string{"work", "home"}, updated.Tags)
	assert.True(t, updated.UpdatedAt.After(n.CreatedAt) || updated.UpdatedAt.Equal(n.CreatedAt))
	assert.Equal(t, 1, tagCount(t, st, "work"))
	assert.Equal(t, 1, tagCount(t, st, "home"))
	assert.Equal(t, 0, tagCount(t, st, "ideas"))
}

func TestUpdate_RecomputesMetadata(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	n, err := svc.Create(ctx, CreateInput{Title: "a", PlainText: "one two"})
	require.NoError(t, err)

	text := "one two three four"
	updated, err := svc.Update(ctx, n.ID, UpdateInput{PlainText: &text})
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Metadata.WordCount)
}

func TestUpdate_Missing(t *testing.T) {
	svc, _, _ := setupService(t)
	_, err := svc.Update(context.Background(), "missing", UpdateInput{})
	assert.ErrorIs(t, err, notes.ErrNotFound)
}

func TestTrash_KeepsTagCounts(t *testing.T) {
	svc, st, _ := setupService(t)
	ctx := context.Background()

	n, err := svc.Create(ctx, CreateInput{Title: "a", PlainText: "x", Tags: []string{"work"}})
	require.NoError(t, err)

	require.NoError(t, svc.Trash(ctx, n.ID))
	got, err := svc.Get(ctx, n.ID)
	require.NoError(t, err)
	assert.True(t, got.IsTrashed)
	require.NotNil(t, got.TrashedAt)
	assert.Equal(t, 1, tagCount(t, st, "work"))

	// trashed notes vanish from the default listing
	list, err := svc.List(ctx, notes.Filter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, svc.Restore(ctx, n.ID))
	got, err = svc.Get(ctx, n.ID)
	require.NoError(t, err)
	assert.False(t, got.IsTrashed)
	assert.Nil(t, got.TrashedAt)
}

func TestDelete_ReleasesTagCounts(t *testing.T) {
	svc, st, notifier := setupService(t)
	ctx := context.Background()

	n, err := svc.Create(ctx, CreateInput{Title: "a", PlainText: "x", Tags: []string{"work"}})
	require.NoError(t, err)

	require.NoError(t, svc.Trash(ctx, n.ID))
	assert.Equal(t, 1, tagCount(t, st, "work"))

	require.NoError(t, svc.Delete(ctx, n.ID))
	assert.Equal(t, 0, tagCount(t, st, "work"))
	assert.Equal(t, []string{n.ID}, notifier.deleted)

	_, err = svc.Get(ctx, n.ID)
	assert.ErrorIs(t, err, notes.ErrNotFound)
}

func TestDelete_MissingIsNoError(t *testing.T) {
	svc, _, _ := setupService(t)
	assert.NoError(t, svc.Delete(context.Background(), "missing"))
}

func TestTogglePin(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	n, err := svc.Create(ctx, CreateInput{Title: "a", PlainText: "x"})
	require.NoError(t, err)

	require.NoError(t, svc.TogglePin(ctx, n.ID))
	got, err := svc.Get(ctx, n.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPinned)
}

func TestTagInvariant_OverOperationSequence(t *testing.T) {
	svc, st, _ := setupService(t)
	ctx := context.Background()

	verify := func() {
		t.Helper()
		all, err := notes.NewSQLiteRepository(st.DB).GetAll(ctx)
		require.NoError(t, err)
		want := map[string]int{}
		for _, n := range all {
			for _, tag := range n.Tags {
				want[tag]++
			}
		}
		list, err := st.Tags.List(ctx)
		require.NoError(t, err)
		got := map[string]int{}
		for _, tag := range list {
			got[tag.Name] = tag.NoteCount
		}
		assert.Equal(t, want, got)
	}

	a, err := svc.Create(ctx, CreateInput{Title: "a", PlainText: "x", Tags: []string{"work", "ideas"}})
	require.NoError(t, err)
	verify()

	b, err := svc.Create(ctx, CreateInput{Title: "b", PlainText: "x", Tags: []string{"work"}})
	require.NoError(t, err)
	verify()

	newTags := []string{"home"}
	_, err = svc.Update(ctx, a.ID, UpdateInput{Tags: &newTags})
	require.NoError(t, err)
	verify()

	require.NoError(t, svc.Trash(ctx, b.ID))
	verify()

	require.NoError(t, svc.Delete(ctx, b.ID))
	verify()

	require.NoError(t, svc.Delete(ctx, a.ID))
	verify()

	list, err := st.Tags.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestNoteAndLedgerShareTransaction(t *testing.T) {
	svc, st, _ := setupService(t)
	ctx := context.Background()

	// force a ledger failure by pre-inserting a conflicting tag row with a
	// duplicate name is not possible (name is the key), so verify instead
	// that a failed update leaves counts unchanged.
	n, err := svc.Create(ctx, CreateInput{Title: "a", PlainText: "x", Tags: []string{"work"}})
	require.NoError(t, err)

	_, err = svc.Update(ctx, "missing", UpdateInput{})
	require.Error(t, err)

	assert.Equal(t, 1, tagCount(t, st, "work"))
	got, err := svc.Get(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"work"}, got.Tags)
}
