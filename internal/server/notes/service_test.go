package notes

import (
	"context"
	"testing"
	"time"

	"github.com/offnote/offnote/internal/server/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	notes map[string]*Note
}

func newFakeRepo() *fakeRepo { return &fakeRepo{notes: map[string]*Note{}} }

func (f *fakeRepo) ListSince(_ context.Context, userID string, since *time.Time) ([]Note, error) {
	var out []Note
	for _, n := range f.notes {
		if n.UserID != userID || n.DeletedAt != nil {
			continue
		}
		if since != nil && !n.UpdatedAt.After(*since) {
			continue
		}
		out = append(out, *n)
	}
	return out, nil
}

func (f *fakeRepo) Get(_ context.Context, id string) (*Note, error) {
	n, ok := f.notes[id]
	if !ok {
		return nil, shared.ErrorNotFound
	}
	cp := *n
	return &cp, nil
}

func (f *fakeRepo) Insert(_ context.Context, n *Note) error {
	cp := *n
	f.notes[n.ID] = &cp
	return nil
}

func (f *fakeRepo) Update(_ context.Context, n *Note) error {
	if _, ok := f.notes[n.ID]; !ok {
		return shared.ErrorNotFound
	}
	cp := *n
	cp.DeletedAt = nil
	f.notes[n.ID] = &cp
	return nil
}

func (f *fakeRepo) SoftDelete(_ context.Context, id, userID string, at time.Time) error {
	n, ok := f.notes[id]
	if !ok || n.UserID != userID || n.DeletedAt != nil {
		return shared.ErrorNotFound
	}
	n.DeletedAt = &at
	n.UpdatedAt = at
	return nil
}

type recordingPublisher struct {
	upserts []string
	creates int
	deletes []string
}

func (r *recordingPublisher) NoteUpserted(_ string, n Note, created bool) {
	r.upserts = append(r.upserts, n.ID)
	if created {
		r.creates++
	}
}

func (r *recordingPublisher) NoteDeleted(_ string, noteID string) {
	r.deletes = append(r.deletes, noteID)
}

func TestUpsert_InsertThenUpdate(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	pub := &recordingPublisher{}
	svc := NewService(repo, pub)

	n := &Note{ID: "n1", Title: "first"}
	got, err := svc.Upsert(ctx, "u1", n)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.False(t, got.CreatedAt.IsZero())

	createdAt := got.CreatedAt
	_, err = svc.Upsert(ctx, "u1", &Note{ID: "n1", Title: "second", UpdatedAt: time.Now().UTC()})
	require.NoError(t, err)

	stored, err := repo.Get(ctx, "n1")
	require.NoError(t, err)
	assert.Equal(t, "second", stored.Title)
	assert.True(t, createdAt.Equal(stored.CreatedAt), "creation time must survive replacement")

	assert.Equal(t, []string{"n1", "n1"}, pub.upserts)
	assert.Equal(t, 1, pub.creates)
}

func TestUpsert_ForeignNoteForbidden(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := NewService(repo, nil)

	_, err := svc.Upsert(ctx, "owner", &Note{ID: "n1", Title: "mine"})
	require.NoError(t, err)

	_, err = svc.Upsert(ctx, "intruder", &Note{ID: "n1", Title: "stolen"})
	assert.ErrorIs(t, err, shared.ErrorForbidden)

	stored, err := repo.Get(ctx, "n1")
	require.NoError(t, err)
	assert.Equal(t, "mine", stored.Title)
	assert.Equal(t, "owner", stored.UserID)
}

func TestUpsert_MissingIDRejected(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)
	_, err := svc.Upsert(context.Background(), "u1", &Note{})
	assert.ErrorIs(t, err, shared.ErrorValidation)
}

func TestDelete_SoftDeletesAndReplaysSafely(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	pub := &recordingPublisher{}
	svc := NewService(repo, pub)

	_, err := svc.Upsert(ctx, "u1", &Note{ID: "n1", Title: "bye"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "u1", "n1"))
	// Replays and deletes of unknown ids are no-ops.
	require.NoError(t, svc.Delete(ctx, "u1", "n1"))
	require.NoError(t, svc.Delete(ctx, "u1", "never-existed"))

	assert.Equal(t, []string{"n1"}, pub.deletes)

	list, err := svc.List(ctx, "u1", nil)
	require.NoError(t, err)
	assert.Empty(t, list, "soft-deleted notes are excluded from fetches")
}

func TestList_SinceFilter(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := NewService(repo, nil)

	old := &Note{ID: "old", UpdatedAt: time.Now().Add(-time.Hour).UTC()}
	fresh := &Note{ID: "fresh", UpdatedAt: time.Now().UTC()}
	_, err := svc.Upsert(ctx, "u1", old)
	require.NoError(t, err)
	_, err = svc.Upsert(ctx, "u1", fresh)
	require.NoError(t, err)

	cutoff := time.Now().Add(-time.Minute)
	list, err := svc.List(ctx, "u1", &cutoff)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "fresh", list[0].ID)
}
