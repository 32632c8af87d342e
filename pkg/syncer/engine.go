// Package syncer reconciles the local note store against the remote gateway:
// an initial last-writer-wins merge per session, a debounced single-flight
// drain of the outbound queue, and inbound realtime event application.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/offnote/offnote/pkg/dbx"
	"github.com/offnote/offnote/pkg/ledger"
	"github.com/offnote/offnote/pkg/logging"
	"github.com/offnote/offnote/pkg/models"
	"github.com/offnote/offnote/pkg/remote"
	"github.com/offnote/offnote/pkg/store"
	"github.com/offnote/offnote/pkg/store/metadata"
	"github.com/offnote/offnote/pkg/store/notes"
	"github.com/offnote/offnote/pkg/store/queue"
	"github.com/offnote/offnote/pkg/store/tags"
)

// Config tunes the engine. Zero values fall back to the defaults below.
type Config struct {
	// DebounceInterval is the quiescence window before a drain runs.
	DebounceInterval time.Duration

	// OnlineCheckInterval is how often the online probe runs. Zero disables
	// the monitor.
	OnlineCheckInterval time.Duration

	// OnlineProbe reports remote reachability for the online indicator.
	OnlineProbe func(ctx context.Context) bool
}

const defaultDebounceInterval = time.Second

// Engine owns the sync session. Reconciliation and draining share one
// non-reentrant lock; a trigger that arrives while a pass is in flight is
// dropped, not queued.
type Engine struct {
	st  *store.Store
	gw  remote.Gateway
	log logging.Logger
	cfg Config

	state  *State
	flight sync.Mutex
	deb    *Debouncer

	mu      sync.Mutex
	userID  string
	sub     remote.Subscription
	monitor context.CancelFunc

	now func() time.Time
}

func New(st *store.Store, gw remote.Gateway, log logging.Logger, cfg Config) *Engine {
	if cfg.DebounceInterval <= 0 {
		cfg.DebounceInterval = defaultDebounceInterval
	}
	e := &Engine{
		st:    st,
		gw:    gw,
		log:   log.With("component", "syncer"),
		cfg:   cfg,
		state: NewState(),
		now:   time.Now,
	}
	e.deb = NewDebouncer(cfg.DebounceInterval, e.drainAsync)
	return e
}

// State returns the current session sync status.
func (e *Engine) State() Snapshot {
	return e.state.Snapshot()
}

// Start begins a sync session for the authenticated user: restores the
// persisted last-synced time, runs the initial reconciliation, and opens the
// realtime subscription. Without remote credentials it is a no-op and the
// engine serves the local store alone.
func (e *Engine) Start(ctx context.Context, userID string) error {
	e.mu.Lock()
	e.userID = userID
	e.mu.Unlock()

	e.restorePersistedState(ctx)

	if !e.gw.Available() {
		e.log.Info(ctx, "remote not configured, running local-only")
		return nil
	}

	// A failed first reconciliation is transient: it is recorded in the
	// state and retried on the next trigger, not surfaced to the caller.
	if err := e.Reconcile(ctx); err != nil {
		e.log.Warn(ctx, "initial reconciliation failed", "error", err)
	}

	if err := e.subscribe(ctx, userID); err != nil {
		return fmt.Errorf("failed to subscribe to changes: %w", err)
	}

	e.startOnlineMonitor(userID)
	return nil
}

// Stop tears the session down: the subscription closes, pending debounce
// timers are cancelled, and the state resets. Queued outbound items stay
// persisted; an in-flight remote call is not cancelled, its result is simply
// discarded against the reset state.
func (e *Engine) Stop() {
	e.mu.Lock()
	sub := e.sub
	e.sub = nil
	monitor := e.monitor
	e.monitor = nil
	e.userID = ""
	e.mu.Unlock()

	if monitor != nil {
		monitor()
	}
	if sub != nil {
		_ = sub.Close()
	}
	e.deb.Stop()
	e.state.Reset()
}

// NoteUpserted implements services.Notifier.
func (e *Engine) NoteUpserted(ctx context.Context, noteID string) {
	e.enqueue(ctx, noteID, models.SyncOpUpsert)
}

// NoteDeleted implements services.Notifier.
func (e *Engine) NoteDeleted(ctx context.Context, noteID string) {
	e.enqueue(ctx, noteID, models.SyncOpDelete)
}

func (e *Engine) enqueue(ctx context.Context, noteID string, op models.SyncOp) {
	if err := e.st.Queue.Enqueue(ctx, noteID, op, e.now()); err != nil {
		e.log.Error(ctx, "failed to enqueue sync item", "note", noteID, "op", op, "error", err)
		return
	}
	e.ScheduleDrain()
}

// ScheduleDrain arms the debounced drain.
func (e *Engine) ScheduleDrain() {
	e.deb.Trigger()
}

func (e *Engine) drainAsync() {
	ctx := context.Background()
	if err := e.Drain(ctx); err != nil {
		e.log.Warn(ctx, "drain failed", "error", err)
	}
}

// Reconcile merges the full remote note set with the local one. Local notes
// that are newer (or unknown remotely) win and are queued for upload; in all
// other cases the remote version replaces the local one. The local collection
// is swapped in a single transaction together with a tag-ledger rebuild.
func (e *Engine) Reconcile(ctx context.Context) error {
	if !e.gw.Available() {
		return nil
	}
	if !e.flight.TryLock() {
		return nil
	}
	defer e.flight.Unlock()

	e.mu.Lock()
	userID := e.userID
	e.mu.Unlock()

	e.state.setSyncing(true)
	defer e.state.setSyncing(false)

	remoteNotes, err := e.gw.FetchNotesSince(ctx, userID, nil)
	if err != nil {
		e.state.setError(err)
		return fmt.Errorf("failed to fetch remote notes: %w", err)
	}

	localNotes, err := e.st.Notes.GetAll(ctx)
	if err != nil {
		e.state.setError(err)
		return fmt.Errorf("failed to read local notes: %w", err)
	}

	merged, toUpload := merge(localNotes, remoteNotes)

	err = dbx.WithTx(ctx, e.st.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := notes.NewSQLiteRepository(tx).ReplaceAll(ctx, merged); err != nil {
			return err
		}
		if err := ledger.New(tags.NewSQLiteRepository(tx)).Rebuild(ctx, merged); err != nil {
			return err
		}
		q := queue.NewSQLiteRepository(tx)
		for _, id := range toUpload {
			if err := q.Enqueue(ctx, id, models.SyncOpUpsert, e.now()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		e.state.setError(err)
		return fmt.Errorf("failed to apply merged notes: %w", err)
	}

	e.markSynced(ctx)
	e.log.Info(ctx, "reconciliation complete",
		"local", len(localNotes), "remote", len(remoteNotes), "queued", len(toUpload))

	if len(toUpload) > 0 {
		e.ScheduleDrain()
	}
	return nil
}

// merge resolves conflicts at note granularity by updatedAt; ties go to the
// remote side. Returns the merged set plus the ids whose local version won
// (or exists only locally) and must be uploaded.
func merge(local, remoteSet []models.Note) ([]models.Note, []string) {
	merged := make([]models.Note, len(remoteSet))
	index := make(map[string]int, len(remoteSet))
	for i, n := range remoteSet {
		merged[i] = n
		index[n.ID] = i
	}

	var toUpload []string
	for _, ln := range local {
		i, ok := index[ln.ID]
		if !ok {
			merged = append(merged, ln)
			toUpload = append(toUpload, ln.ID)
			continue
		}
		if ln.UpdatedAt.After(merged[i].UpdatedAt) {
			merged[i] = ln
			toUpload = append(toUpload, ln.ID)
		}
	}
	return merged, toUpload
}

// Drain pushes queued outbound operations oldest-first. Delivery is
// at-least-once: an item is removed only after the remote accepted it, and
// the first failure aborts the pass leaving the rest queued.
func (e *Engine) Drain(ctx context.Context) error {
	if !e.gw.Available() {
		return nil
	}
	if !e.flight.TryLock() {
		return nil
	}
	defer e.flight.Unlock()

	e.mu.Lock()
	userID := e.userID
	e.mu.Unlock()

	e.state.setSyncing(true)
	defer e.state.setSyncing(false)

	pushed := 0
	for {
		item, err := e.st.Queue.Next(ctx)
		if err != nil {
			e.state.setError(err)
			return fmt.Errorf("failed to read sync queue: %w", err)
		}
		if item == nil {
			break
		}

		switch item.Op {
		case models.SyncOpUpsert:
			n, err := e.st.Notes.GetByID(ctx, item.NoteID)
			if errors.Is(err, notes.ErrNotFound) {
				// Deleted locally after being enqueued; nothing to push.
				e.log.Debug(ctx, "skipping vanished note", "note", item.NoteID)
				if err := e.st.Queue.Remove(ctx, item.NoteID, item.EnqueuedAt); err != nil {
					return fmt.Errorf("failed to drop queue item: %w", err)
				}
				continue
			}
			if err != nil {
				e.state.setError(err)
				return fmt.Errorf("failed to load note for upload: %w", err)
			}
			if _, err := e.gw.UpsertNote(ctx, userID, *n); err != nil {
				e.state.setError(err)
				return fmt.Errorf("failed to upsert note %s: %w", item.NoteID, err)
			}
		case models.SyncOpDelete:
			if err := e.gw.SoftDeleteNote(ctx, item.NoteID, userID); err != nil {
				e.state.setError(err)
				return fmt.Errorf("failed to delete note %s: %w", item.NoteID, err)
			}
		default:
			e.log.Warn(ctx, "dropping queue item with unknown op", "note", item.NoteID, "op", item.Op)
		}

		// Conditional on the enqueue timestamp: an edit that re-enqueued the
		// note while the push was in flight stays queued for the next round.
		if err := e.st.Queue.Remove(ctx, item.NoteID, item.EnqueuedAt); err != nil {
			return fmt.Errorf("failed to remove queue item: %w", err)
		}
		pushed++
	}

	if pushed > 0 {
		e.markSynced(ctx)
		e.log.Info(ctx, "drain complete", "pushed", pushed)
	}
	return nil
}

func (e *Engine) subscribe(ctx context.Context, userID string) error {
	sub, err := e.gw.SubscribeChanges(ctx, userID, remote.ChangeHandlers{
		OnInsert: func(n models.Note) { e.applyInsert(context.Background(), n) },
		OnUpdate: func(n models.Note) { e.applyUpdate(context.Background(), n) },
		OnDelete: func(id string) { e.applyDelete(context.Background(), id) },
	})
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.sub = sub
	e.mu.Unlock()
	return nil
}

// applyInsert adds a remotely created note. If a local note with the same id
// already exists the event is dropped: the local copy stays authoritative
// until the next full reconciliation.
func (e *Engine) applyInsert(ctx context.Context, n models.Note) {
	_, err := e.st.Notes.GetByID(ctx, n.ID)
	if err == nil {
		e.log.Debug(ctx, "ignoring insert for existing note", "note", n.ID)
		return
	}
	if !errors.Is(err, notes.ErrNotFound) {
		e.log.Error(ctx, "failed to check local note", "note", n.ID, "error", err)
		return
	}

	err = dbx.WithTx(ctx, e.st.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := notes.NewSQLiteRepository(tx).CreateOrUpdate(ctx, &n); err != nil {
			return err
		}
		return ledger.New(tags.NewSQLiteRepository(tx)).NoteCreated(ctx, n.Tags)
	})
	if err != nil {
		e.log.Error(ctx, "failed to apply remote insert", "note", n.ID, "error", err)
	}
}

// applyUpdate overwrites the local note unconditionally; the change feed
// delivers events in causal order, so no timestamp comparison happens here.
// Updates for unknown ids are ignored and left to the next reconciliation.
func (e *Engine) applyUpdate(ctx context.Context, n models.Note) {
	old, err := e.st.Notes.GetByID(ctx, n.ID)
	if errors.Is(err, notes.ErrNotFound) {
		e.log.Debug(ctx, "ignoring update for unknown note", "note", n.ID)
		return
	}
	if err != nil {
		e.log.Error(ctx, "failed to load local note", "note", n.ID, "error", err)
		return
	}

	err = dbx.WithTx(ctx, e.st.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := notes.NewSQLiteRepository(tx).CreateOrUpdate(ctx, &n); err != nil {
			return err
		}
		return ledger.New(tags.NewSQLiteRepository(tx)).Apply(ctx, old.Tags, n.Tags)
	})
	if err != nil {
		e.log.Error(ctx, "failed to apply remote update", "note", n.ID, "error", err)
	}
}

func (e *Engine) applyDelete(ctx context.Context, noteID string) {
	old, err := e.st.Notes.GetByID(ctx, noteID)
	if errors.Is(err, notes.ErrNotFound) {
		return
	}
	if err != nil {
		e.log.Error(ctx, "failed to load local note", "note", noteID, "error", err)
		return
	}

	err = dbx.WithTx(ctx, e.st.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := notes.NewSQLiteRepository(tx).DeleteByID(ctx, noteID); err != nil {
			return err
		}
		return ledger.New(tags.NewSQLiteRepository(tx)).NoteDeleted(ctx, old.Tags)
	})
	if err != nil {
		e.log.Error(ctx, "failed to apply remote delete", "note", noteID, "error", err)
	}
}

func (e *Engine) markSynced(ctx context.Context) {
	now := e.now().UTC()
	e.state.setSynced(now)
	if err := e.st.Meta.Set(ctx, metadata.KeyLastSyncedAt, []byte(now.Format(time.RFC3339Nano))); err != nil {
		e.log.Warn(ctx, "failed to persist last-synced time", "error", err)
	}
}

func (e *Engine) restorePersistedState(ctx context.Context) {
	raw, err := e.st.Meta.Get(ctx, metadata.KeyLastSyncedAt)
	if err != nil || raw == nil {
		return
	}
	if t, err := time.Parse(time.RFC3339Nano, string(raw)); err == nil {
		e.state.restoreLastSynced(t)
	}
}

func (e *Engine) startOnlineMonitor(userID string) {
	if e.cfg.OnlineProbe == nil || e.cfg.OnlineCheckInterval <= 0 {
		e.state.setOnline(true)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.mu.Lock()
	e.monitor = cancel
	e.mu.Unlock()

	go func() {
		ticker := time.NewTicker(e.cfg.OnlineCheckInterval)
		defer ticker.Stop()

		wasOnline := e.cfg.OnlineProbe(ctx)
		e.state.setOnline(wasOnline)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				online := e.cfg.OnlineProbe(ctx)
				e.state.setOnline(online)
				// Coming back online flushes whatever queued up while away.
				if online && !wasOnline {
					e.ScheduleDrain()
				}
				wasOnline = online
			}
		}
	}()
}
