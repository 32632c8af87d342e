package syncer

import (
	"sync"
	"time"
)

// Snapshot is a point-in-time copy of the session sync status, safe to hand
// to UI code.
type Snapshot struct {
	Syncing      bool
	Online       bool
	LastSyncedAt time.Time
	LastError    error
}

// State tracks per-session sync status. Sync failures land here instead of
// propagating to callers; the UI surfaces them as stale timestamps and an
// offline indicator only.
type State struct {
	mu           sync.RWMutex
	syncing      bool
	online       bool
	lastSyncedAt time.Time
	lastError    error
}

func NewState() *State {
	return &State{}
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Syncing:      s.syncing,
		Online:       s.online,
		LastSyncedAt: s.lastSyncedAt,
		LastError:    s.lastError,
	}
}

// Reset returns the state to its zero value. Called at sign-out.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncing = false
	s.online = false
	s.lastSyncedAt = time.Time{}
	s.lastError = nil
}

func (s *State) setSyncing(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncing = v
}

func (s *State) setOnline(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.online = v
}

func (s *State) setSynced(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSyncedAt = t
	s.lastError = nil
}

func (s *State) setError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = err
}

func (s *State) restoreLastSynced(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSyncedAt = t
}
