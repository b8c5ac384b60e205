// Package store owns the application state: every task, every category and
// the session's filter and sort selection. All mutations go through one
// lock-guarded path that writes the full state to storage before returning.
package store

import (
	"context"
	"sync"
	"time"

	"tidytodo/backend"
	"tidytodo/internal/storage"
	"tidytodo/internal/utils"
	"tidytodo/internal/views"
)

// Config controls how a Store starts up
type Config struct {
	// Now supplies the current time. Defaults to time.Now.
	Now func() time.Time
	// SkipDefaultCategories disables seeding the default categories when
	// the loaded state has none.
	SkipDefaultCategories bool
	// DefaultSort is the initial sort key. Defaults to creation time.
	DefaultSort views.SortKey
}

// Store is the single owner of the in-memory AppState
type Store struct {
	adapter *storage.Adapter
	now     func() time.Time
	seed    bool

	mu       sync.Mutex
	state    backend.AppState
	revision uint64
	filters  views.FilterState
	sortKey  views.SortKey
	memo     views.Memo
}

// Open loads the persisted state through adapter and returns a store over it
func Open(ctx context.Context, adapter *storage.Adapter, cfg Config) *Store {
	s := &Store{
		adapter: adapter,
		now:     cfg.Now,
		seed:    !cfg.SkipDefaultCategories,
		filters: views.DefaultFilters(),
		sortKey: cfg.DefaultSort,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if !s.sortKey.Valid() {
		s.sortKey = views.SortCreatedAt
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if loaded, ok := adapter.Load(ctx); ok {
		s.state = *loaded
	}
	if s.seedDefaults() {
		s.adapter.Save(ctx, s.state)
	}
	utils.Debugf("store opened with %d tasks, %d categories", len(s.state.Tasks), len(s.state.Categories))
	return s
}

// seedDefaults installs the default categories when none exist.
// Callers hold s.mu. Reports whether anything was added.
func (s *Store) seedDefaults() bool {
	if !s.seed || len(s.state.Categories) > 0 {
		return false
	}
	s.state.Categories = DefaultCategories()
	return true
}

// timestamp returns the current time at the precision storage preserves
func (s *Store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// mutate runs fn against the state under the store lock. When fn reports a
// change, the revision is bumped and the full state is saved before the
// lock is released, so every write starts from the previous write's result.
// A blob written by another process since this store last read or wrote is
// picked up first, so that write is built on rather than overwritten.
func (s *Store) mutate(ctx context.Context, fn func(state *backend.AppState) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refreshLocked(ctx)
	if !fn(&s.state) {
		return false
	}
	s.revision++
	s.adapter.Save(ctx, s.state)
	return true
}

// State returns a deep copy of the current AppState
func (s *Store) State() backend.AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Revision returns a counter that increases with every state change
func (s *Store) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// Replace installs state wholesale (used by import) and persists it
func (s *Store) Replace(ctx context.Context, state backend.AppState) {
	next := state.Clone()
	s.mutate(ctx, func(st *backend.AppState) bool {
		*st = next
		return true
	})
}

// Reload replaces the in-memory state with whatever storage holds.
// Nothing stored resets to an empty state (plus default categories).
func (s *Store) Reload(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loaded, ok := s.adapter.Load(ctx)
	if ok {
		s.state = *loaded
	} else {
		s.state = backend.AppState{}
	}
	s.revision++
	if s.seedDefaults() {
		s.adapter.Save(ctx, s.state)
	}
}

// ReloadIfChanged reloads only when storage holds a blob this store did
// not write. Reports whether the state was replaced.
func (s *Store) ReloadIfChanged(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.refreshLocked(ctx)
}

// refreshLocked installs a foreign blob if storage holds one. Callers hold s.mu.
func (s *Store) refreshLocked(ctx context.Context) bool {
	loaded, changed := s.adapter.LoadIfChanged(ctx)
	if !changed {
		return false
	}

	s.state = *loaded
	s.revision++
	utils.Debugf("reloaded external change: %d tasks, %d categories", len(s.state.Tasks), len(s.state.Categories))
	return true
}

// Clear removes every task and category from memory and storage
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.adapter.Clear(ctx)
	s.state = backend.AppState{}
	s.revision++
}
