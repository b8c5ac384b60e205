package store

import (
	"tidytodo/backend"
	"tidytodo/internal/views"
)

// SetFilters merges patch into the session filters. Filters are never persisted.
func (s *Store) SetFilters(patch views.FilterPatch) views.FilterState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = patch.Apply(s.filters)
	return s.filters.Clone()
}

// ClearFilters resets every filter to "all"
func (s *Store) ClearFilters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = views.DefaultFilters()
}

// SetSortKey changes the session sort key. Unknown keys are ignored.
func (s *Store) SetSortKey(key views.SortKey) bool {
	if !key.Valid() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sortKey = key
	return true
}

// ApplyView replaces the session filters and sort key with a saved view's
func (s *Store) ApplyView(v *views.View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = v.FilterState()
	s.sortKey = v.SortKey()
}

// Filters returns the current session filters
func (s *Store) Filters() views.FilterState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters.Clone()
}

// SortKey returns the current session sort key
func (s *Store) SortKey() views.SortKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortKey
}

// View returns the tasks matching the session filters in session sort
// order. The result is memoized on the state revision, filters and sort key.
func (s *Store) View() []backend.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.memo.View(s.revision, s.state.Tasks, s.filters, s.sortKey)
}
