package views

import (
	"sync"

	"tidytodo/backend"
)

// Memo caches the last Compute result. The cache is keyed on the task
// revision, the filter state and the sort key; callers bump the revision
// whenever the task list changes.
type Memo struct {
	mu       sync.Mutex
	valid    bool
	revision uint64
	filters  FilterState
	sortKey  SortKey
	result   []backend.Task
	computed int
}

// View returns the filtered and sorted tasks, recomputing only when one of
// the three inputs changed since the previous call.
func (m *Memo) View(revision uint64, tasks []backend.Task, filters FilterState, sortKey SortKey) []backend.Task {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.valid || m.revision != revision || m.sortKey != sortKey || !m.filters.Equal(filters) {
		m.result = Compute(tasks, filters, sortKey)
		m.revision = revision
		m.filters = filters.Clone()
		m.sortKey = sortKey
		m.valid = true
		m.computed++
	}

	out := make([]backend.Task, len(m.result))
	for i, t := range m.result {
		out[i] = t.Clone()
	}
	return out
}

// computations returns how many times the result was recomputed
func (m *Memo) computations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.computed
}
