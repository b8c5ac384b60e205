package views

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
	"tidytodo/backend"
)

// Compute filters and sorts tasks. The input slice and its tasks are never
// modified; the result is a new slice of copies.
func Compute(tasks []backend.Task, filters FilterState, sortKey SortKey) []backend.Task {
	result := filterTasks(tasks, filters)
	SortTasks(result, sortKey)
	return result
}

// filterTasks returns copies of the tasks passing every filter, in input order
func filterTasks(tasks []backend.Task, filters FilterState) []backend.Task {
	m := newMatcher(filters)

	result := make([]backend.Task, 0, len(tasks))
	for _, t := range tasks {
		if m.matches(&t) {
			result = append(result, t.Clone())
		}
	}
	return result
}

// matcher holds a filter state with the search needle pre-folded
type matcher struct {
	filters FilterState
	folder  cases.Caser
	needle  string
}

func newMatcher(filters FilterState) *matcher {
	m := &matcher{filters: filters, folder: cases.Fold()}
	if filters.Search != "" {
		m.needle = m.fold(filters.Search)
	}
	return m
}

// fold normalizes s for case-insensitive comparison
func (m *matcher) fold(s string) string {
	return m.folder.String(norm.NFC.String(s))
}

// matches checks a task against all filters (AND logic)
func (m *matcher) matches(t *backend.Task) bool {
	f := m.filters

	if f.Category != nil && t.Category != *f.Category {
		return false
	}
	if f.Priority != nil && t.Priority != *f.Priority {
		return false
	}

	switch f.Completed {
	case CompletionActive:
		if t.Completed {
			return false
		}
	case CompletionCompleted:
		if !t.Completed {
			return false
		}
	}

	if m.needle == "" {
		return true
	}
	return m.containsNeedle(t)
}

// containsNeedle checks title, description and tags for the search text
func (m *matcher) containsNeedle(t *backend.Task) bool {
	if strings.Contains(m.fold(t.Title), m.needle) {
		return true
	}
	if strings.Contains(m.fold(t.Description), m.needle) {
		return true
	}
	for _, tag := range t.Tags {
		if strings.Contains(m.fold(tag), m.needle) {
			return true
		}
	}
	return false
}

// SortTasks sorts tasks in place by key. The sort is stable: ties keep
// their relative order. Unknown keys sort by creation time.
func SortTasks(tasks []backend.Task, key SortKey) {
	switch key {
	case SortDeadline:
		slices.SortStableFunc(tasks, compareDeadline)
	case SortPriority:
		slices.SortStableFunc(tasks, func(a, b backend.Task) int {
			return b.Priority.Rank() - a.Priority.Rank()
		})
	default:
		slices.SortStableFunc(tasks, func(a, b backend.Task) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
	}
}

// compareDeadline orders by deadline ascending with absent deadlines last
func compareDeadline(a, b backend.Task) int {
	switch {
	case a.Deadline == nil && b.Deadline == nil:
		return 0
	case a.Deadline == nil:
		return 1
	case b.Deadline == nil:
		return -1
	}
	return a.Deadline.Compare(*b.Deadline)
}
