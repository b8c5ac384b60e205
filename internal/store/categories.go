package store

import (
	"context"
	"slices"

	"tidytodo/backend"
)

// CategoryPatch is a partial category update. Nil fields are left unchanged.
type CategoryPatch struct {
	Name      *string
	Color     *string
	Icon      *string
	ClearIcon bool
}

// AddCategory appends a category with a new id. Names need not be unique.
func (s *Store) AddCategory(ctx context.Context, name, color string, icon *string) backend.Category {
	var created backend.Category
	s.mutate(ctx, func(st *backend.AppState) bool {
		created = backend.Category{ID: backend.GenerateID(), Name: name, Color: color}
		if icon != nil {
			created.Icon = backend.Ptr(*icon)
		}
		st.Categories = append(st.Categories, created)
		return true
	})
	return created.Clone()
}

// UpdateCategory merges patch into the category. Unknown ids report false.
func (s *Store) UpdateCategory(ctx context.Context, id string, patch CategoryPatch) (backend.Category, bool) {
	var updated backend.Category
	found := s.mutate(ctx, func(st *backend.AppState) bool {
		i := indexOfCategory(st.Categories, id)
		if i < 0 {
			return false
		}

		c := st.Categories[i].Clone()
		if patch.Name != nil {
			c.Name = *patch.Name
		}
		if patch.Color != nil {
			c.Color = *patch.Color
		}
		if patch.ClearIcon {
			c.Icon = nil
		} else if patch.Icon != nil {
			c.Icon = backend.Ptr(*patch.Icon)
		}

		st.Categories[i] = c
		updated = c
		return true
	})
	return updated.Clone(), found
}

// DeleteCategory removes the category unless tasks still reference it, in
// which case a *CategoryInUseError carrying the count is returned and
// nothing changes. The reference check and the removal happen under the
// same lock. Unknown ids are a no-op.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	var inUse error
	s.mutate(ctx, func(st *backend.AppState) bool {
		i := indexOfCategory(st.Categories, id)
		if i < 0 {
			return false
		}
		if n := countTasksInCategory(st.Tasks, id); n > 0 {
			inUse = &CategoryInUseError{CategoryID: id, Count: n}
			return false
		}
		st.Categories = slices.Delete(slices.Clone(st.Categories), i, i+1)
		return true
	})
	return inUse
}

// Category returns the category with the given id
func (s *Store) Category(id string) (backend.Category, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOfCategory(s.state.Categories, id)
	if i < 0 {
		return backend.Category{}, false
	}
	return s.state.Categories[i].Clone(), true
}

// Categories returns every category in insertion order
func (s *Store) Categories() []backend.Category {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]backend.Category, len(s.state.Categories))
	for i, c := range s.state.Categories {
		out[i] = c.Clone()
	}
	return out
}

// CategoryUsage returns how many tasks reference the category
func (s *Store) CategoryUsage(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return countTasksInCategory(s.state.Tasks, id)
}

func indexOfCategory(categories []backend.Category, id string) int {
	return slices.IndexFunc(categories, func(c backend.Category) bool { return c.ID == id })
}

func countTasksInCategory(tasks []backend.Task, id string) int {
	n := 0
	for _, t := range tasks {
		if t.Category == id {
			n++
		}
	}
	return n
}
