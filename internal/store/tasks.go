package store

import (
	"context"
	"slices"
	"time"

	"tidytodo/backend"
)

// TaskInput holds the caller-supplied fields of a new task
type TaskInput struct {
	Title       string
	Description string
	Completed   bool
	Deadline    *time.Time
	Priority    backend.Priority
	Category    string
	Tags        []string
}

// TaskPatch is a partial task update. Nil fields are left unchanged.
// There is deliberately no way to change ID or CreatedAt.
type TaskPatch struct {
	Title         *string
	Description   *string
	Completed     *bool
	Deadline      *time.Time
	ClearDeadline bool
	Priority      *backend.Priority
	Category      *string
	Tags          *[]string
}

func normalizeDeadline(d *time.Time) *time.Time {
	if d == nil {
		return nil
	}
	n := d.UTC().Truncate(time.Millisecond)
	return &n
}

// AddTask creates a task with a new id and CreatedAt = UpdatedAt = now
func (s *Store) AddTask(ctx context.Context, in TaskInput) backend.Task {
	var created backend.Task
	s.mutate(ctx, func(st *backend.AppState) bool {
		now := s.timestamp()
		created = backend.Task{
			ID:          backend.GenerateID(),
			Title:       in.Title,
			Description: in.Description,
			Completed:   in.Completed,
			CreatedAt:   now,
			UpdatedAt:   now,
			Deadline:    normalizeDeadline(in.Deadline),
			Priority:    in.Priority,
			Category:    in.Category,
			Tags:        slices.Clone(in.Tags),
		}
		st.Tasks = append(st.Tasks, created)
		return true
	})
	return created.Clone()
}

// UpdateTask merges patch into the task and stamps UpdatedAt. Unknown ids
// are ignored and report false.
func (s *Store) UpdateTask(ctx context.Context, id string, patch TaskPatch) (backend.Task, bool) {
	var updated backend.Task
	found := s.mutate(ctx, func(st *backend.AppState) bool {
		i := indexOfTask(st.Tasks, id)
		if i < 0 {
			return false
		}

		t := st.Tasks[i].Clone()
		if patch.Title != nil {
			t.Title = *patch.Title
		}
		if patch.Description != nil {
			t.Description = *patch.Description
		}
		if patch.Completed != nil {
			t.Completed = *patch.Completed
		}
		if patch.ClearDeadline {
			t.Deadline = nil
		} else if patch.Deadline != nil {
			t.Deadline = normalizeDeadline(patch.Deadline)
		}
		if patch.Priority != nil {
			t.Priority = *patch.Priority
		}
		if patch.Category != nil {
			t.Category = *patch.Category
		}
		if patch.Tags != nil {
			t.Tags = slices.Clone(*patch.Tags)
		}
		t.UpdatedAt = s.updateStamp(t)

		st.Tasks[i] = t
		updated = t
		return true
	})
	return updated.Clone(), found
}

// updateStamp returns the UpdatedAt for a mutation of t. It never goes
// below the task's previous UpdatedAt or its CreatedAt, even when the wall
// clock steps backwards.
func (s *Store) updateStamp(t backend.Task) time.Time {
	now := s.timestamp()
	if now.Before(t.UpdatedAt) {
		now = t.UpdatedAt
	}
	if now.Before(t.CreatedAt) {
		now = t.CreatedAt
	}
	return now
}

// ToggleComplete flips the completion flag and stamps UpdatedAt
func (s *Store) ToggleComplete(ctx context.Context, id string) (backend.Task, bool) {
	var toggled backend.Task
	found := s.mutate(ctx, func(st *backend.AppState) bool {
		i := indexOfTask(st.Tasks, id)
		if i < 0 {
			return false
		}

		t := st.Tasks[i].Clone()
		t.Completed = !t.Completed
		t.UpdatedAt = s.updateStamp(t)

		st.Tasks[i] = t
		toggled = t
		return true
	})
	return toggled.Clone(), found
}

// DeleteTask removes the task. Unknown ids report false.
func (s *Store) DeleteTask(ctx context.Context, id string) bool {
	return s.mutate(ctx, func(st *backend.AppState) bool {
		i := indexOfTask(st.Tasks, id)
		if i < 0 {
			return false
		}
		st.Tasks = slices.Delete(slices.Clone(st.Tasks), i, i+1)
		return true
	})
}

// Task returns the task with the given id
func (s *Store) Task(id string) (backend.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOfTask(s.state.Tasks, id)
	if i < 0 {
		return backend.Task{}, false
	}
	return s.state.Tasks[i].Clone(), true
}

// Tasks returns every task in insertion order
func (s *Store) Tasks() []backend.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]backend.Task, len(s.state.Tasks))
	for i, t := range s.state.Tasks {
		out[i] = t.Clone()
	}
	return out
}

func indexOfTask(tasks []backend.Task, id string) int {
	return slices.IndexFunc(tasks, func(t backend.Task) bool { return t.ID == id })
}
