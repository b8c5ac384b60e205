package backend

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Priority is the severity of a task
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Priorities lists every priority from least to most severe
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// Rank returns the sort weight of the priority: urgent(4) > high(3) > medium(2) > low(1).
// Unknown values rank 0 so malformed stored records sort last.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Valid reports whether p is one of the known priorities
func (p Priority) Valid() bool {
	return p.Rank() > 0
}

// ParsePriority parses a priority name (case-insensitive)
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", errors.New("invalid priority: " + s)
	}
	return p, nil
}

// Task represents a todo item
type Task struct {
	ID          string
	Title       string
	Description string
	Completed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Deadline    *time.Time // nil when the task has no deadline
	Priority    Priority
	Category    string // Category.ID; not revalidated after creation
	Tags        []string
}

// Clone returns a deep copy of the task so callers cannot alias store state
func (t Task) Clone() Task {
	c := t
	if t.Deadline != nil {
		d := *t.Deadline
		c.Deadline = &d
	}
	if t.Tags != nil {
		c.Tags = append([]string(nil), t.Tags...)
	}
	return c
}

// Category represents a user-defined task label
type Category struct {
	ID    string
	Name  string
	Color string  // e.g. "#3b82f6"
	Icon  *string // nil when no icon was chosen
}

// Clone returns a deep copy of the category
func (c Category) Clone() Category {
	out := c
	if c.Icon != nil {
		icon := *c.Icon
		out.Icon = &icon
	}
	return out
}

// AppState is the unit that gets persisted: every task and every category
type AppState struct {
	Tasks      []Task
	Categories []Category
}

// Clone returns a deep copy of the state
func (s AppState) Clone() AppState {
	out := AppState{
		Tasks:      make([]Task, len(s.Tasks)),
		Categories: make([]Category, len(s.Categories)),
	}
	for i, t := range s.Tasks {
		out.Tasks[i] = t.Clone()
	}
	for i, c := range s.Categories {
		out.Categories[i] = c.Clone()
	}
	return out
}

// ErrQuotaExceeded is returned by stores that refuse a write because it
// would exceed their capacity.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// KeyValueStore is the storage contract the persistence adapter writes through.
// It mirrors a browser's local storage: string keys, opaque string values.
type KeyValueStore interface {
	// Get returns the value stored under key. found is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}

// GenerateID generates a unique identifier using UUID v4.
func GenerateID() string {
	return uuid.New().String()
}

// Ptr returns a pointer to v. Handy for optional fields.
func Ptr[T any](v T) *T {
	return &v
}
