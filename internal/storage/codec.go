package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"tidytodo/backend"
	"tidytodo/internal/utils"
)

// TimeLayout is the date format written to the persisted record:
// RFC 3339 in UTC with millisecond precision.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Record is the wire shape of the persisted state.
type Record struct {
	Todos      []TaskRecord     `json:"todos" yaml:"todos" toml:"todos"`
	Categories []CategoryRecord `json:"categories" yaml:"categories" toml:"categories"`
}

// TaskRecord is the wire shape of a task. Dates are ISO-8601 strings.
type TaskRecord struct {
	ID          string   `json:"id" yaml:"id" toml:"id"`
	Title       string   `json:"title" yaml:"title" toml:"title"`
	Description string   `json:"description" yaml:"description" toml:"description"`
	Completed   bool     `json:"completed" yaml:"completed" toml:"completed"`
	CreatedAt   string   `json:"createdAt" yaml:"createdAt" toml:"createdAt"`
	UpdatedAt   string   `json:"updatedAt" yaml:"updatedAt" toml:"updatedAt"`
	Deadline    *string  `json:"deadline" yaml:"deadline" toml:"deadline,omitempty"`
	Priority    string   `json:"priority" yaml:"priority" toml:"priority"`
	Category    string   `json:"category" yaml:"category" toml:"category"`
	Tags        []string `json:"tags" yaml:"tags" toml:"tags"`
}

// CategoryRecord is the wire shape of a category.
type CategoryRecord struct {
	ID    string  `json:"id" yaml:"id" toml:"id"`
	Name  string  `json:"name" yaml:"name" toml:"name"`
	Color string  `json:"color" yaml:"color" toml:"color"`
	Icon  *string `json:"icon,omitempty" yaml:"icon,omitempty" toml:"icon,omitempty"`
}

// FormatTime renders t in the persisted date format.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ToRecord converts state into its wire shape.
func ToRecord(state backend.AppState) Record {
	rec := Record{
		Todos:      make([]TaskRecord, 0, len(state.Tasks)),
		Categories: make([]CategoryRecord, 0, len(state.Categories)),
	}

	for _, t := range state.Tasks {
		tr := TaskRecord{
			ID:          t.ID,
			Title:       t.Title,
			Description: t.Description,
			Completed:   t.Completed,
			CreatedAt:   FormatTime(t.CreatedAt),
			UpdatedAt:   FormatTime(t.UpdatedAt),
			Priority:    string(t.Priority),
			Category:    t.Category,
			Tags:        append([]string{}, t.Tags...),
		}
		if t.Deadline != nil {
			d := FormatTime(*t.Deadline)
			tr.Deadline = &d
		}
		rec.Todos = append(rec.Todos, tr)
	}

	for _, c := range state.Categories {
		cr := CategoryRecord{ID: c.ID, Name: c.Name, Color: c.Color}
		if c.Icon != nil {
			icon := *c.Icon
			cr.Icon = &icon
		}
		rec.Categories = append(rec.Categories, cr)
	}

	return rec
}

// FromRecord converts the wire shape back into state. Dates that fail to
// parse are logged and left as zero times; a bad deadline becomes absent.
func FromRecord(rec Record) backend.AppState {
	state := backend.AppState{
		Tasks:      make([]backend.Task, 0, len(rec.Todos)),
		Categories: make([]backend.Category, 0, len(rec.Categories)),
	}

	for _, tr := range rec.Todos {
		t := backend.Task{
			ID:          tr.ID,
			Title:       tr.Title,
			Description: tr.Description,
			Completed:   tr.Completed,
			CreatedAt:   parseTime(tr.ID, "createdAt", tr.CreatedAt),
			UpdatedAt:   parseTime(tr.ID, "updatedAt", tr.UpdatedAt),
			Priority:    backend.Priority(tr.Priority),
			Category:    tr.Category,
		}
		if len(tr.Tags) > 0 {
			t.Tags = append([]string(nil), tr.Tags...)
		}
		if tr.Deadline != nil && *tr.Deadline != "" {
			if d := parseTime(tr.ID, "deadline", *tr.Deadline); !d.IsZero() {
				t.Deadline = &d
			}
		}
		state.Tasks = append(state.Tasks, t)
	}

	for _, cr := range rec.Categories {
		c := backend.Category{ID: cr.ID, Name: cr.Name, Color: cr.Color}
		if cr.Icon != nil {
			icon := *cr.Icon
			c.Icon = &icon
		}
		state.Categories = append(state.Categories, c)
	}

	return state
}

func parseTime(taskID, field, value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		// Date-only strings are UTC midnight, as a browser Date reads them
		t, err = time.Parse(time.DateOnly, value)
	}
	if err != nil {
		utils.Warnf("task %s: unparsable %s %q", taskID, field, value)
		return time.Time{}
	}
	return t.UTC()
}

// Encode serializes state as the persisted JSON blob.
func Encode(state backend.AppState) ([]byte, error) {
	data, err := json.Marshal(ToRecord(state))
	if err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}
	return data, nil
}

// Decode parses a persisted JSON blob. Missing fields decode as zero values.
func Decode(data []byte) (backend.AppState, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return backend.AppState{}, fmt.Errorf("failed to decode state: %w", err)
	}
	return FromRecord(rec), nil
}
