package views

import (
	"time"

	"tidytodo/backend"
)

// SearchDebounce is the quiet period before typed search text is applied.
const SearchDebounce = 300 * time.Millisecond

// CompletionFilter selects tasks by completion state
type CompletionFilter string

const (
	CompletionAll       CompletionFilter = "all"
	CompletionActive    CompletionFilter = "active"
	CompletionCompleted CompletionFilter = "completed"
)

// CompletionFilters lists the completion filters in UI cycle order
var CompletionFilters = []CompletionFilter{CompletionAll, CompletionActive, CompletionCompleted}

// Valid reports whether c is a known completion filter
func (c CompletionFilter) Valid() bool {
	switch c {
	case CompletionAll, CompletionActive, CompletionCompleted:
		return true
	}
	return false
}

// SortKey names the field tasks are ordered by
type SortKey string

const (
	SortCreatedAt SortKey = "createdAt"
	SortDeadline  SortKey = "deadline"
	SortPriority  SortKey = "priority"
)

// SortKeys lists the sort keys in UI cycle order
var SortKeys = []SortKey{SortCreatedAt, SortDeadline, SortPriority}

// Valid reports whether k is a known sort key
func (k SortKey) Valid() bool {
	switch k {
	case SortCreatedAt, SortDeadline, SortPriority:
		return true
	}
	return false
}

// FilterState is the session's active set of predicates. Nil Category
// or Priority means "all".
type FilterState struct {
	Category  *string
	Priority  *backend.Priority
	Completed CompletionFilter
	Search    string
}

// DefaultFilters returns the filter state that passes every task
func DefaultFilters() FilterState {
	return FilterState{Completed: CompletionAll}
}

// IsActive reports whether any filter narrows the list
func (f FilterState) IsActive() bool {
	return f.Category != nil ||
		f.Priority != nil ||
		(f.Completed != "" && f.Completed != CompletionAll) ||
		f.Search != ""
}

// Equal reports whether two filter states select the same tasks
func (f FilterState) Equal(o FilterState) bool {
	return equalPtr(f.Category, o.Category) &&
		equalPtr(f.Priority, o.Priority) &&
		f.completed() == o.completed() &&
		f.Search == o.Search
}

// Clone returns a copy that shares no pointers with f
func (f FilterState) Clone() FilterState {
	out := f
	if f.Category != nil {
		c := *f.Category
		out.Category = &c
	}
	if f.Priority != nil {
		p := *f.Priority
		out.Priority = &p
	}
	return out
}

func (f FilterState) completed() CompletionFilter {
	if f.Completed == "" {
		return CompletionAll
	}
	return f.Completed
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// FilterPatch is a partial update of FilterState. Nil fields are left alone;
// AllCategories and AllPriorities reset those filters to "all".
type FilterPatch struct {
	Category      *string
	AllCategories bool
	Priority      *backend.Priority
	AllPriorities bool
	Completed     *CompletionFilter
	Search        *string
}

// Apply returns f with the patch merged in
func (p FilterPatch) Apply(f FilterState) FilterState {
	out := f.Clone()
	if p.AllCategories {
		out.Category = nil
	} else if p.Category != nil {
		c := *p.Category
		out.Category = &c
	}
	if p.AllPriorities {
		out.Priority = nil
	} else if p.Priority != nil {
		pr := *p.Priority
		out.Priority = &pr
	}
	if p.Completed != nil {
		out.Completed = *p.Completed
	}
	if p.Search != nil {
		out.Search = *p.Search
	}
	return out
}

// View is a saved filter and sort combination
type View struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	Filters     ViewFilters `yaml:"filters,omitempty"`
	Sort        SortKey     `yaml:"sort,omitempty"`
}

// ViewFilters is the YAML form of FilterState. Empty fields mean "all".
type ViewFilters struct {
	Category  string `yaml:"category,omitempty"`
	Priority  string `yaml:"priority,omitempty"`
	Completed string `yaml:"completed,omitempty"`
	Search    string `yaml:"search,omitempty"`
}

// FilterState converts the view's filters into a session filter state
func (v *View) FilterState() FilterState {
	f := DefaultFilters()
	if v.Filters.Category != "" {
		c := v.Filters.Category
		f.Category = &c
	}
	if v.Filters.Priority != "" {
		p := backend.Priority(v.Filters.Priority)
		f.Priority = &p
	}
	if v.Filters.Completed != "" {
		f.Completed = CompletionFilter(v.Filters.Completed)
	}
	f.Search = v.Filters.Search
	return f
}

// SortKey returns the view's sort key, defaulting to creation time
func (v *View) SortKey() SortKey {
	if v.Sort == "" {
		return SortCreatedAt
	}
	return v.Sort
}

// DefaultView returns the built-in default view: everything, newest first
func DefaultView() *View {
	return &View{
		Name:        "default",
		Description: "All tasks, newest first",
		Filters:     ViewFilters{Completed: string(CompletionAll)},
		Sort:        SortCreatedAt,
	}
}

// ActiveView returns the built-in view of open tasks by deadline
func ActiveView() *View {
	return &View{
		Name:        "active",
		Description: "Open tasks, nearest deadline first",
		Filters:     ViewFilters{Completed: string(CompletionActive)},
		Sort:        SortDeadline,
	}
}

// builtInViews maps built-in view names to their constructors
var builtInViews = map[string]func() *View{
	"default": DefaultView,
	"active":  ActiveView,
}

// DueStatus marks open tasks whose deadline is today or already past
type DueStatus string

const (
	DueNone    DueStatus = ""
	DueToday   DueStatus = "today"
	DueOverdue DueStatus = "overdue"
)

// DeadlineStatus compares the task's deadline with now by local calendar
// day. Completed tasks and tasks without a deadline are DueNone.
func DeadlineStatus(t backend.Task, now time.Time) DueStatus {
	if t.Deadline == nil || t.Completed {
		return DueNone
	}
	dy, dm, dd := t.Deadline.Local().Date()
	ny, nm, nd := now.Local().Date()
	if dy == ny && dm == nm && dd == nd {
		return DueToday
	}
	if t.Deadline.Before(now) {
		return DueOverdue
	}
	return DueNone
}
