// Package tui provides a terminal user interface for task management.
package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tidytodo/backend"
	"tidytodo/internal/store"
	"tidytodo/internal/views"
)

// Store is the subset of *store.Store the TUI drives
type Store interface {
	View() []backend.Task
	Tasks() []backend.Task
	Categories() []backend.Category
	CategoryUsage(id string) int
	Filters() views.FilterState
	SortKey() views.SortKey

	AddTask(ctx context.Context, in store.TaskInput) backend.Task
	UpdateTask(ctx context.Context, id string, patch store.TaskPatch) (backend.Task, bool)
	ToggleComplete(ctx context.Context, id string) (backend.Task, bool)
	DeleteTask(ctx context.Context, id string) bool
	AddCategory(ctx context.Context, name, color string, icon *string) backend.Category
	DeleteCategory(ctx context.Context, id string) error

	SetFilters(patch views.FilterPatch) views.FilterState
	ClearFilters()
	SetSortKey(key views.SortKey) bool
}

// Focus indicates which pane has focus
type Focus int

const (
	FocusCategories Focus = iota
	FocusTasks
)

// Mode indicates the current input mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeAddTask
	ModeEditTask
	ModeSearch
	ModeAddCategory
	ModeConfirmDeleteTask
	ModeConfirmDeleteCategory
	ModeHelp
)

// newCategoryColor is used for categories created from the sidebar
const newCategoryColor = "#6b7280"

// Model represents the TUI state
type Model struct {
	store Store
	ctx   context.Context

	// Data, refreshed from the store after every change
	tasks      []backend.Task
	categories []backend.Category

	// Selection. catCursor 0 is "All", i+1 is categories[i].
	catCursor  int
	taskCursor int
	focus      Focus

	// Mode and input
	mode      Mode
	textInput textinput.Model
	searchSeq int
	status    string

	// UI dimensions
	width  int
	height int

	styles styles
}

type styles struct {
	pane      lipgloss.Style
	selected  lipgloss.Style
	completed lipgloss.Style
	muted     lipgloss.Style
	help      lipgloss.Style
	dialog    lipgloss.Style
	statusBar lipgloss.Style
	errText   lipgloss.Style
	overdue   lipgloss.Style
	dueToday  lipgloss.Style
}

// ExternalChangeMsg tells the model that the store was reloaded from
// storage by someone else and the screen must be refreshed.
type ExternalChangeMsg struct{}

// searchTickMsg fires after the search debounce. Only the tick carrying
// the latest sequence number applies its text.
type searchTickMsg struct {
	seq   int
	query string
}

// New creates a new TUI model over s
func New(ctx context.Context, s Store) *Model {
	ti := textinput.New()
	ti.Placeholder = "Enter text..."
	ti.CharLimit = store.MaxTitleLength

	m := &Model{
		store:     s,
		ctx:       ctx,
		textInput: ti,
		focus:     FocusTasks,
		mode:      ModeNormal,
		styles: styles{
			pane: lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240")).
				Padding(0, 1),
			selected: lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("212")),
			completed: lipgloss.NewStyle().
				Strikethrough(true).
				Foreground(lipgloss.Color("240")),
			muted: lipgloss.NewStyle().
				Foreground(lipgloss.Color("245")),
			help: lipgloss.NewStyle().
				Foreground(lipgloss.Color("241")),
			dialog: lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(1, 2),
			statusBar: lipgloss.NewStyle().
				Background(lipgloss.Color("236")).
				Foreground(lipgloss.Color("252")).
				Padding(0, 1),
			errText: lipgloss.NewStyle().
				Foreground(lipgloss.Color("203")),
			overdue: lipgloss.NewStyle().
				Foreground(lipgloss.Color("196")).
				Bold(true),
			dueToday: lipgloss.NewStyle().
				Foreground(lipgloss.Color("214")),
		},
	}
	m.refresh()
	return m
}

// Init initializes the TUI
func (m *Model) Init() tea.Cmd {
	return nil
}

// Tasks returns the tasks currently on screen
func (m *Model) Tasks() []backend.Task {
	return m.tasks
}

// Mode returns the current input mode
func (m *Model) Mode() Mode {
	return m.mode
}

// Status returns the last status message
func (m *Model) Status() string {
	return m.status
}

// refresh re-reads tasks and categories from the store and clamps cursors
func (m *Model) refresh() {
	m.tasks = m.store.View()
	m.categories = m.store.Categories()

	if m.catCursor > len(m.categories) {
		m.catCursor = len(m.categories)
	}
	if m.taskCursor >= len(m.tasks) {
		m.taskCursor = len(m.tasks) - 1
	}
	if m.taskCursor < 0 {
		m.taskCursor = 0
	}
}

func (m *Model) selectedTask() (backend.Task, bool) {
	if m.taskCursor < 0 || m.taskCursor >= len(m.tasks) {
		return backend.Task{}, false
	}
	return m.tasks[m.taskCursor], true
}

// selectedCategory returns the highlighted sidebar category; false for "All"
func (m *Model) selectedCategory() (backend.Category, bool) {
	if m.catCursor <= 0 || m.catCursor > len(m.categories) {
		return backend.Category{}, false
	}
	return m.categories[m.catCursor-1], true
}

// applyCategoryCursor filters the task list by the highlighted category
func (m *Model) applyCategoryCursor() {
	if c, ok := m.selectedCategory(); ok {
		m.store.SetFilters(views.FilterPatch{Category: &c.ID})
	} else {
		m.store.SetFilters(views.FilterPatch{AllCategories: true})
	}
	m.taskCursor = 0
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case ExternalChangeMsg:
		m.refresh()
		m.status = "Reloaded external changes"
		return m, nil

	case searchTickMsg:
		if msg.seq == m.searchSeq {
			m.store.SetFilters(views.FilterPatch{Search: &msg.query})
			m.taskCursor = 0
			m.refresh()
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeAddTask, ModeEditTask, ModeAddCategory:
			return m.handleInputMode(msg)
		case ModeSearch:
			return m.handleSearchMode(msg)
		case ModeConfirmDeleteTask, ModeConfirmDeleteCategory:
			return m.handleConfirmMode(msg)
		case ModeHelp:
			m.mode = ModeNormal
			return m, nil
		}
		return m.handleNormalMode(msg)
	}

	return m, nil
}

func (m *Model) handleNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "tab":
		if m.focus == FocusCategories {
			m.focus = FocusTasks
		} else {
			m.focus = FocusCategories
		}

	case "up", "k":
		if m.focus == FocusCategories {
			if m.catCursor > 0 {
				m.catCursor--
				m.applyCategoryCursor()
				m.refresh()
			}
		} else if m.taskCursor > 0 {
			m.taskCursor--
		}

	case "down", "j":
		if m.focus == FocusCategories {
			if m.catCursor < len(m.categories) {
				m.catCursor++
				m.applyCategoryCursor()
				m.refresh()
			}
		} else if m.taskCursor < len(m.tasks)-1 {
			m.taskCursor++
		}

	case "a":
		if m.focus == FocusCategories {
			return m, m.startInput(ModeAddCategory, "New category name...", "")
		}
		return m, m.startInput(ModeAddTask, "New task title...", "")

	case "e":
		if t, ok := m.selectedTask(); ok {
			return m, m.startInput(ModeEditTask, "Task title...", t.Title)
		}

	case " ", "space", "c":
		if t, ok := m.selectedTask(); ok {
			m.store.ToggleComplete(m.ctx, t.ID)
			m.refresh()
		}

	case "d":
		if m.focus == FocusCategories {
			if _, ok := m.selectedCategory(); ok {
				m.mode = ModeConfirmDeleteCategory
			}
		} else if _, ok := m.selectedTask(); ok {
			m.mode = ModeConfirmDeleteTask
		}

	case "/":
		cmd := m.startInput(ModeSearch, "Search...", m.store.Filters().Search)
		return m, cmd

	case "p":
		m.cyclePriority()
		m.refresh()

	case "f":
		m.cycleCompletion()
		m.refresh()

	case "s":
		m.cycleSort()
		m.refresh()

	case "x":
		m.store.ClearFilters()
		m.catCursor = 0
		m.taskCursor = 0
		m.refresh()

	case "?":
		m.mode = ModeHelp
	}

	return m, nil
}

func (m *Model) startInput(mode Mode, placeholder, value string) tea.Cmd {
	m.mode = mode
	m.textInput.Reset()
	m.textInput.Placeholder = placeholder
	m.textInput.SetValue(value)
	m.textInput.CursorEnd()
	m.textInput.Focus()
	return textinput.Blink
}

func (m *Model) endInput() {
	m.mode = ModeNormal
	m.textInput.Blur()
}

func (m *Model) handleInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.submitInput(m.textInput.Value())
		return m, nil
	case tea.KeyEsc:
		m.endInput()
		return m, nil
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

// submitInput validates and applies the text typed in an input mode.
// Validation failures keep the dialog open with the message in the status bar.
func (m *Model) submitInput(value string) {
	switch m.mode {
	case ModeAddTask:
		in, err := store.ValidateTaskInput(store.TaskInput{
			Title:    value,
			Priority: m.newTaskPriority(),
			Category: m.newTaskCategory(),
		})
		if err != nil {
			m.status = err.Error()
			return
		}
		m.store.AddTask(m.ctx, in)
		m.status = "Added " + in.Title

	case ModeEditTask:
		t, ok := m.selectedTask()
		if !ok {
			break
		}
		in, err := store.ValidateTaskInput(store.TaskInput{Title: value, Priority: t.Priority})
		if err != nil {
			m.status = err.Error()
			return
		}
		m.store.UpdateTask(m.ctx, t.ID, store.TaskPatch{Title: &in.Title})

	case ModeAddCategory:
		name, err := store.ValidateCategoryName(value, nil)
		if err != nil {
			m.status = err.Error()
			return
		}
		m.store.AddCategory(m.ctx, name, newCategoryColor, nil)
		m.status = "Added category " + name
	}

	m.endInput()
	m.refresh()
}

// newTaskCategory files new tasks under the filtered category, or the
// first category when showing all.
func (m *Model) newTaskCategory() string {
	if c := m.store.Filters().Category; c != nil {
		return *c
	}
	if len(m.categories) > 0 {
		return m.categories[0].ID
	}
	return ""
}

func (m *Model) newTaskPriority() backend.Priority {
	if p := m.store.Filters().Priority; p != nil {
		return *p
	}
	return backend.PriorityMedium
}

func (m *Model) handleSearchMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		query := m.textInput.Value()
		m.searchSeq++
		m.store.SetFilters(views.FilterPatch{Search: &query})
		m.endInput()
		m.taskCursor = 0
		m.refresh()
		return m, nil
	case tea.KeyEsc:
		empty := ""
		m.searchSeq++
		m.store.SetFilters(views.FilterPatch{Search: &empty})
		m.endInput()
		m.refresh()
		return m, nil
	}

	before := m.textInput.Value()
	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	if m.textInput.Value() == before {
		return m, cmd
	}

	m.searchSeq++
	seq, query := m.searchSeq, m.textInput.Value()
	tick := tea.Tick(views.SearchDebounce, func(time.Time) tea.Msg {
		return searchTickMsg{seq: seq, query: query}
	})
	return m, tea.Batch(cmd, tick)
}

func (m *Model) handleConfirmMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		if m.mode == ModeConfirmDeleteTask {
			if t, ok := m.selectedTask(); ok {
				m.store.DeleteTask(m.ctx, t.ID)
				m.status = "Deleted " + t.Title
			}
		} else if c, ok := m.selectedCategory(); ok {
			m.deleteCategory(c)
		}
		m.mode = ModeNormal
		m.refresh()
	case "n", "N", "esc":
		m.mode = ModeNormal
	}
	return m, nil
}

func (m *Model) deleteCategory(c backend.Category) {
	err := m.store.DeleteCategory(m.ctx, c.ID)
	var inUse *store.CategoryInUseError
	switch {
	case errors.As(err, &inUse):
		m.status = fmt.Sprintf("Cannot delete %q: used by %d %s", c.Name, inUse.Count, plural(inUse.Count, "task"))
	case err != nil:
		m.status = err.Error()
	default:
		m.status = "Deleted category " + c.Name
		m.catCursor = 0
		m.applyCategoryCursor()
	}
}

func (m *Model) cyclePriority() {
	current := m.store.Filters().Priority
	if current == nil {
		p := backend.Priorities[0]
		m.store.SetFilters(views.FilterPatch{Priority: &p})
		return
	}
	for i, p := range backend.Priorities {
		if p == *current && i+1 < len(backend.Priorities) {
			next := backend.Priorities[i+1]
			m.store.SetFilters(views.FilterPatch{Priority: &next})
			return
		}
	}
	m.store.SetFilters(views.FilterPatch{AllPriorities: true})
}

func (m *Model) cycleCompletion() {
	current := m.store.Filters().Completed
	next := views.CompletionFilters[0]
	for i, c := range views.CompletionFilters {
		if c == current {
			next = views.CompletionFilters[(i+1)%len(views.CompletionFilters)]
		}
	}
	m.store.SetFilters(views.FilterPatch{Completed: &next})
}

func (m *Model) cycleSort() {
	current := m.store.SortKey()
	next := views.SortKeys[0]
	for i, k := range views.SortKeys {
		if k == current {
			next = views.SortKeys[(i+1)%len(views.SortKeys)]
		}
	}
	m.store.SetSortKey(next)
}

func plural(n int, noun string) string {
	if n == 1 {
		return noun
	}
	return noun + "s"
}
