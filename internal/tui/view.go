package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"tidytodo/backend"
	"tidytodo/internal/views"
)

// View renders the TUI
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		m.width = 80
		m.height = 24
	}

	switch m.mode {
	case ModeAddTask:
		return m.renderInputDialog("Add New Task", "Enter: confirm  Esc: cancel")
	case ModeEditTask:
		title := "Edit Task"
		if t, ok := m.selectedTask(); ok {
			title = "Edit: " + t.Title
		}
		return m.renderInputDialog(title, "Enter: confirm  Esc: cancel")
	case ModeAddCategory:
		return m.renderInputDialog("Add New Category", "Enter: confirm  Esc: cancel")
	case ModeSearch:
		return m.renderInputDialog("Search Tasks", "Enter: apply  Esc: clear")
	case ModeConfirmDeleteTask:
		return m.renderConfirmDialog("Delete selected task?")
	case ModeConfirmDeleteCategory:
		name := ""
		if c, ok := m.selectedCategory(); ok {
			name = " " + c.Name
		}
		return m.renderConfirmDialog("Delete category" + name + "?")
	case ModeHelp:
		return m.centerDialog(m.styles.dialog.Render(helpText))
	}

	sideWidth := m.width / 4
	taskWidth := m.width - sideWidth - 4
	paneHeight := m.height - 4

	side := m.styles.pane.Width(sideWidth).Height(paneHeight).Render(m.renderCategoryPane(sideWidth - 4))
	tasks := m.styles.pane.Width(taskWidth).Height(paneHeight).Render(m.renderTaskPane(taskWidth - 4))

	var b strings.Builder
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, side, tasks))
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	return b.String()
}

func (m *Model) renderCategoryPane(width int) string {
	var b strings.Builder
	b.WriteString("Categories\n")
	b.WriteString(strings.Repeat("─", max(width, 1)))
	b.WriteString("\n")

	m.writeCategoryLine(&b, 0, fmt.Sprintf("All (%d)", len(m.store.Tasks())))
	for i, c := range m.categories {
		label := c.Name
		if c.Icon != nil {
			label = *c.Icon + " " + label
		}
		m.writeCategoryLine(&b, i+1, fmt.Sprintf("%s (%d)", label, m.store.CategoryUsage(c.ID)))
	}
	return b.String()
}

func (m *Model) writeCategoryLine(b *strings.Builder, idx int, label string) {
	cursor := " "
	if idx == m.catCursor {
		if m.focus == FocusCategories {
			cursor = ">"
			label = m.styles.selected.Render(label)
		} else {
			cursor = "•"
		}
	}
	b.WriteString(cursor + " " + label + "\n")
}

func (m *Model) renderTaskPane(width int) string {
	var b strings.Builder
	b.WriteString("Tasks  " + m.styles.muted.Render(m.describeFilters()) + "\n")
	b.WriteString(strings.Repeat("─", max(width, 1)))
	b.WriteString("\n")

	if len(m.tasks) == 0 {
		b.WriteString("No tasks\n")
		return b.String()
	}

	names := make(map[string]string, len(m.categories))
	for _, c := range m.categories {
		names[c.ID] = c.Name
	}

	for i, t := range m.tasks {
		b.WriteString(m.renderTask(t, i == m.taskCursor && m.focus == FocusTasks, names))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderTask(t backend.Task, selected bool, categoryNames map[string]string) string {
	cursor := " "
	if selected {
		cursor = ">"
	}

	status := "[ ]"
	if t.Completed {
		status = "[✓]"
	}

	title := t.Title
	switch {
	case t.Completed:
		title = m.styles.completed.Render(title)
	case selected:
		title = m.styles.selected.Render(title)
	}

	var meta []string
	if t.Priority != "" {
		meta = append(meta, "!"+string(t.Priority))
	}
	due := ""
	if t.Deadline != nil {
		due = "due " + t.Deadline.Local().Format("2006-01-02")
		switch views.DeadlineStatus(t, time.Now()) {
		case views.DueOverdue:
			due = m.styles.overdue.Render(due + " overdue")
		case views.DueToday:
			due = m.styles.dueToday.Render(due + " today")
		default:
			due = m.styles.muted.Render(due)
		}
	}
	if name, ok := categoryNames[t.Category]; ok {
		meta = append(meta, "@"+name)
	}
	for _, tag := range t.Tags {
		meta = append(meta, "#"+tag)
	}

	line := cursor + " " + status + " " + title
	if len(meta) > 0 {
		line += "  " + m.styles.muted.Render(strings.Join(meta, " "))
	}
	if due != "" {
		line += "  " + due
	}
	return line
}

// describeFilters summarizes the active filters and sort key
func (m *Model) describeFilters() string {
	f := m.store.Filters()
	var parts []string
	if f.Priority != nil {
		parts = append(parts, "priority:"+string(*f.Priority))
	}
	if f.Completed != "" && f.Completed != views.CompletionAll {
		parts = append(parts, "status:"+string(f.Completed))
	}
	if f.Search != "" {
		parts = append(parts, fmt.Sprintf("search:%q", f.Search))
	}
	parts = append(parts, "sort:"+string(m.store.SortKey()))
	return strings.Join(parts, " ")
}

func (m *Model) renderStatusBar() string {
	left := m.status
	right := "a:add /:search p f s:filter x:clear ?:help q:quit"

	if left != "" {
		left = m.styles.errText.Render(left)
	}

	padding := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if padding < 1 {
		padding = 1
	}
	return m.styles.statusBar.Width(m.width).Render(left + strings.Repeat(" ", padding) + right)
}

func (m *Model) renderInputDialog(title, hint string) string {
	body := title + "\n\n" + m.textInput.View() + "\n\n" + m.styles.help.Render(hint)
	if m.status != "" {
		body += "\n" + m.styles.errText.Render(m.status)
	}
	return m.centerDialog(m.styles.dialog.Render(body))
}

func (m *Model) renderConfirmDialog(question string) string {
	return m.centerDialog(m.styles.dialog.Render(question + "\n\n" + m.styles.help.Render("y: yes  n: no")))
}

const helpText = `Help - Key Bindings

Navigation:
  j/↓    Move down
  k/↑    Move up
  Tab    Switch focus between categories/tasks

Tasks:
  a      Add task (in the selected category)
  e      Edit title
  space  Toggle completion (also c)
  d      Delete (with confirm)

Categories (sidebar focused):
  a      Add category
  d      Delete category (refused while in use)

Filters:
  /      Search title, description and tags
  p      Cycle priority filter
  f      Cycle all/active/completed
  s      Cycle sort: created, deadline, priority
  x      Clear all filters

Press any key to close`

func (m *Model) centerDialog(dialog string) string {
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, dialog)
}
