// Package prompt handles interactive prompts with no-prompt mode support.
// It lets the user pick one task when a reference matches several.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"tidytodo/backend"
)

// Sentinel errors for prompt operations.
var (
	ErrSelectionCancelled = errors.New("selection cancelled")
	ErrNoPromptMode       = errors.New("interactive prompts disabled (--no-prompt / -y)")
	ErrNoTasks            = errors.New("no tasks available")
	ErrNoMatches          = errors.New("no tasks match the filter")
)

// TaskSelector narrows a list of tasks with a typed filter and then asks
// for a number.
type TaskSelector struct {
	Tasks    []backend.Task
	Prompt   string
	Reader   io.Reader
	Writer   io.Writer
	NoPrompt bool
}

// Run executes the task selection prompt.
// If NoPrompt is true, returns ErrNoPromptMode.
// If there is exactly one task, auto-selects it.
func (s *TaskSelector) Run() (*backend.Task, error) {
	if s.NoPrompt {
		return nil, ErrNoPromptMode
	}

	if len(s.Tasks) == 0 {
		return nil, ErrNoTasks
	}

	if len(s.Tasks) == 1 {
		return &s.Tasks[0], nil
	}

	writer := s.Writer
	if writer == nil {
		writer = io.Discard
	}

	scanner := bufio.NewScanner(s.Reader)

	_, _ = fmt.Fprintf(writer, "%s\nFilter (or press Enter to show all): ", s.Prompt)
	if !scanner.Scan() {
		return nil, ErrSelectionCancelled
	}
	filter := strings.ToLower(strings.TrimSpace(scanner.Text()))

	filtered := s.Tasks
	if filter != "" {
		filtered = nil
		for _, t := range s.Tasks {
			if strings.Contains(strings.ToLower(t.Title), filter) || strings.Contains(strings.ToLower(t.Description), filter) {
				filtered = append(filtered, t)
			}
		}
	}

	if len(filtered) == 0 {
		return nil, ErrNoMatches
	}

	if len(filtered) == 1 {
		_, _ = fmt.Fprintf(writer, "Auto-selected: %s\n", filtered[0].Title)
		return &filtered[0], nil
	}

	for i, t := range filtered {
		_, _ = fmt.Fprintf(writer, "  %d) %s\n", i+1, formatTaskLine(t))
	}

	_, _ = fmt.Fprintf(writer, "Select (0 to cancel): ")
	if !scanner.Scan() {
		return nil, ErrSelectionCancelled
	}

	input := strings.TrimSpace(scanner.Text())
	num, err := strconv.Atoi(input)
	if err != nil {
		return nil, fmt.Errorf("invalid selection: %s", input)
	}

	if num == 0 {
		return nil, ErrSelectionCancelled
	}

	if num < 1 || num > len(filtered) {
		return nil, fmt.Errorf("selection out of range: %d", num)
	}

	return &filtered[num-1], nil
}

// formatTaskLine renders a task with its status, priority, deadline and tags
func formatTaskLine(t backend.Task) string {
	status := "open"
	if t.Completed {
		status = "done"
	}
	meta := []string{status, string(t.Priority)}

	if t.Deadline != nil {
		meta = append(meta, "due: "+t.Deadline.Local().Format("2006-01-02"))
	}
	if len(t.Tags) > 0 {
		meta = append(meta, "tags: "+strings.Join(t.Tags, ", "))
	}

	return fmt.Sprintf("%s [%s]", t.Title, strings.Join(meta, ", "))
}

// FilterTasksByAction returns the tasks an action can apply to: open tasks
// for "complete" and completed ones for "reopen". Other actions keep every
// task. The result is always a new slice.
func FilterTasksByAction(tasks []backend.Task, action string) []backend.Task {
	var keep func(backend.Task) bool
	switch action {
	case "complete":
		keep = func(t backend.Task) bool { return !t.Completed }
	case "reopen":
		keep = func(t backend.Task) bool { return t.Completed }
	default:
		return append([]backend.Task(nil), tasks...)
	}

	var filtered []backend.Task
	for _, t := range tasks {
		if keep(t) {
			filtered = append(filtered, t)
		}
	}
	return filtered
}
