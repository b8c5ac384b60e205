// Package markdown renders the task list as a markdown checklist grouped
// by category and parses such a checklist back.
//
// Layout:
//
//	## Garden <!-- color=#22c55e icon=🌱 -->
//	- [ ] Water plants !high @2030-01-10 #home
//	  Description lines are indented two spaces.
//	- [x] Buy seeds
//
// Ids and timestamps are not written; deadlines keep only their local date.
package markdown

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"tidytodo/backend"
	"tidytodo/internal/storage"
)

const dateLayout = "2006-01-02"

// Uncategorized holds tasks whose category is missing or that appear
// before the first heading.
const Uncategorized = "Uncategorized"

const defaultColor = "#6b7280"

var (
	headingPattern = regexp.MustCompile(`^##\s+(.*?)\s*(?:<!--(.*)-->)?\s*$`)
	taskPattern    = regexp.MustCompile(`^\s*[-*]\s+\[(.)\]\s+(.*)$`)
	metaPattern    = regexp.MustCompile(`(\w+)=(\S+)`)
	datePattern    = regexp.MustCompile(`^@(\d{4}-\d{2}-\d{2})$`)
)

// FormatStatusChar returns the checkbox character for a task
func FormatStatusChar(completed bool) string {
	if completed {
		return "x"
	}
	return " "
}

// ParseStatusChar reports whether a checkbox character marks a completed task
func ParseStatusChar(char string) bool {
	return strings.EqualFold(char, "x")
}

// FormatTaskText formats a task as "Title !priority @date #tag".
// Medium priority is the default and is left out.
func FormatTaskText(task backend.Task) string {
	parts := []string{task.Title}

	if task.Priority != "" && task.Priority != backend.PriorityMedium {
		parts = append(parts, "!"+string(task.Priority))
	}
	if task.Deadline != nil {
		parts = append(parts, "@"+task.Deadline.Local().Format(dateLayout))
	}
	for _, tag := range task.Tags {
		parts = append(parts, "#"+tag)
	}

	return strings.Join(parts, " ")
}

// ParseTaskText splits trailing "!priority", "@date" and "#tag" tokens off
// the title. Tokens in the middle of the title are left alone.
func ParseTaskText(text string) (title string, priority backend.Priority, deadline *time.Time, tags []string) {
	words := strings.Fields(text)
	priority = backend.PriorityMedium

	end := len(words)
	for end > 1 {
		w := words[end-1]
		if p, ok := strings.CutPrefix(w, "!"); ok {
			parsed, err := backend.ParsePriority(p)
			if err != nil {
				break
			}
			priority = parsed
		} else if m := datePattern.FindStringSubmatch(w); m != nil {
			d, err := time.ParseInLocation(dateLayout, m[1], time.Local)
			if err != nil {
				break
			}
			deadline = &d
		} else if tag, ok := strings.CutPrefix(w, "#"); ok && tag != "" {
			tags = append([]string{tag}, tags...)
		} else {
			break
		}
		end--
	}

	return strings.Join(words[:end], " "), priority, deadline, tags
}

// Write renders state as a markdown checklist. Every category gets a
// heading, even when it has no tasks.
func Write(w io.Writer, state backend.AppState) error {
	bw := bufio.NewWriter(w)

	known := make(map[string]bool, len(state.Categories))
	for _, c := range state.Categories {
		known[c.ID] = true
	}

	_, _ = fmt.Fprintln(bw, "# Tasks")
	for _, c := range state.Categories {
		writeHeading(bw, c)
		for _, t := range state.Tasks {
			if t.Category == c.ID {
				writeTask(bw, t)
			}
		}
	}

	var orphans []backend.Task
	for _, t := range state.Tasks {
		if !known[t.Category] {
			orphans = append(orphans, t)
		}
	}
	if len(orphans) > 0 {
		writeHeading(bw, backend.Category{Name: Uncategorized, Color: defaultColor})
		for _, t := range orphans {
			writeTask(bw, t)
		}
	}

	return bw.Flush()
}

func writeHeading(w io.Writer, c backend.Category) {
	meta := "color=" + c.Color
	if c.Icon != nil && *c.Icon != "" {
		meta += " icon=" + *c.Icon
	}
	_, _ = fmt.Fprintf(w, "\n## %s <!-- %s -->\n", c.Name, meta)
}

func writeTask(w io.Writer, t backend.Task) {
	_, _ = fmt.Fprintf(w, "- [%s] %s\n", FormatStatusChar(t.Completed), FormatTaskText(t))
	if t.Description == "" {
		return
	}
	for _, line := range strings.Split(t.Description, "\n") {
		_, _ = fmt.Fprintf(w, "  %s\n", line)
	}
}

// Parse reads a checklist into a wire record with fresh ids. now stamps
// createdAt and updatedAt of every task.
func Parse(r io.Reader, now time.Time) (storage.Record, error) {
	rec := storage.Record{
		Todos:      []storage.TaskRecord{},
		Categories: []storage.CategoryRecord{},
	}
	stamp := storage.FormatTime(now)
	current := ""
	var last *storage.TaskRecord

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), " \t\r")

		if m := headingPattern.FindStringSubmatch(line); m != nil {
			if m[1] == "" {
				return storage.Record{}, fmt.Errorf("line %d: category heading without a name", lineNo)
			}
			rec.Categories = append(rec.Categories, parseCategory(m[1], m[2]))
			current = rec.Categories[len(rec.Categories)-1].ID
			last = nil
			continue
		}

		if m := taskPattern.FindStringSubmatch(line); m != nil {
			if current == "" {
				rec.Categories = append(rec.Categories, storage.CategoryRecord{
					ID: backend.GenerateID(), Name: Uncategorized, Color: defaultColor,
				})
				current = rec.Categories[len(rec.Categories)-1].ID
			}
			title, priority, deadline, tags := ParseTaskText(m[2])
			task := storage.TaskRecord{
				ID:        backend.GenerateID(),
				Title:     title,
				Completed: ParseStatusChar(m[1]),
				CreatedAt: stamp,
				UpdatedAt: stamp,
				Priority:  string(priority),
				Category:  current,
				Tags:      tags,
			}
			if deadline != nil {
				d := storage.FormatTime(*deadline)
				task.Deadline = &d
			}
			rec.Todos = append(rec.Todos, task)
			last = &rec.Todos[len(rec.Todos)-1]
			continue
		}

		// Indented lines continue the previous task's description
		if last != nil && strings.HasPrefix(line, "  ") {
			text := strings.TrimPrefix(line, "  ")
			if last.Description == "" {
				last.Description = text
			} else {
				last.Description += "\n" + text
			}
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		last = nil
	}
	if err := scanner.Err(); err != nil {
		return storage.Record{}, fmt.Errorf("failed to read markdown: %w", err)
	}

	return rec, nil
}

func parseCategory(name, meta string) storage.CategoryRecord {
	c := storage.CategoryRecord{ID: backend.GenerateID(), Name: name, Color: defaultColor}
	for _, m := range metaPattern.FindAllStringSubmatch(meta, -1) {
		switch m[1] {
		case "color":
			c.Color = m[2]
		case "icon":
			icon := m[2]
			c.Icon = &icon
		}
	}
	return c
}
