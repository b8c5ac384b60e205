package tui_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"

	"tidytodo/backend"
	"tidytodo/backend/memory"
	"tidytodo/internal/storage"
	"tidytodo/internal/store"
	"tidytodo/internal/tui"
)

func newProgramModel(t *testing.T) (*tui.Model, *store.Store) {
	t.Helper()
	ctx := context.Background()
	s := store.Open(ctx, storage.New(memory.New(), ""), store.Config{})
	s.AddTask(ctx, store.TaskInput{Title: "Review PR", Priority: backend.PriorityHigh, Category: s.Categories()[1].ID})
	return tui.New(ctx, s), s
}

func waitForText(t *testing.T, tm *teatest.TestModel, text string) {
	t.Helper()
	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return bytes.Contains(out, []byte(text))
	}, teatest.WithDuration(2*time.Second), teatest.WithCheckInterval(20*time.Millisecond))
}

// TestTUILaunch verifies the first frame shows categories and tasks
func TestTUILaunch(t *testing.T) {
	model, _ := newProgramModel(t)
	tm := teatest.NewTestModel(t, model, teatest.WithInitialTermSize(100, 30))

	waitForText(t, tm, "Review PR")

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))
}

// TestTUIAddTaskEndToEnd verifies typing a new task through the program loop persists it
func TestTUIAddTaskEndToEnd(t *testing.T) {
	model, s := newProgramModel(t)
	tm := teatest.NewTestModel(t, model, teatest.WithInitialTermSize(100, 30))
	waitForText(t, tm, "Review PR")

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})
	waitForText(t, tm, "Add New Task")
	tm.Type("Water plants")
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	waitForText(t, tm, "Water plants")

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))

	if n := len(s.Tasks()); n != 2 {
		t.Errorf("got %d tasks, want 2", n)
	}
}

// TestTUISearchDebounceFires verifies the debounced search narrows the list in a running program
func TestTUISearchDebounceFires(t *testing.T) {
	model, s := newProgramModel(t)
	ctx := context.Background()
	s.AddTask(ctx, store.TaskInput{Title: "Groceries", Category: s.Categories()[2].ID})

	tm := teatest.NewTestModel(t, model, teatest.WithInitialTermSize(100, 30))
	tm.Send(tui.ExternalChangeMsg{})
	waitForText(t, tm, "Groceries")

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'/'}})
	tm.Type("groc")

	deadline := time.Now().Add(2 * time.Second)
	for s.Filters().Search != "groc" && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if got := s.Filters().Search; got != "groc" {
		t.Fatalf("search = %q, want groc after debounce", got)
	}

	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	fm := tm.FinalModel(t, teatest.WithFinalTimeout(2*time.Second)).(*tui.Model)
	if got := fm.Tasks(); len(got) != 1 || got[0].Title != "Groceries" {
		t.Errorf("tasks = %v, want only Groceries", got)
	}
}

// TestTUIExternalChange verifies the program redraws on ExternalChangeMsg
func TestTUIExternalChange(t *testing.T) {
	model, s := newProgramModel(t)
	tm := teatest.NewTestModel(t, model, teatest.WithInitialTermSize(100, 30))
	waitForText(t, tm, "Review PR")

	s.AddTask(context.Background(), store.TaskInput{Title: "Synced task", Category: s.Categories()[0].ID})
	tm.Send(tui.ExternalChangeMsg{})
	waitForText(t, tm, "Synced task")

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))
}
