package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"tidytodo/backend/file"
	"tidytodo/internal/storage"
	"tidytodo/internal/store"
)

// startWatcher creates and starts a watcher with a short debounce
func startWatcher(t *testing.T, target string, onChange func()) *Watcher {
	t.Helper()
	w, err := New(&Config{
		File:             target,
		DebounceDuration: 50 * time.Millisecond,
		OnChange:         onChange,
	})
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	t.Cleanup(w.Stop)

	if err := w.Start(); err != nil {
		t.Fatalf("failed to start watcher: %v", err)
	}
	return w
}

// waitFor polls cond until it holds or the deadline passes
func waitFor(t *testing.T, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

// TestWatcherDetectsChanges verifies writes to the watched file are reported
func TestWatcherDetectsChanges(t *testing.T) {
	target := filepath.Join(t.TempDir(), "todo-app-state.json")
	if err := os.WriteFile(target, []byte("initial"), 0600); err != nil {
		t.Fatalf("failed to create watch file: %v", err)
	}

	var calls atomic.Int32
	startWatcher(t, target, func() { calls.Add(1) })

	if err := os.WriteFile(target, []byte("modified"), 0600); err != nil {
		t.Fatalf("failed to modify file: %v", err)
	}

	if !waitFor(t, func() bool { return calls.Load() > 0 }) {
		t.Error("expected watcher to detect file change")
	}
}

// TestWatcherDetectsRenameReplace verifies atomic temp+rename writes are seen
func TestWatcherDetectsRenameReplace(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "todo-app-state.json")

	var calls atomic.Int32
	startWatcher(t, target, func() { calls.Add(1) })

	tmp := filepath.Join(dir, ".tmp-write")
	if err := os.WriteFile(tmp, []byte("{}"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, target); err != nil {
		t.Fatal(err)
	}

	if !waitFor(t, func() bool { return calls.Load() > 0 }) {
		t.Error("expected watcher to detect the renamed file")
	}
}

// TestWatcherIgnoresOtherFiles verifies unrelated files in the directory are ignored
func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "todo-app-state.json")

	var calls atomic.Int32
	startWatcher(t, target, func() { calls.Add(1) })

	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)

	if got := calls.Load(); got != 0 {
		t.Errorf("calls = %d, want 0", got)
	}
}

// TestWatcherDebouncesBursts verifies rapid writes collapse into one callback
func TestWatcherDebouncesBursts(t *testing.T) {
	target := filepath.Join(t.TempDir(), "todo-app-state.json")

	var calls atomic.Int32
	startWatcher(t, target, func() { calls.Add(1) })

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(target, []byte{byte('a' + i)}, 0600); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	if !waitFor(t, func() bool { return calls.Load() > 0 }) {
		t.Fatal("no callback after burst")
	}
	time.Sleep(200 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

// TestWatcherStopPreventsCallbacks verifies no callbacks after Stop
func TestWatcherStopPreventsCallbacks(t *testing.T) {
	target := filepath.Join(t.TempDir(), "todo-app-state.json")

	var calls atomic.Int32
	w := startWatcher(t, target, func() { calls.Add(1) })
	w.Stop()

	_ = os.WriteFile(target, []byte("after stop"), 0600)
	time.Sleep(200 * time.Millisecond)

	if got := calls.Load(); got != 0 {
		t.Errorf("calls after Stop = %d, want 0", got)
	}
	if err := w.Start(); err == nil {
		t.Error("Start after Stop should fail")
	}
}

func TestNewRequiresFile(t *testing.T) {
	if _, err := New(&Config{}); err == nil {
		t.Error("expected error without a file")
	}
}

// TestWatcherReloadsStore wires a watcher to a file-backed store and
// verifies a second process's write is picked up while the store's own
// writes are not
func TestWatcherReloadsStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	kv, err := file.New(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = kv.Close() }()

	s := store.Open(ctx, storage.New(kv, ""), store.Config{SkipDefaultCategories: true})
	s.AddTask(ctx, store.TaskInput{Title: "local"})

	target, err := kv.KeyPath(storage.DefaultKey)
	if err != nil {
		t.Fatal(err)
	}

	var reloads atomic.Int32
	startWatcher(t, target, func() {
		if s.ReloadIfChanged(ctx) {
			reloads.Add(1)
		}
	})

	s.AddTask(ctx, store.TaskInput{Title: "local again"})
	time.Sleep(300 * time.Millisecond)
	if got := reloads.Load(); got != 0 {
		t.Errorf("own write caused %d reloads", got)
	}

	otherKV, err := file.New(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = otherKV.Close() }()
	other := store.Open(ctx, storage.New(otherKV, ""), store.Config{SkipDefaultCategories: true})
	other.AddTask(ctx, store.TaskInput{Title: "remote"})

	if !waitFor(t, func() bool { return len(s.Tasks()) == 3 }) {
		t.Errorf("store has %d tasks after external write, want 3", len(s.Tasks()))
	}
	if reloads.Load() == 0 {
		t.Error("expected at least one reload")
	}
}
