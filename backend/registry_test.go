package backend_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"tidytodo/backend"
)

type nopStore struct{ path string }

func (n *nopStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (n *nopStore) Set(context.Context, string, []byte) error { return nil }
func (n *nopStore) Delete(context.Context, string) error { return nil }
func (n *nopStore) Close() error { return nil }

// TestRegisterAndOpen verifies a registered constructor is used by Open
func TestRegisterAndOpen(t *testing.T) {
	backend.Register("nop-test", func(path string) (backend.KeyValueStore, error) {
		return &nopStore{path: path}, nil
	})

	kv, err := backend.Open("nop-test", "/tmp/x")
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	ns, ok := kv.(*nopStore)
	if !ok {
		t.Fatalf("Open returned %T, want *nopStore", kv)
	}
	if ns.path != "/tmp/x" {
		t.Errorf("path = %q, want /tmp/x", ns.path)
	}

	found := false
	for _, name := range backend.Registered() {
		if name == "nop-test" {
			found = true
		}
	}
	if !found {
		t.Error("Registered() should include nop-test")
	}
}

// TestOpenUnknownBackend verifies a helpful error for unknown names
func TestOpenUnknownBackend(t *testing.T) {
	_, err := backend.Open("does-not-exist", "")
	if err == nil {
		t.Fatal("expected error for unknown backend")
	}
	if !strings.Contains(err.Error(), "unknown storage backend") {
		t.Errorf("unexpected error: %v", err)
	}
}

// TestPriorityRank verifies the severity ordering used for sorting
func TestPriorityRank(t *testing.T) {
	tests := []struct {
		p    backend.Priority
		want int
	}{
		{backend.PriorityUrgent, 4},
		{backend.PriorityHigh, 3},
		{backend.PriorityMedium, 2},
		{backend.PriorityLow, 1},
		{backend.Priority("bogus"), 0},
	}
	for _, tt := range tests {
		if got := tt.p.Rank(); got != tt.want {
			t.Errorf("%q.Rank() = %d, want %d", tt.p, got, tt.want)
		}
	}
}

// TestParsePriority verifies case-insensitive parsing and rejection
func TestParsePriority(t *testing.T) {
	p, err := backend.ParsePriority(" HIGH ")
	if err != nil {
		t.Fatalf("ParsePriority error: %v", err)
	}
	if p != backend.PriorityHigh {
		t.Errorf("ParsePriority = %q, want high", p)
	}
	if _, err := backend.ParsePriority("critical"); err == nil {
		t.Error("expected error for unknown priority")
	}
}

// TestTaskCloneIsDeep verifies clones do not share deadline or tags
func TestTaskCloneIsDeep(t *testing.T) {
	d := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	orig := backend.Task{ID: "t1", Deadline: &d, Tags: []string{"a", "b"}}

	c := orig.Clone()
	*c.Deadline = d.AddDate(1, 0, 0)
	c.Tags[0] = "z"

	if !orig.Deadline.Equal(d) {
		t.Error("mutating clone deadline changed original")
	}
	if orig.Tags[0] != "a" {
		t.Error("mutating clone tags changed original")
	}
}

// TestGenerateIDUnique verifies ids are non-empty and distinct
func TestGenerateIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := backend.GenerateID()
		if id == "" {
			t.Fatal("GenerateID returned empty id")
		}
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}
