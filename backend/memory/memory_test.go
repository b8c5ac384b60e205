package memory

import (
	"context"
	"errors"
	"testing"

	"tidytodo/backend"
)

// TestSetGetDelete covers the basic key-value round trip
func TestSetGetDelete(t *testing.T) {
	b := New()
	ctx := context.Background()

	if _, found, err := b.Get(ctx, "k"); err != nil || found {
		t.Fatalf("Get on empty store = found %v, err %v", found, err)
	}

	if err := b.Set(ctx, "k", []byte("v1")); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	got, found, err := b.Get(ctx, "k")
	if err != nil || !found {
		t.Fatalf("Get = found %v, err %v", found, err)
	}
	if string(got) != "v1" {
		t.Errorf("Get = %q, want v1", got)
	}

	if err := b.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, found, _ := b.Get(ctx, "k"); found {
		t.Error("key should be absent after Delete")
	}
}

// TestValuesAreCopied verifies callers cannot mutate stored bytes
func TestValuesAreCopied(t *testing.T) {
	b := New()
	ctx := context.Background()

	in := []byte("abc")
	_ = b.Set(ctx, "k", in)
	in[0] = 'z'

	got, _, _ := b.Get(ctx, "k")
	if string(got) != "abc" {
		t.Errorf("stored value changed through input slice: %q", got)
	}
	got[1] = 'z'
	again, _, _ := b.Get(ctx, "k")
	if string(again) != "abc" {
		t.Errorf("stored value changed through output slice: %q", again)
	}
}

// TestQuotaExceeded verifies writes above the quota are refused and leave old data intact
func TestQuotaExceeded(t *testing.T) {
	b := NewWithQuota(8)
	ctx := context.Background()

	if err := b.Set(ctx, "k", []byte("12345678")); err != nil {
		t.Fatalf("Set within quota failed: %v", err)
	}

	err := b.Set(ctx, "k", []byte("123456789"))
	if !errors.Is(err, backend.ErrQuotaExceeded) {
		t.Fatalf("Set above quota error = %v, want ErrQuotaExceeded", err)
	}

	got, _, _ := b.Get(ctx, "k")
	if string(got) != "12345678" {
		t.Errorf("value after refused write = %q, want original", got)
	}
}

// TestClosedStore verifies operations fail after Close
func TestClosedStore(t *testing.T) {
	b := New()
	_ = b.Close()
	if err := b.Set(context.Background(), "k", []byte("v")); err == nil {
		t.Error("Set after Close should fail")
	}
}

// TestRegistered verifies the memory backend is available by name
func TestRegistered(t *testing.T) {
	kv, err := backend.Open("memory", "")
	if err != nil {
		t.Fatalf("Open(memory) error: %v", err)
	}
	if _, ok := kv.(*Backend); !ok {
		t.Errorf("Open(memory) returned %T", kv)
	}
}
