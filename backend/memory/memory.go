// Package memory implements an in-process KeyValueStore.
// It is the default for tests and for sessions that should not touch disk.
package memory

import (
	"context"
	"fmt"
	"sync"

	"tidytodo/backend"
)

// Backend implements backend.KeyValueStore with a map
type Backend struct {
	mu     sync.RWMutex
	values map[string][]byte
	quota  int // max total bytes across all keys, 0 = unlimited
	closed bool
}

// New creates an empty in-memory store without a quota
func New() *Backend {
	return NewWithQuota(0)
}

// NewWithQuota creates an in-memory store that rejects writes which would
// push the total stored size above quota bytes, like a browser's storage limit.
func NewWithQuota(quota int) *Backend {
	return &Backend{
		values: make(map[string][]byte),
		quota:  quota,
	}
}

func init() {
	backend.Register("memory", func(string) (backend.KeyValueStore, error) {
		return New(), nil
	})
}

// Get returns a copy of the value stored under key
func (b *Backend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, false, fmt.Errorf("memory store is closed")
	}
	v, ok := b.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Set stores a copy of value under key
func (b *Backend) Set(ctx context.Context, key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("memory store is closed")
	}

	if b.quota > 0 {
		total := len(value)
		for k, v := range b.values {
			if k != key {
				total += len(v)
			}
		}
		if total > b.quota {
			return fmt.Errorf("writing %d bytes to %q: %w", len(value), key, backend.ErrQuotaExceeded)
		}
	}

	b.values[key] = append([]byte(nil), value...)
	return nil
}

// Delete removes key
func (b *Backend) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("memory store is closed")
	}
	delete(b.values, key)
	return nil
}

// Close marks the store closed; later calls fail
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// Verify interface compliance at compile time
var _ backend.KeyValueStore = (*Backend)(nil)
