// Package storage persists the whole application state as one serialized
// blob under a single key of a backend.KeyValueStore.
package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"sync"

	"tidytodo/backend"
	"tidytodo/internal/utils"
)

// DefaultKey is the key the state blob is stored under.
const DefaultKey = "todo-app-state"

// Adapter reads and writes the state blob. Load and Save never return
// errors: failures are logged and treated as "nothing stored" or a
// dropped write.
type Adapter struct {
	kv  backend.KeyValueStore
	key string

	mu   sync.Mutex
	last [sha256.Size]byte
	seen bool
}

// New creates an adapter over kv. An empty key selects DefaultKey.
func New(kv backend.KeyValueStore, key string) *Adapter {
	if key == "" {
		key = DefaultKey
	}
	return &Adapter{kv: kv, key: key}
}

// Key returns the storage key in use.
func (a *Adapter) Key() string {
	return a.key
}

// Load returns the stored state, or (nil, false) when nothing usable is stored.
func (a *Adapter) Load(ctx context.Context) (*backend.AppState, bool) {
	state, ok, err := a.LoadErr(ctx)
	if err != nil {
		utils.Warnf("%v", err)
		return nil, false
	}
	return state, ok
}

// LoadErr is Load with the failure returned as a *ReadFailure.
func (a *Adapter) LoadErr(ctx context.Context) (*backend.AppState, bool, error) {
	data, found, err := a.kv.Get(ctx, a.key)
	if err != nil {
		return nil, false, &ReadFailure{Key: a.key, Err: err}
	}
	if !found || len(bytes.TrimSpace(data)) == 0 {
		return nil, false, nil
	}

	state, err := Decode(data)
	if err != nil {
		return nil, false, &ReadFailure{Key: a.key, Err: err}
	}

	a.remember(data)
	return &state, true, nil
}

// LoadIfChanged loads the state only when the stored blob differs from the
// last one this adapter read or wrote. changed is false for the adapter's
// own writes.
func (a *Adapter) LoadIfChanged(ctx context.Context) (state *backend.AppState, changed bool) {
	data, found, err := a.kv.Get(ctx, a.key)
	if err != nil {
		utils.Warnf("%v", &ReadFailure{Key: a.key, Err: err})
		return nil, false
	}
	if !found {
		return nil, false
	}

	sum := sha256.Sum256(data)
	a.mu.Lock()
	same := a.seen && sum == a.last
	a.mu.Unlock()
	if same {
		return nil, false
	}

	decoded, err := Decode(data)
	if err != nil {
		utils.Warnf("%v", &ReadFailure{Key: a.key, Err: err})
		return nil, false
	}
	a.remember(data)
	return &decoded, true
}

// Save writes the full state. Failures are logged and otherwise ignored.
func (a *Adapter) Save(ctx context.Context, state backend.AppState) {
	if err := a.SaveErr(ctx, state); err != nil {
		utils.Errorf("%v", err)
	}
}

// SaveErr is Save with the failure returned as a *WriteFailure.
func (a *Adapter) SaveErr(ctx context.Context, state backend.AppState) error {
	data, err := Encode(state)
	if err != nil {
		return &WriteFailure{Key: a.key, Err: err}
	}
	if err := a.kv.Set(ctx, a.key, data); err != nil {
		return &WriteFailure{Key: a.key, Err: err}
	}
	a.remember(data)
	utils.Debugf("saved %d tasks, %d categories (%d bytes)", len(state.Tasks), len(state.Categories), len(data))
	return nil
}

// Clear removes the stored blob. Failures are logged only.
func (a *Adapter) Clear(ctx context.Context) {
	if err := a.kv.Delete(ctx, a.key); err != nil {
		utils.Errorf("%v", &WriteFailure{Key: a.key, Err: err})
		return
	}
	a.mu.Lock()
	a.seen = false
	a.mu.Unlock()
}

func (a *Adapter) remember(data []byte) {
	sum := sha256.Sum256(data)
	a.mu.Lock()
	a.last = sum
	a.seen = true
	a.mu.Unlock()
}
