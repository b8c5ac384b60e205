package backend

import (
	"fmt"
	"sort"
	"sync"
)

// Constructor opens a KeyValueStore rooted at path. The meaning of path is
// backend specific (a database file, a directory, or ignored).
type Constructor func(path string) (KeyValueStore, error)

// Global registry of store constructors
var (
	registryMu   sync.RWMutex
	constructors = make(map[string]Constructor)
)

// Register registers a store constructor under name.
// Backends should call this in their init() function.
func Register(name string, constructor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	constructors[name] = constructor
}

// Open opens the store registered under name
func Open(name, path string) (KeyValueStore, error) {
	registryMu.RLock()
	constructor, ok := constructors[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown storage backend: %s (available: %v)", name, Registered())
	}
	return constructor(path)
}

// Registered returns the names of all registered backends, sorted
func Registered() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
