// Package watcher reloads state when another process rewrites the stored
// blob. It watches the storage directory and reports debounced changes to
// the file that holds the key.
package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"tidytodo/internal/debounce"
	"tidytodo/internal/utils"
)

// DefaultDebounceDuration is the default debounce window for batching rapid changes.
const DefaultDebounceDuration = 250 * time.Millisecond

// Config holds file watcher configuration.
type Config struct {
	File             string        // File holding the state blob
	DebounceDuration time.Duration // Debounce window to batch rapid changes
	OnChange         func()        // Called after the file settles
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig(file string, onChange func()) *Config {
	return &Config{
		File:             file,
		DebounceDuration: DefaultDebounceDuration,
		OnChange:         onChange,
	}
}

// Watcher monitors the state file and triggers reloads.
type Watcher struct {
	cfg      *Config
	fsw      *fsnotify.Watcher
	debounce *debounce.Debouncer
	stopCh   chan struct{}
	doneCh   chan struct{}
	started  bool
	stopped  bool
	mu       sync.Mutex
}

// New creates a new Watcher instance.
func New(cfg *Config) (*Watcher, error) {
	if cfg.File == "" {
		return nil, fmt.Errorf("watcher needs a file to watch")
	}
	if cfg.DebounceDuration <= 0 {
		cfg.DebounceDuration = DefaultDebounceDuration
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		debounce: debounce.New(cfg.DebounceDuration),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins watching. The file's directory is watched rather than the
// file itself because writers replace the file by renaming over it.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return fmt.Errorf("watcher has been stopped and cannot be restarted")
	}
	if w.started {
		return nil
	}

	dir := filepath.Dir(w.cfg.File)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("failed to watch %q: %w", dir, err)
	}
	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch path %q: %w", dir, err)
	}

	w.started = true
	go w.eventLoop()

	return nil
}

// Stop stops the watcher and cancels any pending reload.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	started := w.started
	close(w.stopCh)
	_ = w.fsw.Close()
	w.mu.Unlock()

	if started {
		<-w.doneCh
	}
	w.debounce.Stop()
}

// eventLoop filters fsnotify events down to the watched file and debounces them.
func (w *Watcher) eventLoop() {
	defer close(w.doneCh)

	target := filepath.Clean(w.cfg.File)

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			// Only react to write, create, and rename events
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			utils.Debugf("watcher: %s %s", event.Op, event.Name)
			w.debounce.Trigger(w.fire)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			utils.Warnf("watcher: %v", err)
		}
	}
}

func (w *Watcher) fire() {
	select {
	case <-w.stopCh:
		return
	default:
	}
	if w.cfg.OnChange != nil {
		w.cfg.OnChange()
	}
}
