// Package shutdown coordinates releasing resources on exit or on a signal.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"tidytodo/internal/utils"
)

// CleanupFunc is a function that performs cleanup on shutdown.
// It receives a context that will be cancelled when the shutdown times out.
type CleanupFunc func(ctx context.Context) error

// cleanupEntry holds a registered cleanup function with its name.
type cleanupEntry struct {
	name string
	fn   CleanupFunc
}

// Manager handles graceful shutdown coordination.
type Manager struct {
	mu         sync.Mutex
	cleanups   []cleanupEntry
	shutdown   bool
	shutdownCh chan struct{}
	ctx        context.Context
	cancel     context.CancelFunc
	once       sync.Once
	waitOnce   sync.Once
	stopSignal func()
}

// NewManager creates a new shutdown manager.
func NewManager() *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		cleanups:   make([]cleanupEntry, 0),
		shutdownCh: make(chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// RegisterCleanup registers a cleanup function to be called during shutdown.
// Cleanup functions are called in LIFO order (last registered, first called).
func (m *Manager) RegisterCleanup(name string, fn CleanupFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanups = append(m.cleanups, cleanupEntry{name: name, fn: fn})
}

// RegisterCloser registers a cleanup that calls close.
func (m *Manager) RegisterCloser(name string, close func() error) {
	m.RegisterCleanup(name, func(context.Context) error { return close() })
}

// ListenForSignals starts shutdown on SIGINT or SIGTERM.
func (m *Manager) ListenForSignals() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopSignal != nil {
		return
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})
	m.stopSignal = func() {
		signal.Stop(sigCh)
		close(done)
	}

	go func() {
		select {
		case sig := <-sigCh:
			utils.Debugf("received %s, shutting down", sig)
			m.Shutdown()
		case <-done:
		}
	}()
}

// Shutdown initiates a graceful shutdown.
// Safe to call multiple times; only the first call has effect.
func (m *Manager) Shutdown() {
	m.once.Do(func() {
		m.mu.Lock()
		m.shutdown = true
		m.mu.Unlock()

		// Cancel the context to signal operations to stop
		m.cancel()
		close(m.shutdownCh)
	})
}

// runCleanups executes all cleanup functions in LIFO order.
// A failing cleanup is logged and the rest still run.
func (m *Manager) runCleanups(ctx context.Context) {
	m.mu.Lock()
	cleanups := make([]cleanupEntry, len(m.cleanups))
	copy(cleanups, m.cleanups)
	m.mu.Unlock()

	for i := len(cleanups) - 1; i >= 0; i-- {
		if err := cleanups[i].fn(ctx); err != nil {
			utils.Warnf("cleanup %s: %v", cleanups[i].name, err)
		}
	}
}

// Wait runs the cleanups and waits for them to finish.
// Returns ctx.Err() if they do not finish in time. Cleanups run at most once.
func (m *Manager) Wait(ctx context.Context) error {
	var err error
	m.waitOnce.Do(func() {
		m.mu.Lock()
		if m.stopSignal != nil {
			m.stopSignal()
		}
		m.mu.Unlock()

		done := make(chan struct{})
		go func() {
			m.runCleanups(ctx)
			close(done)
		}()

		select {
		case <-done:
		case <-ctx.Done():
			err = ctx.Err()
		}
	})
	return err
}

// Close shuts down and runs the cleanups.
func (m *Manager) Close(ctx context.Context) error {
	m.Shutdown()
	return m.Wait(ctx)
}

// Done returns a channel closed when shutdown starts.
func (m *Manager) Done() <-chan struct{} {
	return m.shutdownCh
}

// IsShutdown returns true if shutdown has been initiated.
func (m *Manager) IsShutdown() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shutdown
}

// Context returns a context that is cancelled when shutdown is initiated.
func (m *Manager) Context() context.Context {
	return m.ctx
}
