//go:build unix

package shutdown_test

import (
	"context"
	"syscall"
	"testing"
	"time"

	"tidytodo/internal/shutdown"
)

// TestListenForSignals verifies SIGTERM starts shutdown
func TestListenForSignals(t *testing.T) {
	mgr := shutdown.NewManager()
	mgr.ListenForSignals()
	defer func() { _ = mgr.Close(context.Background()) }()

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("failed to signal self: %v", err)
	}

	select {
	case <-mgr.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown not triggered by SIGTERM")
	}
}
