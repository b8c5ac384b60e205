package analytics

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Tracker handles analytics event recording
type Tracker struct {
	db *sql.DB
	mu sync.Mutex
}

// NewTracker opens the analytics database, creating it when missing
func NewTracker(dbPath string) (*Tracker, error) {
	db, err := openDB(dbPath)
	if err != nil {
		return nil, err
	}
	return &Tracker{db: db}, nil
}

// Close closes the database connection
func (t *Tracker) Close() error {
	if t.db != nil {
		return t.db.Close()
	}
	return nil
}

// Record stores one event. The CLI exits right after a command, so the
// write is synchronous.
func (t *Tracker) Record(ctx context.Context, event Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var flags interface{}
	if len(event.Flags) > 0 {
		data, err := json.Marshal(event.Flags)
		if err != nil {
			return err
		}
		flags = string(data)
	}

	_, err := t.db.ExecContext(ctx, `
		INSERT INTO events (timestamp, command, backend, success, duration_ms, error_type, flags)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, event.Timestamp.Unix(), event.Command, nullString(event.Backend),
		boolToInt(event.Success), event.Duration.Milliseconds(), nullString(event.ErrorType), flags)
	if err != nil {
		return fmt.Errorf("failed to record analytics event: %w", err)
	}
	return nil
}

// Cleanup removes events older than the specified retention period.
// Returns the number of deleted events.
func (t *Tracker) Cleanup(ctx context.Context, retentionDays int) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := time.Now().Unix() - int64(retentionDays*86400)

	result, err := t.db.ExecContext(ctx, "DELETE FROM events WHERE timestamp < ?", cutoff)
	if err != nil {
		return 0, err
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	// Vacuum to reclaim space
	if deleted > 0 {
		_, _ = t.db.ExecContext(ctx, "VACUUM")
	}

	return deleted, nil
}

// categorizeError maps a command error onto a coarse type
func categorizeError(err error) string {
	if err == nil {
		return ""
	}

	errStr := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errStr, "unknown command") || strings.Contains(errStr, "unknown flag") || strings.Contains(errStr, "accepts"):
		return "usage"
	case strings.Contains(errStr, "not found"):
		return "not_found"
	case strings.Contains(errStr, "cannot delete"):
		return "in_use"
	case strings.Contains(errStr, "invalid") || strings.Contains(errStr, "required") || strings.Contains(errStr, "at most"):
		return "validation"
	case strings.Contains(errStr, "storage") || strings.Contains(errStr, "database"):
		return "storage"
	default:
		return "unknown"
	}
}

// nullString returns nil for empty strings, otherwise the string
func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// boolToInt converts a bool to 1 (true) or 0 (false)
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
