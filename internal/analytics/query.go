package analytics

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// CommandStats summarizes every recorded run of one command
type CommandStats struct {
	Command     string
	Runs        int
	Failures    int
	AvgDuration time.Duration
	LastRun     time.Time
}

// Summary returns per-command statistics, most used first
func (t *Tracker) Summary(ctx context.Context) ([]CommandStats, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rows, err := t.db.QueryContext(ctx, `
		SELECT command,
		       COUNT(*),
		       SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END),
		       CAST(AVG(duration_ms) AS INTEGER),
		       MAX(timestamp)
		FROM events
		GROUP BY command
		ORDER BY COUNT(*) DESC, command
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var stats []CommandStats
	for rows.Next() {
		var s CommandStats
		var avgMs, last int64
		if err := rows.Scan(&s.Command, &s.Runs, &s.Failures, &avgMs, &last); err != nil {
			return nil, err
		}
		s.AvgDuration = time.Duration(avgMs) * time.Millisecond
		s.LastRun = time.Unix(last, 0)
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// Recent returns the latest events, newest first
func (t *Tracker) Recent(ctx context.Context, limit int) ([]Event, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rows, err := t.db.QueryContext(ctx, `
		SELECT id, timestamp, command, backend, success, duration_ms, error_type, flags
		FROM events
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var events []Event
	for rows.Next() {
		var (
			e                       Event
			ts, durationMs          int64
			success                 int
			backend, errType, flags sql.NullString
		)
		if err := rows.Scan(&e.ID, &ts, &e.Command, &backend, &success, &durationMs, &errType, &flags); err != nil {
			return nil, err
		}
		e.Timestamp = time.Unix(ts, 0)
		e.Backend = backend.String
		e.Success = success == 1
		e.Duration = time.Duration(durationMs) * time.Millisecond
		e.ErrorType = errType.String
		if flags.Valid {
			_ = json.Unmarshal([]byte(flags.String), &e.Flags)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
