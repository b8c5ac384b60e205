// Package reminder notifies about open tasks whose deadline is near.
//
// Each configured interval fires at most once per task. The sent markers and
// per-task opt-outs live in a small SQLite database next to the task data.
package reminder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"tidytodo/backend"
	"tidytodo/internal/notification"

	_ "modernc.org/sqlite"
)

// AtDueTime is the interval that fires on the deadline's calendar day
const AtDueTime = "at due time"

// Reminder is one triggered reminder
type Reminder struct {
	Task     backend.Task
	Interval string
}

// Service manages task reminders
type Service struct {
	intervals []string
	db        *sql.DB
	notifier  notification.NotificationManager
	now       func() time.Time
}

// NewService opens the reminder database and validates the intervals
func NewService(intervals []string, dbPath string) (*Service, error) {
	for _, interval := range intervals {
		if _, _, err := ParseInterval(interval); err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create reminder directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open reminder database: %w", err)
	}
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sent_reminders (
			task_id TEXT NOT NULL,
			interval TEXT NOT NULL,
			sent_at INTEGER NOT NULL,
			PRIMARY KEY (task_id, interval)
		);
		CREATE TABLE IF NOT EXISTS disabled_tasks (
			task_id TEXT PRIMARY KEY,
			disabled_at INTEGER NOT NULL
		);
	`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create reminder tables: %w", err)
	}

	return &Service{
		intervals: intervals,
		db:        db,
		now:       time.Now,
	}, nil
}

// Close releases resources
func (s *Service) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SetNotifier sets the notification manager for sending reminders
func (s *Service) SetNotifier(notifier notification.NotificationManager) {
	s.notifier = notifier
}

// SetClock replaces the time source
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Check finds open tasks with a reminder due, marks the reminder sent and
// notifies. A task triggers at most one reminder per call.
func (s *Service) Check(ctx context.Context, tasks []backend.Task) ([]Reminder, error) {
	var triggered []Reminder
	now := s.now()

	for _, task := range tasks {
		if task.Deadline == nil || task.Completed {
			continue
		}

		disabled, err := s.IsDisabled(ctx, task.ID)
		if err != nil {
			return nil, err
		}
		if disabled {
			continue
		}

		for _, interval := range s.intervals {
			if !shouldTrigger(interval, *task.Deadline, now) {
				continue
			}

			sent, err := s.wasSent(ctx, task.ID, interval)
			if err != nil {
				return nil, err
			}
			if sent {
				continue
			}

			if err := s.markSent(ctx, task.ID, interval, now); err != nil {
				return nil, err
			}
			triggered = append(triggered, Reminder{Task: task, Interval: interval})
			s.notify(task, interval, now)
			break
		}
	}

	return triggered, nil
}

// shouldTrigger reports whether interval is active for a deadline at now
func shouldTrigger(interval string, deadline, now time.Time) bool {
	duration, atDue, err := ParseInterval(interval)
	if err != nil {
		return false
	}
	if atDue {
		// Calendar day in local time, not a UTC truncation
		dueY, dueM, dueD := deadline.Local().Date()
		nowY, nowM, nowD := now.Local().Date()
		return dueY == nowY && dueM == nowM && dueD == nowD
	}
	until := deadline.Sub(now)
	return until >= 0 && until <= duration
}

func (s *Service) notify(task backend.Task, interval string, now time.Time) {
	if s.notifier == nil {
		return
	}
	n := notification.Notification{
		Type:      notification.NotifyReminder,
		Title:     "Task Reminder",
		Message:   fmt.Sprintf("%s - Due: %s", task.Title, task.Deadline.Local().Format("2006-01-02")),
		Timestamp: now,
		Metadata: map[string]string{
			"task_id":  task.ID,
			"interval": interval,
		},
	}
	// Delivery failures do not undo the sent marker
	_ = s.notifier.Send(n)
}

// Upcoming returns open tasks whose deadline falls within the widest
// interval, nearest deadline first. Tasks due today count when
// "at due time" is configured.
func (s *Service) Upcoming(ctx context.Context, tasks []backend.Task) ([]backend.Task, error) {
	var window time.Duration
	atDue := false
	for _, interval := range s.intervals {
		d, isAtDue, err := ParseInterval(interval)
		if err != nil {
			continue
		}
		if isAtDue {
			atDue = true
		}
		window = max(window, d)
	}

	now := s.now()
	var upcoming []backend.Task
	for _, task := range tasks {
		if task.Deadline == nil || task.Completed {
			continue
		}
		until := task.Deadline.Sub(now)
		inWindow := until >= 0 && until <= window
		if !inWindow && !(atDue && shouldTrigger(AtDueTime, *task.Deadline, now)) {
			continue
		}

		disabled, err := s.IsDisabled(ctx, task.ID)
		if err != nil {
			return nil, err
		}
		if !disabled {
			upcoming = append(upcoming, task)
		}
	}

	slices.SortStableFunc(upcoming, func(a, b backend.Task) int {
		return a.Deadline.Compare(*b.Deadline)
	})
	return upcoming, nil
}

// Disable turns reminders off for a task
func (s *Service) Disable(ctx context.Context, taskID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO disabled_tasks (task_id, disabled_at) VALUES (?, ?)
	`, taskID, s.now().Unix())
	return err
}

// Enable turns reminders back on for a task
func (s *Service) Enable(ctx context.Context, taskID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM disabled_tasks WHERE task_id = ?`, taskID)
	return err
}

// IsDisabled reports whether reminders are off for a task
func (s *Service) IsDisabled(ctx context.Context, taskID string) (bool, error) {
	var disabledAt int64
	err := s.db.QueryRowContext(ctx, `SELECT disabled_at FROM disabled_tasks WHERE task_id = ?`, taskID).Scan(&disabledAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) wasSent(ctx context.Context, taskID, interval string) (bool, error) {
	var sentAt int64
	err := s.db.QueryRowContext(ctx, `
		SELECT sent_at FROM sent_reminders WHERE task_id = ? AND interval = ?
	`, taskID, interval).Scan(&sentAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) markSent(ctx context.Context, taskID, interval string, now time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO sent_reminders (task_id, interval, sent_at) VALUES (?, ?, ?)
	`, taskID, interval, now.Unix())
	return err
}

var intervalPattern = regexp.MustCompile(`^(\d+)\s*(d|day|days|h|hour|hours|m|min|minute|minutes|w|week|weeks)$`)

// ParseInterval parses an interval string and returns the duration.
// Returns (duration, isAtDueTime, error).
// isAtDueTime is true for "at due time" which means trigger on the due date itself.
// Supports both shorthand formats (1d, 1h, 15m, 1w) and full word formats (1 day, 1 hour, 15 minutes, 1 week).
func ParseInterval(interval string) (time.Duration, bool, error) {
	interval = strings.TrimSpace(strings.ToLower(interval))

	if interval == AtDueTime {
		return 0, true, nil
	}

	matches := intervalPattern.FindStringSubmatch(interval)
	if matches == nil {
		return 0, false, fmt.Errorf("invalid interval format: %s", interval)
	}

	num, _ := strconv.Atoi(matches[1])

	var unit time.Duration
	switch matches[2] {
	case "d", "day", "days":
		unit = 24 * time.Hour
	case "h", "hour", "hours":
		unit = time.Hour
	case "m", "min", "minute", "minutes":
		unit = time.Minute
	case "w", "week", "weeks":
		unit = 7 * 24 * time.Hour
	}

	return time.Duration(num) * unit, false, nil
}
