package reminder

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tidytodo/backend"
	"tidytodo/internal/notification"
)

type fakeNotifier struct {
	sent []notification.Notification
}

func (f *fakeNotifier) Send(n notification.Notification) error {
	f.sent = append(f.sent, n)
	return nil
}
func (f *fakeNotifier) Close() error      { return nil }
func (f *fakeNotifier) ChannelCount() int { return 1 }

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)

func newTestService(t *testing.T, intervals ...string) (*Service, *fakeNotifier) {
	t.Helper()
	svc, err := NewService(intervals, filepath.Join(t.TempDir(), "sub", "reminders.db"))
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	n := &fakeNotifier{}
	svc.SetNotifier(n)
	svc.SetClock(func() time.Time { return testNow })
	return svc, n
}

func task(id, title string, deadline *time.Time, completed bool) backend.Task {
	return backend.Task{ID: id, Title: title, Deadline: deadline, Completed: completed, Priority: backend.PriorityMedium}
}

func at(d time.Duration) *time.Time {
	t := testNow.Add(d)
	return &t
}

func ids(rs []Reminder) string {
	var out []string
	for _, r := range rs {
		out = append(out, r.Task.ID+"@"+r.Interval)
	}
	return strings.Join(out, ",")
}

// TestCheckTriggersOncePerInterval verifies reminders fire once and then stay quiet
func TestCheckTriggersOncePerInterval(t *testing.T) {
	svc, n := newTestService(t, "1d", "1h")
	ctx := context.Background()

	tasks := []backend.Task{
		task("soon", "Pay rent", at(30*time.Minute), false),
		task("tomorrow", "Dentist", at(20*time.Hour), false),
		task("later", "Taxes", at(72*time.Hour), false),
		task("past", "Missed", at(-time.Hour), false),
		task("done", "Finished", at(time.Minute), true),
		task("none", "Someday", nil, false),
	}

	got, err := svc.Check(ctx, tasks)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if ids(got) != "soon@1d,tomorrow@1d" {
		t.Errorf("first check = %s", ids(got))
	}
	if len(n.sent) != 2 {
		t.Fatalf("sent %d notifications, want 2", len(n.sent))
	}
	if n.sent[0].Message != "Pay rent - Due: 2026-03-10" || n.sent[0].Metadata["interval"] != "1d" {
		t.Errorf("notification = %+v", n.sent[0])
	}

	// The 1h interval is still pending for the task due in 30 minutes
	got, err = svc.Check(ctx, tasks)
	if err != nil {
		t.Fatal(err)
	}
	if ids(got) != "soon@1h" {
		t.Errorf("second check = %s", ids(got))
	}

	got, _ = svc.Check(ctx, tasks)
	if len(got) != 0 {
		t.Errorf("third check = %s, want nothing", ids(got))
	}
}

// TestCheckAtDueTime verifies "at due time" fires on the deadline's calendar day
func TestCheckAtDueTime(t *testing.T) {
	svc, _ := newTestService(t, AtDueTime)
	ctx := context.Background()

	midnight := time.Date(2026, 3, 10, 0, 0, 0, 0, time.Local)
	nextDay := midnight.AddDate(0, 0, 1)
	tasks := []backend.Task{
		task("today", "Today", &midnight, false),
		task("tomorrow", "Tomorrow", &nextDay, false),
	}

	got, err := svc.Check(ctx, tasks)
	if err != nil {
		t.Fatal(err)
	}
	if ids(got) != "today@at due time" {
		t.Errorf("check = %s", ids(got))
	}
}

// TestDisableAndEnable verifies per-task opt-out
func TestDisableAndEnable(t *testing.T) {
	svc, _ := newTestService(t, "1d")
	ctx := context.Background()
	tasks := []backend.Task{task("t1", "Pay rent", at(time.Hour), false)}

	if err := svc.Disable(ctx, "t1"); err != nil {
		t.Fatal(err)
	}
	disabled, err := svc.IsDisabled(ctx, "t1")
	if err != nil || !disabled {
		t.Fatalf("IsDisabled = %v, %v", disabled, err)
	}
	if got, _ := svc.Check(ctx, tasks); len(got) != 0 {
		t.Errorf("disabled task triggered: %s", ids(got))
	}
	if up, _ := svc.Upcoming(ctx, tasks); len(up) != 0 {
		t.Errorf("disabled task listed as upcoming")
	}

	if err := svc.Enable(ctx, "t1"); err != nil {
		t.Fatal(err)
	}
	if got, _ := svc.Check(ctx, tasks); ids(got) != "t1@1d" {
		t.Errorf("re-enabled check = %s", ids(got))
	}
}

// TestUpcoming verifies the widest interval bounds the list, nearest first
func TestUpcoming(t *testing.T) {
	svc, _ := newTestService(t, "1h", "2d", AtDueTime)
	ctx := context.Background()

	midnight := time.Date(2026, 3, 10, 0, 0, 0, 0, time.Local)
	tasks := []backend.Task{
		task("far", "Far", at(40*time.Hour), false),
		task("near", "Near", at(2*time.Hour), false),
		task("week", "Week", at(7*24*time.Hour), false),
		task("today", "Due today", &midnight, false),
		task("done", "Done", at(time.Hour), true),
	}

	up, err := svc.Upcoming(ctx, tasks)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, task := range up {
		got = append(got, task.ID)
	}
	if strings.Join(got, ",") != "today,near,far" {
		t.Errorf("Upcoming = %v", got)
	}
}

// TestStatePersists verifies sent markers survive reopening the database
func TestStatePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reminders.db")
	tasks := []backend.Task{task("t1", "Pay rent", at(time.Hour), false)}
	ctx := context.Background()

	svc, err := NewService([]string{"1d"}, path)
	if err != nil {
		t.Fatal(err)
	}
	svc.SetClock(func() time.Time { return testNow })
	if got, _ := svc.Check(ctx, tasks); len(got) != 1 {
		t.Fatalf("first check = %s", ids(got))
	}
	_ = svc.Close()

	svc, err = NewService([]string{"1d"}, path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = svc.Close() }()
	svc.SetClock(func() time.Time { return testNow })
	if got, _ := svc.Check(ctx, tasks); len(got) != 0 {
		t.Errorf("reopened check = %s, want nothing", ids(got))
	}
}

func TestNewServiceRejectsBadInterval(t *testing.T) {
	_, err := NewService([]string{"1d", "soon"}, filepath.Join(t.TempDir(), "r.db"))
	if err == nil || !strings.Contains(err.Error(), "invalid interval format: soon") {
		t.Errorf("NewService() error = %v", err)
	}
}

func TestParseInterval(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		atDue   bool
		wantErr bool
	}{
		{"1d", 24 * time.Hour, false, false},
		{"2 days", 48 * time.Hour, false, false},
		{"1h", time.Hour, false, false},
		{"15 minutes", 15 * time.Minute, false, false},
		{"15m", 15 * time.Minute, false, false},
		{"1w", 7 * 24 * time.Hour, false, false},
		{" At Due Time ", 0, true, false},
		{"tomorrow", 0, false, true},
		{"-1d", 0, false, true},
	}

	for _, tt := range tests {
		got, atDue, err := ParseInterval(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseInterval(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want || atDue != tt.atDue {
			t.Errorf("ParseInterval(%q) = %v, %v; want %v, %v", tt.in, got, atDue, tt.want, tt.atDue)
		}
	}
}
