package cmd_test

import (
	"path/filepath"
	"testing"

	"tidytodo/internal/testutil"
)

func enableReminders(cli *testutil.CLITest, extra string) {
	cli.SetConfigValue("reminder", "{enabled: true, os_notification: false"+
		", path: "+filepath.Join(cli.TmpDir(), "reminders.db")+
		", log_path: "+filepath.Join(cli.TmpDir(), "reminders.log")+extra+"}")
}

func TestRemindCheckDisabled(t *testing.T) {
	cli := testutil.NewCLITest(t)
	cli.MustExecute("task", "add", "Pay rent", "--deadline", "today")

	out := cli.MustExecute("remind", "check")
	testutil.AssertContains(t, out, "Reminders are disabled")
	testutil.AssertResultCode(t, out, testutil.ResultInfoOnly)
}

// TestRemindCheckSendsOnce verifies due reminders are reported, logged and not repeated
func TestRemindCheckSendsOnce(t *testing.T) {
	cli := testutil.NewCLITest(t)
	enableReminders(cli, "")
	cli.MustExecute("task", "add", "Pay rent", "--deadline", "today")
	cli.MustExecute("task", "add", "Dentist", "--deadline", "tomorrow")
	cli.MustExecute("task", "add", "Taxes", "--deadline", "+30d")
	cli.MustExecute("task", "add", "Old news", "--deadline", "today")
	cli.MustExecute("task", "done", "Old news")

	out := cli.MustExecute("remind", "check")
	testutil.AssertContains(t, out, "Reminder: Pay rent due")
	testutil.AssertContains(t, out, "(at due time)")
	testutil.AssertContains(t, out, "Reminder: Dentist due")
	testutil.AssertNotContains(t, out, "Taxes")
	testutil.AssertNotContains(t, out, "Old news")
	testutil.AssertResultCode(t, out, testutil.ResultActionCompleted)

	out = cli.MustExecute("remind", "check")
	testutil.AssertContains(t, out, "No reminders due.")
	testutil.AssertResultCode(t, out, testutil.ResultInfoOnly)

	out = cli.MustExecute("remind", "log")
	testutil.AssertContains(t, out, "[REMINDER] Pay rent - Due:")
	testutil.AssertContains(t, out, "[REMINDER] Dentist - Due:")

	cli.MustExecute("remind", "log", "clear")
	out = cli.MustExecute("remind", "log")
	testutil.AssertContains(t, out, "No reminders logged.")
}

// TestRemindList verifies upcoming deadlines are listed nearest first
func TestRemindList(t *testing.T) {
	cli := testutil.NewCLITest(t)
	enableReminders(cli, "")
	cli.MustExecute("task", "add", "Dentist", "--deadline", "tomorrow")
	cli.MustExecute("task", "add", "Pay rent", "--deadline", "today")
	cli.MustExecute("task", "add", "Taxes", "--deadline", "+30d")

	var resp taskListOut
	cli.MustExecuteJSON(&resp, "remind", "list")
	got := taskTitles(resp.Tasks)
	if len(got) != 2 || got[0] != "Pay rent" || got[1] != "Dentist" {
		t.Errorf("upcoming = %v", got)
	}

	out := cli.MustExecute("remind", "list")
	testutil.AssertContains(t, out, "Upcoming deadlines (2)")
}

// TestRemindDisableEnable verifies per-task opt-out from reminders
func TestRemindDisableEnable(t *testing.T) {
	cli := testutil.NewCLITest(t)
	enableReminders(cli, "")
	cli.MustExecute("task", "add", "Pay rent", "--deadline", "today")

	out := cli.MustExecute("remind", "disable", "Pay rent")
	testutil.AssertContains(t, out, "Reminders disabled for: Pay rent")

	out = cli.MustExecute("remind", "check")
	testutil.AssertContains(t, out, "No reminders due.")

	out = cli.MustExecute("remind", "enable", "Pay rent")
	testutil.AssertContains(t, out, "Reminders enabled for: Pay rent")

	out = cli.MustExecute("remind", "check")
	testutil.AssertContains(t, out, "Reminder: Pay rent")
}

func TestRemindInvalidInterval(t *testing.T) {
	cli := testutil.NewCLITest(t)
	enableReminders(cli, ", intervals: [soon]")

	_, stderr := cli.ExecuteAndFail("remind", "check")
	testutil.AssertContains(t, stderr, "invalid interval format: soon")
}
