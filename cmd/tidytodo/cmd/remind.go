package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"tidytodo/internal/notification"
	"tidytodo/internal/reminder"
	"tidytodo/internal/utils"
)

type reminderJSON struct {
	Task     taskJSON `json:"task"`
	Interval string   `json:"interval"`
}

type checkRemindersResponse struct {
	Reminders []reminderJSON `json:"reminders"`
	Count     int            `json:"count"`
	Result    string         `json:"result"`
}

// newRemindCmd creates the 'remind' subcommand
func newRemindCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	remindCmd := &cobra.Command{
		Use:   "remind",
		Short: "Deadline reminders",
		Long:  "Notify about open tasks whose deadline is near. Run 'tidytodo remind check' periodically, e.g. from cron.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	remindCmd.AddCommand(newRemindCheckCmd(stdout, cfg))
	remindCmd.AddCommand(newRemindListCmd(stdout, cfg))
	remindCmd.AddCommand(newRemindToggleCmd(stdout, cfg, false))
	remindCmd.AddCommand(newRemindToggleCmd(stdout, cfg, true))
	remindCmd.AddCommand(newRemindLogCmd(stdout, cfg))

	return remindCmd
}

// withReminders opens the store and the reminder database
func withReminders(cfg *Config, fn func(ctx context.Context, a *app, svc *reminder.Service) error) error {
	return withApp(cfg, func(ctx context.Context, a *app) error {
		svc, err := reminder.NewService(a.cfg.Reminder.Intervals, a.cfg.Reminder.Path)
		if err != nil {
			return utils.WrapWithSuggestion(err, "Use reminder.intervals like 15m, 2h, 1d, 1w or \"at due time\"")
		}
		defer func() { _ = svc.Close() }()
		return fn(ctx, a, svc)
	})
}

func newRemindCheckCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Send the reminders that are due",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withReminders(cfg, func(ctx context.Context, a *app, svc *reminder.Service) error {
				return doRemindCheck(ctx, a, svc, cfg, stdout)
			})
		},
	}
}

func doRemindCheck(ctx context.Context, a *app, svc *reminder.Service, cfg *Config, stdout io.Writer) error {
	if !a.cfg.Reminder.Enabled {
		if a.jsonOutput(cfg) {
			return writeJSON(stdout, checkRemindersResponse{Reminders: []reminderJSON{}, Result: ResultInfoOnly})
		}
		_, _ = fmt.Fprintln(stdout, "Reminders are disabled. Set reminder.enabled: true in the config to send them.")
		printResult(stdout, cfg, ResultInfoOnly)
		return nil
	}

	notifier := notification.NewManager(&notification.Config{
		OSNotification: a.cfg.IsReminderOSNotificationEnabled(),
		LogNotification: notification.LogNotificationConfig{
			Enabled: a.cfg.IsReminderLogEnabled(),
			Path:    a.cfg.Reminder.LogPath,
		},
	})
	defer func() { _ = notifier.Close() }()
	svc.SetNotifier(notifier)

	reminders, err := svc.Check(ctx, a.store.Tasks())
	if err != nil {
		return fmt.Errorf("failed to check reminders: %w", err)
	}
	utils.Debugf("Sent %d reminders", len(reminders))

	result := ResultInfoOnly
	if len(reminders) > 0 {
		result = ResultActionCompleted
	}

	if a.jsonOutput(cfg) {
		names := categoryNames(a.store)
		out := make([]reminderJSON, 0, len(reminders))
		for _, r := range reminders {
			out = append(out, reminderJSON{Task: taskToJSON(r.Task, names), Interval: r.Interval})
		}
		return writeJSON(stdout, checkRemindersResponse{Reminders: out, Count: len(out), Result: result})
	}

	if len(reminders) == 0 {
		_, _ = fmt.Fprintln(stdout, "No reminders due.")
	}
	for _, r := range reminders {
		_, _ = fmt.Fprintf(stdout, "Reminder: %s due %s (%s)\n", r.Task.Title, r.Task.Deadline.Local().Format("2006-01-02"), r.Interval)
	}
	printResult(stdout, cfg, result)
	return nil
}

func newRemindListCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List open tasks with a deadline inside the reminder window",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withReminders(cfg, func(ctx context.Context, a *app, svc *reminder.Service) error {
				upcoming, err := svc.Upcoming(ctx, a.store.Tasks())
				if err != nil {
					return err
				}
				names := categoryNames(a.store)

				if a.jsonOutput(cfg) {
					out := make([]taskJSON, 0, len(upcoming))
					for _, t := range upcoming {
						out = append(out, taskToJSON(t, names))
					}
					return writeJSON(stdout, listTasksResponse{Tasks: out, Count: len(out), Result: ResultInfoOnly})
				}

				if len(upcoming) == 0 {
					_, _ = fmt.Fprintln(stdout, "No upcoming deadlines.")
				} else {
					_, _ = fmt.Fprintf(stdout, "Upcoming deadlines (%d):\n\n", len(upcoming))
					for _, t := range upcoming {
						printTask(stdout, t, names)
					}
				}
				printResult(stdout, cfg, ResultInfoOnly)
				return nil
			})
		},
	}
}

// newRemindToggleCmd creates 'remind enable' or 'remind disable'
func newRemindToggleCmd(stdout io.Writer, cfg *Config, enable bool) *cobra.Command {
	use, short := "disable [task]", "Stop reminders for a task"
	if enable {
		use, short = "enable [task]", "Resume reminders for a task"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withReminders(cfg, func(ctx context.Context, a *app, svc *reminder.Service) error {
				task, err := resolveTask(cfg, a.store, args[0], "update", stdout)
				if err != nil {
					return err
				}
				if enable {
					err = svc.Enable(ctx, task.ID)
				} else {
					err = svc.Disable(ctx, task.ID)
				}
				if err != nil {
					return fmt.Errorf("failed to update reminder settings: %w", err)
				}

				state := "disabled"
				if enable {
					state = "enabled"
				}
				_, _ = fmt.Fprintf(stdout, "Reminders %s for: %s\n", state, task.Title)
				printResult(stdout, cfg, ResultActionCompleted)
				return nil
			})
		},
	}
}

func newRemindLogCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	logCmd := &cobra.Command{
		Use:   "log",
		Short: "Show sent reminders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			appCfg, err := loadConfig(cfg)
			if err != nil {
				return err
			}
			entries, err := notification.ReadLog(appCfg.Reminder.LogPath)
			if err != nil {
				return fmt.Errorf("failed to read reminder log: %w", err)
			}
			if len(entries) == 0 {
				_, _ = fmt.Fprintln(stdout, "No reminders logged.")
			}
			for _, e := range entries {
				_, _ = fmt.Fprintln(stdout, e)
			}
			printResult(stdout, cfg, ResultInfoOnly)
			return nil
		},
	}

	logCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Clear the reminder log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			appCfg, err := loadConfig(cfg)
			if err != nil {
				return err
			}
			if err := notification.ClearLog(appCfg.Reminder.LogPath); err != nil {
				return fmt.Errorf("failed to clear reminder log: %w", err)
			}
			_, _ = fmt.Fprintln(stdout, "Reminder log cleared")
			printResult(stdout, cfg, ResultActionCompleted)
			return nil
		},
	})

	return logCmd
}
