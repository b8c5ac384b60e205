package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"tidytodo/internal/analytics"
	"tidytodo/internal/utils"
)

// trackingSettings carries the analytics config from loadConfig to Execute
type trackingSettings struct {
	enabled       bool
	path          string
	retentionDays int
	backend       string
}

func (s *trackingSettings) isEnabled() bool {
	return s != nil && analytics.IsEnabledFromEnv(s.enabled)
}

// trackCommand records a finished command. Commands that never loaded the
// config (help, version) are not recorded.
func trackCommand(root *cobra.Command, args []string, cfg *Config, elapsed time.Duration, cmdErr error) {
	if !cfg.tracking.isEnabled() {
		return
	}
	c, _, err := root.Find(args)
	if err != nil || c == root {
		return
	}

	command := strings.TrimPrefix(c.CommandPath(), root.Name()+" ")
	var flags []string
	c.Flags().Visit(func(f *pflag.Flag) {
		flags = append(flags, "--"+f.Name)
	})

	tracker, err := analytics.NewTracker(cfg.tracking.path)
	if err != nil {
		utils.Debugf("analytics unavailable: %v", err)
		return
	}
	defer func() { _ = tracker.Close() }()

	ctx := context.Background()
	event := analytics.NewEvent(command, cfg.tracking.backend, flags, elapsed, cmdErr)
	if err := tracker.Record(ctx, event); err != nil {
		utils.Debugf("%v", err)
		return
	}
	if deleted, err := tracker.Cleanup(ctx, cfg.tracking.retentionDays); err != nil {
		utils.Debugf("analytics cleanup failed: %v", err)
	} else if deleted > 0 {
		utils.Debugf("Removed %d analytics events older than %d days", deleted, cfg.tracking.retentionDays)
	}
}

type commandStatsJSON struct {
	Command       string `json:"command"`
	Runs          int    `json:"runs"`
	Failures      int    `json:"failures"`
	AvgDurationMs int64  `json:"avg_duration_ms"`
	LastRun       string `json:"last_run"`
}

type eventJSON struct {
	Timestamp  string   `json:"timestamp"`
	Command    string   `json:"command"`
	Backend    string   `json:"backend,omitempty"`
	Success    bool     `json:"success"`
	DurationMs int64    `json:"duration_ms"`
	ErrorType  string   `json:"error_type,omitempty"`
	Flags      []string `json:"flags,omitempty"`
}

// newStatsCmd creates the 'stats' subcommand
func newStatsCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show local command usage statistics",
		Long:  "Show how often each command ran and how often it failed. Requires analytics.enabled in the config.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			recent, _ := cmd.Flags().GetInt("recent")
			if _, err := loadConfig(cfg); err != nil {
				return err
			}
			return doStats(context.Background(), recent, cfg, stdout)
		},
	}
	cmd.Flags().Int("recent", 0, "List the N most recent commands instead of the summary")
	return cmd
}

func doStats(ctx context.Context, recent int, cfg *Config, stdout io.Writer) error {
	if !cfg.tracking.isEnabled() {
		if cfg.OutputFormat == "json" {
			return writeJSON(stdout, []commandStatsJSON{})
		}
		_, _ = fmt.Fprintln(stdout, "Analytics are disabled. Set analytics.enabled: true in the config to collect statistics.")
		printResult(stdout, cfg, ResultInfoOnly)
		return nil
	}

	tracker, err := analytics.NewTracker(cfg.tracking.path)
	if err != nil {
		return err
	}
	defer func() { _ = tracker.Close() }()

	if recent > 0 {
		return printRecentEvents(ctx, tracker, recent, cfg, stdout)
	}

	stats, err := tracker.Summary(ctx)
	if err != nil {
		return fmt.Errorf("failed to read analytics: %w", err)
	}

	if cfg.OutputFormat == "json" {
		out := make([]commandStatsJSON, 0, len(stats))
		for _, s := range stats {
			out = append(out, commandStatsJSON{
				Command:       s.Command,
				Runs:          s.Runs,
				Failures:      s.Failures,
				AvgDurationMs: s.AvgDuration.Milliseconds(),
				LastRun:       s.LastRun.UTC().Format(time.RFC3339),
			})
		}
		return writeJSON(stdout, out)
	}

	if len(stats) == 0 {
		_, _ = fmt.Fprintln(stdout, "No commands recorded yet.")
		printResult(stdout, cfg, ResultInfoOnly)
		return nil
	}

	_, _ = fmt.Fprintf(stdout, "%-18s %6s %8s %8s  %s\n", "COMMAND", "RUNS", "FAILED", "AVG", "LAST RUN")
	for _, s := range stats {
		_, _ = fmt.Fprintf(stdout, "%-18s %6d %8d %8s  %s\n",
			s.Command, s.Runs, s.Failures, s.AvgDuration, s.LastRun.Local().Format("2006-01-02 15:04"))
	}
	printResult(stdout, cfg, ResultInfoOnly)
	return nil
}

func printRecentEvents(ctx context.Context, tracker *analytics.Tracker, limit int, cfg *Config, stdout io.Writer) error {
	events, err := tracker.Recent(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to read analytics: %w", err)
	}

	if cfg.OutputFormat == "json" {
		out := make([]eventJSON, 0, len(events))
		for _, e := range events {
			out = append(out, eventJSON{
				Timestamp:  e.Timestamp.UTC().Format(time.RFC3339),
				Command:    e.Command,
				Backend:    e.Backend,
				Success:    e.Success,
				DurationMs: e.Duration.Milliseconds(),
				ErrorType:  e.ErrorType,
				Flags:      e.Flags,
			})
		}
		return writeJSON(stdout, out)
	}

	for _, e := range events {
		status := "ok"
		if !e.Success {
			status = "failed (" + e.ErrorType + ")"
		}
		line := fmt.Sprintf("%s  %-18s %s", e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Command, status)
		if len(e.Flags) > 0 {
			line += "  " + strings.Join(e.Flags, " ")
		}
		_, _ = fmt.Fprintln(stdout, line)
	}
	printResult(stdout, cfg, ResultInfoOnly)
	return nil
}
