package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"tidytodo/backend/file"
	"tidytodo/backend/sqlite"
)

type infoResponse struct {
	Backend    string  `json:"backend"`
	Path       string  `json:"path,omitempty"`
	Key        string  `json:"key"`
	Tasks      int     `json:"tasks"`
	Completed  int     `json:"completed"`
	Categories int     `json:"categories"`
	LastSaved  *string `json:"last_saved,omitempty"`
	File       string  `json:"file,omitempty"`
}

// newInfoCmd creates the 'info' subcommand
func newInfoCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show where tasks are stored and how many there are",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(ctx context.Context, a *app) error {
				return doInfo(ctx, a, cfg, stdout)
			})
		},
	}
}

func doInfo(ctx context.Context, a *app, cfg *Config, stdout io.Writer) error {
	state := a.store.State()
	info := infoResponse{
		Backend:    a.cfg.Storage.Backend,
		Path:       a.cfg.Storage.Path,
		Key:        a.adapter.Key(),
		Tasks:      len(state.Tasks),
		Categories: len(state.Categories),
	}
	for _, t := range state.Tasks {
		if t.Completed {
			info.Completed++
		}
	}

	var lastSaved time.Time
	switch kv := a.kv.(type) {
	case *sqlite.Backend:
		if at, ok, err := kv.UpdatedAt(ctx, a.adapter.Key()); err == nil && ok {
			lastSaved = at
		}
	case *file.Backend:
		if path, err := kv.KeyPath(a.adapter.Key()); err == nil {
			info.File = path
		}
	}
	if !lastSaved.IsZero() {
		s := lastSaved.UTC().Format(time.RFC3339)
		info.LastSaved = &s
	}

	if a.jsonOutput(cfg) {
		return writeJSON(stdout, info)
	}

	_, _ = fmt.Fprintf(stdout, "Backend:    %s\n", info.Backend)
	if info.Path != "" {
		_, _ = fmt.Fprintf(stdout, "Path:       %s\n", info.Path)
	}
	if info.File != "" {
		_, _ = fmt.Fprintf(stdout, "File:       %s\n", info.File)
	}
	_, _ = fmt.Fprintf(stdout, "Key:        %s\n", info.Key)
	_, _ = fmt.Fprintf(stdout, "Tasks:      %d (%d completed)\n", info.Tasks, info.Completed)
	_, _ = fmt.Fprintf(stdout, "Categories: %d\n", info.Categories)
	if !lastSaved.IsZero() {
		_, _ = fmt.Fprintf(stdout, "Last saved: %s (%s)\n", lastSaved.Local().Format("2006-01-02 15:04:05"), formatAge(lastSaved))
	}
	printResult(stdout, cfg, ResultInfoOnly)
	return nil
}

// formatAge renders how long ago t was
func formatAge(t time.Time) string {
	d := time.Since(t).Round(time.Second)
	if d < time.Minute {
		return "just now"
	}
	return d.String() + " ago"
}
