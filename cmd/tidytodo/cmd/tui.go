package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"tidytodo/backend/file"
	"tidytodo/internal/config"
	"tidytodo/internal/shutdown"
	"tidytodo/internal/tui"
	"tidytodo/internal/utils"
	"tidytodo/internal/watcher"
)

// shutdownTimeout bounds how long cleanups may take after the TUI exits
const shutdownTimeout = 5 * time.Second

// newTUICmd creates the 'tui' subcommand
func newTUICmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the terminal interface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, cfg, stdout)
		},
	}
}

// runTUI opens the store, starts the external-change watcher when the
// file backend is in use, and runs the TUI until quit or a signal.
func runTUI(cmd *cobra.Command, cfg *Config, stdout io.Writer) error {
	mgr := shutdown.NewManager()
	mgr.ListenForSignals()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := mgr.Close(ctx); err != nil {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Warning: shutdown did not finish:", err)
		}
	}()

	// The TUI owns the terminal, so logs go to a file
	logPath := filepath.Join(config.GetStateDir(), "tidytodo.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		utils.GetLogger().SetOutput(io.Discard)
	} else if logFile, err := utils.RedirectToFile(logPath); err == nil {
		mgr.RegisterCleanup("log file", func(context.Context) error {
			logFile.Close()
			return nil
		})
	}

	ctx := mgr.Context()
	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	mgr.RegisterCloser("storage", a.close)

	model := tui.New(ctx, a.store)
	opts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx), tea.WithOutput(stdout)}
	if cfg.Stdin != nil {
		opts = append(opts, tea.WithInput(cfg.Stdin))
	}
	p := tea.NewProgram(model, opts...)

	if err := startWatcher(mgr, a, p); err != nil {
		utils.Warnf("external changes will not be picked up: %v", err)
	}

	utils.Infof("TUI started with %s storage", a.cfg.Storage.Backend)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// startWatcher reloads the store when another process rewrites the state
// file and tells the program to redraw.
func startWatcher(mgr *shutdown.Manager, a *app, p *tea.Program) error {
	if !a.cfg.IsWatchEnabled() {
		return nil
	}
	fb, ok := a.kv.(*file.Backend)
	if !ok {
		return nil
	}
	path, err := fb.KeyPath(a.adapter.Key())
	if err != nil {
		return err
	}

	ctx := mgr.Context()
	w, err := watcher.New(watcher.DefaultConfig(path, func() {
		if a.store.ReloadIfChanged(ctx) {
			utils.Infof("Reloaded state changed by another process")
			p.Send(tui.ExternalChangeMsg{})
		}
	}))
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}
	mgr.RegisterCleanup("watcher", func(context.Context) error {
		w.Stop()
		return nil
	})
	return nil
}
