package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"tidytodo/backend"
	"tidytodo/internal/config"
	"tidytodo/internal/storage"
	"tidytodo/internal/utils"
)

// storageLocation is a backend name plus where it keeps its data
type storageLocation struct {
	backend string
	path    string
}

func (l storageLocation) String() string {
	if l.path == "" {
		return l.backend
	}
	return l.backend + " (" + l.path + ")"
}

type migrateResponse struct {
	From       string `json:"from"`
	To         string `json:"to"`
	Tasks      int    `json:"tasks"`
	Categories int    `json:"categories"`
	Result     string `json:"result"`
}

// newMigrateCmd creates the 'migrate' subcommand
func newMigrateCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy the saved state to another storage backend",
		Long: `Copy every task and category from one storage backend to another.

The source defaults to the configured backend. Data already saved in the
target under the same storage key is replaced.`,
		Example: `  tidytodo migrate --to file
  tidytodo migrate --from file --from-path ~/todo-state --to sqlite`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			from, _ := cmd.Flags().GetString("from")
			fromPath, _ := cmd.Flags().GetString("from-path")
			to, _ := cmd.Flags().GetString("to")
			toPath, _ := cmd.Flags().GetString("to-path")
			return doMigrate(context.Background(), cfg, stdout, from, fromPath, to, toPath)
		},
	}

	cmd.Flags().String("from", "", "Source backend (default: the configured backend)")
	cmd.Flags().String("from-path", "", "Source storage path (default: the backend's usual location)")
	cmd.Flags().String("to", "", "Target backend: sqlite or file")
	cmd.Flags().String("to-path", "", "Target storage path (default: the backend's usual location)")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

// resolveLocation fills in the backend and path from the config when not given
func resolveLocation(appCfg *config.Config, name, path string) storageLocation {
	if name == "" {
		name = appCfg.Storage.Backend
	}
	switch {
	case path != "":
		path = config.ExpandPath(path)
	case name == appCfg.Storage.Backend:
		path = appCfg.Storage.Path
	default:
		path = config.DefaultStoragePath(name)
	}
	return storageLocation{backend: name, path: path}
}

func openLocation(loc storageLocation) (backend.KeyValueStore, error) {
	kv, err := backend.Open(loc.backend, loc.path)
	if err != nil {
		return nil, utils.WrapWithSuggestion(
			fmt.Errorf("failed to open %s storage: %w", loc, err),
			"Available backends: "+strings.Join(backend.Registered(), ", "),
		)
	}
	return kv, nil
}

func doMigrate(ctx context.Context, cfg *Config, stdout io.Writer, from, fromPath, to, toPath string) error {
	appCfg, err := loadConfig(cfg)
	if err != nil {
		return err
	}

	src := resolveLocation(appCfg, from, fromPath)
	dst := resolveLocation(appCfg, to, toPath)
	if src == dst {
		return utils.WrapWithSuggestion(
			fmt.Errorf("source and target are the same storage: %s", src),
			"Pass --to-path to copy into another location",
		)
	}
	if dst.backend == "memory" {
		return utils.WrapWithSuggestion(
			fmt.Errorf("cannot migrate to memory storage: it is discarded on exit"),
			"Choose sqlite or file as the target",
		)
	}

	srcKV, err := openLocation(src)
	if err != nil {
		return err
	}
	defer func() { _ = srcKV.Close() }()

	dstKV, err := openLocation(dst)
	if err != nil {
		return err
	}
	defer func() { _ = dstKV.Close() }()

	state, found, err := storage.New(srcKV, appCfg.Storage.Key).LoadErr(ctx)
	if err != nil {
		return fmt.Errorf("failed to read %s storage: %w", src, err)
	}
	if !found {
		return utils.WrapWithSuggestion(
			fmt.Errorf("no saved state in %s storage at %s", src.backend, src.path),
			"Check --from and --from-path",
		)
	}

	dstAdapter := storage.New(dstKV, appCfg.Storage.Key)

	existing, exists, err := dstAdapter.LoadErr(ctx)
	if err != nil {
		utils.Warnf("Target %s storage holds unreadable state that will be replaced: %v", dst, err)
	}
	if exists {
		prompt := fmt.Sprintf("Replace %d tasks and %d categories in %s storage?",
			len(existing.Tasks), len(existing.Categories), dst)
		if !confirm(cfg, stdout, prompt) {
			_, _ = fmt.Fprintln(stdout, "Cancelled")
			return nil
		}
	}

	if err := dstAdapter.SaveErr(ctx, *state); err != nil {
		return fmt.Errorf("failed to write %s storage: %w", dst, err)
	}
	utils.Infof("Migrated state from %s to %s", src, dst)

	if cfg.OutputFormat == "json" {
		return writeJSON(stdout, migrateResponse{
			From:       src.backend,
			To:         dst.backend,
			Tasks:      len(state.Tasks),
			Categories: len(state.Categories),
			Result:     ResultActionCompleted,
		})
	}

	_, _ = fmt.Fprintf(stdout, "Migrated %d tasks and %d categories from %s to %s\n",
		len(state.Tasks), len(state.Categories), src.backend, dst.backend)
	if dst.backend != appCfg.Storage.Backend {
		_, _ = fmt.Fprintf(stdout, "Set storage.backend: %s in the config to use it\n", dst.backend)
	}
	printResult(stdout, cfg, ResultActionCompleted)
	return nil
}
