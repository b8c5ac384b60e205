package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"tidytodo/internal/transfer"
)

// newExportCmd creates the 'export' subcommand
func newExportCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all tasks and categories",
		Long:  "Write the whole state as JSON, YAML or TOML to stdout or a file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatStr, _ := cmd.Flags().GetString("format")
			output, _ := cmd.Flags().GetString("output")
			return withApp(cfg, func(ctx context.Context, a *app) error {
				return doExport(a, formatStr, output, cfg, stdout)
			})
		},
	}
	cmd.Flags().StringP("format", "f", "", "json, yaml, toml or markdown (default: from --output extension, else json)")
	cmd.Flags().StringP("output", "o", "", "Write to this file instead of stdout")
	return cmd
}

func doExport(a *app, formatStr, output string, cfg *Config, stdout io.Writer) error {
	format := transfer.FormatFromPath(output)
	if formatStr != "" {
		var err error
		if format, err = transfer.ParseFormat(formatStr); err != nil {
			return err
		}
	}

	state := a.store.State()
	if output == "" {
		return transfer.Export(stdout, state, format)
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	if err := transfer.Export(f, state, format); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}

	_, _ = fmt.Fprintf(stdout, "Exported %d tasks and %d categories to %s\n", len(state.Tasks), len(state.Categories), output)
	printResult(stdout, cfg, ResultActionCompleted)
	return nil
}

// newImportCmd creates the 'import' subcommand
func newImportCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Replace all tasks and categories with an export",
		Long:  "Validate an export file and replace the current state with it. Use - to read stdin.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatStr, _ := cmd.Flags().GetString("format")
			return withApp(cfg, func(ctx context.Context, a *app) error {
				return doImport(ctx, a, args[0], formatStr, cfg, stdout)
			})
		},
	}
	cmd.Flags().StringP("format", "f", "", "json, yaml, toml or markdown (default: from file extension, else json)")
	return cmd
}

func doImport(ctx context.Context, a *app, path, formatStr string, cfg *Config, stdout io.Writer) error {
	format := transfer.FormatFromPath(path)
	if formatStr != "" {
		var err error
		if format, err = transfer.ParseFormat(formatStr); err != nil {
			return err
		}
	}

	var r io.Reader
	if path == "-" {
		r = cfg.stdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open import file: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	state, err := transfer.ImportFormat(r, format)
	if err != nil {
		return err
	}

	current := a.store.State()
	prompt := fmt.Sprintf("Replace %d tasks and %d categories with %d tasks and %d categories?",
		len(current.Tasks), len(current.Categories), len(state.Tasks), len(state.Categories))
	if path != "-" && !confirm(cfg, stdout, prompt) {
		_, _ = fmt.Fprintln(stdout, "Cancelled")
		return nil
	}

	a.store.Replace(ctx, state)

	_, _ = fmt.Fprintf(stdout, "Imported %d tasks and %d categories\n", len(state.Tasks), len(state.Categories))
	printResult(stdout, cfg, ResultActionCompleted)
	return nil
}
