package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"tidytodo/internal/views"
)

// newViewCmd creates the 'view' subcommand for view management
func newViewCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	viewCmd := &cobra.Command{
		Use:   "view",
		Short: "Manage saved views",
		Long:  "Saved views are YAML presets of filters and a sort key, applied with 'task list --view'.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	viewCmd.AddCommand(newViewListCmd(stdout, cfg))
	viewCmd.AddCommand(newViewInitCmd(stdout, cfg))

	return viewCmd
}

// newViewListCmd creates the 'view list' subcommand
func newViewListCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available views",
		Long:  "List all available views including built-in and custom views.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			appCfg, err := loadConfig(cfg)
			if err != nil {
				return err
			}
			return doViewList(appCfg.ViewsDir, cfg, stdout)
		},
	}
}

type viewJSON struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	BuiltIn     bool   `json:"built_in"`
	Overrides   bool   `json:"overrides,omitempty"`
}

// doViewList displays all available views
func doViewList(viewsDir string, cfg *Config, stdout io.Writer) error {
	viewList, err := views.NewLoader(viewsDir).ListViews()
	if err != nil {
		return err
	}

	if cfg.OutputFormat == "json" {
		out := make([]viewJSON, 0, len(viewList))
		for _, v := range viewList {
			out = append(out, viewJSON{Name: v.Name, Description: v.Description, BuiltIn: v.BuiltIn, Overrides: v.Overrides})
		}
		return writeJSON(stdout, out)
	}

	_, _ = fmt.Fprintln(stdout, "Available views:")
	for _, v := range viewList {
		viewType := "custom"
		if v.BuiltIn {
			viewType = "built-in"
		} else if v.Overrides {
			viewType = "overrides built-in"
		}
		line := fmt.Sprintf("  - %s (%s)", v.Name, viewType)
		if v.Description != "" {
			line += ": " + v.Description
		}
		_, _ = fmt.Fprintln(stdout, line)
	}

	printResult(stdout, cfg, ResultInfoOnly)
	return nil
}

// newViewInitCmd creates the 'view init' subcommand
func newViewInitCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the views folder with example views",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			appCfg, err := loadConfig(cfg)
			if err != nil {
				return err
			}
			created, err := views.SetupViewsFolder(appCfg.ViewsDir)
			if err != nil {
				return fmt.Errorf("failed to create views folder: %w", err)
			}
			if created {
				_, _ = fmt.Fprintf(stdout, "Created views folder with examples: %s\n", appCfg.ViewsDir)
				printResult(stdout, cfg, ResultActionCompleted)
			} else {
				_, _ = fmt.Fprintf(stdout, "Views folder already exists: %s\n", appCfg.ViewsDir)
				printResult(stdout, cfg, ResultInfoOnly)
			}
			return nil
		},
	}
}
