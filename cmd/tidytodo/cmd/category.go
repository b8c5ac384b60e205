package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"

	"github.com/spf13/cobra"

	"tidytodo/backend"
	"tidytodo/internal/store"
	"tidytodo/internal/utils"
)

// defaultCategoryColor is used when category add gets no --color
const defaultCategoryColor = "#6b7280"

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

type categoryJSON struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Color string  `json:"color"`
	Icon  *string `json:"icon,omitempty"`
	Tasks int     `json:"tasks"`
}

type categoryActionResponse struct {
	Action   string       `json:"action"`
	Category categoryJSON `json:"category"`
	Result   string       `json:"result"`
}

func categoryToJSON(st *store.Store, c backend.Category) categoryJSON {
	return categoryJSON{ID: c.ID, Name: c.Name, Color: c.Color, Icon: c.Icon, Tasks: st.CategoryUsage(c.ID)}
}

func validateColor(color string) error {
	if !colorPattern.MatchString(color) {
		return utils.WrapWithSuggestion(fmt.Errorf("invalid color: %s", color), "Use a hex color like #3b82f6")
	}
	return nil
}

// newCategoryCmd creates the 'category' subcommand
func newCategoryCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	categoryCmd := &cobra.Command{
		Use:     "category",
		Aliases: []string{"cat"},
		Short:   "Manage categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	categoryCmd.AddCommand(newCategoryAddCmd(stdout, cfg))
	categoryCmd.AddCommand(newCategoryListCmd(stdout, cfg))
	categoryCmd.AddCommand(newCategoryUpdateCmd(stdout, cfg))
	categoryCmd.AddCommand(newCategoryDeleteCmd(stdout, cfg))

	return categoryCmd
}

func newCategoryAddCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			color, _ := cmd.Flags().GetString("color")
			var icon *string
			if cmd.Flags().Changed("icon") {
				s, _ := cmd.Flags().GetString("icon")
				icon = &s
			}
			return withApp(cfg, func(ctx context.Context, a *app) error {
				return doCategoryAdd(ctx, a, args[0], color, icon, cfg, stdout)
			})
		},
	}
	cmd.Flags().String("color", defaultCategoryColor, "Hex color, e.g. #3b82f6")
	cmd.Flags().String("icon", "", "Icon of at most two characters, e.g. an emoji")
	return cmd
}

func doCategoryAdd(ctx context.Context, a *app, name, color string, icon *string, cfg *Config, stdout io.Writer) error {
	name, err := store.ValidateCategoryName(name, icon)
	if err != nil {
		return err
	}
	if err := validateColor(color); err != nil {
		return err
	}
	if icon != nil && *icon == "" {
		icon = nil
	}

	c := a.store.AddCategory(ctx, name, color, icon)

	if a.jsonOutput(cfg) {
		return writeJSON(stdout, categoryActionResponse{Action: "add", Category: categoryToJSON(a.store, c), Result: ResultActionCompleted})
	}
	_, _ = fmt.Fprintf(stdout, "Created category: %s (%s)\n", c.Name, shortID(c.ID))
	printResult(stdout, cfg, ResultActionCompleted)
	return nil
}

func newCategoryListCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List categories with their task counts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(ctx context.Context, a *app) error {
				return doCategoryList(a, cfg, stdout)
			})
		},
	}
}

func doCategoryList(a *app, cfg *Config, stdout io.Writer) error {
	cats := a.store.Categories()

	if a.jsonOutput(cfg) {
		out := make([]categoryJSON, 0, len(cats))
		for _, c := range cats {
			out = append(out, categoryToJSON(a.store, c))
		}
		return writeJSON(stdout, out)
	}

	if len(cats) == 0 {
		_, _ = fmt.Fprintln(stdout, "No categories. Create one with: tidytodo category add \"Personal\"")
		printResult(stdout, cfg, ResultInfoOnly)
		return nil
	}

	_, _ = fmt.Fprintf(stdout, "Categories (%d):\n\n", len(cats))
	_, _ = fmt.Fprintf(stdout, "%-8s %-4s %-20s %-8s %s\n", "ID", "ICON", "NAME", "COLOR", "TASKS")
	for _, c := range cats {
		icon := ""
		if c.Icon != nil {
			icon = *c.Icon
		}
		_, _ = fmt.Fprintf(stdout, "%-8s %-4s %-20s %-8s %d\n", shortID(c.ID), icon, c.Name, c.Color, a.store.CategoryUsage(c.ID))
	}
	printResult(stdout, cfg, ResultInfoOnly)
	return nil
}

func newCategoryUpdateCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update [category]",
		Short: "Rename or restyle a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(ctx context.Context, a *app) error {
				return doCategoryUpdate(ctx, cmd, a, args[0], cfg, stdout)
			})
		},
	}
	cmd.Flags().String("name", "", "New name")
	cmd.Flags().String("color", "", "New hex color")
	cmd.Flags().String("icon", "", "New icon (use \"\" to remove)")
	return cmd
}

func doCategoryUpdate(ctx context.Context, cmd *cobra.Command, a *app, ref string, cfg *Config, stdout io.Writer) error {
	c, err := findCategory(a.store, ref)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	var patch store.CategoryPatch

	name := c.Name
	if flags.Changed("name") {
		name, _ = flags.GetString("name")
	}
	var icon *string
	if flags.Changed("icon") {
		s, _ := flags.GetString("icon")
		icon = &s
	}
	if name, err = store.ValidateCategoryName(name, icon); err != nil {
		return err
	}
	if flags.Changed("name") {
		patch.Name = &name
	}
	if icon != nil {
		if *icon == "" {
			patch.ClearIcon = true
		} else {
			patch.Icon = icon
		}
	}
	if flags.Changed("color") {
		color, _ := flags.GetString("color")
		if err := validateColor(color); err != nil {
			return err
		}
		patch.Color = &color
	}

	updated, ok := a.store.UpdateCategory(ctx, c.ID, patch)
	if !ok {
		return utils.ErrCategoryNotFound(ref)
	}

	if a.jsonOutput(cfg) {
		return writeJSON(stdout, categoryActionResponse{Action: "update", Category: categoryToJSON(a.store, updated), Result: ResultActionCompleted})
	}
	_, _ = fmt.Fprintf(stdout, "Updated category: %s\n", updated.Name)
	printResult(stdout, cfg, ResultActionCompleted)
	return nil
}

func newCategoryDeleteCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:     "delete [category]",
		Aliases: []string{"rm"},
		Short:   "Delete a category that no task uses",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(ctx context.Context, a *app) error {
				return doCategoryDelete(ctx, a, args[0], cfg, stdout)
			})
		},
	}
}

func doCategoryDelete(ctx context.Context, a *app, ref string, cfg *Config, stdout io.Writer) error {
	c, err := findCategory(a.store, ref)
	if err != nil {
		return err
	}

	if !confirm(cfg, stdout, fmt.Sprintf("Delete category '%s'?", c.Name)) {
		_, _ = fmt.Fprintln(stdout, "Cancelled")
		return nil
	}

	if err := a.store.DeleteCategory(ctx, c.ID); err != nil {
		var inUse *store.CategoryInUseError
		if errors.As(err, &inUse) {
			return utils.ErrCategoryInUse(
				fmt.Errorf("cannot delete category '%s': %d %s still use it", c.Name, inUse.Count, pluralTasks(inUse.Count)),
				inUse.Count,
			)
		}
		return err
	}

	if a.jsonOutput(cfg) {
		return writeJSON(stdout, categoryActionResponse{Action: "delete", Category: categoryJSON{ID: c.ID, Name: c.Name, Color: c.Color, Icon: c.Icon}, Result: ResultActionCompleted})
	}
	_, _ = fmt.Fprintf(stdout, "Deleted category: %s\n", c.Name)
	printResult(stdout, cfg, ResultActionCompleted)
	return nil
}

func pluralTasks(n int) string {
	if n == 1 {
		return "task"
	}
	return "tasks"
}

