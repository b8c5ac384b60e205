package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tidytodo/backend"
	"tidytodo/internal/storage"
	"tidytodo/internal/store"
	"tidytodo/internal/utils"
	"tidytodo/internal/views"
)

type taskJSON struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Completed   bool     `json:"completed"`
	Priority    string   `json:"priority"`
	Category    string   `json:"category"`
	CategoryID  string   `json:"category_id"`
	Deadline    *string  `json:"deadline,omitempty"`
	DueStatus   string   `json:"due_status,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

type listTasksResponse struct {
	Tasks  []taskJSON `json:"tasks"`
	View   string     `json:"view,omitempty"`
	Count  int        `json:"count"`
	Result string     `json:"result"`
}

type taskActionResponse struct {
	Action string   `json:"action"`
	Task   taskJSON `json:"task"`
	Result string   `json:"result"`
}

func taskToJSON(t backend.Task, categoryNames map[string]string) taskJSON {
	out := taskJSON{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		Priority:    string(t.Priority),
		Category:    categoryNames[t.Category],
		CategoryID:  t.Category,
		Tags:        t.Tags,
		CreatedAt:   storage.FormatTime(t.CreatedAt),
		UpdatedAt:   storage.FormatTime(t.UpdatedAt),
	}
	if t.Deadline != nil {
		d := storage.FormatTime(*t.Deadline)
		out.Deadline = &d
		out.DueStatus = string(views.DeadlineStatus(t, time.Now()))
	}
	return out
}

func categoryNames(st *store.Store) map[string]string {
	names := make(map[string]string)
	for _, c := range st.Categories() {
		names[c.ID] = c.Name
	}
	return names
}

// newTaskCmd creates the 'task' subcommand
func newTaskCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	taskCmd := &cobra.Command{
		Use:     "task",
		Aliases: []string{"t"},
		Short:   "Manage tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	taskCmd.AddCommand(newTaskAddCmd(stdout, cfg))
	taskCmd.AddCommand(newTaskListCmd(stdout, cfg))
	taskCmd.AddCommand(newTaskUpdateCmd(stdout, cfg))
	taskCmd.AddCommand(newTaskDoneCmd(stdout, cfg))
	taskCmd.AddCommand(newTaskDeleteCmd(stdout, cfg))

	return taskCmd
}

// withApp opens the store for one command and closes it afterwards
func withApp(cfg *Config, fn func(ctx context.Context, a *app) error) error {
	ctx := context.Background()
	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.close(); err != nil {
			utils.Warnf("failed to close storage: %v", err)
		}
	}()
	return fn(ctx, a)
}

func newTaskAddCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [title]",
		Short: "Add a task",
		Long:  "Add a task. Without --category it goes to the first category.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(ctx context.Context, a *app) error {
				return doTaskAdd(ctx, cmd, a, strings.Join(args, " "), cfg, stdout)
			})
		},
	}
	cmd.Flags().StringP("description", "d", "", "Task description")
	cmd.Flags().StringP("priority", "p", string(backend.PriorityMedium), "Priority: low, medium, high, urgent")
	cmd.Flags().StringP("category", "c", "", "Category name or id")
	cmd.Flags().String("deadline", "", "Deadline: YYYY-MM-DD, today, tomorrow, +3d, +2w, +1m")
	cmd.Flags().StringP("tags", "t", "", "Comma-separated tags")
	return cmd
}

func doTaskAdd(ctx context.Context, cmd *cobra.Command, a *app, title string, cfg *Config, stdout io.Writer) error {
	flags := cmd.Flags()
	description, _ := flags.GetString("description")
	priorityStr, _ := flags.GetString("priority")
	categoryRef, _ := flags.GetString("category")
	deadlineStr, _ := flags.GetString("deadline")
	tagsStr, _ := flags.GetString("tags")

	priority, err := utils.ValidatePriority(priorityStr)
	if err != nil {
		return err
	}
	deadline, err := utils.ParseDateFlag(deadlineStr)
	if err != nil {
		return err
	}

	var category backend.Category
	if categoryRef != "" {
		if category, err = findCategory(a.store, categoryRef); err != nil {
			return err
		}
	} else if cats := a.store.Categories(); len(cats) > 0 {
		category = cats[0]
	} else {
		return utils.WrapWithSuggestion(fmt.Errorf("no categories exist"), "Create one with: tidytodo category add \"Personal\"")
	}

	in, err := store.ValidateTaskInput(store.TaskInput{
		Title:       title,
		Description: description,
		Deadline:    deadline,
		Priority:    priority,
		Category:    category.ID,
		Tags:        store.ParseTags(tagsStr),
	})
	if err != nil {
		return err
	}

	task := a.store.AddTask(ctx, in)

	if a.jsonOutput(cfg) {
		return writeJSON(stdout, taskActionResponse{Action: "add", Task: taskToJSON(task, categoryNames(a.store)), Result: ResultActionCompleted})
	}
	_, _ = fmt.Fprintf(stdout, "Created task: %s (%s) in %s\n", task.Title, shortID(task.ID), category.Name)
	printResult(stdout, cfg, ResultActionCompleted)
	return nil
}

func newTaskListCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Long:    "List tasks through a saved view, then narrow with filter flags.",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(ctx context.Context, a *app) error {
				return doTaskList(cmd, a, cfg, stdout)
			})
		},
	}
	cmd.Flags().StringP("view", "v", "", "View to apply (default, active, or a custom view name)")
	cmd.Flags().StringP("category", "c", "", "Only tasks in this category (name or id)")
	cmd.Flags().StringP("priority", "p", "", "Only tasks with this priority")
	cmd.Flags().StringP("status", "s", "", "all, active or completed")
	cmd.Flags().StringP("search", "q", "", "Case-insensitive text in title, description or tags")
	cmd.Flags().String("sort", "", "createdAt, deadline or priority")
	return cmd
}

func doTaskList(cmd *cobra.Command, a *app, cfg *Config, stdout io.Writer) error {
	flags := cmd.Flags()
	viewName, _ := flags.GetString("view")

	if viewName != "" {
		view, err := views.NewLoader(a.cfg.ViewsDir).LoadView(viewName)
		if err != nil {
			return err
		}
		if view.Filters.Category != "" {
			c, err := findCategory(a.store, view.Filters.Category)
			if err != nil {
				return fmt.Errorf("view '%s': %w", viewName, err)
			}
			view.Filters.Category = c.ID
		}
		a.store.ApplyView(view)
	}

	var patch views.FilterPatch
	if ref, _ := flags.GetString("category"); ref != "" {
		c, err := findCategory(a.store, ref)
		if err != nil {
			return err
		}
		patch.Category = &c.ID
	}
	if p, _ := flags.GetString("priority"); p != "" {
		priority, err := utils.ValidatePriority(p)
		if err != nil {
			return err
		}
		patch.Priority = &priority
	}
	if s, _ := flags.GetString("status"); s != "" {
		status := views.CompletionFilter(strings.ToLower(s))
		if !status.Valid() {
			return utils.ErrInvalidOption("status", s, []string{"all", "active", "completed"})
		}
		patch.Completed = &status
	}
	if flags.Changed("search") {
		q, _ := flags.GetString("search")
		patch.Search = &q
	}
	a.store.SetFilters(patch)

	if s, _ := flags.GetString("sort"); s != "" {
		if !a.store.SetSortKey(views.SortKey(s)) {
			return utils.ErrInvalidOption("sort key", s, []string{"createdAt", "deadline", "priority"})
		}
	}

	tasks := a.store.View()
	names := categoryNames(a.store)

	if a.jsonOutput(cfg) {
		out := make([]taskJSON, 0, len(tasks))
		for _, t := range tasks {
			out = append(out, taskToJSON(t, names))
		}
		return writeJSON(stdout, listTasksResponse{Tasks: out, View: viewName, Count: len(out), Result: ResultInfoOnly})
	}

	if len(tasks) == 0 {
		if a.store.Filters().IsActive() {
			_, _ = fmt.Fprintln(stdout, "No tasks match the current filters.")
		} else {
			_, _ = fmt.Fprintln(stdout, "No tasks yet. Add one with: tidytodo task add \"Buy milk\"")
		}
		printResult(stdout, cfg, ResultInfoOnly)
		return nil
	}

	_, _ = fmt.Fprintf(stdout, "Tasks (%d, sorted by %s):\n\n", len(tasks), a.store.SortKey())
	for _, t := range tasks {
		printTask(stdout, t, names)
	}
	printResult(stdout, cfg, ResultInfoOnly)
	return nil
}

func printTask(stdout io.Writer, t backend.Task, names map[string]string) {
	status := "[ ]"
	if t.Completed {
		status = "[✓]"
	}
	line := fmt.Sprintf("%s %s  %s  %-7s", shortID(t.ID), status, t.Title, t.Priority)
	if name, ok := names[t.Category]; ok {
		line += "  @" + name
	}
	if t.Deadline != nil {
		line += "  due " + t.Deadline.Local().Format("2006-01-02")
		if due := views.DeadlineStatus(t, time.Now()); due != views.DueNone {
			line += " (" + string(due) + ")"
		}
	}
	if len(t.Tags) > 0 {
		line += "  #" + strings.Join(t.Tags, " #")
	}
	_, _ = fmt.Fprintln(stdout, line)
}

func newTaskUpdateCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update [task]",
		Short: "Update a task",
		Long:  "Update a task found by id, id prefix or title. Only the given flags change.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(ctx context.Context, a *app) error {
				return doTaskUpdate(ctx, cmd, a, args[0], cfg, stdout)
			})
		},
	}
	cmd.Flags().String("title", "", "New title")
	cmd.Flags().StringP("description", "d", "", "New description")
	cmd.Flags().StringP("priority", "p", "", "New priority")
	cmd.Flags().StringP("category", "c", "", "Move to category (name or id)")
	cmd.Flags().String("deadline", "", "New deadline (use \"\" to clear)")
	cmd.Flags().StringP("tags", "t", "", "Replace tags (comma-separated, \"\" to clear)")
	return cmd
}

func doTaskUpdate(ctx context.Context, cmd *cobra.Command, a *app, ref string, cfg *Config, stdout io.Writer) error {
	task, err := resolveTask(cfg, a.store, ref, "update", stdout)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	var patch store.TaskPatch

	merged := store.TaskInput{Title: task.Title, Description: task.Description, Priority: task.Priority}
	if flags.Changed("title") {
		merged.Title, _ = flags.GetString("title")
	}
	if flags.Changed("description") {
		merged.Description, _ = flags.GetString("description")
	}
	if flags.Changed("priority") {
		p, _ := flags.GetString("priority")
		if merged.Priority, err = utils.ValidatePriority(p); err != nil {
			return err
		}
	}
	if merged, err = store.ValidateTaskInput(merged); err != nil {
		return err
	}
	if flags.Changed("title") {
		patch.Title = &merged.Title
	}
	if flags.Changed("description") {
		patch.Description = &merged.Description
	}
	if flags.Changed("priority") {
		patch.Priority = &merged.Priority
	}

	if flags.Changed("category") {
		ref, _ := flags.GetString("category")
		c, err := findCategory(a.store, ref)
		if err != nil {
			return err
		}
		patch.Category = &c.ID
	}
	if flags.Changed("deadline") {
		s, _ := flags.GetString("deadline")
		deadline, err := utils.ParseDateFlag(s)
		if err != nil {
			return err
		}
		if deadline == nil {
			patch.ClearDeadline = true
		} else {
			patch.Deadline = deadline
		}
	}
	if flags.Changed("tags") {
		s, _ := flags.GetString("tags")
		tags := store.ParseTags(s)
		patch.Tags = &tags
	}

	updated, ok := a.store.UpdateTask(ctx, task.ID, patch)
	if !ok {
		return utils.ErrTaskNotFound(task.ID)
	}

	if a.jsonOutput(cfg) {
		return writeJSON(stdout, taskActionResponse{Action: "update", Task: taskToJSON(updated, categoryNames(a.store)), Result: ResultActionCompleted})
	}
	_, _ = fmt.Fprintf(stdout, "Updated task: %s\n", updated.Title)
	printResult(stdout, cfg, ResultActionCompleted)
	return nil
}

func newTaskDoneCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "done [task]",
		Short: "Mark a task complete",
		Long:  "Mark a task complete. With --undo, reopen it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			undo, _ := cmd.Flags().GetBool("undo")
			return withApp(cfg, func(ctx context.Context, a *app) error {
				return doTaskDone(ctx, a, args[0], !undo, cfg, stdout)
			})
		},
	}
	cmd.Flags().Bool("undo", false, "Reopen a completed task")
	return cmd
}

func doTaskDone(ctx context.Context, a *app, ref string, completed bool, cfg *Config, stdout io.Writer) error {
	action := "complete"
	if !completed {
		action = "reopen"
	}

	task, err := resolveTask(cfg, a.store, ref, action, stdout)
	if err != nil {
		return err
	}

	if task.Completed != completed {
		var ok bool
		if task, ok = a.store.ToggleComplete(ctx, task.ID); !ok {
			return utils.ErrTaskNotFound(ref)
		}
	}

	if a.jsonOutput(cfg) {
		return writeJSON(stdout, taskActionResponse{Action: action, Task: taskToJSON(task, categoryNames(a.store)), Result: ResultActionCompleted})
	}
	if completed {
		_, _ = fmt.Fprintf(stdout, "Completed task: %s\n", task.Title)
	} else {
		_, _ = fmt.Fprintf(stdout, "Reopened task: %s\n", task.Title)
	}
	printResult(stdout, cfg, ResultActionCompleted)
	return nil
}

func newTaskDeleteCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:     "delete [task]",
		Aliases: []string{"rm"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(ctx context.Context, a *app) error {
				return doTaskDelete(ctx, a, args[0], cfg, stdout)
			})
		},
	}
}

func doTaskDelete(ctx context.Context, a *app, ref string, cfg *Config, stdout io.Writer) error {
	task, err := resolveTask(cfg, a.store, ref, "delete", stdout)
	if err != nil {
		return err
	}

	if !confirm(cfg, stdout, fmt.Sprintf("Delete task '%s'?", task.Title)) {
		_, _ = fmt.Fprintln(stdout, "Cancelled")
		return nil
	}

	a.store.DeleteTask(ctx, task.ID)

	if a.jsonOutput(cfg) {
		return writeJSON(stdout, taskActionResponse{Action: "delete", Task: taskToJSON(task, categoryNames(a.store)), Result: ResultActionCompleted})
	}
	_, _ = fmt.Fprintf(stdout, "Deleted task: %s\n", task.Title)
	printResult(stdout, cfg, ResultActionCompleted)
	return nil
}

