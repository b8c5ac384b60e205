package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"tidytodo/backend"
	_ "tidytodo/backend/file"
	_ "tidytodo/backend/memory"
	_ "tidytodo/backend/sqlite"
	"tidytodo/internal/cli/prompt"
	"tidytodo/internal/config"
	"tidytodo/internal/storage"
	"tidytodo/internal/store"
	"tidytodo/internal/utils"
	"tidytodo/internal/views"
)

// app is an opened store plus the configuration it came from
type app struct {
	cfg     *config.Config
	kv      backend.KeyValueStore
	adapter *storage.Adapter
	store   *store.Store
}

// loadConfig reads the config file and applies command-line overrides
func loadConfig(cfg *Config) (*config.Config, error) {
	appCfg, err := config.Load(cfg.ConfigPath)
	if err != nil {
		return nil, err
	}
	appCfg.ApplyFlags(cfg.Backend, cfg.StoragePath, cfg.OutputFormat)
	if cfg.ViewsPath != "" {
		appCfg.ViewsDir = cfg.ViewsPath
	}
	if err := appCfg.Validate(); err != nil {
		return nil, utils.WrapWithSuggestion(err, "Check the config file at "+configPathHint(cfg))
	}
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = appCfg.OutputFormat
	}
	cfg.tracking = &trackingSettings{
		enabled:       appCfg.Analytics.Enabled,
		path:          appCfg.Analytics.Path,
		retentionDays: appCfg.GetAnalyticsRetentionDays(),
		backend:       appCfg.Storage.Backend,
	}
	return appCfg, nil
}

func configPathHint(cfg *Config) string {
	if cfg.ConfigPath != "" {
		return cfg.ConfigPath
	}
	return config.GetConfigDir() + "/config.yaml"
}

// openApp loads config and opens the configured storage backend and store
func openApp(ctx context.Context, cfg *Config) (*app, error) {
	appCfg, err := loadConfig(cfg)
	if err != nil {
		return nil, err
	}

	kv, err := backend.Open(appCfg.Storage.Backend, appCfg.Storage.Path)
	if err != nil {
		return nil, utils.WrapWithSuggestion(
			fmt.Errorf("failed to open %s storage: %w", appCfg.Storage.Backend, err),
			"Available backends: "+strings.Join(backend.Registered(), ", "),
		)
	}
	utils.Debugf("Opened %s storage at %q", appCfg.Storage.Backend, appCfg.Storage.Path)

	adapter := storage.New(kv, appCfg.Storage.Key)
	st := store.Open(ctx, adapter, store.Config{
		SkipDefaultCategories: !appCfg.IsSeedDefaultCategoriesEnabled(),
		DefaultSort:           views.SortKey(appCfg.DefaultSort),
	})

	return &app{cfg: appCfg, kv: kv, adapter: adapter, store: st}, nil
}

func (a *app) close() error {
	return a.kv.Close()
}

func (a *app) jsonOutput(cfg *Config) bool {
	return cfg.OutputFormat == "json"
}

// findCategory resolves a category by id, then by case-insensitive name
func findCategory(st *store.Store, ref string) (backend.Category, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return backend.Category{}, fmt.Errorf("category name or id is required")
	}
	if c, ok := st.Category(ref); ok {
		return c, nil
	}

	var matches []backend.Category
	for _, c := range st.Categories() {
		if strings.EqualFold(c.Name, ref) {
			matches = append(matches, c)
		}
	}
	switch len(matches) {
	case 0:
		return backend.Category{}, utils.ErrCategoryNotFound(ref)
	case 1:
		return matches[0], nil
	}
	return backend.Category{}, utils.WrapWithSuggestion(
		fmt.Errorf("%d categories are named '%s'", len(matches), ref),
		"Use the category id instead (see 'tidytodo category list')",
	)
}

// findTask resolves a task by id, unique id prefix, exact title, then unique partial title
func findTask(st *store.Store, ref string) (backend.Task, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return backend.Task{}, fmt.Errorf("task title or id is required")
	}
	if t, ok := st.Task(ref); ok {
		return t, nil
	}

	tasks := st.Tasks()
	if len(ref) >= 4 {
		var byPrefix []backend.Task
		for _, t := range tasks {
			if strings.HasPrefix(t.ID, ref) {
				byPrefix = append(byPrefix, t)
			}
		}
		if len(byPrefix) == 1 {
			return byPrefix[0], nil
		}
	}

	for _, t := range tasks {
		if strings.EqualFold(t.Title, ref) {
			return t, nil
		}
	}

	refLower := strings.ToLower(ref)
	var matches []backend.Task
	for _, t := range tasks {
		if strings.Contains(strings.ToLower(t.Title), refLower) {
			matches = append(matches, t)
		}
	}

	switch len(matches) {
	case 0:
		return backend.Task{}, utils.ErrTaskNotFound(ref)
	case 1:
		return matches[0], nil
	}

	return backend.Task{}, &ambiguousTaskError{ref: ref, matches: matches}
}

// ambiguousTaskError lists the tasks a reference could mean
type ambiguousTaskError struct {
	ref     string
	matches []backend.Task
}

func (e *ambiguousTaskError) Error() string {
	var names []string
	for _, m := range e.matches {
		names = append(names, fmt.Sprintf("  - %s (%s)", m.Title, shortID(m.ID)))
	}
	return fmt.Sprintf("multiple tasks match '%s':\n%s", e.ref, strings.Join(names, "\n"))
}

// resolveTask is findTask plus an interactive pick when the reference is
// ambiguous and prompts are allowed
func resolveTask(cfg *Config, st *store.Store, ref, action string, stdout io.Writer) (backend.Task, error) {
	task, err := findTask(st, ref)
	var ambiguous *ambiguousTaskError
	if err == nil || cfg.NoPrompt || !errors.As(err, &ambiguous) {
		return task, err
	}

	candidates := prompt.FilterTasksByAction(ambiguous.matches, action)
	if len(candidates) == 0 {
		candidates = ambiguous.matches
	}
	selector := &prompt.TaskSelector{
		Tasks:  candidates,
		Prompt: fmt.Sprintf("%d tasks match '%s'.", len(ambiguous.matches), ref),
		Reader: cfg.stdin(),
		Writer: stdout,
	}
	selected, err := selector.Run()
	if err != nil {
		return backend.Task{}, err
	}
	return *selected, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
