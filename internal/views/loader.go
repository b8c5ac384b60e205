package views

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
	"tidytodo/backend"
)

// SetupViewsFolder creates views directory with example view files.
// Returns true if folder was created, false if it already existed.
func SetupViewsFolder(viewsDir string) (bool, error) {
	if _, err := os.Stat(viewsDir); err == nil {
		return false, nil // Already exists
	}

	if err := os.MkdirAll(viewsDir, 0755); err != nil {
		return false, err
	}

	urgentYAML := `name: urgent
description: Open urgent tasks, nearest deadline first
filters:
  priority: urgent
  completed: active
sort: deadline
`
	if err := os.WriteFile(filepath.Join(viewsDir, "urgent.yaml"), []byte(urgentYAML), 0644); err != nil {
		return false, err
	}

	doneYAML := `name: done
description: Completed tasks, newest first
filters:
  completed: completed
sort: createdAt
`
	if err := os.WriteFile(filepath.Join(viewsDir, "done.yaml"), []byte(doneYAML), 0644); err != nil {
		return false, err
	}

	return true, nil
}

// Loader handles loading views from disk and built-in sources
type Loader struct {
	viewsDir string
}

// NewLoader creates a new view loader
func NewLoader(viewsDir string) *Loader {
	return &Loader{viewsDir: viewsDir}
}

// ValidateViewName checks if a view name is safe to use in file paths.
// It rejects names containing path traversal sequences or invalid characters.
func ValidateViewName(name string) error {
	if name == "" {
		return fmt.Errorf("view name cannot be empty")
	}

	if strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("invalid view name '%s': contains path separator", name)
	}

	if strings.Contains(name, "..") {
		return fmt.Errorf("invalid view name '%s': contains path traversal sequence", name)
	}

	if strings.HasPrefix(name, ".") {
		return fmt.Errorf("invalid view name '%s': cannot start with '.'", name)
	}

	return nil
}

// LoadView loads a view by name.
// User files in the views directory override built-in views of the same name.
func (l *Loader) LoadView(name string) (*View, error) {
	normalizedName := strings.ToLower(name)
	if normalizedName == "" {
		normalizedName = "default"
	}

	if _, builtIn := builtInViews[normalizedName]; !builtIn {
		if err := ValidateViewName(name); err != nil {
			return nil, err
		}
	}

	if viewPath, ok := l.viewPath(normalizedName); ok {
		if _, err := os.Stat(viewPath); err == nil {
			return l.loadFromDisk(normalizedName, viewPath)
		}
	}

	if build, ok := builtInViews[normalizedName]; ok {
		return build(), nil
	}

	return nil, fmt.Errorf("view '%s' not found", name)
}

// viewPath resolves the file for a view name, refusing anything that
// escapes the views directory
func (l *Loader) viewPath(name string) (string, bool) {
	if l.viewsDir == "" {
		return "", false
	}

	viewPath := filepath.Join(l.viewsDir, name+".yaml")

	absViewsDir, err := filepath.Abs(l.viewsDir)
	if err != nil {
		return "", false
	}
	absViewPath, err := filepath.Abs(viewPath)
	if err != nil {
		return "", false
	}
	if !strings.HasPrefix(absViewPath, absViewsDir+string(filepath.Separator)) {
		return "", false
	}

	return viewPath, true
}

// loadFromDisk loads and validates a view YAML file
func (l *Loader) loadFromDisk(name, viewPath string) (*View, error) {
	data, err := os.ReadFile(viewPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("view '%s' not found", name)
		}
		return nil, fmt.Errorf("failed to read view '%s': %w", name, err)
	}

	var view View
	if err := yaml.Unmarshal(data, &view); err != nil {
		return nil, fmt.Errorf("failed to parse view '%s': %w", name, err)
	}
	if view.Name == "" {
		view.Name = name
	}

	if err := validateView(&view); err != nil {
		return nil, fmt.Errorf("invalid view '%s': %w", name, err)
	}

	return &view, nil
}

// ViewInfo contains metadata about a view
type ViewInfo struct {
	Name        string
	Description string
	BuiltIn     bool
	Overrides   bool // True if user file overrides a built-in view
}

// ListViews returns all available views, built-in first, then custom views by name
func (l *Loader) ListViews() ([]ViewInfo, error) {
	builtInNames := make([]string, 0, len(builtInViews))
	for name := range builtInViews {
		builtInNames = append(builtInNames, name)
	}
	sort.Strings(builtInNames)

	var views []ViewInfo
	for _, name := range builtInNames {
		info := ViewInfo{Name: name, Description: builtInViews[name]().Description, BuiltIn: true}
		if path, ok := l.viewPath(name); ok {
			if _, err := os.Stat(path); err == nil {
				info.BuiltIn = false
				info.Overrides = true
				if view, err := l.LoadView(name); err == nil {
					info.Description = view.Description
				}
			}
		}
		views = append(views, info)
	}

	if l.viewsDir == "" {
		return views, nil
	}

	entries, err := os.ReadDir(l.viewsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return views, nil
		}
		return nil, fmt.Errorf("failed to read views directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), ".yaml")
		if _, builtIn := builtInViews[name]; builtIn {
			continue
		}

		desc := ""
		if view, err := l.LoadView(name); err == nil {
			desc = view.Description
		}
		views = append(views, ViewInfo{Name: name, Description: desc})
	}

	return views, nil
}

// validateView checks that a view's filter values and sort key are known
func validateView(v *View) error {
	if v.Filters.Priority != "" && !backend.Priority(v.Filters.Priority).Valid() {
		return fmt.Errorf("unknown priority: %s", v.Filters.Priority)
	}
	if v.Filters.Completed != "" && !CompletionFilter(v.Filters.Completed).Valid() {
		return fmt.Errorf("invalid completed filter: %s (must be all, active or completed)", v.Filters.Completed)
	}
	if v.Sort != "" && !v.Sort.Valid() {
		return fmt.Errorf("unknown sort key: %s", v.Sort)
	}
	return nil
}
