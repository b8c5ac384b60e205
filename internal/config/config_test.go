package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestLoadCreatesSampleConfig verifies a missing config is created from the sample
func TestLoadCreatesSampleConfig(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("config file not created: %v", err)
	}
	if string(data) != GetSampleConfig() {
		t.Error("created config should match the embedded sample")
	}

	if cfg.Storage.Backend != "sqlite" || cfg.Storage.Key != "todo-app-state" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if !strings.HasSuffix(cfg.Storage.Path, filepath.Join("tidytodo", "tidytodo.db")) {
		t.Errorf("storage path = %q", cfg.Storage.Path)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("sample config should validate: %v", err)
	}
}

// TestSampleConfigParses verifies every documented key decodes
func TestSampleConfigParses(t *testing.T) {
	cfg, err := Parse([]byte(GetSampleConfig()))
	if err != nil {
		t.Fatalf("Parse(sample) error: %v", err)
	}
	if cfg.DefaultSort != "createdAt" || cfg.OutputFormat != "text" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.SeedDefaultCategories == nil || !*cfg.SeedDefaultCategories {
		t.Error("sample should enable seed_default_categories")
	}
	if cfg.WatchExternalChanges == nil || !*cfg.WatchExternalChanges {
		t.Error("sample should enable watch_external_changes")
	}
	if cfg.Analytics.Enabled {
		t.Error("sample should leave analytics disabled")
	}
	if cfg.GetAnalyticsRetentionDays() != 365 {
		t.Errorf("retention = %d, want 365", cfg.GetAnalyticsRetentionDays())
	}
	if cfg.Reminder.Enabled || len(cfg.Reminder.Intervals) != 2 {
		t.Errorf("reminder = %+v", cfg.Reminder)
	}
}

// TestReminderDefaults verifies reminder intervals and paths default sensibly
func TestReminderDefaults(t *testing.T) {
	dataDir, stateDir := t.TempDir(), t.TempDir()
	t.Setenv("XDG_DATA_HOME", dataDir)
	t.Setenv("XDG_STATE_HOME", stateDir)

	cfg, err := Parse([]byte("reminder:\n  enabled: true\n"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(cfg.Reminder.Intervals, "|") != "1d|at due time" {
		t.Errorf("intervals = %v", cfg.Reminder.Intervals)
	}
	if cfg.Reminder.Path != filepath.Join(dataDir, "tidytodo", "reminders.db") {
		t.Errorf("path = %q", cfg.Reminder.Path)
	}
	if cfg.Reminder.LogPath != filepath.Join(stateDir, "tidytodo", "reminders.log") {
		t.Errorf("log path = %q", cfg.Reminder.LogPath)
	}
	if !cfg.IsReminderOSNotificationEnabled() || !cfg.IsReminderLogEnabled() {
		t.Error("notification channels should default on")
	}

	cfg, err = Parse([]byte("reminder:\n  intervals: [2h]\n  os_notification: false\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Reminder.Intervals) != 1 || cfg.IsReminderOSNotificationEnabled() {
		t.Errorf("reminder = %+v", cfg.Reminder)
	}
}

// TestAnalyticsDefaults verifies the analytics database defaults into the data dir
func TestAnalyticsDefaults(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dataDir)

	cfg, err := Parse([]byte("analytics:\n  enabled: true\n  retention_days: 30\n"))
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Analytics.Enabled || cfg.GetAnalyticsRetentionDays() != 30 {
		t.Errorf("analytics = %+v", cfg.Analytics)
	}
	if want := filepath.Join(dataDir, "tidytodo", "analytics.db"); cfg.Analytics.Path != want {
		t.Errorf("analytics path = %q, want %q", cfg.Analytics.Path, want)
	}
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("TIDY_TEST_DIR", "/tmp/tidy")
	cfg, err := Parse([]byte(`
storage:
  backend: file
  path: $TIDY_TEST_DIR/state
  key: my-key
default_sort: priority
seed_default_categories: false
watch_external_changes: false
views_dir: /tmp/views
output_format: json
`))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if cfg.Storage.Path != "/tmp/tidy/state" {
		t.Errorf("path = %q, want env expanded", cfg.Storage.Path)
	}
	if cfg.Storage.Key != "my-key" || cfg.DefaultSort != "priority" || cfg.OutputFormat != "json" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.IsSeedDefaultCategoriesEnabled() {
		t.Error("seeding should be disabled")
	}
	if cfg.IsWatchEnabled() {
		t.Error("watching should be disabled")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate error: %v", err)
	}
}

func TestParseInvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("storage: [")); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"unknown backend", func(c *Config) { c.Storage.Backend = "postgres" }, "storage.backend"},
		{"missing path", func(c *Config) { c.Storage.Path = "" }, "storage.path"},
		{"empty key", func(c *Config) { c.Storage.Key = " " }, "storage.key"},
		{"bad sort", func(c *Config) { c.DefaultSort = "title" }, "default_sort"},
		{"bad output", func(c *Config) { c.OutputFormat = "xml" }, "output_format"},
		{"negative retention", func(c *Config) { c.Analytics.RetentionDays = -1 }, "analytics.retention_days"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("Validate() = %v, want error mentioning %q", err, tt.errMsg)
			}
		})
	}
}

// TestMemoryBackendNeedsNoPath verifies the in-memory backend validates without a path
func TestMemoryBackendNeedsNoPath(t *testing.T) {
	cfg, err := Parse([]byte("storage:\n  backend: memory\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Storage.Path != "" {
		t.Errorf("memory path = %q, want empty", cfg.Storage.Path)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate error: %v", err)
	}
}

// TestWatchDefaults verifies watching defaults on for the file backend only
func TestWatchDefaults(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.IsWatchEnabled() {
		t.Error("sqlite backend should not be watched")
	}

	cfg.ApplyFlags("file", "", "")
	if !cfg.IsWatchEnabled() {
		t.Error("file backend should be watched by default")
	}
	if !strings.HasSuffix(cfg.Storage.Path, filepath.Join("tidytodo", "state")) {
		t.Errorf("file backend path = %q", cfg.Storage.Path)
	}
}

func TestApplyFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ApplyFlags("sqlite", "/tmp/x.db", "json")

	if cfg.Storage.Path != "/tmp/x.db" || cfg.OutputFormat != "json" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestXDGDirs(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg/config")
	t.Setenv("XDG_DATA_HOME", "/xdg/data")
	t.Setenv("XDG_STATE_HOME", "/xdg/state")

	if got := GetConfigDir(); got != filepath.Join("/xdg/config", "tidytodo") {
		t.Errorf("GetConfigDir() = %q", got)
	}
	if got := GetDataDir(); got != filepath.Join("/xdg/data", "tidytodo") {
		t.Errorf("GetDataDir() = %q", got)
	}
	if got := GetStateDir(); got != filepath.Join("/xdg/state", "tidytodo") {
		t.Errorf("GetStateDir() = %q", got)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := ExpandPath("~/tasks"); got != filepath.Join(home, "tasks") {
		t.Errorf("ExpandPath(~/tasks) = %q", got)
	}
	if got := ExpandPath(""); got != "" {
		t.Errorf("ExpandPath(\"\") = %q", got)
	}
}
