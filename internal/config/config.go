// Package config handles application configuration
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed config.sample.yaml
var sampleConfig string

// GetSampleConfig returns the embedded sample configuration content
func GetSampleConfig() string {
	return sampleConfig
}

// appName names the XDG subdirectories
const appName = "tidytodo"

// StorageConfig selects and locates the key-value backend
type StorageConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
	Key     string `yaml:"key"`
}

// AnalyticsConfig holds local command usage tracking settings
type AnalyticsConfig struct {
	Enabled       bool   `yaml:"enabled"`
	RetentionDays int    `yaml:"retention_days"`
	Path          string `yaml:"path"`
}

// ReminderConfig holds deadline reminder settings
type ReminderConfig struct {
	Enabled         bool     `yaml:"enabled"`
	Intervals       []string `yaml:"intervals"`
	OSNotification  *bool    `yaml:"os_notification"`
	LogNotification *bool    `yaml:"log_notification"`
	LogPath         string   `yaml:"log_path"`
	Path            string   `yaml:"path"`
}

// Config represents the application configuration
type Config struct {
	Storage               StorageConfig   `yaml:"storage"`
	DefaultSort           string          `yaml:"default_sort"`
	SeedDefaultCategories *bool           `yaml:"seed_default_categories"`
	WatchExternalChanges  *bool           `yaml:"watch_external_changes"`
	ViewsDir              string          `yaml:"views_dir"`
	OutputFormat          string          `yaml:"output_format"`
	Analytics             AnalyticsConfig `yaml:"analytics"`
	Reminder              ReminderConfig  `yaml:"reminder"`
}

// ValidBackends lists the storage backends the config accepts
var ValidBackends = []string{"sqlite", "file", "memory"}

// ValidSortKeys lists the accepted default_sort values
var ValidSortKeys = []string{"createdAt", "deadline", "priority"}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills unset fields
func (c *Config) applyDefaults() {
	if c.Storage.Backend == "" {
		c.Storage.Backend = "sqlite"
	}
	if c.Storage.Key == "" {
		c.Storage.Key = "todo-app-state"
	}
	if c.Storage.Path == "" {
		c.Storage.Path = DefaultStoragePath(c.Storage.Backend)
	}
	if c.DefaultSort == "" {
		c.DefaultSort = "createdAt"
	}
	if c.ViewsDir == "" {
		c.ViewsDir = filepath.Join(GetConfigDir(), "views")
	}
	if c.OutputFormat == "" {
		c.OutputFormat = "text"
	}
	if c.Analytics.Path == "" {
		c.Analytics.Path = filepath.Join(GetDataDir(), "analytics.db")
	}
	if len(c.Reminder.Intervals) == 0 {
		c.Reminder.Intervals = []string{"1d", "at due time"}
	}
	if c.Reminder.Path == "" {
		c.Reminder.Path = filepath.Join(GetDataDir(), "reminders.db")
	}
	if c.Reminder.LogPath == "" {
		c.Reminder.LogPath = filepath.Join(GetStateDir(), "reminders.log")
	}
	c.Storage.Path = ExpandPath(c.Storage.Path)
	c.ViewsDir = ExpandPath(c.ViewsDir)
	c.Analytics.Path = ExpandPath(c.Analytics.Path)
	c.Reminder.Path = ExpandPath(c.Reminder.Path)
	c.Reminder.LogPath = ExpandPath(c.Reminder.LogPath)
}

// DefaultStoragePath returns where a backend keeps data when no path is configured
func DefaultStoragePath(backend string) string {
	switch backend {
	case "file":
		return filepath.Join(GetDataDir(), "state")
	case "sqlite":
		return filepath.Join(GetDataDir(), "tidytodo.db")
	default:
		return ""
	}
}

// Load loads configuration from the specified path, or the default XDG path if empty.
// If the config file doesn't exist, it creates one from the sample.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = filepath.Join(GetConfigDir(), "config.yaml")
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := writeSample(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML config data and fills defaults
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in config file: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// writeSample writes the embedded sample config to path
func writeSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if !contains(ValidBackends, c.Storage.Backend) {
		return fmt.Errorf("unknown storage.backend: %q (must be one of %s)", c.Storage.Backend, strings.Join(ValidBackends, ", "))
	}
	if c.Storage.Backend != "memory" && c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required for the %s backend", c.Storage.Backend)
	}
	if strings.TrimSpace(c.Storage.Key) == "" {
		return fmt.Errorf("storage.key cannot be empty")
	}
	if !contains(ValidSortKeys, c.DefaultSort) {
		return fmt.Errorf("invalid default_sort: %q (must be one of %s)", c.DefaultSort, strings.Join(ValidSortKeys, ", "))
	}
	if c.OutputFormat != "text" && c.OutputFormat != "json" {
		return fmt.Errorf("invalid output_format: %q (must be 'text' or 'json')", c.OutputFormat)
	}
	if c.Analytics.RetentionDays < 0 {
		return fmt.Errorf("analytics.retention_days cannot be negative")
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ApplyFlags applies CLI flag overrides to the configuration
func (c *Config) ApplyFlags(backend, path, outputFormat string) {
	if backend != "" && backend != c.Storage.Backend {
		c.Storage.Backend = backend
		if path == "" {
			c.Storage.Path = DefaultStoragePath(backend)
		}
	}
	if path != "" {
		c.Storage.Path = ExpandPath(path)
	}
	if outputFormat != "" {
		c.OutputFormat = outputFormat
	}
}

// IsSeedDefaultCategoriesEnabled returns whether default categories are seeded (default: true)
func (c *Config) IsSeedDefaultCategoriesEnabled() bool {
	if c.SeedDefaultCategories == nil {
		return true
	}
	return *c.SeedDefaultCategories
}

// IsWatchEnabled returns whether external changes are watched (default: true).
// Only the file backend can be watched.
func (c *Config) IsWatchEnabled() bool {
	if c.Storage.Backend != "file" {
		return false
	}
	if c.WatchExternalChanges == nil {
		return true
	}
	return *c.WatchExternalChanges
}

// IsReminderOSNotificationEnabled returns whether reminders go to the desktop (default: true)
func (c *Config) IsReminderOSNotificationEnabled() bool {
	if c.Reminder.OSNotification == nil {
		return true
	}
	return *c.Reminder.OSNotification
}

// IsReminderLogEnabled returns whether reminders are appended to the log (default: true)
func (c *Config) IsReminderLogEnabled() bool {
	if c.Reminder.LogNotification == nil {
		return true
	}
	return *c.Reminder.LogNotification
}

// GetAnalyticsRetentionDays returns the analytics retention period in days.
// Returns 365 (default) if not configured.
func (c *Config) GetAnalyticsRetentionDays() int {
	if c.Analytics.RetentionDays <= 0 {
		return 365
	}
	return c.Analytics.RetentionDays
}

// getXDGDir returns a directory path following XDG spec.
// envVar is the XDG environment variable (e.g., "XDG_CONFIG_HOME").
// fallbackPath is relative to the home directory.
func getXDGDir(envVar, fallbackPath string) string {
	if xdgDir := os.Getenv(envVar); xdgDir != "" {
		return filepath.Join(xdgDir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", fallbackPath, appName)
	}
	return filepath.Join(home, fallbackPath, appName)
}

// GetConfigDir returns the configuration directory following XDG spec
func GetConfigDir() string {
	return getXDGDir("XDG_CONFIG_HOME", ".config")
}

// GetDataDir returns the data directory following XDG spec
func GetDataDir() string {
	return getXDGDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// GetStateDir returns the state directory (logs) following XDG spec
func GetStateDir() string {
	return getXDGDir("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

// ExpandPath expands ~ and environment variables in a path
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	return os.ExpandEnv(path)
}
