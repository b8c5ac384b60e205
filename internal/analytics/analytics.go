// Package analytics records local SQLite statistics about CLI command usage:
// which commands run, how long they take and why they fail.
package analytics

import (
	"os"
	"time"
)

// EnvEnabled overrides the analytics.enabled config value when set
const EnvEnabled = "TIDYTODO_ANALYTICS_ENABLED"

// Event represents a single recorded command run
type Event struct {
	ID        int64
	Timestamp time.Time
	Command   string // e.g. "task add"
	Backend   string
	Success   bool
	Duration  time.Duration
	ErrorType string
	Flags     []string // names of the flags that were set, values are never kept
}

// NewEvent builds the event for a finished command
func NewEvent(command, backend string, flags []string, elapsed time.Duration, err error) Event {
	return Event{
		Timestamp: time.Now(),
		Command:   command,
		Backend:   backend,
		Success:   err == nil,
		Duration:  elapsed,
		ErrorType: categorizeError(err),
		Flags:     flags,
	}
}

// IsEnabledFromEnv checks the TIDYTODO_ANALYTICS_ENABLED environment variable
// and returns the effective enabled state. Environment variable overrides the
// config value.
func IsEnabledFromEnv(configEnabled bool) bool {
	envVal := os.Getenv(EnvEnabled)
	if envVal == "" {
		return configEnabled
	}
	return envVal == "true" || envVal == "1"
}
