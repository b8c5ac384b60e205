package utils

import (
	"fmt"
	"strings"
)

// ErrorWithSuggestion wraps an error with a user-friendly suggestion.
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

// Error implements the error interface.
func (e *ErrorWithSuggestion) Error() string {
	return fmt.Sprintf("%s\n\nSuggestion: %s", e.Err.Error(), e.Suggestion)
}

// GetSuggestion returns the suggestion text.
func (e *ErrorWithSuggestion) GetSuggestion() string {
	return e.Suggestion
}

// Unwrap returns the underlying error for error chain support.
func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// WrapWithSuggestion wraps an existing error with a suggestion.
func WrapWithSuggestion(err error, suggestion string) error {
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
	}
}

// ErrTaskNotFound returns an error for when a task id is unknown.
func ErrTaskNotFound(id string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("task not found: %s", id),
		Suggestion: "Use 'tidytodo task list' to see task ids",
	}
}

// ErrCategoryNotFound returns an error for when a category id or name is unknown.
func ErrCategoryNotFound(ref string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("category not found: %s", ref),
		Suggestion: "Use 'tidytodo category list' to see categories",
	}
}

// ErrCategoryInUse returns an error for a refused category deletion.
func ErrCategoryInUse(err error, count int) error {
	noun := "tasks"
	if count == 1 {
		noun = "task"
	}
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: fmt.Sprintf("Delete or re-categorize the %d %s first", count, noun),
	}
}

// ErrInvalidPriority returns an error for an invalid priority value.
func ErrInvalidPriority(priority string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("invalid priority: %s", priority),
		Suggestion: "Priority must be one of: low, medium, high, urgent",
	}
}

// ErrInvalidDate returns an error for an invalid date string.
func ErrInvalidDate(dateStr string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("invalid date: %s", dateStr),
		Suggestion: "Use date format YYYY-MM-DD (e.g., 2026-01-15) or today, tomorrow, +3d, +2w, +1m",
	}
}

// ErrInvalidOption returns an error for a flag value outside a fixed set.
func ErrInvalidOption(kind, value string, valid []string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("invalid %s: %s", kind, value),
		Suggestion: fmt.Sprintf("Valid options: %s", strings.Join(valid, ", ")),
	}
}
