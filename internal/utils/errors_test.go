package utils

import (
	"errors"
	"strings"
	"testing"
)

// TestErrorWithSuggestionImplementsError verifies interface compliance
func TestErrorWithSuggestionImplementsError(t *testing.T) {
	var _ error = &ErrorWithSuggestion{}
}

// TestErrorWithSuggestionError verifies Error() method output
func TestErrorWithSuggestionError(t *testing.T) {
	err := &ErrorWithSuggestion{
		Err:        errors.New("something went wrong"),
		Suggestion: "Try doing X",
	}

	errStr := err.Error()
	if !strings.Contains(errStr, "something went wrong") {
		t.Errorf("Error() should contain error message, got: %s", errStr)
	}
	if !strings.Contains(errStr, "Suggestion: Try doing X") {
		t.Errorf("Error() should contain suggestion, got: %s", errStr)
	}
}

// TestErrorWithSuggestionUnwrap verifies Unwrap() for error chain
func TestErrorWithSuggestionUnwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	err := WrapWithSuggestion(underlying, "suggestion")

	if !errors.Is(err, underlying) {
		t.Error("errors.Is should see the underlying error")
	}

	var withSuggestion *ErrorWithSuggestion
	if !errors.As(err, &withSuggestion) {
		t.Fatal("WrapWithSuggestion should return *ErrorWithSuggestion")
	}
	if withSuggestion.GetSuggestion() != "suggestion" {
		t.Errorf("GetSuggestion() = %q", withSuggestion.GetSuggestion())
	}
}

// TestErrorConstructors verifies the pre-built errors carry message and suggestion
func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		message    string
		suggestion string
	}{
		{"task not found", ErrTaskNotFound("abc"), "task not found: abc", "task list"},
		{"category not found", ErrCategoryNotFound("Work"), "category not found: Work", "category list"},
		{"invalid priority", ErrInvalidPriority("critical"), "invalid priority: critical", "low, medium, high, urgent"},
		{"invalid date", ErrInvalidDate("soon"), "invalid date: soon", "YYYY-MM-DD"},
		{"invalid option", ErrInvalidOption("sort key", "name", []string{"createdAt", "deadline"}), "invalid sort key: name", "createdAt, deadline"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var es *ErrorWithSuggestion
			if !errors.As(tt.err, &es) {
				t.Fatalf("%T is not *ErrorWithSuggestion", tt.err)
			}
			if es.Err.Error() != tt.message {
				t.Errorf("message = %q, want %q", es.Err.Error(), tt.message)
			}
			if !strings.Contains(es.Suggestion, tt.suggestion) {
				t.Errorf("suggestion = %q, want it to contain %q", es.Suggestion, tt.suggestion)
			}
		})
	}
}

// TestErrCategoryInUsePluralization verifies the count reads naturally
func TestErrCategoryInUsePluralization(t *testing.T) {
	base := errors.New("category in use")

	one := ErrCategoryInUse(base, 1)
	if !strings.Contains(one.Error(), "the 1 task first") {
		t.Errorf("single = %q", one.Error())
	}
	many := ErrCategoryInUse(base, 3)
	if !strings.Contains(many.Error(), "the 3 tasks first") {
		t.Errorf("plural = %q", many.Error())
	}
	if !errors.Is(many, base) {
		t.Error("ErrCategoryInUse should wrap the original error")
	}
}
