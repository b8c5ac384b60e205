package store_test

import (
	"errors"
	"strings"
	"testing"

	"tidytodo/backend"
	"tidytodo/internal/store"
)

func TestValidateTaskInput(t *testing.T) {
	in, err := store.ValidateTaskInput(store.TaskInput{
		Title:       "  Report  ",
		Description: " details ",
		Priority:    backend.PriorityHigh,
		Tags:        []string{" a ", "", "b", "  ", "a"},
	})
	if err != nil {
		t.Fatalf("ValidateTaskInput error: %v", err)
	}
	if in.Title != "Report" || in.Description != "details" {
		t.Errorf("trimmed = %q / %q", in.Title, in.Description)
	}
	if strings.Join(in.Tags, ",") != "a,b,a" {
		t.Errorf("tags = %v", in.Tags)
	}
}

func TestValidateTaskInputRejects(t *testing.T) {
	tests := []struct {
		name  string
		in    store.TaskInput
		field string
	}{
		{"empty title", store.TaskInput{Title: "   "}, "title"},
		{"long title", store.TaskInput{Title: strings.Repeat("あ", 201)}, "title"},
		{"long description", store.TaskInput{Title: "ok", Description: strings.Repeat("x", 1001)}, "description"},
		{"bad priority", store.TaskInput{Title: "ok", Priority: "critical"}, "priority"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.ValidateTaskInput(tt.in)
			var ve *store.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("error = %v, want *ValidationError", err)
			}
			if ve.Field != tt.field {
				t.Errorf("Field = %q, want %q", ve.Field, tt.field)
			}
		})
	}
}

// TestValidateTaskInputBoundaries verifies the limits are inclusive and count characters
func TestValidateTaskInputBoundaries(t *testing.T) {
	_, err := store.ValidateTaskInput(store.TaskInput{
		Title:       strings.Repeat("あ", 200),
		Description: strings.Repeat("é", 1000),
	})
	if err != nil {
		t.Errorf("limits should be inclusive: %v", err)
	}
}

func TestParseTags(t *testing.T) {
	if got := store.ParseTags(" work, urgent ,,work "); strings.Join(got, "|") != "work|urgent|work" {
		t.Errorf("ParseTags = %v", got)
	}
	if got := store.ParseTags(" , "); got != nil {
		t.Errorf("ParseTags(blank) = %v, want nil", got)
	}
}

func TestValidateCategoryName(t *testing.T) {
	name, err := store.ValidateCategoryName("  Work ", backend.Ptr("💼"))
	if err != nil || name != "Work" {
		t.Errorf("ValidateCategoryName = %q, %v", name, err)
	}

	if _, err := store.ValidateCategoryName(" ", nil); err == nil {
		t.Error("empty name accepted")
	}
	if _, err := store.ValidateCategoryName("Home", backend.Ptr("abc")); err == nil {
		t.Error("three-character icon accepted")
	}
}
