package store

import (
	"strings"
	"unicode/utf8"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 1000
	MaxIconLength        = 2
)

// ValidateTaskInput trims and checks the text fields of a task form.
// Title must be non-empty after trimming. The store itself accepts any
// input; callers validate first.
func ValidateTaskInput(in TaskInput) (TaskInput, error) {
	out := in
	out.Title = strings.TrimSpace(in.Title)
	out.Description = strings.TrimSpace(in.Description)

	if out.Title == "" {
		return in, &ValidationError{Field: "title", Message: "title is required"}
	}
	if utf8.RuneCountInString(out.Title) > MaxTitleLength {
		return in, &ValidationError{Field: "title", Message: "title must be at most 200 characters"}
	}
	if utf8.RuneCountInString(out.Description) > MaxDescriptionLength {
		return in, &ValidationError{Field: "description", Message: "description must be at most 1000 characters"}
	}
	if out.Priority != "" && !out.Priority.Valid() {
		return in, &ValidationError{Field: "priority", Message: "unknown priority " + string(out.Priority)}
	}

	out.Tags = nil
	for _, tag := range in.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			out.Tags = append(out.Tags, tag)
		}
	}
	return out, nil
}

// ParseTags splits a comma-separated tag list, trimming entries and
// dropping empty ones. Order and duplicates are kept.
func ParseTags(s string) []string {
	var tags []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			tags = append(tags, part)
		}
	}
	return tags
}

// ValidateCategoryName checks a category form: a non-empty name and an
// icon of at most two characters.
func ValidateCategoryName(name string, icon *string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", &ValidationError{Field: "name", Message: "category name is required"}
	}
	if icon != nil && utf8.RuneCountInString(*icon) > MaxIconLength {
		return "", &ValidationError{Field: "icon", Message: "icon must be at most 2 characters"}
	}
	return name, nil
}
